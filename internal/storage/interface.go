package storage

import (
	"context"

	"github.com/UkralStul/feed-moderation-service/internal/domain"
)

// SearchLimit - максимум результатов каждого типа в поиске.
const SearchLimit = 10

// Storage определяет контракт для хранилищ.
// Все методы поиска по id возвращают ошибку, обернутую вокруг domain.ErrNotFound, если записи нет.
type Storage interface {
	// Пользователи
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) (*domain.User, error)

	// Посты. Ленты отсортированы от новых к старым.
	GetPosts(ctx context.Context, limit, offset int) ([]*domain.Post, error)
	GetPostsByAuthor(ctx context.Context, authorID string) ([]*domain.Post, error)
	GetPostByID(ctx context.Context, id string) (*domain.Post, error)
	CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error)
	LikePost(ctx context.Context, id string) (*domain.Post, error)
	// DeletePost не удаляет комментарии поста: они остаются "сиротами".
	DeletePost(ctx context.Context, id string) error

	// Комментарии
	CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error)
	GetCommentByID(ctx context.Context, id string) (*domain.Comment, error)
	DeleteComment(ctx context.Context, id string) error

	// Модерация. Списки отсортированы от новых к старым.
	GetFlaggedPosts(ctx context.Context) ([]*domain.Post, error)
	GetFlaggedComments(ctx context.Context) ([]*domain.Comment, error)
	// SetPostModeration и SetCommentModeration заменяют вердикт целиком.
	SetPostModeration(ctx context.Context, id string, verdict domain.Verdict) error
	SetCommentModeration(ctx context.Context, id string, verdict domain.Verdict) error

	// Поиск по непомеченному контенту, без учета регистра.
	SearchPosts(ctx context.Context, query string, limit int) ([]*domain.Post, error)
	SearchComments(ctx context.Context, query string, limit int) ([]*domain.Comment, error)

	// Сохраненные посты
	SavePost(ctx context.Context, userID, postID string) error
	UnsavePost(ctx context.Context, userID, postID string) error
	GetSavedPosts(ctx context.Context, userID string) ([]*domain.Post, error)

	// Методы для Dataloader'ов
	GetCommentsByPostIDs(ctx context.Context, postIDs []string) (map[string][]*domain.Comment, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error)
}
