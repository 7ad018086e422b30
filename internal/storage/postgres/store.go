package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/UkralStul/feed-moderation-service/internal/domain"
	"github.com/cenkalti/backoff/v4"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store реализует интерфейс Storage с использованием PostgreSQL.
type Store struct {
	db *gorm.DB
}

// New создает новый экземпляр хранилища PostgreSQL.
// Подключение повторяется с экспоненциальной задержкой, пока не истечет ctx или попытки.
func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	var db *gorm.DB
	connect := func() error {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
			// Без внешних ключей: удаление поста не каскадируется на комментарии.
			DisableForeignKeyConstraintWhenMigrating: true,
		})
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second
	notify := func(err error, next time.Duration) {
		log.Warn("postgres not ready, retrying", zap.Error(err), zap.Duration("next", next))
	}
	if err := backoff.RetryNotify(connect, backoff.WithContext(bo, ctx), notify); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Выполняем миграцию схемы
	if err := db.AutoMigrate(&domain.User{}, &domain.Post{}, &domain.Comment{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// notFound переводит gorm.ErrRecordNotFound в domain.ErrNotFound.
func notFound(err error, what, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s with id %s: %w", what, id, domain.ErrNotFound)
	}
	return err
}

// likePattern экранирует спецсимволы LIKE.
func likePattern(query string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(query) + "%"
}

// === User Methods ===

func (s *Store) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.User{}).
			Where("LOWER(username) = LOWER(?) OR LOWER(email) = LOWER(?)", user.Username, user.Email).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("username or email already taken: %w", domain.ErrConflict)
		}
		return tx.Create(user).Error
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "user", id)
	}
	return &user, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		return nil, notFound(err, "user", username)
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, "LOWER(email) = LOWER(?)", email).Error; err != nil {
		return nil, notFound(err, "user", email)
	}
	return &user, nil
}

func (s *Store) UpdateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	var updated domain.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&updated, "id = ?", user.ID).Error; err != nil {
			return notFound(err, "user", user.ID)
		}
		var count int64
		if err := tx.Model(&domain.User{}).
			Where("LOWER(username) = LOWER(?) AND id <> ?", user.Username, user.ID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("username %s already taken: %w", user.Username, domain.ErrConflict)
		}
		return tx.Model(&updated).Updates(map[string]any{
			"username":  user.Username,
			"avatar":    user.Avatar,
			"full_name": user.FullName,
			"bio":       user.Bio,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	var users []*domain.User
	if err := s.db.WithContext(ctx).Where("id IN ?", lo.Uniq(ids)).Find(&users).Error; err != nil {
		return nil, err
	}
	return lo.Associate(users, func(u *domain.User) (string, *domain.User) {
		return u.ID, u
	}), nil
}

// === Post Methods ===

func (s *Store) CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return nil, err
	}
	// GORM автоматически заполнит ID и CreatedAt после создания
	return post, nil
}

func (s *Store) GetPostByID(ctx context.Context, id string) (*domain.Post, error) {
	var post domain.Post
	if err := s.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "post", id)
	}
	return &post, nil
}

func (s *Store) GetPosts(ctx context.Context, limit, offset int) ([]*domain.Post, error) {
	var posts []*domain.Post
	err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Offset(offset).Find(&posts).Error
	return posts, err
}

func (s *Store) GetPostsByAuthor(ctx context.Context, authorID string) ([]*domain.Post, error) {
	var posts []*domain.Post
	err := s.db.WithContext(ctx).Where("author_id = ?", authorID).Order("created_at DESC").Find(&posts).Error
	return posts, err
}

func (s *Store) LikePost(ctx context.Context, id string) (*domain.Post, error) {
	var post domain.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Post{}).Where("id = ?", id).
			UpdateColumn("likes_count", gorm.Expr("likes_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("post with id %s: %w", id, domain.ErrNotFound)
		}
		return tx.First(&post, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	// Комментарии не удаляются: осиротевшие комментарии - осознанный компромисс.
	res := s.db.WithContext(ctx).Delete(&domain.Post{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("post with id %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// === Comment Methods ===

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	// Проверяем существование поста и создаем комментарий в одной транзакции
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Post{}).Where("id = ?", comment.PostID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("post with id %s: %w", comment.PostID, domain.ErrNotFound)
		}
		return tx.Create(comment).Error
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *Store) GetCommentByID(ctx context.Context, id string) (*domain.Comment, error) {
	var comment domain.Comment
	if err := s.db.WithContext(ctx).First(&comment, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "comment", id)
	}
	return &comment, nil
}

func (s *Store) DeleteComment(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&domain.Comment{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("comment with id %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// === Moderation Methods ===

func (s *Store) GetFlaggedPosts(ctx context.Context) ([]*domain.Post, error) {
	var posts []*domain.Post
	err := s.db.WithContext(ctx).Where("moderation_flagged = ?", true).Order("created_at DESC").Find(&posts).Error
	return posts, err
}

func (s *Store) GetFlaggedComments(ctx context.Context) ([]*domain.Comment, error) {
	var comments []*domain.Comment
	err := s.db.WithContext(ctx).Where("moderation_flagged = ?", true).Order("created_at DESC").Find(&comments).Error
	return comments, err
}

// setModeration заменяет вердикт одним UPDATE, поэтому гонка с удалением не оставляет частичной записи.
// model - запись нужного типа с уже выставленным вердиктом.
func (s *Store) setModeration(ctx context.Context, model any, what, id string) error {
	// Явный Select заставляет GORM записать и нулевые значения (flagged=false, reason=NULL).
	res := s.db.WithContext(ctx).Model(model).Where("id = ?", id).
		Select("moderation_flagged", "moderation_categories", "moderation_reason").
		Updates(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s with id %s: %w", what, id, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) SetPostModeration(ctx context.Context, id string, verdict domain.Verdict) error {
	return s.setModeration(ctx, &domain.Post{Moderation: verdict}, "post", id)
}

func (s *Store) SetCommentModeration(ctx context.Context, id string, verdict domain.Verdict) error {
	return s.setModeration(ctx, &domain.Comment{Moderation: verdict}, "comment", id)
}

// === Search Methods ===

func (s *Store) SearchPosts(ctx context.Context, query string, limit int) ([]*domain.Post, error) {
	var posts []*domain.Post
	err := s.db.WithContext(ctx).
		Where("moderation_flagged = ? AND caption ILIKE ?", false, likePattern(query)).
		Order("created_at DESC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

func (s *Store) SearchComments(ctx context.Context, query string, limit int) ([]*domain.Comment, error) {
	var comments []*domain.Comment
	err := s.db.WithContext(ctx).
		Where("moderation_flagged = ? AND text ILIKE ?", false, likePattern(query)).
		Order("created_at DESC").
		Limit(limit).
		Find(&comments).Error
	return comments, err
}

// === Saved Posts Methods ===

func (s *Store) SavePost(ctx context.Context, userID, postID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user domain.User
		if err := tx.First(&user, "id = ?", userID).Error; err != nil {
			return notFound(err, "user", userID)
		}
		var post domain.Post
		if err := tx.First(&post, "id = ?", postID).Error; err != nil {
			return notFound(err, "post", postID)
		}
		count := tx.Model(&user).Where("posts.id = ?", postID).Association("SavedPosts").Count()
		if count > 0 {
			return fmt.Errorf("post %s already saved: %w", postID, domain.ErrConflict)
		}
		return tx.Model(&user).Association("SavedPosts").Append(&post)
	})
}

func (s *Store) UnsavePost(ctx context.Context, userID, postID string) error {
	user := domain.User{ID: userID}
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return notFound(err, "user", userID)
	}
	return s.db.WithContext(ctx).Model(&user).Association("SavedPosts").Delete(&domain.Post{ID: postID})
}

func (s *Store) GetSavedPosts(ctx context.Context, userID string) ([]*domain.Post, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, notFound(err, "user", userID)
	}
	var posts []*domain.Post
	if err := s.db.WithContext(ctx).Model(&user).Association("SavedPosts").Find(&posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// === Dataloader Methods ===

func (s *Store) GetCommentsByPostIDs(ctx context.Context, postIDs []string) (map[string][]*domain.Comment, error) {
	var comments []*domain.Comment
	// Загружаем все комментарии для всех переданных postID одним запросом
	err := s.db.WithContext(ctx).
		Where("post_id IN ?", postIDs).
		Order("post_id, created_at ASC"). // Сортируем для правильной группировки и порядка
		Find(&comments).Error
	if err != nil {
		return nil, err
	}

	// Группируем результаты в карту map[postID][]*Comment
	result := lo.GroupBy(comments, func(c *domain.Comment) string { return c.PostID })
	for _, id := range postIDs {
		if _, ok := result[id]; !ok {
			result[id] = []*domain.Comment{}
		}
	}
	return result, nil
}
