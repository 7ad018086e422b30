package dataloader

import (
	"context"
	"net/http"
	"time"

	"github.com/UkralStul/feed-moderation-service/internal/domain"
	"github.com/UkralStul/feed-moderation-service/internal/storage"
	"github.com/graph-gophers/dataloader"
	"github.com/samber/lo"
)

type contextKey string

const key = contextKey("dataloaders")

// Loaders содержит все дата-лоадеры приложения.
type Loaders struct {
	CommentsByPostID *dataloader.Loader
	UsersByID        *dataloader.Loader
}

// errorResults возвращает одну и ту же ошибку для всех ключей
func errorResults(n int, err error) []*dataloader.Result {
	results := make([]*dataloader.Result, n)
	for i := range results {
		results[i] = &dataloader.Result{Error: err}
	}
	return results
}

func keyStrings(keys dataloader.Keys) []string {
	return lo.Map(keys, func(k dataloader.Key, _ int) string { return k.String() })
}

// NewLoaders создает лоадеры на один запрос.
func NewLoaders(store storage.Storage) *Loaders {
	commentsFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		postIDs := keyStrings(keys)

		// Один запрос к хранилищу на весь батч
		commentsMap, err := store.GetCommentsByPostIDs(ctx, postIDs)
		if err != nil {
			return errorResults(len(keys), err)
		}

		// Формируем результат в том же порядке, что и ключи
		results := make([]*dataloader.Result, len(keys))
		for i, postID := range postIDs {
			comments := commentsMap[postID]
			if comments == nil {
				comments = []*domain.Comment{}
			}
			results[i] = &dataloader.Result{Data: comments}
		}
		return results
	}

	usersFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		ids := keyStrings(keys)

		users, err := store.GetUsersByIDs(ctx, ids)
		if err != nil {
			return errorResults(len(keys), err)
		}

		// Отсутствующий автор - не ошибка: пользователь мог быть удален
		results := make([]*dataloader.Result, len(keys))
		for i, id := range ids {
			results[i] = &dataloader.Result{Data: users[id]}
		}
		return results
	}

	return &Loaders{
		CommentsByPostID: dataloader.NewBatchedLoader(commentsFn, dataloader.WithWait(time.Millisecond*1)),
		UsersByID:        dataloader.NewBatchedLoader(usersFn, dataloader.WithWait(time.Millisecond*1)),
	}
}

// Middleware для внедрения лоадеров в контекст запроса.
func Middleware(store storage.Storage, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), key, NewLoaders(store))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// For извлекает лоадеры из контекста.
func For(ctx context.Context) *Loaders {
	return ctx.Value(key).(*Loaders)
}

// Comments возвращает комментарии поста в порядке создания.
func (l *Loaders) Comments(ctx context.Context, postID string) ([]*domain.Comment, error) {
	data, err := l.CommentsByPostID.Load(ctx, dataloader.StringKey(postID))()
	if err != nil {
		return nil, err
	}
	return data.([]*domain.Comment), nil
}

// User возвращает пользователя или nil, если его нет.
func (l *Loaders) User(ctx context.Context, id string) (*domain.User, error) {
	data, err := l.UsersByID.Load(ctx, dataloader.StringKey(id))()
	if err != nil {
		return nil, err
	}
	user, _ := data.(*domain.User)
	return user, nil
}

// CommentsFor грузит комментарии нескольких постов одним батчем.
func (l *Loaders) CommentsFor(ctx context.Context, postIDs []string) (map[string][]*domain.Comment, error) {
	if len(postIDs) == 0 {
		return map[string][]*domain.Comment{}, nil
	}
	data, errs := l.CommentsByPostID.LoadMany(ctx, dataloader.NewKeysFromStrings(postIDs))()
	if err := firstError(errs); err != nil {
		return nil, err
	}
	result := make(map[string][]*domain.Comment, len(postIDs))
	for i, id := range postIDs {
		result[id], _ = data[i].([]*domain.Comment)
	}
	return result, nil
}

// UsersFor грузит пользователей одним батчем. Отсутствующих в карте нет.
func (l *Loaders) UsersFor(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	ids = lo.Uniq(ids)
	if len(ids) == 0 {
		return map[string]*domain.User{}, nil
	}
	data, errs := l.UsersByID.LoadMany(ctx, dataloader.NewKeysFromStrings(ids))()
	if err := firstError(errs); err != nil {
		return nil, err
	}
	result := make(map[string]*domain.User, len(ids))
	for i, id := range ids {
		if u, ok := data[i].(*domain.User); ok && u != nil {
			result[id] = u
		}
	}
	return result, nil
}

func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
