package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/UkralStul/feed-moderation-service/internal/domain"
	"github.com/UkralStul/feed-moderation-service/internal/storage"
	"go.uber.org/zap"
)

// fillWithMockData заполняет хранилище демо-данными. Повторный запуск ничего не делает.
func fillWithMockData(ctx context.Context, s storage.Storage, log *zap.Logger) error {
	if _, err := s.GetUserByUsername(ctx, "testuser"); err == nil {
		log.Info("mock data already present, skipping")
		return nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("fillWithMockData: %w", err)
	}

	// 1. Пользователи: обычный, второй для комментариев и админ.
	user, err := s.CreateUser(ctx, &domain.User{
		Username: "testuser",
		Email:    "test@example.com",
		Role:     domain.RoleUser,
		Avatar:   domain.DefaultAvatar,
		FullName: "Test User",
		Bio:      "AI-Powered Social Media",
	})
	if err != nil {
		return fmt.Errorf("fillWithMockData: failed to create user: %w", err)
	}
	friend, err := s.CreateUser(ctx, &domain.User{
		Username: "alice",
		Email:    "alice@example.com",
		Role:     domain.RoleUser,
		Avatar:   domain.DefaultAvatar,
		FullName: "Alice",
	})
	if err != nil {
		return fmt.Errorf("fillWithMockData: failed to create second user: %w", err)
	}
	admin, err := s.CreateUser(ctx, &domain.User{
		Username: "admin",
		Email:    "admin@example.com",
		Role:     domain.RoleAdmin,
		Avatar:   domain.DefaultAvatar,
		FullName: "Moderator",
	})
	if err != nil {
		return fmt.Errorf("fillWithMockData: failed to create admin: %w", err)
	}

	// 2. Обычный пост с комментарием.
	post, err := s.CreatePost(ctx, &domain.Post{
		AuthorID:   user.ID,
		Caption:    "What a nice day for a walk",
		ImageURL:   "https://picsum.photos/seed/walk/600/400",
		Moderation: domain.Cleared(),
	})
	if err != nil {
		return fmt.Errorf("fillWithMockData: failed to create post: %w", err)
	}
	if _, err := s.CreateComment(ctx, &domain.Comment{
		PostID:     post.ID,
		AuthorID:   friend.ID,
		Text:       "Looks lovely!",
		Moderation: domain.Cleared(),
	}); err != nil {
		return fmt.Errorf("fillWithMockData: failed to create comment: %w", err)
	}

	// 3. Помеченные пост и комментарий, чтобы очередь админа не была пустой.
	flagged, err := s.CreatePost(ctx, &domain.Post{
		AuthorID:   friend.ID,
		Caption:    "Click here, earn money fast!",
		Moderation: domain.Flag([]string{"spam"}, "Text: Promotional spam"),
	})
	if err != nil {
		return fmt.Errorf("fillWithMockData: failed to create flagged post: %w", err)
	}
	if _, err := s.CreateComment(ctx, &domain.Comment{
		PostID:     post.ID,
		AuthorID:   friend.ID,
		Text:       "dm for details",
		Moderation: domain.Flag([]string{"spam"}, "Promotional spam"),
	}); err != nil {
		return fmt.Errorf("fillWithMockData: failed to create flagged comment: %w", err)
	}

	log.Info("mock data filled",
		zap.String("user_id", user.ID),
		zap.String("admin_id", admin.ID),
		zap.String("post_id", post.ID),
		zap.String("flagged_post_id", flagged.ID))
	return nil
}
