package main

import (
	"context"
	"testing"

	"github.com/UkralStul/feed-moderation-service/internal/domain"
	"github.com/UkralStul/feed-moderation-service/internal/storage/inmemory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFillWithMockData(t *testing.T) {
	ctx := context.Background()
	store := inmemory.New()

	require.NoError(t, fillWithMockData(ctx, store, zap.NewNop()))
	// Повторный запуск не дублирует данные
	require.NoError(t, fillWithMockData(ctx, store, zap.NewNop()))

	admin, err := store.GetUserByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)

	posts, err := store.GetPosts(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, posts, 2)

	flaggedPosts, err := store.GetFlaggedPosts(ctx)
	require.NoError(t, err)
	assert.Len(t, flaggedPosts, 1)

	flaggedComments, err := store.GetFlaggedComments(ctx)
	require.NoError(t, err)
	assert.Len(t, flaggedComments, 1)
}
