package api

import (
	"context"
	"fmt"

	"github.com/UkralStul/feed-moderation-service/internal/content"
	"github.com/UkralStul/feed-moderation-service/internal/dataloader"
	"github.com/UkralStul/feed-moderation-service/internal/domain"
	"github.com/samber/lo"
)

const unknownUsername = "Unknown"

// FeedComment - комментарий в ленте вместе с именем автора.
type FeedComment struct {
	content.PresentedComment
	Username string `json:"username"`
}

// FeedPost - пост в ленте: автор, аватар и комментарии в порядке создания.
type FeedPost struct {
	content.PresentedPost
	Username   string        `json:"username"`
	UserAvatar string        `json:"userAvatar"`
	Comments   []FeedComment `json:"comments"`
}

// assembleFeed собирает посты ленты. Авторы и комментарии грузятся батчами через dataloader,
// все тексты проходят через Gate.
func (s *Server) assembleFeed(ctx context.Context, posts []*domain.Post, role domain.Role) ([]FeedPost, error) {
	loaders := dataloader.For(ctx)

	postIDs := lo.Map(posts, func(p *domain.Post, _ int) string { return p.ID })
	comments, err := loaders.CommentsFor(ctx, postIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load comments: %w", err)
	}

	authorIDs := lo.Map(posts, func(p *domain.Post, _ int) string { return p.AuthorID })
	for _, list := range comments {
		authorIDs = append(authorIDs, lo.Map(list, func(c *domain.Comment, _ int) string { return c.AuthorID })...)
	}
	users, err := loaders.UsersFor(ctx, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load authors: %w", err)
	}

	feed := make([]FeedPost, 0, len(posts))
	for _, p := range posts {
		item := FeedPost{
			PresentedPost: s.gate.PresentPost(p, role),
			Username:      unknownUsername,
			Comments: lo.Map(comments[p.ID], func(c *domain.Comment, _ int) FeedComment {
				return s.feedComment(c, users[c.AuthorID], role)
			}),
		}
		if author, ok := users[p.AuthorID]; ok {
			item.Username = author.Username
			item.UserAvatar = author.Avatar
		}
		feed = append(feed, item)
	}
	return feed, nil
}

func (s *Server) feedComment(c *domain.Comment, author *domain.User, role domain.Role) FeedComment {
	fc := FeedComment{PresentedComment: s.gate.PresentComment(c, role), Username: unknownUsername}
	if author != nil {
		fc.Username = author.Username
	}
	return fc
}
