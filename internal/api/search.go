package api

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/UkralStul/feed-moderation-service/internal/dataloader"
	"github.com/UkralStul/feed-moderation-service/internal/domain"
	"github.com/UkralStul/feed-moderation-service/internal/storage"
	"github.com/samber/lo"
)

const minSearchQuery = 2

// SearchResult - найденный пост или комментарий.
type SearchResult struct {
	Type     domain.Kind `json:"type"`
	Username string      `json:"username"`
	Text     string      `json:"text"`
	ID       string      `json:"id"`
	PostID   string      `json:"postId,omitempty"`
}

// search ищет только по непомеченному контенту, поэтому редактировать результаты не нужно.
func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if utf8.RuneCountInString(query) < minSearchQuery {
		s.writeJSON(w, http.StatusOK, []SearchResult{})
		return
	}

	ctx := r.Context()
	posts, err := s.store.SearchPosts(ctx, query, storage.SearchLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	comments, err := s.store.SearchComments(ctx, query, storage.SearchLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	authorIDs := append(
		lo.Map(posts, func(p *domain.Post, _ int) string { return p.AuthorID }),
		lo.Map(comments, func(c *domain.Comment, _ int) string { return c.AuthorID })...,
	)
	users, err := dataloader.For(ctx).UsersFor(ctx, authorIDs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	username := func(id string) string {
		if u, ok := users[id]; ok {
			return u.Username
		}
		return unknownUsername
	}

	results := make([]SearchResult, 0, len(posts)+len(comments))
	for _, p := range posts {
		results = append(results, SearchResult{Type: domain.KindPost, Username: username(p.AuthorID), Text: p.Caption, ID: p.ID})
	}
	for _, c := range comments {
		results = append(results, SearchResult{Type: domain.KindComment, Username: username(c.AuthorID), Text: c.Text, ID: c.ID, PostID: c.PostID})
	}
	s.writeJSON(w, http.StatusOK, results)
}
