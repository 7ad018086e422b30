package api

import (
	"fmt"
	"net/http"

	"github.com/UkralStul/feed-moderation-service/internal/dataloader"
	"github.com/UkralStul/feed-moderation-service/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
)

// FlaggedPost - помеченный пост целиком, с именем автора.
type FlaggedPost struct {
	*domain.Post
	Username string `json:"username"`
}

// FlaggedComment - помеченный комментарий целиком, с именем автора.
type FlaggedComment struct {
	*domain.Comment
	Username string `json:"username"`
}

type flaggedResponse struct {
	Posts    []FlaggedPost    `json:"posts"`
	Comments []FlaggedComment `json:"comments"`
}

// parseKind: "posts" -> post, "comments" -> comment.
func parseKind(s string) (domain.Kind, error) {
	switch s {
	case "posts":
		return domain.KindPost, nil
	case "comments":
		return domain.KindComment, nil
	}
	return "", fmt.Errorf("unknown content kind %q: %w", s, domain.ErrValidation)
}

func (s *Server) listFlagged(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	flagged, err := s.queue.ListFlagged(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	authorIDs := append(
		lo.Map(flagged.Posts, func(p *domain.Post, _ int) string { return p.AuthorID }),
		lo.Map(flagged.Comments, func(c *domain.Comment, _ int) string { return c.AuthorID })...,
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

	s.writeJSON(w, http.StatusOK, flaggedResponse{
		Posts: lo.Map(flagged.Posts, func(p *domain.Post, _ int) FlaggedPost {
			return FlaggedPost{Post: p, Username: username(p.AuthorID)}
		}),
		Comments: lo.Map(flagged.Comments, func(c *domain.Comment, _ int) FlaggedComment {
			return FlaggedComment{Comment: c, Username: username(c.AuthorID)}
		}),
	})
}

func (s *Server) approve(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(chi.URLParam(r, "kind"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.queue.Approve(r.Context(), kind, chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Message: fmt.Sprintf("%s approved", kind)})
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(chi.URLParam(r, "kind"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.queue.Remove(r.Context(), kind, chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Message: fmt.Sprintf("%s deleted", kind)})
}
