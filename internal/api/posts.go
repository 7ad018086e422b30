package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/UkralStul/feed-moderation-service/internal/content"
	"github.com/UkralStul/feed-moderation-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

type createPostRequest struct {
	Caption  string `json:"caption"`
	ImageURL string `json:"imageUrl"`
}

// pagination читает limit и offset. По умолчанию первая страница.
func pagination(r *http.Request) (int, int, error) {
	limit, offset := defaultFeedLimit, 0
	if v := r.URL.Query().Get("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l <= 0 {
			return 0, 0, fmt.Errorf("invalid limit %q: %w", v, domain.ErrValidation)
		}
		limit = min(l, maxFeedLimit)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		o, err := strconv.Atoi(v)
		if err != nil || o < 0 {
			return 0, 0, fmt.Errorf("invalid offset %q: %w", v, domain.ErrValidation)
		}
		offset = o
	}
	return limit, offset, nil
}

func (s *Server) listPosts(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	posts, err := s.store.GetPosts(r.Context(), limit, offset)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	feed, err := s.assembleFeed(r.Context(), posts, viewerFrom(r.Context()).Role)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, feed)
}

func (s *Server) listUserPosts(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.GetUserByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	posts, err := s.store.GetPostsByAuthor(r.Context(), user.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	feed, err := s.assembleFeed(r.Context(), posts, viewerFrom(r.Context()).Role)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, feed)
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	viewer, err := requireUser(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req createPostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	post, err := s.gate.CreatePost(r.Context(), viewer.UserID, content.PostSubmission{
		Caption:  req.Caption,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	// Автор видит то же, что и остальные читатели с его ролью
	s.writeJSON(w, http.StatusCreated, s.gate.PresentPost(post, viewer.Role))
}

func (s *Server) likePost(w http.ResponseWriter, r *http.Request) {
	post, err := s.store.LikePost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.gate.PresentPost(post, viewerFrom(r.Context()).Role))
}

func (s *Server) deletePost(w http.ResponseWriter, r *http.Request) {
	viewer, err := requireUser(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.gate.DeletePost(r.Context(), viewer, chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "Post has been deleted"})
}
