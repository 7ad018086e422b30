package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/UkralStul/feed-moderation-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

type createUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Bio      string `json:"bio"`
	Avatar   string `json:"avatar"`
}

// updateUserRequest - пустые поля не меняются.
type updateUserRequest struct {
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Bio      string `json:"bio"`
	Avatar   string `json:"avatar"`
}

// createUser регистрирует обычного пользователя. Админы заводятся только при seed.
func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if username == "" || email == "" {
		s.writeError(w, r, fmt.Errorf("username and email are required: %w", domain.ErrValidation))
		return
	}
	avatar := strings.TrimSpace(req.Avatar)
	if avatar == "" {
		avatar = domain.DefaultAvatar
	}

	user, err := s.store.CreateUser(r.Context(), &domain.User{
		Username: username,
		Email:    email,
		Role:     domain.RoleUser,
		Avatar:   avatar,
		FullName: req.FullName,
		Bio:      req.Bio,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, user)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.GetUserByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, user)
}

// updateUser меняет профиль. Править можно только свой профиль, админ - любой.
func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	viewer, err := requireUser(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.store.GetUserByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if user.ID != viewer.UserID && !viewer.IsAdmin() {
		s.writeError(w, r, fmt.Errorf("cannot edit another user's profile: %w", domain.ErrForbidden))
		return
	}

	if v := strings.TrimSpace(req.Username); v != "" {
		user.Username = v
	}
	if req.FullName != "" {
		user.FullName = req.FullName
	}
	if req.Bio != "" {
		user.Bio = req.Bio
	}
	if v := strings.TrimSpace(req.Avatar); v != "" {
		user.Avatar = v
	}

	updated, err := s.store.UpdateUser(r.Context(), user)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) savePost(w http.ResponseWriter, r *http.Request) {
	viewer, err := requireUser(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.SavePost(r.Context(), viewer.UserID, chi.URLParam(r, "postId")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "Post saved successfully"})
}

func (s *Server) unsavePost(w http.ResponseWriter, r *http.Request) {
	viewer, err := requireUser(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.UnsavePost(r.Context(), viewer.UserID, chi.URLParam(r, "postId")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "Post unsaved successfully"})
}

// listSavedPosts отдает сохраненные посты так же, как лента: помеченные скрыты.
func (s *Server) listSavedPosts(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.GetUserByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	posts, err := s.store.GetSavedPosts(r.Context(), user.ID)
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
