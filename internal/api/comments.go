package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type createCommentRequest struct {
	Text string `json:"text"`
}

func (s *Server) createComment(w http.ResponseWriter, r *http.Request) {
	viewer, err := requireUser(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req createCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	comment, err := s.gate.CreateComment(r.Context(), viewer.UserID, chi.URLParam(r, "postId"), req.Text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, s.gate.PresentComment(comment, viewer.Role))
}

func (s *Server) deleteComment(w http.ResponseWriter, r *http.Request) {
	viewer, err := requireUser(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.gate.DeleteComment(r.Context(), viewer, chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "Comment deleted"})
}
