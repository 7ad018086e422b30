package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/UkralStul/feed-moderation-service/internal/domain"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// UserHeader - заголовок с id вызывающего пользователя.
const UserHeader = "X-User-ID"

const userQueryParam = "userId"

type viewerKey struct{}

// requestLogger пишет одну строку на запрос.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.log.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		}()
		next.ServeHTTP(ww, r)
	})
}

// resolveViewer превращает X-User-ID в Viewer. Без заголовка - анонимный читатель.
func (s *Server) resolveViewer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewer := domain.Viewer{Role: domain.RoleUser}
		id := r.Header.Get(UserHeader)
		if id == "" {
			// Браузерный WebSocket не умеет выставлять заголовки
			id = r.URL.Query().Get(userQueryParam)
		}
		if id != "" {
			user, err := s.store.GetUserByID(r.Context(), id)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					err = fmt.Errorf("unknown user %s: %w", id, domain.ErrForbidden)
				}
				s.writeError(w, r, err)
				return
			}
			viewer = domain.Viewer{UserID: user.ID, Role: user.Role}
		}
		ctx := context.WithValue(r.Context(), viewerKey{}, viewer)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin закрывает админские маршруты.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !viewerFrom(r.Context()).IsAdmin() {
			s.writeError(w, r, fmt.Errorf("admin role required: %w", domain.ErrForbidden))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func viewerFrom(ctx context.Context) domain.Viewer {
	if v, ok := ctx.Value(viewerKey{}).(domain.Viewer); ok {
		return v
	}
	return domain.Viewer{Role: domain.RoleUser}
}

// requireUser возвращает id вызывающего или ErrForbidden для анонима.
func requireUser(ctx context.Context) (domain.Viewer, error) {
	v := viewerFrom(ctx)
	if v.UserID == "" {
		return v, fmt.Errorf("%s header required: %w", UserHeader, domain.ErrForbidden)
	}
	return v, nil
}
