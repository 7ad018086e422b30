// Package api - REST-интерфейс ленты и админской модерации поверх chi.
package api

import (
	"net/http"
	"time"

	"github.com/UkralStul/feed-moderation-service/internal/content"
	"github.com/UkralStul/feed-moderation-service/internal/dataloader"
	"github.com/UkralStul/feed-moderation-service/internal/observer"
	"github.com/UkralStul/feed-moderation-service/internal/review"
	"github.com/UkralStul/feed-moderation-service/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 100
	pingInterval     = 10 * time.Second
)

// Server содержит все зависимости, которые нужны обработчикам.
type Server struct {
	store    storage.Storage
	gate     *content.Gate
	queue    *review.Queue
	observer *observer.Observer
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewServer создает REST-сервер.
func NewServer(store storage.Storage, gate *content.Gate, queue *review.Queue, obs *observer.Observer, log *zap.Logger) *Server {
	return &Server{
		store:    store,
		gate:     gate,
		queue:    queue,
		observer: obs,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// Routes собирает роутер со всеми маршрутами.
func (s *Server) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(s.requestLogger)
	router.Use(middleware.Recoverer)

	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
			s.writeJSON(w, http.StatusOK, messageResponse{Message: "pong"})
		})

		r.Group(func(r chi.Router) {
			r.Use(s.resolveViewer)
			r.Use(func(next http.Handler) http.Handler { return dataloader.Middleware(s.store, next) })

			r.Route("/posts", func(r chi.Router) {
				r.Get("/", s.listPosts)
				r.Post("/", s.createPost)
				r.Get("/user/{username}", s.listUserPosts)
				r.Put("/{id}/like", s.likePost)
				r.Delete("/{id}", s.deletePost)
				r.Get("/{id}/stream", s.streamComments)
			})

			r.Route("/comments", func(r chi.Router) {
				r.Post("/{postId}", s.createComment)
				r.Delete("/{id}", s.deleteComment)
			})

			r.Get("/search", s.search)

			r.Route("/users", func(r chi.Router) {
				r.Post("/", s.createUser)
				r.Post("/save/{postId}", s.savePost)
				r.Delete("/unsave/{postId}", s.unsavePost)
				r.Get("/{username}", s.getUser)
				r.Put("/{username}", s.updateUser)
				r.Get("/{username}/saved", s.listSavedPosts)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.Get("/flagged", s.listFlagged)
				r.Put("/{kind}/{id}/approve", s.approve)
				r.Delete("/{kind}/{id}", s.remove)
				r.Get("/stream", s.streamReview)
			})
		})
	})

	return router
}
