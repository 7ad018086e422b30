package api

import (
	"context"
	"net/http"
	"time"

	"github.com/UkralStul/feed-moderation-service/internal/observer"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 5 * time.Second

// streamComments - WebSocket с новыми комментариями поста.
// Комментарии уже отредактированы Gate для обычного читателя.
func (s *Server) streamComments(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")
	// Проверяем, существует ли пост, прежде чем подписываться
	if _, err := s.store.GetPostByID(r.Context(), postID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.stream(w, r, postID)
}

// streamReview - WebSocket событий модерации для админов.
func (s *Server) streamReview(w http.ResponseWriter, r *http.Request) {
	s.stream(w, r, observer.ReviewTopic)
}

func (s *Server) stream(w http.ResponseWriter, r *http.Request, topic string) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		s.log.Warn("websocket upgrade failed", zap.String("topic", topic), zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	events := s.observer.Subscribe(ctx, topic)

	// Читаем из сокета только ради закрытия соединения клиентом
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				s.log.Debug("websocket write failed", zap.String("topic", topic), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
