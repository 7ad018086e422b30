package review

import (
	"context"
	"fmt"

	"github.com/UkralStul/feed-moderation-service/internal/domain"
	"github.com/UkralStul/feed-moderation-service/internal/observer"
	"github.com/UkralStul/feed-moderation-service/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var actionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "moderation_review_actions_total",
	Help: "Admin review actions by content kind and action.",
}, []string{"kind", "action"})

// Publisher - куда очередь сообщает о решениях админа.
type Publisher interface {
	Publish(topic string, ev observer.Event)
}

// Flagged - все помеченные записи, от новых к старым.
type Flagged struct {
	Posts    []*domain.Post    `json:"posts"`
	Comments []*domain.Comment `json:"comments"`
}

// Queue - админская очередь разбора помеченного контента.
// Состояний кроме flagged нет: одобрение и удаление - конечные действия.
type Queue struct {
	store  storage.Storage
	events Publisher
	log    *zap.Logger
}

// NewQueue создает очередь.
func NewQueue(store storage.Storage, events Publisher, log *zap.Logger) *Queue {
	return &Queue{store: store, events: events, log: log}
}

// ListFlagged возвращает помеченные посты и комментарии.
func (q *Queue) ListFlagged(ctx context.Context) (Flagged, error) {
	posts, err := q.store.GetFlaggedPosts(ctx)
	if err != nil {
		return Flagged{}, fmt.Errorf("failed to list flagged posts: %w", err)
	}
	comments, err := q.store.GetFlaggedComments(ctx)
	if err != nil {
		return Flagged{}, fmt.Errorf("failed to list flagged comments: %w", err)
	}
	return Flagged{Posts: posts, Comments: comments}, nil
}

// Approve снимает пометку, заменяя вердикт на чистый. Повторное одобрение - не ошибка.
func (q *Queue) Approve(ctx context.Context, kind domain.Kind, id string) error {
	var err error
	switch kind {
	case domain.KindPost:
		err = q.store.SetPostModeration(ctx, id, domain.Cleared())
	case domain.KindComment:
		err = q.store.SetCommentModeration(ctx, id, domain.Cleared())
	default:
		return fmt.Errorf("unknown content kind %q: %w", kind, domain.ErrValidation)
	}
	if err != nil {
		return err
	}

	actionsTotal.WithLabelValues(string(kind), "approve").Inc()
	q.log.Info("content approved", zap.String("kind", string(kind)), zap.String("id", id))
	q.events.Publish(observer.ReviewTopic, observer.Event{Type: observer.EventApproved, Kind: kind, ID: id})
	return nil
}

// Remove удаляет запись навсегда. Комментарии удаленного поста остаются "сиротами".
func (q *Queue) Remove(ctx context.Context, kind domain.Kind, id string) error {
	var err error
	switch kind {
	case domain.KindPost:
		err = q.store.DeletePost(ctx, id)
	case domain.KindComment:
		err = q.store.DeleteComment(ctx, id)
	default:
		return fmt.Errorf("unknown content kind %q: %w", kind, domain.ErrValidation)
	}
	if err != nil {
		return err
	}

	actionsTotal.WithLabelValues(string(kind), "remove").Inc()
	q.log.Info("content removed", zap.String("kind", string(kind)), zap.String("id", id))
	q.events.Publish(observer.ReviewTopic, observer.Event{Type: observer.EventRemoved, Kind: kind, ID: id})
	return nil
}
