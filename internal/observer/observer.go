package observer

import (
	"context"
	"sync"

	"github.com/UkralStul/feed-moderation-service/internal/domain"
	"github.com/google/uuid"
)

// ReviewTopic - канал событий для админов, разбирающих помеченный контент.
const ReviewTopic = "review"

// Типы событий.
const (
	EventCommentAdded = "comment_added"
	EventFlagged      = "flagged"
	EventApproved     = "approved"
	EventRemoved      = "removed"
)

// Event - то, что уходит подписчикам.
type Event struct {
	Type    string      `json:"type"`
	Kind    domain.Kind `json:"kind"`
	ID      string      `json:"id"`
	Payload any         `json:"payload,omitempty"`
}

// Observer хранит каналы подписчиков по темам.
// Тема - это id поста (новые комментарии) или ReviewTopic.
type Observer struct {
	mu sync.RWMutex
	//          map[topic] map[subscriberID] channel
	subs map[string]map[string]chan Event
}

// New - конструктор наблюдателя.
func New() *Observer {
	return &Observer{
		subs: make(map[string]map[string]chan Event),
	}
}

// Subscribe подписывает на тему до отмены ctx. После отмены канал закрывается.
func (o *Observer) Subscribe(ctx context.Context, topic string) <-chan Event {
	ch := make(chan Event, 16)
	subID := uuid.NewString()

	o.mu.Lock()
	if o.subs[topic] == nil {
		o.subs[topic] = make(map[string]chan Event)
	}
	o.subs[topic][subID] = ch
	o.mu.Unlock()

	// Горутина для очистки при отключении клиента
	go func() {
		<-ctx.Done()
		o.mu.Lock()
		if topicSubs, ok := o.subs[topic]; ok {
			delete(topicSubs, subID)
			if len(topicSubs) == 0 {
				delete(o.subs, topic)
			}
		}
		close(ch)
		o.mu.Unlock()
	}()

	return ch
}

// Publish рассылает событие, не блокируясь: медленный подписчик пропускает событие.
func (o *Observer) Publish(topic string, ev Event) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	for _, ch := range o.subs[topic] {
		select {
		case ch <- ev:
		default:
			// Клиент не успевает читать
		}
	}
}

// Subscribers возвращает число подписчиков темы.
func (o *Observer) Subscribers(topic string) int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.subs[topic])
}
