package observer

import (
	"context"
	"testing"
	"time"

	"github.com/UkralStul/feed-moderation-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserver_PublishToTopic(t *testing.T) {
	o := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	post := o.Subscribe(ctx, "post-1")
	other := o.Subscribe(ctx, "post-2")
	assert.Equal(t, 1, o.Subscribers("post-1"))

	o.Publish("post-1", Event{Type: EventCommentAdded, Kind: domain.KindComment, ID: "c1"})

	select {
	case ev := <-post:
		assert.Equal(t, "c1", ev.ID)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
	select {
	case <-other:
		t.Fatal("event leaked to another topic")
	default:
	}
}

func TestObserver_UnsubscribeOnCancel(t *testing.T) {
	o := New()
	ctx, cancel := context.WithCancel(context.Background())
	ch := o.Subscribe(ctx, ReviewTopic)

	cancel()

	_, open := <-ch
	assert.False(t, open)
	require.Eventually(t, func() bool { return o.Subscribers(ReviewTopic) == 0 }, time.Second, 5*time.Millisecond)

	// Публикация без подписчиков не паникует
	o.Publish(ReviewTopic, Event{Type: EventFlagged})
}

func TestObserver_SlowSubscriberDoesNotBlock(t *testing.T) {
	o := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := o.Subscribe(ctx, ReviewTopic)

	for i := 0; i < 100; i++ {
		o.Publish(ReviewTopic, Event{Type: EventFlagged})
	}
	assert.Len(t, ch, cap(ch))
}
