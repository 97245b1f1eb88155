package sse

import (
	"context"
	"testing"
	"time"

	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitReachesSubscribers(t *testing.T) {
	feed := NewOrderFeed()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, a := feed.Subscribe(ctx)
	_, b := feed.Subscribe(ctx)
	require.Equal(t, 2, feed.ClientCount())

	n := feed.Emit(models.OrderEvent{Type: models.EventOrderCreated, OrderID: 7})
	assert.Equal(t, 2, n)

	for _, ch := range []<-chan models.OrderEvent{a, b} {
		select {
		case ev := <-ch:
			assert.Equal(t, int64(7), ev.OrderID)
		case <-time.After(time.Second):
			t.Fatal("event not delivered")
		}
	}
}

func TestSubscriberRemovedOnCancel(t *testing.T) {
	feed := NewOrderFeed()
	ctx, cancel := context.WithCancel(context.Background())

	_, ch := feed.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("channel was not closed")
	}
	assert.Equal(t, 0, feed.ClientCount())
	assert.Equal(t, 0, feed.Emit(models.OrderEvent{}))
}

func TestEmitSkipsFullClient(t *testing.T) {
	feed := NewOrderFeed()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, _ = feed.Subscribe(ctx)
	for i := 0; i < clientBuffer; i++ {
		require.Equal(t, 1, feed.Emit(models.OrderEvent{OrderID: int64(i)}))
	}
	assert.Equal(t, 0, feed.Emit(models.OrderEvent{OrderID: 99}))
}
