package sse

import (
	"context"
	"sync"

	"storefront/internal/models"

	"github.com/google/uuid"
)

const clientBuffer = 16

// OrderFeed fans order events out to every connected team portal.
type OrderFeed struct {
	mu      sync.RWMutex
	clients map[string]chan models.OrderEvent
}

func NewOrderFeed() *OrderFeed {
	return &OrderFeed{clients: make(map[string]chan models.OrderEvent)}
}

// Subscribe registers a client until ctx is done. The returned channel is closed on removal.
func (f *OrderFeed) Subscribe(ctx context.Context) (string, <-chan models.OrderEvent) {
	id := uuid.NewString()
	ch := make(chan models.OrderEvent, clientBuffer)

	f.mu.Lock()
	f.clients[id] = ch
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.remove(id)
	}()

	return id, ch
}

// Emit never blocks; a client whose buffer is full misses the event.
func (f *OrderFeed) Emit(ev models.OrderEvent) int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	delivered := 0
	for _, ch := range f.clients {
		select {
		case ch <- ev:
			delivered++
		default:
		}
	}
	return delivered
}

func (f *OrderFeed) remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if ch, ok := f.clients[id]; ok {
		delete(f.clients, id)
		close(ch)
	}
}

func (f *OrderFeed) ClientCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.clients)
}
