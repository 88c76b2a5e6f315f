package events

import (
	"context"
	"sync"
	"time"
)

type Type string

const (
	SessionEstablished Type = "session_established"
	SessionCleared     Type = "session_cleared"
	CartChanged        Type = "cart_changed"
	OrderSubmitted     Type = "order_submitted"
	CheckoutFailed     Type = "checkout_failed"
)

type Event struct {
	Type    Type           `json:"type"`
	UserID  int64          `json:"user_id,omitempty"`
	At      time.Time      `json:"at"`
	Payload map[string]any `json:"payload,omitempty"`
}

type Handler func(ctx context.Context, e Event)

type subscription struct {
	id int
	h  Handler
}

// Bus fans state-change events out to subscribers synchronously, in
// subscription order.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs []subscription
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) Subscribe(h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.next++
	id := b.next
	b.subs = append(b.subs, subscription{id: id, h: h})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

func (b *Bus) Publish(ctx context.Context, e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	b.mu.RLock()
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		s.h(ctx, e)
	}
}
