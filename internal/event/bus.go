package event

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Handler reacts to one published event. Durability of the reaction (e.g. an
// audit write) is the subscriber's own responsibility, not the bus's.
type Handler func(ctx context.Context, e Event) error

type subscription struct {
	name    string
	handler Handler
}

// Bus is the in-process publish/subscribe fabric. It holds no business
// state, only the registration table, and is wired once at bootstrap.
type Bus struct {
	mu     sync.RWMutex
	subs   map[Kind][]subscription
	logger *slog.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		subs:   make(map[Kind][]subscription),
		logger: logger,
	}
}

// Subscribe registers a named handler for a kind. Handlers run in
// registration order for a given publish.
func (b *Bus) Subscribe(kind Kind, name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[kind] = append(b.subs[kind], subscription{name: name, handler: h})
}

// Publish invokes every handler registered for the event's kind. A failing
// or panicking handler is logged and isolated: siblings still run and the
// publisher always gets control back. Nothing is retried or persisted here.
func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	subs := b.subs[e.Kind()]
	b.mu.RUnlock()

	for _, sub := range subs {
		if err := b.dispatch(ctx, sub, e); err != nil {
			b.logger.ErrorContext(ctx, "event handler failed",
				"kind", string(e.Kind()),
				"subscriber", sub.name,
				"meeting_id", e.Meeting().String(),
				"error", err,
			)
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, sub subscription, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return sub.handler(ctx, e)
}
