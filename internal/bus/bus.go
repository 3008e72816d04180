// Package bus is an in-process topic bus with a bounded event history.
// Report pipeline components communicate exclusively through it.
package bus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Harshitk-cp/daybrief/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// HistoryCapacity bounds the retained event history; the oldest event is
	// evicted once the bus exceeds it.
	HistoryCapacity = 100

	// maxConcurrentHandlers caps handler fan-out per emit so a topic with
	// many subscribers cannot exhaust the scheduler.
	maxConcurrentHandlers = 16
)

// Handler consumes an event. Returned errors are logged and swallowed; they
// never propagate to the emitter.
type Handler func(ctx context.Context, e domain.Event) error

// Subscription is the token identifying one registration. The same handler
// may be subscribed to a topic more than once; each call returns a distinct
// token and Unsubscribe removes exactly one.
type Subscription struct {
	topic   string
	handler Handler
}

type Bus struct {
	mu      sync.RWMutex
	subs    map[string][]*Subscription
	history []domain.Event
	logger  *zap.Logger
}

func New(logger *zap.Logger) *Bus {
	return &Bus{
		subs:   make(map[string][]*Subscription),
		logger: logger,
	}
}

func (b *Bus) Subscribe(topic string, h Handler) *Subscription {
	sub := &Subscription{topic: topic, handler: h}
	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], sub)
	b.mu.Unlock()
	b.logger.Debug("subscribed", zap.String("topic", topic))
	return sub
}

func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.subs[sub.topic]
	for i, s := range list {
		if s == sub {
			b.subs[sub.topic] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// Emit builds the event, records it in history, and dispatches it to every
// handler registered for the topic concurrently. It returns after all
// handlers finish; a handler error or panic is logged and does not affect
// the other handlers or the emitter.
func (b *Bus) Emit(ctx context.Context, topic string, payload map[string]any, source string) uuid.UUID {
	e := domain.Event{
		ID:        uuid.New(),
		Topic:     topic,
		Payload:   payload,
		Source:    source,
		Timestamp: time.Now(),
	}

	b.mu.Lock()
	b.history = append(b.history, e)
	if len(b.history) > HistoryCapacity {
		b.history = b.history[len(b.history)-HistoryCapacity:]
	}
	handlers := append([]*Subscription(nil), b.subs[topic]...)
	b.mu.Unlock()

	if len(handlers) == 0 {
		return e.ID
	}

	var g errgroup.Group
	g.SetLimit(maxConcurrentHandlers)
	for _, sub := range handlers {
		h := sub.handler
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("event handler panicked",
						zap.String("topic", topic),
						zap.String("event_id", e.ID.String()),
						zap.String("panic", fmt.Sprint(r)))
				}
			}()
			if err := h(ctx, e); err != nil {
				b.logger.Warn("event handler failed",
					zap.String("topic", topic),
					zap.String("event_id", e.ID.String()),
					zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	return e.ID
}

// History returns up to limit retained events, oldest first. An empty topic
// matches all topics; limit <= 0 means no limit beyond the bus capacity.
func (b *Bus) History(topic string, limit int) []domain.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []domain.Event
	for _, e := range b.history {
		if topic != "" && e.Topic != topic {
			continue
		}
		out = append(out, e)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

func (b *Bus) ClearHistory() {
	b.mu.Lock()
	b.history = nil
	b.mu.Unlock()
}
