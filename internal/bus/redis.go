package bus

import (
	"context"
	"encoding/json"

	"github.com/Harshitk-cp/daybrief/internal/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// channelPrefix namespaces daybrief channels on a shared Redis.
const channelPrefix = "daybrief:"

// RedisMirror republishes selected bus topics to Redis pub/sub so external
// transports (WebSocket gateways, notification workers) can subscribe
// without linking the process. Mirroring is best effort: a publish failure
// is logged, never surfaced to the emitter.
type RedisMirror struct {
	client *redis.Client
	logger *zap.Logger
	subs   []*Subscription
}

func NewRedisMirror(opts *redis.Options, logger *zap.Logger) *RedisMirror {
	return &RedisMirror{
		client: redis.NewClient(opts),
		logger: logger,
	}
}

// Attach subscribes the mirror to the given topics on b. Each mirrored event
// is published to the Redis channel "daybrief:<topic>" as JSON.
func (m *RedisMirror) Attach(b *Bus, topics ...string) {
	for _, topic := range topics {
		m.subs = append(m.subs, b.Subscribe(topic, m.publish))
	}
}

// Detach removes the mirror's subscriptions from b.
func (m *RedisMirror) Detach(b *Bus) {
	for _, sub := range m.subs {
		b.Unsubscribe(sub)
	}
	m.subs = nil
}

func (m *RedisMirror) publish(ctx context.Context, e domain.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := m.client.Publish(ctx, channelPrefix+e.Topic, data).Err(); err != nil {
		m.logger.Warn("redis mirror publish failed",
			zap.String("topic", e.Topic),
			zap.Error(err))
		return err
	}
	return nil
}

func (m *RedisMirror) Close() error {
	return m.client.Close()
}
