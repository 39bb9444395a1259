package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Publisher appends events to a Redis stream named after the topic. Consumers
// read them through a consumer group, which gives at-least-once delivery.
type Publisher struct {
	client *redis.Client
	log    *zap.Logger
	maxLen int64
}

func NewPublisher(client *redis.Client, l *zap.Logger, maxLen int64) *Publisher {
	if l == nil {
		l = zap.NewNop()
	}
	return &Publisher{client: client, log: l.Named("events"), maxLen: maxLen}
}

func (p *Publisher) Publish(ctx context.Context, topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	args := &redis.XAddArgs{
		Stream: topic,
		Values: map[string]any{
			"payload":      body,
			"published_at": time.Now().UTC().Format(time.RFC3339Nano),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	id, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	p.log.Info("event published", zap.String("topic", topic), zap.String("id", id))
	return nil
}
