package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Handler func(ctx context.Context, msg Message) error

type SubscriberConfig struct {
	Topic         string
	Group         string
	Consumer      string
	Handler       Handler
	BatchSize     int64
	BlockDuration time.Duration
	// MaxAttempts is how many times a message is handed to Handler before it
	// is moved to the dead-letter stream.
	MaxAttempts int
}

// Subscriber is driven by a single goroutine; Poll is not safe for
// concurrent use.
type Subscriber struct {
	client   *redis.Client
	log      *zap.Logger
	cfg      SubscriberConfig
	attempts map[string]int
}

// DeadLetterTopic is the stream that receives messages a subscriber on topic
// gave up on.
func DeadLetterTopic(topic string) string { return topic + ".dead" }

func NewSubscriber(client *redis.Client, l *zap.Logger, cfg SubscriberConfig) *Subscriber {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 10
	}
	if cfg.BlockDuration == 0 {
		cfg.BlockDuration = 5 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if l == nil {
		l = zap.NewNop()
	}
	return &Subscriber{
		client:   client,
		log:      l.Named("subscriber"),
		cfg:      cfg,
		attempts: map[string]int{},
	}
}

// Start blocks until ctx is cancelled.
func (s *Subscriber) Start(ctx context.Context) error {
	if err := s.Init(ctx); err != nil {
		return err
	}
	s.log.Info("subscriber started",
		zap.String("topic", s.cfg.Topic),
		zap.String("group", s.cfg.Group),
		zap.String("consumer", s.cfg.Consumer),
	)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("subscriber stopping", zap.String("topic", s.cfg.Topic))
			return ctx.Err()
		default:
		}
		if _, err := s.Poll(ctx); err != nil && ctx.Err() == nil {
			s.log.Warn("read failed", zap.Error(err))
			time.Sleep(time.Second)
		}
	}
}

// Init creates the consumer group (and the stream) if they do not exist yet.
func (s *Subscriber) Init(ctx context.Context) error {
	err := s.client.XGroupCreateMkStream(ctx, s.cfg.Topic, s.cfg.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group: %w", err)
	}
	return nil
}

// Poll first retries the messages this consumer already holds in its pending
// list, then reads one batch of new ones. Handled messages are acked. A
// message that cannot be decoded, or whose handler failed MaxAttempts times,
// is copied to the dead-letter stream and acked.
func (s *Subscriber) Poll(ctx context.Context) (int, error) {
	pending, err := s.read(ctx, "0", -1)
	if err != nil {
		return 0, err
	}
	handled := s.process(ctx, pending)

	// Do not wait for new entries while retries are still queued.
	block := s.cfg.BlockDuration
	if len(pending) > 0 {
		block = -1
	}
	fresh, err := s.read(ctx, ">", block)
	if err != nil {
		return handled, err
	}
	return handled + s.process(ctx, fresh), nil
}

func (s *Subscriber) read(ctx context.Context, id string, block time.Duration) ([]redis.XMessage, error) {
	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.cfg.Group,
		Consumer: s.cfg.Consumer,
		Streams:  []string{s.cfg.Topic, id},
		Count:    s.cfg.BatchSize,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.cfg.Topic, err)
	}
	var out []redis.XMessage
	for _, st := range streams {
		out = append(out, st.Messages...)
	}
	return out, nil
}

func (s *Subscriber) process(ctx context.Context, msgs []redis.XMessage) int {
	handled := 0
	for _, xm := range msgs {
		msg, err := decode(s.cfg.Topic, xm)
		if err != nil {
			s.deadLetter(ctx, xm, err)
			continue
		}
		if err := s.cfg.Handler(ctx, msg); err != nil {
			s.attempts[xm.ID]++
			n := s.attempts[xm.ID]
			s.log.Error("handle failed",
				zap.String("id", xm.ID),
				zap.Int("attempt", n),
				zap.Error(err),
			)
			if n >= s.cfg.MaxAttempts {
				s.deadLetter(ctx, xm, err)
			}
			continue
		}
		if s.ack(ctx, xm.ID) {
			handled++
		}
	}
	return handled
}

// deadLetter keeps the message pending if the copy cannot be written, so it is
// retried on the next poll.
func (s *Subscriber) deadLetter(ctx context.Context, xm redis.XMessage, cause error) {
	values := map[string]any{
		"original_id": xm.ID,
		"error":       cause.Error(),
		"failed_at":   time.Now().UTC().Format(time.RFC3339Nano),
	}
	if raw, ok := xm.Values["payload"].(string); ok {
		values["payload"] = raw
	}
	dlq := DeadLetterTopic(s.cfg.Topic)
	if err := s.client.XAdd(ctx, &redis.XAddArgs{Stream: dlq, Values: values}).Err(); err != nil {
		s.log.Warn("dead-letter failed", zap.String("id", xm.ID), zap.Error(err))
		return
	}
	s.log.Error("message dead-lettered",
		zap.String("id", xm.ID),
		zap.String("stream", dlq),
		zap.Error(cause),
	)
	s.ack(ctx, xm.ID)
}

func (s *Subscriber) ack(ctx context.Context, id string) bool {
	if err := s.client.XAck(ctx, s.cfg.Topic, s.cfg.Group, id).Err(); err != nil {
		s.log.Warn("ack failed", zap.String("id", id), zap.Error(err))
		return false
	}
	delete(s.attempts, id)
	return true
}

func decode(topic string, xm redis.XMessage) (Message, error) {
	raw, ok := xm.Values["payload"].(string)
	if !ok {
		return Message{}, fmt.Errorf("message %s: missing payload", xm.ID)
	}
	if !json.Valid([]byte(raw)) {
		return Message{}, fmt.Errorf("message %s: payload is not json", xm.ID)
	}
	return Message{ID: xm.ID, Topic: topic, Payload: json.RawMessage(raw)}, nil
}
