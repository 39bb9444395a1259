package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"user-account-service/internal/core/cache"
	"user-account-service/internal/core/config"
	"user-account-service/internal/core/events"
	"user-account-service/internal/core/logger"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.New(cfg.Log.Level, cfg.Log.JSON)
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer rdb.Close()

	sub := events.NewSubscriber(rdb, log, events.SubscriberConfig{
		Topic:       events.TopicUserDeleted,
		Group:       cfg.Events.Group,
		Consumer:    cfg.Events.Consumer,
		Handler:     userDeletedHandler(log),
		MaxAttempts: cfg.Events.MaxAttempts,
	})
	if err := sub.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("consumer stopped", zap.Error(err))
	}
	log.Info("consumer stopped gracefully")
}

// userDeletedHandler logs each deletion. Undecodable payloads are logged and
// acked so they do not block the group.
func userDeletedHandler(l *zap.Logger) events.Handler {
	return func(_ context.Context, msg events.Message) error {
		var ev events.UserDeletedEvent
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			l.Error("bad user.deleted payload", zap.String("id", msg.ID), zap.Error(err))
			return nil
		}
		if ev.Event != events.EventUserDeleted || ev.UserID == "" {
			return fmt.Errorf("unexpected event %q for user %q", ev.Event, ev.UserID)
		}
		l.Info("user deleted", zap.String("user_id", ev.UserID), zap.String("msg_id", msg.ID))
		return nil
	}
}
