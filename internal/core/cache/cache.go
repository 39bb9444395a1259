package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var cacheOps = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "cache_operations_total", Help: "Cache operations by outcome"},
	[]string{"op", "result"},
)

func init() { prometheus.MustRegister(cacheOps) }

// Cache is the fail-open face of a Backend: every backend error is logged and
// reported as a miss or a no-op, never returned to the caller.
type Cache struct {
	b   Backend
	log *zap.Logger
	sf  singleflight.Group
}

func New(b Backend, l *zap.Logger) *Cache {
	if l == nil {
		l = zap.NewNop()
	}
	return &Cache{b: b, log: l.Named("cache")}
}

// GetJSON decodes the value at key into dst and reports whether it was a hit.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) bool {
	b, err := c.b.Get(ctx, key)
	switch {
	case errors.Is(err, ErrMiss):
		cacheOps.WithLabelValues("get", "miss").Inc()
		return false
	case err != nil:
		cacheOps.WithLabelValues("get", "error").Inc()
		c.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		cacheOps.WithLabelValues("get", "error").Inc()
		c.log.Warn("cache decode failed", zap.String("key", key), zap.Error(err))
		return false
	}
	cacheOps.WithLabelValues("get", "hit").Inc()
	c.log.Debug("cache hit", zap.String("key", key))
	return true
}

func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	b, err := json.Marshal(v)
	if err != nil {
		cacheOps.WithLabelValues("set", "error").Inc()
		c.log.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.b.Set(ctx, key, b, ttl); err != nil {
		cacheOps.WithLabelValues("set", "error").Inc()
		c.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		return
	}
	cacheOps.WithLabelValues("set", "ok").Inc()
	c.log.Debug("cache set", zap.String("key", key), zap.Duration("ttl", ttl))
}

func (c *Cache) Delete(ctx context.Context, key string) {
	if err := c.b.Delete(ctx, key); err != nil {
		cacheOps.WithLabelValues("delete", "error").Inc()
		c.log.Warn("cache delete failed", zap.String("key", key), zap.Error(err))
		return
	}
	cacheOps.WithLabelValues("delete", "ok").Inc()
	c.log.Debug("cache delete", zap.String("key", key))
}

func (c *Cache) DeletePattern(ctx context.Context, pattern string) {
	if err := c.b.DeletePattern(ctx, pattern); err != nil {
		cacheOps.WithLabelValues("delete_pattern", "error").Inc()
		c.log.Warn("cache pattern delete failed", zap.String("pattern", pattern), zap.Error(err))
		return
	}
	cacheOps.WithLabelValues("delete_pattern", "ok").Inc()
	c.log.Debug("cache pattern delete", zap.String("pattern", pattern))
}
