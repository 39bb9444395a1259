package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// LoadTimeout bounds a shared load. The load is detached from the caller
// that started it, so one caller going away does not fail the others.
var LoadTimeout = 10 * time.Second

// GetOrLoadJSON serves key from the cache, or calls load on a miss and stores the
// result for ttl. Concurrent misses on the same key share one load, and every
// caller gets its own decoded copy. Errors from load are returned untouched;
// cache errors never are. T must survive a JSON round trip.
func GetOrLoadJSON[T any](
	c *Cache,
	ctx context.Context,
	key string,
	ttl time.Duration,
	load func(ctx context.Context) (*T, error),
) (*T, error) {
	var out T
	if c.GetJSON(ctx, key, &out) {
		return &out, nil
	}
	ch := c.sf.DoChan(key, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), LoadTimeout)
		defer cancel()
		loaded, err := load(lctx)
		if err != nil {
			return nil, err
		}
		b, err := json.Marshal(loaded)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		c.SetJSON(lctx, key, json.RawMessage(b), ttl)
		return b, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		if err := json.Unmarshal(r.Val.([]byte), &out); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		return &out, nil
	}
}
