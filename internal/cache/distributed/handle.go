package distributed

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"time"

	"cache-factory/internal/cache"
	"cache-factory/internal/circuitbreaker"
	"cache-factory/internal/common/errors"
	"cache-factory/internal/common/logging"
	"cache-factory/internal/locks"

	"github.com/go-redis/redis/v8"
)

const (
	scanBatch       = 100
	clearLockExpiry = 30 * time.Second
)

// Handle is a cache stored in Redis under a key prefix.
type Handle struct {
	name    string
	label   string
	prefix  string
	ttl     time.Duration
	idle    bool
	client  *redis.Client
	breaker *circuitbreaker.GoBreakerAdapter
	locker  locks.Locker
	lockKey string
	logger  logging.Logger
}

var _ cache.Cache = (*Handle)(nil)

// entryTTL returns the Redis expiration for entries of req, zero meaning none.
func entryTTL(req cache.RequestConfig) time.Duration {
	switch {
	case req.LiveTime > 0:
		return req.LiveTime
	case req.MaxIdle > 0:
		return req.MaxIdle
	default:
		return 0
	}
}

func (h *Handle) Name() string {
	return h.name
}

func (h *Handle) Label() string {
	return h.label
}

func (h *Handle) key(key string) string {
	return h.prefix + key
}

// Get returns the decoded value. Values that are not JSON are returned as
// strings. A Redis failure is logged and reported as a miss.
func (h *Handle) Get(ctx context.Context, key string) (interface{}, bool) {
	var raw string
	err := h.breaker.Execute(ctx, func() error {
		val, err := h.client.Get(ctx, h.key(key)).Result()
		if stderrors.Is(err, redis.Nil) {
			return errors.NotFoundError("key " + key)
		}
		if err != nil {
			return err
		}
		raw = val

		if h.idle {
			return h.client.Expire(ctx, h.key(key), h.ttl).Err()
		}
		return nil
	})
	if err != nil {
		if !errors.IsType(err, errors.ErrTypeNotFound) {
			h.logger.Warn("Distributed cache read failed", logging.String("key", key), logging.Err(err))
		}
		return nil, false
	}

	var value interface{}
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return raw, true
	}
	return value, true
}

// Put stores value as JSON.
func (h *Handle) Put(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.ValidationError("value cannot be encoded as JSON").WithCause(err).WithContext("key", key)
	}

	return h.breaker.Execute(ctx, func() error {
		return h.client.Set(ctx, h.key(key), data, h.ttl).Err()
	})
}

func (h *Handle) Remove(ctx context.Context, key string) error {
	return h.breaker.Execute(ctx, func() error {
		return h.client.Del(ctx, h.key(key)).Err()
	})
}

// Clear deletes every key under the handle's prefix. With a locker, clears
// of the same cache from different nodes run one at a time.
func (h *Handle) Clear(ctx context.Context) error {
	if h.locker != nil {
		lock, err := h.locker.Acquire(ctx, h.lockKey, clearLockExpiry)
		if err != nil {
			return err
		}
		defer func() {
			if err := lock.Release(ctx); err != nil {
				h.logger.Warn("Failed to release clear lock", logging.Err(err))
			}
		}()
	}

	return h.breaker.Execute(ctx, func() error {
		keys, err := h.scan(ctx)
		if err != nil {
			return err
		}
		for start := 0; start < len(keys); start += scanBatch {
			end := start + scanBatch
			if end > len(keys) {
				end = len(keys)
			}
			if err := h.client.Del(ctx, keys[start:end]...).Err(); err != nil {
				return err
			}
		}
		return nil
	})
}

// Size counts the keys under the handle's prefix.
func (h *Handle) Size(ctx context.Context) (int, error) {
	var n int
	err := h.breaker.Execute(ctx, func() error {
		keys, err := h.scan(ctx)
		n = len(keys)
		return err
	})
	return n, err
}

func (h *Handle) scan(ctx context.Context) ([]string, error) {
	var keys []string
	iter := h.client.Scan(ctx, 0, escapeGlob(h.prefix)+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

// escapeGlob quotes the characters Redis treats as pattern syntax in MATCH.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
