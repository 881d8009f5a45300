// Package locks provides Redis backed distributed locks built on the
// Redlock implementation of go-redsync/redsync/v4.
package locks

import (
	"context"
	"time"

	"cache-factory/internal/common/errors"

	"github.com/go-redis/redis/v8"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v8"
)

// DefaultExpiry bounds how long a lock survives a holder that never
// releases it.
const DefaultExpiry = 30 * time.Second

// Lock is a held distributed lock.
type Lock interface {
	Key() string
	Release(ctx context.Context) error
}

// Locker acquires distributed locks by key.
type Locker interface {
	Acquire(ctx context.Context, key string, expiry time.Duration) (Lock, error)
}

// RedsyncLocker implements Locker with redsync mutexes.
type RedsyncLocker struct {
	rs    *redsync.Redsync
	tries int
}

// NewRedsyncLocker creates a locker over client. tries bounds the
// acquisition attempts; zero keeps the redsync default.
func NewRedsyncLocker(client *redis.Client, tries int) (*RedsyncLocker, error) {
	if client == nil {
		return nil, errors.ConfigError("redis client is required")
	}
	return &RedsyncLocker{
		rs:    redsync.New(goredis.NewPool(client)),
		tries: tries,
	}, nil
}

type redsyncLock struct {
	key   string
	mutex *redsync.Mutex
}

// Acquire blocks until key is locked, the attempts run out, or ctx ends.
func (l *RedsyncLocker) Acquire(ctx context.Context, key string, expiry time.Duration) (Lock, error) {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}

	opts := []redsync.Option{redsync.WithExpiry(expiry)}
	if l.tries > 0 {
		opts = append(opts, redsync.WithTries(l.tries))
	}

	mutex := l.rs.NewMutex(key, opts...)
	if err := mutex.LockContext(ctx); err != nil {
		return nil, errors.ConnectionError("failed to acquire distributed lock", err).WithContext("lock", key)
	}
	return &redsyncLock{key: key, mutex: mutex}, nil
}

func (l *redsyncLock) Key() string {
	return l.key
}

func (l *redsyncLock) Release(ctx context.Context) error {
	ok, err := l.mutex.UnlockContext(ctx)
	if err != nil {
		return errors.InternalError("failed to release distributed lock", err).WithContext("lock", l.key)
	}
	if !ok {
		return errors.InternalError("distributed lock was no longer held", nil).WithContext("lock", l.key)
	}
	return nil
}
