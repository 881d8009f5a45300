// Package distributed serves caches on the distributed path from Redis.
//
// Every handle namespaces its keys as <prefix><container>:<cache>:<key> and
// stores values as JSON. Cache names may not contain ':' so that one cache's
// prefix is never the start of another's. A request's LiveTime becomes the Redis TTL. MaxIdle
// is honored by refreshing the TTL on reads when no LiveTime is set. MaxSize is
// not enforced by Redis.
package distributed

import (
	"context"
	"strings"

	"cache-factory/internal/cache"
	"cache-factory/internal/circuitbreaker"
	"cache-factory/internal/common/errors"
	"cache-factory/internal/common/logging"
	"cache-factory/internal/common/registry"
	"cache-factory/internal/locks"

	"github.com/go-redis/redis/v8"
)

// DefaultKeyPrefix prefixes every key written by the backend.
const DefaultKeyPrefix = "cache:"

const keySeparator = ":"

// Options configures a Manager.
type Options struct {
	Container string
	KeyPrefix string
	Breaker   circuitbreaker.Config
	// Locker serializes Clear across nodes. Nil disables locking.
	Locker locks.Locker
	Logger logging.Logger
}

// Manager hands out Redis backed caches. It implements
// cache.DistributedBackend.
type Manager struct {
	client    *redis.Client
	container string
	prefix    string
	breaker   *circuitbreaker.GoBreakerAdapter
	locker    locks.Locker
	handles   *registry.Registry[string, *Handle]
	logger    logging.Logger
}

// NewManager creates a manager over client.
func NewManager(client *redis.Client, opts Options) *Manager {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = DefaultKeyPrefix
	}
	if opts.Logger == nil {
		opts.Logger = logging.GetGlobalLogger()
	}
	if opts.Breaker == (circuitbreaker.Config{}) {
		opts.Breaker = circuitbreaker.DefaultConfig()
	}

	return &Manager{
		client:    client,
		container: opts.Container,
		prefix:    opts.KeyPrefix,
		breaker:   circuitbreaker.NewGoBreaker("redis-cache", opts.Breaker, opts.Logger),
		locker:    opts.Locker,
		handles:   registry.New[string, *Handle](),
		logger:    opts.Logger.WithFields(logging.String("backend", "redis")),
	}
}

// Cache returns the handle for req, reusing the handle already built for the
// same cache name. Names containing the key separator are rejected.
func (m *Manager) Cache(ctx context.Context, req cache.RequestConfig) (cache.Cache, error) {
	if m.client == nil {
		return nil, errors.ConfigError("the distributed backend has no redis client")
	}

	if strings.Contains(req.Name, keySeparator) {
		return nil, errors.ValidationError("distributed cache name '" + req.Name + "' must not contain '" + keySeparator + "'")
	}

	if h, ok := m.handles.Lookup(req.Name); ok {
		return h, nil
	}

	if req.MaxSize > 0 {
		m.logger.Warn("max_size is not enforced for distributed caches",
			logging.String("cache", req.Name),
			logging.Int("max_size", req.MaxSize),
		)
	}

	h := &Handle{
		name:    req.Name,
		label:   req.DisplayName(),
		prefix:  m.keyPrefix(req.Name),
		ttl:     entryTTL(req),
		idle:    req.MaxIdle > 0 && req.LiveTime <= 0,
		client:  m.client,
		breaker: m.breaker,
		locker:  m.locker,
		lockKey: m.lockKey(req.Name),
		logger:  m.logger.WithFields(logging.String("cache", req.Name)),
	}
	if !m.handles.RegisterIfAbsent(req.Name, h) {
		existing, _ := m.handles.Lookup(req.Name)
		return existing, nil
	}

	m.logger.Info("Distributed cache ready",
		logging.String("cache", req.Name),
		logging.String("prefix", h.prefix),
		logging.Duration("ttl", h.ttl),
	)
	return h, nil
}

func (m *Manager) keyPrefix(cacheName string) string {
	if m.container == "" {
		return m.prefix + cacheName + ":"
	}
	return m.prefix + m.container + ":" + cacheName + ":"
}

func (m *Manager) lockKey(cacheName string) string {
	if m.container == "" {
		return m.prefix + "lock:" + cacheName
	}
	return m.prefix + "lock:" + m.container + ":" + cacheName
}

// Names returns the names of the caches handed out, sorted.
func (m *Manager) Names() []string {
	return registry.SortedKeys(m.handles)
}

// BreakerStats reports the circuit breaker guarding Redis.
func (m *Manager) BreakerStats() circuitbreaker.Stats {
	return m.breaker.Stats()
}

// Ping checks Redis through the circuit breaker.
func (m *Manager) Ping(ctx context.Context) error {
	return m.breaker.Execute(ctx, func() error {
		return m.client.Ping(ctx).Err()
	})
}
