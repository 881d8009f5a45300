package cache

import (
	"context"

	"cache-factory/internal/engine"
)

// Supplier defines the engine configuration under the cache name on the
// resolved manager and returns the started engine-level cache. It performs
// that work on its first call only; later calls return the first result.
type Supplier func() (engine.Cache, error)

// Creator turns a request and its normalized engine configuration into a
// cache handle.
//
// Create may adjust cfg before calling supply; the supplier reads cfg when it
// is first invoked. A creator that never calls supply allocates no engine
// resources.
type Creator interface {
	Kind() Kind
	// Implementations lists the alias names the creator answers to. A nil
	// slice is rejected at registration, an empty one is accepted.
	Implementations() []string
	Create(ctx context.Context, req RequestConfig, cfg *engine.Config, supply Supplier) (Cache, error)
}

// GenericCreator is the fallback used when no registered creator matches.
type GenericCreator struct{}

func (GenericCreator) Kind() Kind {
	return KindGeneric
}

func (GenericCreator) Implementations() []string {
	return []string{}
}

// Create applies the request's size and expiry settings, using LRU eviction
// when a size is given.
func (GenericCreator) Create(ctx context.Context, req RequestConfig, cfg *engine.Config, supply Supplier) (Cache, error) {
	ApplyPolicy(req, cfg, engine.StrategyLRU)

	c, err := supply()
	if err != nil {
		return nil, err
	}
	return NewEngineHandle(req, c), nil
}

// ApplyPolicy copies the eviction and expiration settings of req onto cfg.
// Zero values leave the neutral configuration untouched.
func ApplyPolicy(req RequestConfig, cfg *engine.Config, strategy engine.EvictionStrategy) {
	if req.MaxSize > 0 {
		cfg.Eviction = engine.Eviction{Strategy: strategy, MaxEntries: req.MaxSize}
	}
	if req.LiveTime > 0 {
		cfg.Expiration.Lifespan = req.LiveTime
	}
	if req.MaxIdle > 0 {
		cfg.Expiration.MaxIdle = req.MaxIdle
	}
}
