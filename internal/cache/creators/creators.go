// Package creators provides the bounded in-process cache creators.
package creators

import (
	"context"
	"fmt"

	"cache-factory/internal/cache"
	"cache-factory/internal/common/errors"
	"cache-factory/internal/engine"
)

// bounded creates engine-backed caches evicting with one strategy.
type bounded struct {
	kind     cache.Kind
	aliases  []string
	strategy engine.EvictionStrategy
}

func (b bounded) Kind() cache.Kind {
	return b.kind
}

func (b bounded) Implementations() []string {
	return append([]string{}, b.aliases...)
}

func (b bounded) Create(ctx context.Context, req cache.RequestConfig, cfg *engine.Config, supply cache.Supplier) (cache.Cache, error) {
	if req.MaxSize <= 0 {
		return nil, errors.ValidationError(fmt.Sprintf("a %s cache needs a positive max_size, got %d", b.kind, req.MaxSize)).
			WithContext("cache", req.Name)
	}
	cache.ApplyPolicy(req, cfg, b.strategy)

	c, err := supply()
	if err != nil {
		return nil, err
	}
	return cache.NewEngineHandle(req, c), nil
}

// LRUCreator evicts the least recently read entry.
func LRUCreator() cache.Creator {
	return bounded{
		kind:     cache.KindLRU,
		aliases:  []string{"LRU", "lru", "concurrent-lru"},
		strategy: engine.StrategyLRU,
	}
}

// FIFOCreator evicts the oldest entry regardless of reads.
func FIFOCreator() cache.Creator {
	return bounded{
		kind:     cache.KindFIFO,
		aliases:  []string{"FIFO", "fifo", "concurrent-fifo"},
		strategy: engine.StrategyFIFO,
	}
}

// Plugin bundles the LRU and FIFO creators.
func Plugin() cache.CreatorPlugin {
	return cache.Creators{LRUCreator(), FIFOCreator()}
}
