package cache

import (
	"time"

	"cache-factory/internal/engine"
)

// ResetWakeUpInterval is the expiration sweep period of every normalized
// configuration.
const ResetWakeUpInterval = 60 * time.Second

// ResetConfiguration returns a copy of cfg with eviction disabled, entries
// that never expire and invocation batching enabled. Creators start from this
// baseline and apply the request's own policy on top of it.
func ResetConfiguration(cfg engine.Config) engine.Config {
	reset := cfg.Clone()
	reset.InvocationBatching = true
	reset.Eviction = engine.Eviction{
		Strategy:   engine.StrategyNone,
		MaxEntries: -1,
	}
	reset.Expiration = engine.Expiration{
		Lifespan:       engine.NeverExpire,
		MaxIdle:        engine.NeverExpire,
		WakeUpInterval: ResetWakeUpInterval,
	}
	return reset
}
