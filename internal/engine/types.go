package engine

import (
	"fmt"
	"strings"
	"time"
)

// NeverExpire disables lifespan or idle expiration.
const NeverExpire time.Duration = -1

// ClusterMode selects how a cache participates in the cluster.
type ClusterMode string

const (
	ModeLocal        ClusterMode = "local"
	ModeReplicated   ClusterMode = "replicated"
	ModeDistributed  ClusterMode = "distributed"
	ModeInvalidation ClusterMode = "invalidation"
)

// Clustered reports whether the mode needs a transport.
func (m ClusterMode) Clustered() bool {
	return m != ModeLocal
}

// ParseClusterMode parses a template mode name.
func ParseClusterMode(s string) (ClusterMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "local":
		return ModeLocal, nil
	case "replicated", "repl", "repl_sync", "repl_async":
		return ModeReplicated, nil
	case "distributed", "dist", "dist_sync", "dist_async":
		return ModeDistributed, nil
	case "invalidation", "inv", "invalidation_sync", "invalidation_async":
		return ModeInvalidation, nil
	default:
		return "", fmt.Errorf("unknown cluster mode %q", s)
	}
}

// EvictionStrategy selects which entries go first once MaxEntries is reached.
type EvictionStrategy string

const (
	StrategyNone      EvictionStrategy = "none"
	StrategyLRU       EvictionStrategy = "lru"
	StrategyLIRS      EvictionStrategy = "lirs"
	StrategyFIFO      EvictionStrategy = "fifo"
	StrategyUnordered EvictionStrategy = "unordered"
)

// ParseEvictionStrategy parses a template strategy name.
func ParseEvictionStrategy(s string) (EvictionStrategy, error) {
	switch strategy := EvictionStrategy(strings.ToLower(strings.TrimSpace(s))); strategy {
	case "":
		return StrategyNone, nil
	case StrategyNone, StrategyLRU, StrategyLIRS, StrategyFIFO, StrategyUnordered:
		return strategy, nil
	default:
		return "", fmt.Errorf("unknown eviction strategy %q", s)
	}
}

// accessOrdered reports whether reads refresh an entry's eviction position.
func (s EvictionStrategy) accessOrdered() bool {
	return s == StrategyLRU || s == StrategyLIRS
}

// GlobalConfig holds the manager-scope settings shared by all caches hosted
// under one manager.
//
// Two values are equal, and therefore share a manager, when all four fields
// are equal. ClusterName is empty for a non clustered manager.
type GlobalConfig struct {
	ManagerName     string `json:"manager_name"`
	ClusterName     string `json:"cluster_name,omitempty"`
	Transport       string `json:"transport,omitempty"`
	JMXNamingSuffix string `json:"jmx_naming_suffix,omitempty"`
}

// Clustered reports whether a transport has been configured.
func (g GlobalConfig) Clustered() bool {
	return g.Transport != ""
}

// Key renders g as a string that is equal for equal configurations.
func (g GlobalConfig) Key() string {
	return fmt.Sprintf("%q|%q|%q|%q", g.ManagerName, g.ClusterName, g.Transport, g.JMXNamingSuffix)
}

// Eviction bounds the number of entries of a cache.
type Eviction struct {
	Strategy   EvictionStrategy `json:"strategy"`
	MaxEntries int              `json:"max_entries"`
}

// Expiration controls entry lifetime and the background sweep.
type Expiration struct {
	Lifespan       time.Duration `json:"lifespan"`
	MaxIdle        time.Duration `json:"max_idle"`
	WakeUpInterval time.Duration `json:"wake_up_interval"`
}

// Config is the engine-level configuration of one cache.
type Config struct {
	Mode               ClusterMode       `json:"mode"`
	InvocationBatching bool              `json:"invocation_batching"`
	Eviction           Eviction          `json:"eviction"`
	Expiration         Expiration        `json:"expiration"`
	Properties         map[string]string `json:"properties,omitempty"`
}

// Clone returns a deep copy of c that shares no state with it.
func (c Config) Clone() Config {
	clone := c
	if c.Properties != nil {
		clone.Properties = make(map[string]string, len(c.Properties))
		for k, v := range c.Properties {
			clone.Properties[k] = v
		}
	}
	return clone
}

// Bounded reports whether eviction limits the entry count.
func (c Config) Bounded() bool {
	return c.Eviction.Strategy != StrategyNone && c.Eviction.MaxEntries > 0
}
