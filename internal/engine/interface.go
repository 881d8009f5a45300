package engine

import "errors"

var (
	// ErrAlreadyStarted is returned when Start runs twice on one manager or
	// when its global configuration is changed after start.
	ErrAlreadyStarted = errors.New("cache manager already started")
	// ErrNotRunning is returned when caches are requested from a manager that
	// is not running.
	ErrNotRunning = errors.New("cache manager is not running")
)

// Backend builds managers from serialized templates.
type Backend interface {
	NewManager(data []byte, startEagerly bool) (Manager, error)
}

// Manager owns zero or more engine-level caches sharing one GlobalConfig.
type Manager interface {
	GlobalConfig() GlobalConfig
	// UpdateGlobalConfig edits the global configuration. It fails once the
	// manager has been started.
	UpdateGlobalConfig(fn func(*GlobalConfig)) error
	// DefaultConfig returns a clone of the template's default configuration.
	DefaultConfig() Config
	DefineConfig(name string, cfg Config) error
	// GetCache returns the named cache, creating and starting it on first use.
	GetCache(name string) (Cache, error)
	// GetOrCreateCache is GetCache that also reports whether this call
	// created the cache.
	GetOrCreateCache(name string) (Cache, bool, error)
	RemoveCache(name string)
	CacheNames() []string
	// Start is not idempotent: a second call returns ErrAlreadyStarted.
	Start() error
	Stop() error
	Running() bool
}

// Cache is an engine-level cache instance.
type Cache interface {
	Name() string
	Get(key string) (interface{}, bool)
	Put(key string, value interface{})
	Remove(key string)
	Clear()
	Len() int
	Config() Config
}
