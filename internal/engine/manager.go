package engine

import (
	"fmt"
	"sort"
	"sync"
)

type managerState int

const (
	stateCreated managerState = iota
	stateRunning
	stateStopped
)

// DefaultManager is the in-process Manager implementation.
type DefaultManager struct {
	mu       sync.RWMutex
	global   GlobalConfig
	defaults Config
	configs  map[string]Config
	caches   map[string]*Store
	state    managerState
}

// NewManager creates an unstarted manager from a parsed template.
func NewManager(tpl *Template) *DefaultManager {
	return &DefaultManager{
		global:   tpl.Global,
		defaults: tpl.Default.Clone(),
		configs:  make(map[string]Config),
		caches:   make(map[string]*Store),
	}
}

// GlobalConfig returns the manager's global configuration.
func (m *DefaultManager) GlobalConfig() GlobalConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.global
}

// UpdateGlobalConfig applies fn to the global configuration before start.
func (m *DefaultManager) UpdateGlobalConfig(fn func(*GlobalConfig)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != stateCreated {
		return ErrAlreadyStarted
	}
	fn(&m.global)
	return nil
}

// DefaultConfig returns a clone of the default cache configuration.
func (m *DefaultManager) DefaultConfig() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaults.Clone()
}

// DefineConfig registers cfg for the named cache. A cache that is already
// running keeps the configuration it was started with and cfg is ignored.
func (m *DefaultManager) DefineConfig(name string, cfg Config) error {
	if name == "" {
		return fmt.Errorf("cache name is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == stateStopped {
		return ErrNotRunning
	}
	if _, running := m.caches[name]; running {
		return nil
	}
	m.configs[name] = cfg.Clone()
	return nil
}

// GetCache returns the named cache, starting it on first use with the defined
// configuration or the manager default.
func (m *DefaultManager) GetCache(name string) (Cache, error) {
	c, _, err := m.GetOrCreateCache(name)
	return c, err
}

// GetOrCreateCache returns the named cache and whether this call started it.
func (m *DefaultManager) GetOrCreateCache(name string) (Cache, bool, error) {
	m.mu.RLock()
	store, ok := m.caches[name]
	running := m.state == stateRunning
	m.mu.RUnlock()

	if !running {
		return nil, false, ErrNotRunning
	}
	if ok {
		return store, false, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != stateRunning {
		return nil, false, ErrNotRunning
	}
	if store, ok := m.caches[name]; ok {
		return store, false, nil
	}

	cfg, ok := m.configs[name]
	if !ok {
		cfg = m.defaults
	}
	store = NewStore(name, cfg)
	m.caches[name] = store
	return store, true, nil
}

// RemoveCache stops the named cache and drops its configuration.
func (m *DefaultManager) RemoveCache(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if store, ok := m.caches[name]; ok {
		store.Clear()
		delete(m.caches, name)
	}
	delete(m.configs, name)
}

// CacheNames returns the names of the running caches in sorted order.
func (m *DefaultManager) CacheNames() []string {
	m.mu.RLock()
	names := make([]string, 0, len(m.caches))
	for name := range m.caches {
		names = append(names, name)
	}
	m.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Start moves the manager to running. It can only succeed once.
func (m *DefaultManager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != stateCreated {
		return ErrAlreadyStarted
	}
	if m.global.Clustered() && m.global.ClusterName == "" {
		return fmt.Errorf("manager %s has a transport but no cluster name", m.global.ManagerName)
	}
	m.state = stateRunning
	return nil
}

// Stop clears every cache and makes the manager unusable.
func (m *DefaultManager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, store := range m.caches {
		store.Clear()
		delete(m.caches, name)
	}
	m.state = stateStopped
	return nil
}

// Running reports whether the manager has been started and not stopped.
func (m *DefaultManager) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == stateRunning
}
