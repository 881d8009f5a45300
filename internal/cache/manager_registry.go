package cache

import (
	stderrors "errors"
	"fmt"
	"sort"
	"sync"

	"cache-factory/internal/common/errors"
	"cache-factory/internal/engine"

	"golang.org/x/sync/singleflight"
)

// ManagerRegistry holds at most one started manager per global
// configuration.
type ManagerRegistry struct {
	mu       sync.RWMutex
	managers map[engine.GlobalConfig]engine.Manager
	group    singleflight.Group
}

// NewManagerRegistry creates an empty registry.
func NewManagerRegistry() *ManagerRegistry {
	return &ManagerRegistry{
		managers: make(map[engine.GlobalConfig]engine.Manager),
	}
}

// GetOrCreate returns the manager registered for gc, calling create when
// there is none. Concurrent calls for equal configurations share one call to
// create. The returned manager is started here if create did not start it.
//
// A failure is returned to every waiting caller and nothing is stored, so a
// later call for the same configuration tries again.
func (r *ManagerRegistry) GetOrCreate(gc engine.GlobalConfig, create func() (engine.Manager, error)) (engine.Manager, error) {
	if m, ok := r.Get(gc); ok {
		return m, nil
	}

	v, err, _ := r.group.Do(gc.Key(), func() (interface{}, error) {
		// A flight for gc may have completed between the read above and Do.
		if m, ok := r.Get(gc); ok {
			return m, nil
		}

		m, err := create()
		if err != nil {
			return nil, err
		}
		if m == nil {
			return nil, errors.ManagerStartError(fmt.Sprintf("no manager was built for %s", gc.ManagerName), nil)
		}
		if !m.Running() {
			if err := m.Start(); err != nil {
				return nil, errors.ManagerStartError(fmt.Sprintf("manager %s failed to start", gc.ManagerName), err)
			}
		}

		r.mu.Lock()
		r.managers[gc] = m
		r.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(engine.Manager), nil
}

// Register stores an already started manager under gc, replacing any
// previous entry.
func (r *ManagerRegistry) Register(gc engine.GlobalConfig, m engine.Manager) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.managers[gc] = m
}

// Get returns the manager registered for gc.
func (r *ManagerRegistry) Get(gc engine.GlobalConfig) (engine.Manager, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.managers[gc]
	return m, ok
}

// Len returns the number of registered managers.
func (r *ManagerRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.managers)
}

// StopAll stops every registered manager. Managers stay registered. Every
// manager is stopped even when an earlier one fails, and the failures are
// returned together.
func (r *ManagerRegistry) StopAll() error {
	r.mu.RLock()
	managers := make([]engine.Manager, 0, len(r.managers))
	for _, m := range r.managers {
		managers = append(managers, m)
	}
	r.mu.RUnlock()

	var errs []error
	for _, m := range managers {
		if err := m.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", m.GlobalConfig().ManagerName, err))
		}
	}
	return stderrors.Join(errs...)
}

// ManagerInfo summarizes one registered manager.
type ManagerInfo struct {
	Key     engine.GlobalConfig `json:"key"`
	Global  engine.GlobalConfig `json:"global"`
	Running bool                `json:"running"`
	Caches  []string            `json:"caches"`
}

// Snapshot describes every registered manager, ordered by manager name.
func (r *ManagerRegistry) Snapshot() []ManagerInfo {
	r.mu.RLock()
	infos := make([]ManagerInfo, 0, len(r.managers))
	for gc, m := range r.managers {
		infos = append(infos, ManagerInfo{
			Key:     gc,
			Global:  m.GlobalConfig(),
			Running: m.Running(),
			Caches:  m.CacheNames(),
		})
	}
	r.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Global.ManagerName < infos[j].Global.ManagerName
	})
	return infos
}
