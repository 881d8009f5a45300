// Package registry provides a generic, thread-safe keyed registry.
//
// The cache factory keeps three of them: configuration kind to creator,
// implementation alias to creator, and cache name to custom template
// location. All three are written by plugins during startup while lookups may
// already be running, so every access is synchronized. Registration follows a
// "plugins accumulate, later wins" policy: registering an existing key replaces
// the previous value without error.
//
// Example usage:
//
//	templates := registry.New[string, string]()
//	templates.Register("sessionCache", "conf/session-cache.yaml")
//	location, ok := templates.Lookup("sessionCache")
package registry

import (
	"fmt"
	"sort"
	"sync"

	"cache-factory/internal/common/errors"
)

// Registry is a concurrent-safe map from K to V.
type Registry[K comparable, V any] struct {
	entries map[K]V
	mu      sync.RWMutex
}

// New creates a new empty registry.
func New[K comparable, V any]() *Registry[K, V] {
	return &Registry[K, V]{
		entries: make(map[K]V),
	}
}

// Register stores value under key, replacing any previous value.
// It reports whether a previous value was replaced.
func (r *Registry[K, V]) Register(key K, value V) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, replaced := r.entries[key]
	r.entries[key] = value
	return replaced
}

// RegisterIfAbsent stores value under key unless key is already present.
// It reports whether value was stored.
func (r *Registry[K, V]) RegisterIfAbsent(key K, value V) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[key]; ok {
		return false
	}
	r.entries[key] = value
	return true
}

// RegisterAll stores every entry of values. Existing keys are replaced.
func (r *Registry[K, V]) RegisterAll(values map[K]V) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range values {
		r.entries[k] = v
	}
}

// Lookup returns the value registered under key.
func (r *Registry[K, V]) Lookup(key K) (V, bool) {
	r.mu.RLock()
	value, ok := r.entries[key]
	r.mu.RUnlock()
	return value, ok
}

// Get is Lookup with a not-found error instead of a boolean.
func (r *Registry[K, V]) Get(key K) (V, error) {
	value, ok := r.Lookup(key)
	if !ok {
		return value, errors.NotFoundError(fmt.Sprintf("registry key %v", key))
	}
	return value, nil
}

// IsRegistered checks if key is present.
func (r *Registry[K, V]) IsRegistered(key K) bool {
	_, ok := r.Lookup(key)
	return ok
}

// Count returns the number of entries.
func (r *Registry[K, V]) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Snapshot returns a copy of the current entries. The copy is safe to modify.
func (r *Registry[K, V]) Snapshot() map[K]V {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[K]V, len(r.entries))
	for k, v := range r.entries {
		out[k] = v
	}
	return out
}

// Clear removes all entries.
func (r *Registry[K, V]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[K]V)
}

// SortedKeys returns the string keys of r in lexicographic order.
func SortedKeys[V any](r *Registry[string, V]) []string {
	r.mu.RLock()
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	r.mu.RUnlock()
	sort.Strings(keys)
	return keys
}
