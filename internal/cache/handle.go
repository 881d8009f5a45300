package cache

import (
	"context"

	"cache-factory/internal/engine"
)

// Cache is the handle returned to callers of CreateCache.
type Cache interface {
	Name() string
	Label() string
	Get(ctx context.Context, key string) (interface{}, bool)
	Put(ctx context.Context, key string, value interface{}) error
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Size(ctx context.Context) (int, error)
}

// EngineHandle exposes an engine-level cache as a Cache.
type EngineHandle struct {
	label string
	cache engine.Cache
}

// NewEngineHandle wraps c for the given request.
func NewEngineHandle(req RequestConfig, c engine.Cache) *EngineHandle {
	return &EngineHandle{label: req.DisplayName(), cache: c}
}

func (h *EngineHandle) Name() string {
	return h.cache.Name()
}

func (h *EngineHandle) Label() string {
	return h.label
}

// Engine returns the wrapped engine-level cache.
func (h *EngineHandle) Engine() engine.Cache {
	return h.cache
}

func (h *EngineHandle) Get(ctx context.Context, key string) (interface{}, bool) {
	return h.cache.Get(key)
}

func (h *EngineHandle) Put(ctx context.Context, key string, value interface{}) error {
	h.cache.Put(key, value)
	return nil
}

func (h *EngineHandle) Remove(ctx context.Context, key string) error {
	h.cache.Remove(key)
	return nil
}

func (h *EngineHandle) Clear(ctx context.Context) error {
	h.cache.Clear()
	return nil
}

func (h *EngineHandle) Size(ctx context.Context) (int, error) {
	return h.cache.Len(), nil
}
