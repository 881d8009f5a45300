package engine

import (
	"container/list"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

type storeEntry struct {
	value   interface{}
	created time.Time
}

// Store is the engine-level cache built for one cache name.
//
// Lifespan maps to the go-cache item expiration and WakeUpInterval to its
// janitor period. MaxIdle slides the expiration forward on every read without
// ever extending past the lifespan. When the configuration is bounded, an
// ordering list evicts the oldest (FIFO) or least recently read (LRU) entry
// once MaxEntries is exceeded.
type Store struct {
	name  string
	cfg   Config
	items *gocache.Cache
	now   func() time.Time

	mu    sync.Mutex
	order *list.List
	index map[string]*list.Element
}

// NewStore creates a store for cfg.
func NewStore(name string, cfg Config) *Store {
	cleanup := cfg.Expiration.WakeUpInterval
	if cleanup < 0 {
		cleanup = 0
	}

	return &Store{
		name:  name,
		cfg:   cfg.Clone(),
		items: gocache.New(gocache.NoExpiration, cleanup),
		now:   time.Now,
		order: list.New(),
		index: make(map[string]*list.Element),
	}
}

// Name returns the cache name.
func (s *Store) Name() string {
	return s.name
}

// Config returns a copy of the store's configuration.
func (s *Store) Config() Config {
	return s.cfg.Clone()
}

// ttl returns the go-cache expiration for an entry created at created. ok is
// false when the lifespan has already elapsed.
func (s *Store) ttl(created, now time.Time) (time.Duration, bool) {
	ttl := gocache.NoExpiration

	if lifespan := s.cfg.Expiration.Lifespan; lifespan > 0 {
		remaining := created.Add(lifespan).Sub(now)
		if remaining <= 0 {
			return 0, false
		}
		ttl = remaining
	}

	if idle := s.cfg.Expiration.MaxIdle; idle > 0 && (ttl == gocache.NoExpiration || idle < ttl) {
		ttl = idle
	}

	return ttl, true
}

// Get returns the value stored under key.
func (s *Store) Get(key string) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, found := s.items.Get(key)
	if !found {
		s.forget(key)
		return nil, false
	}
	e := raw.(storeEntry)

	if s.cfg.Expiration.MaxIdle > 0 {
		ttl, ok := s.ttl(e.created, s.now())
		if !ok {
			s.items.Delete(key)
			s.forget(key)
			return nil, false
		}
		s.items.Set(key, e, ttl)
	}

	if s.cfg.Eviction.Strategy.accessOrdered() {
		if el, ok := s.index[key]; ok {
			s.order.MoveToBack(el)
		}
	}

	return e.value, true
}

// Put stores value under key, evicting older entries when bounded.
func (s *Store) Put(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	ttl, _ := s.ttl(now, now)
	s.items.Set(key, storeEntry{value: value, created: now}, ttl)

	if !s.cfg.Bounded() {
		return
	}

	if el, ok := s.index[key]; ok {
		if s.cfg.Eviction.Strategy.accessOrdered() {
			s.order.MoveToBack(el)
		}
	} else {
		s.index[key] = s.order.PushBack(key)
	}
	s.evict()
}

// Remove deletes key.
func (s *Store) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items.Delete(key)
	s.forget(key)
}

// Clear deletes every entry.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items.Flush()
	s.order.Init()
	s.index = make(map[string]*list.Element)
}

// Len returns the number of live entries.
func (s *Store) Len() int {
	return len(s.items.Items())
}

// evict must be called with s.mu held.
func (s *Store) evict() {
	maxEntries := s.cfg.Eviction.MaxEntries

	for s.items.ItemCount() > maxEntries {
		front := s.order.Front()
		if front == nil {
			break
		}
		key := front.Value.(string)
		s.order.Remove(front)
		delete(s.index, key)
		s.items.Delete(key)
	}

	// Keys expired by the janitor stay in the ordering list until pruned.
	if s.order.Len() > 2*maxEntries {
		for el := s.order.Front(); el != nil; {
			next := el.Next()
			key := el.Value.(string)
			if _, found := s.items.Get(key); !found {
				s.order.Remove(el)
				delete(s.index, key)
			}
			el = next
		}
	}
}

func (s *Store) forget(key string) {
	if el, ok := s.index[key]; ok {
		s.order.Remove(el)
		delete(s.index, key)
	}
}
