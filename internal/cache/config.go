package cache

import "time"

// Kind is the declared configuration kind of a cache request. Creators are
// registered under the kind they accept.
type Kind string

const (
	KindGeneric Kind = "generic"
	KindLRU     Kind = "lru"
	KindFIFO    Kind = "fifo"
)

// RequestConfig describes one cache requested from the factory.
type RequestConfig struct {
	Name  string `json:"name" validate:"required,cache_name"`
	Label string `json:"label,omitempty"`
	Kind  Kind   `json:"kind,omitempty"`
	// Implementation is an alias hint matched against the names creators
	// claim when no creator accepts Kind.
	Implementation string `json:"implementation,omitempty"`

	Distributed bool `json:"distributed"`
	Replicated  bool `json:"replicated"`

	MaxSize  int           `json:"max_size" validate:"min=0"`
	LiveTime time.Duration `json:"live_time" validate:"min=0"`
	MaxIdle  time.Duration `json:"max_idle" validate:"min=0"`
}

// DisplayName returns Label, or Name when no label was given.
func (r RequestConfig) DisplayName() string {
	if r.Label != "" {
		return r.Label
	}
	return r.Name
}
