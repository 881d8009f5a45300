package cache

// CreatorPlugin contributes a bundle of creators.
type CreatorPlugin interface {
	Creators() []Creator
}

// ConfigPlugin contributes custom templates, keyed by cache name.
type ConfigPlugin interface {
	Configs() map[string]string
}

// Creators is a CreatorPlugin backed by a slice.
type Creators []Creator

func (c Creators) Creators() []Creator {
	return c
}

// Templates is a ConfigPlugin backed by a map of cache name to template
// location.
type Templates map[string]string

func (t Templates) Configs() map[string]string {
	return t
}
