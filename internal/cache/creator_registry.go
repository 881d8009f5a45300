package cache

import (
	"fmt"
	"sync/atomic"

	"cache-factory/internal/common/errors"
	"cache-factory/internal/common/logging"
	"cache-factory/internal/common/registry"
)

// Match describes how a creator was selected.
type Match string

const (
	MatchKind     Match = "kind"
	MatchAlias    Match = "alias"
	MatchFallback Match = "fallback"
)

// CreatorResolution is the outcome of CreatorRegistry.Resolve.
type CreatorResolution struct {
	Creator Creator
	Match   Match
}

// Fallback reports whether no registered creator matched.
func (r CreatorResolution) Fallback() bool {
	return r.Match == MatchFallback
}

// CreatorRegistry maps configuration kinds and implementation aliases to
// creators. The last registration for a key wins.
type CreatorRegistry struct {
	byKind    *registry.Registry[string, Creator]
	byAlias   *registry.Registry[string, Creator]
	fallback  Creator
	fallbacks atomic.Int64
	logger    logging.Logger
}

// NewCreatorRegistry creates an empty registry falling back to GenericCreator.
func NewCreatorRegistry(logger logging.Logger) *CreatorRegistry {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &CreatorRegistry{
		byKind:   registry.New[string, Creator](),
		byAlias:  registry.New[string, Creator](),
		fallback: GenericCreator{},
		logger:   logger,
	}
}

// Register records c under its kind and every alias it claims.
func (r *CreatorRegistry) Register(c Creator) error {
	if c == nil {
		return errors.ConfigError("cannot register a nil creator")
	}

	aliases := c.Implementations()
	if aliases == nil {
		return errors.ConfigError(fmt.Sprintf("creator %T for kind '%s' declares no implementation set", c, c.Kind())).
			WithContext("kind", string(c.Kind()))
	}

	if c.Kind() != "" {
		if r.byKind.Register(string(c.Kind()), c) {
			r.logger.Debug("Creator replaced", logging.String("kind", string(c.Kind())))
		}
	}
	for _, alias := range aliases {
		r.byAlias.Register(alias, c)
	}
	return nil
}

// AddCreators registers every creator of plugin, stopping at the first
// invalid one.
func (r *CreatorRegistry) AddCreators(plugin CreatorPlugin) error {
	for _, c := range plugin.Creators() {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Resolve selects the creator for req: an exact kind match, then an alias
// match on req.Implementation, then the generic fallback. It never fails.
func (r *CreatorRegistry) Resolve(req RequestConfig) CreatorResolution {
	if req.Kind != "" {
		if c, ok := r.byKind.Lookup(string(req.Kind)); ok {
			return CreatorResolution{Creator: c, Match: MatchKind}
		}
	}
	if req.Implementation != "" {
		if c, ok := r.byAlias.Lookup(req.Implementation); ok {
			return CreatorResolution{Creator: c, Match: MatchAlias}
		}
	}

	r.fallbacks.Add(1)
	r.logger.Info("No creator registered for cache, using the generic creator",
		logging.String("cache", req.Name),
		logging.String("kind", string(req.Kind)),
		logging.String("implementation", req.Implementation),
	)
	return CreatorResolution{Creator: r.fallback, Match: MatchFallback}
}

// Fallbacks returns how many resolutions fell through to the generic creator.
func (r *CreatorRegistry) Fallbacks() int64 {
	return r.fallbacks.Load()
}

// Kinds returns the registered kinds in sorted order.
func (r *CreatorRegistry) Kinds() []string {
	return registry.SortedKeys(r.byKind)
}

// Aliases returns the registered implementation aliases in sorted order.
func (r *CreatorRegistry) Aliases() []string {
	return registry.SortedKeys(r.byAlias)
}
