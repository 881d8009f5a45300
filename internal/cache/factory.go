package cache

import (
	"context"
	"fmt"
	"sync"

	"cache-factory/internal/common/errors"
	"cache-factory/internal/common/logging"
	"cache-factory/internal/common/registry"
	"cache-factory/internal/common/validation"
	"cache-factory/internal/engine"
	"cache-factory/internal/resource"
)

// TemplateParameter names the setting that holds the default template
// location.
const TemplateParameter = "cache.config.template"

// DistributedBackend serves requests on the distributed path.
type DistributedBackend interface {
	Cache(ctx context.Context, req RequestConfig) (Cache, error)
}

// Options configures a Factory. Only Container and TemplateLocation are
// required.
type Options struct {
	Container        string
	TemplateLocation string

	Loader      resource.Loader
	Backend     engine.Backend
	Distributed DistributedBackend
	Exec        ExecWrapper
	Logger      logging.Logger
}

// Factory creates cache handles for one container.
type Factory struct {
	container   string
	distributed DistributedBackend
	exec        ExecWrapper
	logger      logging.Logger
	validator   *validation.Validator

	creators       *CreatorRegistry
	managers       *ManagerRegistry
	templates      *registry.Registry[string, string]
	resolver       *ConfigResolver
	defaultManager engine.Manager
}

// NewFactory loads the default template, starts the default manager and
// returns a factory with no creators or custom templates registered.
func NewFactory(opts Options) (*Factory, error) {
	if opts.TemplateLocation == "" {
		return nil, errors.ConfigError(fmt.Sprintf("the parameter '%s' must be set", TemplateParameter))
	}
	if opts.Container == "" {
		return nil, errors.ConfigError("the container name must be set")
	}
	if opts.Loader == nil {
		opts.Loader = resource.NewFileLoader("")
	}
	if opts.Backend == nil {
		opts.Backend = engine.NewDefaultBackend()
	}
	if opts.Exec == nil {
		opts.Exec = DirectExec
	}
	if opts.Logger == nil {
		opts.Logger = logging.GetGlobalLogger()
	}

	logger := opts.Logger.WithFields(logging.String("container", opts.Container))

	f := &Factory{
		container:   opts.Container,
		distributed: opts.Distributed,
		exec:        opts.Exec,
		logger:      logger,
		validator:   validation.New(),
		creators:    NewCreatorRegistry(logger),
		managers:    NewManagerRegistry(),
		templates:   registry.New[string, string](),
	}
	f.resolver = &ConfigResolver{
		container: opts.Container,
		loader:    opts.Loader,
		backend:   opts.Backend,
		managers:  f.managers,
		templates: f.templates,
		exec:      opts.Exec,
		logger:    logger,
	}

	m, err := f.startDefaultManager(opts.TemplateLocation)
	if err != nil {
		return nil, err
	}
	f.defaultManager = m
	f.resolver.defaultManager = m

	return f, nil
}

func (f *Factory) startDefaultManager(location string) (engine.Manager, error) {
	data, err := f.resolver.loader.LoadStream(location)
	if err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("the default configuration template '%s' could not be loaded", location)).
			WithCause(err).
			WithContext("template", location)
	}

	m, err := f.resolver.build(data)
	if err != nil {
		return nil, errors.ManagerStartError(fmt.Sprintf("the default manager could not be built from '%s'", location), err)
	}
	if err := f.resolver.qualify(m); err != nil {
		return nil, err
	}
	if err := f.exec(m.Start); err != nil {
		return nil, errors.ManagerStartError("the default manager failed to start", err).
			WithContext("template", location)
	}

	f.managers.Register(m.GlobalConfig(), m)
	f.logger.Info("Default cache manager started",
		logging.String("manager", m.GlobalConfig().ManagerName),
		logging.String("template", location),
	)
	return m, nil
}

// CreateCache builds the cache described by req. Every failure is returned as
// a cache initialization error naming the cache and carrying the cause.
func (f *Factory) CreateCache(ctx context.Context, req RequestConfig) (Cache, error) {
	handle, err := f.createCache(ctx, req)
	if err != nil {
		return nil, errors.CacheInitError(req.Name, err)
	}
	return handle, nil
}

func (f *Factory) createCache(ctx context.Context, req RequestConfig) (Cache, error) {
	if err := f.validator.Struct(req); err != nil {
		return nil, err
	}

	ctx = logging.ContextWithCache(logging.ContextWithContainer(ctx, f.container), req.Name)
	log := f.logger.WithContext(ctx)

	res, err := f.resolver.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	if res.Path == PathDistributed {
		if f.distributed == nil {
			return nil, errors.ConfigError("a distributed cache was requested but no distributed backend was configured").
				WithContext("dependency", "DistributedBackend")
		}
		log.Info("Delegating to the distributed backend")
		return f.distributed.Cache(ctx, req)
	}

	cfg := ResetConfiguration(res.Config)

	resolution := f.creators.Resolve(req)
	log.Info("Creator selected",
		logging.String("creator", fmt.Sprintf("%T", resolution.Creator)),
		logging.String("match", string(resolution.Match)),
	)

	supplier := &lazySupplier{
		manager: res.Manager,
		name:    req.Name,
		cfg:     &cfg,
		exec:    f.exec,
	}

	handle, err := resolution.Creator.Create(ctx, req, &cfg, supplier.Get)
	if err == nil && handle == nil {
		err = fmt.Errorf("creator %T returned no cache", resolution.Creator)
	}
	if err != nil {
		if supplier.Created() {
			res.Manager.RemoveCache(req.Name)
		}
		return nil, err
	}
	if supplier.Reused() {
		log.Warn("Engine cache already running, keeping its configuration",
			logging.String("manager", res.Manager.GlobalConfig().ManagerName))
	}
	return handle, nil
}

// AddCreator registers the creators of plugin.
func (f *Factory) AddCreator(plugin CreatorPlugin) error {
	return f.creators.AddCreators(plugin)
}

// AddConfig registers the custom templates of plugin. Later registrations
// for a cache name replace earlier ones.
func (f *Factory) AddConfig(plugin ConfigPlugin) {
	for name, location := range plugin.Configs() {
		f.templates.Register(name, location)
	}
}

// Container returns the container the factory serves.
func (f *Factory) Container() string {
	return f.container
}

// DefaultManager returns the process-wide default manager.
func (f *Factory) DefaultManager() engine.Manager {
	return f.defaultManager
}

// Shutdown stops every manager the factory started, the default manager
// included. Only the hosting process calls it.
func (f *Factory) Shutdown() error {
	return f.managers.StopAll()
}

// Managers describes every manager started by the factory.
func (f *Factory) Managers() []ManagerInfo {
	return f.managers.Snapshot()
}

// CreatorInfo summarizes the creator registry.
type CreatorInfo struct {
	Kinds     []string `json:"kinds"`
	Aliases   []string `json:"aliases"`
	Fallbacks int64    `json:"fallbacks"`
}

// Creators describes the registered creators.
func (f *Factory) Creators() CreatorInfo {
	return CreatorInfo{
		Kinds:     f.creators.Kinds(),
		Aliases:   f.creators.Aliases(),
		Fallbacks: f.creators.Fallbacks(),
	}
}

// Templates returns the registered custom templates.
func (f *Factory) Templates() map[string]string {
	return f.templates.Snapshot()
}

// lazySupplier defines and fetches the engine cache on its first call and
// replays that result afterwards.
type lazySupplier struct {
	manager engine.Manager
	name    string
	cfg     *engine.Config
	exec    ExecWrapper

	mu      sync.Mutex
	called  bool
	created bool
	cache   engine.Cache
	err     error
}

func (s *lazySupplier) Get() (engine.Cache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.called {
		return s.cache, s.err
	}
	s.called = true

	s.err = s.exec(func() error {
		if err := s.manager.DefineConfig(s.name, *s.cfg); err != nil {
			return err
		}

		c, created, err := s.manager.GetOrCreateCache(s.name)
		if err != nil {
			return err
		}
		s.cache = c
		s.created = created
		return nil
	})
	if s.err == nil && s.cache == nil {
		s.err = fmt.Errorf("engine cache %s was not created", s.name)
	}
	return s.cache, s.err
}

// Created reports whether the supplier started the engine cache. A cache
// that was already running belongs to whoever started it.
func (s *lazySupplier) Created() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.created
}

// Reused reports whether the supplier handed out an engine cache that was
// already running.
func (s *lazySupplier) Reused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.called && s.err == nil && !s.created
}
