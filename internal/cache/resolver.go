package cache

import (
	"context"
	"fmt"

	"cache-factory/internal/common/errors"
	"cache-factory/internal/common/logging"
	"cache-factory/internal/common/registry"
	"cache-factory/internal/engine"
	"cache-factory/internal/resource"
)

// Path is the creation path chosen for a request.
type Path string

const (
	PathDistributed Path = "distributed"
	PathCustom      Path = "custom"
	PathDefault     Path = "default"
)

// Resolution is the outcome of ConfigResolver.Resolve. Manager and Config
// are unset on the distributed path.
type Resolution struct {
	Path     Path
	Manager  engine.Manager
	Config   engine.Config
	Template string
}

// ExecWrapper runs fn, possibly under a different execution context such as
// elevated privileges. It must call fn exactly once and return its error.
type ExecWrapper func(fn func() error) error

// DirectExec runs fn in the calling goroutine.
func DirectExec(fn func() error) error {
	return fn()
}

// ConfigResolver decides which manager and base configuration serve a cache.
type ConfigResolver struct {
	container      string
	loader         resource.Loader
	backend        engine.Backend
	managers       *ManagerRegistry
	templates      *registry.Registry[string, string]
	defaultManager engine.Manager
	exec           ExecWrapper
	logger         logging.Logger
}

// Resolve selects the creation path for req. The distributed path touches
// neither templates nor managers; a custom template wins over the default
// manager.
func (r *ConfigResolver) Resolve(ctx context.Context, req RequestConfig) (*Resolution, error) {
	if req.Distributed {
		return &Resolution{Path: PathDistributed}, nil
	}

	log := r.logger.WithContext(ctx)

	if location, ok := r.templates.Lookup(req.Name); ok {
		m, err := r.customManager(req.Name, location)
		if err != nil {
			return nil, err
		}
		log.Info("Using custom configuration template",
			logging.String("template", location),
			logging.String("manager", m.GlobalConfig().ManagerName),
		)
		return &Resolution{
			Path:     PathCustom,
			Manager:  m,
			Config:   m.DefaultConfig(),
			Template: location,
		}, nil
	}

	cfg := r.defaultManager.DefaultConfig()
	if !req.Replicated {
		cfg.Mode = engine.ModeLocal
	}
	log.Info("Using default configuration template",
		logging.String("manager", r.defaultManager.GlobalConfig().ManagerName),
		logging.String("mode", string(cfg.Mode)),
	)
	return &Resolution{
		Path:    PathDefault,
		Manager: r.defaultManager,
		Config:  cfg,
	}, nil
}

// customManager returns the manager for the template at location, building
// and starting it unless a manager with an equal qualified configuration is
// already registered.
func (r *ConfigResolver) customManager(cacheName, location string) (engine.Manager, error) {
	data, err := r.loader.LoadStream(location)
	if err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("the configuration template '%s' of cache '%s' could not be loaded", location, cacheName)).
			WithCause(err).
			WithContext("cache", cacheName).
			WithContext("template", location)
	}

	candidate, err := r.build(data)
	if err != nil {
		return nil, errors.ManagerStartError(fmt.Sprintf("the manager for template '%s' could not be built", location), err).
			WithContext("cache", cacheName).
			WithContext("template", location)
	}
	if err := r.qualify(candidate); err != nil {
		return nil, err
	}

	return r.managers.GetOrCreate(candidate.GlobalConfig(), func() (engine.Manager, error) {
		err := candidate.UpdateGlobalConfig(func(gc *engine.GlobalConfig) {
			gc.ManagerName += "_" + cacheName + "_" + r.container
			gc.JMXNamingSuffix += "_" + cacheName + "_" + r.container
		})
		if err != nil {
			return nil, errors.ManagerStartError("the manager could not be renamed", err)
		}

		if err := r.exec(candidate.Start); err != nil {
			return nil, errors.ManagerStartError(fmt.Sprintf("the manager for template '%s' failed to start", location), err).
				WithContext("cache", cacheName).
				WithContext("template", location)
		}

		r.logger.Info("Cache manager started",
			logging.String("manager", candidate.GlobalConfig().ManagerName),
			logging.String("cluster", candidate.GlobalConfig().ClusterName),
			logging.String("template", location),
		)
		return candidate, nil
	})
}

func (r *ConfigResolver) build(data []byte) (engine.Manager, error) {
	var m engine.Manager
	err := r.exec(func() error {
		var err error
		m, err = r.backend.NewManager(data, false)
		return err
	})
	if err == nil && m == nil {
		err = fmt.Errorf("the engine backend returned no manager")
	}
	return m, err
}

// qualify suffixes the manager's names with the container so that managers
// of sibling containers in one process never share a name. A configured
// transport must resolve through the loader.
func (r *ConfigResolver) qualify(m engine.Manager) error {
	gc := m.GlobalConfig()

	if gc.Clustered() {
		if _, err := r.loader.LoadStream(gc.Transport); err != nil {
			return errors.ConfigError(fmt.Sprintf("the transport configuration '%s' could not be loaded", gc.Transport)).
				WithCause(err).
				WithContext("manager", gc.ManagerName)
		}
	}

	err := m.UpdateGlobalConfig(func(gc *engine.GlobalConfig) {
		gc.ManagerName += "_" + r.container
		gc.JMXNamingSuffix = joinNonEmpty(gc.JMXNamingSuffix, r.container)
		if gc.Clustered() {
			if gc.ClusterName == "" {
				gc.ClusterName = r.container
			} else {
				gc.ClusterName += "-" + r.container
			}
		}
	})
	if err != nil {
		return errors.ManagerStartError(fmt.Sprintf("manager %s cannot be qualified for container %s", gc.ManagerName, r.container), err)
	}
	return nil
}

func joinNonEmpty(prefix, suffix string) string {
	if prefix == "" {
		return suffix
	}
	return prefix + "_" + suffix
}
