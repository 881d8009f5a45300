// Package app wires configuration, logging, Redis, the cache factory and the
// diagnostics API together.
package app

import (
	"fmt"

	"cache-factory/internal/cache"
	"cache-factory/internal/cache/creators"
	"cache-factory/internal/cache/distributed"
	"cache-factory/internal/common/logging"
	"cache-factory/internal/config"
	"cache-factory/internal/redis"
	"cache-factory/internal/resource"

	"github.com/robfig/cron/v3"
)

// App holds all the application dependencies
type App struct {
	Config      *config.Config
	Factory     *cache.Factory
	Distributed *distributed.Manager
	RedisClient *redis.Client
	Logger      logging.Logger

	scheduler *cron.Cron
}

// New creates a new application instance with all dependencies
func New(cfg *config.Config) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logging.GetGlobalLogger().WithFields(logging.String("component", "app")),
	}

	if cfg.DistributedEnabled {
		if err := app.initializeRedis(); err != nil {
			// Distributed requests fail with a configuration error until Redis is back.
			app.Logger.Warn("Redis initialization failed, continuing without distributed caches",
				logging.Err(err))
		}
	}

	if err := app.initializeFactory(); err != nil {
		app.Cleanup()
		return nil, err
	}

	if err := app.initializeStats(); err != nil {
		app.Cleanup()
		return nil, err
	}

	return app, nil
}

func (app *App) initializeFactory() error {
	opts := cache.Options{
		Container:        app.Config.ContainerName,
		TemplateLocation: app.Config.TemplateLocation,
		Loader:           resource.NewFileLoader(app.Config.ConfigDir),
	}
	if app.Distributed != nil {
		opts.Distributed = app.Distributed
	}

	factory, err := cache.NewFactory(opts)
	if err != nil {
		return fmt.Errorf("failed to create cache factory: %w", err)
	}

	if err := factory.AddCreator(creators.Plugin()); err != nil {
		return fmt.Errorf("failed to register built-in creators: %w", err)
	}

	templates, err := app.Config.CustomTemplates()
	if err != nil {
		return err
	}
	factory.AddConfig(cache.Templates(templates))

	app.Factory = factory
	app.Logger.Info("Cache factory ready",
		logging.String("container", factory.Container()),
		logging.String("template", app.Config.TemplateLocation),
		logging.Int("custom_templates", len(templates)),
	)
	return nil
}

// Cleanup releases all resources
func (app *App) Cleanup() {
	if app.scheduler != nil {
		<-app.scheduler.Stop().Done()
	}
	if app.Factory != nil {
		if err := app.Factory.Shutdown(); err != nil {
			app.Logger.Warn("Failed to stop cache managers", logging.Err(err))
		}
	}
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
