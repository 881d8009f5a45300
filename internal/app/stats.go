package app

import (
	"fmt"

	"cache-factory/internal/common/logging"

	"github.com/robfig/cron/v3"
)

// initializeStats schedules periodic manager statistics. An empty schedule
// disables the job.
func (app *App) initializeStats() error {
	if app.Config.StatsSchedule == "" {
		return nil
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(app.Config.StatsSchedule, app.logStats); err != nil {
		return fmt.Errorf("invalid CACHE_STATS_SCHEDULE %q: %w", app.Config.StatsSchedule, err)
	}
	scheduler.Start()

	app.scheduler = scheduler
	app.Logger.Info("Statistics job scheduled", logging.String("schedule", app.Config.StatsSchedule))
	return nil
}

func (app *App) logStats() {
	for _, info := range app.Factory.Managers() {
		app.Logger.Info("Cache manager statistics",
			logging.String("manager", info.Global.ManagerName),
			logging.String("cluster", info.Global.ClusterName),
			logging.Bool("running", info.Running),
			logging.Int("caches", len(info.Caches)),
			logging.Any("cache_names", info.Caches),
		)
	}

	creators := app.Factory.Creators()
	app.Logger.Info("Creator statistics",
		logging.Int("kinds", len(creators.Kinds)),
		logging.Int("aliases", len(creators.Aliases)),
		logging.Any("fallbacks", creators.Fallbacks),
	)

	if app.Distributed != nil {
		stats := app.Distributed.BreakerStats()
		app.Logger.Info("Distributed backend statistics",
			logging.Int("caches", len(app.Distributed.Names())),
			logging.String("breaker_state", string(stats.State)),
			logging.Any("requests", stats.Requests),
			logging.Any("failures", stats.Failures),
		)
	}
}
