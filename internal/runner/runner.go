// Package runner wires a storage backend to the janitor and triggers sweeps,
// once or on a cron schedule.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/jason-s-yu/cambia-janitor/internal/cache"
	"github.com/jason-s-yu/cambia-janitor/internal/config"
	"github.com/jason-s-yu/cambia-janitor/internal/database"
	"github.com/jason-s-yu/cambia-janitor/internal/docstore"
	"github.com/jason-s-yu/cambia-janitor/internal/janitor"
	"github.com/jason-s-yu/cambia-janitor/internal/logging"
	"github.com/jason-s-yu/cambia-janitor/internal/store"
	cron "github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Store is a janitor store that owns a connection.
type Store interface {
	janitor.Store
	Close(ctx context.Context) error
}

// OpenStore connects to the backend named in cfg.
func OpenStore(ctx context.Context, cfg config.Config) (Store, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		pool, err := database.ConnectDB(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		s := database.NewStore(pool)
		if cfg.Postgres.EnsureSchema {
			if err := s.EnsureSchema(ctx); err != nil {
				_ = s.Close(ctx)
				return nil, fmt.Errorf("ensure schema: %w", err)
			}
		}
		return s, nil
	case config.BackendMongo:
		return docstore.Connect(ctx, cfg.Mongo)
	case config.BackendRedis:
		return cache.ConnectRedis(ctx, cfg.Redis)
	case config.BackendMemory:
		return store.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// Runner triggers janitor sweeps.
type Runner struct {
	janitor    *janitor.Janitor
	logger     *logrus.Logger
	runTimeout time.Duration
}

// New builds a Runner over an already opened store.
func New(cfg config.Config, s janitor.Store, logger *logrus.Logger) *Runner {
	j := janitor.New(s, logger, janitor.Config{
		LobbyTimeout:      cfg.LobbyTimeout,
		ContinueOnError:   cfg.ContinueOnError,
		LookupConcurrency: cfg.LookupConcurrency,
	})
	return &Runner{janitor: j, logger: logger, runTimeout: cfg.RunTimeout}
}

// RunOnce performs a single sweep, bounded by the configured run timeout if any.
func (r *Runner) RunOnce(ctx context.Context) (janitor.Report, error) {
	if r.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.runTimeout)
		defer cancel()
	}
	return r.janitor.Run(ctx)
}

// Serve sweeps on schedule until ctx is cancelled. A sweep still running when
// the next tick fires causes that tick to be skipped. Failed sweeps are logged
// by the janitor and retried on the next tick.
func (r *Runner) Serve(ctx context.Context, schedule string, runOnStart bool) error {
	sched, err := cron.ParseStandard(schedule)
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	cl := logging.CronLogger{Logger: r.logger}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	c.Schedule(sched, cron.FuncJob(func() {
		_, _ = r.RunOnce(ctx)
	}))

	if runOnStart {
		_, _ = r.RunOnce(ctx)
	}

	c.Start()
	r.logger.WithField("schedule", schedule).Info("Lobby janitor scheduled")

	<-ctx.Done()
	<-c.Stop().Done()
	r.logger.Info("Lobby janitor stopped")
	return nil
}
