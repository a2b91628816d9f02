// Package main is the background worker of the Gurukul hub.
//
// The worker keeps the Redis read side in shape:
//   - rebuilds the leaderboard projection from PostgreSQL
//   - clears the on-campus tracker every night
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/fccthegurukul/gurukul-hub/config"
	"github.com/fccthegurukul/gurukul-hub/internal/infrastructure/persistence/postgres"
	"github.com/fccthegurukul/gurukul-hub/internal/infrastructure/persistence/redis"
	"github.com/fccthegurukul/gurukul-hub/internal/infrastructure/scheduler"
	"github.com/fccthegurukul/gurukul-hub/internal/infrastructure/scheduler/jobs"
	"github.com/fccthegurukul/gurukul-hub/pkg/logger"
	"github.com/fccthegurukul/gurukul-hub/pkg/retry"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	opts.Console = cfg.Observability.LogFormat == "console"
	log := logger.New(opts).With(logger.Component("worker"))

	if !cfg.Scheduler.Enabled {
		log.Info("scheduler disabled, nothing to do")
		return nil
	}
	if cfg.Redis.Disabled {
		return errors.New("worker needs Redis: every job maintains a Redis projection")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. STORES
	// ─────────────────────────────────────────────────────────────────────────
	pgCfg := postgres.DefaultConfig()
	pgCfg.URL = cfg.Database.URL
	pgCfg.MaxConns = 4

	dbConn, err := retry.DoWithData(ctx, func(ctx context.Context) (*postgres.Connection, error) {
		return postgres.NewConnection(ctx, pgCfg)
	},
		retry.WithMaxAttempts(cfg.Database.ConnectAttempts),
		retry.WithInitialDelay(time.Second),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			log.Warn("database not ready, retrying", logger.Int("attempt", attempt), logger.Err(err))
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()

	rc := redis.DefaultConfig()
	rc.Host = cfg.Redis.Host
	rc.Port = cfg.Redis.Port
	rc.Password = cfg.Redis.Password
	rc.DB = cfg.Redis.DB

	client, err := retry.DoWithData(ctx, func(ctx context.Context) (*goredis.Client, error) {
		return redis.NewClient(ctx, rc)
	}, retry.WithMaxAttempts(cfg.Database.ConnectAttempts))
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer client.Close()

	// ─────────────────────────────────────────────────────────────────────────
	// 3. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.New(scheduler.Config{
		Logger:     log,
		Location:   cfg.App.Location,
		JobTimeout: cfg.Scheduler.JobTimeout,
	})

	rebuild := jobs.NewRebuildLeaderboardJob(
		postgres.NewLeaderboardRepository(dbConn),
		redis.NewLeaderboardProjection(client),
		0,
	)
	if cfg.Features.IsEnabled(config.FeatureLeaderboardProjection) {
		if err := sched.Register(rebuild, cfg.Scheduler.RebuildLeaderboardSpec); err != nil {
			return fmt.Errorf("register %s: %w", rebuild.Name(), err)
		}
	}
	if cfg.Features.IsEnabled(config.FeatureCampusTracker) {
		reset := jobs.NewResetCampusJob(redis.NewCampusTracker(client))
		if err := sched.Register(reset, cfg.Scheduler.ResetCampusSpec); err != nil {
			return fmt.Errorf("register %s: %w", reset.Name(), err)
		}
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	// Warm the projection so the API does not wait for the first tick.
	if cfg.Features.IsEnabled(config.FeatureLeaderboardProjection) {
		if res, err := sched.RunNow(ctx, rebuild.Name()); err != nil {
			log.Warn("initial leaderboard rebuild failed", logger.Err(err))
		} else {
			log.Info("initial leaderboard rebuild finished", logger.Latency(res.Duration))
		}
	}

	for _, j := range sched.ListJobs() {
		log.Info("job scheduled", logger.String("job", j.Name), logger.String("spec", j.Spec))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case <-ctx.Done():
	}

	if err := sched.Stop(); err != nil {
		log.Error("failed to stop scheduler", logger.Err(err))
	}

	snap := sched.Snapshot()
	log.Info("worker stopped",
		logger.Int64("executions", snap.TotalExecutions),
		logger.Int64("failures", snap.TotalFailures),
	)
	return nil
}
