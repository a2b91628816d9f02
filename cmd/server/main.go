// Package main is the entry point of the Gurukul hub API server.
//
// Layout follows Clean Architecture:
//   - Domain: admissions, presence, scoring ledger, payments, quizzes
//   - Application: commands, queries and event handlers
//   - Infrastructure: PostgreSQL, Redis projections, receipt renderer, AI providers
//   - Interface: REST API
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fccthegurukul/gurukul-hub/config"

	// Application layer
	"github.com/fccthegurukul/gurukul-hub/internal/application/command"
	"github.com/fccthegurukul/gurukul-hub/internal/application/eventhandler"
	"github.com/fccthegurukul/gurukul-hub/internal/application/query"

	// Domain ports
	"github.com/fccthegurukul/gurukul-hub/internal/domain/leaderboard"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/presence"
	"github.com/fccthegurukul/gurukul-hub/internal/domain/shared"

	// Infrastructure layer
	"github.com/fccthegurukul/gurukul-hub/internal/infrastructure/external/assistant"
	"github.com/fccthegurukul/gurukul-hub/internal/infrastructure/messaging"
	"github.com/fccthegurukul/gurukul-hub/internal/infrastructure/persistence/postgres"
	"github.com/fccthegurukul/gurukul-hub/internal/infrastructure/persistence/redis"
	"github.com/fccthegurukul/gurukul-hub/internal/infrastructure/photos"
	"github.com/fccthegurukul/gurukul-hub/internal/infrastructure/receipt"

	// Interface layer
	httpserver "github.com/fccthegurukul/gurukul-hub/internal/interface/http"
	"github.com/fccthegurukul/gurukul-hub/internal/interface/http/handlers"

	// Packages
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
	// 1. CONFIGURATION & LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(cfg)
	log.Info("starting gurukul hub API",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.String("timezone", cfg.App.Timezone),
		logger.Any("features_off", cfg.Features.Disabled()),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. DATABASE (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	dbConn, err := connectDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing database connection")
		dbConn.Close()
	}()

	if cfg.Database.AutoMigrate {
		if err := migrate(ctx, dbConn, log); err != nil {
			return err
		}
	}

	studentRepo := postgres.NewStudentRepository(dbConn)
	presenceRepo := postgres.NewPresenceRepository(dbConn)
	ledgerRepo := postgres.NewLeaderboardRepository(dbConn)
	paymentRepo := postgres.NewPaymentRepository(dbConn)
	quizRepo := postgres.NewQuizRepository(dbConn)
	documentRepo := postgres.NewDocumentRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. REDIS (optional read side)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		cache      *redis.Cache
		readCache  query.Cache
		projection leaderboard.Projection
		campus     presence.CampusTracker
	)
	if !cfg.Redis.Disabled {
		client, err := redis.NewClient(ctx, redisConfig(cfg.Redis))
		if err != nil {
			log.Warn("redis unavailable, projections fall back to PostgreSQL", logger.Err(err))
		} else {
			defer client.Close()
			cache = redis.NewCache(client)
			if cfg.Features.IsEnabled(config.FeatureReadCache) {
				readCache = cache
			}
			if cfg.Features.IsEnabled(config.FeatureLeaderboardProjection) {
				projection = redis.NewLeaderboardProjection(client)
			}
			if cfg.Features.IsEnabled(config.FeatureCampusTracker) {
				campus = redis.NewCampusTracker(client)
			}
			log.Info("redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = log
	eventBus := messaging.NewInMemoryEventBus(busConfig)
	defer func() {
		log.Info("closing event bus")
		_ = eventBus.Close()
	}()

	if err := subscribe(eventBus, projection, campus, cache, log); err != nil {
		return fmt.Errorf("failed to register event handlers: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. EXTERNAL COLLABORATORS
	// ─────────────────────────────────────────────────────────────────────────
	renderer := receipt.NewRenderer(cfg.Receipt, log)

	photoDir, err := photos.Load(cfg.Files.PhotoDirectoryPath)
	if err != nil {
		return fmt.Errorf("failed to load photo directory: %w", err)
	}

	providers := assistant.Providers(cfg.Assistant, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	clock := shared.SystemClock

	deps := httpserver.Dependencies{
		AdmitStudent:   command.NewAdmitStudentHandler(studentRepo, eventBus, clock),
		UpdateStudent:  command.NewUpdateStudentHandler(dbConn, studentRepo, paymentRepo, eventBus, clock),
		SignalPresence: command.NewSignalPresenceHandler(dbConn, presenceRepo, eventBus, clock),
		CompleteTask: command.NewCompleteTaskHandler(dbConn, ledgerRepo, eventBus, clock,
			command.CompleteTaskHandlerConfig{Atomic: cfg.Ledger.Atomic}),
		RecordPayment: command.NewRecordPaymentHandler(dbConn, paymentRepo, renderer, eventBus, clock,
			command.RecordPaymentHandlerConfig{
				StudentURLPrefix: cfg.Receipt.StudentURLPrefix,
				RenderTimeout:    cfg.Receipt.RenderTimeout,
			}),
		StartQuiz:    command.NewStartQuizHandler(quizRepo),
		SubmitQuiz:   command.NewSubmitQuizHandler(dbConn, quizRepo, eventBus, clock),
		UploadFile:   command.NewUploadFileHandler(documentRepo),
		AskAssistant: command.NewAskAssistantHandler(providers, cfg.Assistant.RequestTimeout),

		Students:    query.NewStudentQueries(studentRepo, photoDir, readCache),
		Presence:    query.NewPresenceQueries(presenceRepo, campus),
		Leaderboard: query.NewLeaderboardQueries(ledgerRepo, studentRepo, projection, readCache, cfg.Ledger.LeaderboardLimit),
		Payments:    query.NewPaymentQueries(paymentRepo),
		Files:       query.NewFileQueries(documentRepo),
		Quizzes:     query.NewQuizQueries(quizRepo),

		Features: cfg.Features,
		Logger:   log,
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. HEALTH CHECKS
	// ─────────────────────────────────────────────────────────────────────────
	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	health.AddCheck("postgres", handlers.NewPingCheck(dbConn))
	if cache != nil {
		health.AddOptionalCheck("redis", handlers.NewPingCheck(cache))
	}
	deps.HealthChecker = health

	// ─────────────────────────────────────────────────────────────────────────
	// 8. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpServer := httpserver.NewServer(httpserver.ConfigFrom(cfg), deps)
	errCh := httpServer.StartAsync()

	log.Info("gurukul hub API is running",
		logger.String("http_address", httpserver.ConfigFrom(cfg).Address()),
		logger.Bool("redis", cache != nil),
		logger.Int("ai_providers", len(providers)),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			log.Error("http server failed", logger.Err(err))
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", logger.Err(err))
		return err
	}

	log.Info("shutdown completed")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func setupLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	opts.Console = cfg.Observability.LogFormat == "console"
	return logger.New(opts).With(
		logger.String("app", cfg.App.Name),
		logger.String("version", cfg.App.Version),
	)
}

// connectDatabase opens the pool, retrying while PostgreSQL starts up.
func connectDatabase(ctx context.Context, cfg *config.Config, log *logger.Logger) (*postgres.Connection, error) {
	pgCfg := postgres.DefaultConfig()
	pgCfg.URL = cfg.Database.URL
	if cfg.Database.MaxOpenConns > 0 {
		pgCfg.MaxConns = int32(cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns > 0 {
		pgCfg.MinConns = int32(cfg.Database.MaxIdleConns)
	}
	if cfg.Database.ConnMaxLifetime > 0 {
		pgCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	}
	if cfg.Database.ConnMaxIdleTime > 0 {
		pgCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime
	}

	conn, err := retry.DoWithData(ctx, func(ctx context.Context) (*postgres.Connection, error) {
		return postgres.NewConnection(ctx, pgCfg)
	},
		retry.WithMaxAttempts(cfg.Database.ConnectAttempts),
		retry.WithInitialDelay(500*time.Millisecond),
		retry.WithMaxDelay(10*time.Second),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			log.Warn("database not ready, retrying",
				logger.Int("attempt", attempt),
				logger.Duration("delay", delay),
				logger.Err(err))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("database connection established")
	return conn, nil
}

func migrate(ctx context.Context, conn *postgres.Connection, log *logger.Logger) error {
	migrator := postgres.NewMigrator(conn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	status, err := migrator.Status(ctx)
	if err != nil {
		log.Warn("failed to get migration status", logger.Err(err))
		return nil
	}
	applied := 0
	for _, m := range status {
		if m.IsApplied {
			applied++
		}
	}
	log.Info("migrations completed", logger.Int("applied", applied), logger.Int("total", len(status)))
	return nil
}

func redisConfig(c config.RedisConfig) redis.Config {
	rc := redis.DefaultConfig()
	rc.Host = c.Host
	rc.Port = c.Port
	rc.Password = c.Password
	rc.DB = c.DB
	if c.PoolSize > 0 {
		rc.PoolSize = c.PoolSize
	}
	if c.MinIdleConns > 0 {
		rc.MinIdleConns = c.MinIdleConns
	}
	if c.DialTimeout > 0 {
		rc.DialTimeout = c.DialTimeout
	}
	if c.ReadTimeout > 0 {
		rc.ReadTimeout = c.ReadTimeout
	}
	if c.WriteTimeout > 0 {
		rc.WriteTimeout = c.WriteTimeout
	}
	return rc
}

// subscribe registers the projection updaters. Handlers whose store is not
// available are skipped.
func subscribe(
	bus *messaging.InMemoryEventBus,
	projection leaderboard.Projection,
	campus presence.CampusTracker,
	cache *redis.Cache,
	log *logger.Logger,
) error {
	var errs []error
	if projection != nil {
		h := eventhandler.NewOnTaskCompletedHandler(projection, log)
		errs = append(errs, bus.Subscribe(h.EventType(), h.Handle))
	}
	if campus != nil {
		h := eventhandler.NewOnPresenceSignaledHandler(campus, log)
		errs = append(errs, bus.Subscribe(h.EventType(), h.Handle))
	}
	if cache != nil {
		h := eventhandler.NewOnStudentUpdatedHandler(cache, log)
		errs = append(errs, bus.Subscribe(h.EventType(), h.Handle))
	}
	return errors.Join(errs...)
}
