package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/cookai-labs/sessiond/internal/accounts"
	"github.com/cookai-labs/sessiond/internal/api"
	"github.com/cookai-labs/sessiond/internal/auth"
	"github.com/cookai-labs/sessiond/internal/database"
	apperrors "github.com/cookai-labs/sessiond/internal/errors"
	"github.com/cookai-labs/sessiond/internal/health"
	"github.com/cookai-labs/sessiond/internal/i18n"
	"github.com/cookai-labs/sessiond/internal/identity"
	"github.com/cookai-labs/sessiond/internal/lifecycle"
	"github.com/cookai-labs/sessiond/internal/middleware"
	"github.com/cookai-labs/sessiond/internal/notify"
	"github.com/cookai-labs/sessiond/internal/ratelimit"
	"github.com/cookai-labs/sessiond/internal/session"
	"github.com/cookai-labs/sessiond/internal/session/store"
	"github.com/cookai-labs/sessiond/pkg/config"
	"github.com/cookai-labs/sessiond/pkg/graceful"
	"github.com/cookai-labs/sessiond/pkg/logger"
	"github.com/cookai-labs/sessiond/pkg/metrics"
	pkgredis "github.com/cookai-labs/sessiond/pkg/redis"
)

// routeLogger is the process-level navigator. Navigation is a client-side
// effect; the server records where the client should go.
type routeLogger struct {
	log *slog.Logger
}

func (n routeLogger) GoTo(route string) {
	n.log.Info("navigation requested", slog.String("route", route))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, _, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.New(*cfg)
	slog.SetDefault(log)

	if cfg.Sentry.Enabled {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		})
		if err != nil {
			log.Error("failed to initialize sentry", slog.Any("error", err))
			os.Exit(1)
		}
		defer sentry.Flush(2 * time.Second)
	}

	log.Info("starting cookai session service",
		slog.String("env", cfg.AppEnv),
		slog.String("http_port", cfg.HTTP.Port),
		slog.String("storage", cfg.Session.Storage),
		slog.String("auth_backend", cfg.Auth.Backend),
	)

	shutdown := lifecycle.NewShutdown(log)
	checker := health.NewChecker(log)

	var sessionStore store.Store
	var rateLimiter ratelimit.Limiter

	if cfg.Redis.Enabled {
		client, err := pkgredis.New(ctx, cfg.Redis)
		if err != nil {
			log.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		shutdown.Register("redis", func(context.Context) error { return client.Close() })
		checker.AddCheck("redis", health.NewRedisChecker(client))

		rateLimiter = ratelimit.NewRedisLimiter(client, log)
		if cfg.Session.Storage == "redis" {
			sessionStore = store.NewRedisStore(client, log)
		}
	}

	if sessionStore == nil {
		fileStore := store.NewFileStore(cfg.Session.FilePath, log)
		checker.AddCheck("session_store", fileStore)
		sessionStore = fileStore
	}

	if rateLimiter == nil {
		memoryLimiter := ratelimit.NewMemoryLimiter(log)
		go memoryLimiter.RunCleaner(ctx, 5*time.Minute, 30*time.Minute)
		rateLimiter = memoryLimiter
	}

	var backend auth.Backend
	if cfg.Auth.Backend == "password" {
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			log.Error("failed to open accounts database", slog.Any("error", err))
			os.Exit(1)
		}
		shutdown.Register("database", func(context.Context) error { return db.Close() })
		checker.AddCheck("database", health.NewDBChecker(db))

		if err := database.NewMigrator(db, log).ApplyDir(ctx, "migrations"); err != nil {
			log.Error("failed to apply migrations", slog.Any("error", err))
			os.Exit(1)
		}

		backend = auth.NewPasswordBackend(accounts.NewPostgresRepository(db, log), nil)
	} else {
		backend = auth.NewSimulatedBackend(cfg.Auth.SimulatedLatency, nil)
	}

	catalog, err := i18n.LoadFromDir(cfg.Session.MessagesDir, cfg.Session.Language)
	if err != nil {
		log.Error("failed to load message catalogs", slog.Any("error", err))
		os.Exit(1)
	}

	watcher := i18n.NewWatcher(catalog, log)
	go func() {
		if err := watcher.Run(ctx); err != nil {
			log.Error("catalog watcher stopped", slog.Any("error", err))
		}
	}()

	manager := session.NewManager(session.Options{
		Store:         sessionStore,
		Backend:       backend,
		Provider:      identity.NewSimulatedProvider(cfg.Provider.SimulatedLatency),
		Tokens:        auth.NewTokenManager(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL),
		Notifier:      notify.NewCatalogNotifier(catalog, cfg.Session.Language, log),
		Nav:           routeLogger{log: log},
		Log:           log,
		RedirectDelay: cfg.Session.RedirectDelay,
	})

	if err := manager.Initialize(ctx); err != nil {
		// the session starts empty; the slot stays as it was
		log.Error("failed to restore persisted session", slog.Any("error", err))
	}

	session.RegisterTransitionRecorder(metrics.RecordPhaseTransition)
	go metrics.NewSessionCollector(func() metrics.SessionSample {
		snapshot := manager.Snapshot()
		return metrics.SessionSample{
			Authenticated:       snapshot.IsAuthenticated,
			OnboardingCompleted: snapshot.HasCompletedPreferences,
		}
	}).Run(ctx)

	apiServer := api.NewServer(api.Options{
		Manager:       manager,
		Errors:        apperrors.NewHandler(log, cfg.Sentry.Enabled),
		Checker:       checker,
		RateLimit:     middleware.NewRateLimit(rateLimiter, ratelimit.NewRules(cfg.RateLimit), log),
		Log:           log,
		RedirectDelay: cfg.Session.RedirectDelay,
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	if err := graceful.NewServer(log, httpServer, cfg.HTTP.ShutdownTimeout).ListenAndServe(ctx); err != nil {
		log.Error("http server exited with error", slog.Any("error", err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := shutdown.Execute(shutdownCtx); err != nil {
		log.Error("shutdown finished with errors", slog.Any("error", err))
	}

	log.Info("cookai session service stopped")
}
