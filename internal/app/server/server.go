package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"thodemy/internal/domain/audit"
	"thodemy/internal/domain/auth"
	"thodemy/internal/domain/evaluation"
	"thodemy/internal/platform/config"
	"thodemy/internal/platform/db"
	"thodemy/internal/platform/jobs"
	"thodemy/internal/platform/metrics"
	"thodemy/internal/transport/http/api"
	audithandler "thodemy/internal/transport/http/handlers/audit"
	authhandler "thodemy/internal/transport/http/handlers/auth"
	evaluationshandler "thodemy/internal/transport/http/handlers/evaluations"
	reportshandler "thodemy/internal/transport/http/handlers/reports"
	"thodemy/internal/transport/http/middleware"
)

type App struct {
	Config config.Config
	DB     *pgxpool.Pool
	Router http.Handler
}

// Deps are the services the router serves.
type Deps struct {
	Config      config.Config
	Ready       func(context.Context) error
	Auth        *auth.Service
	Evaluations *evaluation.Service
	Audit       *audit.Service
	Metrics     *metrics.Collector
}

func Run() {
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer app.DB.Close()

	if err := app.Serve(ctx); err != nil {
		slog.Error("server failed", "err", err)
		os.Exit(1)
	}
}

// New connects to the database, prepares the schema and wires every
// service. Background jobs stop when ctx is cancelled.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	runner := jobs.New(pool)
	runner.Start(ctx)
	evaluations := evaluation.NewService(evaluation.NewStore(pool), runner)
	runner.Every(ctx, cfg.AutoPopulateInterval, evaluation.JobAutoPopulateSweep, func(ctx context.Context) (any, error) {
		return evaluations.AutoPopulateOpen(ctx)
	})

	router := NewRouter(Deps{
		Config: cfg,
		Ready: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			return pool.Ping(ctx)
		},
		Auth:        auth.NewService(auth.NewStore(pool), cfg.JWTSecret, cfg.TokenTTL),
		Evaluations: evaluations,
		Audit:       audit.New(pool),
		Metrics:     metrics.New(),
	})
	return &App{Config: cfg, DB: pool, Router: router}, nil
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	perms := auth.StaticPermissions{}

	router := chi.NewRouter()
	router.Use(chimw.RealIP)
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(d.Metrics))
	router.Use(chimw.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORSOrigins))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(r.Context()); err != nil {
				slog.Warn("readiness check failed", "err", err)
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, d.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret, d.Auth))
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
		r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

		authhandler.NewHandler(d.Auth).RegisterRoutes(r)

		r.Route("/admin", func(r chi.Router) {
			evaluationshandler.NewHandler(d.Evaluations, perms, d.Audit, d.Metrics).RegisterRoutes(r)
			reportshandler.NewHandler(d.Evaluations, perms).RegisterRoutes(r)
			audithandler.NewHandler(d.Audit, perms).RegisterRoutes(r)
		})
	})

	return router
}

// Serve listens until ctx is cancelled, then drains in-flight requests for
// up to the configured shutdown timeout.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadTimeout:       a.Config.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      a.Config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("thodemy evaluation server listening", "addr", a.Config.Addr, "env", a.Config.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
