package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"hrconsole/internal/domain/audit"
	"hrconsole/internal/domain/auth"
	"hrconsole/internal/domain/core"
	"hrconsole/internal/domain/leave"
	"hrconsole/internal/domain/payroll"
	"hrconsole/internal/platform/config"
	"hrconsole/internal/platform/db"
	"hrconsole/internal/platform/lock"
	"hrconsole/internal/platform/logging"
	"hrconsole/internal/platform/metrics"
	"hrconsole/internal/transport/http/api"
	audithandler "hrconsole/internal/transport/http/handlers/audit"
	authhandler "hrconsole/internal/transport/http/handlers/auth"
	corehandler "hrconsole/internal/transport/http/handlers/core"
	leavehandler "hrconsole/internal/transport/http/handlers/leave"
	payrollhandler "hrconsole/internal/transport/http/handlers/payroll"
	"hrconsole/internal/transport/http/middleware"
)

const lockKeyPrefix = "hrconsole:"

// AuditService records and lists audit events.
type AuditService interface {
	audit.Recorder
	audithandler.Reader
}

// Services is everything the router needs. Tests build it from in-memory
// stores; App builds it from PostgreSQL and redis.
type Services struct {
	Auth    authhandler.LoginService
	Core    *core.Service
	Payroll *payroll.Service
	Leave   *leave.Service
	Audit   AuditService
	Perms   middleware.PermissionChecker
	Metrics *metrics.Collector
	Ready   func(ctx context.Context) error
}

type App struct {
	Config config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Router http.Handler
}

// New connects to the database (and redis when configured), applies
// migrations and seed data, and assembles the router.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	app := &App{Config: cfg, DB: pool}

	if cfg.RunMigrations {
		fsys, dir := migrationSource(cfg.MigrationsDir)
		if err := db.Migrate(ctx, pool, fsys, dir); err != nil {
			app.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			app.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	var locker lock.Locker = lock.NoopLocker{}
	if cfg.RedisAddr != "" {
		client, err := lock.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("redis connect: %w", err)
		}
		app.Redis = client
		locker = lock.NewRedisLocker(client, lockKeyPrefix)
	} else {
		logging.Logger().Info().Msg("REDIS_ADDR not set, payroll calculation lock disabled")
	}

	enforcer, err := auth.NewEnforcer(auth.RolePermissions)
	if err != nil {
		app.Close()
		return nil, err
	}

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}

	app.Router = NewRouter(cfg, Services{
		Auth: auth.NewService(auth.NewStore(pool), cfg.JWTSecret, cfg.TokenTTL),
		Core: core.NewService(core.NewStore(pool)),
		Payroll: payroll.NewService(payroll.NewStore(pool), payroll.NewRules(cfg.Payroll),
			payroll.WithLocker(locker, cfg.CalcLockTTL),
			payroll.WithMetrics(collector),
		),
		Leave:   leave.NewService(leave.NewStore(pool), cfg.Payroll.DefaultAnnualLeaveAllowance, leave.WithMetrics(collector)),
		Audit:   audit.New(pool),
		Perms:   enforcer,
		Metrics: collector,
		Ready:   pool.Ping,
	})
	return app, nil
}

// migrationSource prefers the embedded migrations unless a directory on
// disk was configured explicitly.
func migrationSource(dir string) (fs.FS, string) {
	if dir == "" || dir == "migrations" {
		return db.Migrations, "migrations"
	}
	return os.DirFS(dir), "."
}

func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

// NewRouter builds the HTTP surface: health probes, metrics and the /api/v1
// routes.
func NewRouter(cfg config.Config, svc Services) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(svc.Metrics))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.Fail(w, http.StatusNotFound, "not_found", "route not found", middleware.GetRequestID(r.Context()))
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		api.Fail(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", middleware.GetRequestID(r.Context()))
	})

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := svc.Ready(ctx); err != nil {
				logging.FromContext(r.Context()).Warn().Err(err).Msg("readiness check failed")
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	if svc.Metrics != nil {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, svc.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(svc.Auth).RegisterRoutes(r)
		corehandler.NewHandler(svc.Core, svc.Perms, svc.Audit).RegisterRoutes(r)
		payrollhandler.NewHandler(svc.Payroll, svc.Perms, svc.Audit, cfg.CalcTimeout, cfg.PayslipCompanyName).RegisterRoutes(r)
		leavehandler.NewHandler(svc.Leave, svc.Perms, svc.Audit).RegisterRoutes(r)
		audithandler.NewHandler(svc.Audit, svc.Perms).RegisterRoutes(r)
	})
	return router
}

// Run loads configuration, starts the server and blocks until SIGINT or
// SIGTERM, then drains in-flight requests.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.Init(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.CalcTimeout + 15*time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Logger().Info().Str("addr", cfg.Addr).Msg("hrconsole listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logging.Logger().Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
