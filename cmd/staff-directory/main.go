// Command staff-directory serves the employee directory API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/aimd54/staff-directory/internal/api"
	"github.com/aimd54/staff-directory/internal/authz"
	"github.com/aimd54/staff-directory/internal/backend"
	"github.com/aimd54/staff-directory/internal/catalog"
	"github.com/aimd54/staff-directory/internal/config"
	"github.com/aimd54/staff-directory/internal/repository"
	"github.com/aimd54/staff-directory/internal/service/account"
	"github.com/aimd54/staff-directory/internal/service/activities"
	"github.com/aimd54/staff-directory/internal/service/availability"
	"github.com/aimd54/staff-directory/internal/service/directory"
	"github.com/aimd54/staff-directory/internal/service/reconcile"
	"github.com/aimd54/staff-directory/internal/service/scheduler"
	"github.com/aimd54/staff-directory/internal/session"
	"github.com/aimd54/staff-directory/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	log := logger.Get()

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("Server exited with error")
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// trace context flows from inbound requests to backend calls
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	loc, err := cfg.Directory.GetLocation()
	if err != nil {
		return fmt.Errorf("invalid directory timezone: %w", err)
	}
	cat, err := catalog.Load(cfg.Directory.CatalogPath)
	if err != nil {
		return err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Database.Redis.RedisAddr(),
		Password: cfg.Database.Redis.Password,
		DB:       cfg.Database.Redis.DB,
		PoolSize: cfg.Database.Redis.PoolSize,
	})
	defer func() { _ = rdb.Close() }()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	db, err := repository.NewDB(&cfg.Database.Preferences, log)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	if err := db.AutoMigrate(); err != nil {
		return fmt.Errorf("failed to migrate preferences schema: %w", err)
	}

	client := backend.NewClient(&cfg.Backend, log.Component("backend"))
	sessions := session.NewRedisStore(rdb, cfg.Session.TTL, cfg.Session.KeyPrefix)
	validator := availability.NewValidator(time.Now, loc)

	dir := directory.NewService(client, validator.Today, directory.Config{
		SyncConcurrency: cfg.Backend.SyncConcurrency,
		SyncTimeout:     cfg.Backend.SyncTimeout,
	}, log.Component("directory"))

	accounts := account.NewService(client, sessions,
		account.NewTokens(cfg.Session.JWTSecret, cfg.Session.Issuer, cfg.Session.TTL),
		cfg.Directory.EmailDomain, log.Component("account"))

	az, err := authz.New()
	if err != nil {
		return err
	}

	handler := api.NewHandler(api.Deps{
		Accounts:  accounts,
		Tokens:    accounts.Tokens(),
		Directory: dir,
		Reconcile: reconcile.NewService(client, sessions, validator, cat, reconcile.Config{
			Verbs:       cfg.Backend.Verbs(),
			EmailDomain: cfg.Directory.EmailDomain,
		}, log.Component("reconcile")),
		Activities:     activities.NewService(client, log.Component("activities")),
		Preferences:    repository.NewPreferenceRepository(db),
		Subscriber:     client,
		Screens:        az,
		VAPIDPublicKey: cfg.Notifications.VAPIDPublicKey,
	}, log.Component("api"))

	routerCfg := api.RouterConfig{
		Health: map[string]api.HealthCheck{
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			"database": func(context.Context) error { return db.Health() },
		},
	}
	if cfg.Metrics.Prometheus.Enabled {
		routerCfg.MetricsPath = cfg.Metrics.Prometheus.Path
	}
	router := api.NewRouter(handler, az, routerCfg, log.Component("http"))

	sched := scheduler.NewService(&cfg.Scheduler, dir, log.Component("scheduler"))
	if err := sched.Start(); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           otelhttp.NewHandler(router, "staff-directory"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("backend", cfg.Backend.BaseURL).
			Str("environment", cfg.Server.Environment).
			Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			sched.Stop()
			return fmt.Errorf("http server: %w", err)
		}
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	sched.Stop()
	dir.Wait()
	log.Info().Msg("HTTP server stopped")
	return nil
}
