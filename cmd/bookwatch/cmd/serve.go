package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/donaldgifford/bookwatch/api/openapi"
	"github.com/donaldgifford/bookwatch/internal/api/handlers"
	"github.com/donaldgifford/bookwatch/internal/api/middleware"
	"github.com/donaldgifford/bookwatch/internal/notify"
	"github.com/donaldgifford/bookwatch/internal/telemetry"
	"github.com/donaldgifford/bookwatch/internal/watch"
	"github.com/donaldgifford/bookwatch/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server and watch sessions",
		Long: "Start the HTTP API. Every user who signs in gets a watch session that\n" +
			"notifies them of price changes on their followed books until they\n" +
			"sign out.",
		RunE: runServe,
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: Version,
		MetricInterval: cfg.Telemetry.MetricInterval,
	})
	if err != nil {
		return fmt.Errorf("setting up telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			log.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	backend, err := newBackend(&cfg.Notifications, log)
	if err != nil {
		return err
	}
	scheduler := newScheduler(cfg, backend, log)
	provider := newAuthProvider(&cfg.Auth, log)

	manager := watch.NewManager(
		watch.NewAdapter(st, logger.Component(log, "watch")),
		func(string) *notify.Notifier { return newNotifier(cfg, scheduler, log) },
		watch.WithManagerLogger(logger.Component(log, "watch")),
		watch.WithSessionOptions(watch.WithPruneStale(cfg.Watch.PruneStale)),
	)
	unbind := manager.Bind(ctx, provider)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	httpLog := logger.Component(log, "http")
	e.Use(middleware.RequestLog(httpLog))
	e.Use(middleware.Metrics())
	e.Use(middleware.Recovery(httpLog))

	health := handlers.NewHealthHandler(st)
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	openapi.RegisterRoutes(e)

	api := humaecho.New(e, huma.DefaultConfig("bookwatch", Version))
	handlers.RegisterAuthRoutes(api, handlers.NewAuthHandler(provider))
	handlers.RegisterFollowedRoutes(api, handlers.NewFollowedHandler(st, provider))
	handlers.RegisterWatchRoutes(api, handlers.NewWatchHandler(manager, provider,
		handlers.WithRecentWindow(cfg.Watch.RecentWindow),
	))

	addr := cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port)
	log.Info("starting server", "addr", addr, "store", cfg.Store.Backend)

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("running server: %w", err)
	}

	log.Info("shutting down server")

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	unbind()
	manager.Close()
	if err := scheduler.Close(sctx); err != nil {
		log.Warn("pending notifications dropped", "error", err)
	}

	log.Info("server stopped")
	return nil
}
