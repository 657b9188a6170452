package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/donaldgifford/bookwatch/internal/auth"
	"github.com/donaldgifford/bookwatch/internal/config"
	"github.com/donaldgifford/bookwatch/internal/notify"
	"github.com/donaldgifford/bookwatch/internal/store"
	"github.com/donaldgifford/bookwatch/pkg/logger"
)

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(log)
	return cfg, log, nil
}

// openStore connects the configured document store backend.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (store.Store, error) {
	log = logger.Component(log, "store")

	switch cfg.Store.Backend {
	case config.BackendMemory:
		return store.NewMemoryStore(), nil

	case config.BackendRedis:
		rc := redis.NewClient(&redis.Options{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
		s := store.NewRedisStore(rc,
			store.WithRedisPrefix(cfg.Store.Redis.Prefix),
			store.WithRedisLogger(log),
		)
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return s, nil

	case config.BackendPostgres:
		s, err := store.NewPostgresStore(ctx, cfg.Store.Database.DSN(), store.PostgresOptions{
			PoolSize:     cfg.Store.Database.PoolSize,
			PollInterval: cfg.Store.PollInterval,
			Logger:       log,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		return s, nil

	case config.BackendSQLite:
		s, err := store.NewSQLiteStore(ctx, cfg.Store.SQLite.Path, cfg.Store.PollInterval, log)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite: %w", err)
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// newBackend builds the notification backend from the enabled targets.
// Notifications are logged when no target is enabled.
func newBackend(cfg *config.NotificationsConfig, log *slog.Logger) (notify.Backend, error) {
	log = logger.Component(log, "notify")

	var backends []notify.Backend
	if cfg.Discord.Enabled {
		backends = append(backends, notify.NewDiscordBackend(
			cfg.Discord.WebhookURL,
			notify.WithRateLimit(cfg.Discord.RateLimit.PerSecond, cfg.Discord.RateLimit.Burst),
		))
	}
	if cfg.Telegram.Enabled {
		tg, err := notify.NewTelegramBackendFromToken(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			return nil, fmt.Errorf("creating telegram backend: %w", err)
		}
		backends = append(backends, tg)
	}

	switch len(backends) {
	case 0:
		return notify.NewLogBackend(log), nil
	case 1:
		return backends[0], nil
	default:
		return notify.NewMultiBackend(backends...), nil
	}
}

func newScheduler(cfg *config.Config, backend notify.Backend, log *slog.Logger) *notify.Scheduler {
	return notify.NewScheduler(backend,
		notify.WithSchedulerLogger(logger.Component(log, "notify")),
		notify.WithDeliveryTimeout(cfg.Notifications.DeliveryTimeout),
	)
}

func newNotifier(cfg *config.Config, svc notify.Service, log *slog.Logger) *notify.Notifier {
	return notify.NewNotifier(svc,
		notify.WithLogger(logger.Component(log, "notify")),
		notify.WithDelay(cfg.Watch.NotificationDelay),
	)
}

func newAuthProvider(cfg *config.AuthConfig, log *slog.Logger) *auth.MemoryProvider {
	return auth.NewMemoryProvider([]byte(cfg.JWTSecret),
		auth.WithTokenTTL(cfg.TokenTTL),
		auth.WithBcryptCost(cfg.BcryptCost),
		auth.WithLogger(logger.Component(log, "auth")),
	)
}
