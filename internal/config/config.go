// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Config is the top-level application configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Store         StoreConfig         `yaml:"store"`
	Watch         WatchConfig         `yaml:"watch"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Auth          AuthConfig          `yaml:"auth"`
	Logging       LoggingConfig       `yaml:"logging"`
	Telemetry     TelemetryConfig     `yaml:"telemetry"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	Backend      string         `yaml:"backend"` // memory, redis, postgres, sqlite
	PollInterval time.Duration  `yaml:"poll_interval"`
	Redis        RedisConfig    `yaml:"redis"`
	Database     DatabaseConfig `yaml:"database"`
	SQLite       SQLiteConfig   `yaml:"sqlite"`
}

// RedisConfig defines Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// DatabaseConfig defines PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	PoolSize int    `yaml:"pool_size"`
}

// DSN returns a PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode,
	)
}

// SQLiteConfig defines the SQLite database file.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// WatchConfig defines price watch behavior.
type WatchConfig struct {
	RecentWindow      time.Duration `yaml:"recent_window"`
	NotificationDelay time.Duration `yaml:"notification_delay"`
	PruneStale        bool          `yaml:"prune_stale"` // default: false
}

// NotificationsConfig defines notification targets.
type NotificationsConfig struct {
	Discord         DiscordConfig  `yaml:"discord"`
	Telegram        TelegramConfig `yaml:"telegram"`
	DeliveryTimeout time.Duration  `yaml:"delivery_timeout"`
}

// DiscordConfig defines Discord webhook settings.
type DiscordConfig struct {
	Enabled    bool            `yaml:"enabled"`
	WebhookURL string          `yaml:"webhook_url"`
	RateLimit  RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig defines outbound rate limiting settings.
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// TelegramConfig defines Telegram bot settings.
type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	ChatID  int64  `yaml:"chat_id"`
}

// AuthConfig defines token issuing settings.
type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	BcryptCost int           `yaml:"bcrypt_cost"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// TelemetryConfig defines OpenTelemetry export settings.
type TelemetryConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Endpoint       string        `yaml:"endpoint"`
	Insecure       bool          `yaml:"insecure"`
	ServiceName    string        `yaml:"service_name"`
	MetricInterval time.Duration `yaml:"metric_interval"`
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse builds a Config from YAML content.
func Parse(data []byte) (*Config, error) {
	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyStoreDefaults(&cfg.Store)
	applyWatchDefaults(&cfg.Watch)
	applyNotificationsDefaults(&cfg.Notifications)
	applyAuthDefaults(&cfg.Auth)
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
}

func applyStoreDefaults(s *StoreConfig) {
	if s.Backend == "" {
		s.Backend = BackendMemory
	}
	if s.PollInterval == 0 {
		s.PollInterval = 2 * time.Second
	}
	if s.Redis.Prefix == "" {
		s.Redis.Prefix = "bw:"
	}
	applyDatabaseDefaults(&s.Database)
}

func applyDatabaseDefaults(d *DatabaseConfig) {
	if d.Port == 0 {
		d.Port = 5432
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	if d.PoolSize == 0 {
		d.PoolSize = 10
	}
}

func applyWatchDefaults(w *WatchConfig) {
	if w.RecentWindow == 0 {
		w.RecentWindow = 3 * time.Second
	}
	if w.NotificationDelay == 0 {
		w.NotificationDelay = time.Second
	}
}

func applyNotificationsDefaults(n *NotificationsConfig) {
	if n.DeliveryTimeout == 0 {
		n.DeliveryTimeout = 10 * time.Second
	}
	if n.Discord.RateLimit.PerSecond == 0 {
		n.Discord.RateLimit.PerSecond = 2
	}
	if n.Discord.RateLimit.Burst == 0 {
		n.Discord.RateLimit.Burst = 5
	}
}

func applyAuthDefaults(a *AuthConfig) {
	if a.TokenTTL == 0 {
		a.TokenTTL = 24 * time.Hour
	}
	if a.BcryptCost == 0 {
		a.BcryptCost = 10
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.ServiceName == "" {
		t.ServiceName = "bookwatch"
	}
	if t.MetricInterval == 0 {
		t.MetricInterval = 30 * time.Second
	}
}

func validate(cfg *Config) error {
	var errs []error

	switch cfg.Store.Backend {
	case BackendMemory:
	case BackendRedis:
		if cfg.Store.Redis.Addr == "" {
			errs = append(errs, fmt.Errorf("store.redis.addr is required when backend is redis"))
		}
	case BackendPostgres:
		d := cfg.Store.Database
		if d.Host == "" {
			errs = append(errs, fmt.Errorf("store.database.host is required when backend is postgres"))
		}
		if d.Name == "" {
			errs = append(errs, fmt.Errorf("store.database.name is required when backend is postgres"))
		}
		if d.User == "" {
			errs = append(errs, fmt.Errorf("store.database.user is required when backend is postgres"))
		}
	case BackendSQLite:
		if cfg.Store.SQLite.Path == "" {
			errs = append(errs, fmt.Errorf("store.sqlite.path is required when backend is sqlite"))
		}
	default:
		errs = append(
			errs,
			fmt.Errorf(
				"store.backend must be one of: memory, redis, postgres, sqlite (got %q)",
				cfg.Store.Backend,
			),
		)
	}

	if cfg.Store.PollInterval < time.Second {
		errs = append(errs, fmt.Errorf("store.poll_interval must be at least 1s"))
	}

	if cfg.Auth.JWTSecret == "" {
		errs = append(errs, fmt.Errorf("auth.jwt_secret is required"))
	}

	if cfg.Notifications.Discord.Enabled && cfg.Notifications.Discord.WebhookURL == "" {
		errs = append(
			errs,
			fmt.Errorf("notifications.discord.webhook_url is required when discord is enabled"),
		)
	}
	if cfg.Notifications.Telegram.Enabled {
		if cfg.Notifications.Telegram.Token == "" {
			errs = append(
				errs,
				fmt.Errorf("notifications.telegram.token is required when telegram is enabled"),
			)
		}
		if cfg.Notifications.Telegram.ChatID == 0 {
			errs = append(
				errs,
				fmt.Errorf("notifications.telegram.chat_id is required when telegram is enabled"),
			)
		}
	}

	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		errs = append(errs, fmt.Errorf("telemetry.endpoint is required when telemetry is enabled"))
	}

	return errors.Join(errs...)
}
