package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		envVars   map[string]string
		wantErr   string
		checkFunc func(t *testing.T, cfg *Config)
	}{
		{
			name: "valid minimal config",
			yaml: `
auth:
  jwt_secret: test-secret
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "test-secret", cfg.Auth.JWTSecret)
				assert.Equal(t, BackendMemory, cfg.Store.Backend)
			},
		},
		{
			name: "defaults applied for optional fields",
			yaml: `
auth:
  jwt_secret: test-secret
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
				assert.Equal(t, 2*time.Second, cfg.Store.PollInterval)
				assert.Equal(t, "bw:", cfg.Store.Redis.Prefix)
				assert.Equal(t, 5432, cfg.Store.Database.Port)
				assert.Equal(t, "disable", cfg.Store.Database.SSLMode)
				assert.Equal(t, 10, cfg.Store.Database.PoolSize)
				assert.Equal(t, 3*time.Second, cfg.Watch.RecentWindow)
				assert.Equal(t, time.Second, cfg.Watch.NotificationDelay)
				assert.False(t, cfg.Watch.PruneStale)
				assert.Equal(t, 10*time.Second, cfg.Notifications.DeliveryTimeout)
				assert.InDelta(t, 2.0, cfg.Notifications.Discord.RateLimit.PerSecond, 0)
				assert.Equal(t, 5, cfg.Notifications.Discord.RateLimit.Burst)
				assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
				assert.Equal(t, 10, cfg.Auth.BcryptCost)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "text", cfg.Logging.Format)
				assert.Equal(t, "bookwatch", cfg.Telemetry.ServiceName)
				assert.Equal(t, 30*time.Second, cfg.Telemetry.MetricInterval)
			},
		},
		{
			name: "env var substitution",
			yaml: `
store:
  backend: postgres
  database:
    host: localhost
    name: testdb
    user: testuser
    password: "${TEST_DB_PASSWORD}"
auth:
  jwt_secret: "${TEST_JWT_SECRET}"
`,
			envVars: map[string]string{
				"TEST_DB_PASSWORD": "secret123",
				"TEST_JWT_SECRET":  "from-env",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "secret123", cfg.Store.Database.Password)
				assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
			},
		},
		{
			name:    "missing jwt secret",
			yaml:    `logging: {level: debug}`,
			wantErr: "auth.jwt_secret is required",
		},
		{
			name: "invalid store backend",
			yaml: `
store:
  backend: firebase
auth:
  jwt_secret: s
`,
			wantErr: `store.backend must be one of: memory, redis, postgres, sqlite (got "firebase")`,
		},
		{
			name: "redis backend missing addr",
			yaml: `
store:
  backend: redis
auth:
  jwt_secret: s
`,
			wantErr: "store.redis.addr is required when backend is redis",
		},
		{
			name: "postgres backend missing database fields",
			yaml: `
store:
  backend: postgres
auth:
  jwt_secret: s
`,
			wantErr: "store.database.host is required when backend is postgres",
		},
		{
			name: "sqlite backend missing path",
			yaml: `
store:
  backend: sqlite
auth:
  jwt_secret: s
`,
			wantErr: "store.sqlite.path is required when backend is sqlite",
		},
		{
			name: "poll interval too short",
			yaml: `
store:
  poll_interval: 100ms
auth:
  jwt_secret: s
`,
			wantErr: "store.poll_interval must be at least 1s",
		},
		{
			name: "discord enabled without webhook",
			yaml: `
notifications:
  discord:
    enabled: true
auth:
  jwt_secret: s
`,
			wantErr: "notifications.discord.webhook_url is required when discord is enabled",
		},
		{
			name: "telegram enabled without chat id",
			yaml: `
notifications:
  telegram:
    enabled: true
    token: abc
auth:
  jwt_secret: s
`,
			wantErr: "notifications.telegram.chat_id is required when telegram is enabled",
		},
		{
			name: "telemetry enabled without endpoint",
			yaml: `
telemetry:
  enabled: true
auth:
  jwt_secret: s
`,
			wantErr: "telemetry.endpoint is required when telemetry is enabled",
		},
		{
			name:    "invalid YAML",
			yaml:    `{{{not valid yaml`,
			wantErr: "parsing config YAML",
		},
		{
			name: "full config with overrides",
			yaml: `
server:
  host: "127.0.0.1"
  port: 9090
  read_timeout: 60s
  write_timeout: 60s
store:
  backend: sqlite
  poll_interval: 5s
  sqlite:
    path: /var/lib/bookwatch/bw.db
watch:
  recent_window: 10s
  notification_delay: 2s
  prune_stale: true
notifications:
  delivery_timeout: 5s
  discord:
    enabled: true
    webhook_url: https://discord.com/api/webhooks/123
    rate_limit:
      per_second: 1
      burst: 2
  telegram:
    enabled: true
    token: bot-token
    chat_id: -100123
auth:
  jwt_secret: s3cret
  token_ttl: 1h
  bcrypt_cost: 12
logging:
  level: debug
  format: json
telemetry:
  enabled: true
  endpoint: otel-collector:4317
  insecure: true
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "127.0.0.1", cfg.Server.Host)
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, BackendSQLite, cfg.Store.Backend)
				assert.Equal(t, 5*time.Second, cfg.Store.PollInterval)
				assert.Equal(t, "/var/lib/bookwatch/bw.db", cfg.Store.SQLite.Path)
				assert.Equal(t, 10*time.Second, cfg.Watch.RecentWindow)
				assert.Equal(t, 2*time.Second, cfg.Watch.NotificationDelay)
				assert.True(t, cfg.Watch.PruneStale)
				assert.Equal(t, 5*time.Second, cfg.Notifications.DeliveryTimeout)
				assert.True(t, cfg.Notifications.Discord.Enabled)
				assert.Equal(t, 2, cfg.Notifications.Discord.RateLimit.Burst)
				assert.Equal(t, int64(-100123), cfg.Notifications.Telegram.ChatID)
				assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
				assert.Equal(t, 12, cfg.Auth.BcryptCost)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.True(t, cfg.Telemetry.Enabled)
				assert.True(t, cfg.Telemetry.Insecure)
				assert.Equal(t, "otel-collector:4317", cfg.Telemetry.Endpoint)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Only parallelize tests that don't modify env vars.
			if len(tt.envVars) == 0 {
				t.Parallel()
			}

			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))

			cfg, err := Load(path)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.checkFunc != nil {
				tt.checkFunc(t, cfg)
			}
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := Load("/nonexistent/path/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestValidate_JoinsErrors(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte(`
store:
  backend: postgres
`))
	require.Error(t, err)
	for _, want := range []string{
		"store.database.host is required",
		"store.database.name is required",
		"store.database.user is required",
		"auth.jwt_secret is required",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  DatabaseConfig
		want string
	}{
		{
			name: "basic DSN",
			cfg: DatabaseConfig{
				Host:     "localhost",
				Port:     5432,
				Name:     "bookwatch",
				User:     "bw",
				Password: "testpass",
				SSLMode:  "disable",
			},
			want: "host=localhost port=5432 dbname=bookwatch user=bw password=testpass sslmode=disable",
		},
		{
			name: "production DSN",
			cfg: DatabaseConfig{
				Host:     "db.example.com",
				Port:     5433,
				Name:     "bookwatch",
				User:     "admin",
				Password: "s3cret",
				SSLMode:  "require",
			},
			want: "host=db.example.com port=5433 dbname=bookwatch user=admin password=s3cret sslmode=require",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.cfg.DSN())
		})
	}
}

func TestLoad_ExampleConfig(t *testing.T) {
	t.Setenv("BW_JWT_SECRET", "example-secret")

	cfg, err := Load(filepath.Join("..", "..", "config.example.yaml"))
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, "example-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 3*time.Second, cfg.Watch.RecentWindow)
	assert.Equal(t, time.Second, cfg.Watch.NotificationDelay)
	assert.False(t, cfg.Watch.PruneStale)
	assert.False(t, cfg.Notifications.Discord.Enabled)
}
