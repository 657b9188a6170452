package cmd

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/bookwatch/internal/config"
	"github.com/donaldgifford/bookwatch/internal/notify"
	"github.com/donaldgifford/bookwatch/internal/store"
	"github.com/donaldgifford/bookwatch/pkg/logger"
)

func TestOpenStore(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)

	tests := []struct {
		name    string
		store   config.StoreConfig
		want    any
		wantErr bool
	}{
		{
			name:  "memory",
			store: config.StoreConfig{Backend: config.BackendMemory},
			want:  &store.MemoryStore{},
		},
		{
			name: "redis",
			store: config.StoreConfig{
				Backend: config.BackendRedis,
				Redis:   config.RedisConfig{Addr: mr.Addr(), Prefix: "bw:"},
			},
			want: &store.RedisStore{},
		},
		{
			name: "sqlite",
			store: config.StoreConfig{
				Backend:      config.BackendSQLite,
				PollInterval: time.Second,
				SQLite:       config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "bw.db")},
			},
			want: &store.SQLiteStore{},
		},
		{
			name:    "unknown",
			store:   config.StoreConfig{Backend: "etcd"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := &config.Config{Store: tt.store}
			s, err := openStore(context.Background(), cfg, logger.Discard())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })

			assert.IsType(t, tt.want, s)
			assert.NoError(t, s.Ping(context.Background()))
		})
	}
}

func TestNewBackend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  config.NotificationsConfig
		want any
	}{
		{
			name: "nothing enabled logs",
			want: &notify.LogBackend{},
		},
		{
			name: "discord only",
			cfg: config.NotificationsConfig{Discord: config.DiscordConfig{
				Enabled:    true,
				WebhookURL: "https://discord.example/webhook",
				RateLimit:  config.RateLimitConfig{PerSecond: 2, Burst: 5},
			}},
			want: &notify.DiscordBackend{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b, err := newBackend(&tt.cfg, logger.Discard())
			require.NoError(t, err)
			assert.IsType(t, tt.want, b)

			granted, err := b.RequestPermission(context.Background())
			require.NoError(t, err)
			assert.True(t, granted)
		})
	}
}
