package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/donaldgifford/bookwatch/internal/api/handlers"
	"github.com/donaldgifford/bookwatch/internal/auth"
	"github.com/donaldgifford/bookwatch/internal/notify"
	"github.com/donaldgifford/bookwatch/internal/store"
	"github.com/donaldgifford/bookwatch/internal/watch"
	"github.com/donaldgifford/bookwatch/pkg/logger"
)

type testEnv struct {
	store    *store.MemoryStore
	provider *auth.MemoryProvider
	manager  *watch.Manager
	api      humatest.TestAPI
}

func newTestEnv(t *testing.T, opts ...handlers.WatchOption) *testEnv {
	t.Helper()

	log := logger.Discard()
	s := store.NewMemoryStore()
	p := auth.NewMemoryProvider([]byte("test-secret"),
		auth.WithLogger(log),
		auth.WithBcryptCost(bcrypt.MinCost),
	)
	sched := notify.NewScheduler(notify.NewLogBackend(log), notify.WithSchedulerLogger(log))
	m := watch.NewManager(
		watch.NewAdapter(s, log),
		func(string) *notify.Notifier {
			return notify.NewNotifier(sched, notify.WithLogger(log), notify.WithDelay(0))
		},
		watch.WithManagerLogger(log),
	)

	ctx, cancel := context.WithCancel(context.Background())
	unbind := m.Bind(ctx, p)
	t.Cleanup(func() {
		unbind()
		m.Close()
		cancel()
		_ = sched.Close(context.Background())
		_ = s.Close()
	})

	_, api := humatest.New(t)
	handlers.RegisterAuthRoutes(api, handlers.NewAuthHandler(p))
	handlers.RegisterFollowedRoutes(api, handlers.NewFollowedHandler(s, p))
	handlers.RegisterWatchRoutes(api, handlers.NewWatchHandler(m, p, opts...))

	return &testEnv{store: s, provider: p, manager: m, api: api}
}

// signUp creates an account through the API and returns its session.
func (e *testEnv) signUp(t *testing.T, email string) auth.Session {
	t.Helper()

	resp := e.api.Post("/api/v1/auth/signup", map[string]any{
		"email":    email,
		"password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var sess auth.Session
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &sess))
	require.NotEmpty(t, sess.Token)
	return sess
}

func bearer(token string) string {
	return "Authorization: Bearer " + token
}
