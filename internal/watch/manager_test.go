package watch_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/donaldgifford/bookwatch/internal/auth"
	"github.com/donaldgifford/bookwatch/internal/notify"
	"github.com/donaldgifford/bookwatch/internal/store"
	"github.com/donaldgifford/bookwatch/internal/watch"
)

func newManager(s store.Store, svc notify.Service) *watch.Manager {
	return watch.NewManager(
		watch.NewAdapter(s, quietLogger()),
		func(string) *notify.Notifier {
			return notify.NewNotifier(svc, notify.WithLogger(quietLogger()))
		},
		watch.WithManagerLogger(quietLogger()),
		watch.WithSessionOptions(watch.WithSessionLogger(quietLogger())),
	)
}

func TestManager_StartIsPerUser(t *testing.T) {
	t.Parallel()

	m := newManager(store.NewMemoryStore(), &recordingService{granted: true})
	defer m.Close()

	a, err := m.Start(context.Background(), "u1")
	require.NoError(t, err)
	again, err := m.Start(context.Background(), "u1")
	require.NoError(t, err)
	b, err := m.Start(context.Background(), "u2")
	require.NoError(t, err)

	assert.Same(t, a, again)
	assert.NotSame(t, a, b)
	assert.NotSame(t, a.Feed(), b.Feed())
	assert.Equal(t, 2, m.Len())

	m.Stop("u1")
	_, ok := m.Session("u1")
	assert.False(t, ok)
	assert.False(t, a.Status().Active)
	assert.True(t, b.Status().Active)
}

func TestManager_SessionsAreIsolated(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	m := newManager(s, &recordingService{granted: true})
	defer m.Close()

	writeFollowed(t, s, "u1", "k1", followed("B1", "Calculus", 100.0))
	writeFollowed(t, s, "u2", "k1", followed("B1", "Calculus", 100.0))

	u1, err := m.Start(context.Background(), "u1")
	require.NoError(t, err)
	u2, err := m.Start(context.Background(), "u2")
	require.NoError(t, err)

	writeFollowed(t, s, "u1", "k1", followed("B1", "Calculus", 80.0))

	assert.Equal(t, 1, u1.Feed().Len())
	assert.Equal(t, 0, u2.Feed().Len())
}

func TestManager_RestartsFailedSession(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	m := newManager(s, &recordingService{granted: true})
	defer m.Close()

	first, err := m.Start(context.Background(), "u1")
	require.NoError(t, err)

	s.Deny("users/u1/followedBooks", store.ErrPermissionDenied)
	require.Error(t, first.Err())
	s.Allow("users/u1/followedBooks")

	second, err := m.Start(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.NoError(t, second.Err())
}

func TestManager_BindFollowsAuthState(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	svc := &recordingService{granted: true}
	m := newManager(s, svc)
	defer m.Close()

	p := auth.NewMemoryProvider([]byte("secret"),
		auth.WithBcryptCost(bcrypt.MinCost),
		auth.WithLogger(quietLogger()),
	)
	unbind := m.Bind(context.Background(), p)
	defer unbind()

	sess, err := p.SignUp(context.Background(), "student@example.com", "secret1")
	require.NoError(t, err)
	uid := sess.User.UID

	ws, ok := m.Session(uid)
	require.True(t, ok)
	assert.True(t, ws.Status().Active)

	writeFollowed(t, s, uid, "k1", followed("B1", "Calculus", 100.0))
	writeFollowed(t, s, uid, "k1", followed("B1", "Calculus", 120.0))
	assert.Equal(t, 1, ws.Feed().Len())

	require.NoError(t, p.SignOut(context.Background(), sess.Token))
	_, ok = m.Session(uid)
	assert.False(t, ok)
	assert.Equal(t, 0, ws.Status().LedgerSize)

	// Signing back in starts a new baseline at the last seen price.
	_, err = p.SignIn(context.Background(), "student@example.com", "secret1")
	require.NoError(t, err)

	next, ok := m.Session(uid)
	require.True(t, ok)
	assert.NotSame(t, ws, next)
	assert.Equal(t, 0, next.Feed().Len())
	assert.Equal(t, 1, next.Status().LedgerSize)
	assert.Len(t, svc.contents(), 1)
}
