package watch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/donaldgifford/bookwatch/internal/auth"
	"github.com/donaldgifford/bookwatch/internal/notify"
)

// NotifierFactory builds the notifier for a new session.
type NotifierFactory func(uid string) *notify.Notifier

// Manager keeps at most one Session per user.
type Manager struct {
	adapter     *Adapter
	newNotifier NotifierFactory
	sessionOpts []SessionOption
	log         *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets a custom logger.
func WithManagerLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = l
	}
}

// WithSessionOptions applies opts to every session the manager creates.
func WithSessionOptions(opts ...SessionOption) ManagerOption {
	return func(m *Manager) {
		m.sessionOpts = append(m.sessionOpts, opts...)
	}
}

// NewManager creates a Manager.
func NewManager(a *Adapter, newNotifier NotifierFactory, opts ...ManagerOption) *Manager {
	m := &Manager{
		adapter:     a,
		newNotifier: newNotifier,
		log:         slog.Default(),
		sessions:    make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start returns the user's running session, starting a new one if needed.
// ctx bounds the session's lifetime and should outlive the caller's request.
func (m *Manager) Start(ctx context.Context, uid string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[uid]; ok && s.Err() == nil {
		return s, nil
	}

	opts := append([]SessionOption{WithSessionLogger(m.log)}, m.sessionOpts...)
	s := NewSession(uid, m.adapter, m.newNotifier(uid), opts...)
	if err := s.Start(ctx); err != nil {
		return nil, err
	}
	if old, ok := m.sessions[uid]; ok {
		old.Stop()
	}
	m.sessions[uid] = s
	return s, nil
}

// Stop ends the user's session, if any.
func (m *Manager) Stop(uid string) {
	m.mu.Lock()
	s, ok := m.sessions[uid]
	delete(m.sessions, uid)
	m.mu.Unlock()

	if ok {
		s.Stop()
	}
}

// Session returns the user's session.
func (m *Manager) Session(uid string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[uid]
	return s, ok
}

// Len returns the number of sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Bind starts a session whenever a user signs in to p and stops it when
// they sign out. Sessions live until sign-out or until ctx is done. The
// returned function detaches the manager from p.
func (m *Manager) Bind(ctx context.Context, p auth.Provider) func() {
	return p.OnAuthStateChanged(func(change auth.StateChange) {
		uid := change.User.UID
		if !change.SignedIn {
			m.Stop(uid)
			return
		}
		if _, err := m.Start(ctx, uid); err != nil {
			m.log.Error("starting watch session", "uid", uid, "error", err)
		}
	})
}

// Close stops every session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Stop()
	}
}
