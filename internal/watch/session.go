package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/donaldgifford/bookwatch/internal/metrics"
	"github.com/donaldgifford/bookwatch/internal/notify"
	"github.com/donaldgifford/bookwatch/internal/store"
	domain "github.com/donaldgifford/bookwatch/pkg/types"
)

const tracerName = "github.com/donaldgifford/bookwatch/internal/watch"

// ErrSessionStopped is returned when starting a stopped session.
var ErrSessionStopped = errors.New("watch session stopped")

// Status is a point-in-time view of a session.
type Status struct {
	UID          string    `json:"uid"`
	Active       bool      `json:"active"`
	LedgerSize   int       `json:"ledger_size"`
	Snapshots    int       `json:"snapshots"`
	Events       int       `json:"events"`
	LastSnapshot time.Time `json:"last_snapshot,omitzero"`
	Error        string    `json:"error,omitempty"`
}

// Session watches one user's followed books from Start until Stop.
type Session struct {
	uid      string
	adapter  *Adapter
	notifier *notify.Notifier
	ledger   *Ledger
	detector *Detector
	log      *slog.Logger
	tracer   trace.Tracer
	prune    bool

	mu           sync.Mutex
	ctx          context.Context
	unsub        store.Unsubscribe
	started      bool
	stopped      bool
	err          error
	snapshots    int
	events       int
	lastSnapshot time.Time
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionLogger sets a custom logger.
func WithSessionLogger(l *slog.Logger) SessionOption {
	return func(s *Session) {
		s.log = l
	}
}

// WithPruneStale drops ledger entries for items that leave the collection.
func WithPruneStale(enabled bool) SessionOption {
	return func(s *Session) {
		s.prune = enabled
	}
}

// WithTracer sets the tracer used for snapshot spans.
func WithTracer(t trace.Tracer) SessionOption {
	return func(s *Session) {
		s.tracer = t
	}
}

// WithDetectorOptions passes options to the session's Detector.
func WithDetectorOptions(opts ...DetectorOption) SessionOption {
	return func(s *Session) {
		s.detector = NewDetector(s.ledger, opts...)
	}
}

// NewSession creates a session for uid. Nothing is watched until Start.
func NewSession(uid string, a *Adapter, n *notify.Notifier, opts ...SessionOption) *Session {
	ledger := NewLedger()
	s := &Session{
		uid:      uid,
		adapter:  a,
		notifier: n,
		ledger:   ledger,
		detector: NewDetector(ledger),
		log:      slog.Default(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("uid", uid)
	return s
}

// UID returns the user the session watches.
func (s *Session) UID() string {
	return s.uid
}

// Feed returns the session's notification feed.
func (s *Session) Feed() *notify.Feed {
	return s.notifier.Feed()
}

// Start subscribes to the user's followed books. The first snapshot is
// processed before Start returns and only seeds the ledger. The
// subscription lasts until Stop or until ctx is done.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrSessionStopped
	}
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.ctx = context.WithoutCancel(ctx)
	s.mu.Unlock()

	path := domain.FollowedBooksPath(s.uid)
	unsub, err := s.adapter.Watch(ctx, path, s.handleSnapshot, s.handleError)
	if err != nil {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		metrics.SubscriptionErrorsTotal.Inc()
		return fmt.Errorf("watching %s: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		unsub()
		return nil
	}
	s.unsub = unsub
	metrics.ActiveSessions.Inc()
	s.log.Info("watch session started")
	return nil
}

// Stop unsubscribes and forgets every observed price. No events are
// produced after Stop returns. Notifications already scheduled still fire.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	unsub := s.unsub
	s.unsub = nil
	s.ledger.Reset()
	s.mu.Unlock()

	if unsub != nil {
		unsub()
		metrics.ActiveSessions.Dec()
	}
	s.log.Info("watch session stopped")
}

// Err returns the terminal subscription error, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Status reports the session's current state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		UID:          s.uid,
		Active:       s.started && !s.stopped && s.err == nil,
		LedgerSize:   s.ledger.Len(),
		Snapshots:    s.snapshots,
		Events:       s.events,
		LastSnapshot: s.lastSnapshot,
	}
	if s.err != nil {
		st.Error = s.err.Error()
	}
	return st
}

func (s *Session) handleSnapshot(items []domain.FollowedItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.err != nil {
		return
	}

	start := time.Now()
	_, span := s.tracer.Start(s.ctx, "watch.snapshot",
		trace.WithAttributes(
			attribute.String("bw.uid", s.uid),
			attribute.Int("bw.items", len(items)),
		),
	)
	defer span.End()

	baseline := s.snapshots == 0
	events := s.detector.Detect(items)

	if s.prune {
		keep := make(map[string]struct{}, len(items))
		for _, item := range items {
			keep[item.ID] = struct{}{}
		}
		if n := s.ledger.Prune(keep); n > 0 {
			s.log.Debug("pruned stale ledger entries", "count", n)
		}
	}

	s.snapshots++
	s.lastSnapshot = start
	metrics.SnapshotsTotal.Inc()

	for _, ev := range events {
		metrics.ChangeEventsTotal.Inc()
		s.log.Info("price changed",
			"item", ev.ItemID,
			"title", ev.Title,
			"old_price", ev.OldPrice,
			"new_price", ev.NewPrice,
		)
		if s.notifier.Notify(s.ctx, ev) {
			s.events++
		}
	}

	span.SetAttributes(
		attribute.Bool("bw.baseline", baseline),
		attribute.Int("bw.events", len(events)),
	)
	metrics.SnapshotDuration.Observe(time.Since(start).Seconds())
}

func (s *Session) handleError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.err = err
	metrics.SubscriptionErrorsTotal.Inc()

	_, span := s.tracer.Start(s.ctx, "watch.subscription_error")
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.End()

	if errors.Is(err, store.ErrPermissionDenied) {
		s.log.Warn("followed books not readable, watch ended", "error", err)
		return
	}
	s.log.Error("followed books subscription failed, watch ended", "error", err)
}
