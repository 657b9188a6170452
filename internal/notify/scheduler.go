package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/donaldgifford/bookwatch/internal/metrics"
)

// ErrSchedulerClosed is returned when scheduling after Close.
var ErrSchedulerClosed = errors.New("notification scheduler closed")

const defaultDeliveryTimeout = 10 * time.Second

// Backend delivers notification content to a user-visible channel.
type Backend interface {
	RequestPermission(ctx context.Context) (bool, error)
	Deliver(ctx context.Context, content Content) error
}

// Scheduler implements Service on top of a Backend. Deliveries run on
// timers and are never awaited by ScheduleNotification; once scheduled they
// are not cancelled.
type Scheduler struct {
	backend Backend
	log     *slog.Logger
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerLogger sets a custom logger.
func WithSchedulerLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.log = l
	}
}

// WithDeliveryTimeout bounds a single backend delivery.
func WithDeliveryTimeout(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.timeout = d
	}
}

// NewScheduler creates a Scheduler delivering through b.
func NewScheduler(b Backend, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		backend: b,
		log:     slog.Default(),
		timeout: defaultDeliveryTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequestPermission asks the backend whether notifications may be shown.
func (s *Scheduler) RequestPermission(ctx context.Context) (bool, error) {
	return s.backend.RequestPermission(ctx)
}

// ScheduleNotification delivers content after trigger.Delay.
func (s *Scheduler) ScheduleNotification(content Content, trigger Trigger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSchedulerClosed
	}

	s.wg.Add(1)
	time.AfterFunc(max(trigger.Delay, 0), func() {
		defer s.wg.Done()
		s.deliver(content)
	})
	return nil
}

func (s *Scheduler) deliver(content Content) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	err := s.backend.Deliver(ctx, content)
	metrics.NotificationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.NotificationFailuresTotal.Inc()
		s.log.Error("notification delivery failed", "title", content.Title, "error", err)
		return
	}
	s.log.Debug("notification delivered", "title", content.Title)
}

// Close stops accepting notifications and waits for scheduled ones to be
// delivered, or for ctx to end.
func (s *Scheduler) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for pending notifications: %w", ctx.Err())
	}
}
