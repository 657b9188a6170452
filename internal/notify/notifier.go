// Package notify turns price change events into local notifications and
// keeps the per-session notification feed.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/donaldgifford/bookwatch/internal/metrics"
	domain "github.com/donaldgifford/bookwatch/pkg/types"
)

// PriceChangeTitle is the title of every price change notification.
const PriceChangeTitle = "Prisændring"

const defaultDelay = time.Second

// Content is what a notification shows.
type Content struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Trigger controls when a scheduled notification fires.
type Trigger struct {
	Delay time.Duration `json:"delay"`
}

// Service is the local notification service: it asks the user for
// permission and schedules notifications fire-and-forget.
type Service interface {
	RequestPermission(ctx context.Context) (bool, error)
	ScheduleNotification(content Content, trigger Trigger) error
}

// FormatPrice renders a price without trailing zeros ("120", "99.5").
func FormatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// PriceChangeBody is the deterministic notification text for an event.
func PriceChangeBody(ev domain.ChangeEvent) string {
	return fmt.Sprintf("Prisen på \"%s\" er ændret til %s DKK.", ev.Title, FormatPrice(ev.NewPrice))
}

type permission int

const (
	permissionUnknown permission = iota
	permissionGranted
	permissionDenied
)

// Notifier delivers one notification and one feed entry per change event.
type Notifier struct {
	service Service
	feed    *Feed
	delay   time.Duration
	log     *slog.Logger

	mu         sync.Mutex
	permission permission
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(n *Notifier) {
		n.log = l
	}
}

// WithDelay sets the trigger delay used for scheduled notifications.
func WithDelay(d time.Duration) Option {
	return func(n *Notifier) {
		n.delay = d
	}
}

// WithFeed sets the feed entries are appended to.
func WithFeed(f *Feed) Option {
	return func(n *Notifier) {
		n.feed = f
	}
}

// NewNotifier creates a Notifier scheduling through s.
func NewNotifier(s Service, opts ...Option) *Notifier {
	n := &Notifier{
		service: s,
		delay:   defaultDelay,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.feed == nil {
		n.feed = NewFeed()
	}
	return n
}

// Feed returns the notifier's feed.
func (n *Notifier) Feed() *Feed {
	return n.feed
}

// Notify appends ev to the feed and schedules its notification. It reports
// false when ev repeats the latest entry for the same item, in which case
// nothing happens. A denied permission skips only the notification.
func (n *Notifier) Notify(ctx context.Context, ev domain.ChangeEvent) bool {
	body := PriceChangeBody(ev)

	if !n.feed.Append(Entry{ChangeEvent: ev, Message: body}) {
		metrics.DuplicateEventsTotal.Inc()
		n.log.Debug("duplicate change event dropped", "item", ev.ItemID, "price", ev.NewPrice)
		return false
	}
	metrics.FeedEntriesTotal.Inc()

	if !n.permitted(ctx) {
		metrics.NotificationsSuppressedTotal.Inc()
		n.log.Debug("notification permission denied, feed only", "item", ev.ItemID)
		return true
	}

	content := Content{Title: PriceChangeTitle, Body: body}
	if err := n.service.ScheduleNotification(content, Trigger{Delay: n.delay}); err != nil {
		metrics.NotificationFailuresTotal.Inc()
		n.log.Warn("scheduling notification failed", "item", ev.ItemID, "error", err)
		return true
	}
	metrics.NotificationsScheduledTotal.Inc()

	return true
}

// permitted asks for permission until the service gives an answer; the
// answer is then kept for the notifier's lifetime.
func (n *Notifier) permitted(ctx context.Context) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch n.permission {
	case permissionGranted:
		return true
	case permissionDenied:
		return false
	}

	granted, err := n.service.RequestPermission(ctx)
	if err != nil {
		n.log.Warn("requesting notification permission failed", "error", err)
		return false
	}

	if granted {
		n.permission = permissionGranted
	} else {
		n.permission = permissionDenied
		n.log.Info("notification permission denied")
	}
	return granted
}
