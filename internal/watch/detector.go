package watch

import (
	"time"

	"github.com/google/uuid"

	domain "github.com/donaldgifford/bookwatch/pkg/types"
)

// Detector compares snapshots against a Ledger. It is the only writer of
// its ledger.
type Detector struct {
	ledger *Ledger
	now    func() time.Time
	newID  func() string
}

// DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// WithClock overrides the time source used for ObservedAt.
func WithClock(now func() time.Time) DetectorOption {
	return func(d *Detector) {
		d.now = now
	}
}

// WithIDFunc overrides event id generation.
func WithIDFunc(f func() string) DetectorOption {
	return func(d *Detector) {
		d.newID = f
	}
}

// NewDetector creates a Detector writing to l.
func NewDetector(l *Ledger, opts ...DetectorOption) *Detector {
	d := &Detector{
		ledger: l,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect returns one event per item whose price differs from the ledger
// and updates the ledger. Items seen for the first time are recorded
// without an event. Items absent from the snapshot keep their entry.
func (d *Detector) Detect(items []domain.FollowedItem) []domain.ChangeEvent {
	var events []domain.ChangeEvent

	for _, item := range items {
		if item.ID == "" {
			continue
		}

		last, known := d.ledger.LastPrice(item.ID)
		if !known {
			d.ledger.SetLastPrice(item.ID, item.Price)
			continue
		}
		if last == item.Price {
			continue
		}

		events = append(events, domain.ChangeEvent{
			ID:         d.newID(),
			ItemID:     item.ID,
			Title:      item.Title,
			OldPrice:   last,
			NewPrice:   item.Price,
			ObservedAt: d.now(),
		})
		d.ledger.SetLastPrice(item.ID, item.Price)
	}

	return events
}
