package watch

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/donaldgifford/bookwatch/pkg/types"
)

func calculus(price float64) domain.FollowedItem {
	return domain.FollowedItem{ID: "B1", Key: "k1", Title: "Calculus", Price: price}
}

func fixedDetector(l *Ledger) *Detector {
	var n int
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	return NewDetector(l,
		WithClock(func() time.Time { return at }),
		WithIDFunc(func() string {
			n++
			return fmt.Sprintf("ev-%d", n)
		}),
	)
}

func TestDetector_EventCountMatchesTransitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prices []float64
		want   int
	}{
		{name: "single snapshot is a baseline", prices: []float64{100}, want: 0},
		{name: "constant price", prices: []float64{100, 100, 100}, want: 0},
		{name: "one change", prices: []float64{100, 120}, want: 1},
		{name: "change and back", prices: []float64{100, 120, 100}, want: 2},
		{name: "repeats between changes", prices: []float64{100, 120, 120, 90, 90, 90, 95}, want: 3},
		{name: "fractional difference", prices: []float64{99.5, 99.50, 99.51}, want: 1},
		{name: "zero price", prices: []float64{0, 10, 0}, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := fixedDetector(NewLedger())

			var got int
			for _, p := range tt.prices {
				got += len(d.Detect([]domain.FollowedItem{calculus(p)}))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetector_Event(t *testing.T) {
	t.Parallel()

	l := NewLedger()
	d := fixedDetector(l)

	require.Empty(t, d.Detect([]domain.FollowedItem{calculus(100)}))

	events := d.Detect([]domain.FollowedItem{calculus(120)})
	require.Len(t, events, 1)
	assert.Equal(t, domain.ChangeEvent{
		ID:         "ev-1",
		ItemID:     "B1",
		Title:      "Calculus",
		OldPrice:   100,
		NewPrice:   120,
		ObservedAt: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}, events[0])

	p, ok := l.LastPrice("B1")
	require.True(t, ok)
	assert.InDelta(t, 120.0, p, 0)
}

func TestDetector_IdenticalSnapshotTwice(t *testing.T) {
	t.Parallel()

	d := fixedDetector(NewLedger())
	snap := []domain.FollowedItem{calculus(100), {ID: "B2", Title: "Physics", Price: 50}}

	d.Detect(snap)
	assert.Len(t, d.Detect([]domain.FollowedItem{calculus(120), {ID: "B2", Title: "Physics", Price: 55}}), 2)
	assert.Empty(t, d.Detect([]domain.FollowedItem{calculus(120), {ID: "B2", Title: "Physics", Price: 55}}))
}

func TestDetector_ResetMakesNextSnapshotABaseline(t *testing.T) {
	t.Parallel()

	l := NewLedger()
	d := fixedDetector(l)

	d.Detect([]domain.FollowedItem{calculus(100)})
	require.Len(t, d.Detect([]domain.FollowedItem{calculus(120)}), 1)

	l.Reset()

	assert.Empty(t, d.Detect([]domain.FollowedItem{calculus(120)}))
	assert.Len(t, d.Detect([]domain.FollowedItem{calculus(100)}), 1)
}

func TestDetector_MissingItemsStayInLedger(t *testing.T) {
	t.Parallel()

	l := NewLedger()
	d := fixedDetector(l)

	d.Detect([]domain.FollowedItem{calculus(100), {ID: "B2", Price: 50}})
	d.Detect([]domain.FollowedItem{calculus(100)})

	assert.Equal(t, 2, l.Len())

	// B2 comes back with a new price: compared against its stale entry.
	events := d.Detect([]domain.FollowedItem{calculus(100), {ID: "B2", Price: 40}})
	require.Len(t, events, 1)
	assert.InDelta(t, 50.0, events[0].OldPrice, 0)
}

func TestDetector_SkipsEmptyID(t *testing.T) {
	t.Parallel()

	l := NewLedger()
	d := fixedDetector(l)

	d.Detect([]domain.FollowedItem{{ID: "", Price: 1}, calculus(100)})
	assert.Equal(t, 1, l.Len())
}

func TestDetector_IndependentItems(t *testing.T) {
	t.Parallel()

	d := fixedDetector(NewLedger())

	d.Detect([]domain.FollowedItem{calculus(100)})
	// B2 is new in the second snapshot: baseline only, while B1 changes.
	events := d.Detect([]domain.FollowedItem{calculus(110), {ID: "B2", Price: 5}})
	require.Len(t, events, 1)
	assert.Equal(t, "B1", events[0].ItemID)
}
