package notify

import (
	"slices"
	"sync"
	"time"

	domain "github.com/donaldgifford/bookwatch/pkg/types"
)

// DefaultRecentWindow is how long a feed entry is presented as new.
const DefaultRecentWindow = 3 * time.Second

// Entry is one feed line.
type Entry struct {
	domain.ChangeEvent
	Message string `json:"message"`
}

// Feed is an append-only, in-memory list of change events for display.
type Feed struct {
	mu      sync.RWMutex
	entries []Entry
	latest  map[string]int // item id -> index of its newest entry
}

// NewFeed creates an empty Feed.
func NewFeed() *Feed {
	return &Feed{latest: make(map[string]int)}
}

// Append adds e unless the newest entry for the same item already carries
// the same new price. It reports whether e was added.
func (f *Feed) Append(e Entry) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if i, ok := f.latest[e.ItemID]; ok && f.entries[i].NewPrice == e.NewPrice {
		return false
	}

	f.entries = append(f.entries, e)
	f.latest[e.ItemID] = len(f.entries) - 1
	return true
}

// Entries returns a copy of the feed, oldest first.
func (f *Feed) Entries() []Entry {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.entries)
}

// Len returns the number of entries.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.entries)
}

// IsRecent reports whether e should still be highlighted at now.
func IsRecent(e Entry, now time.Time, window time.Duration) bool {
	age := now.Sub(e.ObservedAt)
	return age >= 0 && age < window
}
