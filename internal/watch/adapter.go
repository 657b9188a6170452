// Package watch detects price changes on a user's followed books and hands
// them to the notifier.
package watch

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/donaldgifford/bookwatch/internal/metrics"
	"github.com/donaldgifford/bookwatch/internal/store"
	domain "github.com/donaldgifford/bookwatch/pkg/types"
)

// Adapter turns raw store snapshots into validated followed items.
type Adapter struct {
	store store.Store
	log   *slog.Logger
}

// NewAdapter creates an Adapter reading from s.
func NewAdapter(s store.Store, log *slog.Logger) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{store: s, log: log}
}

// Watch subscribes to the collection at path. onSnapshot receives every
// valid item of the collection, ordered by key, once before Watch returns
// and again after each change. A store failure is passed to onError once,
// after which the subscription is over; it is not retried.
func (a *Adapter) Watch(
	ctx context.Context,
	path string,
	onSnapshot func([]domain.FollowedItem),
	onError func(error),
) (store.Unsubscribe, error) {
	var (
		ended   atomic.Bool
		errOnce sync.Once
	)

	handleSnapshot := func(snap store.Snapshot) {
		if ended.Load() {
			return
		}
		onSnapshot(a.items(snap))
	}

	handleError := func(err error) {
		errOnce.Do(func() {
			ended.Store(true)
			if onError != nil {
				onError(err)
			}
		})
	}

	unsub, err := a.store.Subscribe(ctx, path, handleSnapshot, handleError)
	if err != nil {
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			ended.Store(true)
			unsub()
		})
	}, nil
}

func (a *Adapter) items(snap store.Snapshot) []domain.FollowedItem {
	keys := make([]string, 0, len(snap.Records))
	for k := range snap.Records {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	items := make([]domain.FollowedItem, 0, len(keys))
	seen := make(map[string]string, len(keys))
	for _, k := range keys {
		item, err := domain.ParseFollowedItem(k, snap.Records[k])
		if err != nil {
			metrics.MalformedRecordsTotal.Inc()
			a.log.Debug("skipping malformed followed record",
				"path", snap.Path,
				"key", k,
				"error", err,
			)
			continue
		}
		// One record per book feeds the ledger; the lowest key wins.
		if first, dup := seen[item.ID]; dup {
			metrics.MalformedRecordsTotal.Inc()
			a.log.Debug("skipping duplicate followed record",
				"path", snap.Path,
				"key", k,
				"book_id", item.ID,
				"kept_key", first,
			)
			continue
		}
		seen[item.ID] = k
		items = append(items, item)
	}
	return items
}
