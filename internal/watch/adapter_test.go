package watch_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/bookwatch/internal/store"
	"github.com/donaldgifford/bookwatch/internal/watch"
	domain "github.com/donaldgifford/bookwatch/pkg/types"
)

type snapshotRecorder struct {
	mu    sync.Mutex
	snaps [][]domain.FollowedItem
	errs  []error
}

func (r *snapshotRecorder) onSnapshot(items []domain.FollowedItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, items)
}

func (r *snapshotRecorder) onError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *snapshotRecorder) snapshots() [][]domain.FollowedItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]domain.FollowedItem(nil), r.snaps...)
}

func (r *snapshotRecorder) errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

func TestAdapter_InitialSnapshotOfMissingPath(t *testing.T) {
	t.Parallel()

	a := watch.NewAdapter(store.NewMemoryStore(), quietLogger())
	rec := &snapshotRecorder{}

	unsub, err := a.Watch(context.Background(), domain.FollowedBooksPath("u1"), rec.onSnapshot, rec.onError)
	require.NoError(t, err)
	defer unsub()

	snaps := rec.snapshots()
	require.Len(t, snaps, 1)
	assert.NotNil(t, snaps[0])
	assert.Empty(t, snaps[0])
}

func TestAdapter_ValidatesRecords(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	writeFollowed(t, s, "u1", "k3", followed("B3", "Algebra", "75.5"))
	writeFollowed(t, s, "u1", "k1", followed("B1", "Calculus", 100.0))
	writeFollowed(t, s, "u1", "k2", domain.Record{"title": "no id", "price": 1.0})
	writeFollowed(t, s, "u1", "k4", domain.Record{"bookId": "B4", "title": "no price"})
	writeFollowed(t, s, "u1", "k5", followed("B5", "bad price", "cheap"))
	writeFollowed(t, s, "u1", "k6", domain.Record{"id": "B6", "title": "legacy id", "price": 10.0})

	a := watch.NewAdapter(s, quietLogger())
	rec := &snapshotRecorder{}

	unsub, err := a.Watch(context.Background(), domain.FollowedBooksPath("u1"), rec.onSnapshot, rec.onError)
	require.NoError(t, err)
	defer unsub()

	snaps := rec.snapshots()
	require.Len(t, snaps, 1)
	assert.Equal(t, []domain.FollowedItem{
		{ID: "B1", Key: "k1", Title: "Calculus", Price: 100},
		{ID: "B3", Key: "k3", Title: "Algebra", Price: 75.5},
		{ID: "B6", Key: "k6", Title: "legacy id", Price: 10},
	}, snaps[0])
}

func TestAdapter_DeliversEveryChange(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	a := watch.NewAdapter(s, quietLogger())
	rec := &snapshotRecorder{}

	unsub, err := a.Watch(context.Background(), domain.FollowedBooksPath("u1"), rec.onSnapshot, rec.onError)
	require.NoError(t, err)
	defer unsub()

	writeFollowed(t, s, "u1", "k1", followed("B1", "Calculus", 100.0))
	writeFollowed(t, s, "u1", "k1", followed("B1", "Calculus", 120.0))

	snaps := rec.snapshots()
	require.Len(t, snaps, 3)
	assert.Empty(t, snaps[0])
	assert.InDelta(t, 100.0, snaps[1][0].Price, 0)
	assert.InDelta(t, 120.0, snaps[2][0].Price, 0)
}

func TestAdapter_UnsubscribeIsIdempotent(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	a := watch.NewAdapter(s, quietLogger())
	rec := &snapshotRecorder{}

	unsub, err := a.Watch(context.Background(), domain.FollowedBooksPath("u1"), rec.onSnapshot, rec.onError)
	require.NoError(t, err)

	unsub()
	unsub()

	writeFollowed(t, s, "u1", "k1", followed("B1", "Calculus", 100.0))
	assert.Len(t, rec.snapshots(), 1)
}

func TestAdapter_ErrorIsTerminal(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	a := watch.NewAdapter(s, quietLogger())
	rec := &snapshotRecorder{}
	path := domain.FollowedBooksPath("u1")

	unsub, err := a.Watch(context.Background(), path, rec.onSnapshot, rec.onError)
	require.NoError(t, err)
	defer unsub()

	s.Deny(path, store.ErrPermissionDenied)
	s.Deny(path, store.ErrPermissionDenied)
	s.Allow(path)
	writeFollowed(t, s, "u1", "k1", followed("B1", "Calculus", 100.0))

	errs := rec.errors()
	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], store.ErrPermissionDenied)
	assert.Len(t, rec.snapshots(), 1)
}

func TestAdapter_SubscribeRefused(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	path := domain.FollowedBooksPath("u1")
	s.Deny(path, store.ErrPermissionDenied)

	a := watch.NewAdapter(s, quietLogger())
	rec := &snapshotRecorder{}

	_, err := a.Watch(context.Background(), path, rec.onSnapshot, rec.onError)
	require.ErrorIs(t, err, store.ErrPermissionDenied)
	assert.Empty(t, rec.snapshots())
}

func TestAdapter_CollapsesDuplicateBooks(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	writeFollowed(t, s, "u1", "k2", followed("B1", "Calculus", 120.0))
	writeFollowed(t, s, "u1", "k1", followed("B1", "Calculus", 100.0))
	writeFollowed(t, s, "u1", "k3", followed("B2", "Physics", 40.0))

	a := watch.NewAdapter(s, quietLogger())
	rec := &snapshotRecorder{}

	unsub, err := a.Watch(context.Background(), domain.FollowedBooksPath("u1"), rec.onSnapshot, rec.onError)
	require.NoError(t, err)
	defer unsub()

	snaps := rec.snapshots()
	require.Len(t, snaps, 1)
	assert.Equal(t, []domain.FollowedItem{
		{ID: "B1", Key: "k1", Title: "Calculus", Price: 100},
		{ID: "B2", Key: "k3", Title: "Physics", Price: 40},
	}, snaps[0])
}
