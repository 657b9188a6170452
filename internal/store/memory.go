package store

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	domain "github.com/donaldgifford/bookwatch/pkg/types"
)

// MemoryStore is an in-process Store. Listeners are invoked synchronously on
// the goroutine that performed the mutation, so they must not write to the
// store themselves.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string]map[string]domain.Record
	versions    map[string]uint64
	subs        map[string]map[uint64]*memorySub
	denied      map[string]error
	nextSubID   uint64
	closed      bool
}

type memorySub struct {
	mu          sync.Mutex
	closed      atomic.Bool
	lastVersion uint64
	onSnapshot  SnapshotFunc
	onError     ErrorFunc
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]domain.Record),
		versions:    make(map[string]uint64),
		subs:        make(map[string]map[uint64]*memorySub),
		denied:      make(map[string]error),
	}
}

// Write replaces the document at path.
func (m *MemoryStore) Write(_ context.Context, path string, value domain.Record) error {
	collection, key, err := SplitPath(path)
	if err != nil {
		return err
	}
	return m.mutate(collection, func(docs map[string]domain.Record) error {
		docs[key] = mergeRecord(nil, value)
		return nil
	})
}

// Update merges patch into the document at path.
func (m *MemoryStore) Update(_ context.Context, path string, patch domain.Record) error {
	collection, key, err := SplitPath(path)
	if err != nil {
		return err
	}
	return m.mutate(collection, func(docs map[string]domain.Record) error {
		cur, ok := docs[key]
		if !ok {
			return fmt.Errorf("updating %s: %w", path, ErrNotFound)
		}
		docs[key] = mergeRecord(cur, patch)
		return nil
	})
}

// Remove deletes the document at path.
func (m *MemoryStore) Remove(_ context.Context, path string) error {
	collection, key, err := SplitPath(path)
	if err != nil {
		return err
	}
	return m.mutate(collection, func(docs map[string]domain.Record) error {
		delete(docs, key)
		return nil
	})
}

// Push stores value under a new random key.
func (m *MemoryStore) Push(ctx context.Context, collection string, value domain.Record) (string, error) {
	c, err := cleanCollection(collection)
	if err != nil {
		return "", err
	}
	key := uuid.NewString()
	if err := m.Write(ctx, JoinPath(c, key), value); err != nil {
		return "", err
	}
	return key, nil
}

// Get returns a copy of the collection.
func (m *MemoryStore) Get(_ context.Context, collection string) (Snapshot, error) {
	c, err := cleanCollection(collection)
	if err != nil {
		return Snapshot{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Snapshot{}, ErrClosed
	}
	if err := m.denied[c]; err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Path: c, Records: cloneRecords(m.collections[c])}, nil
}

// Subscribe registers a listener and delivers the current contents before returning.
func (m *MemoryStore) Subscribe(
	ctx context.Context,
	collection string,
	onSnapshot SnapshotFunc,
	onError ErrorFunc,
) (Unsubscribe, error) {
	c, err := cleanCollection(collection)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	if err := m.denied[c]; err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("subscribing to %s: %w", c, err)
	}

	m.nextSubID++
	id := m.nextSubID
	sub := &memorySub{onSnapshot: onSnapshot, onError: onError}
	if m.subs[c] == nil {
		m.subs[c] = make(map[uint64]*memorySub)
	}
	m.subs[c][id] = sub
	version := m.versions[c]
	snap := Snapshot{Path: c, Records: cloneRecords(m.collections[c])}
	m.mu.Unlock()

	sub.deliver(version, snap)

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			sub.closed.Store(true)
			m.mu.Lock()
			delete(m.subs[c], id)
			m.mu.Unlock()
		})
	}

	if done := ctx.Done(); done != nil {
		go func() {
			<-done
			unsubscribe()
		}()
	}

	return unsubscribe, nil
}

// Deny makes every current and future read of collection fail with err.
// Existing subscribers receive err once and are detached.
func (m *MemoryStore) Deny(collection string, err error) {
	c, cerr := cleanCollection(collection)
	if cerr != nil {
		return
	}

	m.mu.Lock()
	m.denied[c] = err
	subs := m.subs[c]
	delete(m.subs, c)
	m.mu.Unlock()

	for _, s := range subs {
		s.fail(err)
	}
}

// Allow reverses Deny.
func (m *MemoryStore) Allow(collection string) {
	c, err := cleanCollection(collection)
	if err != nil {
		return
	}
	m.mu.Lock()
	delete(m.denied, c)
	m.mu.Unlock()
}

// Ping reports whether the store is open.
func (m *MemoryStore) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	return nil
}

// Close detaches all listeners. Further operations fail with ErrClosed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	m.closed = true
	all := m.subs
	m.subs = make(map[string]map[uint64]*memorySub)
	m.mu.Unlock()

	for _, subs := range all {
		for _, s := range subs {
			s.closed.Store(true)
		}
	}
	return nil
}

func (m *MemoryStore) mutate(collection string, fn func(map[string]domain.Record) error) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if err := m.denied[collection]; err != nil {
		m.mu.Unlock()
		return err
	}

	docs := m.collections[collection]
	if docs == nil {
		docs = make(map[string]domain.Record)
		m.collections[collection] = docs
	}
	if err := fn(docs); err != nil {
		m.mu.Unlock()
		return err
	}
	if len(docs) == 0 {
		delete(m.collections, collection)
	}

	m.versions[collection]++
	version := m.versions[collection]
	snap := Snapshot{Path: collection, Records: cloneRecords(docs)}
	subs := make([]*memorySub, 0, len(m.subs[collection]))
	for _, s := range m.subs[collection] {
		subs = append(subs, s)
	}
	m.mu.Unlock()

	for _, s := range subs {
		s.deliver(version, snap)
	}
	return nil
}

// deliver drops snapshots older than one already delivered, which keeps
// per-listener order when writers race.
func (s *memorySub) deliver(version uint64, snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed.Load() || (s.lastVersion > 0 && version <= s.lastVersion) {
		return
	}
	s.lastVersion = version
	s.onSnapshot(Snapshot{Path: snap.Path, Records: cloneRecords(snap.Records)})
}

func (s *memorySub) fail(err error) {
	if s.closed.Swap(true) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.onError != nil {
		s.onError(err)
	}
}
