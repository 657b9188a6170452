package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	domain "github.com/donaldgifford/bookwatch/pkg/types"
)

// SQLiteStore implements Store on a single SQLite file. Subscriptions are
// served by a Poller.
type SQLiteStore struct {
	db     *sql.DB
	poller *Poller
}

// NewSQLiteStore opens or creates the database at path and applies migrations.
// Use ":memory:" for a throwaway store.
func NewSQLiteStore(
	ctx context.Context,
	path string,
	pollInterval time.Duration,
	log *slog.Logger,
) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}

	// One connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting wal mode: %w", err)
	}

	if err := runSQLiteMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating sqlite: %w", err)
	}

	s := &SQLiteStore{db: db}
	s.poller = NewPoller(s, pollInterval, log)
	return s, nil
}

// Close stops polling and closes the database.
func (s *SQLiteStore) Close() error {
	<-s.poller.Stop().Done()
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Write upserts the document at path.
func (s *SQLiteStore) Write(ctx context.Context, path string, value domain.Record) error {
	collection, key, err := SplitPath(path)
	if err != nil {
		return err
	}

	body, err := json.Marshal(mergeRecord(nil, value))
	if err != nil {
		return fmt.Errorf("marshaling document: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, sqliteWriteDocument, collection, key, string(body)); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Update merges patch into the document at path.
func (s *SQLiteStore) Update(ctx context.Context, path string, patch domain.Record) error {
	collection, key, err := SplitPath(path)
	if err != nil {
		return err
	}

	body, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("marshaling patch: %w", err)
	}

	res, err := s.db.ExecContext(ctx, sqliteUpdateDocument, string(body), collection, key)
	if err != nil {
		return fmt.Errorf("updating %s: %w", path, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating %s: %w", path, err)
	}
	if n == 0 {
		return fmt.Errorf("updating %s: %w", path, ErrNotFound)
	}
	return nil
}

// Remove deletes the document at path.
func (s *SQLiteStore) Remove(ctx context.Context, path string) error {
	collection, key, err := SplitPath(path)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, sqliteRemoveDocument, collection, key); err != nil {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

// Push stores value under a new random key.
func (s *SQLiteStore) Push(ctx context.Context, collection string, value domain.Record) (string, error) {
	c, err := cleanCollection(collection)
	if err != nil {
		return "", err
	}
	key := uuid.NewString()
	if err := s.Write(ctx, JoinPath(c, key), value); err != nil {
		return "", err
	}
	return key, nil
}

// Get reads every document in the collection.
func (s *SQLiteStore) Get(ctx context.Context, collection string) (Snapshot, error) {
	c, err := cleanCollection(collection)
	if err != nil {
		return Snapshot{}, err
	}

	rows, err := s.db.QueryContext(ctx, sqliteListCollection, c)
	if err != nil {
		return Snapshot{}, fmt.Errorf("querying collection %s: %w", c, err)
	}
	defer rows.Close()

	snap := emptySnapshot(c)
	for rows.Next() {
		var key, body string
		if err := rows.Scan(&key, &body); err != nil {
			return Snapshot{}, fmt.Errorf("scanning document: %w", err)
		}
		r := domain.Record{}
		if err := json.Unmarshal([]byte(body), &r); err != nil {
			return Snapshot{}, fmt.Errorf("decoding document %s: %w", key, err)
		}
		snap.Records[key] = r
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("iterating documents: %w", err)
	}

	return snap, nil
}

// Subscribe polls the collection for changes.
func (s *SQLiteStore) Subscribe(
	ctx context.Context,
	collection string,
	onSnapshot SnapshotFunc,
	onError ErrorFunc,
) (Unsubscribe, error) {
	return s.poller.Subscribe(ctx, collection, onSnapshot, onError)
}
