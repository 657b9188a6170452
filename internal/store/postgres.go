package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/donaldgifford/bookwatch/pkg/types"
)

const defaultPoolSize = 10

// PostgresStore implements Store on a documents table using pgxpool.
// Subscriptions are served by a Poller.
//
// TODO(test): PostgresStore methods require live Postgres, tested via integration tests.
type PostgresStore struct {
	pool   *pgxpool.Pool
	poller *Poller
}

// PostgresOptions tunes a PostgresStore.
type PostgresOptions struct {
	PoolSize     int
	PollInterval time.Duration
	Logger       *slog.Logger
}

// NewPostgresStore creates a new PostgresStore with connection pooling.
func NewPostgresStore(
	ctx context.Context,
	connString string,
	opts PostgresOptions,
) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	cfg.MaxConns = defaultPoolSize
	if opts.PoolSize > 0 {
		cfg.MaxConns = int32(opts.PoolSize) //nolint:gosec // bounded by config validation
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &PostgresStore{pool: pool}
	s.poller = NewPoller(s, opts.PollInterval, opts.Logger)
	return s, nil
}

// Close stops polling and shuts down the connection pool.
func (s *PostgresStore) Close() error {
	<-s.poller.Stop().Done()
	s.pool.Close()
	return nil
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies pending SQL schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.pool)
}

// Write upserts the document at path.
func (s *PostgresStore) Write(ctx context.Context, path string, value domain.Record) error {
	collection, key, err := SplitPath(path)
	if err != nil {
		return err
	}

	body, err := json.Marshal(mergeRecord(nil, value))
	if err != nil {
		return fmt.Errorf("marshaling document: %w", err)
	}

	args := pgx.NamedArgs{
		"collection": collection,
		"doc_key":    key,
		"body":       body,
	}
	if _, err := s.pool.Exec(ctx, pgWriteDocument, args); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Update merges patch into the document at path.
func (s *PostgresStore) Update(ctx context.Context, path string, patch domain.Record) error {
	collection, key, err := SplitPath(path)
	if err != nil {
		return err
	}

	body, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("marshaling patch: %w", err)
	}

	tag, err := s.pool.Exec(ctx, pgUpdateDocument, collection, key, body)
	if err != nil {
		return fmt.Errorf("updating %s: %w", path, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("updating %s: %w", path, ErrNotFound)
	}
	return nil
}

// Remove deletes the document at path.
func (s *PostgresStore) Remove(ctx context.Context, path string) error {
	collection, key, err := SplitPath(path)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, pgRemoveDocument, collection, key); err != nil {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

// Push stores value under a new random key.
func (s *PostgresStore) Push(ctx context.Context, collection string, value domain.Record) (string, error) {
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
func (s *PostgresStore) Get(ctx context.Context, collection string) (Snapshot, error) {
	c, err := cleanCollection(collection)
	if err != nil {
		return Snapshot{}, err
	}

	rows, err := s.pool.Query(ctx, pgListCollection, c)
	if err != nil {
		return Snapshot{}, fmt.Errorf("querying collection %s: %w", c, err)
	}
	defer rows.Close()

	snap := emptySnapshot(c)
	for rows.Next() {
		var (
			key  string
			body []byte
		)
		if err := rows.Scan(&key, &body); err != nil {
			return Snapshot{}, fmt.Errorf("scanning document: %w", err)
		}
		r := domain.Record{}
		if err := json.Unmarshal(body, &r); err != nil {
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
func (s *PostgresStore) Subscribe(
	ctx context.Context,
	collection string,
	onSnapshot SnapshotFunc,
	onError ErrorFunc,
) (Unsubscribe, error) {
	return s.poller.Subscribe(ctx, collection, onSnapshot, onError)
}
