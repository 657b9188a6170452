package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	domain "github.com/donaldgifford/bookwatch/pkg/types"
)

const defaultRedisPrefix = "bw:"

// RedisStore keeps each collection in a Redis hash (field = document key,
// value = JSON body) and announces changes on a per-collection pub/sub
// channel. Subscribers re-read the hash on every announcement.
type RedisStore struct {
	rc     *redis.Client
	prefix string
	log    *slog.Logger
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisPrefix sets the key and channel prefix.
func WithRedisPrefix(p string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = p
	}
}

// WithRedisLogger sets a custom logger.
func WithRedisLogger(l *slog.Logger) RedisOption {
	return func(s *RedisStore) {
		s.log = l
	}
}

// NewRedisStore wraps an existing client.
func NewRedisStore(rc *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		rc:     rc,
		prefix: defaultRedisPrefix,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) hashKey(collection string) string {
	return s.prefix + "doc:" + collection
}

func (s *RedisStore) channel(collection string) string {
	return s.prefix + "changes:" + collection
}

// Write replaces the document at path.
func (s *RedisStore) Write(ctx context.Context, path string, value domain.Record) error {
	collection, key, err := SplitPath(path)
	if err != nil {
		return err
	}

	body, err := json.Marshal(mergeRecord(nil, value))
	if err != nil {
		return fmt.Errorf("marshaling document: %w", err)
	}

	_, err = s.rc.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, s.hashKey(collection), key, body)
		p.Publish(ctx, s.channel(collection), key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Update merges patch into the document at path using an optimistic
// WATCH/MULTI transaction.
func (s *RedisStore) Update(ctx context.Context, path string, patch domain.Record) error {
	collection, key, err := SplitPath(path)
	if err != nil {
		return err
	}
	hk := s.hashKey(collection)

	txf := func(tx *redis.Tx) error {
		raw, err := tx.HGet(ctx, hk, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("updating %s: %w", path, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		var cur domain.Record
		if err := json.Unmarshal(raw, &cur); err != nil {
			return fmt.Errorf("decoding %s: %w", path, err)
		}

		body, err := json.Marshal(mergeRecord(cur, patch))
		if err != nil {
			return fmt.Errorf("marshaling document: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.HSet(ctx, hk, key, body)
			p.Publish(ctx, s.channel(collection), key)
			return nil
		})
		return err
	}

	const maxAttempts = 5
	for range maxAttempts {
		err = s.rc.Watch(ctx, txf, hk)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("updating %s: %w", path, err)
}

// Remove deletes the document at path.
func (s *RedisStore) Remove(ctx context.Context, path string) error {
	collection, key, err := SplitPath(path)
	if err != nil {
		return err
	}

	_, err = s.rc.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HDel(ctx, s.hashKey(collection), key)
		p.Publish(ctx, s.channel(collection), key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

// Push stores value under a new random key.
func (s *RedisStore) Push(ctx context.Context, collection string, value domain.Record) (string, error) {
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

// Get reads the collection hash.
func (s *RedisStore) Get(ctx context.Context, collection string) (Snapshot, error) {
	c, err := cleanCollection(collection)
	if err != nil {
		return Snapshot{}, err
	}

	raw, err := s.rc.HGetAll(ctx, s.hashKey(c)).Result()
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading collection %s: %w", c, err)
	}

	snap := emptySnapshot(c)
	for key, body := range raw {
		var r domain.Record
		if err := json.Unmarshal([]byte(body), &r); err != nil {
			// Undecodable documents are surfaced as empty records so the
			// watcher's validation can skip them.
			s.log.Warn("undecodable document", "collection", c, "key", key, "error", err)
			r = domain.Record{}
		}
		snap.Records[key] = r
	}
	return snap, nil
}

// Subscribe listens on the collection's change channel. The current contents
// are delivered before Subscribe returns.
func (s *RedisStore) Subscribe(
	ctx context.Context,
	collection string,
	onSnapshot SnapshotFunc,
	onError ErrorFunc,
) (Unsubscribe, error) {
	c, err := cleanCollection(collection)
	if err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	ps := s.rc.Subscribe(subCtx, s.channel(c))

	// Wait for the subscription to be confirmed so no change published after
	// the initial read is missed.
	if _, err := ps.Receive(subCtx); err != nil {
		cancel()
		_ = ps.Close()
		return nil, fmt.Errorf("subscribing to %s: %w", c, err)
	}

	snap, err := s.Get(subCtx, c)
	if err != nil {
		cancel()
		_ = ps.Close()
		return nil, err
	}
	onSnapshot(snap)

	var (
		closed atomic.Bool
		once   sync.Once
	)
	unsubscribe := func() {
		once.Do(func() {
			closed.Store(true)
			cancel()
			_ = ps.Close()
		})
	}

	go func() {
		ch := ps.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case _, ok := <-ch:
				if closed.Load() {
					return
				}
				if !ok {
					closed.Store(true)
					if onError != nil {
						onError(fmt.Errorf("%s: %w", c, ErrSubscriptionEnded))
					}
					return
				}
				snap, err := s.Get(subCtx, c)
				if err != nil {
					if closed.Swap(true) {
						return
					}
					callerDone := subCtx.Err() != nil
					cancel()
					_ = ps.Close()
					if !callerDone && onError != nil {
						onError(err)
					}
					return
				}
				if closed.Load() {
					return
				}
				onSnapshot(snap)
			}
		}
	}()

	return unsubscribe, nil
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rc.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.rc.Close()
}
