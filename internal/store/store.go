// Package store defines the document store abstraction used by bookwatch.
// Documents live in collections addressed by slash-separated paths such as
// "users/{uid}/followedBooks"; a document path is its collection path plus a
// key. All watch logic depends on the Store interface, never on a concrete
// backend.
package store

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"

	domain "github.com/donaldgifford/bookwatch/pkg/types"
)

// Sentinel errors returned by Store implementations.
var (
	ErrNotFound          = errors.New("document not found")
	ErrInvalidPath       = errors.New("invalid document path")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrSubscriptionEnded = errors.New("subscription ended unexpectedly")
	ErrClosed            = errors.New("store closed")
)

// Snapshot is a full point-in-time copy of one collection.
type Snapshot struct {
	Path    string
	Records map[string]domain.Record
}

// SnapshotFunc receives collection snapshots. Calls for one subscription are
// never concurrent.
type SnapshotFunc func(Snapshot)

// ErrorFunc receives the terminal error of a subscription. It is called at
// most once, after which no snapshots follow.
type ErrorFunc func(error)

// Unsubscribe detaches a listener. It is safe to call more than once.
type Unsubscribe func()

// Store is a document store with live collection subscriptions.
type Store interface {
	// Write replaces the document at path.
	Write(ctx context.Context, path string, value domain.Record) error
	// Update merges patch into the existing document at path.
	Update(ctx context.Context, path string, patch domain.Record) error
	// Remove deletes the document at path. Removing a missing document is not an error.
	Remove(ctx context.Context, path string) error
	// Push stores value under a newly generated key and returns the key.
	Push(ctx context.Context, collection string, value domain.Record) (string, error)
	// Get reads a collection once. A missing collection yields an empty snapshot.
	Get(ctx context.Context, collection string) (Snapshot, error)
	// Subscribe delivers the current contents of collection before returning
	// and again after every change, until unsubscribed or ctx is done.
	Subscribe(
		ctx context.Context,
		collection string,
		onSnapshot SnapshotFunc,
		onError ErrorFunc,
	) (Unsubscribe, error)

	Ping(ctx context.Context) error
	Close() error
}

// SplitPath splits a document path into its collection and key.
func SplitPath(path string) (collection, key string, err error) {
	path = strings.Trim(path, "/")
	i := strings.LastIndex(path, "/")
	if i <= 0 || i == len(path)-1 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return path[:i], path[i+1:], nil
}

// JoinPath builds a document path from a collection and key.
func JoinPath(collection, key string) string {
	return strings.Trim(collection, "/") + "/" + key
}

func cleanCollection(collection string) (string, error) {
	c := strings.Trim(collection, "/")
	if c == "" {
		return "", fmt.Errorf("%w: empty collection", ErrInvalidPath)
	}
	return c, nil
}

func emptySnapshot(collection string) Snapshot {
	return Snapshot{Path: collection, Records: map[string]domain.Record{}}
}

func cloneRecords(in map[string]domain.Record) map[string]domain.Record {
	out := make(map[string]domain.Record, len(in))
	for k, r := range in {
		out[k] = maps.Clone(r)
	}
	return out
}

func mergeRecord(dst, patch domain.Record) domain.Record {
	out := maps.Clone(dst)
	if out == nil {
		out = domain.Record{}
	}
	for k, v := range patch {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}
