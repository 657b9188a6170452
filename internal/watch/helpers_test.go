package watch_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/bookwatch/internal/notify"
	"github.com/donaldgifford/bookwatch/internal/store"
	domain "github.com/donaldgifford/bookwatch/pkg/types"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingService is a notification service that keeps what it was asked
// to schedule.
type recordingService struct {
	mu        sync.Mutex
	granted   bool
	asked     int
	scheduled []notify.Content
	triggers  []notify.Trigger
}

func (r *recordingService) RequestPermission(context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.asked++
	return r.granted, nil
}

func (r *recordingService) ScheduleNotification(c notify.Content, tr notify.Trigger) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scheduled = append(r.scheduled, c)
	r.triggers = append(r.triggers, tr)
	return nil
}

func (r *recordingService) contents() []notify.Content {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Content(nil), r.scheduled...)
}

func followed(id, title string, price any) domain.Record {
	return domain.Record{"bookId": id, "title": title, "price": price}
}

func writeFollowed(t *testing.T, s store.Store, uid, key string, r domain.Record) {
	t.Helper()
	path := store.JoinPath(domain.FollowedBooksPath(uid), key)
	require.NoError(t, s.Write(context.Background(), path, r))
}
