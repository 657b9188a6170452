package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/bookwatch/internal/api/handlers"
	"github.com/donaldgifford/bookwatch/internal/store"
	domain "github.com/donaldgifford/bookwatch/pkg/types"
)

func followBody(id, title string, price float64) map[string]any {
	return map[string]any{"book_id": id, "title": title, "author": "Karen Blixen", "price": price}
}

func listFollowed(t *testing.T, env *testEnv, token string) []domain.FollowedItem {
	t.Helper()

	resp := env.api.Get("/api/v1/followed", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var items []domain.FollowedItem
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &items))
	return items
}

func TestFollowed_RequiresToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	tests := []struct {
		name   string
		header []any
	}{
		{name: "no header"},
		{name: "wrong scheme", header: []any{"Authorization: Basic Zm9vOmJhcg=="}},
		{name: "unknown token", header: []any{bearer("not-a-jwt")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.api.Get("/api/v1/followed", tt.header...)
			assert.Equal(t, http.StatusUnauthorized, resp.Code)
		})
	}
}

func TestFollowed_ListEmpty(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	sess := env.signUp(t, "reader@example.com")

	resp := env.api.Get("/api/v1/followed", bearer(sess.Token))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `[]`, resp.Body.String())
}

func TestFollow(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	sess := env.signUp(t, "reader@example.com")

	resp := env.api.Post("/api/v1/followed", bearer(sess.Token), followBody("b1", "Den afrikanske farm", 120))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var item domain.FollowedItem
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &item))
	assert.Equal(t, "b1", item.ID)
	assert.NotEmpty(t, item.Key)

	snap, err := env.store.Get(context.Background(), domain.FollowedBooksPath(sess.User.UID))
	require.NoError(t, err)
	require.Contains(t, snap.Records, item.Key)
	assert.Equal(t, "b1", snap.Records[item.Key]["bookId"])

	items := listFollowed(t, env, sess.Token)
	require.Len(t, items, 1)
	assert.Equal(t, "Den afrikanske farm", items[0].Title)
	assert.InDelta(t, 120.0, items[0].Price, 0.001)
}

func TestFollow_Duplicate(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	sess := env.signUp(t, "reader@example.com")

	resp := env.api.Post("/api/v1/followed", bearer(sess.Token), followBody("b1", "A", 10))
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = env.api.Post("/api/v1/followed", bearer(sess.Token), followBody("b1", "A", 12))
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Len(t, listFollowed(t, env, sess.Token), 1)
}

func TestFollowed_IsolatedPerUser(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	alice := env.signUp(t, "alice@example.com")
	bob := env.signUp(t, "bob@example.com")

	resp := env.api.Post("/api/v1/followed", bearer(alice.Token), followBody("b1", "A", 10))
	require.Equal(t, http.StatusCreated, resp.Code)

	assert.Len(t, listFollowed(t, env, alice.Token), 1)
	assert.Empty(t, listFollowed(t, env, bob.Token))
}

func TestFollowed_SkipsMalformedRecords(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	sess := env.signUp(t, "reader@example.com")

	collection := domain.FollowedBooksPath(sess.User.UID)
	ctx := context.Background()
	require.NoError(t, env.store.Write(ctx, store.JoinPath(collection, "a"), domain.Record{"bookId": "b1", "title": "A", "price": "99.5"}))
	require.NoError(t, env.store.Write(ctx, store.JoinPath(collection, "b"), domain.Record{"title": "no id", "price": 1.0}))
	require.NoError(t, env.store.Write(ctx, store.JoinPath(collection, "c"), domain.Record{"bookId": "b3", "price": "gratis"}))

	items := listFollowed(t, env, sess.Token)
	require.Len(t, items, 1)
	assert.Equal(t, "b1", items[0].ID)
	assert.InDelta(t, 99.5, items[0].Price, 0.001)
}

func TestUnfollow(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	sess := env.signUp(t, "reader@example.com")

	resp := env.api.Post("/api/v1/followed", bearer(sess.Token), followBody("b1", "A", 10))
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = env.api.Delete("/api/v1/followed/b1", bearer(sess.Token))
	require.Equal(t, http.StatusNoContent, resp.Code, resp.Body.String())
	assert.Empty(t, listFollowed(t, env, sess.Token))

	resp = env.api.Delete("/api/v1/followed/b1", bearer(sess.Token))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestSetPrice(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	sess := env.signUp(t, "reader@example.com")

	resp := env.api.Post("/api/v1/followed", bearer(sess.Token), followBody("b1", "A", 10))
	require.Equal(t, http.StatusCreated, resp.Code)

	tests := []struct {
		name       string
		bookID     string
		wantStatus int
	}{
		{name: "followed book", bookID: "b1", wantStatus: http.StatusOK},
		{name: "unknown book", bookID: "nope", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.api.Put("/api/v1/followed/"+tt.bookID+"/price", bearer(sess.Token), map[string]any{"price": 8.5})
			assert.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())
		})
	}

	items := listFollowed(t, env, sess.Token)
	require.Len(t, items, 1)
	assert.InDelta(t, 8.5, items[0].Price, 0.001)
	assert.Equal(t, "A", items[0].Title)
}

func TestFollow_ConcurrentRequestsStoreOneRecord(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	sess := env.signUp(t, "reader@example.com")
	h := handlers.NewFollowedHandler(env.store, env.provider)

	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			input := &handlers.FollowInput{Authorization: "Bearer " + sess.Token}
			input.Body = handlers.FollowRequest{BookID: "b1", Title: "A", Price: 10}
			if _, err := h.Follow(context.Background(), input); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	snap, err := env.store.Get(context.Background(), domain.FollowedBooksPath(sess.User.UID))
	require.NoError(t, err)
	assert.Len(t, snap.Records, 1)
}

func TestFollowed_DuplicateRecords(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	sess := env.signUp(t, "reader@example.com")
	collection := domain.FollowedBooksPath(sess.User.UID)
	ctx := context.Background()
	require.NoError(t, env.store.Write(ctx, store.JoinPath(collection, "k1"), domain.Record{"bookId": "b1", "title": "A", "price": 10.0}))
	require.NoError(t, env.store.Write(ctx, store.JoinPath(collection, "k2"), domain.Record{"bookId": "b1", "title": "A", "price": 12.0}))

	items := listFollowed(t, env, sess.Token)
	require.Len(t, items, 1)
	assert.Equal(t, "k1", items[0].Key)

	resp := env.api.Put("/api/v1/followed/b1/price", bearer(sess.Token), map[string]any{"price": 8.0})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	snap, err := env.store.Get(ctx, collection)
	require.NoError(t, err)
	assert.InDelta(t, 8.0, snap.Records["k1"]["price"], 0)
	assert.InDelta(t, 12.0, snap.Records["k2"]["price"], 0)

	resp = env.api.Delete("/api/v1/followed/b1", bearer(sess.Token))
	require.Equal(t, http.StatusNoContent, resp.Code)
	assert.Empty(t, listFollowed(t, env, sess.Token))
}

func TestFollowed_PermissionDenied(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	sess := env.signUp(t, "reader@example.com")
	env.store.Deny(domain.FollowedBooksPath(sess.User.UID), store.ErrPermissionDenied)

	resp := env.api.Get("/api/v1/followed", bearer(sess.Token))
	assert.Equal(t, http.StatusForbidden, resp.Code)
}
