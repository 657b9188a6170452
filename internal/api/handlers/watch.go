package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/bookwatch/internal/notify"
	"github.com/donaldgifford/bookwatch/internal/watch"
)

// Sessions looks up running watch sessions.
type Sessions interface {
	Session(uid string) (*watch.Session, bool)
}

// WatchHandler exposes the signed-in user's watch session and feed.
type WatchHandler struct {
	sessions Sessions
	auth     Authenticator
	window   time.Duration
	now      func() time.Time
}

// WatchOption configures a WatchHandler.
type WatchOption func(*WatchHandler)

// WithRecentWindow sets how long feed entries are flagged as recent.
func WithRecentWindow(d time.Duration) WatchOption {
	return func(h *WatchHandler) {
		h.window = d
	}
}

// WithNow overrides the clock used for the recent flag.
func WithNow(now func() time.Time) WatchOption {
	return func(h *WatchHandler) {
		h.now = now
	}
}

// NewWatchHandler creates a new WatchHandler.
func NewWatchHandler(s Sessions, a Authenticator, opts ...WatchOption) *WatchHandler {
	h := &WatchHandler{
		sessions: s,
		auth:     a,
		window:   notify.DefaultRecentWindow,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// --- Input/Output types ---

// WatchInput is the input for session and feed reads.
type WatchInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token returned by sign-in"`
}

// FeedEntry is a feed line as presented to clients.
type FeedEntry struct {
	notify.Entry
	Recent bool `json:"recent" doc:"Whether the entry is still highlighted as new"`
}

// FeedOutput is the response for reading the feed.
type FeedOutput struct {
	Body struct {
		Entries []FeedEntry `json:"entries"`
	}
}

// SessionStatusOutput is the response for reading the watch session.
type SessionStatusOutput struct {
	Body watch.Status
}

// --- Handlers ---

// Feed returns the caller's notification feed, newest first.
func (h *WatchHandler) Feed(
	ctx context.Context,
	input *WatchInput,
) (*FeedOutput, error) {
	user, err := authenticate(ctx, h.auth, input.Authorization)
	if err != nil {
		return nil, err
	}

	out := &FeedOutput{}
	out.Body.Entries = []FeedEntry{}

	s, ok := h.sessions.Session(user.UID)
	if !ok {
		return out, nil
	}

	now := h.now()
	entries := s.Feed().Entries()
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		out.Body.Entries = append(out.Body.Entries, FeedEntry{
			Entry:  e,
			Recent: notify.IsRecent(e, now, h.window),
		})
	}
	return out, nil
}

// Session returns the state of the caller's watch session.
func (h *WatchHandler) Session(
	ctx context.Context,
	input *WatchInput,
) (*SessionStatusOutput, error) {
	user, err := authenticate(ctx, h.auth, input.Authorization)
	if err != nil {
		return nil, err
	}

	s, ok := h.sessions.Session(user.UID)
	if !ok {
		return &SessionStatusOutput{Body: watch.Status{UID: user.UID}}, nil
	}
	return &SessionStatusOutput{Body: s.Status()}, nil
}

// RegisterWatchRoutes registers session and feed endpoints with the Huma API.
func RegisterWatchRoutes(api huma.API, h *WatchHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-feed",
		Method:      http.MethodGet,
		Path:        "/api/v1/feed",
		Summary:     "Get the notification feed",
		Description: "Returns the price changes observed during the current watch session, newest first.",
		Tags:        []string{"watch"},
		Errors:      []int{http.StatusUnauthorized},
	}, h.Feed)

	huma.Register(api, huma.Operation{
		OperationID: "get-session",
		Method:      http.MethodGet,
		Path:        "/api/v1/session",
		Summary:     "Get the watch session",
		Description: "Returns whether the caller's watch session is active along with its counters.",
		Tags:        []string{"watch"},
		Errors:      []int{http.StatusUnauthorized},
	}, h.Session)
}
