package client

import (
	"context"

	"github.com/donaldgifford/bookwatch/internal/notify"
	"github.com/donaldgifford/bookwatch/internal/watch"
)

// FeedEntry is a feed line as returned by the API.
type FeedEntry struct {
	notify.Entry
	Recent bool `json:"recent"`
}

// Feed returns the signed-in user's notification feed, newest first.
func (c *Client) Feed(ctx context.Context) ([]FeedEntry, error) {
	var resp struct {
		Entries []FeedEntry `json:"entries"`
	}
	if err := c.get(ctx, "/api/v1/feed", &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

// Session returns the state of the signed-in user's watch session.
func (c *Client) Session(ctx context.Context) (*watch.Status, error) {
	var st watch.Status
	if err := c.get(ctx, "/api/v1/session", &st); err != nil {
		return nil, err
	}
	return &st, nil
}
