package client

import (
	"context"
	"net/url"

	domain "github.com/donaldgifford/bookwatch/pkg/types"
)

type followRequest struct {
	BookID string  `json:"book_id"`
	Title  string  `json:"title"`
	Author string  `json:"author,omitempty"`
	Price  float64 `json:"price"`
}

// ListFollowed returns the signed-in user's followed books.
func (c *Client) ListFollowed(ctx context.Context) ([]domain.FollowedItem, error) {
	var items []domain.FollowedItem
	if err := c.get(ctx, "/api/v1/followed", &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Follow adds a book to the signed-in user's followed collection.
func (c *Client) Follow(ctx context.Context, item domain.FollowedItem) (*domain.FollowedItem, error) {
	var created domain.FollowedItem
	req := followRequest{
		BookID: item.ID,
		Title:  item.Title,
		Author: item.Author,
		Price:  item.Price,
	}
	if err := c.post(ctx, "/api/v1/followed", req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Unfollow removes a book from the signed-in user's followed collection.
func (c *Client) Unfollow(ctx context.Context, bookID string) error {
	return c.del(ctx, "/api/v1/followed/"+url.PathEscape(bookID), nil)
}

// SetPrice edits the stored price of a followed book.
func (c *Client) SetPrice(ctx context.Context, bookID string, price float64) (*domain.FollowedItem, error) {
	var updated domain.FollowedItem
	body := map[string]float64{"price": price}
	if err := c.put(ctx, "/api/v1/followed/"+url.PathEscape(bookID)+"/price", body, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}
