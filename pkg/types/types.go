// Package domain defines the core types for the followed-book price watcher.
package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FollowedBooksPath returns the store collection holding a user's followed books.
func FollowedBooksPath(uid string) string {
	return "users/" + uid + "/followedBooks"
}

// Record is a loosely typed document as stored in the document store.
type Record map[string]any

// FollowedItem is a validated followed-book record.
type FollowedItem struct {
	// ID identifies the underlying book listing.
	ID string `json:"book_id"`
	// Key is the push-id of the followed record inside the collection.
	Key    string  `json:"key"`
	Title  string  `json:"title"`
	Author string  `json:"author,omitempty"`
	Price  float64 `json:"price"`
}

// ChangeEvent records one observed price transition. It is never mutated
// after creation.
type ChangeEvent struct {
	ID         string    `json:"id"`
	ItemID     string    `json:"item_id"`
	Title      string    `json:"title"`
	OldPrice   float64   `json:"old_price"`
	NewPrice   float64   `json:"new_price"`
	ObservedAt time.Time `json:"observed_at"`
}

// Validation errors returned by ParseFollowedItem.
var (
	ErrMissingID    = errors.New("record has no book id")
	ErrMissingPrice = errors.New("record has no price")
	ErrInvalidPrice = errors.New("record price is not a finite number")
)

// ParseFollowedItem validates a raw record stored under key. The book id is
// read from "bookId", falling back to "id". Prices may be JSON numbers or
// numeric strings. NaN and infinite prices are rejected since they never
// compare equal to a previous observation.
func ParseFollowedItem(key string, r Record) (FollowedItem, error) {
	item := FollowedItem{Key: key}

	item.ID = stringField(r, "bookId")
	if item.ID == "" {
		item.ID = stringField(r, "id")
	}
	if item.ID == "" {
		return FollowedItem{}, ErrMissingID
	}

	raw, ok := r["price"]
	if !ok || raw == nil {
		return FollowedItem{}, ErrMissingPrice
	}
	price, err := toFloat(raw)
	if err != nil {
		return FollowedItem{}, err
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return FollowedItem{}, fmt.Errorf("%w: %v", ErrInvalidPrice, raw)
	}
	item.Price = price

	item.Title = stringField(r, "title")
	item.Author = stringField(r, "author")

	return item, nil
}

// DistinctByID keeps the first item for each book id, preserving order, and
// returns how many later duplicates were dropped.
func DistinctByID(items []FollowedItem) ([]FollowedItem, int) {
	seen := make(map[string]bool, len(items))
	out := make([]FollowedItem, 0, len(items))
	for _, it := range items {
		if seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		out = append(out, it)
	}
	return out, len(items) - len(out)
}

// ToRecord converts an item back to its stored representation.
func (f FollowedItem) ToRecord() Record {
	r := Record{
		"bookId": f.ID,
		"title":  f.Title,
		"price":  f.Price,
	}
	if f.Author != "" {
		r["author"] = f.Author
	}
	return r
}

func stringField(r Record, name string) string {
	switch v := r[name].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

func toFloat(v any) (float64, error) {
	switch p := v.(type) {
	case float64:
		return p, nil
	case float32:
		return float64(p), nil
	case int:
		return float64(p), nil
	case int64:
		return float64(p), nil
	case json.Number:
		f, err := p.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, p.String())
		}
		return f, nil
	case string:
		s := strings.TrimSpace(p)
		if s == "" {
			return 0, ErrMissingPrice
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, p)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrInvalidPrice, v)
	}
}
