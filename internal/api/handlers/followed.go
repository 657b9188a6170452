package handlers

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"sync"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/bookwatch/internal/store"
	domain "github.com/donaldgifford/bookwatch/pkg/types"
)

// FollowedHandler manages the signed-in user's followed books.
type FollowedHandler struct {
	store store.Store
	auth  Authenticator

	// followMu serializes the duplicate check and push in Follow.
	followMu sync.Mutex
}

// NewFollowedHandler creates a new FollowedHandler.
func NewFollowedHandler(s store.Store, a Authenticator) *FollowedHandler {
	return &FollowedHandler{store: s, auth: a}
}

// --- Input/Output types ---

// ListFollowedInput is the input for listing followed books.
type ListFollowedInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token returned by sign-in"`
}

// ListFollowedOutput is the response for listing followed books.
type ListFollowedOutput struct {
	Body []domain.FollowedItem
}

// FollowRequest describes a book to follow.
type FollowRequest struct {
	BookID string  `json:"book_id" doc:"Book listing id" minLength:"1"`
	Title  string  `json:"title" doc:"Book title"`
	Author string  `json:"author,omitempty" doc:"Book author"`
	Price  float64 `json:"price" doc:"Current listing price in DKK" minimum:"0"`
}

// FollowInput is the input for following a book.
type FollowInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token returned by sign-in"`
	Body          FollowRequest
}

// FollowedItemOutput is the response carrying one followed book.
type FollowedItemOutput struct {
	Body domain.FollowedItem
}

// UnfollowInput is the input for unfollowing a book.
type UnfollowInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token returned by sign-in"`
	BookID        string `path:"book_id" doc:"Book listing id"`
}

// SetPriceInput is the input for editing a followed book's price.
type SetPriceInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token returned by sign-in"`
	BookID        string `path:"book_id" doc:"Book listing id"`
	Body          struct {
		Price float64 `json:"price" doc:"New price in DKK" minimum:"0"`
	}
}

// --- Handlers ---

// ListFollowed returns the caller's followed books ordered by record key.
// Records that fail validation are left out, and a book followed more than
// once is listed by its lowest-keyed record, the one the watch session tracks.
func (h *FollowedHandler) ListFollowed(
	ctx context.Context,
	input *ListFollowedInput,
) (*ListFollowedOutput, error) {
	user, err := authenticate(ctx, h.auth, input.Authorization)
	if err != nil {
		return nil, err
	}

	items, err := h.followed(ctx, user.UID)
	if err != nil {
		return nil, err
	}
	items, _ = domain.DistinctByID(items)
	return &ListFollowedOutput{Body: items}, nil
}

// Follow adds a book to the caller's followed collection.
func (h *FollowedHandler) Follow(
	ctx context.Context,
	input *FollowInput,
) (*FollowedItemOutput, error) {
	user, err := authenticate(ctx, h.auth, input.Authorization)
	if err != nil {
		return nil, err
	}

	h.followMu.Lock()
	defer h.followMu.Unlock()

	items, err := h.followed(ctx, user.UID)
	if err != nil {
		return nil, err
	}
	if slices.ContainsFunc(items, func(it domain.FollowedItem) bool { return it.ID == input.Body.BookID }) {
		return nil, huma.Error409Conflict("book already followed")
	}

	item := domain.FollowedItem{
		ID:     input.Body.BookID,
		Title:  input.Body.Title,
		Author: input.Body.Author,
		Price:  input.Body.Price,
	}
	key, err := h.store.Push(ctx, domain.FollowedBooksPath(user.UID), item.ToRecord())
	if err != nil {
		return nil, storeError("failed to follow book", err)
	}
	item.Key = key

	return &FollowedItemOutput{Body: item}, nil
}

// Unfollow removes every record for a book from the caller's collection.
func (h *FollowedHandler) Unfollow(
	ctx context.Context,
	input *UnfollowInput,
) (*struct{}, error) {
	user, err := authenticate(ctx, h.auth, input.Authorization)
	if err != nil {
		return nil, err
	}

	matches, err := h.matching(ctx, user.UID, input.BookID)
	if err != nil {
		return nil, err
	}

	collection := domain.FollowedBooksPath(user.UID)
	for _, it := range matches {
		if err := h.store.Remove(ctx, store.JoinPath(collection, it.Key)); err != nil {
			return nil, storeError("failed to unfollow book", err)
		}
	}
	return nil, nil
}

// SetPrice edits the price of a followed book. Only the lowest-keyed record
// is written, so the edit is a single store update and the watch session
// observes exactly one price change.
func (h *FollowedHandler) SetPrice(
	ctx context.Context,
	input *SetPriceInput,
) (*FollowedItemOutput, error) {
	user, err := authenticate(ctx, h.auth, input.Authorization)
	if err != nil {
		return nil, err
	}

	matches, err := h.matching(ctx, user.UID, input.BookID)
	if err != nil {
		return nil, err
	}

	item := matches[0]
	path := store.JoinPath(domain.FollowedBooksPath(user.UID), item.Key)
	if err := h.store.Update(ctx, path, domain.Record{"price": input.Body.Price}); err != nil {
		return nil, storeError("failed to update price", err)
	}
	item.Price = input.Body.Price
	return &FollowedItemOutput{Body: item}, nil
}

func (h *FollowedHandler) followed(ctx context.Context, uid string) ([]domain.FollowedItem, error) {
	snap, err := h.store.Get(ctx, domain.FollowedBooksPath(uid))
	if err != nil {
		return nil, storeError("failed to list followed books", err)
	}

	keys := make([]string, 0, len(snap.Records))
	for k := range snap.Records {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	items := make([]domain.FollowedItem, 0, len(keys))
	for _, k := range keys {
		it, err := domain.ParseFollowedItem(k, snap.Records[k])
		if err != nil {
			continue
		}
		items = append(items, it)
	}
	return items, nil
}

func (h *FollowedHandler) matching(ctx context.Context, uid, bookID string) ([]domain.FollowedItem, error) {
	items, err := h.followed(ctx, uid)
	if err != nil {
		return nil, err
	}
	items = slices.DeleteFunc(items, func(it domain.FollowedItem) bool { return it.ID != bookID })
	if len(items) == 0 {
		return nil, huma.Error404NotFound("book not followed")
	}
	return items, nil
}

func storeError(msg string, err error) error {
	if errors.Is(err, store.ErrPermissionDenied) {
		return huma.Error403Forbidden(msg + ": " + err.Error())
	}
	return huma.Error500InternalServerError(msg + ": " + err.Error())
}

// RegisterFollowedRoutes registers followed-book endpoints with the Huma API.
func RegisterFollowedRoutes(api huma.API, h *FollowedHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-followed",
		Method:      http.MethodGet,
		Path:        "/api/v1/followed",
		Summary:     "List followed books",
		Description: "Returns the signed-in user's followed books.",
		Tags:        []string{"followed"},
		Errors:      []int{http.StatusUnauthorized},
	}, h.ListFollowed)

	huma.Register(api, huma.Operation{
		OperationID:   "follow-book",
		Method:        http.MethodPost,
		Path:          "/api/v1/followed",
		Summary:       "Follow a book",
		Description:   "Adds a book to the signed-in user's followed collection.",
		Tags:          []string{"followed"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusUnauthorized, http.StatusConflict},
	}, h.Follow)

	huma.Register(api, huma.Operation{
		OperationID:   "unfollow-book",
		Method:        http.MethodDelete,
		Path:          "/api/v1/followed/{book_id}",
		Summary:       "Unfollow a book",
		Description:   "Removes a book from the signed-in user's followed collection.",
		Tags:          []string{"followed"},
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusUnauthorized, http.StatusNotFound},
	}, h.Unfollow)

	huma.Register(api, huma.Operation{
		OperationID: "set-followed-price",
		Method:      http.MethodPut,
		Path:        "/api/v1/followed/{book_id}/price",
		Summary:     "Edit a followed book's price",
		Description: "Updates the stored price of a followed book.",
		Tags:        []string{"followed"},
		Errors:      []int{http.StatusUnauthorized, http.StatusNotFound},
	}, h.SetPrice)
}
