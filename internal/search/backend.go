// file: internal/search/backend.go
// version: 1.0.0
// guid: 3e6b8d14-0a5c-4f92-b7e1-9c2d4a6f8e03

package search

import (
	"context"
	"errors"
)

// ErrMalformedResponse is returned by a Backend whose response did not
// carry the expected result list.
var ErrMalformedResponse = errors.New("unable to search for matches")

// Query is a single backend request. Limit is ignored by calls that do not
// take one; zero means the backend default.
type Query struct {
	Search string
	Island string
	Limit  int
}

// CategoryTag is a category suggestion as reported by a search backend.
type CategoryTag struct {
	ID            int    `json:"id"`
	Label         string `json:"label"`
	ListingsCount int    `json:"listings_count"`
}

// Backend runs listing and category searches against a remote index.
// Listing searches return ids in relevance order.
type Backend interface {
	SearchListings(ctx context.Context, q Query) ([]int, error)
	FuzzySearchListings(ctx context.Context, q Query) ([]int, error)
	FuzzySearchCategories(ctx context.Context, q Query) ([]CategoryTag, error)
}
