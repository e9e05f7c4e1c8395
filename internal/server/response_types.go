// file: internal/server/response_types.go
// version: 2.0.0
// guid: 7f8a9b0c-1d2e-3f4a-5b6c-7d8e9f0a1b2c

package server

// ListResponse provides a consistent format for list responses
type ListResponse struct {
	Items  any `json:"items"`
	Count  int `json:"count"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"`
}

// SimilarityResponse reports trigram scores for a pair of strings
type SimilarityResponse struct {
	A              string  `json:"a"`
	B              string  `json:"b"`
	Similarity     float64 `json:"similarity"`
	WordSimilarity float64 `json:"word_similarity"`
}

// PaginationParams holds common pagination parameters
type PaginationParams struct {
	Limit  int
	Offset int
}

// NewListResponse creates a new ListResponse with pagination info
func NewListResponse(items any, count int, limit int, offset int) *ListResponse {
	if items == nil {
		items = []any{}
	}
	return &ListResponse{
		Items:  items,
		Count:  count,
		Limit:  limit,
		Offset: offset,
	}
}
