// file: internal/server/handlers_test.go
// version: 1.0.0
// guid: 0b7e4c2a-91d3-4f6e-8a25-c3d1f7e96b40

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jdfalk/listings-engine/internal/backend"
	"github.com/jdfalk/listings-engine/internal/collection"
	"github.com/jdfalk/listings-engine/internal/models"
	"github.com/jdfalk/listings-engine/internal/realtime"
	"github.com/jdfalk/listings-engine/internal/search"
	"github.com/jdfalk/listings-engine/internal/server/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testSnapshot() *collection.Snapshot {
	return &collection.Snapshot{
		Listings: []models.Listing{
			{ID: 1, BusinessName: "Surf Shack", Island: models.IslandOahu, Tier: models.TierPremium},
			{ID: 2, BusinessName: "Sunset Grill", Island: models.IslandMaui, Tier: models.TierBasic},
			{ID: 3, BusinessName: "Kona Coffee", Island: models.IslandHawaii, Tier: models.TierStandard},
		},
		Categories: []models.Category{
			{
				ID:                  10,
				Label:               "Surfing",
				ListingCategoryTags: []models.ListingCategoryTag{{ID: 1, ListingID: 1}},
				Island:              map[string]bool{models.IslandOahu: true},
			},
			{
				ID:                  11,
				Label:               "Dining",
				ListingCategoryTags: []models.ListingCategoryTag{{ID: 2, ListingID: 2}, {ID: 3, ListingID: 3}},
				Island:              map[string]bool{models.IslandMaui: true, models.IslandHawaii: true},
			},
		},
	}
}

func loadedRepo(t *testing.T) *collection.Repository {
	t.Helper()
	snap := testSnapshot()
	repo := collection.New(collection.ProviderFunc(func(ctx context.Context) (*collection.Snapshot, error) {
		return snap, nil
	}))
	require.NoError(t, repo.Load(context.Background()))
	return repo
}

func setupTestServer(t *testing.T) *Server {
	t.Helper()
	repo := loadedRepo(t)
	engine := search.NewEngine(backend.NewLocal(repo, 0, 0), repo, search.DefaultOptions())
	return NewServer(engine, repo, ServerConfig{RateLimitPerMinute: 6000, RateLimitBurst: 100})
}

func doGet(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

type failingBackend struct{ err error }

func (f failingBackend) SearchListings(ctx context.Context, q search.Query) ([]int, error) {
	return nil, f.err
}

func (f failingBackend) FuzzySearchListings(ctx context.Context, q search.Query) ([]int, error) {
	return nil, f.err
}

func (f failingBackend) FuzzySearchCategories(ctx context.Context, q search.Query) ([]search.CategoryTag, error) {
	return nil, f.err
}

func TestHealthCheck(t *testing.T) {
	s := setupTestServer(t)

	for _, path := range []string{"/api/health", "/api/v1/health"} {
		w := doGet(t, s, path)
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Status     string           `json:"status"`
			Version    string           `json:"version"`
			Collection collection.Stats `json:"collection"`
		}
		decode(t, w, &body)
		assert.Equal(t, "ok", body.Status)
		assert.Equal(t, Version, body.Version)
		assert.Equal(t, 3, body.Collection.Listings)
		assert.Equal(t, 2, body.Collection.Categories)
		assert.Equal(t, 3, body.Collection.Tags)
	}
}

func TestHealthCheck_Loading(t *testing.T) {
	repo := collection.New(collection.ProviderFunc(func(ctx context.Context) (*collection.Snapshot, error) {
		return testSnapshot(), nil
	}))
	engine := search.NewEngine(backend.NewLocal(repo, 0, 0), repo, search.DefaultOptions())
	s := NewServer(engine, repo, ServerConfig{})

	w := doGet(t, s, "/api/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"loading"`)
}

func TestHealthCheck_Degraded(t *testing.T) {
	repo := collection.New(collection.ProviderFunc(func(ctx context.Context) (*collection.Snapshot, error) {
		return nil, errors.New("disk on fire")
	}))
	require.Error(t, repo.Load(context.Background()))
	engine := search.NewEngine(backend.NewLocal(repo, 0, 0), repo, search.DefaultOptions())
	s := NewServer(engine, repo, ServerConfig{})

	w := doGet(t, s, "/api/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)
	assert.Contains(t, w.Body.String(), "COLLECTION_UNAVAILABLE")
}

func TestSearchHandler(t *testing.T) {
	s := setupTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=surf&include_categories=true", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	s.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-42", w.Header().Get(middleware.RequestIDHeader))

	var res search.Result
	decode(t, w, &res)
	assert.Equal(t, "req-42", res.RequestID)
	require.NotEmpty(t, res.Matches)
	assert.Equal(t, "Surf Shack", res.Matches[0].BusinessName)
	assert.False(t, res.EmptySearch)
	require.NotEmpty(t, res.CategoryTags)
	assert.Equal(t, "Surfing", res.CategoryTags[0].Label)
}

func TestSearchHandler_EmptyQuery(t *testing.T) {
	s := setupTestServer(t)

	w := doGet(t, s, "/api/v1/search")
	require.Equal(t, http.StatusOK, w.Code)

	var res search.Result
	decode(t, w, &res)
	assert.True(t, res.EmptySearch)
	assert.True(t, res.NotEnough)
	assert.Empty(t, res.Matches)
}

func TestSearchHandler_IslandFilter(t *testing.T) {
	s := setupTestServer(t)

	w := doGet(t, s, "/api/v1/search?q=surf&island=maui")
	require.Equal(t, http.StatusOK, w.Code)

	var res search.Result
	decode(t, w, &res)
	for _, l := range append(res.Matches, res.Suggestions...) {
		assert.Equal(t, models.IslandMaui, l.Island)
	}
}

func TestSearchHandler_Validation(t *testing.T) {
	s := setupTestServer(t)

	tests := []struct {
		name   string
		target string
		field  string
	}{
		{"unknown island", "/api/v1/search?q=surf&island=lanai", "island"},
		{"negative threshold", "/api/v1/search?q=surf&threshold=-1", "threshold"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doGet(t, s, tt.target)
			require.Equal(t, http.StatusBadRequest, w.Code)

			var body ErrorResponse
			decode(t, w, &body)
			assert.Equal(t, "VALIDATION_ERROR", body.Code)
			assert.Contains(t, body.Error, tt.field)
			assert.NotEmpty(t, body.RequestID)
		})
	}
}

func TestSearchHandler_BackendFailure(t *testing.T) {
	repo := loadedRepo(t)
	engine := search.NewEngine(failingBackend{err: errors.New("connection refused")}, repo, search.DefaultOptions())
	s := NewServer(engine, repo, ServerConfig{})

	w := doGet(t, s, "/api/v1/search?q=surf")
	require.Equal(t, http.StatusBadGateway, w.Code)

	var res search.Result
	decode(t, w, &res)
	assert.Equal(t, "connection refused", res.Error)
	assert.Empty(t, res.Matches)
}

func TestListCategories(t *testing.T) {
	s := setupTestServer(t)

	w := doGet(t, s, "/api/v1/categories")
	require.Equal(t, http.StatusOK, w.Code)
	var all struct {
		Items []models.Category `json:"items"`
		Count int               `json:"count"`
	}
	decode(t, w, &all)
	assert.Equal(t, 2, all.Count)

	w = doGet(t, s, "/api/v1/categories?island=maui")
	require.Equal(t, http.StatusOK, w.Code)
	var maui struct {
		Items []models.Category `json:"items"`
	}
	decode(t, w, &maui)
	require.Len(t, maui.Items, 1)
	assert.Equal(t, "Dining", maui.Items[0].Label)
}

func TestSearchCategoriesHandler(t *testing.T) {
	s := setupTestServer(t)

	w := doGet(t, s, "/api/v1/categories/search?q=din")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Items []struct {
			Value models.Category `json:"value"`
		} `json:"items"`
	}
	decode(t, w, &body)
	require.NotEmpty(t, body.Items)
	assert.Equal(t, "Dining", body.Items[0].Value.Label)
}

func TestListListings_Pagination(t *testing.T) {
	s := setupTestServer(t)

	w := doGet(t, s, "/api/v1/listings?limit=2")
	require.Equal(t, http.StatusOK, w.Code)

	var page ListResponse
	decode(t, w, &page)
	assert.Equal(t, 2, page.Count)
	assert.Equal(t, 2, page.Limit)
	assert.Equal(t, 3, page.Total)

	w = doGet(t, s, "/api/v1/listings?limit=2&offset=2")
	decode(t, w, &page)
	assert.Equal(t, 1, page.Count)

	w = doGet(t, s, "/api/v1/listings?offset=10")
	decode(t, w, &page)
	assert.Equal(t, 0, page.Count)
	assert.Equal(t, 3, page.Total)
}

func TestListListings_Filters(t *testing.T) {
	s := setupTestServer(t)

	w := doGet(t, s, "/api/v1/listings?category=Dining&island=hawaii")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Items []models.Listing `json:"items"`
		Total int              `json:"total"`
	}
	decode(t, w, &body)
	require.Len(t, body.Items, 1)
	assert.Equal(t, "Kona Coffee", body.Items[0].BusinessName)
	assert.Equal(t, 1, body.Total)
}

func TestGetListing(t *testing.T) {
	s := setupTestServer(t)

	w := doGet(t, s, "/api/v1/listings/1")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data models.Listing `json:"data"`
	}
	decode(t, w, &body)
	assert.Equal(t, "Surf Shack", body.Data.BusinessName)
	require.Len(t, body.Data.Categories, 1)
	assert.Equal(t, "Surfing", body.Data.Categories[0].Label)

	w = doGet(t, s, "/api/v1/listings/99")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_FOUND")

	w = doGet(t, s, "/api/v1/listings/abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSimilarityHandler(t *testing.T) {
	s := setupTestServer(t)

	w := doGet(t, s, "/api/v1/similarity?a=word&b=word")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data SimilarityResponse `json:"data"`
	}
	decode(t, w, &body)
	assert.Equal(t, 1.0, body.Data.Similarity)
	assert.Equal(t, 1.0, body.Data.WordSimilarity)

	w = doGet(t, s, "/api/v1/similarity")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateLimitedAPI(t *testing.T) {
	repo := loadedRepo(t)
	engine := search.NewEngine(backend.NewLocal(repo, 0, 0), repo, search.DefaultOptions())
	s := NewServer(engine, repo, ServerConfig{RateLimitPerMinute: 1, RateLimitBurst: 1})

	assert.Equal(t, http.StatusOK, doGet(t, s, "/api/v1/similarity?a=x").Code)
	w := doGet(t, s, "/api/v1/similarity?a=x")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// health is outside the limited group
	assert.Equal(t, http.StatusOK, doGet(t, s, "/api/health").Code)
}

func TestCORSPreflight(t *testing.T) {
	s := setupTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/search", nil)
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupTestServer(t)
	doGet(t, s, "/api/v1/search?q=surf")

	w := doGet(t, s, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "listings_engine_searches_total")
}

func TestEventsWithoutHub(t *testing.T) {
	prev := realtime.GlobalHub
	realtime.GlobalHub = nil
	t.Cleanup(func() { realtime.GlobalHub = prev })

	s := setupTestServer(t)
	w := doGet(t, s, "/api/events")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
