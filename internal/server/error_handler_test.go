// file: internal/server/error_handler_test.go
// version: 2.0.0
// guid: 6e7f8a9b-0c1d-2e3f-4a5b-6c7d8e9f0a1b

package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jdfalk/listings-engine/internal/server/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

func TestRespondWithBadRequest(t *testing.T) {
	c, w := testContext("/")
	c.Set(middleware.RequestIDKey, "req-1")

	RespondWithBadRequest(c, "test error")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, c.IsAborted())

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "test error", body.Error)
	assert.Equal(t, "BAD_REQUEST", body.Code)
	assert.Equal(t, http.StatusBadRequest, body.Status)
	assert.Equal(t, "req-1", body.RequestID)
}

func TestRespondWithValidationError(t *testing.T) {
	c, w := testContext("/")

	RespondWithValidationError(c, "island", "unknown")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation error: island (unknown)")
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}

func TestRespondWithNotFound(t *testing.T) {
	c, w := testContext("/")

	RespondWithNotFound(c, "listing", "123")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "listing not found: 123")
}

func TestRespondWithOK(t *testing.T) {
	c, w := testContext("/")

	RespondWithOK(c, map[string]string{"id": "123"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"id":"123"}}`, w.Body.String())
}

func TestRespondWithList(t *testing.T) {
	c, w := testContext("/")

	RespondWithList(c, nil, 0, 50, 0)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":[],"count":0,"limit":50,"offset":0}`, w.Body.String())
}

func TestParseQueryInt(t *testing.T) {
	tests := []struct {
		target string
		want   int
	}{
		{"/?limit=25", 25},
		{"/", 10},
		{"/?limit=abc", 10},
		{"/?limit=-3", -3},
	}
	for _, tt := range tests {
		c, _ := testContext(tt.target)
		assert.Equal(t, tt.want, ParseQueryInt(c, "limit", 10), tt.target)
	}
}

func TestParseQueryBool(t *testing.T) {
	tests := []struct {
		target string
		def    bool
		want   bool
	}{
		{"/?flag=true", false, true},
		{"/?flag=TRUE", false, true},
		{"/?flag=1", false, true},
		{"/?flag=no", true, false},
		{"/", true, true},
	}
	for _, tt := range tests {
		c, _ := testContext(tt.target)
		assert.Equal(t, tt.want, ParseQueryBool(c, "flag", tt.def), tt.target)
	}
}

func TestParsePaginationParams(t *testing.T) {
	tests := []struct {
		target     string
		wantLimit  int
		wantOffset int
	}{
		{"/", 50, 0},
		{"/?limit=20&offset=40", 20, 40},
		{"/?limit=0", 50, 0},
		{"/?limit=5000", 1000, 0},
		{"/?offset=-10", 50, 0},
	}
	for _, tt := range tests {
		c, _ := testContext(tt.target)
		p := ParsePaginationParams(c)
		assert.Equal(t, tt.wantLimit, p.Limit, tt.target)
		assert.Equal(t, tt.wantOffset, p.Offset, tt.target)
	}
}
