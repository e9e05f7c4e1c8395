// file: internal/server/handlers.go
// version: 1.0.0
// guid: 6a3d9f12-8e4b-4c07-b5a1-2d7e0c9f4b83

package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jdfalk/listings-engine/internal/models"
	"github.com/jdfalk/listings-engine/internal/search"
	"github.com/jdfalk/listings-engine/internal/server/middleware"
	"github.com/jdfalk/listings-engine/internal/trigram"
)

func (s *Server) healthCheck(c *gin.Context) {
	status := "ok"
	code := ""
	var stats any
	switch {
	case !s.repo.IsReady():
		status = "loading"
	case s.repo.Err() != nil:
		status = "degraded"
		code = "COLLECTION_UNAVAILABLE"
		stats = s.repo.Stats()
	default:
		stats = s.repo.Stats()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     status,
		"code":       code,
		"timestamp":  time.Now().Unix(),
		"version":    Version,
		"collection": stats,
	})
}

// search runs the merged listing search
func (s *Server) search(c *gin.Context) {
	island, ok := islandParam(c)
	if !ok {
		return
	}

	req := search.Request{
		ID:                middleware.GetRequestID(c),
		Search:            c.Query("q"),
		Island:            island,
		IncludeCategories: ParseQueryBool(c, "include_categories", false),
		Threshold:         ParseQueryInt(c, "threshold", 0),
		Categories:        listParam(c, "category"),
		Tiers:             listParam(c, "tier"),
		PromotedOnly:      ParseQueryBool(c, "promoted", false),
	}
	if req.Threshold < 0 {
		RespondWithValidationError(c, "threshold", "must not be negative")
		return
	}

	opLog := NewOperationLogger("search", c)
	opLog.AddDetail("q", req.Search)

	res := s.engine.Search(c.Request.Context(), req)
	if res.Err != nil {
		status := http.StatusBadGateway
		if errors.Is(res.Err, context.Canceled) || errors.Is(res.Err, context.DeadlineExceeded) {
			status = http.StatusServiceUnavailable
		}
		opLog.LogError(status, res.Err)
		c.JSON(status, res)
		return
	}

	opLog.LogSuccess(http.StatusOK)
	c.JSON(http.StatusOK, res)
}

// listCategories returns every category, optionally limited to an island
func (s *Server) listCategories(c *gin.Context) {
	island, ok := islandParam(c)
	if !ok || !s.waitForCollection(c) {
		return
	}

	categories := make([]models.Category, 0)
	for _, cat := range s.repo.Categories() {
		if cat.OnIsland(island) {
			categories = append(categories, cat)
		}
	}
	RespondWithList(c, categories, len(categories), len(categories), 0)
}

// searchCategories ranks category labels against q with match segments
func (s *Server) searchCategories(c *gin.Context) {
	island, ok := islandParam(c)
	if !ok || !s.waitForCollection(c) {
		return
	}

	results := s.repo.SearchCategories(c.Query("q"), island)
	if limit := ParseQueryInt(c, "limit", 0); limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	RespondWithList(c, results, len(results), len(results), 0)
}

// listListings returns listings filtered by island and category label
func (s *Server) listListings(c *gin.Context) {
	island, ok := islandParam(c)
	if !ok || !s.waitForCollection(c) {
		return
	}

	params := ParsePaginationParams(c)
	all := s.repo.FilterList(island, listParam(c, "category"))

	total := len(all)
	start := params.Offset
	if start > total {
		start = total
	}
	end := start + params.Limit
	if end > total {
		end = total
	}
	page := all[start:end]

	resp := NewListResponse(page, len(page), params.Limit, params.Offset)
	resp.Total = total
	c.JSON(http.StatusOK, resp)
}

// getListing returns a single listing by id
func (s *Server) getListing(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		RespondWithValidationError(c, "id", "must be an integer")
		return
	}
	if !s.waitForCollection(c) {
		return
	}

	listing, ok := s.repo.Listing(id)
	if !ok {
		RespondWithNotFound(c, "listing", idStr)
		return
	}
	RespondWithOK(c, listing)
}

// similarity scores two strings with the trigram scorer
func (s *Server) similarity(c *gin.Context) {
	a, b := c.Query("a"), c.Query("b")
	if a == "" && b == "" {
		RespondWithValidationError(c, "a, b", "at least one is required")
		return
	}
	RespondWithOK(c, SimilarityResponse{
		A:              a,
		B:              b,
		Similarity:     trigram.Similarity(a, b),
		WordSimilarity: trigram.WordSimilarity(a, b),
	})
}

// waitForCollection blocks until the collection finished loading. It writes
// an error response and returns false if the client goes away first.
func (s *Server) waitForCollection(c *gin.Context) bool {
	if err := s.repo.Wait(c.Request.Context()); err != nil && c.Request.Context().Err() != nil {
		RespondWithError(c, http.StatusServiceUnavailable, "collection not loaded", "COLLECTION_LOADING")
		return false
	}
	return true
}

// islandParam validates the optional island query parameter
func islandParam(c *gin.Context) (string, bool) {
	island := strings.ToLower(strings.TrimSpace(c.Query("island")))
	if island != "" && !models.IsIsland(island) {
		RespondWithValidationError(c, "island", "must be one of "+strings.Join(models.Islands, ", "))
		return "", false
	}
	return island, true
}

// listParam reads a repeated or comma separated query parameter
func listParam(c *gin.Context, key string) []string {
	var out []string
	for _, v := range c.QueryArray(key) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
