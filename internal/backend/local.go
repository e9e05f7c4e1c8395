// file: internal/backend/local.go
// version: 1.1.0
// guid: 92f0d7b4-6e3a-4c15-a8d2-5b1e9f7c0a36

// Package backend implements the listing search backend in process, over a
// loaded collection, for deployments without a remote search service.
package backend

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jdfalk/listings-engine/internal/cache"
	"github.com/jdfalk/listings-engine/internal/metrics"
	"github.com/jdfalk/listings-engine/internal/models"
	"github.com/jdfalk/listings-engine/internal/search"
	"github.com/jdfalk/listings-engine/internal/trigram"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// DefaultSimilarityThreshold matches pg_trgm's default similarity limit.
const DefaultSimilarityThreshold = 0.3

// Source supplies the collections searched by Local.
type Source interface {
	Listings() []models.Listing
	Categories() []models.Category
}

type cacheKey struct {
	method string
	search string
	island string
	limit  int
}

// Local is a search.Backend over an in-memory collection. Results are
// memoized per query for the cache TTL; returned slices must not be
// modified.
type Local struct {
	src        Source
	similarity float64
	ids        *cache.Cache[cacheKey, []int]
	tags       *cache.Cache[cacheKey, []search.CategoryTag]
}

// NewLocal creates a backend over src. A non-positive similarity uses
// DefaultSimilarityThreshold; a non-positive ttl disables memoization.
func NewLocal(src Source, similarity float64, ttl time.Duration) *Local {
	if similarity <= 0 {
		similarity = DefaultSimilarityThreshold
	}
	return &Local{
		src:        src,
		similarity: similarity,
		ids:        cache.New[cacheKey, []int](ttl),
		tags:       cache.New[cacheKey, []search.CategoryTag](ttl),
	}
}

// Reset drops every memoized result. It is called when the collection
// behind src is (re)loaded.
func (l *Local) Reset() {
	l.ids.InvalidateAll()
	l.tags.InvalidateAll()
}

// SearchListings returns listings whose business name contains the query
// characters in order, ignoring case and diacritics, closest first.
func (l *Local) SearchListings(ctx context.Context, q search.Query) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := cacheKey{method: "exact", search: q.Search, island: q.Island, limit: q.Limit}
	return l.cachedIDs(key, func() ([]int, error) {
		listings := onIsland(l.src.Listings(), q.Island)
		names := make([]string, len(listings))
		for i, listing := range listings {
			names[i] = listing.BusinessName
		}

		ranks := fuzzy.RankFindNormalizedFold(q.Search, names)
		sort.Stable(ranks)

		out := make([]int, 0, len(ranks))
		for _, r := range ranks {
			out = append(out, listings[r.OriginalIndex].ID)
		}
		return limit(out, q.Limit), nil
	})
}

// FuzzySearchListings returns listings whose business name is trigram
// similar to the query, best first.
func (l *Local) FuzzySearchListings(ctx context.Context, q search.Query) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := cacheKey{method: "fuzzy", search: q.Search, island: q.Island, limit: q.Limit}
	return l.cachedIDs(key, func() ([]int, error) {
		var hits []scored
		for _, listing := range onIsland(l.src.Listings(), q.Island) {
			if s := Score(q.Search, listing.BusinessName); s >= l.similarity {
				hits = append(hits, scored{id: listing.ID, score: s})
			}
		}
		sortScored(hits)

		out := make([]int, 0, len(hits))
		for _, h := range hits {
			out = append(out, h.id)
		}
		return limit(out, q.Limit), nil
	})
}

// FuzzySearchCategories returns categories whose label is trigram similar to
// the query. With an island, listing counts only include listings on it.
func (l *Local) FuzzySearchCategories(ctx context.Context, q search.Query) ([]search.CategoryTag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := cacheKey{method: "categories", search: q.Search, island: q.Island, limit: q.Limit}
	tags, hit, err := l.tags.GetOrLoad(key, func() ([]search.CategoryTag, error) {
		var islandOf map[int]string
		if q.Island != "" {
			islandOf = make(map[int]string)
			for _, listing := range l.src.Listings() {
				islandOf[listing.ID] = listing.Island
			}
		}

		var hits []scored
		byID := make(map[int]search.CategoryTag)
		for _, c := range l.src.Categories() {
			if !c.OnIsland(q.Island) {
				continue
			}
			s := Score(q.Search, c.Label)
			if s < l.similarity {
				continue
			}
			hits = append(hits, scored{id: c.ID, score: s})
			byID[c.ID] = search.CategoryTag{ID: c.ID, Label: c.Label, ListingsCount: listingsCount(c, q.Island, islandOf)}
		}
		sortScored(hits)

		out := make([]search.CategoryTag, 0, len(hits))
		for _, h := range hits {
			out = append(out, byID[h.id])
		}
		if q.Limit > 0 && len(out) > q.Limit {
			out = out[:q.Limit]
		}
		return out, nil
	})
	if l.tags.Enabled() {
		metrics.IncBackendCache(hit)
	}
	return tags, err
}

func (l *Local) cachedIDs(key cacheKey, load func() ([]int, error)) ([]int, error) {
	ids, hit, err := l.ids.GetOrLoad(key, load)
	if l.ids.Enabled() {
		metrics.IncBackendCache(hit)
	}
	return ids, err
}

// Score rates how well query matches text: the best trigram similarity of
// the query against the whole text or any single word of it.
func Score(query, text string) float64 {
	best := trigram.Similarity(query, text)
	for _, word := range strings.Fields(text) {
		if s := trigram.Similarity(query, word); s > best {
			best = s
		}
	}
	return best
}

type scored struct {
	id    int
	score float64
}

func sortScored(hits []scored) {
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
}

func onIsland(listings []models.Listing, island string) []models.Listing {
	if island == "" {
		return listings
	}
	out := make([]models.Listing, 0, len(listings))
	for _, listing := range listings {
		if listing.Island == island {
			out = append(out, listing)
		}
	}
	return out
}

func listingsCount(c models.Category, island string, islandOf map[int]string) int {
	if island == "" {
		if c.ListingsCount > 0 {
			return c.ListingsCount
		}
		return len(c.ListingCategoryTags)
	}
	n := 0
	for _, tag := range c.ListingCategoryTags {
		if islandOf[tag.ListingID] == island {
			n++
		}
	}
	return n
}

func limit(ids []int, n int) []int {
	if n > 0 && len(ids) > n {
		return ids[:n]
	}
	return ids
}
