// file: internal/search/engine.go
// version: 1.1.0
// guid: 71c4e9a3-5d28-4b6f-8e0a-2f9b1d7c3e56

// Package search merges exact listing matches, fuzzy backfill and category
// suggestions into a single result for incremental search input.
package search

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/jdfalk/listings-engine/internal/matcher"
	"github.com/jdfalk/listings-engine/internal/metrics"
	"github.com/jdfalk/listings-engine/internal/models"
	"github.com/jdfalk/listings-engine/internal/realtime"
	"github.com/oklog/ulid/v2"
)

// Category suggestion sources
const (
	CategorySourceLocal  = "local"
	CategorySourceRemote = "remote"
)

// Collection is the loaded directory the engine resolves ids against.
type Collection interface {
	Wait(ctx context.Context) error
	ListingsFromIDs(ids []int) []models.Listing
	SearchCategories(query, island string) []matcher.Result
}

// Options tunes the engine. Zero values fall back to DefaultOptions.
type Options struct {
	// Threshold is the exact match count below which fuzzy backfill runs.
	Threshold int
	// MinQueryLength is the shortest query, in characters, that is searched.
	MinQueryLength int
	// FetchLimit is the fuzzy fetch size when there are no exact matches.
	FetchLimit int
	// FetchLimitWithMatches is the fuzzy fetch size when some exact matches exist.
	FetchLimitWithMatches int
	// CategorySource is CategorySourceLocal or CategorySourceRemote.
	CategorySource string
	// CategoryLimit caps category suggestions; 0 means unlimited.
	CategoryLimit int
}

// DefaultOptions returns the stock engine settings.
func DefaultOptions() Options {
	return Options{
		Threshold:             3,
		MinQueryLength:        2,
		FetchLimit:            10,
		FetchLimitWithMatches: 5,
		CategorySource:        CategorySourceLocal,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Threshold <= 0 {
		o.Threshold = d.Threshold
	}
	if o.MinQueryLength <= 0 {
		o.MinQueryLength = d.MinQueryLength
	}
	if o.FetchLimit <= 0 {
		o.FetchLimit = d.FetchLimit
	}
	if o.FetchLimitWithMatches <= 0 {
		o.FetchLimitWithMatches = d.FetchLimitWithMatches
	}
	if o.CategorySource != CategorySourceRemote {
		o.CategorySource = CategorySourceLocal
	}
	if o.CategoryLimit < 0 {
		o.CategoryLimit = 0
	}
	return o
}

// Request is one search invocation.
type Request struct {
	// ID identifies the request in logs and events; generated when empty.
	ID                string
	Search            string
	Island            string
	IncludeCategories bool
	// Threshold overrides Options.Threshold when positive.
	Threshold int

	// Post-filters applied to matches and suggestions.
	Categories   []string
	Tiers        []string
	PromotedOnly bool
}

// Result is the merged outcome of a search. Failures are reported in Err
// and Error rather than returned.
type Result struct {
	RequestID    string           `json:"request_id"`
	Matches      []models.Listing `json:"matches"`
	Suggestions  []models.Listing `json:"suggestions"`
	CategoryTags []CategoryTag    `json:"category_tags"`
	Categories   []matcher.Result `json:"categories,omitempty"`
	NotEnough    bool             `json:"not_enough"`
	EmptySearch  bool             `json:"empty_search"`
	Err          error            `json:"-"`
	Error        string           `json:"error,omitempty"`
}

func emptyResult(id string) *Result {
	return &Result{
		RequestID:    id,
		Matches:      []models.Listing{},
		Suggestions:  []models.Listing{},
		CategoryTags: []CategoryTag{},
	}
}

// Engine orchestrates searches. It is safe for concurrent use; calls are
// independent of each other.
type Engine struct {
	backend    Backend
	collection Collection
	opts       Options
}

// NewEngine creates an engine over backend and collection.
func NewEngine(backend Backend, collection Collection, opts Options) *Engine {
	return &Engine{
		backend:    backend,
		collection: collection,
		opts:       opts.withDefaults(),
	}
}

// Options returns the effective engine options.
func (e *Engine) Options() Options {
	return e.opts
}

// Search runs req. Exact listing matches and category suggestions are
// fetched concurrently; when fewer exact matches than the threshold come
// back, fuzzy suggestions backfill the remainder. Only an exact match
// failure fails the search; the other sub-calls degrade to empty.
func (e *Engine) Search(ctx context.Context, req Request) *Result {
	start := time.Now()
	if req.ID == "" {
		req.ID = ulid.Make().String()
	}

	res, outcome := e.search(ctx, req)

	d := time.Since(start)
	metrics.IncSearch(outcome)
	metrics.ObserveSearch(d)
	if outcome == metrics.OutcomeOK || outcome == metrics.OutcomeError {
		e.announce(req, res, d)
	}
	return res
}

func (e *Engine) search(ctx context.Context, req Request) (*Result, string) {
	res := emptyResult(req.ID)

	if req.Search == "" {
		res.EmptySearch = true
		res.NotEnough = true
		return res, metrics.OutcomeEmpty
	}
	if utf8.RuneCountInString(req.Search) < e.opts.MinQueryLength {
		res.NotEnough = true
		return res, metrics.OutcomeNotEnough
	}

	if err := e.collection.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return failed(res, ctxErr), metrics.OutcomeError
		}
		log.Printf("[WARN] Searching %q without a loaded collection: %v", req.Search, err)
	}

	var (
		wg        sync.WaitGroup
		exactIDs  []int
		exactErr  error
		tags      []CategoryTag
		catRanked []matcher.Result
		catErr    error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		exactIDs, exactErr = e.backend.SearchListings(ctx, Query{Search: req.Search, Island: req.Island})
	}()
	if req.IncludeCategories {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tags, catRanked, catErr = e.findCategories(ctx, req)
		}()
	}
	wg.Wait()

	if catErr != nil {
		log.Printf("[WARN] Couldn't fetch categories for %q: %v", req.Search, catErr)
		metrics.IncDegraded(metrics.SubcallCategories)
		tags, catRanked = nil, nil
	}

	if exactErr != nil {
		log.Printf("[ERROR] Listing search for %q failed: %v", req.Search, exactErr)
		return failed(res, exactErr), metrics.OutcomeError
	}

	matches := e.collection.ListingsFromIDs(exactIDs)
	suggestions := e.backfill(ctx, req, matches)

	res.Matches = filterListings(matches, req)
	res.Suggestions = filterListings(suggestions, req)
	if tags != nil {
		res.CategoryTags = tags
	}
	res.Categories = catRanked
	return res, metrics.OutcomeOK
}

func failed(res *Result, err error) *Result {
	res.Err = err
	res.Error = err.Error()
	return res
}

// backfill fetches fuzzy suggestions when matches fall short of the
// threshold. Suggestions never repeat a match or each other.
func (e *Engine) backfill(ctx context.Context, req Request, matches []models.Listing) []models.Listing {
	threshold := e.opts.Threshold
	if req.Threshold > 0 {
		threshold = req.Threshold
	}
	if len(matches) >= threshold {
		return []models.Listing{}
	}

	want := threshold - len(matches)
	limit := e.opts.FetchLimit
	if len(matches) > 0 {
		limit = e.opts.FetchLimitWithMatches
	}
	// A large threshold must still be able to fill its cap
	limit = max(limit, want)

	ids, err := e.backend.FuzzySearchListings(ctx, Query{Search: req.Search, Island: req.Island, Limit: limit})
	if err != nil {
		log.Printf("[WARN] Trouble fetching suggestions for %q: %v", req.Search, err)
		metrics.IncDegraded(metrics.SubcallFuzzy)
		return []models.Listing{}
	}

	seen := make(map[int]bool, len(matches)+len(ids))
	for _, m := range matches {
		seen[m.ID] = true
	}

	out := make([]models.Listing, 0, want)
	for _, l := range e.collection.ListingsFromIDs(ids) {
		if len(out) == want {
			break
		}
		if seen[l.ID] {
			continue
		}
		seen[l.ID] = true
		out = append(out, l)
	}
	return out
}

func (e *Engine) findCategories(ctx context.Context, req Request) ([]CategoryTag, []matcher.Result, error) {
	if e.opts.CategorySource == CategorySourceRemote {
		tags, err := e.backend.FuzzySearchCategories(ctx, Query{Search: req.Search, Island: req.Island})
		if err != nil {
			return nil, nil, err
		}
		if tags == nil {
			tags = []CategoryTag{}
		}
		if e.opts.CategoryLimit > 0 && len(tags) > e.opts.CategoryLimit {
			tags = tags[:e.opts.CategoryLimit]
		}
		return tags, nil, nil
	}

	ranked := e.collection.SearchCategories(req.Search, req.Island)
	if e.opts.CategoryLimit > 0 && len(ranked) > e.opts.CategoryLimit {
		ranked = ranked[:e.opts.CategoryLimit]
	}
	tags := make([]CategoryTag, len(ranked))
	for i, r := range ranked {
		tags[i] = CategoryTag{ID: r.Value.ID, Label: r.Value.Label, ListingsCount: r.Value.ListingsCount}
	}
	return tags, ranked, nil
}

// filterListings applies the request's category, tier and promoted filters.
// Category labels and tiers compare case-insensitively.
func filterListings(listings []models.Listing, req Request) []models.Listing {
	if len(req.Categories) == 0 && len(req.Tiers) == 0 && !req.PromotedOnly {
		return listings
	}

	labels := lowerSet(req.Categories)
	tiers := lowerSet(req.Tiers)

	out := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if req.PromotedOnly && !l.Promoted {
			continue
		}
		if len(tiers) > 0 && !tiers[strings.ToLower(l.Tier)] {
			continue
		}
		if len(labels) > 0 && !l.HasCategory(labels) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func lowerSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			set[strings.ToLower(v)] = true
		}
	}
	return set
}

func (e *Engine) announce(req Request, res *Result, d time.Duration) {
	if realtime.GlobalHub == nil {
		return
	}
	data := map[string]interface{}{
		"search":      req.Search,
		"island":      req.Island,
		"matches":     len(res.Matches),
		"suggestions": len(res.Suggestions),
		"categories":  len(res.CategoryTags),
		"duration_ms": d.Milliseconds(),
	}
	if res.Error != "" {
		data["error"] = res.Error
	}
	realtime.GlobalHub.SendSearchCompleted(req.ID, data)
}
