// file: internal/collection/repository.go
// version: 1.0.0
// guid: 8a2d5e61-3b9f-4c07-a1e4-6f7b0c2d9e15

// Package collection holds the in-memory listing and category collections
// that search results are resolved against.
package collection

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jdfalk/listings-engine/internal/matcher"
	"github.com/jdfalk/listings-engine/internal/models"
)

// ErrNotLoaded is returned when the collection has not finished loading.
var ErrNotLoaded = errors.New("collection not loaded")

// Stats summarizes a loaded collection.
type Stats struct {
	Listings   int       `json:"listings"`
	Categories int       `json:"categories"`
	Tags       int       `json:"tags"`
	LoadedAt   time.Time `json:"loaded_at"`
	Error      string    `json:"error,omitempty"`
}

// Repository loads the collections once and serves read-only queries over
// them. All methods are safe for concurrent use.
type Repository struct {
	provider Provider

	loadOnce sync.Once
	ready    chan struct{}

	mu         sync.RWMutex
	listings   []models.Listing
	listingIdx map[int]int
	categories []models.Category
	stats      Stats
	err        error

	subsMu      sync.Mutex
	subscribers []func(Stats)
}

// New creates an unloaded repository backed by provider.
func New(provider Provider) *Repository {
	return &Repository{
		provider:   provider,
		ready:      make(chan struct{}),
		listingIdx: make(map[int]int),
	}
}

// Load fetches and indexes the collections. Only the first call does any
// work; later calls return the first call's error. A failed load leaves the
// collections empty but still marks the repository ready.
func (r *Repository) Load(ctx context.Context) error {
	r.loadOnce.Do(func() {
		r.load(ctx)
	})
	return r.Err()
}

func (r *Repository) load(ctx context.Context) {
	var (
		snap *Snapshot
		err  error
	)
	if r.provider == nil {
		err = fmt.Errorf("no collection provider configured")
	} else {
		snap, err = r.provider.Fetch(ctx)
		if err == nil && snap == nil {
			err = fmt.Errorf("provider returned no snapshot")
		}
	}

	r.mu.Lock()
	if err != nil {
		r.err = fmt.Errorf("load collection: %w", err)
		r.stats = Stats{LoadedAt: time.Now(), Error: r.err.Error()}
		log.Printf("[ERROR] Failed to load collection: %v", err)
	} else {
		r.index(snap)
		log.Printf("[INFO] Loaded collection: %d listings, %d categories, %d tags",
			r.stats.Listings, r.stats.Categories, r.stats.Tags)
	}
	stats := r.stats
	r.mu.Unlock()

	r.subsMu.Lock()
	close(r.ready)
	subs := r.subscribers
	r.subscribers = nil
	r.subsMu.Unlock()

	for _, fn := range subs {
		fn(stats)
	}
}

// index must be called with r.mu held.
func (r *Repository) index(snap *Snapshot) {
	r.listings = make([]models.Listing, len(snap.Listings))
	copy(r.listings, snap.Listings)
	r.categories = make([]models.Category, len(snap.Categories))
	copy(r.categories, snap.Categories)

	for i, l := range r.listings {
		r.listingIdx[l.ID] = i
	}

	tags := 0
	for _, c := range r.categories {
		joined := c
		joined.ListingCategoryTags = nil
		for _, tag := range c.ListingCategoryTags {
			i, ok := r.listingIdx[tag.ListingID]
			if !ok {
				continue
			}
			r.listings[i].Categories = append(r.listings[i].Categories, joined)
			tags++
		}
	}

	r.stats = Stats{
		Listings:   len(r.listings),
		Categories: len(r.categories),
		Tags:       tags,
		LoadedAt:   time.Now(),
	}
}

// Ready returns a channel closed once the first load attempt finished.
func (r *Repository) Ready() <-chan struct{} {
	return r.ready
}

// IsReady reports whether the first load attempt finished.
func (r *Repository) IsReady() bool {
	select {
	case <-r.ready:
		return true
	default:
		return false
	}
}

// Wait blocks until the repository is ready or ctx is done. It returns the
// load error, if any.
func (r *Repository) Wait(ctx context.Context) error {
	select {
	case <-r.ready:
		return r.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnLoaded registers fn to run once loading finishes. If the repository is
// already ready, fn runs immediately on the caller's goroutine.
func (r *Repository) OnLoaded(fn func(Stats)) {
	r.subsMu.Lock()
	select {
	case <-r.ready:
		r.subsMu.Unlock()
		fn(r.Stats())
		return
	default:
	}
	r.subscribers = append(r.subscribers, fn)
	r.subsMu.Unlock()
}

// Err returns the load error. Before loading finishes it returns ErrNotLoaded.
func (r *Repository) Err() error {
	if !r.IsReady() {
		return ErrNotLoaded
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

// Stats returns counts for the loaded collection.
func (r *Repository) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats
}

// Listings returns every listing in collection order.
func (r *Repository) Listings() []models.Listing {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Listing, len(r.listings))
	copy(out, r.listings)
	return out
}

// Categories returns every category in collection order.
func (r *Repository) Categories() []models.Category {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Category, len(r.categories))
	copy(out, r.categories)
	return out
}

// Listing looks up a listing by id.
func (r *Repository) Listing(id int) (models.Listing, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.listingIdx[id]
	if !ok {
		return models.Listing{}, false
	}
	return r.listings[i], true
}

// Category looks up a category by id.
func (r *Repository) Category(id int) (models.Category, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.categories {
		if c.ID == id {
			return c, true
		}
	}
	return models.Category{}, false
}

// ListingsFromIDs resolves ids in order, skipping ids not in the collection.
func (r *Repository) ListingsFromIDs(ids []int) []models.Listing {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Listing, 0, len(ids))
	for _, id := range ids {
		if i, ok := r.listingIdx[id]; ok {
			out = append(out, r.listings[i])
		}
	}
	return out
}

// FilterList returns the listings on island carrying at least one of the
// category labels. Empty arguments do not filter.
func (r *Repository) FilterList(island string, categories []string) []models.Listing {
	if island == "" && len(categories) == 0 {
		return r.Listings()
	}

	labels := make(map[string]bool, len(categories))
	for _, c := range categories {
		labels[c] = true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Listing, 0)
	for _, l := range r.listings {
		if island != "" && l.Island != island {
			continue
		}
		if len(labels) > 0 && !hasLabel(l, labels) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func hasLabel(l models.Listing, labels map[string]bool) bool {
	for _, c := range l.Categories {
		if labels[c.Label] {
			return true
		}
	}
	return false
}

// SearchCategories ranks the loaded categories against query.
func (r *Repository) SearchCategories(query, island string) []matcher.Result {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return matcher.Search(query, r.categories, island)
}
