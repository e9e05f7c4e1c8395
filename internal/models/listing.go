// file: internal/models/listing.go
// version: 1.0.0
// guid: 573c2595-4501-4acc-b4b4-5f66bf4789c6

package models

import "strings"

// Island values used by listings and category membership.
const (
	IslandOahu   = "oahu"
	IslandMaui   = "maui"
	IslandKauai  = "kauai"
	IslandHawaii = "hawaii"
)

// Islands lists every known island in display order.
var Islands = []string{IslandHawaii, IslandOahu, IslandMaui, IslandKauai}

// Listing tiers
const (
	TierBasic    = "basic"
	TierStandard = "standard"
	TierPremium  = "premium"
)

// ListingCategoryTag links a category to a listing
type ListingCategoryTag struct {
	ID        int `json:"id" yaml:"id"`
	ListingID int `json:"listing_id" yaml:"listing_id"`
}

// Category represents a directory category with its island membership
type Category struct {
	ID                  int                  `json:"id" yaml:"id"`
	Label               string               `json:"label" yaml:"label"`
	ListingsCount       int                  `json:"listings_count,omitempty" yaml:"listings_count,omitempty"`
	ListingCategoryTags []ListingCategoryTag `json:"listing_category_tags" yaml:"listing_category_tags"`
	Island              map[string]bool      `json:"island,omitempty" yaml:"island,omitempty"`
}

// OnIsland reports whether the category is tagged for the given island.
// An empty island matches every category.
func (c Category) OnIsland(island string) bool {
	if island == "" {
		return true
	}
	return c.Island[island]
}

// Listing represents a business listing in the directory
type Listing struct {
	ID           int    `json:"id" yaml:"id"`
	BusinessName string `json:"business_name" yaml:"business_name"`
	Slug         string `json:"slug,omitempty" yaml:"slug,omitempty"`
	Island       string `json:"island" yaml:"island"`
	Tier         string `json:"tier,omitempty" yaml:"tier,omitempty"`
	Promoted     bool   `json:"promoted,omitempty" yaml:"promoted,omitempty"`
	PageItemURL  string `json:"page_item_url,omitempty" yaml:"page_item_url,omitempty"`

	// Populated at load time from category listing tags
	Categories []Category `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// HasCategory reports whether the listing carries a category whose label
// matches one of labels, compared case-insensitively.
func (l Listing) HasCategory(labels map[string]bool) bool {
	for _, c := range l.Categories {
		if labels[strings.ToLower(c.Label)] {
			return true
		}
	}
	return false
}

// IsIsland reports whether s names a known island.
func IsIsland(s string) bool {
	for _, i := range Islands {
		if i == s {
			return true
		}
	}
	return false
}
