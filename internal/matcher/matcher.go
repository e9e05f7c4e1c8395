// file: internal/matcher/matcher.go
// version: 2.0.0
// guid: cfffc257-8250-4edc-8154-a1eda71a8fa2

// Package matcher ranks category labels against incremental search input
// by ordered character subsequence, producing highlightable segments.
package matcher

import (
	"sort"
	"unicode/utf8"

	"github.com/jdfalk/listings-engine/internal/models"
)

// Result is a ranked category match.
type Result struct {
	Value      models.Category `json:"value"`
	MatchCount int             `json:"match_count"`
	Segments   []Segment       `json:"segments"`
	Tier       Tier            `json:"tier"`
}

// Search ranks categories against query. Categories not on island are
// skipped when island is non-empty.
//
// An empty query returns every remaining category unranked, in input order.
// Otherwise candidates sharing no characters with the query are dropped and
// the rest are returned tier by tier; whole-query tiers prefer shorter
// labels, partial tiers prefer more matched characters.
func Search(query string, categories []models.Category, island string) []Result {
	if query == "" {
		results := make([]Result, 0, len(categories))
		for _, c := range categories {
			if !c.OnIsland(island) {
				continue
			}
			results = append(results, unranked(c))
		}
		return results
	}

	q := lowerRunes(query)
	var buckets [tierCount][]Result
	for _, c := range categories {
		if !c.OnIsland(island) {
			continue
		}
		if r, ok := match(q, c); ok {
			buckets[r.Tier] = append(buckets[r.Tier], r)
		}
	}

	results := make([]Result, 0)
	for t := range buckets {
		bucket := buckets[t]
		sortBucket(Tier(t), bucket)
		results = append(results, bucket...)
	}
	return results
}

// Match scores a single category against query. The boolean is false when
// no label character matched or query is empty.
func Match(query string, c models.Category) (Result, bool) {
	if query == "" {
		return Result{}, false
	}
	return match(lowerRunes(query), c)
}

func match(q []rune, c models.Category) (Result, bool) {
	if equalRunes(lowerRunes(c.Label), q) {
		return Result{
			Value:      c,
			MatchCount: utf8.RuneCountInString(c.Label),
			Segments:   []Segment{{Substring: c.Label, Match: true}},
			Tier:       TierExact,
		}, true
	}

	s := scanLabel(q, c.Label)
	if s.matchCount == 0 {
		return Result{}, false
	}

	return Result{
		Value:      c,
		MatchCount: s.matchCount,
		Segments:   s.segments,
		Tier:       TierFor(s.wholeSearch, s.hasGaps(), s.startsRight),
	}, true
}

func unranked(c models.Category) Result {
	return Result{
		Value:    c,
		Segments: []Segment{{Substring: c.Label, Match: false}},
		Tier:     TierUnranked,
	}
}

func sortBucket(t Tier, bucket []Result) {
	if t.WholeSearch() {
		sort.SliceStable(bucket, func(i, j int) bool {
			return utf8.RuneCountInString(bucket[i].Value.Label) < utf8.RuneCountInString(bucket[j].Value.Label)
		})
		return
	}
	sort.SliceStable(bucket, func(i, j int) bool {
		return bucket[i].MatchCount > bucket[j].MatchCount
	})
}
