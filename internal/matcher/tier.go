// file: internal/matcher/tier.go
// version: 1.0.0
// guid: c0b939d7-75a6-4174-9855-34f774eaff4d

package matcher

import "fmt"

// Tier is the quality bucket a category match is ranked in. Lower values
// rank first.
type Tier int

const (
	// TierUnranked marks results returned for an empty query.
	TierUnranked Tier = iota - 1
	// TierExact is a case-insensitive exact label match.
	TierExact
	TierWholeContiguousStart
	TierWholeContiguous
	TierWholeGappedStart
	TierWholeGapped
	TierPartialContiguousStart
	TierPartialContiguous
	TierPartialGappedStart
	TierPartialGapped

	tierCount = int(TierPartialGapped) + 1
)

var tierNames = map[Tier]string{
	TierUnranked:               "unranked",
	TierExact:                  "exact",
	TierWholeContiguousStart:   "whole_contiguous_start",
	TierWholeContiguous:        "whole_contiguous",
	TierWholeGappedStart:       "whole_gapped_start",
	TierWholeGapped:            "whole_gapped",
	TierPartialContiguousStart: "partial_contiguous_start",
	TierPartialContiguous:      "partial_contiguous",
	TierPartialGappedStart:     "partial_gapped_start",
	TierPartialGapped:          "partial_gapped",
}

// TierFor maps the outcome of a subsequence scan to its bucket. Every
// combination of the three flags has exactly one tier.
func TierFor(wholeSearch, hasGaps, startsRight bool) Tier {
	switch {
	case wholeSearch && !hasGaps && startsRight:
		return TierWholeContiguousStart
	case wholeSearch && !hasGaps && !startsRight:
		return TierWholeContiguous
	case wholeSearch && hasGaps && startsRight:
		return TierWholeGappedStart
	case wholeSearch && hasGaps && !startsRight:
		return TierWholeGapped
	case !wholeSearch && !hasGaps && startsRight:
		return TierPartialContiguousStart
	case !wholeSearch && !hasGaps && !startsRight:
		return TierPartialContiguous
	case !wholeSearch && hasGaps && startsRight:
		return TierPartialGappedStart
	default:
		return TierPartialGapped
	}
}

// WholeSearch reports whether the tier holds matches that consumed the
// entire query. Exact matches count as whole.
func (t Tier) WholeSearch() bool {
	return t >= TierExact && t <= TierWholeGapped
}

// String returns the tier name.
func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// MarshalText encodes the tier by name.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}
