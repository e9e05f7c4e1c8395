// file: internal/matcher/fuzzy.go
// version: 2.0.0
// guid: 051dacb6-d96a-4c00-87a8-29d8ea6bde07

package matcher

import "unicode"

// Segment is a run of label characters that either belong to the matched
// subsequence or not. Segments of a result concatenate back to the label.
type Segment struct {
	Substring string `json:"substring"`
	Match     bool   `json:"match"`
}

// scan is the outcome of walking one label against a lowercased query.
type scan struct {
	matchCount  int
	segments    []Segment
	startsRight bool
	wholeSearch bool
}

// hasGaps reports whether more than one unmatched run interrupts the match.
func (s scan) hasGaps() bool {
	if s.startsRight {
		return len(s.segments) > 2
	}
	return len(s.segments) > 3
}

// scanLabel greedily consumes query runes as a subsequence of label, left to
// right, coalescing consecutive characters with the same match state. Once
// the whole query is consumed the rest of the label becomes a single
// unmatched segment. query must be non-empty and already lowercased.
func scanLabel(query []rune, label string) scan {
	runes := []rune(label)
	var s scan

	cursor := 0
	runStart := 0
	runMatch := false

	for i, r := range runes {
		matched := unicode.ToLower(r) == query[cursor]
		if matched {
			cursor++
			s.matchCount++
		}

		if i == 0 {
			s.startsRight = matched
			runMatch = matched
		} else if matched != runMatch {
			s.segments = append(s.segments, Segment{Substring: string(runes[runStart:i]), Match: runMatch})
			runStart = i
			runMatch = matched
		}

		if cursor == len(query) {
			s.wholeSearch = true
			s.segments = append(s.segments, Segment{Substring: string(runes[runStart : i+1]), Match: runMatch})
			if i+1 < len(runes) {
				s.segments = append(s.segments, Segment{Substring: string(runes[i+1:]), Match: false})
			}
			return s
		}
	}

	if len(runes) > 0 {
		s.segments = append(s.segments, Segment{Substring: string(runes[runStart:]), Match: runMatch})
	}
	return s
}

// lowerRunes lowercases s one rune at a time so that query and label
// characters are compared under the same mapping.
func lowerRunes(s string) []rune {
	runes := []rune(s)
	for i, r := range runes {
		runes[i] = unicode.ToLower(r)
	}
	return runes
}

func equalRunes(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
