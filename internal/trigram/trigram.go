// file: internal/trigram/trigram.go
// version: 1.0.0
// guid: b3e90797-ac67-4e55-93e1-c1450e491ab1

// Package trigram scores fuzzy similarity between strings using padded
// trigram set overlap, following the conventions of PostgreSQL's pg_trgm.
package trigram

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Set is a deduplicated collection of trigrams.
type Set map[string]struct{}

// Len returns the number of distinct trigrams.
func (s Set) Len() int { return len(s) }

// Has reports whether t is in the set.
func (s Set) Has(t string) bool {
	_, ok := s[t]
	return ok
}

// Sorted returns the trigrams in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Of returns every 3-rune substring of s without any normalization.
// A string of L runes contributes L-2 positions; duplicates collapse.
func Of(s string) Set {
	runes := []rune(s)
	set := make(Set)
	for i := 0; i+3 <= len(runes); i++ {
		set[string(runes[i:i+3])] = struct{}{}
	}
	return set
}

// Normalize pads and lowercases s for similarity scoring: whitespace runs
// collapse to one space, every space is doubled, and the result is wrapped
// in two leading spaces and one trailing space. Blank input yields "".
func Normalize(s string) string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}
	padded := "  " + strings.Join(words, "  ") + " "
	// Casers carry state and are not safe to share between goroutines.
	return cases.Lower(language.Und).String(padded)
}

// Similarity returns |A∩B| / |A∪B| over the padded trigrams of a and b,
// in the range [0, 1].
//
// Identical raw inputs short-circuit to 1 unless a is blank. The comparison
// is on the untrimmed strings, so inputs that differ only in surrounding
// whitespace take the full computation.
func Similarity(a, b string) float64 {
	if strings.TrimSpace(a) != "" && a == b {
		return 1
	}

	ta := significant(Normalize(a))
	tb := significant(Normalize(b))

	total := len(ta)
	common := 0
	for t := range tb {
		if ta.Has(t) {
			common++
		} else {
			total++
		}
	}

	if total == 0 {
		return 0
	}
	return float64(common) / float64(total)
}

// WordSimilarity compares the raw lowercased trigram sets of two words as
// |A∩B| / (sqrt|A| * sqrt|B|). Words shorter than three runes score 0.
func WordSimilarity(a, b string) float64 {
	lower := cases.Lower(language.Und)
	ta := Of(lower.String(a))
	tb := Of(lower.String(b))
	if ta.Len() == 0 || tb.Len() == 0 {
		return 0
	}

	common := 0
	for t := range ta {
		if tb.Has(t) {
			common++
		}
	}
	return float64(common) / (math.Sqrt(float64(ta.Len())) * math.Sqrt(float64(tb.Len())))
}

// significant extracts the trigrams of an already normalized string,
// dropping word-end artifacts of the form "x  " left behind by padding.
func significant(normalized string) Set {
	set := Of(normalized)
	for t := range set {
		if isPaddingArtifact(t) {
			delete(set, t)
		}
	}
	return set
}

func isPaddingArtifact(t string) bool {
	r := []rune(t)
	if len(r) != 3 || !unicode.IsSpace(r[1]) || !unicode.IsSpace(r[2]) {
		return false
	}
	c := r[0]
	return unicode.IsLetter(c) || unicode.IsMark(c) || ('0' <= c && c <= '9')
}
