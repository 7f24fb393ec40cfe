package similarity

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Score combines a token-set Jaccard index with a normalized Levenshtein
// ratio into one scalar in [0,1]. It is deterministic and symmetric; the
// corroboration threshold logic depends on both properties.
func Score(a, b string) float64 {
	return (jaccard(a, b) + levenshteinRatio(a, b)) / 2
}

// jaccard computes word-set overlap on case-folded, punctuation-stripped
// tokens.
func jaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)

	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for token := range setA {
		if _, ok := setB[token]; ok {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

// levenshteinRatio is 1 minus the edit distance normalized by the longer
// canonical form, so identical bodies score 1 and disjoint ones approach 0.
func levenshteinRatio(a, b string) float64 {
	ca := canonical(a)
	cb := canonical(b)

	longest := len([]rune(ca))
	if l := len([]rune(cb)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 1
	}

	distance := levenshtein.ComputeDistance(ca, cb)
	ratio := 1 - float64(distance)/float64(longest)
	if ratio < 0 {
		return 0
	}
	return ratio
}

func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range tokens(text) {
		set[token] = struct{}{}
	}
	return set
}

func canonical(text string) string {
	return strings.Join(tokens(text), " ")
}

func tokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
