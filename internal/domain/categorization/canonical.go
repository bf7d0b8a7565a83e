package categorization

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Canonicalize resolves a loosely typed category name ("dairy", "snaks") to
// one of Categories. Exact case-insensitive matches win, then subsequence
// matches ranked by distance, then a Levenshtein match on the leading word.
func Canonicalize(input string) (string, bool) {
	query := strings.TrimSpace(input)
	if query == "" {
		return "", false
	}

	for _, c := range Categories {
		if strings.EqualFold(c, query) {
			return c, true
		}
	}

	ranks := fuzzy.RankFindNormalizedFold(query, Categories)
	if len(ranks) > 0 {
		// Stable so ties keep priority order.
		sort.Stable(ranks)
		return ranks[0].Target, true
	}

	lower := strings.ToLower(query)
	best, bestDist := "", -1
	for _, c := range Categories {
		d := fuzzy.LevenshteinDistance(lower, leadingWord(c))
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	if bestDist >= 0 && bestDist <= maxTypoDistance(lower) {
		return best, true
	}
	return "", false
}

func leadingWord(category string) string {
	fields := strings.FieldsFunc(strings.ToLower(category), func(r rune) bool {
		return r == ' ' || r == ','
	})
	if len(fields) == 0 {
		return ""
	}
	// "Fresh Produce – ..." is better identified by its last word.
	if fields[0] == "fresh" {
		return fields[len(fields)-1]
	}
	return fields[0]
}

func maxTypoDistance(s string) int {
	if d := len(s) / 3; d > 2 {
		return d
	}
	return 2
}
