package parser

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// feeLabel is a fee that may be printed outside the item table.
type feeLabel struct {
	needle      string // lowercase label searched for in tokens and descriptions
	description string // description of the synthesized item
}

var fallbackFees = []feeLabel{
	{needle: "convenience charge", description: "Convenience charge"},
	{needle: "handling charge", description: "Handling charge"},
}

// feeScanner finds every fee label in a single pass per string.
type feeScanner struct {
	fees    []feeLabel
	matcher *ahocorasick.Matcher
}

func newFeeScanner(fees []feeLabel) *feeScanner {
	dict := make([]string, len(fees))
	for i, f := range fees {
		dict[i] = f.needle
	}
	return &feeScanner{fees: fees, matcher: ahocorasick.NewStringMatcher(dict)}
}

// mentions returns the indexes of the fees named in text.
func (s *feeScanner) mentions(text string) []int {
	if text == "" {
		return nil
	}
	return s.matcher.MatchThreadSafe([]byte(strings.ToLower(text)))
}

// firstPositions returns, per fee, the index of the first token that names
// it, or -1.
func (s *feeScanner) firstPositions(tokens []string) []int {
	pos := make([]int, len(s.fees))
	for i := range pos {
		pos[i] = -1
	}

	remaining := len(s.fees)
	for i, tok := range tokens {
		for _, k := range s.mentions(tok) {
			if pos[k] < 0 {
				pos[k] = i
				remaining--
			}
		}
		if remaining == 0 {
			break
		}
	}
	return pos
}
