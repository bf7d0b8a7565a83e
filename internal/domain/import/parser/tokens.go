package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	pureNumberRe    = regexp.MustCompile(`^-?\d+(?:\.\d+)?$`)
	integerRe       = regexp.MustCompile(`^\d+$`)
	numericPrefixRe = regexp.MustCompile(`^-?(?:\d+(?:\.\d+)?|\.\d+)`)

	namedDateRe   = regexp.MustCompile(`(?i)^(\d{1,2})[-/](jan|feb|mar|apr|may|jun|jul|aug|sept|sep|oct|nov|dec)[-/](\d{2,4})`)
	numericDateRe = regexp.MustCompile(`^(\d{1,2})[-/](\d{1,2})[-/](\d{2,4})$`)
)

var monthNumbers = map[string]string{
	"jan": "01", "feb": "02", "mar": "03", "apr": "04", "may": "05", "jun": "06",
	"jul": "07", "aug": "08", "sep": "09", "sept": "09", "oct": "10", "nov": "11", "dec": "12",
}

// IsPureNumber reports whether tok is a strict, optionally signed integer or decimal.
// Row boundaries are decided with this test, never with ParseNumber.
func IsPureNumber(tok string) bool {
	return pureNumberRe.MatchString(tok)
}

func isInteger(tok string) bool {
	return integerRe.MatchString(tok)
}

// ParseNumber coerces tok to a number after stripping everything except
// digits, '.' and a leading '-'. Returns nil when nothing numeric remains.
func ParseNumber(tok string) *float64 {
	var b strings.Builder
	for _, r := range tok {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			b.WriteRune(r)
		}
	}

	m := numericPrefixRe.FindString(b.String())
	if m == "" {
		return nil
	}
	if strings.HasPrefix(m, ".") || strings.HasPrefix(m, "-.") {
		m = strings.Replace(m, ".", "0.", 1)
	}

	d, err := decimal.NewFromString(m)
	if err != nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}

// NormalizeDate rewrites DD-Mon-YYYY and DD-MM-YYYY / DD/MM/YYYY dates as
// DD-MM-YYYY. Two-digit years get a "20" prefix. Anything else is returned
// trimmed but otherwise unchanged.
func NormalizeDate(raw string) string {
	s := strings.TrimSpace(raw)

	if m := namedDateRe.FindStringSubmatch(s); m != nil {
		return pad2(m[1]) + "-" + monthNumbers[strings.ToLower(m[2])] + "-" + expandYear(m[3])
	}
	if m := numericDateRe.FindStringSubmatch(s); m != nil {
		return pad2(m[1]) + "-" + pad2(m[2]) + "-" + expandYear(m[3])
	}
	return s
}

func normalizeDatePtr(raw *string) *string {
	if raw == nil {
		return nil
	}
	s := NormalizeDate(*raw)
	if s == "" {
		return nil
	}
	return &s
}

func pad2(s string) string {
	if len(s) < 2 {
		return "0" + s
	}
	return s
}

func expandYear(y string) string {
	if len(y) == 2 {
		return "20" + y
	}
	for len(y) < 4 {
		y = "0" + y
	}
	return y
}

// label locates a header field either inline ("Invoice Number: X") or as an
// exact token sequence followed by an optional ":" token and the value.
type label struct {
	inline *regexp.Regexp
	seq    []string
}

// find returns the value of the first occurrence of l in tokens.
func (l label) find(tokens []string) *string {
	if l.inline != nil {
		for i, tok := range tokens {
			if !l.inline.MatchString(tok) {
				continue
			}
			if _, rest, ok := strings.Cut(tok, ":"); ok {
				if v := strings.TrimSpace(rest); v != "" {
					return &v
				}
			}
			if v, ok := valueAt(tokens, i+1); ok {
				return &v
			}
		}
	}

	if len(l.seq) > 0 {
		for i := range tokens {
			if matchesSequence(tokens, i, l.seq) {
				if v, ok := valueAt(tokens, i+len(l.seq)); ok {
					return &v
				}
				return nil
			}
		}
	}
	return nil
}

// findLast returns the value of the occurrence of l closest before position before.
func (l label) findLast(tokens []string, before int) *string {
	for i := min(before, len(tokens)) - 1; i >= 0; i-- {
		if l.inline != nil && l.inline.MatchString(tokens[i]) {
			if _, rest, ok := strings.Cut(tokens[i], ":"); ok {
				if v := strings.TrimSpace(rest); v != "" {
					return &v
				}
			}
			if v, ok := valueAt(tokens, i+1); ok {
				return &v
			}
		}
		if len(l.seq) > 0 && matchesSequence(tokens, i, l.seq) {
			if v, ok := valueAt(tokens, i+len(l.seq)); ok {
				return &v
			}
		}
	}
	return nil
}

// valueAt returns the token at i, stepping over a lone ":" token.
func valueAt(tokens []string, i int) (string, bool) {
	if i < len(tokens) && tokens[i] == ":" {
		i++
	}
	if i < len(tokens) && tokens[i] != "" {
		return tokens[i], true
	}
	return "", false
}

func matchesSequence(tokens []string, i int, seq []string) bool {
	if i+len(seq) > len(tokens) {
		return false
	}
	for k, want := range seq {
		if !strings.EqualFold(tokens[i+k], want) {
			return false
		}
	}
	return true
}

func indexOf(tokens []string, want string, from int) int {
	for i := max(from, 0); i < len(tokens); i++ {
		if tokens[i] == want {
			return i
		}
	}
	return -1
}

func lastIndexOf(tokens []string, want string, before int) int {
	for i := min(before, len(tokens)-1); i >= 0; i-- {
		if tokens[i] == want {
			return i
		}
	}
	return -1
}

// skipIntegers advances past a run of integer tokens.
func skipIntegers(tokens []string, i int) int {
	for i < len(tokens) && isInteger(tokens[i]) {
		i++
	}
	return i
}

// readDescription collects description tokens starting at i. It stops at the
// first pure number seen after at least one non-numeric token, so a
// description may begin with a digit. ok is false when end() fires first.
func readDescription(tokens []string, i int, end func([]string, int) bool) (desc string, next int, ok bool) {
	var parts []string
	wordSeen := false
	for i < len(tokens) {
		if end != nil && end(tokens, i) {
			return "", i, false
		}
		tok := tokens[i]
		if IsPureNumber(tok) {
			if wordSeen {
				break
			}
		} else {
			wordSeen = true
		}
		parts = append(parts, tok)
		i++
	}
	return strings.Join(parts, " "), i, true
}

// readNumbers reads up to n consecutive tokens that coerce to numbers.
func readNumbers(tokens []string, i, n int) ([]float64, int) {
	nums := make([]float64, 0, n)
	for i < len(tokens) && len(nums) < n {
		v := ParseNumber(tokens[i])
		if v == nil {
			break
		}
		nums = append(nums, *v)
		i++
	}
	return nums, i
}

func atoi(tok string) int {
	n, _ := strconv.Atoi(tok)
	return n
}
