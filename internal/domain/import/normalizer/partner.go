// Package normalizer cleans the delivery partner (seller of record) names
// printed on invoices and maps them to the brand customers know.
package normalizer

import (
	"regexp"
	"strings"

	"github.com/FACorreiaa/grocery-invoices/internal/domain/invoice"
)

var (
	parenthesizedRe = regexp.MustCompile(`\s*\(.*?\)\s*`)
	spacesRe        = regexp.MustCompile(`\s+`)
	legalSuffixRe   = regexp.MustCompile(`(?i)\bprivate\s+limited\b`)
)

// PartnerPattern maps a registered-name pattern to a known brand name.
type PartnerPattern struct {
	Pattern   *regexp.Regexp
	KnownName string
}

// PartnerNormalizer resolves registered seller names. Patterns are tried in
// order and the first match wins.
type PartnerNormalizer struct {
	patterns []PartnerPattern
}

// NewPartnerNormalizer creates a normalizer with the built-in brand table.
func NewPartnerNormalizer() *PartnerNormalizer {
	return &PartnerNormalizer{patterns: defaultPartnerPatterns()}
}

// Normalize builds a DeliveryPartner from the raw name text.
// Returns nil when nothing usable remains after cleaning.
func (n *PartnerNormalizer) Normalize(raw string) *invoice.DeliveryPartner {
	registered := CleanRegisteredName(raw)
	if registered == "" {
		return nil
	}

	known := DeriveKnownName(registered)
	for _, p := range n.patterns {
		if p.Pattern.MatchString(registered) {
			known = p.KnownName
			break
		}
	}

	return &invoice.DeliveryPartner{
		RegisteredName: invoice.Ptr(registered),
		KnownName:      invoice.Ptr(known),
	}
}

// CleanRegisteredName drops parenthesized fragments and collapses whitespace.
func CleanRegisteredName(raw string) string {
	s := parenthesizedRe.ReplaceAllString(raw, " ")
	return strings.TrimSpace(spacesRe.ReplaceAllString(s, " "))
}

// DeriveKnownName strips the "Private Limited" suffix. If nothing remains the
// registered name is returned as is.
func DeriveKnownName(registered string) string {
	s := legalSuffixRe.ReplaceAllString(registered, "")
	s = strings.TrimSpace(spacesRe.ReplaceAllString(s, " "))
	if s == "" {
		return registered
	}
	return s
}

// The Zepto seller of record is mapped to the consumer brand, matching how
// Blinkit invoices are labelled.
func defaultPartnerPatterns() []PartnerPattern {
	return []PartnerPattern{
		{Pattern: regexp.MustCompile(`(?i)\b(?:blink\s*commerce|grofers)\b`), KnownName: "Blinkit"},
		{Pattern: regexp.MustCompile(`(?i)\b(?:kiranakart|zepto)\b`), KnownName: "Zepto"},
	}
}
