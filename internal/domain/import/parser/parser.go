// Package parser turns the flat token stream extracted from grocery-delivery
// PDF invoices into structured invoice records.
//
// Each vendor parser is a cursor walk over the tokens: helpers take
// (tokens, index) and return the value plus the next index, so a parser
// holds no state between calls and is safe for concurrent use.
package parser

import (
	"errors"

	"github.com/FACorreiaa/grocery-invoices/internal/domain/categorization"
	"github.com/FACorreiaa/grocery-invoices/internal/domain/invoice"
)

// ErrUnsupportedFormat is returned when no registered parser recognizes a document.
var ErrUnsupportedFormat = errors.New("unsupported PDF format - not a Zepto or Blinkit invoice")

// Parser recognizes and parses one vendor's invoice layout.
type Parser interface {
	// Name identifies the vendor, e.g. "zepto".
	Name() string
	// CanParse is a cheap membership check. It must not attempt extraction.
	CanParse(tokens []string) bool
	// Parse extracts invoices. Malformed rows degrade silently.
	Parse(tokens []string) invoice.ParseResult
}

// Categorizer assigns a category label to an item description.
type Categorizer interface {
	Categorize(description string) string
}

func categorizerOrDefault(cat Categorizer) Categorizer {
	if cat == nil {
		return categorization.Default()
	}
	return cat
}

// Registry dispatches a token sequence to the first parser that claims it.
type Registry struct {
	parsers []Parser
}

// NewRegistry creates a registry that tries parsers in the given order.
func NewRegistry(parsers ...Parser) *Registry {
	return &Registry{parsers: parsers}
}

// DefaultRegistry returns the Zepto and Blinkit parsers, in that order.
func DefaultRegistry(cat Categorizer) *Registry {
	return NewRegistry(NewZeptoParser(cat), NewBlinkitParser(cat))
}

// Detect returns the first parser whose CanParse accepts tokens.
func (r *Registry) Detect(tokens []string) (Parser, error) {
	for _, p := range r.parsers {
		if p.CanParse(tokens) {
			return p, nil
		}
	}
	return nil, ErrUnsupportedFormat
}

// Parse detects the vendor and parses tokens with it.
func (r *Registry) Parse(tokens []string) (invoice.ParseResult, error) {
	p, err := r.Detect(tokens)
	if err != nil {
		return invoice.ParseResult{}, err
	}
	return p.Parse(tokens), nil
}

// Names lists the registered parsers in dispatch order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.parsers))
	for i, p := range r.parsers {
		names[i] = p.Name()
	}
	return names
}
