// Package categorization classifies invoice line descriptions into a fixed set
// of spending categories using an ordered, first-match-wins rule table.
package categorization

import (
	"strings"
	"sync"
)

// Match describes how a description was classified.
type Match struct {
	Category string `json:"category"`
	// RuleIndex is the position of the winning rule, or -1 when the
	// description was empty and the fallback was used without evaluation.
	RuleIndex int `json:"rule_index"`
	// Vetoed lists earlier rules whose pattern matched but whose guard fired.
	Vetoed []int `json:"vetoed,omitempty"`
}

// Engine evaluates an ordered rule list. It holds no mutable state after
// construction and is safe for concurrent use.
type Engine struct {
	rules    []Rule
	fallback string
}

// NewEngine creates an engine over rules, evaluated in slice order.
// Descriptions that match no rule resolve to CategoryOthers.
func NewEngine(rules []Rule) *Engine {
	cp := make([]Rule, len(rules))
	copy(cp, rules)
	return &Engine{rules: cp, fallback: CategoryOthers}
}

var defaultEngine = sync.OnceValue(func() *Engine {
	return NewEngine(DefaultRules())
})

// Default returns the shared engine built from DefaultRules.
func Default() *Engine {
	return defaultEngine()
}

// Categorize classifies description with the default engine.
func Categorize(description string) string {
	return Default().Categorize(description)
}

// Categorize returns the category of the first rule that claims description.
func (e *Engine) Categorize(description string) string {
	return e.Explain(description).Category
}

// Explain classifies description and reports which rule won.
func (e *Engine) Explain(description string) Match {
	text := strings.ToLower(strings.TrimSpace(description))
	if text == "" {
		return Match{Category: e.fallback, RuleIndex: -1}
	}

	var vetoed []int
	for i, rule := range e.rules {
		if rule.Matches(text) {
			return Match{Category: rule.Category, RuleIndex: i, Vetoed: vetoed}
		}
		if rule.vetoed(text) {
			vetoed = append(vetoed, i)
		}
	}
	return Match{Category: e.fallback, RuleIndex: len(e.rules), Vetoed: vetoed}
}

// CategorizeBatch classifies many descriptions, preserving order.
func (e *Engine) CategorizeBatch(descriptions []string) []string {
	out := make([]string, len(descriptions))
	for i, d := range descriptions {
		out[i] = e.Categorize(d)
	}
	return out
}

// Rules returns a copy of the rule table in evaluation order.
func (e *Engine) Rules() []Rule {
	cp := make([]Rule, len(e.rules))
	copy(cp, e.rules)
	return cp
}

// RuleCount returns the number of rules loaded in the engine.
func (e *Engine) RuleCount() int {
	return len(e.rules)
}
