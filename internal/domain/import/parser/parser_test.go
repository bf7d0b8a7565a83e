package parser

import (
	"errors"
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/grocery-invoices/internal/domain/invoice"
)

type spyParser struct {
	name   string
	accept bool
	calls  int
}

func (s *spyParser) Name() string { return s.name }
func (s *spyParser) CanParse([]string) bool { return s.accept }
func (s *spyParser) Parse([]string) invoice.ParseResult {
	s.calls++
	return invoice.EmptyResult()
}

func TestRegistry_Parse(t *testing.T) {
	t.Run("empty token stream is unsupported", func(t *testing.T) {
		spy := &spyParser{name: "spy"}
		r := NewRegistry(spy)

		_, err := r.Parse(nil)

		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnsupportedFormat))
		assert.Contains(t, err.Error(), "unsupported PDF format")
		assert.Zero(t, spy.calls)
	})

	t.Run("default registry rejects empty tokens", func(t *testing.T) {
		_, err := DefaultRegistry(nil).Parse([]string{})
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("first accepting parser wins", func(t *testing.T) {
		first := &spyParser{name: "first", accept: true}
		second := &spyParser{name: "second", accept: true}
		r := NewRegistry(first, second)

		p, err := r.Detect([]string{"x"})
		require.NoError(t, err)
		assert.Equal(t, "first", p.Name())

		_, err = r.Parse([]string{"x"})
		require.NoError(t, err)
		assert.Equal(t, 1, first.calls)
		assert.Zero(t, second.calls)
	})

	t.Run("zepto is tried before blinkit", func(t *testing.T) {
		r := DefaultRegistry(nil)
		assert.Equal(t, []string{"zepto", "blinkit"}, r.Names())

		// Zepto documents also carry the "Tax Invoice" heading.
		p, err := r.Detect(zeptoHeader())
		require.NoError(t, err)
		assert.Equal(t, "zepto", p.Name())
	})

	t.Run("dispatches blinkit documents", func(t *testing.T) {
		tokens := blinkitDocument(
			blinkitSection{invoiceNo: "INV-A", orderID: "ORD-1", date: "14-Nov-2025", rows: [][]string{milkRow("1")}},
		)

		result, err := DefaultRegistry(nil).Parse(tokens)

		require.NoError(t, err)
		require.Len(t, result.Invoices, 1)
		assert.Equal(t, "INV-A", *result.Invoices[0].InvoiceNo)
	})

	t.Run("unknown document", func(t *testing.T) {
		_, err := DefaultRegistry(nil).Parse([]string{"Receipt", "Total", "42"})
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})
}

func TestCanParseIsPure(t *testing.T) {
	tokens := append(zeptoHeader(), "1", "Lemon")
	snapshot := append([]string(nil), tokens...)

	for _, p := range DefaultRegistry(nil).parsers {
		first := p.CanParse(tokens)
		assert.Equal(t, first, p.CanParse(tokens), p.Name())
	}
	assert.Equal(t, snapshot, tokens)
}

// TestParsersTolerateNoise feeds random token streams through both parsers.
// Malformed rows must never panic and any output must keep its invariants.
func TestParsersTolerateNoise(t *testing.T) {
	faker := gofakeit.New(7)
	parsers := DefaultRegistry(nil).parsers

	for run := 0; run < 200; run++ {
		tokens := noiseTokens(faker)
		for _, p := range parsers {
			name := fmt.Sprintf("%s/%d", p.Name(), run)
			require.NotPanics(t, func() {
				result := p.Parse(tokens)
				require.NotNil(t, result.Invoices, name)
				for _, inv := range result.Invoices {
					assertContiguous(t, inv.Items)
					assertSumInvariant(t, inv.Items, inv.ItemsTotal)
				}
			}, name)
		}
	}
}

func noiseTokens(faker *gofakeit.Faker) []string {
	markers := []string{"Invoice No.: Z1", "SR", "Tax Invoice", "Sr. no", "UPC", "Total", "Item", "Convenience charge"}
	n := faker.Number(0, 80)
	tokens := make([]string, 0, n)
	for i := 0; i < n; i++ {
		switch faker.Number(0, 4) {
		case 0:
			tokens = append(tokens, markers[faker.Number(0, len(markers)-1)])
		case 1:
			tokens = append(tokens, fmt.Sprint(faker.Number(1, 9)))
		case 2:
			tokens = append(tokens, fmt.Sprintf("%.2f", faker.Float64Range(0, 500)))
		default:
			tokens = append(tokens, faker.Word())
		}
	}
	return tokens
}

func assertSumInvariant(t *testing.T, items []invoice.Item, total *float64) {
	t.Helper()

	sum := decimal.Zero
	for _, it := range items {
		if it.Price != nil {
			sum = sum.Add(decimal.NewFromFloat(*it.Price))
		}
	}
	if sum.IsZero() {
		assert.Nil(t, total)
		return
	}
	require.NotNil(t, total)
	assert.InDelta(t, sum.InexactFloat64(), *total, 1e-9)
}

func assertContiguous(t *testing.T, items []invoice.Item) {
	t.Helper()
	for i, it := range items {
		assert.Equal(t, i+1, it.Sr)
	}
}
