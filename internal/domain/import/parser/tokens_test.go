package parser

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPureNumber(t *testing.T) {
	tests := []struct {
		tok  string
		want bool
	}{
		{"1", true},
		{"12.50", true},
		{"-3", true},
		{"-0.75", true},
		{"1,200.00", false},
		{"₹25", false},
		{"5%", false},
		{".5", false},
		{"12.", false},
		{"Lemon", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.tok, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPureNumber(tt.tok))
		})
	}
}

func TestParseNumber(t *testing.T) {
	t.Run("strips currency and separators", func(t *testing.T) {
		tests := map[string]float64{
			"₹1,234.50": 1234.50,
			"25":        25,
			"-12.5":     -12.5,
			"2.5%":      2.5,
			".75":       0.75,
			"1.2.3":     1.2,
		}
		for in, want := range tests {
			got := ParseNumber(in)
			require.NotNil(t, got, in)
			assert.InDelta(t, want, *got, 1e-9, in)
		}
	})

	t.Run("returns nil without digits", func(t *testing.T) {
		for _, in := range []string{"", "abc", "-", ".", "₹"} {
			assert.Nil(t, ParseNumber(in), in)
		}
	})

	t.Run("minus only counts as a leading sign", func(t *testing.T) {
		got := ParseNumber("12-5")
		require.NotNil(t, got)
		assert.Equal(t, 125.0, *got)
	})
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"14-Nov-2025", "14-11-2025"},
		{"4-nov-25", "04-11-2025"},
		{"04-Sept-2025", "04-09-2025"},
		{"04-Sep-2025 10:15 AM", "04-09-2025"},
		{"4/9/25", "04-09-2025"},
		{"04/09/2025", "04-09-2025"},
		{"04-09-2025", "04-09-2025"},
		{"1-2-025", "01-02-0025"},
		{"  2025-11-14  ", "2025-11-14"},
		{"unknown", "unknown"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDate(tt.in))
		})
	}

	t.Run("normalized output is stable", func(t *testing.T) {
		for _, tt := range tests {
			once := NormalizeDate(tt.in)
			assert.Equal(t, once, NormalizeDate(once))
		}
	})
}

func TestLabelFind(t *testing.T) {
	l := label{inline: regexp.MustCompile(`(?i)^order\s*no\.?\s*:`), seq: []string{"Order", "No."}}

	t.Run("inline value after colon", func(t *testing.T) {
		got := l.find([]string{"Order No.: ORD-1", "x"})
		require.NotNil(t, got)
		assert.Equal(t, "ORD-1", *got)
	})

	t.Run("inline label with value in next token", func(t *testing.T) {
		got := l.find([]string{"Order No.:", "ORD-2"})
		require.NotNil(t, got)
		assert.Equal(t, "ORD-2", *got)
	})

	t.Run("token sequence with colon token", func(t *testing.T) {
		got := l.find([]string{"foo", "Order", "No.", ":", "ORD-3"})
		require.NotNil(t, got)
		assert.Equal(t, "ORD-3", *got)
	})

	t.Run("missing label", func(t *testing.T) {
		assert.Nil(t, l.find([]string{"Invoice", "No."}))
	})

	t.Run("label at end of stream", func(t *testing.T) {
		assert.Nil(t, l.find([]string{"Order", "No."}))
	})

	t.Run("findLast picks the nearest preceding occurrence", func(t *testing.T) {
		tokens := []string{"Order No.: A", "x", "Order No.: B", "y", "Order No.: C"}
		got := l.findLast(tokens, 4)
		require.NotNil(t, got)
		assert.Equal(t, "B", *got)
		assert.Nil(t, l.findLast(tokens, 0))
	})
}

func TestReadDescription(t *testing.T) {
	t.Run("stops at first number after a word", func(t *testing.T) {
		desc, next, ok := readDescription([]string{"Amul", "Butter", "100g", "52.00", "1"}, 0, nil)
		assert.True(t, ok)
		assert.Equal(t, "Amul Butter 100g", desc)
		assert.Equal(t, 3, next)
	})

	t.Run("leading numbers belong to the description", func(t *testing.T) {
		desc, next, ok := readDescription([]string{"7", "Up", "Lemon", "40.00"}, 0, nil)
		assert.True(t, ok)
		assert.Equal(t, "7 Up Lemon", desc)
		assert.Equal(t, 3, next)
	})

	t.Run("end marker aborts", func(t *testing.T) {
		end := func(tokens []string, i int) bool { return tokens[i] == "Total" }
		_, next, ok := readDescription([]string{"Milk", "Total", "5"}, 0, end)
		assert.False(t, ok)
		assert.Equal(t, 1, next)
	})
}

func TestReadNumbers(t *testing.T) {
	nums, next := readNumbers([]string{"1", "₹2.50", "3%", "abc", "4"}, 0, 10)
	assert.Equal(t, []float64{1, 2.5, 3}, nums)
	assert.Equal(t, 3, next)

	nums, next = readNumbers([]string{"1", "2", "3"}, 0, 2)
	assert.Equal(t, []float64{1, 2}, nums)
	assert.Equal(t, 2, next)
}

func TestColumnLayoutItem(t *testing.T) {
	cat := staticCategorizer("Test")

	t.Run("unit price from price over qty", func(t *testing.T) {
		it := zeptoLayout.item(1, "Lemon", []float64{30, 0, 2, 57.14, 2.5, 1.43, 2.5, 1.43, 0, 60}, cat)
		assert.Equal(t, 2.0, it.Qty)
		require.NotNil(t, it.Price)
		require.NotNil(t, it.UnitPrice)
		assert.Equal(t, 60.0, *it.Price)
		assert.Equal(t, 30.0, *it.UnitPrice)
		assert.Equal(t, "Test", it.Category)
	})

	t.Run("zero qty falls back to rate", func(t *testing.T) {
		it := zeptoLayout.item(1, "Lemon", []float64{30, 0, 0, 0, 0, 0, 0, 0, 0, 60}, cat)
		require.NotNil(t, it.UnitPrice)
		assert.Equal(t, 30.0, *it.UnitPrice)
	})

	t.Run("short row leaves price nil", func(t *testing.T) {
		it := zeptoLayout.item(1, "Lemon", []float64{30, 0, 1}, cat)
		assert.Nil(t, it.Price)
		require.NotNil(t, it.UnitPrice)
		assert.Equal(t, 30.0, *it.UnitPrice)
	})
}

type staticCategorizer string

func (s staticCategorizer) Categorize(string) string { return string(s) }
