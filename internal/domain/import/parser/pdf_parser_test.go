package parser

import (
	"bytes"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
)

func glyphs(y, x float64, s string) []pdf.Text {
	out := make([]pdf.Text, 0, len(s))
	for _, r := range s {
		out = append(out, pdf.Text{FontSize: 10, X: x, Y: y, W: 5, S: string(r)})
		x += 5
	}
	return out
}

func TestPDFTokenizer_pageTokens(t *testing.T) {
	tok := NewPDFTokenizer()

	t.Run("orders lines top to bottom and runs left to right", func(t *testing.T) {
		var texts []pdf.Text
		texts = append(texts, glyphs(700, 200, "60.00")...)
		texts = append(texts, glyphs(700, 50, "Lemon")...)
		texts = append(texts, glyphs(750, 50, "SR")...)

		assert.Equal(t, []string{"SR", "Lemon", "60.00"}, tok.pageTokens(texts))
	})

	t.Run("small gaps merge into one token", func(t *testing.T) {
		texts := glyphs(700, 50, "Invoice")
		texts = append(texts, glyphs(700, 50+7*5+3, "No.:")...)

		assert.Equal(t, []string{"Invoice No.:"}, tok.pageTokens(texts))
	})

	t.Run("baseline jitter stays on one line", func(t *testing.T) {
		texts := glyphs(700, 50, "Item")
		texts = append(texts, glyphs(701.5, 200, "Total")...)

		assert.Equal(t, []string{"Item", "Total"}, tok.pageTokens(texts))
	})

	t.Run("whitespace-only runs are dropped", func(t *testing.T) {
		texts := glyphs(700, 50, "   ")
		texts = append(texts, pdf.Text{FontSize: 10, X: 300, Y: 700, W: 5, S: ""})

		assert.Empty(t, tok.pageTokens(texts))
	})
}

func TestPDFTokenizer_Tokens(t *testing.T) {
	tok := NewPDFTokenizer()

	t.Run("rejects non-PDF input", func(t *testing.T) {
		data := []byte("definitely not a pdf")
		_, err := tok.Tokens(bytes.NewReader(data), int64(len(data)))
		assert.Error(t, err)
	})
}
