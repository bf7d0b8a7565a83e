package parser

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFTokenizer flattens a PDF's text into the ordered token stream the
// vendor parsers consume: page by page, lines top to bottom, runs left to right.
type PDFTokenizer struct {
	// LineTolerance is the largest baseline difference for glyphs on one line.
	LineTolerance float64
	// GapRatio is the horizontal gap, relative to font size, that starts a new token.
	GapRatio float64
}

// NewPDFTokenizer creates a tokenizer with defaults tuned for invoice tables.
func NewPDFTokenizer() *PDFTokenizer {
	return &PDFTokenizer{LineTolerance: 2.0, GapRatio: 0.8}
}

// Tokens extracts the trimmed, non-empty text fragments of a PDF.
func (t *PDFTokenizer) Tokens(r io.ReaderAt, size int64) (tokens []string, err error) {
	// The pdf package panics on some malformed content streams.
	defer func() {
		if rec := recover(); rec != nil {
			tokens, err = nil, fmt.Errorf("failed to extract PDF text: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		tokens = append(tokens, t.pageTokens(page.Content().Text)...)
	}
	return tokens, nil
}

// wordGapRatio is the gap, relative to font size, read as a space inside a token.
const wordGapRatio = 0.2

type glyphLine struct {
	y      float64
	glyphs []pdf.Text
}

// pageTokens groups glyphs into lines and merges adjacent glyphs into tokens.
func (t *PDFTokenizer) pageTokens(texts []pdf.Text) []string {
	var lines []*glyphLine
	for _, g := range texts {
		if g.S == "" {
			continue
		}
		var line *glyphLine
		for _, l := range lines {
			if math.Abs(l.y-g.Y) <= t.LineTolerance {
				line = l
				break
			}
		}
		if line == nil {
			line = &glyphLine{y: g.Y}
			lines = append(lines, line)
		}
		line.glyphs = append(line.glyphs, g)
	}

	// PDF y grows upwards.
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].y > lines[j].y })

	var tokens []string
	for _, l := range lines {
		sort.SliceStable(l.glyphs, func(i, j int) bool { return l.glyphs[i].X < l.glyphs[j].X })
		tokens = append(tokens, t.lineTokens(l.glyphs)...)
	}
	return tokens
}

func (t *PDFTokenizer) lineTokens(glyphs []pdf.Text) []string {
	var (
		tokens []string
		cur    strings.Builder
		end    float64
	)
	flush := func() {
		if s := strings.Join(strings.Fields(cur.String()), " "); s != "" {
			tokens = append(tokens, s)
		}
		cur.Reset()
	}

	for i, g := range glyphs {
		if i > 0 {
			gap := g.X - end
			size := g.FontSize
			if size <= 0 {
				size = 10
			}
			switch {
			case gap > t.GapRatio*size:
				flush()
			case gap > wordGapRatio*size:
				cur.WriteByte(' ')
			}
		}
		cur.WriteString(g.S)
		w := g.W
		if w <= 0 {
			w = g.FontSize * 0.5 * float64(len([]rune(g.S)))
		}
		end = g.X + w
	}
	flush()
	return tokens
}
