package parser

import (
	"fmt"
	"testing"
)

func zeptoBenchDocument(rows int) []string {
	tokens := zeptoHeader()
	for i := 1; i <= rows; i++ {
		tokens = append(tokens, zeptoRow(fmt.Sprint(i), fmt.Sprintf("Onion %d kg", i),
			"30", "0", "1", "28.57", "2.5", "0.71", "2.5", "0.71", "0", "30")...)
	}
	return append(tokens, "Item", "Total")
}

func blinkitBenchDocument(sections, rows int) []string {
	var all []blinkitSection
	for s := 0; s < sections; s++ {
		sec := blinkitSection{invoiceNo: fmt.Sprintf("INV-%d", s), orderID: "ORD-1", date: "14-Nov-2025"}
		for i := 1; i <= rows; i++ {
			sec.rows = append(sec.rows, milkRow(fmt.Sprint(i)))
		}
		all = append(all, sec)
	}
	all[len(all)-1].trailer = convenienceTrailer
	return blinkitDocument(all...)
}

// BenchmarkParsers measures a full parse including categorization.
func BenchmarkParsers(b *testing.B) {
	for _, rows := range []int{10, 100, 1000} {
		zepto := zeptoBenchDocument(rows)
		b.Run(fmt.Sprintf("zepto/rows_%d", rows), func(b *testing.B) {
			p := NewZeptoParser(nil)
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				p.Parse(zepto)
			}
		})

		blinkit := blinkitBenchDocument(4, rows/4+1)
		b.Run(fmt.Sprintf("blinkit/rows_%d", rows), func(b *testing.B) {
			p := NewBlinkitParser(nil)
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				p.Parse(blinkit)
			}
		})
	}
}

func BenchmarkDetect(b *testing.B) {
	r := DefaultRegistry(nil)
	tokens := blinkitBenchDocument(2, 50)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = r.Detect(tokens)
	}
}
