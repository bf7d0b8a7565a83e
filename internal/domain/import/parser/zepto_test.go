package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/grocery-invoices/internal/domain/categorization"
)

func zeptoHeader() []string {
	return []string{
		"Tax Invoice",
		"Invoice No.: ZPINV2511A",
		"Order No.: 1234567890",
		"Date : 14-11-2025 10:32 AM",
		"Order Delivered From",
		"Kiranakart Technologies Private Limited",
		"No. 42, Whitefield Main Road",
		"SR", "Item & Description", "HSN", "Rate", "Disc.", "Qty", "Taxable Amt.",
		"CGST %", "CGST Amt.", "SGST %", "SGST Amt.", "Cess", "Total Amt.",
	}
}

func zeptoRow(sr, desc string, nums ...string) []string {
	return append([]string{sr, desc}, nums...)
}

func zeptoDocument(rows ...[]string) []string {
	tokens := zeptoHeader()
	for _, r := range rows {
		tokens = append(tokens, r...)
	}
	return append(tokens, "Item", "Total", "999.00", "Amount in words")
}

func TestZeptoParser_Parse(t *testing.T) {
	p := NewZeptoParser(nil)

	t.Run("single row with all numeric columns", func(t *testing.T) {
		tokens := zeptoDocument(
			zeptoRow("1", "Lemon", "30.00", "0.00", "2", "57.14", "2.5", "1.43", "2.5", "1.43", "0.00", "60.00"),
		)

		result := p.Parse(tokens)

		require.Len(t, result.Invoices, 1)
		inv := result.Invoices[0]
		require.Len(t, inv.Items, 1)

		it := inv.Items[0]
		assert.Equal(t, 1, it.Sr)
		assert.Equal(t, "Lemon", it.Description)
		assert.Equal(t, 2.0, it.Qty)
		require.NotNil(t, it.Price)
		assert.Equal(t, 60.0, *it.Price)
		require.NotNil(t, it.UnitPrice)
		assert.Equal(t, 30.0, *it.UnitPrice)
		assert.Equal(t, categorization.CategoryVegetables, it.Category)

		require.NotNil(t, inv.ItemsTotal)
		assert.InDelta(t, 60.0, *inv.ItemsTotal, 1e-9)
	})

	t.Run("header fields", func(t *testing.T) {
		tokens := zeptoDocument(
			zeptoRow("1", "Lemon", "30", "0", "1", "28.57", "2.5", "0.71", "2.5", "0.71", "0", "30"),
		)

		inv := p.Parse(tokens).Invoices[0]

		require.NotNil(t, inv.InvoiceNo)
		assert.Equal(t, "ZPINV2511A", *inv.InvoiceNo)
		assert.Equal(t, "1234567890", inv.OrderNo.String())
		require.NotNil(t, inv.Date)
		assert.Equal(t, "14-11-2025", *inv.Date)

		require.NotNil(t, inv.DeliveryPartner)
		assert.Equal(t, "Kiranakart Technologies Private Limited", *inv.DeliveryPartner.RegisteredName)
		assert.Equal(t, "Zepto", *inv.DeliveryPartner.KnownName)
	})

	t.Run("skips HSN code before numeric columns", func(t *testing.T) {
		tokens := zeptoDocument(
			append([]string{"1", "Amul Taaza Toned Milk", "500 ml", "04012000"},
				"28", "0", "1", "26.67", "2.5", "0.67", "2.5", "0.67", "0", "28"),
		)

		inv := p.Parse(tokens).Invoices[0]

		require.Len(t, inv.Items, 1)
		assert.Equal(t, "Amul Taaza Toned Milk 500 ml", inv.Items[0].Description)
		assert.Equal(t, 28.0, *inv.Items[0].Price)
		assert.Equal(t, categorization.CategoryDairy, inv.Items[0].Category)
	})

	t.Run("description may start with a number", func(t *testing.T) {
		tokens := zeptoDocument(
			[]string{"1", "7", "Up", "Lime", "40", "0", "1", "35.71", "6", "2.14", "6", "2.14", "0", "40"},
		)

		inv := p.Parse(tokens).Invoices[0]

		require.Len(t, inv.Items, 1)
		assert.Equal(t, "7 Up Lime", inv.Items[0].Description)
		assert.Equal(t, 40.0, *inv.Items[0].Price)
	})

	t.Run("multiple rows sum to items total", func(t *testing.T) {
		tokens := zeptoDocument(
			zeptoRow("1", "Lemon", "30", "0", "2", "57.14", "2.5", "1.43", "2.5", "1.43", "0", "60"),
			zeptoRow("2", "Banana Robusta", "45.5", "0", "1", "45.5", "0", "0", "0", "0", "0", "45.5"),
			zeptoRow("3", "Lays Classic Salted Chips", "20", "0", "3", "50.85", "9", "4.58", "9", "4.58", "0", "60.01"),
		)

		inv := p.Parse(tokens).Invoices[0]

		require.Len(t, inv.Items, 3)
		assertSumInvariant(t, inv.Items, inv.ItemsTotal)
		assertContiguous(t, inv.Items)
		assert.Equal(t, categorization.CategoryFruits, inv.Items[1].Category)
		assert.Equal(t, categorization.CategorySnacks, inv.Items[2].Category)
	})

	t.Run("truncated row keeps earlier items", func(t *testing.T) {
		tokens := zeptoHeader()
		tokens = append(tokens, zeptoRow("1", "Lemon", "30", "0", "1", "28.57", "2.5", "0.71", "2.5", "0.71", "0", "30")...)
		tokens = append(tokens, "2", "Onion", "40", "0")

		result := p.Parse(tokens)

		require.Len(t, result.Invoices, 1)
		require.Len(t, result.Invoices[0].Items, 1)
		assert.Equal(t, "Lemon", result.Invoices[0].Items[0].Description)
	})

	t.Run("stops at item total footer", func(t *testing.T) {
		tokens := zeptoDocument(
			zeptoRow("1", "Lemon", "30", "0", "1", "28.57", "2.5", "0.71", "2.5", "0.71", "0", "30"),
		)
		tokens = append(tokens, zeptoRow("2", "Onion", "40", "0", "1", "40", "0", "0", "0", "0", "0", "40")...)

		inv := p.Parse(tokens).Invoices[0]
		assert.Len(t, inv.Items, 1)
	})

	t.Run("no items yields no invoices", func(t *testing.T) {
		result := p.Parse(zeptoDocument())
		assert.NotNil(t, result.Invoices)
		assert.Empty(t, result.Invoices)
	})

	t.Run("missing partner is nil", func(t *testing.T) {
		tokens := []string{
			"Invoice No.: Z1", "SR",
			"1", "Lemon", "30", "0", "1", "28.57", "2.5", "0.71", "2.5", "0.71", "0", "30",
		}

		inv := p.Parse(tokens).Invoices[0]
		assert.Nil(t, inv.DeliveryPartner)
		assert.Nil(t, inv.Date)
		assert.Nil(t, inv.OrderNo)
	})

	t.Run("uses injected categorizer", func(t *testing.T) {
		p := NewZeptoParser(staticCategorizer("Custom"))
		tokens := zeptoDocument(
			zeptoRow("1", "Lemon", "30", "0", "1", "28.57", "2.5", "0.71", "2.5", "0.71", "0", "30"),
		)
		assert.Equal(t, "Custom", p.Parse(tokens).Invoices[0].Items[0].Category)
	})
}

func TestZeptoParser_CanParse(t *testing.T) {
	p := NewZeptoParser(nil)

	assert.True(t, p.CanParse([]string{"x", "Invoice No.: ABC"}))
	assert.True(t, p.CanParse([]string{"Invoice No.:"}))
	assert.False(t, p.CanParse([]string{"Invoice Number", "ABC"}))
	assert.False(t, p.CanParse(nil))

	tokens := zeptoHeader()
	before := append([]string(nil), tokens...)
	assert.Equal(t, p.CanParse(tokens), p.CanParse(tokens))
	assert.Equal(t, before, tokens)
}
