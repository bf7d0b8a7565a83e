// Package export writes parsed invoice line items as CSV or XLSX.
package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/grocery-invoices/internal/domain/categorization"
	"github.com/FACorreiaa/grocery-invoices/internal/domain/invoice"
	"github.com/FACorreiaa/grocery-invoices/pkg/money"
)

// Options narrows what gets exported.
type Options struct {
	// Category keeps only items with this exact label. Empty keeps all.
	Category string
}

// Row is one exported invoice line.
type Row struct {
	OrderNo     string `csv:"order_no"`
	InvoiceNo   string `csv:"invoice_no"`
	Date        string `csv:"date"`
	Partner     string `csv:"partner"`
	Sr          int    `csv:"sr"`
	Description string `csv:"description"`
	Category    string `csv:"category"`
	Qty         string `csv:"qty"`
	UnitPrice   string `csv:"unit_price"`
	Price       string `csv:"price"`

	qty       float64  `csv:"-"`
	unitPrice *float64 `csv:"-"`
	price     *float64 `csv:"-"`
}

// CategoryTotal aggregates the exported items of one category.
type CategoryTotal struct {
	Category string
	Items    int
	Total    decimal.Decimal
}

// Rows flattens invoices into one row per item.
func Rows(invoices []invoice.Invoice, opts Options) []*Row {
	var rows []*Row
	for _, inv := range invoices {
		partner := ""
		if inv.DeliveryPartner != nil {
			partner = deref(inv.DeliveryPartner.KnownName)
			if partner == "" {
				partner = deref(inv.DeliveryPartner.RegisteredName)
			}
		}
		for _, it := range inv.Items {
			if opts.Category != "" && it.Category != opts.Category {
				continue
			}
			rows = append(rows, &Row{
				OrderNo:     inv.OrderNo.String(),
				InvoiceNo:   deref(inv.InvoiceNo),
				Date:        deref(inv.Date),
				Partner:     partner,
				Sr:          it.Sr,
				Description: it.Description,
				Category:    it.Category,
				Qty:         strconv.FormatFloat(it.Qty, 'f', -1, 64),
				UnitPrice:   formatAmount(it.UnitPrice),
				Price:       formatAmount(it.Price),
				qty:         it.Qty,
				unitPrice:   it.UnitPrice,
				price:       it.Price,
			})
		}
	}
	return rows
}

// WriteCSV writes the item rows with a header line.
func WriteCSV(w io.Writer, invoices []invoice.Invoice, opts Options) error {
	rows := Rows(invoices, opts)
	if rows == nil {
		rows = []*Row{}
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

// Summarize totals rows per category, in category priority order.
// Labels outside the known set follow in first-seen order.
func Summarize(rows []*Row) []CategoryTotal {
	prices := make(map[string][]*float64)
	var extra []string
	for _, r := range rows {
		if _, ok := prices[r.Category]; !ok && !categorization.IsCategory(r.Category) {
			extra = append(extra, r.Category)
		}
		prices[r.Category] = append(prices[r.Category], r.price)
	}

	var out []CategoryTotal
	for _, c := range append(append([]string{}, categorization.Categories...), extra...) {
		if p, ok := prices[c]; ok {
			out = append(out, CategoryTotal{
				Category: c,
				Items:    len(p),
				Total:    money.Sum(p...).ToDecimal(),
			})
		}
	}
	return out
}

func formatAmount(v *float64) string {
	if v == nil {
		return ""
	}
	return money.NewINR(*v).String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
