// Package invoice defines the structured records produced by the invoice parsers
// and handed to the persistence layer.
package invoice

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the normalized invoice date format (DD-MM-YYYY).
const DateLayout = "02-01-2006"

// Item is a single invoice line.
type Item struct {
	Sr          int      `json:"sr"`
	Description string   `json:"description"`
	Qty         float64  `json:"qty"`
	UnitPrice   *float64 `json:"unit_price"`
	Price       *float64 `json:"price"`
	Category    string   `json:"category"`
}

// DeliveryPartner identifies the seller of record printed on the invoice.
type DeliveryPartner struct {
	RegisteredName *string `json:"registered_name"`
	KnownName      *string `json:"known_name"`
}

// Invoice is one consolidated invoice record.
type Invoice struct {
	InvoiceNo       *string          `json:"invoice_no"`
	OrderNo         OrderNo          `json:"order_no"`
	Date            *string          `json:"date"`
	DeliveryPartner *DeliveryPartner `json:"delivery_partner"`
	Items           []Item           `json:"items"`
	ItemsTotal      *float64         `json:"items_total"`
}

// ParseResult is the complete output of parsing one document.
type ParseResult struct {
	Invoices []Invoice `json:"invoices"`
}

// EmptyResult returns a result that encodes as {"invoices": []}.
func EmptyResult() ParseResult {
	return ParseResult{Invoices: []Invoice{}}
}

// OrderNo holds zero, one or many order identifiers.
// It encodes as null, a string, or an array of strings respectively.
type OrderNo []string

// NewOrderNo builds an OrderNo from a single optional identifier.
func NewOrderNo(id *string) OrderNo {
	if id == nil || *id == "" {
		return nil
	}
	return OrderNo{*id}
}

// Key returns a stable string used for deduplication.
func (o OrderNo) Key() string {
	return strings.Join(o, ",")
}

// String implements fmt.Stringer.
func (o OrderNo) String() string {
	return strings.Join(o, ", ")
}

// MarshalJSON implements json.Marshaler.
func (o OrderNo) MarshalJSON() ([]byte, error) {
	switch len(o) {
	case 0:
		return []byte("null"), nil
	case 1:
		return json.Marshal(o[0])
	default:
		return json.Marshal([]string(o))
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OrderNo) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*o = nil
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*o = NewOrderNo(&s)
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*o = many
	return nil
}

// ItemsTotal sums the non-nil prices of items.
// Returns nil when no price is present or the sum is zero.
func ItemsTotal(items []Item) *float64 {
	sum := decimal.Zero
	for _, it := range items {
		if it.Price == nil {
			continue
		}
		sum = sum.Add(decimal.NewFromFloat(*it.Price))
	}
	if sum.IsZero() {
		return nil
	}
	f := sum.InexactFloat64()
	return &f
}

// Renumber assigns contiguous serial numbers 1..N in slice order.
func Renumber(items []Item) {
	for i := range items {
		items[i].Sr = i + 1
	}
}

// Finalize renumbers the items and recomputes the total.
func (inv *Invoice) Finalize() {
	Renumber(inv.Items)
	inv.ItemsTotal = ItemsTotal(inv.Items)
}

// DedupeKey identifies an invoice for upserts: order identifiers plus invoice number.
func (inv *Invoice) DedupeKey() string {
	no := ""
	if inv.InvoiceNo != nil {
		no = *inv.InvoiceNo
	}
	return inv.OrderNo.Key() + "|" + no
}

// ParsedDate converts the normalized DD-MM-YYYY date into a calendar date.
// ok is false when the date is missing or not a valid calendar date.
func (inv *Invoice) ParsedDate() (time.Time, bool) {
	if inv.Date == nil {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, strings.TrimSpace(*inv.Date))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
