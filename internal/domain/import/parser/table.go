package parser

import (
	"github.com/FACorreiaa/grocery-invoices/internal/domain/invoice"
)

// columnLayout is the fixed numeric-column layout of one item table variant.
type columnLayout struct {
	width   int // numeric tokens read per row
	minimum int // rows with fewer numeric tokens end the table
	qty     int
	rate    int
	price   int
}

func (l columnLayout) item(sr int, description string, nums []float64, cat Categorizer) invoice.Item {
	qty := column(nums, l.qty)
	rate := column(nums, l.rate)
	price := column(nums, l.price)

	var unitPrice *float64
	switch {
	case price != nil && qty != nil && *qty != 0:
		unitPrice = invoice.Ptr(*price / *qty)
	case rate != nil && *rate != 0:
		unitPrice = rate
	default:
		unitPrice = price
	}

	it := invoice.Item{
		Sr:          sr,
		Description: description,
		UnitPrice:   unitPrice,
		Price:       price,
		Category:    cat.Categorize(description),
	}
	if qty != nil {
		it.Qty = *qty
	}
	return it
}

func column(nums []float64, idx int) *float64 {
	if idx < 0 || idx >= len(nums) {
		return nil
	}
	v := nums[idx]
	return &v
}

// tableScan walks an item table one row at a time:
// serial number, optional ID run, description, optional code, numeric columns.
type tableScan struct {
	layout columnLayout
	// end reports an end-of-table marker at position i.
	end func(tokens []string, i int) bool
	// skipNoise steps over non-integer tokens between rows instead of stopping.
	skipNoise bool
	// skipIDs drops a run of integer ID tokens after the serial number.
	skipIDs bool
	// skipCode reports a code token (an HSN code) that sits between the
	// description and the numeric columns.
	skipCode func(tok string) bool
	// clean rewrites the joined description.
	clean func(string) string
}

// scan parses rows starting at i, the index of the first serial number.
// Rows already collected are kept when a later row is truncated.
func (s tableScan) scan(tokens []string, i int, cat Categorizer) []invoice.Item {
	var items []invoice.Item
	for i < len(tokens) {
		if s.end != nil && s.end(tokens, i) {
			break
		}
		if !isInteger(tokens[i]) {
			if s.skipNoise {
				i++
				continue
			}
			break
		}

		sr := atoi(tokens[i])
		i++
		if s.skipIDs {
			i = skipIntegers(tokens, i)
		}

		desc, next, ok := readDescription(tokens, i, s.end)
		if !ok {
			break
		}
		i = next
		if s.skipCode != nil && i < len(tokens) && s.skipCode(tokens[i]) {
			i++
		}

		nums, next := readNumbers(tokens, i, s.layout.width)
		if len(nums) < s.layout.minimum {
			break
		}
		i = next

		if s.clean != nil {
			desc = s.clean(desc)
		}
		items = append(items, s.layout.item(sr, desc, nums, cat))
	}
	return items
}

// firstIntegerAfter returns the index of the first integer token after marker.
func firstIntegerAfter(tokens []string, marker int) int {
	for i := marker + 1; i < len(tokens); i++ {
		if isInteger(tokens[i]) {
			return i
		}
	}
	return -1
}
