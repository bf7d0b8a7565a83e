package parser

import (
	"cmp"
	"regexp"
	"slices"
	"strings"

	"github.com/FACorreiaa/grocery-invoices/internal/domain/invoice"
)

const (
	blinkitSectionMarker = "Tax Invoice"
	blinkitRegistered    = "Blink Commerce Private Limited (formerly known as Grofers India Private Limited)"
	blinkitKnown         = "Blinkit"
)

var (
	blinkitInvoiceNo   = label{inline: regexp.MustCompile(`(?i)invoice\s*number`), seq: []string{"Invoice", "Number"}}
	blinkitOrderID     = label{inline: regexp.MustCompile(`(?i)order\s*id`), seq: []string{"Order", "Id"}}
	blinkitInvoiceDate = label{inline: regexp.MustCompile(`(?i)invoice\s*date`), seq: []string{"Invoice", "Date"}}

	hsnParenRe  = regexp.MustCompile(`(?i)\s*\(HSN[^)]*\)`)
	hsnInlineRe = regexp.MustCompile(`(?i)\bHSN-?\s*\d{6,8}\b`)
	multiSpace  = regexp.MustCompile(`\s{2,}`)
)

var (
	// mrp, discount, qty, taxable value, CGST rate, CGST amount, SGST rate,
	// SGST amount, price; a trailing tenth column is read but unused.
	blinkitLayout = columnLayout{width: 10, minimum: 9, qty: 2, rate: 0, price: 8}
	// As above with cess rate and additional cess before the price.
	blinkitUPCLayout = columnLayout{width: 11, minimum: 10, qty: 2, rate: 0, price: 10}
)

// BlinkitParser parses Blinkit documents, which may hold several invoice
// sections and fee lines rendered outside the item table. All sections are
// merged into one consolidated invoice.
type BlinkitParser struct {
	cat  Categorizer
	fees *feeScanner
}

// NewBlinkitParser creates a Blinkit parser. A nil categorizer uses the default engine.
func NewBlinkitParser(cat Categorizer) *BlinkitParser {
	return &BlinkitParser{
		cat:  categorizerOrDefault(cat),
		fees: newFeeScanner(fallbackFees),
	}
}

// Name implements Parser.
func (p *BlinkitParser) Name() string { return "blinkit" }

// CanParse implements Parser.
func (p *BlinkitParser) CanParse(tokens []string) bool {
	return indexOf(tokens, blinkitSectionMarker, 0) >= 0
}

// Parse implements Parser.
func (p *BlinkitParser) Parse(tokens []string) invoice.ParseResult {
	invoices := p.parseSections(tokens)
	invoices = p.addFallbackFees(tokens, invoices)

	merged, ok := p.merge(invoices)
	if !ok {
		return invoice.EmptyResult()
	}
	return invoice.ParseResult{Invoices: []invoice.Invoice{merged}}
}

// parseSections splits tokens at every section marker and parses each chunk.
// Chunks without item rows are dropped.
func (p *BlinkitParser) parseSections(tokens []string) []invoice.Invoice {
	var invoices []invoice.Invoice
	start := indexOf(tokens, blinkitSectionMarker, 0)
	for start >= 0 {
		end := indexOf(tokens, blinkitSectionMarker, start+1)
		chunk := tokens[start:]
		if end >= 0 {
			chunk = tokens[start:end]
		}
		if inv, ok := p.parseChunk(chunk); ok {
			invoices = append(invoices, inv)
		}
		start = end
	}
	return invoices
}

func (p *BlinkitParser) parseChunk(chunk []string) (invoice.Invoice, bool) {
	marker := -1
	for i, t := range chunk {
		if isBlinkitTableMarker(t) {
			marker = i
			break
		}
	}
	if marker < 0 {
		return invoice.Invoice{}, false
	}

	hasUPC := marker+1 < len(chunk) && strings.Contains(strings.ToLower(chunk[marker+1]), "upc")
	table := tableScan{
		layout:    blinkitLayout,
		end:       isBlinkitTableEnd,
		skipNoise: true,
		clean:     cleanBlinkitDescription,
	}
	if hasUPC {
		table.layout = blinkitUPCLayout
		table.skipIDs = true
	}

	start := firstIntegerAfter(chunk, marker)
	if start < 0 {
		return invoice.Invoice{}, false
	}
	items := table.scan(chunk, start, p.cat)
	if len(items) == 0 {
		return invoice.Invoice{}, false
	}

	header := chunk[:marker]
	return invoice.Invoice{
		InvoiceNo:       blinkitInvoiceNo.find(header),
		OrderNo:         invoice.NewOrderNo(blinkitOrderID.find(header)),
		Date:            normalizeDatePtr(blinkitInvoiceDate.find(header)),
		DeliveryPartner: blinkitPartner(),
		Items:           items,
		ItemsTotal:      invoice.ItemsTotal(items),
	}, true
}

// addFallbackFees synthesizes a single-item invoice for each fee whose label
// appears in the document but which no parsed item already carries.
// Calling it again on its own output adds nothing.
func (p *BlinkitParser) addFallbackFees(tokens []string, invoices []invoice.Invoice) []invoice.Invoice {
	positions := p.fees.firstPositions(tokens)
	for k, fee := range p.fees.fees {
		if positions[k] < 0 || p.alreadyBilled(invoices, k) {
			continue
		}
		if inv, ok := p.synthesizeFee(tokens, positions[k], fee); ok {
			invoices = append(invoices, inv)
		}
	}
	return invoices
}

func (p *BlinkitParser) alreadyBilled(invoices []invoice.Invoice, fee int) bool {
	for _, inv := range invoices {
		for _, it := range inv.Items {
			if slices.Contains(p.fees.mentions(it.Description), fee) {
				return true
			}
		}
	}
	return false
}

// synthesizeFee reads up to nine numbers after the fee label at idx:
// quantity is the third value (default 1), total the ninth (else the first).
func (p *BlinkitParser) synthesizeFee(tokens []string, idx int, fee feeLabel) (invoice.Invoice, bool) {
	var nums []float64
	for j := idx + 1; j < len(tokens) && len(nums) < 9; j++ {
		v := ParseNumber(tokens[j])
		if v == nil {
			if len(nums) > 0 {
				break
			}
			continue
		}
		nums = append(nums, *v)
	}
	if len(nums) == 0 {
		return invoice.Invoice{}, false
	}

	qty := 1.0
	if len(nums) > 2 {
		qty = nums[2]
	}
	total := nums[0]
	if len(nums) > 8 {
		total = nums[8]
	}
	unit := total
	if qty != 0 {
		unit = total / qty
	}

	items := []invoice.Item{{
		Sr:          1,
		Description: fee.description,
		Qty:         qty,
		UnitPrice:   invoice.Ptr(unit),
		Price:       invoice.Ptr(total),
		Category:    p.cat.Categorize(fee.description),
	}}

	return invoice.Invoice{
		OrderNo:         invoice.NewOrderNo(blinkitOrderID.findLast(tokens, idx)),
		Date:            normalizeDatePtr(blinkitInvoiceDate.findLast(tokens, idx)),
		DeliveryPartner: blinkitPartner(),
		Items:           items,
		ItemsTotal:      invoice.ItemsTotal(items),
	}, true
}

// merge consolidates every section and fee invoice into one record.
// Order ids only come from invoices that carry no fee items.
func (p *BlinkitParser) merge(invoices []invoice.Invoice) (invoice.Invoice, bool) {
	var (
		items      []invoice.Item
		orderNos   []string
		invoiceNos []string
		merged     invoice.Invoice
	)

	for _, inv := range invoices {
		if !p.hasFeeItem(inv) {
			for _, o := range inv.OrderNo {
				if o != "" && !slices.Contains(orderNos, o) {
					orderNos = append(orderNos, o)
				}
			}
		}
		if inv.InvoiceNo != nil && *inv.InvoiceNo != "" && !slices.Contains(invoiceNos, *inv.InvoiceNo) {
			invoiceNos = append(invoiceNos, *inv.InvoiceNo)
		}
		if merged.Date == nil && inv.Date != nil {
			merged.Date = inv.Date
		}
		if merged.DeliveryPartner == nil && inv.DeliveryPartner != nil {
			merged.DeliveryPartner = inv.DeliveryPartner
		}
		items = append(items, inv.Items...)
	}

	if len(items) == 0 {
		return invoice.Invoice{}, false
	}

	slices.SortStableFunc(items, func(a, b invoice.Item) int { return cmp.Compare(a.Sr, b.Sr) })

	if len(orderNos) > 0 {
		merged.OrderNo = invoice.OrderNo(orderNos)
	}
	if len(invoiceNos) > 0 {
		merged.InvoiceNo = invoice.Ptr(strings.Join(invoiceNos, ", "))
	}
	merged.Items = items
	merged.Finalize()
	return merged, true
}

func (p *BlinkitParser) hasFeeItem(inv invoice.Invoice) bool {
	for _, it := range inv.Items {
		if len(p.fees.mentions(it.Description)) > 0 {
			return true
		}
	}
	return false
}

func blinkitPartner() *invoice.DeliveryPartner {
	return &invoice.DeliveryPartner{
		RegisteredName: invoice.Ptr(blinkitRegistered),
		KnownName:      invoice.Ptr(blinkitKnown),
	}
}

func isBlinkitTableMarker(tok string) bool {
	return strings.EqualFold(tok, "Sr. no") || strings.EqualFold(tok, "Sr. no.")
}

func isBlinkitTableEnd(tokens []string, i int) bool {
	return tokens[i] == "Total"
}

func cleanBlinkitDescription(desc string) string {
	desc = hsnParenRe.ReplaceAllString(desc, "")
	desc = hsnInlineRe.ReplaceAllString(desc, "")
	return strings.TrimSpace(multiSpace.ReplaceAllString(desc, " "))
}
