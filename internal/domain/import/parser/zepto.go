package parser

import (
	"regexp"
	"strings"

	"github.com/FACorreiaa/grocery-invoices/internal/domain/import/normalizer"
	"github.com/FACorreiaa/grocery-invoices/internal/domain/invoice"
)

const (
	zeptoRecognizer  = "Invoice No.:"
	zeptoTableMarker = "SR"
	zeptoPartnerTag  = "Order Delivered From"
)

var (
	zeptoInvoiceNo = label{inline: regexp.MustCompile(`(?i)^invoice\s*no\.?\s*:`), seq: []string{"Invoice", "No."}}
	zeptoOrderNo   = label{inline: regexp.MustCompile(`(?i)^order\s*no\.?\s*:`), seq: []string{"Order", "No."}}
	zeptoDate      = label{inline: regexp.MustCompile(`(?i)^date\b`), seq: []string{"Date"}}

	zeptoPartnerStopRe = regexp.MustCompile(`^(?:No\.|FSSAI:|E-commerce Platform)`)
	hsnCodeRe          = regexp.MustCompile(`^\d{6,8}$`)
	embeddedDateRe     = regexp.MustCompile(`(?i)\d{1,2}[-/](?:\d{1,2}|[a-z]{3,4})[-/]\d{2,4}`)
)

// zeptoLayout: rate, discount, qty, taxable value, CGST rate, CGST amount,
// SGST rate, SGST amount, cess, line total.
var zeptoLayout = columnLayout{width: 10, minimum: 10, qty: 2, rate: 0, price: 9}

// ZeptoParser parses single-invoice Zepto documents.
type ZeptoParser struct {
	cat      Categorizer
	partners *normalizer.PartnerNormalizer
	table    tableScan
}

// NewZeptoParser creates a Zepto parser. A nil categorizer uses the default engine.
func NewZeptoParser(cat Categorizer) *ZeptoParser {
	return &ZeptoParser{
		cat:      categorizerOrDefault(cat),
		partners: normalizer.NewPartnerNormalizer(),
		table: tableScan{
			layout:   zeptoLayout,
			end:      isZeptoTableEnd,
			skipCode: hsnCodeRe.MatchString,
		},
	}
}

// Name implements Parser.
func (p *ZeptoParser) Name() string { return "zepto" }

// CanParse implements Parser.
func (p *ZeptoParser) CanParse(tokens []string) bool {
	for _, t := range tokens {
		if strings.HasPrefix(t, zeptoRecognizer) {
			return true
		}
	}
	return false
}

// Parse implements Parser. A document without item rows yields no invoices.
func (p *ZeptoParser) Parse(tokens []string) invoice.ParseResult {
	inv := p.parseInvoice(tokens)
	if len(inv.Items) == 0 {
		return invoice.EmptyResult()
	}
	return invoice.ParseResult{Invoices: []invoice.Invoice{inv}}
}

func (p *ZeptoParser) parseInvoice(tokens []string) invoice.Invoice {
	marker := indexOf(tokens, zeptoTableMarker, 0)
	header := tokens
	if marker >= 0 {
		header = tokens[:marker]
	}

	inv := invoice.Invoice{
		InvoiceNo:       zeptoInvoiceNo.find(header),
		OrderNo:         invoice.NewOrderNo(zeptoOrderNo.find(header)),
		Date:            zeptoDateValue(zeptoDate.find(header)),
		DeliveryPartner: p.deliveryPartner(tokens),
		Items:           []invoice.Item{},
	}

	if marker >= 0 {
		if start := firstIntegerAfter(tokens, marker); start >= 0 {
			inv.Items = p.table.scan(tokens, start, p.cat)
		}
	}
	inv.Finalize()
	return inv
}

// deliveryPartner joins the tokens after "Order Delivered From" up to the
// next address or licence line.
func (p *ZeptoParser) deliveryPartner(tokens []string) *invoice.DeliveryPartner {
	start := -1
	for i, t := range tokens {
		if strings.HasPrefix(t, zeptoPartnerTag) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}

	var parts []string
	for _, t := range tokens[start+1:] {
		if zeptoPartnerStopRe.MatchString(t) {
			break
		}
		parts = append(parts, t)
	}
	if len(parts) == 0 {
		return nil
	}
	return p.partners.Normalize(strings.Join(parts, " "))
}

// zeptoDateValue pulls the date out of a value such as "14-11-2025 10:32 AM".
func zeptoDateValue(raw *string) *string {
	if raw == nil {
		return nil
	}
	if m := embeddedDateRe.FindString(*raw); m != "" {
		return normalizeDatePtr(&m)
	}
	return normalizeDatePtr(raw)
}

// isZeptoTableEnd matches the "Item" "Total" footer.
func isZeptoTableEnd(tokens []string, i int) bool {
	if strings.EqualFold(tokens[i], "Item Total") {
		return true
	}
	return strings.EqualFold(tokens[i], "Item") &&
		i+1 < len(tokens) && strings.Contains(strings.ToLower(tokens[i+1]), "total")
}
