package invoice

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
)

// Generator produces realistic invoices for tests and demo data.
type Generator struct {
	faker      *gofakeit.Faker
	categorize func(string) string
}

// NewGenerator creates a generator with a fixed seed for reproducibility.
// A zero seed picks a random one.
func NewGenerator(seed int64) *Generator {
	return &Generator{
		faker:      gofakeit.New(seed),
		categorize: func(string) string { return "Others" },
	}
}

// WithCategorizer sets the function used to fill item categories.
func (g *Generator) WithCategorizer(fn func(string) string) *Generator {
	g.categorize = fn
	return g
}

var groceryItems = []string{
	"Amul Taaza Toned Milk",
	"Lemon",
	"Coriander Leaves",
	"Banana Robusta",
	"Aashirvaad Whole Wheat Atta",
	"Tata Salt",
	"Britannia Brown Bread",
	"Lays Classic Salted Chips",
	"Dairy Milk Silk Chocolate",
	"Maggi 2-Minute Noodles",
	"Coca-Cola Zero",
	"Surf Excel Matic Liquid",
	"Everest Garam Masala",
	"Fortune Sunflower Oil",
	"McCain French Fries",
}

var partners = []DeliveryPartner{
	{RegisteredName: Ptr("Kiranakart Technologies Private Limited"), KnownName: Ptr("Zepto")},
	{RegisteredName: Ptr("Blink Commerce Private Limited (formerly known as Grofers India Private Limited)"), KnownName: Ptr("Blinkit")},
}

// Description picks a grocery item description.
func (g *Generator) Description() string {
	return groceryItems[g.faker.Number(0, len(groceryItems)-1)]
}

// Item generates one line with a two-decimal price.
func (g *Generator) Item(sr int) Item {
	desc := g.Description()
	qty := float64(g.faker.Number(1, 4))
	unit := decimal.NewFromFloat(g.faker.Float64Range(10, 500)).Round(2)
	price, _ := unit.Mul(decimal.NewFromFloat(qty)).Round(2).Float64()
	unitPrice, _ := unit.Float64()

	return Item{
		Sr:          sr,
		Description: desc,
		Qty:         qty,
		UnitPrice:   &unitPrice,
		Price:       &price,
		Category:    g.categorize(desc),
	}
}

// Invoice generates a finalized invoice with 1 to maxItems lines.
func (g *Generator) Invoice(maxItems int) Invoice {
	if maxItems < 1 {
		maxItems = 1
	}
	n := g.faker.Number(1, maxItems)
	items := make([]Item, n)
	for i := range items {
		items[i] = g.Item(i + 1)
	}

	date := g.faker.DateRange(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC))
	partner := partners[g.faker.Number(0, len(partners)-1)]

	inv := Invoice{
		InvoiceNo:       Ptr(fmt.Sprintf("INV%s", g.faker.DigitN(8))),
		OrderNo:         OrderNo{g.faker.DigitN(10)},
		Date:            Ptr(date.Format(DateLayout)),
		DeliveryPartner: &partner,
		Items:           items,
	}
	inv.Finalize()
	return inv
}

// Invoices generates count invoices.
func (g *Generator) Invoices(count, maxItems int) []Invoice {
	out := make([]Invoice, count)
	for i := range out {
		out[i] = g.Invoice(maxItems)
	}
	return out
}
