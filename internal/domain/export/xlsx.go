package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/grocery-invoices/internal/domain/invoice"
)

const (
	itemsSheet   = "Items"
	summarySheet = "Summary"
)

var itemHeaders = []any{
	"Order No", "Invoice No", "Date", "Partner", "Sr",
	"Description", "Category", "Qty", "Unit Price", "Price",
}

// WriteXLSX writes a workbook with an "Items" sheet of item rows and a
// "Summary" sheet of per-category totals.
func WriteXLSX(w io.Writer, invoices []invoice.Invoice, opts Options) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", itemsSheet); err != nil {
		return fmt.Errorf("failed to name items sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	amount, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return fmt.Errorf("failed to create amount style: %w", err)
	}

	rows := Rows(invoices, opts)
	if err := writeItems(f, rows, bold, amount); err != nil {
		return err
	}
	if err := writeSummary(f, Summarize(rows), bold, amount); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write XLSX: %w", err)
	}
	return nil
}

func writeItems(f *excelize.File, rows []*Row, bold, amount int) error {
	if err := f.SetSheetRow(itemsSheet, "A1", &itemHeaders); err != nil {
		return fmt.Errorf("failed to write items header: %w", err)
	}
	if err := f.SetRowStyle(itemsSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("failed to style items header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []any{
			r.OrderNo, r.InvoiceNo, r.Date, r.Partner, r.Sr,
			r.Description, r.Category, r.qty, optional(r.unitPrice), optional(r.price),
		}
		if err := f.SetSheetRow(itemsSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write item row %d: %w", i+1, err)
		}
	}

	if len(rows) > 0 {
		if err := f.SetCellStyle(itemsSheet, "I2", fmt.Sprintf("J%d", len(rows)+1), amount); err != nil {
			return fmt.Errorf("failed to style amounts: %w", err)
		}
	}
	if err := f.SetColWidth(itemsSheet, "F", "G", 40); err != nil {
		return err
	}
	return f.SetPanes(itemsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeSummary(f *excelize.File, totals []CategoryTotal, bold, amount int) error {
	header := []any{"Category", "Items", "Total"}
	if err := f.SetSheetRow(summarySheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write summary header: %w", err)
	}

	items := 0
	for i, ct := range totals {
		total, _ := ct.Total.Float64()
		values := []any{ct.Category, ct.Items, total}
		if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", i+2), &values); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
		items += ct.Items
	}

	last := len(totals) + 2
	footer := []any{"Total", items}
	if err := f.SetSheetRow(summarySheet, fmt.Sprintf("A%d", last), &footer); err != nil {
		return err
	}
	totalCell := fmt.Sprintf("C%d", last)
	if len(totals) == 0 {
		if err := f.SetCellValue(summarySheet, totalCell, 0); err != nil {
			return err
		}
	} else if err := f.SetCellFormula(summarySheet, totalCell, fmt.Sprintf("SUM(C2:C%d)", last-1)); err != nil {
		return err
	}

	if err := f.SetRowStyle(summarySheet, 1, 1, bold); err != nil {
		return err
	}
	if err := f.SetRowStyle(summarySheet, last, last, bold); err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, "C2", fmt.Sprintf("C%d", last), amount); err != nil {
		return err
	}
	return f.SetColWidth(summarySheet, "A", "A", 45)
}

func optional(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
