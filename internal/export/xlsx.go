// Package export writes finalized orders to XLSX workbooks for handoff to
// dealer back-office systems.
package export

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/dealerworks/reconcile-cli/internal/model"
	"github.com/dealerworks/reconcile-cli/internal/money"
)

// WriteOrderXLSX writes a finalized order to path with an Items sheet and a
// Summary sheet.
func WriteOrderXLSX(order model.FinalizedOrder, path string) error {
	f := xlsx.NewFile()

	items, err := f.AddSheet("Items")
	if err != nil {
		return eris.Wrap(err, "export: add items sheet")
	}

	header := items.AddRow()
	for _, col := range []string{"Item ID", "Name", "SKU", "Qty", "Unit Price", "Total Price", "Warranty", "Cost Center"} {
		header.AddCell().SetString(col)
	}

	for _, li := range order.Items {
		row := items.AddRow()
		row.AddCell().SetString(li.ID)
		row.AddCell().SetString(li.Name)
		row.AddCell().SetString(li.SKU)
		row.AddCell().SetInt(li.Quantity)
		row.AddCell().SetFloat(li.UnitPrice)
		row.AddCell().SetFloat(li.TotalPrice)
		row.AddCell().SetString(li.Warranty)
		row.AddCell().SetString(li.CostCenter)
	}

	summary, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "export: add summary sheet")
	}

	addSummaryRow(summary, "Order", order.OrderName)
	addSummaryRow(summary, "Order ID", order.ID)
	addSummaryRow(summary, "Session", order.SessionID)
	addSummaryRow(summary, "Line Items", fmt.Sprintf("%d", len(order.Items)))
	addSummaryRow(summary, "Subtotal", money.FormatUSD(order.Subtotal))
	addSummaryRow(summary, "Total Discount", money.FormatUSD(order.TotalDiscount))
	addSummaryRow(summary, "Effective Rate", fmt.Sprintf("%.1f%%", order.EffectiveRate))
	addSummaryRow(summary, "Total", money.FormatUSD(order.Total))
	addSummaryRow(summary, "Approved At", order.ApprovedAt.Format("2006-01-02 15:04:05 MST"))

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

func addSummaryRow(sheet *xlsx.Sheet, label, value string) {
	row := sheet.AddRow()
	row.AddCell().SetString(label)
	row.AddCell().SetString(value)
}
