// Package ingest parses dealer order sheets into order seeds. Dealers that
// skip the document-extraction flow hand over XLSX line-item sheets directly.
package ingest

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/dealerworks/reconcile-cli/internal/model"
	"github.com/dealerworks/reconcile-cli/internal/seed"
)

// Options configures the XLSX order parser.
type Options struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
	OrderID    string // defaults to the file's sheet name
	OrderName  string
}

// expected column order in the items sheet.
var itemColumns = []string{"id", "name", "sku", "quantity", "unit_price", "status"}

// ParseOrderXLSX reads a line-item sheet and returns a validated order seed.
// Row one is the header; the status column is optional and defaults to
// review, so every imported item passes through the resolution queue.
func ParseOrderXLSX(path string, opts Options) (*seed.Order, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: open file")
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}

	order := &seed.Order{
		ID:   opts.OrderID,
		Name: opts.OrderName,
	}
	if order.ID == "" {
		order.ID = sheet.Name
	}
	if order.Name == "" {
		order.Name = sheet.Name
	}

	for i, row := range sheet.Rows {
		if i == 0 {
			continue // header
		}
		li, err := rowToItem(row)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: row %d", i+1)
		}
		if li == nil {
			continue // blank row
		}
		order.Items = append(order.Items, *li)
	}

	if err := order.Validate(); err != nil {
		return nil, err
	}
	return order, nil
}

func getSheet(f *xlsx.File, opts Options) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("ingest: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("ingest: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}

	return f.Sheets[opts.SheetIndex], nil
}

func rowToItem(row *xlsx.Row) (*model.LineItem, error) {
	cells := make([]string, len(itemColumns))
	for j := range cells {
		if j < len(row.Cells) {
			cells[j] = strings.TrimSpace(row.Cells[j].String())
		}
	}

	if cells[0] == "" && cells[2] == "" {
		return nil, nil
	}

	qty, err := strconv.Atoi(cells[3])
	if err != nil {
		return nil, eris.Wrapf(err, "parse quantity %q", cells[3])
	}
	price, err := strconv.ParseFloat(cells[4], 64)
	if err != nil {
		return nil, eris.Wrapf(err, "parse unit_price %q", cells[4])
	}

	status := model.ItemStatus(cells[5])
	if status == "" {
		status = model.StatusReview
	}

	return &model.LineItem{
		ID:        cells[0],
		Name:      cells[1],
		SKU:       cells[2],
		Quantity:  qty,
		UnitPrice: price,
		Status:    status,
	}, nil
}
