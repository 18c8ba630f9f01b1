package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealerworks/reconcile-cli/internal/model"
)

const orderYAML = `
id: ord-42
name: Branch Office Fitout
dealer: Northline Interiors
items:
  - id: li-1
    name: Conference Table
    sku: CT-9000
    quantity: 1
    unit_price: 2400
    status: validated
  - id: li-2
    name: Guest Chair
    sku: GC-1200
    quantity: 8
    unit_price: 180
    status: review
    issues:
      - "Fabric code not in current catalog"
discrepancies:
  - id: hdr-1
    type: header
    title: Bill-to mismatch
    severity: medium
    original:
      label: "Acct 1180"
    suggestion:
      label: "Acct 1181"
      reason: "Portal account for this dealer"
      confidence: 92
discounts:
  - category: contract
    title: Contract Discounts
    rules:
      - id: contract-base
        label: Contract base discount
        rate_percent: 5
        enabled: true
`

func writeOrder(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "order.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()
	o, err := Load(writeOrder(t, orderYAML))
	require.NoError(t, err)

	assert.Equal(t, "ord-42", o.ID)
	require.Len(t, o.Items, 2)
	assert.Equal(t, "CT-9000", o.Items[0].SKU)
	assert.Equal(t, model.StatusReview, o.Items[1].Status)
	require.Len(t, o.Discrepancies, 1)
	assert.Equal(t, model.DiscrepancyHeader, o.Discrepancies[0].Type)
	require.Len(t, o.Discounts, 1)
	assert.InDelta(t, 5.0, o.Discounts[0].Rules[0].RatePercent, 0.001)
	assert.True(t, o.Discounts[0].Rules[0].Enabled)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	t.Parallel()
	_, err := Load(writeOrder(t, "items: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Order {
		return &Order{
			ID: "o-1",
			Items: []model.LineItem{
				{ID: "li-1", Name: "Desk", SKU: "D-1", Quantity: 1, UnitPrice: 100, Status: model.StatusValidated},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Order)
		wantErr string
	}{
		{"valid", func(o *Order) {}, ""},
		{"missing order id", func(o *Order) { o.ID = "" }, "order id"},
		{"no items", func(o *Order) { o.Items = nil }, "no items"},
		{"missing item id", func(o *Order) { o.Items[0].ID = "" }, "without id"},
		{"duplicate item id", func(o *Order) { o.Items = append(o.Items, o.Items[0]) }, "duplicate"},
		{"zero quantity", func(o *Order) { o.Items[0].Quantity = 0 }, "quantity"},
		{"negative price", func(o *Order) { o.Items[0].UnitPrice = -1 }, "negative unit price"},
		{"bad status", func(o *Order) { o.Items[0].Status = "done" }, "unknown status"},
		{
			"bad discrepancy type",
			func(o *Order) { o.Discrepancies = []model.Discrepancy{{ID: "d-1", Type: "oops"}} },
			"unknown type",
		},
		{
			"rate out of range",
			func(o *Order) {
				o.Discounts = []model.DiscountSection{{
					Category: model.DiscountPromo,
					Rules:    []model.DiscountRule{{ID: "r-1", RatePercent: 150}},
				}}
			},
			"out of range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			o := valid()
			tt.mutate(o)
			err := o.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDemo_IsValid(t *testing.T) {
	t.Parallel()
	o := Demo()
	require.NoError(t, o.Validate())
	assert.NotEmpty(t, o.Discrepancies)
	assert.NotEmpty(t, o.Discounts)

	attention := 0
	for _, li := range o.Items {
		if li.NeedsAttention() {
			attention++
		}
	}
	assert.Equal(t, 3, attention)
}
