package seed

import "github.com/dealerworks/reconcile-cli/internal/model"

// Demo returns the built-in demonstration order used when no order file is
// given: a dealer furniture order with one header issue, one rule issue,
// and three line items needing attention.
func Demo() *Order {
	return &Order{
		ID:     "ord-demo-001",
		Name:   "Meridian Office Refresh",
		Dealer: "Meridian Workspace Partners",
		Items: []model.LineItem{
			{
				ID: "li-1", Name: "Height-Adjustable Desk 60x30", SKU: "HAD-6030",
				Quantity: 12, UnitPrice: 640, Status: model.StatusValidated,
				CostCenter: "FAC-200",
			},
			{
				ID: "li-2", Name: "Ergonomic Task Chair", SKU: "ETC-5500",
				Quantity: 12, UnitPrice: 385, Status: model.StatusReview,
				Issues: []string{"SKU discontinued in current catalog", "Lead time exceeds requested ship date"},
			},
			{
				ID: "li-3", Name: "Dual Monitor Arm", SKU: "DMA-2200",
				Quantity: 12, UnitPrice: 145, Status: model.StatusSuggestion,
				Suggestion: &model.Suggestion{
					SKU: "DMA-2210", Price: 139,
					Reason:     "Updated model with identical clamp range",
					Confidence: 93,
				},
			},
			{
				ID: "li-4", Name: "Mobile Storage Pedestal", SKU: "MSP-1100",
				Quantity: 12, UnitPrice: 210, Status: model.StatusSuggestion,
				Options: []model.ReplacementOption{
					{SKU: "MSP-1150", Name: "Mobile Pedestal v2", Price: 195, SubText: "Same footprint"},
					{SKU: "MSP-1180", Name: "Mobile Pedestal XL", Price: 240, SubText: "Deeper file drawer"},
					{SKU: "MSP-1190", Name: "Mobile Pedestal Steel", Price: 260, SubText: "All-steel body"},
				},
			},
			{
				ID: "li-5", Name: "Acoustic Desk Divider", SKU: "ADD-3300",
				Quantity: 24, UnitPrice: 85, Status: model.StatusValidated,
				CostCenter: "FAC-200",
			},
		},
		Discrepancies: []model.Discrepancy{
			{
				ID: "hdr-po", Type: model.DiscrepancyHeader,
				Title:       "PO number mismatch",
				Description: "Extracted PO differs from the dealer portal record",
				Severity:    model.SeverityHigh,
				Original:    model.FieldValue{Label: "PO-88412", SubText: "From uploaded document"},
				Suggestion: model.SuggestedValue{
					Label: "PO-88412-A", SubText: "Dealer portal",
					Reason: "Portal shows a revised PO issued two days later", Confidence: 95,
				},
			},
			{
				ID: "rule-ship", Type: model.DiscrepancyRule,
				Title:       "Requested ship date violates freight policy",
				Description: "Orders over 40 cartons require a 10 business day window",
				Severity:    model.SeverityMedium,
				Original:    model.FieldValue{Label: "2024-07-01"},
				Suggestion: model.SuggestedValue{
					Label:  "2024-07-08",
					Reason: "Earliest date satisfying the freight window", Confidence: 90,
				},
			},
		},
		Discounts: []model.DiscountSection{
			{
				Category: model.DiscountContract,
				Title:    "Contract Discounts",
				Rules: []model.DiscountRule{
					{ID: "contract-gsa", Label: "GSA schedule discount", Description: "Applies to all contract-listed SKUs", RatePercent: 5, Enabled: true},
					{ID: "contract-dealer", Label: "Dealer agreement discount", RatePercent: 2},
				},
			},
			{
				Category: model.DiscountSpecial,
				Title:    "Special Pricing",
				Rules: []model.DiscountRule{
					{ID: "special-project", Label: "Project registration", Description: "Registered opportunity pricing", RatePercent: 3},
				},
			},
			{
				Category: model.DiscountVolume,
				Title:    "Volume Discounts",
				Rules: []model.DiscountRule{
					{ID: "volume-tier1", Label: "Volume tier 1 (50+ units)", RatePercent: 2, Enabled: true},
					{ID: "volume-tier2", Label: "Volume tier 2 (100+ units)", RatePercent: 1.5},
				},
			},
			{
				Category: model.DiscountPromo,
				Title:    "Promotions",
				Rules: []model.DiscountRule{
					{ID: "promo-q3", Label: "Q3 seating promo", Description: "Seating category only", RatePercent: 1},
				},
			},
			{
				Category: model.DiscountAdditional,
				Title:    "Additional Adjustments",
				Rules: []model.DiscountRule{
					{ID: "add-freight", Label: "Freight allowance", RatePercent: 1},
					{ID: "add-install", Label: "Installation bundle credit", RatePercent: 0.5},
				},
			},
		},
	}
}
