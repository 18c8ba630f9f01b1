package lineitem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealerworks/reconcile-cli/internal/model"
)

func testItems() []model.LineItem {
	return []model.LineItem{
		{
			ID: "li-1", Name: "Executive Desk", SKU: "DSK-4400",
			Quantity: 2, UnitPrice: 850, Status: model.StatusValidated,
		},
		{
			ID: "li-2", Name: "Task Chair", SKU: "CHR-2210",
			Quantity: 10, UnitPrice: 100, Status: model.StatusReview,
			Issues: []string{"SKU discontinued by manufacturer"},
		},
		{
			ID: "li-3", Name: "Mobile Pedestal", SKU: "PED-1100",
			Quantity: 4, UnitPrice: 210, Status: model.StatusSuggestion,
			Suggestion: &model.Suggestion{SKU: "PED-1150", Price: 195, Reason: "Newer revision", Confidence: 91},
			Options: []model.ReplacementOption{
				{SKU: "PED-1150", Name: "Mobile Pedestal v2", Price: 195},
				{SKU: "PED-1180", Name: "Mobile Pedestal XL", Price: 240, SubText: "Larger drawers"},
				{SKU: "PED-1190", Name: "Mobile Pedestal Steel", Price: 260},
			},
		},
	}
}

func TestNewStore_Normalizes(t *testing.T) {
	t.Parallel()
	s := NewStore(testItems())

	li, ok := s.Get("li-1")
	require.True(t, ok)
	assert.Equal(t, model.DefaultWarranty, li.Warranty)
	assert.InDelta(t, 850.0, li.BasePrice, 0.001)
	assert.InDelta(t, 1700.0, li.TotalPrice, 0.001)
}

func TestListFiltered_Partition(t *testing.T) {
	t.Parallel()
	s := NewStore(testItems())

	all := s.ListFiltered(FilterAll)
	attention := s.ListFiltered(FilterAttention)
	validated := s.ListFiltered(FilterValidated)

	assert.Len(t, all, 3)
	assert.Len(t, attention, 2)
	assert.Len(t, validated, 1)

	// Disjoint partitions whose union is the full set.
	seen := map[string]bool{}
	for _, li := range attention {
		seen[li.ID] = true
	}
	for _, li := range validated {
		assert.False(t, seen[li.ID], "item %s in both partitions", li.ID)
		seen[li.ID] = true
	}
	assert.Len(t, seen, len(all))
}

func TestUpdate_RecomputesTotal(t *testing.T) {
	t.Parallel()
	s := NewStore(testItems())

	qty := 5
	require.NoError(t, s.Update("li-1", Patch{Quantity: &qty}))

	li, _ := s.Get("li-1")
	assert.Equal(t, 5, li.Quantity)
	assert.InDelta(t, 4250.0, li.TotalPrice, 0.001)
}

func TestUpdate_BasePriceSetOnce(t *testing.T) {
	t.Parallel()
	s := NewStore(testItems())

	newBase := 999.0
	require.NoError(t, s.Update("li-1", Patch{BasePrice: &newBase}))

	li, _ := s.Get("li-1")
	assert.InDelta(t, 850.0, li.BasePrice, 0.001, "base price must not be overwritten")
}

func TestUpdate_UnknownItem(t *testing.T) {
	t.Parallel()
	s := NewStore(testItems())
	err := s.Update("nope", Patch{})
	assert.Error(t, err)
}

func TestApplyReplacement(t *testing.T) {
	t.Parallel()
	s := NewStore(testItems())

	require.NoError(t, s.ApplyReplacement("li-2", "CHR-2250", 95, 0))

	li, _ := s.Get("li-2")
	assert.Equal(t, "CHR-2250", li.SKU)
	assert.Equal(t, model.StatusValidated, li.Status)
	assert.Nil(t, li.Issues)
	assert.Nil(t, li.Suggestion)
	assert.InDelta(t, 95.0, li.BasePrice, 0.001)
	assert.InDelta(t, 95.0, li.UnitPrice, 0.001)
	assert.InDelta(t, 950.0, li.TotalPrice, 0.001)
}

func TestApplyReplacement_WithSurcharge(t *testing.T) {
	t.Parallel()
	s := NewStore(testItems())

	require.NoError(t, s.ApplyReplacement("li-2", "CHR-2250", 95, 50))

	li, _ := s.Get("li-2")
	assert.InDelta(t, 95.0, li.BasePrice, 0.001)
	assert.InDelta(t, 145.0, li.UnitPrice, 0.001)
	assert.InDelta(t, 1450.0, li.TotalPrice, 0.001)
}

func TestApplyOption_SelectsSecondOfThree(t *testing.T) {
	t.Parallel()
	s := NewStore(testItems())

	require.NoError(t, s.ApplyOption("li-3", "PED-1180", 0))

	li, _ := s.Get("li-3")
	assert.Equal(t, "PED-1180", li.SKU)
	assert.Equal(t, "Mobile Pedestal XL", li.Name)
	assert.Equal(t, model.StatusValidated, li.Status)
	assert.InDelta(t, 240.0, li.UnitPrice, 0.001)
	assert.InDelta(t, 960.0, li.TotalPrice, 0.001)
	assert.Nil(t, li.Options)
}

func TestApplyOption_UnknownSKU(t *testing.T) {
	t.Parallel()
	s := NewStore(testItems())
	err := s.ApplyOption("li-3", "PED-9999", 0)
	assert.Error(t, err)
}

func TestMarkValidated_KeepsPricing(t *testing.T) {
	t.Parallel()
	s := NewStore(testItems())

	require.NoError(t, s.MarkValidated("li-2"))

	li, _ := s.Get("li-2")
	assert.Equal(t, model.StatusValidated, li.Status)
	assert.Equal(t, "CHR-2210", li.SKU)
	assert.InDelta(t, 100.0, li.UnitPrice, 0.001)
	assert.Nil(t, li.Issues)
}

func TestSetCostCenter(t *testing.T) {
	t.Parallel()
	s := NewStore(testItems())

	require.NoError(t, s.SetCostCenter("li-1", "FAC-OPS-100"))
	li, _ := s.Get("li-1")
	assert.Equal(t, "FAC-OPS-100", li.CostCenter)
}

func TestStats(t *testing.T) {
	t.Parallel()
	s := NewStore(testItems())

	st := s.Stats()
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 2, st.Attention)
	assert.Equal(t, 1, st.Validated)
	// 2*850 + 10*100 + 4*210 = 1700 + 1000 + 840
	assert.InDelta(t, 3540.0, st.TotalValue, 0.001)
	assert.InDelta(t, st.TotalValue, s.Subtotal(), 0.001)
}
