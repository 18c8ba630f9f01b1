package discrepancy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealerworks/reconcile-cli/internal/lineitem"
	"github.com/dealerworks/reconcile-cli/internal/model"
	"github.com/dealerworks/reconcile-cli/internal/suggest"
)

func seedLedger() *Ledger {
	return NewLedger([]model.Discrepancy{
		{
			ID: "hdr-po", Type: model.DiscrepancyHeader, Title: "PO number mismatch",
			Severity: model.SeverityHigh,
			Original: model.FieldValue{Label: "PO-2024-118"},
			Suggestion: model.SuggestedValue{
				Label: "PO-2024-1187", Reason: "Extraction truncated the last digit", Confidence: 96,
			},
		},
		{
			ID: "rule-net", Type: model.DiscrepancyRule, Title: "Payment terms outside policy",
			Severity: model.SeverityMedium,
			Original: model.FieldValue{Label: "Net 90"},
			Suggestion: model.SuggestedValue{
				Label: "Net 45", Reason: "Dealer contract caps terms at Net 45", Confidence: 88,
			},
		},
		// Line-item seeds must be ignored: those derive from the store.
		{ID: "bogus", Type: model.DiscrepancyLineItem, Title: "ignored"},
	})
}

func seedItems() *lineitem.Store {
	return lineitem.NewStore([]model.LineItem{
		{ID: "li-1", Name: "Executive Desk", SKU: "DSK-4400", Quantity: 2, UnitPrice: 850, Status: model.StatusValidated},
		{
			ID: "li-2", Name: "Task Chair", SKU: "CHR-2210", Quantity: 10, UnitPrice: 100,
			Status: model.StatusReview, Issues: []string{"SKU discontinued"},
		},
		{
			ID: "li-3", Name: "Mobile Pedestal", SKU: "PED-1100", Quantity: 4, UnitPrice: 210,
			Status: model.StatusSuggestion,
			Options: []model.ReplacementOption{
				{SKU: "PED-1150", Name: "Mobile Pedestal v2", Price: 195},
				{SKU: "PED-1180", Name: "Mobile Pedestal XL", Price: 240},
			},
		},
	})
}

func newTestQueue() (*Queue, *lineitem.Store, *Ledger) {
	items := seedItems()
	ledger := seedLedger()
	q := NewQueue(Config{Ledger: ledger, Items: items})
	return q, items, ledger
}

func TestOpen_CompositionAndOrder(t *testing.T) {
	t.Parallel()
	q, _, _ := newTestQueue()

	open := q.Open()
	require.Len(t, open, 4)
	assert.Equal(t, "hdr-po", open[0].ID)
	assert.Equal(t, "rule-net", open[1].ID)
	assert.Equal(t, "line-li-2", open[2].ID)
	assert.Equal(t, "line-li-3", open[3].ID)
	assert.Equal(t, 4, q.OpenCount())
}

func TestDerive_SynthesizesSuggestion(t *testing.T) {
	t.Parallel()
	q, _, _ := newTestQueue()

	open := q.Open()
	d := open[2] // li-2: review, no suggestion, no options
	assert.Equal(t, model.SeverityHigh, d.Severity)
	assert.NotEmpty(t, d.Suggestion.Label, "review item without suggestion gets a synthesized one")
	assert.GreaterOrEqual(t, d.Suggestion.Confidence, 85)

	// Deterministic: deriving twice yields the same recommendation.
	again := q.Open()[2]
	assert.Equal(t, d.Suggestion, again.Suggestion)

	gen := suggest.NewGenerator()
	li, _ := seedItems().Get("li-2")
	want := gen.Generate(li)
	assert.Equal(t, want.SKU, d.Suggestion.Label)
}

func TestDerive_OptionsItem(t *testing.T) {
	t.Parallel()
	q, _, _ := newTestQueue()

	d := q.Open()[3]
	assert.True(t, d.HasOptions)
	assert.Equal(t, model.SeverityMedium, d.Severity)
}

func TestResolve_HeaderAccept(t *testing.T) {
	t.Parallel()
	q, _, ledger := newTestQueue()

	res, err := q.Resolve(ActionAccept, "")
	require.NoError(t, err)
	assert.True(t, res.Resolved)
	assert.Equal(t, "hdr-po", res.Item.ID)
	assert.Equal(t, 3, res.OpenCount)
	assert.Equal(t, 1, ledger.OpenCount())
}

func TestResolve_HeadOnly(t *testing.T) {
	t.Parallel()
	q, items, _ := newTestQueue()

	// Two resolutions clear the ledger; the third hits li-2.
	for i := 0; i < 2; i++ {
		_, err := q.Resolve(ActionAccept, "")
		require.NoError(t, err)
	}

	res, err := q.Resolve(ActionAccept, "")
	require.NoError(t, err)
	assert.Equal(t, "line-li-2", res.Item.ID)

	li, _ := items.Get("li-2")
	assert.Equal(t, model.StatusValidated, li.Status)
	assert.NotEqual(t, "CHR-2210", li.SKU, "accept swaps in the suggested SKU")
	assert.Nil(t, li.Issues)
}

func TestResolve_Keep(t *testing.T) {
	t.Parallel()
	items := seedItems()
	q := NewQueue(Config{Ledger: NewLedger(nil), Items: items})

	res, err := q.Resolve(ActionKeep, "")
	require.NoError(t, err)
	assert.Equal(t, "line-li-2", res.Item.ID)

	li, _ := items.Get("li-2")
	assert.Equal(t, model.StatusValidated, li.Status)
	assert.Equal(t, "CHR-2210", li.SKU, "keep leaves the item unchanged")
	assert.InDelta(t, 100.0, li.UnitPrice, 0.001)
}

func TestResolve_Manual(t *testing.T) {
	t.Parallel()
	items := seedItems()
	q := NewQueue(Config{Ledger: NewLedger(nil), Items: items})

	// Clear li-2 first; li-3 is then head.
	_, err := q.Resolve(ActionKeep, "")
	require.NoError(t, err)

	res, err := q.Resolve(ActionManual, "PED-1180")
	require.NoError(t, err)
	assert.True(t, res.Resolved)
	assert.True(t, res.Exhausted)

	li, _ := items.Get("li-3")
	assert.Equal(t, "PED-1180", li.SKU)
	assert.Equal(t, "Mobile Pedestal XL", li.Name)
	assert.InDelta(t, 240.0, li.UnitPrice, 0.001)
	assert.InDelta(t, 960.0, li.TotalPrice, 0.001)
}

func TestResolve_ManualOnHeaderRejected(t *testing.T) {
	t.Parallel()
	q, _, _ := newTestQueue()

	_, err := q.Resolve(ActionManual, "PED-1180")
	assert.Error(t, err)
	assert.Equal(t, 4, q.OpenCount(), "failed resolution leaves the queue intact")
}

func TestResolve_EmptyQueueIsNoOp(t *testing.T) {
	t.Parallel()
	q := NewQueue(Config{Ledger: NewLedger(nil), Items: lineitem.NewStore(nil)})

	res, err := q.Resolve(ActionAccept, "")
	require.NoError(t, err)
	assert.False(t, res.Resolved)
	assert.True(t, res.Exhausted)
	assert.Zero(t, res.OpenCount)
}

func TestAutoFixRemaining(t *testing.T) {
	t.Parallel()
	q, items, _ := newTestQueue()

	n, err := q.AutoFixRemaining(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Zero(t, q.OpenCount())

	// The options item resolved by its first option.
	li, _ := items.Get("li-3")
	assert.Equal(t, "PED-1150", li.SKU)
	assert.Equal(t, model.StatusValidated, li.Status)
}

func TestAutoFixRemaining_AbortsAtBoundary(t *testing.T) {
	t.Parallel()
	q, items, _ := newTestQueue()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := q.AutoFixRemaining(ctx)
	assert.Error(t, err)
	assert.Zero(t, n)

	// Nothing was partially mutated.
	li, _ := items.Get("li-2")
	assert.Equal(t, model.StatusReview, li.Status)
	assert.Equal(t, 4, q.OpenCount())
}

func TestResolve_SurchargePreserved(t *testing.T) {
	t.Parallel()
	items := seedItems()
	tier := "Extended Warranty"
	require.NoError(t, items.Update("li-2", lineitem.Patch{Warranty: &tier}))

	q := NewQueue(Config{
		Ledger: NewLedger(nil),
		Items:  items,
		Surcharge: func(tier string) float64 {
			if tier == "Extended Warranty" {
				return 50
			}
			return 0
		},
	})

	res, err := q.Resolve(ActionAccept, "")
	require.NoError(t, err)
	require.True(t, res.Resolved)

	li, _ := items.Get("li-2")
	assert.InDelta(t, li.BasePrice+50, li.UnitPrice, 0.001, "replacement price re-bases under the current tier")
}
