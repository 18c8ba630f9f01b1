package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealerworks/reconcile-cli/internal/discrepancy"
	"github.com/dealerworks/reconcile-cli/internal/lineitem"
	"github.com/dealerworks/reconcile-cli/internal/model"
	"github.com/dealerworks/reconcile-cli/internal/seed"
	"github.com/dealerworks/reconcile-cli/internal/warranty"
)

func newDemoSession(opts Options) *Session {
	return New(seed.Demo(), opts)
}

func TestSummary_InitialState(t *testing.T) {
	t.Parallel()
	s := newDemoSession(Options{})

	sum := s.Summary()
	assert.Equal(t, 5, sum.Total)
	assert.Equal(t, 3, sum.Attention)
	assert.Equal(t, 2, sum.Validated)
	assert.Equal(t, 5, sum.OpenIssues) // 2 ledger + 3 line items
	assert.Equal(t, model.StepReview, sum.Step)
	assert.False(t, sum.Approved)
}

func TestAdvance_BlockedUntilQueueEmpty(t *testing.T) {
	t.Parallel()
	s := newDemoSession(Options{})

	step, open := s.Advance()
	assert.Equal(t, model.StepReview, step)
	assert.Equal(t, 5, open)

	n, err := s.AutoFix(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	step, open = s.Advance()
	assert.Equal(t, model.StepDiscount, step)
	assert.Zero(t, open)
}

func TestEndToEnd_ApproveEmitsOnce(t *testing.T) {
	t.Parallel()
	var emitted []model.FinalizedOrder
	s := newDemoSession(Options{OnApprove: func(o model.FinalizedOrder) { emitted = append(emitted, o) }})

	_, err := s.AutoFix(context.Background())
	require.NoError(t, err)

	_, err = s.ApplyWarranty("Extended Warranty", warranty.ScopeAll, "")
	require.NoError(t, err)

	_, err = s.ToggleDiscount("contract-dealer")
	require.NoError(t, err)

	s.Advance()
	s.Advance()

	order, ok := s.Approve()
	require.True(t, ok)
	require.NotNil(t, order)
	assert.Len(t, emitted, 1)
	assert.Equal(t, order.ID, emitted[0].ID)
	assert.Len(t, order.Items, 5)

	pricing := s.Pricing()
	assert.InDelta(t, pricing.FinalTotal, order.Total, 0.001)
	assert.InDelta(t, pricing.Subtotal, order.Subtotal, 0.001)

	// Second approval is rejected and emits nothing.
	_, ok = s.Approve()
	assert.False(t, ok)
	assert.Len(t, emitted, 1)
	assert.True(t, s.Summary().Approved)
}

func TestApprove_RejectedBeforeFinalize(t *testing.T) {
	t.Parallel()
	s := newDemoSession(Options{})

	order, ok := s.Approve()
	assert.False(t, ok)
	assert.Nil(t, order)
}

func TestBack_NonDestructive(t *testing.T) {
	t.Parallel()
	s := newDemoSession(Options{})

	_, err := s.AutoFix(context.Background())
	require.NoError(t, err)
	_, err = s.ApplyWarranty("Premium Protection", warranty.ScopeAll, "")
	require.NoError(t, err)
	_, err = s.ToggleDiscount("promo-q3")
	require.NoError(t, err)

	s.Advance()
	before := s.Pricing()
	itemsBefore := s.Items(lineitem.FilterAll)

	s.Back()
	s.Advance()

	assert.Equal(t, before, s.Pricing())
	assert.Equal(t, itemsBefore, s.Items(lineitem.FilterAll))
}

func TestResolve_ManualThroughSession(t *testing.T) {
	t.Parallel()
	s := newDemoSession(Options{})

	// Resolve down to li-4 (ledger 2 + li-2 + li-3 ahead of it).
	for i := 0; i < 4; i++ {
		res, err := s.Resolve(discrepancy.ActionAccept, "")
		require.NoError(t, err)
		require.True(t, res.Resolved)
	}

	head := s.Queue()[0]
	require.True(t, head.HasOptions)

	res, err := s.Resolve(discrepancy.ActionManual, "MSP-1180")
	require.NoError(t, err)
	assert.True(t, res.Exhausted)

	items := s.Items(lineitem.FilterAll)
	var li model.LineItem
	for _, it := range items {
		if it.ID == "li-4" {
			li = it
		}
	}
	assert.Equal(t, "MSP-1180", li.SKU)
	assert.InDelta(t, 240.0, li.UnitPrice, 0.001)
	assert.InDelta(t, 2880.0, li.TotalPrice, 0.001)
}

func TestWarrantySurvivesResolution(t *testing.T) {
	t.Parallel()
	s := newDemoSession(Options{})

	_, err := s.ApplyWarranty("Extended Warranty", warranty.ScopeAll, "")
	require.NoError(t, err)

	_, err = s.AutoFix(context.Background())
	require.NoError(t, err)

	for _, li := range s.Items(lineitem.FilterAll) {
		assert.Equal(t, "Extended Warranty", li.Warranty, "item %s", li.ID)
		assert.InDelta(t, li.BasePrice+50, li.UnitPrice, 0.001, "item %s keeps its surcharge through resolution", li.ID)
	}
}

func TestPricing_RecomputedFromLiveSubtotal(t *testing.T) {
	t.Parallel()
	s := newDemoSession(Options{})

	before := s.Pricing()

	_, err := s.ApplyWarranty("Premium Protection", warranty.ScopeAll, "")
	require.NoError(t, err)

	after := s.Pricing()
	assert.Greater(t, after.Subtotal, before.Subtotal, "pricing reads the current subtotal, never a cached one")
	assert.InDelta(t, before.EffectiveRate, after.EffectiveRate, 0.001, "rate depends only on enabled rules")
}

func TestSetCostCenter(t *testing.T) {
	t.Parallel()
	s := newDemoSession(Options{})

	require.NoError(t, s.SetCostCenter("li-1", "HQ-OPS"))
	for _, li := range s.Items(lineitem.FilterAll) {
		if li.ID == "li-1" {
			assert.Equal(t, "HQ-OPS", li.CostCenter)
		}
	}
}
