// Package session wires the line-item store, discrepancy queue, pricing
// calculators, and workflow controller into one operator session.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dealerworks/reconcile-cli/internal/discount"
	"github.com/dealerworks/reconcile-cli/internal/discrepancy"
	"github.com/dealerworks/reconcile-cli/internal/lineitem"
	"github.com/dealerworks/reconcile-cli/internal/model"
	"github.com/dealerworks/reconcile-cli/internal/seed"
	"github.com/dealerworks/reconcile-cli/internal/suggest"
	"github.com/dealerworks/reconcile-cli/internal/warranty"
	"github.com/dealerworks/reconcile-cli/internal/workflow"
)

// Options tunes session construction.
type Options struct {
	// Surcharges overrides the warranty tier table; nil uses the default.
	Surcharges map[string]float64

	// AutoFixDelay paces batch auto-fix between items.
	AutoFixDelay time.Duration

	// OnApprove receives the finalized snapshot exactly once.
	OnApprove func(model.FinalizedOrder)
}

// Session is one single-operator reconciliation of one order. Operator
// actions are serialized by an internal mutex; the engine itself performs
// no background mutation.
type Session struct {
	ID        string
	OrderID   string
	OrderName string
	CreatedAt time.Time

	mu        sync.Mutex
	items     *lineitem.Store
	queue     *discrepancy.Queue
	warranty  *warranty.Calculator
	discounts *discount.Aggregator
	ctrl      *workflow.Controller
	finalized *model.FinalizedOrder
}

// New builds a session from an order seed.
func New(order *seed.Order, opts Options) *Session {
	s := &Session{
		ID:        uuid.New().String(),
		OrderID:   order.ID,
		OrderName: order.Name,
		CreatedAt: time.Now().UTC(),
	}

	s.items = lineitem.NewStore(order.Items)
	s.warranty = warranty.NewCalculator(opts.Surcharges)
	s.discounts = discount.NewAggregator(order.Discounts)

	s.queue = discrepancy.NewQueue(discrepancy.Config{
		Ledger:    discrepancy.NewLedger(order.Discrepancies),
		Items:     s.items,
		Generator: suggest.NewGenerator(),
		Surcharge: func(tier string) float64 {
			sur, _ := s.warranty.Surcharge(tier)
			return sur
		},
		AutoFixDelay: opts.AutoFixDelay,
	})

	s.ctrl = workflow.NewController(s.queue, func(o model.FinalizedOrder) {
		s.finalized = &o
		if opts.OnApprove != nil {
			opts.OnApprove(o)
		}
	})

	return s
}

// Items returns the items matching the filter.
func (s *Session) Items(f lineitem.Filter) []model.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.ListFiltered(f)
}

// SetCostCenter assigns an item's cost-center tag.
func (s *Session) SetCostCenter(itemID, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.SetCostCenter(itemID, value)
}

// Queue returns the open discrepancies in resolution order.
func (s *Session) Queue() []model.Discrepancy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Open()
}

// Resolve applies an operator action to the head of the queue.
func (s *Session) Resolve(action discrepancy.Action, optionSKU string) (discrepancy.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Resolve(action, optionSKU)
}

// AutoFix accepts every remaining open discrepancy in queue order.
func (s *Session) AutoFix(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.AutoFixRemaining(ctx)
}

// ApplyWarranty changes the coverage tier for all items or a single one.
func (s *Session) ApplyWarranty(tier string, scope warranty.Scope, targetID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.warranty.Apply(s.items, tier, scope, targetID)
}

// Discounts returns the current discount sections.
func (s *Session) Discounts() []model.DiscountSection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discounts.Sections()
}

// ToggleDiscount flips a single discount rule.
func (s *Session) ToggleDiscount(ruleID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discounts.Toggle(ruleID)
}

// EnableDiscount forces a rule on or off.
func (s *Session) EnableDiscount(ruleID string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discounts.SetEnabled(ruleID, enabled)
}

// ToggleDiscountSection sets every rule in a category.
func (s *Session) ToggleDiscountSection(category model.DiscountCategory, enabled bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discounts.ToggleSection(category, enabled)
}

// Pricing aggregates the enabled discounts over the live subtotal.
func (s *Session) Pricing() discount.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discounts.Compute(s.items.Subtotal())
}

// Advance moves the workflow one step forward, subject to the review gate.
func (s *Session) Advance() (model.WorkflowStep, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Advance()
}

// Back moves the workflow one step backward without mutating any state.
func (s *Session) Back() model.WorkflowStep {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Back()
}

// Approve finalizes the session, emitting the snapshot on first success.
// The returned order is nil when approval was rejected.
func (s *Session) Approve() (*model.FinalizedOrder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctrl.Step() != model.StepFinalize || s.ctrl.Approved() {
		return s.finalized, false
	}

	pricing := s.discounts.Compute(s.items.Subtotal())
	order := model.FinalizedOrder{
		ID:            uuid.New().String(),
		SessionID:     s.ID,
		OrderName:     s.OrderName,
		Items:         s.items.List(),
		Subtotal:      pricing.Subtotal,
		TotalDiscount: pricing.TotalDiscount,
		Total:         pricing.FinalTotal,
		EffectiveRate: pricing.EffectiveRate,
		ApprovedAt:    time.Now().UTC(),
	}

	if !s.ctrl.Approve(order) {
		return s.finalized, false
	}
	return s.finalized, true
}

// Finalized returns the emitted snapshot, if the session was approved.
func (s *Session) Finalized() *model.FinalizedOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalized
}

// Summary derives the display statistics from current state.
func (s *Session) Summary() model.OrderSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.items.Stats()
	return model.OrderSummary{
		Total:      st.Total,
		Attention:  st.Attention,
		Validated:  st.Validated,
		TotalValue: st.TotalValue,
		OpenIssues: s.queue.OpenCount(),
		Step:       s.ctrl.Step(),
		Approved:   s.ctrl.Approved(),
	}
}
