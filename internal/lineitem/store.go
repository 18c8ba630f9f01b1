// Package lineitem holds the canonical list of order assets and their
// mutable status and pricing fields.
package lineitem

import (
	"github.com/rotisserie/eris"

	"github.com/dealerworks/reconcile-cli/internal/model"
	"github.com/dealerworks/reconcile-cli/internal/money"
)

// Filter selects a status partition of the store. Attention and validated
// are disjoint and together cover every item.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterAttention Filter = "attention"
	FilterValidated Filter = "validated"
)

// Stats holds the derived display statistics for the item set.
type Stats struct {
	Total      int     `json:"total"`
	Attention  int     `json:"attention"`
	Validated  int     `json:"validated"`
	TotalValue float64 `json:"total_value"`
}

// Patch describes a partial update to a line item. Nil fields are left
// unchanged.
type Patch struct {
	Name       *string
	SKU        *string
	Quantity   *int
	BasePrice  *float64
	UnitPrice  *float64
	Warranty   *string
	Status     *model.ItemStatus
	CostCenter *string

	// ClearIssues removes the issue list, suggestion, and options; set when a
	// resolution validates the item.
	ClearIssues bool
}

// Store is the insertion-ordered collection of line items for one session.
// Every mutation re-derives TotalPrice from UnitPrice and Quantity so price
// fields are never mutually inconsistent.
type Store struct {
	order []string
	items map[string]*model.LineItem
}

// NewStore copies the raw items into a store, initializing BasePrice from
// UnitPrice where unset and recomputing totals.
func NewStore(items []model.LineItem) *Store {
	s := &Store{items: make(map[string]*model.LineItem, len(items))}
	for i := range items {
		li := items[i]
		if li.Warranty == "" {
			li.Warranty = model.DefaultWarranty
		}
		if li.BasePrice == 0 {
			li.BasePrice = li.UnitPrice
		}
		li.TotalPrice = money.Round(li.UnitPrice * float64(li.Quantity))
		s.order = append(s.order, li.ID)
		s.items[li.ID] = &li
	}
	return s
}

// Get returns a copy of the item with the given id.
func (s *Store) Get(id string) (model.LineItem, bool) {
	li, ok := s.items[id]
	if !ok {
		return model.LineItem{}, false
	}
	return *li, true
}

// List returns copies of all items in insertion order.
func (s *Store) List() []model.LineItem {
	return s.ListFiltered(FilterAll)
}

// ListFiltered returns copies of the items matching the filter, in insertion
// order.
func (s *Store) ListFiltered(f Filter) []model.LineItem {
	var out []model.LineItem
	for _, id := range s.order {
		li := s.items[id]
		switch f {
		case FilterAttention:
			if !li.NeedsAttention() {
				continue
			}
		case FilterValidated:
			if li.Status != model.StatusValidated {
				continue
			}
		}
		out = append(out, *li)
	}
	return out
}

// Update applies a patch to the item with the given id, preserving the
// price invariant. BasePrice is set-once: a patch cannot overwrite an
// already-set base price.
func (s *Store) Update(id string, p Patch) error {
	li, ok := s.items[id]
	if !ok {
		return eris.Errorf("lineitem: unknown item %s", id)
	}

	if p.Name != nil {
		li.Name = *p.Name
	}
	if p.SKU != nil {
		li.SKU = *p.SKU
	}
	if p.Quantity != nil {
		li.Quantity = *p.Quantity
	}
	if p.BasePrice != nil && li.BasePrice == 0 {
		li.BasePrice = *p.BasePrice
	}
	if p.UnitPrice != nil {
		li.UnitPrice = *p.UnitPrice
		if li.BasePrice == 0 {
			li.BasePrice = *p.UnitPrice
		}
	}
	if p.Warranty != nil {
		li.Warranty = *p.Warranty
	}
	if p.Status != nil {
		li.Status = *p.Status
	}
	if p.CostCenter != nil {
		li.CostCenter = *p.CostCenter
	}
	if p.ClearIssues {
		li.Issues = nil
		li.Suggestion = nil
		li.Options = nil
	}

	li.TotalPrice = money.Round(li.UnitPrice * float64(li.Quantity))
	return nil
}

// SetCostCenter assigns the cost-center tag of an item.
func (s *Store) SetCostCenter(id, value string) error {
	return s.Update(id, Patch{CostCenter: &value})
}

// ApplyReplacement swaps an item's SKU and pricing for an accepted
// suggestion. The new price becomes the item's base price and the given
// surcharge (for the item's current warranty tier) is layered on top. The
// item is validated and its issue data cleared.
func (s *Store) ApplyReplacement(id, sku string, price, surcharge float64) error {
	li, ok := s.items[id]
	if !ok {
		return eris.Errorf("lineitem: unknown item %s", id)
	}

	li.SKU = sku
	li.BasePrice = price
	li.UnitPrice = money.Round(price + surcharge)
	li.Status = model.StatusValidated
	li.Issues = nil
	li.Suggestion = nil
	li.Options = nil
	li.TotalPrice = money.Round(li.UnitPrice * float64(li.Quantity))
	return nil
}

// ApplyOption resolves an item by one of its manual replacement options,
// selected by SKU. The option's name, SKU, and price replace the item's
// fields and the item is validated.
func (s *Store) ApplyOption(id, optionSKU string, surcharge float64) error {
	li, ok := s.items[id]
	if !ok {
		return eris.Errorf("lineitem: unknown item %s", id)
	}

	for _, opt := range li.Options {
		if opt.SKU != optionSKU {
			continue
		}
		li.Name = opt.Name
		li.SKU = opt.SKU
		li.BasePrice = opt.Price
		li.UnitPrice = money.Round(opt.Price + surcharge)
		li.Status = model.StatusValidated
		li.Issues = nil
		li.Suggestion = nil
		li.Options = nil
		li.TotalPrice = money.Round(li.UnitPrice * float64(li.Quantity))
		return nil
	}
	return eris.Errorf("lineitem: item %s has no option %s", id, optionSKU)
}

// MarkValidated validates an item without changing its pricing, discarding
// any pending suggestion.
func (s *Store) MarkValidated(id string) error {
	status := model.StatusValidated
	return s.Update(id, Patch{Status: &status, ClearIssues: true})
}

// Stats derives the summary statistics from current state.
func (s *Store) Stats() Stats {
	var st Stats
	for _, id := range s.order {
		li := s.items[id]
		st.Total++
		if li.NeedsAttention() {
			st.Attention++
		} else {
			st.Validated++
		}
		st.TotalValue += li.TotalPrice
	}
	st.TotalValue = money.Round(st.TotalValue)
	return st
}

// Subtotal returns the sum of all item totals, the base for discount
// aggregation.
func (s *Store) Subtotal() float64 {
	return s.Stats().TotalValue
}
