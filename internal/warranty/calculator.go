// Package warranty recomputes unit and extended prices when a coverage tier
// changes, re-basing from each item's base price so surcharges never compound.
package warranty

import (
	"github.com/rotisserie/eris"

	"github.com/dealerworks/reconcile-cli/internal/lineitem"
	"github.com/dealerworks/reconcile-cli/internal/money"
)

// Scope selects which items a tier change applies to.
type Scope string

const (
	ScopeAll    Scope = "all"
	ScopeSingle Scope = "single"
)

// DefaultSurcharges returns the per-unit surcharge for each coverage tier.
func DefaultSurcharges() map[string]float64 {
	return map[string]float64{
		"Standard Warranty":  0,
		"Extended Warranty":  50,
		"Premium Protection": 120,
	}
}

// Calculator applies warranty tiers to line items.
type Calculator struct {
	surcharges map[string]float64
}

// NewCalculator creates a Calculator. A nil or empty table falls back to
// DefaultSurcharges.
func NewCalculator(surcharges map[string]float64) *Calculator {
	if len(surcharges) == 0 {
		surcharges = DefaultSurcharges()
	}
	return &Calculator{surcharges: surcharges}
}

// Surcharge returns the per-unit surcharge for a tier.
func (c *Calculator) Surcharge(tier string) (float64, bool) {
	s, ok := c.surcharges[tier]
	return s, ok
}

// Apply sets the warranty tier for every item (ScopeAll) or for targetID
// (ScopeSingle) and recomputes unit and total prices. The new unit price is
// always basePrice + surcharge, never the already-surcharged unit price, so
// applying the same tier twice yields identical prices. Returns the number
// of items updated.
func (c *Calculator) Apply(s *lineitem.Store, tier string, scope Scope, targetID string) (int, error) {
	surcharge, ok := c.surcharges[tier]
	if !ok {
		return 0, eris.Errorf("warranty: unknown tier %q", tier)
	}

	var ids []string
	switch scope {
	case ScopeAll:
		for _, li := range s.List() {
			ids = append(ids, li.ID)
		}
	case ScopeSingle:
		if _, ok := s.Get(targetID); !ok {
			return 0, eris.Errorf("warranty: unknown item %s", targetID)
		}
		ids = []string{targetID}
	default:
		return 0, eris.Errorf("warranty: unknown scope %q", scope)
	}

	for _, id := range ids {
		li, _ := s.Get(id)
		base := li.BasePrice
		if base == 0 {
			base = li.UnitPrice
		}
		unit := money.Round(base + surcharge)
		if err := s.Update(id, lineitem.Patch{
			BasePrice: &base,
			UnitPrice: &unit,
			Warranty:  &tier,
		}); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}
