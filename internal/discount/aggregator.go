// Package discount reduces nested, toggleable percentage rules to one net
// discount amount and rate.
//
// The model is flat and cumulative: each enabled rule contributes
// subtotal * rate/100 on its own, with no ordering or mutual-exclusion
// dependency between rules.
package discount

import (
	"github.com/rotisserie/eris"

	"github.com/dealerworks/reconcile-cli/internal/model"
	"github.com/dealerworks/reconcile-cli/internal/money"
)

// Summary is the result of aggregating the enabled rules over a subtotal.
type Summary struct {
	Subtotal      float64 `json:"subtotal"`
	TotalDiscount float64 `json:"total_discount"`
	FinalTotal    float64 `json:"final_total"`
	EffectiveRate float64 `json:"effective_rate"` // percent
}

// Aggregator owns the discount sections of one session.
type Aggregator struct {
	sections []model.DiscountSection
}

// NewAggregator copies the given sections into an Aggregator.
func NewAggregator(sections []model.DiscountSection) *Aggregator {
	copied := make([]model.DiscountSection, len(sections))
	for i, sec := range sections {
		copied[i] = sec
		copied[i].Rules = append([]model.DiscountRule(nil), sec.Rules...)
	}
	return &Aggregator{sections: copied}
}

// Sections returns a copy of the current sections, in seed order. Ordering
// is presentational only and has no effect on computation.
func (a *Aggregator) Sections() []model.DiscountSection {
	out := make([]model.DiscountSection, len(a.sections))
	for i, sec := range a.sections {
		out[i] = sec
		out[i].Rules = append([]model.DiscountRule(nil), sec.Rules...)
	}
	return out
}

// Toggle flips a single rule and returns its new enabled state.
func (a *Aggregator) Toggle(ruleID string) (bool, error) {
	for i := range a.sections {
		for j := range a.sections[i].Rules {
			r := &a.sections[i].Rules[j]
			if r.ID == ruleID {
				r.Enabled = !r.Enabled
				return r.Enabled, nil
			}
		}
	}
	return false, eris.Errorf("discount: unknown rule %s", ruleID)
}

// SetEnabled forces a rule to a given state.
func (a *Aggregator) SetEnabled(ruleID string, enabled bool) error {
	for i := range a.sections {
		for j := range a.sections[i].Rules {
			r := &a.sections[i].Rules[j]
			if r.ID == ruleID {
				r.Enabled = enabled
				return nil
			}
		}
	}
	return eris.Errorf("discount: unknown rule %s", ruleID)
}

// ToggleSection sets every rule in a category to the given state and
// returns the number of rules changed.
func (a *Aggregator) ToggleSection(category model.DiscountCategory, enabled bool) int {
	changed := 0
	for i := range a.sections {
		if a.sections[i].Category != category {
			continue
		}
		for j := range a.sections[i].Rules {
			r := &a.sections[i].Rules[j]
			if r.Enabled != enabled {
				r.Enabled = enabled
				changed++
			}
		}
	}
	return changed
}

// Compute aggregates the enabled rules over the subtotal. A zero or
// negative subtotal yields a zero effective rate rather than a division
// error.
func (a *Aggregator) Compute(subtotal float64) Summary {
	var total float64
	for _, sec := range a.sections {
		for _, r := range sec.Rules {
			if r.Enabled {
				total += subtotal * r.RatePercent / 100
			}
		}
	}
	total = money.Round(total)

	sum := Summary{
		Subtotal:      money.Round(subtotal),
		TotalDiscount: total,
		FinalTotal:    money.Round(subtotal - total),
	}
	if subtotal > 0 {
		sum.EffectiveRate = total / subtotal * 100
	}
	return sum
}
