// Package seed loads reconciliation order files: the raw line items,
// header/rule discrepancy seeds, and discount sections a session starts
// from.
package seed

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/dealerworks/reconcile-cli/internal/model"
)

// Order is the parsed input handed to the engine by the document-extraction
// collaborator.
type Order struct {
	ID            string                  `yaml:"id" json:"id"`
	Name          string                  `yaml:"name" json:"name"`
	Dealer        string                  `yaml:"dealer,omitempty" json:"dealer,omitempty"`
	Items         []model.LineItem        `yaml:"items" json:"items"`
	Discrepancies []model.Discrepancy     `yaml:"discrepancies,omitempty" json:"discrepancies,omitempty"`
	Discounts     []model.DiscountSection `yaml:"discounts,omitempty" json:"discounts,omitempty"`
}

// Load reads and validates an order file.
func Load(path string) (*Order, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "seed: read %s", path)
	}

	var o Order
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, eris.Wrapf(err, "seed: parse %s", path)
	}

	if err := o.Validate(); err != nil {
		return nil, err
	}
	return &o, nil
}

// Validate checks structural invariants of an order seed.
func (o *Order) Validate() error {
	if o.ID == "" {
		return eris.New("seed: order id is required")
	}
	if len(o.Items) == 0 {
		return eris.Errorf("seed: order %s has no items", o.ID)
	}

	seen := make(map[string]bool, len(o.Items))
	for _, li := range o.Items {
		if li.ID == "" {
			return eris.Errorf("seed: order %s has an item without id", o.ID)
		}
		if seen[li.ID] {
			return eris.Errorf("seed: duplicate item id %s", li.ID)
		}
		seen[li.ID] = true

		if li.Quantity <= 0 {
			return eris.Errorf("seed: item %s has non-positive quantity %d", li.ID, li.Quantity)
		}
		if li.UnitPrice < 0 {
			return eris.Errorf("seed: item %s has negative unit price", li.ID)
		}
		switch li.Status {
		case model.StatusValidated, model.StatusReview, model.StatusSuggestion:
		default:
			return eris.Errorf("seed: item %s has unknown status %q", li.ID, li.Status)
		}
	}

	for _, d := range o.Discrepancies {
		switch d.Type {
		case model.DiscrepancyHeader, model.DiscrepancyRule, model.DiscrepancyLineItem:
		default:
			return eris.Errorf("seed: discrepancy %s has unknown type %q", d.ID, d.Type)
		}
	}

	for _, sec := range o.Discounts {
		for _, r := range sec.Rules {
			if r.RatePercent < 0 || r.RatePercent > 100 {
				return eris.Errorf("seed: discount rule %s rate %.2f out of range", r.ID, r.RatePercent)
			}
		}
	}
	return nil
}
