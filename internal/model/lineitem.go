// Package model defines the core data types of the reconciliation engine.
package model

// ItemStatus represents the review state of a line item.
type ItemStatus string

const (
	StatusValidated  ItemStatus = "validated"
	StatusReview     ItemStatus = "review"
	StatusSuggestion ItemStatus = "suggestion"
)

// DefaultWarranty is the coverage tier every item starts on.
const DefaultWarranty = "Standard Warranty"

// Suggestion is a proposed replacement for a line item.
type Suggestion struct {
	SKU        string  `json:"sku" yaml:"sku"`
	Price      float64 `json:"price" yaml:"price"`
	Reason     string  `json:"reason" yaml:"reason"`
	Confidence int     `json:"confidence" yaml:"confidence"` // 0-100
}

// ReplacementOption is one manually selectable replacement, used when no
// single confident suggestion exists.
type ReplacementOption struct {
	SKU     string  `json:"sku" yaml:"sku"`
	Name    string  `json:"name" yaml:"name"`
	Price   float64 `json:"price" yaml:"price"`
	SubText string  `json:"sub_text,omitempty" yaml:"sub_text,omitempty"`
}

// LineItem is one purchasable asset on the order.
//
// BasePrice is the pre-warranty unit price and is set once; UnitPrice is
// always BasePrice plus the current warranty surcharge, and TotalPrice is
// UnitPrice times Quantity. The lineitem store recomputes the derived fields
// on every mutation.
type LineItem struct {
	ID         string              `json:"id" yaml:"id"`
	Name       string              `json:"name" yaml:"name"`
	SKU        string              `json:"sku" yaml:"sku"`
	Quantity   int                 `json:"quantity" yaml:"quantity"`
	CostCenter string              `json:"cost_center,omitempty" yaml:"cost_center,omitempty"`
	BasePrice  float64             `json:"base_price" yaml:"base_price"`
	UnitPrice  float64             `json:"unit_price" yaml:"unit_price"`
	TotalPrice float64             `json:"total_price" yaml:"total_price"`
	Status     ItemStatus          `json:"status" yaml:"status"`
	Issues     []string            `json:"issues,omitempty" yaml:"issues,omitempty"`
	Suggestion *Suggestion         `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
	Options    []ReplacementOption `json:"options,omitempty" yaml:"options,omitempty"`
	Warranty   string              `json:"warranty" yaml:"warranty"`
}

// NeedsAttention reports whether the item is awaiting operator resolution.
func (li LineItem) NeedsAttention() bool {
	return li.Status == StatusReview || li.Status == StatusSuggestion
}
