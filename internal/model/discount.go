package model

// DiscountCategory groups discount rules for display.
type DiscountCategory string

const (
	DiscountContract   DiscountCategory = "contract"
	DiscountSpecial    DiscountCategory = "special"
	DiscountVolume     DiscountCategory = "volume"
	DiscountPromo      DiscountCategory = "promo"
	DiscountAdditional DiscountCategory = "additional"
)

// DiscountRule is one independently toggleable percentage-of-subtotal
// reduction. Rules are cumulative: each enabled rule contributes
// subtotal * rate/100 regardless of any other rule's state.
type DiscountRule struct {
	ID          string  `json:"id" yaml:"id"`
	Label       string  `json:"label" yaml:"label"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	RatePercent float64 `json:"rate_percent" yaml:"rate_percent"`
	Enabled     bool    `json:"enabled" yaml:"enabled"`
}

// DiscountSection is a named group of discount rules.
type DiscountSection struct {
	Category DiscountCategory `json:"category" yaml:"category"`
	Title    string           `json:"title" yaml:"title"`
	Rules    []DiscountRule   `json:"rules" yaml:"rules"`
}
