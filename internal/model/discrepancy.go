package model

// DiscrepancyType identifies the source of a discrepancy.
type DiscrepancyType string

const (
	DiscrepancyHeader   DiscrepancyType = "header"
	DiscrepancyRule     DiscrepancyType = "rule"
	DiscrepancyLineItem DiscrepancyType = "line_item"
)

// Severity grades how urgent a discrepancy is.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// FieldValue is the as-extracted value shown on the left side of a
// resolution card.
type FieldValue struct {
	Label   string `json:"label" yaml:"label"`
	SubText string `json:"sub_text,omitempty" yaml:"sub_text,omitempty"`
}

// SuggestedValue is the proposed correction shown on the right side of a
// resolution card.
type SuggestedValue struct {
	Label      string `json:"label" yaml:"label"`
	SubText    string `json:"sub_text,omitempty" yaml:"sub_text,omitempty"`
	Reason     string `json:"reason" yaml:"reason"`
	Confidence int    `json:"confidence" yaml:"confidence"` // 0-100
}

// Discrepancy is a single unit of work in the resolution queue. It exists
// only while open; resolution removes it from its queue.
type Discrepancy struct {
	ID          string          `json:"id" yaml:"id"`
	Type        DiscrepancyType `json:"type" yaml:"type"`
	Title       string          `json:"title" yaml:"title"`
	Description string          `json:"description" yaml:"description"`
	Severity    Severity        `json:"severity" yaml:"severity"`
	Original    FieldValue      `json:"original" yaml:"original"`
	Suggestion  SuggestedValue  `json:"suggestion" yaml:"suggestion"`

	// ItemID links a line_item discrepancy to its line item. Empty for
	// header and rule discrepancies.
	ItemID string `json:"item_id,omitempty" yaml:"item_id,omitempty"`

	// HasOptions marks a line_item discrepancy whose item carries a manual
	// replacement list instead of a single confident suggestion.
	HasOptions bool `json:"has_options,omitempty" yaml:"-"`
}
