package model

import "time"

// WorkflowStep is the coarse-grained stage of a reconciliation session.
type WorkflowStep string

const (
	StepReview   WorkflowStep = "review"
	StepDiscount WorkflowStep = "discount"
	StepFinalize WorkflowStep = "finalize"
)

// OrderSummary holds the derived display statistics for a session. It is
// recomputed from current state on every read, never cached.
type OrderSummary struct {
	Total      int          `json:"total"`
	Attention  int          `json:"attention"`
	Validated  int          `json:"validated"`
	TotalValue float64      `json:"total_value"`
	OpenIssues int          `json:"open_issues"`
	Step       WorkflowStep `json:"step"`
	Approved   bool         `json:"approved"`
}

// FinalizedOrder is the snapshot emitted exactly once when the operator
// approves the session.
type FinalizedOrder struct {
	ID            string     `json:"id"`
	SessionID     string     `json:"session_id"`
	OrderName     string     `json:"order_name"`
	Items         []LineItem `json:"items"`
	Subtotal      float64    `json:"subtotal"`
	TotalDiscount float64    `json:"total_discount"`
	Total         float64    `json:"total"`
	EffectiveRate float64    `json:"effective_rate"`
	ApprovedAt    time.Time  `json:"approved_at"`
}
