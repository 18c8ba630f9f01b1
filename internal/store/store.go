// Package store persists reconciliation sessions and finalized orders.
//
// The live engine is in-memory and single-session; the store is the
// collaborator surface that keeps snapshots for history commands and hands
// finalized orders to downstream order creation.
package store

import (
	"context"
	"time"

	"github.com/dealerworks/reconcile-cli/internal/model"
)

// SessionRecord is a point-in-time snapshot of a session.
type SessionRecord struct {
	ID         string             `json:"id"`
	OrderID    string             `json:"order_id"`
	OrderName  string             `json:"order_name"`
	Step       model.WorkflowStep `json:"step"`
	Approved   bool               `json:"approved"`
	OpenIssues int                `json:"open_issues"`
	Items      []model.LineItem   `json:"items"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// SessionFilter specifies criteria for listing sessions.
type SessionFilter struct {
	Approved *bool `json:"approved,omitempty"`
	Limit    int   `json:"limit,omitempty"`
}

// Store defines the persistence interface for the reconciliation engine.
type Store interface {
	// Sessions
	SaveSession(ctx context.Context, rec SessionRecord) error
	GetSession(ctx context.Context, id string) (*SessionRecord, error)
	ListSessions(ctx context.Context, filter SessionFilter) ([]SessionRecord, error)

	// Finalized orders
	SaveOrder(ctx context.Context, order model.FinalizedOrder) error
	GetOrder(ctx context.Context, id string) (*model.FinalizedOrder, error)
	ListOrders(ctx context.Context, limit int) ([]model.FinalizedOrder, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
