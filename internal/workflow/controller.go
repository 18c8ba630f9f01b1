// Package workflow gates navigation between the review, discount, and
// finalize stages of a reconciliation session.
package workflow

import (
	"go.uber.org/zap"

	"github.com/dealerworks/reconcile-cli/internal/model"
)

// IssueCounter reports the open issues gating the review stage.
type IssueCounter interface {
	OpenCount() int
}

// Controller is the finite-state machine owning the session's workflow
// cursor. No other component changes the step directly.
//
// Rejected transitions are not errors: Advance returns the unchanged step
// together with the live issue count so the caller re-surfaces it to the
// operator.
type Controller struct {
	step     model.WorkflowStep
	approved bool
	issues   IssueCounter
	emit     func(model.FinalizedOrder)
}

// NewController starts a controller at the review step.
func NewController(issues IssueCounter, emit func(model.FinalizedOrder)) *Controller {
	return &Controller{step: model.StepReview, issues: issues, emit: emit}
}

// Step returns the current workflow step.
func (c *Controller) Step() model.WorkflowStep {
	return c.step
}

// Approved reports whether the session has been finalized.
func (c *Controller) Approved() bool {
	return c.approved
}

// Advance moves one step forward. review→discount requires zero open
// issues; discount→finalize is unconditional; finalize does not advance
// further. Returns the resulting step and the open issue count at decision
// time.
func (c *Controller) Advance() (model.WorkflowStep, int) {
	open := c.issues.OpenCount()

	switch c.step {
	case model.StepReview:
		if open > 0 {
			zap.L().Info("advance rejected: open issues remain", zap.Int("open_issues", open))
			return c.step, open
		}
		c.step = model.StepDiscount
	case model.StepDiscount:
		c.step = model.StepFinalize
	}
	return c.step, open
}

// Back moves one step backward. Backward navigation is always permitted,
// never mutates item, discount, or warranty state, and is a no-op at
// review. An approved session stays approved.
func (c *Controller) Back() model.WorkflowStep {
	switch c.step {
	case model.StepFinalize:
		c.step = model.StepDiscount
	case model.StepDiscount:
		c.step = model.StepReview
	}
	return c.step
}

// Approve finalizes the session. Permitted only at the finalize step and
// only once; the snapshot is emitted to the order-creation collaborator on
// the first successful call. Returns false when the approval was rejected.
func (c *Controller) Approve(order model.FinalizedOrder) bool {
	if c.step != model.StepFinalize || c.approved {
		return false
	}
	c.approved = true
	if c.emit != nil {
		c.emit(order)
	}
	zap.L().Info("order approved",
		zap.String("order_id", order.ID),
		zap.Float64("total", order.Total),
		zap.Int("items", len(order.Items)),
	)
	return true
}
