package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dealerworks/reconcile-cli/internal/model"
)

type stubCounter struct{ open int }

func (s *stubCounter) OpenCount() int { return s.open }

func TestAdvance_GatedByOpenIssues(t *testing.T) {
	t.Parallel()
	issues := &stubCounter{open: 3}
	c := NewController(issues, nil)

	step, open := c.Advance()
	assert.Equal(t, model.StepReview, step, "advance with open issues is a no-op")
	assert.Equal(t, 3, open)

	issues.open = 0
	step, open = c.Advance()
	assert.Equal(t, model.StepDiscount, step)
	assert.Zero(t, open)
}

func TestAdvance_DiscountToFinalizeUnconditional(t *testing.T) {
	t.Parallel()
	issues := &stubCounter{}
	c := NewController(issues, nil)

	c.Advance()
	step, _ := c.Advance()
	assert.Equal(t, model.StepFinalize, step)

	// Finalize is the last step.
	step, _ = c.Advance()
	assert.Equal(t, model.StepFinalize, step)
}

func TestBack_AlwaysPermitted(t *testing.T) {
	t.Parallel()
	c := NewController(&stubCounter{}, nil)
	c.Advance()
	c.Advance()

	assert.Equal(t, model.StepDiscount, c.Back())
	assert.Equal(t, model.StepReview, c.Back())
	assert.Equal(t, model.StepReview, c.Back(), "back at review is a no-op")
}

func TestApprove_OnlyAtFinalize(t *testing.T) {
	t.Parallel()
	var emitted []model.FinalizedOrder
	c := NewController(&stubCounter{}, func(o model.FinalizedOrder) { emitted = append(emitted, o) })

	assert.False(t, c.Approve(model.FinalizedOrder{ID: "q-1"}), "approval before finalize is rejected")

	c.Advance()
	c.Advance()
	assert.True(t, c.Approve(model.FinalizedOrder{ID: "q-1", Total: 930}))
	assert.True(t, c.Approved())

	// Irreversible and emitted exactly once.
	assert.False(t, c.Approve(model.FinalizedOrder{ID: "q-1"}))
	assert.Len(t, emitted, 1)
	assert.InDelta(t, 930.0, emitted[0].Total, 0.001)
}

func TestApprove_SurvivesBackNavigation(t *testing.T) {
	t.Parallel()
	c := NewController(&stubCounter{}, nil)
	c.Advance()
	c.Advance()
	assert.True(t, c.Approve(model.FinalizedOrder{}))

	c.Back()
	assert.True(t, c.Approved(), "approval is terminal for the session")
}

func TestAdvance_AfterResolvingLastIssue(t *testing.T) {
	t.Parallel()
	issues := &stubCounter{open: 1}
	c := NewController(issues, nil)

	step, _ := c.Advance()
	assert.Equal(t, model.StepReview, step)

	issues.open = 0
	step, _ = c.Advance()
	assert.Equal(t, model.StepDiscount, step, "same action succeeds once issues clear")
}
