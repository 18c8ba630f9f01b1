package discrepancy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dealerworks/reconcile-cli/internal/lineitem"
	"github.com/dealerworks/reconcile-cli/internal/model"
	"github.com/dealerworks/reconcile-cli/internal/money"
	"github.com/dealerworks/reconcile-cli/internal/suggest"
)

// Action is an operator resolution applied to the head of the queue.
type Action string

const (
	ActionAccept Action = "accept"
	ActionKeep   Action = "keep"
	ActionManual Action = "manual"
)

// Result reports the outcome of a resolution attempt.
type Result struct {
	Resolved  bool              `json:"resolved"`   // false when the queue was already empty
	Exhausted bool              `json:"exhausted"`  // true once no open discrepancies remain
	Item      model.Discrepancy `json:"item"`       // the discrepancy that was resolved
	OpenCount int               `json:"open_count"` // open issues remaining across both sources
}

// SurchargeFunc returns the per-unit warranty surcharge for a tier, so a
// replacement price can be re-based under the item's current coverage.
type SurchargeFunc func(tier string) float64

// Queue merges the header/rule ledger with line-item discrepancies derived
// live from the item store. Ledger entries come first, then line items in
// store order; resolution is head-only, first-in-first-resolved.
type Queue struct {
	ledger    *Ledger
	items     *lineitem.Store
	gen       *suggest.Generator
	surcharge SurchargeFunc
	delay     time.Duration
}

// Config carries the queue's collaborators.
type Config struct {
	Ledger    *Ledger
	Items     *lineitem.Store
	Generator *suggest.Generator
	Surcharge SurchargeFunc

	// AutoFixDelay is the cosmetic pause between items during batch
	// auto-fix. It never overlaps mutations: items resolve strictly one at
	// a time.
	AutoFixDelay time.Duration
}

// NewQueue builds a queue over the given sources.
func NewQueue(cfg Config) *Queue {
	if cfg.Generator == nil {
		cfg.Generator = suggest.NewGenerator()
	}
	if cfg.Surcharge == nil {
		cfg.Surcharge = func(string) float64 { return 0 }
	}
	return &Queue{
		ledger:    cfg.Ledger,
		items:     cfg.Items,
		gen:       cfg.Generator,
		surcharge: cfg.Surcharge,
		delay:     cfg.AutoFixDelay,
	}
}

// Open returns every open discrepancy in resolution order: ledger entries
// first, then line-item discrepancies derived from the current item store.
func (q *Queue) Open() []model.Discrepancy {
	out := q.ledger.Open()
	for _, li := range q.items.ListFiltered(lineitem.FilterAttention) {
		out = append(out, q.derive(li))
	}
	return out
}

// Head returns the first open discrepancy, if any.
func (q *Queue) Head() (model.Discrepancy, bool) {
	open := q.Open()
	if len(open) == 0 {
		return model.Discrepancy{}, false
	}
	return open[0], true
}

// OpenCount is the gating total exposed to the workflow controller: ledger
// entries plus derived line-item discrepancies.
func (q *Queue) OpenCount() int {
	return q.ledger.OpenCount() + len(q.items.ListFiltered(lineitem.FilterAttention))
}

// derive builds the discrepancy for an item needing attention, synthesizing
// a suggestion when the item carries neither one nor an options list.
func (q *Queue) derive(li model.LineItem) model.Discrepancy {
	sug := li.Suggestion
	if sug == nil && len(li.Options) == 0 {
		generated := q.gen.Generate(li)
		sug = &generated
	}

	d := model.Discrepancy{
		ID:         "line-" + li.ID,
		Type:       model.DiscrepancyLineItem,
		Title:      fmt.Sprintf("Substitution needed: %s", li.Name),
		Severity:   model.SeverityMedium,
		ItemID:     li.ID,
		HasOptions: len(li.Options) > 0,
		Original: model.FieldValue{
			Label:   li.SKU,
			SubText: fmt.Sprintf("%s · qty %d @ %s", li.Name, li.Quantity, money.FormatUSD(li.UnitPrice)),
		},
	}
	if li.Status == model.StatusReview {
		d.Severity = model.SeverityHigh
		d.Description = strings.Join(li.Issues, "; ")
	}
	if sug != nil {
		d.Suggestion = model.SuggestedValue{
			Label:      sug.SKU,
			SubText:    money.FormatUSD(sug.Price) + "/unit",
			Reason:     sug.Reason,
			Confidence: sug.Confidence,
		}
	}
	return d
}

// Resolve applies an operator action to the head of the queue. Resolving an
// empty queue is not an error: the result reports Resolved=false and the
// caller re-surfaces the open count. optionSKU is consulted only for
// ActionManual.
func (q *Queue) Resolve(action Action, optionSKU string) (Result, error) {
	head, ok := q.Head()
	if !ok {
		return Result{Exhausted: true}, nil
	}

	if err := q.apply(head, action, optionSKU); err != nil {
		return Result{OpenCount: q.OpenCount()}, err
	}

	zap.L().Debug("discrepancy resolved",
		zap.String("id", head.ID),
		zap.String("type", string(head.Type)),
		zap.String("action", string(action)),
	)

	remaining := q.OpenCount()
	return Result{
		Resolved:  true,
		Exhausted: remaining == 0,
		Item:      head,
		OpenCount: remaining,
	}, nil
}

func (q *Queue) apply(d model.Discrepancy, action Action, optionSKU string) error {
	switch d.Type {
	case model.DiscrepancyHeader, model.DiscrepancyRule:
		// Acknowledgment only; accept and keep converge for seeded entries.
		if action == ActionManual {
			return eris.Errorf("discrepancy: %s entries have no manual options", d.Type)
		}
		q.ledger.Resolve(d.ID)
		return nil

	case model.DiscrepancyLineItem:
		switch action {
		case ActionAccept:
			li, ok := q.items.Get(d.ItemID)
			if !ok {
				return eris.Errorf("discrepancy: item %s not found", d.ItemID)
			}
			sug := li.Suggestion
			if sug == nil {
				if len(li.Options) > 0 {
					return eris.Errorf("discrepancy: item %s requires manual option selection", d.ItemID)
				}
				generated := q.gen.Generate(li)
				sug = &generated
			}
			return q.items.ApplyReplacement(d.ItemID, sug.SKU, sug.Price, q.surcharge(li.Warranty))

		case ActionKeep:
			return q.items.MarkValidated(d.ItemID)

		case ActionManual:
			li, ok := q.items.Get(d.ItemID)
			if !ok {
				return eris.Errorf("discrepancy: item %s not found", d.ItemID)
			}
			if len(li.Options) == 0 {
				return eris.Errorf("discrepancy: item %s has no manual options", d.ItemID)
			}
			return q.items.ApplyOption(d.ItemID, optionSKU, q.surcharge(li.Warranty))

		default:
			return eris.Errorf("discrepancy: unknown action %q", action)
		}

	default:
		return eris.Errorf("discrepancy: unknown type %q", d.Type)
	}
}

// AutoFixRemaining accepts every remaining open discrepancy sequentially in
// queue order, pausing the configured delay between items. Cancellation is
// honored at item boundaries only, so no item is ever left partially
// mutated. Items whose resolution requires a manual option selection are
// resolved by their first option. Returns the number resolved.
func (q *Queue) AutoFixRemaining(ctx context.Context) (int, error) {
	fixed := 0
	for {
		if err := ctx.Err(); err != nil {
			return fixed, eris.Wrap(err, "discrepancy: auto-fix aborted")
		}

		head, ok := q.Head()
		if !ok {
			return fixed, nil
		}

		action := ActionAccept
		optionSKU := ""
		if head.HasOptions {
			li, _ := q.items.Get(head.ItemID)
			action = ActionManual
			optionSKU = li.Options[0].SKU
		}

		if _, err := q.Resolve(action, optionSKU); err != nil {
			return fixed, err
		}
		fixed++

		if q.delay > 0 && q.OpenCount() > 0 {
			select {
			case <-ctx.Done():
				return fixed, eris.Wrap(ctx.Err(), "discrepancy: auto-fix aborted")
			case <-time.After(q.delay):
			}
		}
	}
}
