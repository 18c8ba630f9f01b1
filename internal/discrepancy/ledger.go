// Package discrepancy unifies header-level, business-rule, and line-item
// issues into one ordered resolution queue with accept/keep/manual
// semantics.
package discrepancy

import "github.com/dealerworks/reconcile-cli/internal/model"

// Ledger is the directly-maintained list of header and rule discrepancies.
// It lives independently of the line-item store: line-item discrepancies are
// derived, ledger entries are seeded.
type Ledger struct {
	entries []model.Discrepancy
}

// NewLedger copies the seeded header/rule discrepancies in their given
// order. Line-item seeds are ignored; those derive from the item store.
func NewLedger(seeds []model.Discrepancy) *Ledger {
	l := &Ledger{}
	for _, d := range seeds {
		if d.Type == model.DiscrepancyLineItem {
			continue
		}
		l.entries = append(l.entries, d)
	}
	return l
}

// Open returns the open entries in order.
func (l *Ledger) Open() []model.Discrepancy {
	return append([]model.Discrepancy(nil), l.entries...)
}

// OpenCount returns the number of open entries.
func (l *Ledger) OpenCount() int {
	return len(l.entries)
}

// Resolve removes an entry. Resolution of header and rule discrepancies is
// an acknowledgment; there is no entity to mutate. Returns false if the id
// is not open.
func (l *Ledger) Resolve(id string) bool {
	for i, d := range l.entries {
		if d.ID == id {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return true
		}
	}
	return false
}
