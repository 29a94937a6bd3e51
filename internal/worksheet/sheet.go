// Package worksheet holds the per-session order worksheet: an editable draft
// of rows and the committed snapshot that calculations read.
package worksheet

import (
	"sync"

	"github.com/dukerupert/daigou/internal/pricing"
)

// DefaultRow is the row a new sheet starts with and AddRow appends.
func DefaultRow() pricing.LineItemInput {
	return pricing.LineItemInput{Quantity: 1}
}

// Sheet is one user's worksheet. Edits go to the draft; only Submit makes
// them visible to calculations. Safe for concurrent use.
type Sheet struct {
	mu        sync.Mutex
	draft     []pricing.LineItemInput
	committed []pricing.LineItemInput
	params    pricing.Params
}

// NewSheet creates a sheet holding one default row in both buffers.
func NewSheet(params pricing.Params) *Sheet {
	return &Sheet{
		draft:     []pricing.LineItemInput{DefaultRow()},
		committed: []pricing.LineItemInput{DefaultRow()},
		params:    params,
	}
}

// Draft returns a copy of the rows being edited.
func (s *Sheet) Draft() []pricing.LineItemInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.draft)
}

// Committed returns a copy of the rows last submitted.
func (s *Sheet) Committed() []pricing.LineItemInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.committed)
}

// SetDraft replaces the draft. Rows are coerced on the way in.
func (s *Sheet) SetDraft(rows []pricing.LineItemInput) {
	next := make([]pricing.LineItemInput, len(rows))
	for i, r := range rows {
		next[i] = pricing.Coerce(r)
	}

	s.mu.Lock()
	s.draft = next
	s.mu.Unlock()
}

// AddRow appends a default row to the draft and returns the new row count.
func (s *Sheet) AddRow() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = append(s.draft, DefaultRow())
	return len(s.draft)
}

// RemoveRow deletes draft row i.
func (s *Sheet) RemoveRow(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.draft) {
		return ErrRowOutOfRange
	}
	s.draft = append(s.draft[:i:i], s.draft[i+1:]...)
	return nil
}

// Submit copies the draft into the committed buffer and returns the number
// of committed rows.
func (s *Sheet) Submit() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed = clone(s.draft)
	return len(s.committed)
}

// Discard throws away uncommitted edits.
func (s *Sheet) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = clone(s.committed)
}

// Dirty reports whether the draft differs from the committed rows.
func (s *Sheet) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.draft) != len(s.committed) {
		return true
	}
	for i := range s.draft {
		if s.draft[i] != s.committed[i] {
			return true
		}
	}
	return false
}

// Params returns the sheet's calculation parameters.
func (s *Sheet) Params() pricing.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// SetParams replaces the calculation parameters.
func (s *Sheet) SetParams(p pricing.Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = p
}

func clone(rows []pricing.LineItemInput) []pricing.LineItemInput {
	out := make([]pricing.LineItemInput, len(rows))
	copy(out, rows)
	return out
}
