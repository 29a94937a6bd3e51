package worksheet

import (
	"sync"
	"time"

	"github.com/dukerupert/daigou/internal/pricing"
)

type entry struct {
	sheet      *Sheet
	lastAccess time.Time
}

// Store keeps sheets in memory keyed by session id. Sheets do not survive a
// restart.
type Store struct {
	mu       sync.Mutex
	sheets   map[string]*entry
	defaults pricing.Params
	now      func() time.Time
}

// NewStore creates an empty store. New sheets start with defaults.
func NewStore(defaults pricing.Params) *Store {
	return NewStoreWithClock(defaults, time.Now)
}

// NewStoreWithClock is NewStore with an injectable clock.
func NewStoreWithClock(defaults pricing.Params, now func() time.Time) *Store {
	return &Store{
		sheets:   make(map[string]*entry),
		defaults: defaults,
		now:      now,
	}
}

// GetOrCreate returns the sheet for id, creating it when missing.
// created reports whether a new sheet was made.
func (s *Store) GetOrCreate(id string) (sheet *Sheet, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.sheets[id]; ok {
		e.lastAccess = s.now()
		return e.sheet, false
	}

	e := &entry{sheet: NewSheet(s.defaults), lastAccess: s.now()}
	s.sheets[id] = e
	return e.sheet, true
}

// Prune drops sheets not accessed within olderThan and returns how many
// were removed.
func (s *Store) Prune(olderThan time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-olderThan)
	removed := 0
	for id, e := range s.sheets {
		if e.lastAccess.Before(cutoff) {
			delete(s.sheets, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sheets.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sheets)
}

// Defaults returns the parameters new sheets start with.
func (s *Store) Defaults() pricing.Params {
	return s.defaults
}
