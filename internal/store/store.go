// Package store holds the canonical snapshot: the sales and returns tables
// produced by one ingestion run, plus the session's global filter.
// Snapshots are immutable; re-upload swaps the pointer atomically and
// in-flight work keeps whatever snapshot it captured.
package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/calendar"
	"github.com/IGORVINICIUSDEASSIS/realh-sub000/internal/model"
)

// Snapshot is one immutable ingestion result.
type Snapshot struct {
	ID        string
	CreatedAt time.Time
	Sales     *model.Table
	Returns   *model.Table
	Binding   model.Binding
	Calendar  *calendar.Calendar
}

// NewSnapshot builds a snapshot. A nil returns table is replaced by an
// empty one sharing the sales binding, so views never branch on nil.
func NewSnapshot(sales, returns *model.Table, cal *calendar.Calendar) *Snapshot {
	if returns == nil {
		returns = &model.Table{Kind: model.KindReturns, Binding: sales.Binding}
	}
	return &Snapshot{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		Sales:     sales,
		Returns:   returns,
		Binding:   sales.Binding,
		Calendar:  cal,
	}
}

// Table returns the table of the given kind.
func (s *Snapshot) Table(kind model.Kind) (*model.Table, error) {
	switch kind {
	case model.KindSales:
		return s.Sales, nil
	case model.KindReturns:
		return s.Returns, nil
	}
	return nil, fmt.Errorf("unknown table kind %q", kind)
}

// Clause is one global-filter predicate: role ∈ Values, or a
// commercial-month range when From/To are set on the date role.
type Clause struct {
	Role   model.Role    `json:"role"`
	Values []string      `json:"values,omitempty"`
	From   *calendar.Key `json:"from,omitempty"`
	To     *calendar.Key `json:"to,omitempty"`
}

func (c Clause) admits(r model.Row) bool {
	if c.From != nil && r.Month.Before(*c.From) {
		return false
	}
	if c.To != nil && c.To.Before(r.Month) {
		return false
	}
	if len(c.Values) == 0 {
		return true
	}
	v := r.Dim(c.Role)
	for _, want := range c.Values {
		if v == want {
			return true
		}
	}
	return false
}

// Store is the only shared state in the system: reader-many/writer-one
// over a copy-on-write snapshot pointer.
type Store struct {
	mu     sync.RWMutex
	snap   *Snapshot
	filter []Clause
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// Swap installs a new snapshot. Subsequent View/Raw calls observe it
// atomically; readers of the old snapshot are unaffected.
func (s *Store) Swap(snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
}

// Snapshot returns the current snapshot, if any.
func (s *Store) Snapshot() (*Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap, s.snap != nil
}

// SetFilter replaces the global filter.
func (s *Store) SetFilter(clauses []Clause) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = append([]Clause(nil), clauses...)
}

// ClearFilter removes every clause.
func (s *Store) ClearFilter() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = nil
}

// Filter returns a copy of the current clauses.
func (s *Store) Filter() []Clause {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Clause(nil), s.filter...)
}

// Raw returns the pre-filter table of the given kind.
func (s *Store) Raw(kind model.Kind) (*model.Table, error) {
	snap, ok := s.Snapshot()
	if !ok {
		return nil, fmt.Errorf("no data ingested")
	}
	return snap.Table(kind)
}

// View returns the snapshot table intersected with the global filter.
func (s *Store) View(kind model.Kind) (*model.Table, error) {
	s.mu.RLock()
	snap := s.snap
	filter := s.filter
	s.mu.RUnlock()

	if snap == nil {
		return nil, fmt.Errorf("no data ingested")
	}
	table, err := snap.Table(kind)
	if err != nil {
		return nil, err
	}
	if len(filter) == 0 {
		return table, nil
	}

	kept := make([]model.Row, 0, len(table.Rows))
outer:
	for _, r := range table.Rows {
		for _, c := range filter {
			if !c.admits(r) {
				continue outer
			}
		}
		kept = append(kept, r)
	}
	return table.Subset(kept), nil
}
