// Package store owns the in-memory category and transaction collections and
// exposes the mutation API over them. Persistence is a side effect invoked by
// the caller after each mutation, not baked into the store itself, which keeps
// the core storage-agnostic and testable without a real backend.
package store

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/core"
)

// ErrNotFound signals a lookup miss. Callers treat it as a no-op condition,
// never as a fatal error.
var ErrNotFound = errors.New("not found")

// Store is the ground truth for entities and settings. Handlers run on
// separate goroutines, so access is mutex-guarded; there is still a single
// logical writer and no transactional isolation.
type Store struct {
	mu            sync.Mutex
	categories    []core.Category
	transactions  []core.Transaction
	monthlyIncome core.Money
	currency      string
	theme         string
	hasOnboarded  bool

	now   func() time.Time
	newID func() string
}

func New() *Store {
	s := &Store{
		now:   time.Now,
		newID: uuid.NewString,
	}
	s.Restore(DefaultState())
	return s
}

// WithClock replaces the store's clock. Intended for tests that exercise the
// default-date heuristic.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Restore replaces the store contents with the given snapshot, filling
// missing fields with defaults.
func (s *Store) Restore(st State) {
	st = mergeDefaults(st)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = append([]core.Category(nil), st.Categories...)
	s.transactions = append([]core.Transaction(nil), st.Transactions...)
	s.monthlyIncome = st.MonthlyIncome
	s.currency = st.Currency
	s.theme = st.Theme
	s.hasOnboarded = st.HasOnboarded
}

// Snapshot returns a deep copy of the current state for persistence.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Categories:    append([]core.Category(nil), s.categories...),
		Transactions:  append([]core.Transaction(nil), s.transactions...),
		MonthlyIncome: s.monthlyIncome,
		Currency:      s.currency,
		Theme:         s.theme,
		HasOnboarded:  s.hasOnboarded,
	}
}

// TransactionInput is the create payload. Date is optional: when zero, the
// store applies the default-date heuristic for the viewed month.
type TransactionInput struct {
	Amount      core.Money
	CategoryID  string
	Description string
	Date        time.Time
	Type        core.TransactionType
	IsRecurring bool
	Recurrence  core.Recurrence
}

// TransactionPatch carries the fields of an update; nil fields are left
// untouched. In particular the master date (the recurrence anchor) is
// preserved unless the patch sets it explicitly.
type TransactionPatch struct {
	Amount      *core.Money
	CategoryID  *string
	Description *string
	Date        *time.Time
	Type        *core.TransactionType
	IsRecurring *bool
	Recurrence  *core.Recurrence
}

// CreateTransaction persists a new master record. Income transactions are
// forced onto the income sentinel category; recurrence is kept only when the
// record is flagged recurring. When no date is given: "now" if the viewed
// month is the real current month, otherwise the 15th of the viewed month at
// midnight, so manually added historical entries land mid-month away from
// day-of-month edge cases.
func (s *Store) CreateTransaction(in TransactionInput, viewYear int, viewMonth time.Month) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	date := in.Date
	if date.IsZero() {
		now := s.now()
		if now.Year() == viewYear && now.Month() == viewMonth {
			date = now
		} else {
			date = time.Date(viewYear, viewMonth, 15, 0, 0, 0, 0, now.Location())
		}
	}

	t := core.Transaction{
		ID:          s.newID(),
		Amount:      in.Amount,
		CategoryID:  in.CategoryID,
		Description: strings.TrimSpace(in.Description),
		Date:        date,
		Type:        in.Type,
		IsRecurring: in.IsRecurring,
		Recurrence:  in.Recurrence,
	}
	if t.Type == core.Income {
		t.CategoryID = core.IncomeCategoryID
	}
	if t.IsRecurring {
		if t.Recurrence == "" || t.Recurrence == core.RecurrenceNone {
			t.Recurrence = core.RecurrenceMonthly
		}
	} else {
		t.Recurrence = core.RecurrenceNone
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	s.transactions = append(s.transactions, t)
	return t, nil
}

// UpdateTransaction edits the master record with the given id. The id always
// refers to the master, never to a projected instance; edits propagate to all
// projections because projections are recomputed from the master.
func (s *Store) UpdateTransaction(id string, patch TransactionPatch) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findTransaction(id)
	if idx < 0 {
		return core.Transaction{}, ErrNotFound
	}

	t := s.transactions[idx]
	if patch.Amount != nil {
		t.Amount = *patch.Amount
	}
	if patch.CategoryID != nil {
		t.CategoryID = *patch.CategoryID
	}
	if patch.Description != nil {
		t.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Date != nil {
		t.Date = *patch.Date
	}
	if patch.Type != nil {
		t.Type = *patch.Type
	}
	if patch.IsRecurring != nil {
		t.IsRecurring = *patch.IsRecurring
	}
	if patch.Recurrence != nil {
		t.Recurrence = *patch.Recurrence
	}
	if t.Type == core.Income {
		t.CategoryID = core.IncomeCategoryID
	}
	if t.IsRecurring {
		if t.Recurrence == "" || t.Recurrence == core.RecurrenceNone {
			t.Recurrence = core.RecurrenceMonthly
		}
	} else {
		t.Recurrence = core.RecurrenceNone
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	s.transactions[idx] = t
	return t, nil
}

// DeleteTransaction removes the master; every projection across all months
// disappears with it. Deleting an unknown id is a no-op.
func (s *Store) DeleteTransaction(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findTransaction(id)
	if idx < 0 {
		return false
	}
	s.transactions = append(s.transactions[:idx], s.transactions[idx+1:]...)
	return true
}

// Transactions returns a copy of all master records.
func (s *Store) Transactions() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.transactions...)
}

// ProjectMonth returns the effective transaction list for the given month.
func (s *Store) ProjectMonth(year int, month time.Month) []core.Transaction {
	return core.ProjectMonth(s.Transactions(), year, month)
}

func (s *Store) findTransaction(id string) int {
	for i, t := range s.transactions {
		if t.ID == id {
			return i
		}
	}
	return -1
}
