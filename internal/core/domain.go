package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Expense TransactionType = "expense"
	Income  TransactionType = "income"
)

const (
	RecurrenceNone    Recurrence = "none"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
	RecurrenceYearly  Recurrence = "yearly"
)

// IncomeCategoryID is the sentinel category assigned to income transactions.
// Income is not categorized by user-defined categories.
const IncomeCategoryID = "income"

// UncategorizedName is the display name used when a transaction references a
// category that no longer exists.
const UncategorizedName = "Uncategorized"

type (
	TransactionType string
	Recurrence      string

	Money struct {
		Cents int64 `json:"cents"`
	}

	Category struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Color       string `json:"color"`
		Icon        string `json:"icon"` // opaque decorative tag, no behavior
		BudgetLimit Money  `json:"budgetLimit"`
	}

	// Transaction is a master record. For recurring records Date is the
	// anchor date; projected instances carry the same ID with a recomputed
	// Date and are never persisted.
	Transaction struct {
		ID          string          `json:"id"`
		Amount      Money           `json:"amount"`
		CategoryID  string          `json:"categoryId"`
		Description string          `json:"description"`
		Date        time.Time       `json:"date"`
		Type        TransactionType `json:"type"`
		IsRecurring bool            `json:"isRecurring"`
		Recurrence  Recurrence      `json:"recurrence"`
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrEmptyDescription  = errors.New("empty description")
	ErrEmptyName         = errors.New("empty name")
	ErrInvalidType       = errors.New("invalid transaction type")
	ErrInvalidRecurrence = errors.New("invalid recurrence")
	ErrZeroDate          = errors.New("date cannot be zero")
)

func (t TransactionType) Valid() bool {
	return t == Expense || t == Income
}

func (r Recurrence) Valid() bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly:
		return true
	default:
		return false
	}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (c Category) Validate() error {
	if len(strings.TrimSpace(c.Name)) == 0 {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if c.BudgetLimit.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if t.Recurrence != "" && !t.Recurrence.Valid() {
		return ErrInvalidRecurrence
	}
	return nil
}
