package core

import (
	"testing"
	"time"
)

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		ID:          "t1",
		Amount:      Money{Cents: 5000},
		CategoryID:  "c1",
		Description: "Groceries",
		Date:        time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		Type:        Expense,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid transaction rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{"zero amount", func(tr *Transaction) { tr.Amount = Money{} }, ErrInvalidAmount},
		{"negative amount", func(tr *Transaction) { tr.Amount = Money{Cents: -1} }, ErrInvalidAmount},
		{"empty description", func(tr *Transaction) { tr.Description = "  " }, ErrEmptyDescription},
		{"zero date", func(tr *Transaction) { tr.Date = time.Time{} }, ErrZeroDate},
		{"bad type", func(tr *Transaction) { tr.Type = "transfer" }, ErrInvalidType},
		{"bad recurrence", func(tr *Transaction) { tr.Recurrence = "fortnightly" }, ErrInvalidRecurrence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := valid
			tt.mutate(&tr)
			if err := tr.Validate(); err != tt.want {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCategoryValidate(t *testing.T) {
	if err := (Category{ID: "c1", Name: "Food"}).Validate(); err != nil {
		t.Errorf("valid category rejected: %v", err)
	}
	if err := (Category{ID: "c1", Name: " "}).Validate(); err != ErrEmptyName {
		t.Errorf("blank name: got %v, want %v", err, ErrEmptyName)
	}
	if err := (Category{ID: "c1", Name: "Food", BudgetLimit: Money{Cents: -10}}).Validate(); err != ErrInvalidAmount {
		t.Errorf("negative limit: got %v, want %v", err, ErrInvalidAmount)
	}
}
