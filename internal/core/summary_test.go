package core

import (
	"testing"
)

func TestSummarize_Totals(t *testing.T) {
	effective := []Transaction{
		{ID: "t1", Amount: Money{Cents: 5000}, CategoryID: "food", Type: Expense},
		{ID: "t2", Amount: Money{Cents: 3000}, CategoryID: "food", Type: Expense},
		{ID: "t3", Amount: Money{Cents: 20000}, CategoryID: IncomeCategoryID, Type: Income},
	}
	cats := []Category{{ID: "food", Name: "Food"}}

	s := Summarize(effective, cats, Money{Cents: 100000})

	if s.TotalIncome.Cents != 120000 {
		t.Errorf("TotalIncome = %d, want 120000 (baseline + income transactions)", s.TotalIncome.Cents)
	}
	if s.TotalExpenses.Cents != 8000 {
		t.Errorf("TotalExpenses = %d, want 8000", s.TotalExpenses.Cents)
	}
	if s.Remaining.Cents != 112000 {
		t.Errorf("Remaining = %d, want 112000", s.Remaining.Cents)
	}
	want := float64(8000) / float64(120000) * 100
	if s.SpendPercentage != want {
		t.Errorf("SpendPercentage = %f, want %f", s.SpendPercentage, want)
	}
}

func TestSummarize_ZeroIncomeGuard(t *testing.T) {
	effective := []Transaction{
		{ID: "t1", Amount: Money{Cents: 4200}, CategoryID: "misc", Type: Expense},
	}
	s := Summarize(effective, nil, Money{})
	if s.SpendPercentage != 0 {
		t.Errorf("SpendPercentage with zero income = %f, want 0", s.SpendPercentage)
	}
}

func TestSummarize_CategoryBanding(t *testing.T) {
	tests := []struct {
		name       string
		spent      int64
		limit      int64
		wantStatus CategoryStatus
	}{
		{"well under limit", 5000, 10000, StatusNormal},
		{"at 85 percent", 8500, 10000, StatusNormal},
		{"just over 85 percent", 8600, 10000, StatusNearLimit},
		{"exactly at limit", 10000, 10000, StatusNearLimit},
		{"over limit", 10100, 10000, StatusOverLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			effective := []Transaction{
				{ID: "t1", Amount: Money{Cents: tt.spent}, CategoryID: "c1", Type: Expense},
			}
			cats := []Category{{ID: "c1", Name: "Cat", BudgetLimit: Money{Cents: tt.limit}}}
			s := Summarize(effective, cats, Money{})
			if len(s.Categories) != 1 {
				t.Fatalf("got %d category rows, want 1", len(s.Categories))
			}
			if s.Categories[0].Status != tt.wantStatus {
				t.Errorf("status = %q, want %q (percent=%f)", s.Categories[0].Status, tt.wantStatus, s.Categories[0].PercentOfLimit)
			}
		})
	}
}

func TestSummarize_NoLimitFallsBackToShareOfExpenses(t *testing.T) {
	effective := []Transaction{
		{ID: "t1", Amount: Money{Cents: 3000}, CategoryID: "a", Type: Expense},
		{ID: "t2", Amount: Money{Cents: 1000}, CategoryID: "b", Type: Expense},
	}
	cats := []Category{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}
	s := Summarize(effective, cats, Money{})

	if s.Categories[0].PercentOfLimit != 75 {
		t.Errorf("category a percent = %f, want 75 (share of expenses)", s.Categories[0].PercentOfLimit)
	}
	if s.Categories[1].PercentOfLimit != 25 {
		t.Errorf("category b percent = %f, want 25", s.Categories[1].PercentOfLimit)
	}
}

func TestSummarize_DanglingCategoryPoolsUncategorized(t *testing.T) {
	effective := []Transaction{
		{ID: "t1", Amount: Money{Cents: 2000}, CategoryID: "deleted", Type: Expense},
		{ID: "t2", Amount: Money{Cents: 1500}, CategoryID: "food", Type: Expense},
	}
	cats := []Category{{ID: "food", Name: "Food"}}
	s := Summarize(effective, cats, Money{})

	if len(s.Categories) != 2 {
		t.Fatalf("got %d category rows, want 2 (Food + Uncategorized)", len(s.Categories))
	}
	last := s.Categories[len(s.Categories)-1]
	if last.Name != UncategorizedName || last.Spent.Cents != 2000 {
		t.Errorf("uncategorized row = %+v, want name %q with 2000 cents", last, UncategorizedName)
	}
}

func TestSummarize_EmptyCategoryStillListed(t *testing.T) {
	cats := []Category{{ID: "quiet", Name: "Quiet"}}
	s := Summarize(nil, cats, Money{Cents: 1000})
	if len(s.Categories) != 1 || s.Categories[0].Spent.Cents != 0 {
		t.Errorf("categories with no spend should still appear with zero, got %+v", s.Categories)
	}
}
