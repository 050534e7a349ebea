package core

const (
	StatusNormal    CategoryStatus = "normal"
	StatusNearLimit CategoryStatus = "near-limit"
	StatusOverLimit CategoryStatus = "over-limit"
)

type (
	// CategoryStatus is a presentation band for budget-limit progress. It is
	// never used for enforcement: no transaction is blocked for exceeding a
	// limit.
	CategoryStatus string

	// CategorySpend is the per-category expense aggregate for a month.
	CategorySpend struct {
		CategoryID     string         `json:"categoryId"`
		Name           string         `json:"name"`
		Color          string         `json:"color"`
		Icon           string         `json:"icon"`
		Spent          Money          `json:"spent"`
		Limit          Money          `json:"limit"`
		PercentOfLimit float64        `json:"percentOfLimit"`
		Status         CategoryStatus `json:"status"`
	}

	// MonthSummary holds the derived figures for an effective transaction
	// list. TotalIncome includes the configured monthly baseline on top of
	// income transactions.
	MonthSummary struct {
		TotalIncome     Money           `json:"totalIncome"`
		TotalExpenses   Money           `json:"totalExpenses"`
		Remaining       Money           `json:"remaining"`
		SpendPercentage float64         `json:"spendPercentage"`
		Categories      []CategorySpend `json:"categories"`
	}
)

// Summarize computes the month aggregates from an effective transaction list.
// It is a pure function of its inputs. Transactions referencing a category
// that no longer exists are pooled under an "Uncategorized" entry.
func Summarize(effective []Transaction, categories []Category, monthlyIncome Money) MonthSummary {
	var income, expenses int64
	spentBy := make(map[string]int64)
	for _, t := range effective {
		switch t.Type {
		case Income:
			income += t.Amount.Cents
		case Expense:
			expenses += t.Amount.Cents
			spentBy[t.CategoryID] += t.Amount.Cents
		}
	}

	totalIncome := monthlyIncome.Cents + income
	s := MonthSummary{
		TotalIncome:   Money{Cents: totalIncome},
		TotalExpenses: Money{Cents: expenses},
		Remaining:     Money{Cents: totalIncome - expenses},
	}
	if totalIncome > 0 {
		s.SpendPercentage = float64(expenses) / float64(totalIncome) * 100
	}

	known := make(map[string]bool, len(categories))
	for _, c := range categories {
		known[c.ID] = true
		spent := spentBy[c.ID]
		s.Categories = append(s.Categories, categorySpend(c, spent, expenses))
	}

	// Dangling category references resolve to an Uncategorized display entry.
	var dangling int64
	for id, cents := range spentBy {
		if !known[id] && id != IncomeCategoryID {
			dangling += cents
		}
	}
	if dangling > 0 {
		s.Categories = append(s.Categories, categorySpend(Category{Name: UncategorizedName}, dangling, expenses))
	}

	return s
}

func categorySpend(c Category, spent, totalExpenses int64) CategorySpend {
	cs := CategorySpend{
		CategoryID: c.ID,
		Name:       c.Name,
		Color:      c.Color,
		Icon:       c.Icon,
		Spent:      Money{Cents: spent},
		Limit:      c.BudgetLimit,
		Status:     StatusNormal,
	}
	switch {
	case c.BudgetLimit.Cents > 0:
		cs.PercentOfLimit = float64(spent) / float64(c.BudgetLimit.Cents) * 100
	case totalExpenses > 0:
		// No limit set: report the share of total expenses instead.
		cs.PercentOfLimit = float64(spent) / float64(totalExpenses) * 100
	}
	switch {
	case cs.PercentOfLimit > 100:
		cs.Status = StatusOverLimit
	case cs.PercentOfLimit > 85:
		cs.Status = StatusNearLimit
	}
	return cs
}
