package advice

import (
	"context"

	"bilancio/internal/core"
)

// StaticAdvisor is the no-API-key fallback. Advice is generic, suggestions
// are empty, and free-text parsing always asks the user to retry.
type StaticAdvisor struct{}

// NewStaticAdvisor returns the fallback advisor.
func NewStaticAdvisor() *StaticAdvisor {
	return &StaticAdvisor{}
}

func (s *StaticAdvisor) GetAdvice(_ context.Context, monthlyIncome core.Money, transactions []core.Transaction, categories []core.Category, _ string) (string, error) {
	summary := core.Summarize(transactions, categories, monthlyIncome)
	if summary.TotalIncome.Cents > 0 && summary.TotalExpenses.Cents > summary.TotalIncome.Cents {
		return "You are spending more than you earn this month. Review your largest categories and see what can wait.", nil
	}
	return "Track every expense to see where your money goes. Setting a budget limit per category helps catch overspending early.", nil
}

func (s *StaticAdvisor) SuggestCategory(_ context.Context, _ string, _ []core.Category) (string, error) {
	return "", nil
}

func (s *StaticAdvisor) ParseTransaction(_ context.Context, _ string, _ []core.Category, _ string) (*TransactionDraft, error) {
	return nil, nil
}
