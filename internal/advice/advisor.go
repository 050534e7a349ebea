// Package advice integrates the external AI collaborators: monthly budget
// advice, category suggestion, and free-text transaction parsing. All of them
// are best-effort; every failure degrades to a placeholder at the call site
// and never crashes the core.
package advice

import (
	"context"
	"time"

	"bilancio/internal/core"
)

// Advisor defines the interface for the advice collaborators.
type Advisor interface {
	// GetAdvice returns a short textual insight for the active month. The
	// transaction list is the already-projected effective list.
	GetAdvice(ctx context.Context, monthlyIncome core.Money, transactions []core.Transaction, categories []core.Category, currency string) (string, error)

	// SuggestCategory returns a category name for the description, to be
	// matched case-insensitively against existing categories. An empty name
	// means no suggestion; it is not an error.
	SuggestCategory(ctx context.Context, description string, categories []core.Category) (string, error)

	// ParseTransaction turns free text (typed or voice-transcribed) into a
	// transaction draft. A nil draft with a nil error means the text could
	// not be parsed; callers surface that as a retry prompt.
	ParseTransaction(ctx context.Context, text string, categories []core.Category, currency string) (*TransactionDraft, error)
}

// TransactionDraft is the parsed form of a free-text transaction. Exactly one
// of CategoryID and NewCategoryName may be set; both empty means
// uncategorized.
type TransactionDraft struct {
	Amount          core.Money           `json:"amount"`
	Description     string               `json:"description"`
	CategoryID      string               `json:"categoryId"`
	NewCategoryName string               `json:"newCategoryName"`
	Type            core.TransactionType `json:"type"`
	IsRecurring     bool                 `json:"isRecurring"`
	Recurrence      core.Recurrence      `json:"recurrence"`
}

// Config holds advisor configuration.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

// New returns a remote advisor when an API key is configured, otherwise the
// static fallback.
func New(cfg Config) Advisor {
	if cfg.APIKey == "" {
		return NewStaticAdvisor()
	}
	return newMessagesClient(cfg)
}
