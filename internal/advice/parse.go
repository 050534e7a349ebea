package advice

import (
	"encoding/json"
	"fmt"
	"strings"

	"bilancio/internal/core"
)

// draftResponse mirrors the JSON shape the model is asked for. Pointer fields
// distinguish null from the zero value.
type draftResponse struct {
	AmountCents     int64   `json:"amountCents"`
	Description     string  `json:"description"`
	CategoryID      *string `json:"categoryId"`
	NewCategoryName *string `json:"newCategoryName"`
	Type            string  `json:"type"`
	IsRecurring     bool    `json:"isRecurring"`
	Recurrence      string  `json:"recurrence"`
}

// parseDraft turns a raw model response into a TransactionDraft. A literal
// null response means the text could not be parsed; that is (nil, nil), not
// an error.
func parseDraft(raw string) (*TransactionDraft, error) {
	cleaned := strings.TrimSpace(cleanMarkdownWrapper(raw))
	if cleaned == "" || cleaned == "null" {
		return nil, nil
	}

	var resp draftResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, fmt.Errorf("parse draft response: %w", err)
	}
	if resp.AmountCents <= 0 || strings.TrimSpace(resp.Description) == "" {
		return nil, nil
	}

	draft := &TransactionDraft{
		Amount:      core.Money{Cents: resp.AmountCents},
		Description: strings.TrimSpace(resp.Description),
		Type:        core.Expense,
		IsRecurring: resp.IsRecurring,
		Recurrence:  core.RecurrenceNone,
	}
	if resp.Type == string(core.Income) {
		draft.Type = core.Income
	}
	if resp.CategoryID != nil {
		draft.CategoryID = strings.TrimSpace(*resp.CategoryID)
	}
	if resp.NewCategoryName != nil {
		draft.NewCategoryName = strings.TrimSpace(*resp.NewCategoryName)
	}
	if resp.IsRecurring {
		draft.Recurrence = core.RecurrenceMonthly
		switch r := core.Recurrence(resp.Recurrence); r {
		case core.RecurrenceDaily, core.RecurrenceWeekly, core.RecurrenceMonthly, core.RecurrenceYearly:
			draft.Recurrence = r
		}
	}
	return draft, nil
}

// cleanMarkdownWrapper strips a ```json ... ``` fence the model sometimes
// wraps its output in.
func cleanMarkdownWrapper(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
