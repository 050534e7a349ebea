package core

// Filter holds the user-selected predicates applied to an effective list.
// Each field defaults to "all" (empty string behaves the same); the three
// predicates are ANDed independently.
type Filter struct {
	Type       string // all | expense | income
	CategoryID string // all | <category id>
	Recurrence string // all | recurring | non-recurring
}

const filterAll = "all"

// Apply returns the transactions matching every predicate, preserving the
// input order. It never re-sorts.
func (f Filter) Apply(list []Transaction) []Transaction {
	out := make([]Transaction, 0, len(list))
	for _, t := range list {
		if !f.matchType(t) || !f.matchCategory(t) || !f.matchRecurrence(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (f Filter) matchType(t Transaction) bool {
	if f.Type == "" || f.Type == filterAll {
		return true
	}
	return string(t.Type) == f.Type
}

func (f Filter) matchCategory(t Transaction) bool {
	if f.CategoryID == "" || f.CategoryID == filterAll {
		return true
	}
	return t.CategoryID == f.CategoryID
}

func (f Filter) matchRecurrence(t Transaction) bool {
	switch f.Recurrence {
	case "", filterAll:
		return true
	case "recurring":
		return t.IsRecurring
	case "non-recurring":
		return !t.IsRecurring
	default:
		return true
	}
}
