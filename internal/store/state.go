package store

import (
	"bilancio/internal/core"
)

// State is the flat serializable snapshot exchanged with persistence
// backends. Missing fields in a loaded snapshot fall back to defaults,
// never to an error.
type State struct {
	Categories    []core.Category    `json:"categories"`
	Transactions  []core.Transaction `json:"transactions"`
	MonthlyIncome core.Money         `json:"monthlyIncome"`
	Currency      string             `json:"currency"`
	Theme         string             `json:"theme"`
	HasOnboarded  bool               `json:"hasOnboarded"`
}

const (
	defaultCurrency = "€"
	defaultTheme    = "light"
)

// DefaultState returns the state of a fresh, not yet onboarded installation.
func DefaultState() State {
	return State{
		Currency: defaultCurrency,
		Theme:    defaultTheme,
	}
}

// mergeDefaults fills zero-valued fields of a loaded state with defaults.
func mergeDefaults(st State) State {
	if st.Currency == "" {
		st.Currency = defaultCurrency
	}
	if st.Theme == "" {
		st.Theme = defaultTheme
	}
	return st
}
