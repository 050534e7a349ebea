package store

import (
	"fmt"

	"bilancio/internal/core"
)

// Settings is the non-entity part of the state.
type Settings struct {
	MonthlyIncome core.Money `json:"monthlyIncome"`
	Currency      string     `json:"currency"`
	Theme         string     `json:"theme"`
	HasOnboarded  bool       `json:"hasOnboarded"`
}

func (s *Store) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Settings{
		MonthlyIncome: s.monthlyIncome,
		Currency:      s.currency,
		Theme:         s.theme,
		HasOnboarded:  s.hasOnboarded,
	}
}

// SettingsPatch updates the provided fields only.
type SettingsPatch struct {
	MonthlyIncome *core.Money
	Currency      *string
	Theme         *string
}

func (s *Store) UpdateSettings(patch SettingsPatch) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if patch.MonthlyIncome != nil {
		if patch.MonthlyIncome.Cents < 0 {
			return Settings{}, core.ErrInvalidAmount
		}
		s.monthlyIncome = *patch.MonthlyIncome
	}
	if patch.Currency != nil && *patch.Currency != "" {
		s.currency = *patch.Currency
	}
	if patch.Theme != nil && *patch.Theme != "" {
		s.theme = *patch.Theme
	}
	return Settings{
		MonthlyIncome: s.monthlyIncome,
		Currency:      s.currency,
		Theme:         s.theme,
		HasOnboarded:  s.hasOnboarded,
	}, nil
}

// onboardingTemplates are the starter category sets offered during first run.
// Icons are opaque tags the presentation layer maps to whatever artwork it
// likes.
var onboardingTemplates = map[string][]core.Category{
	"essentials": {
		{Name: "Housing", Color: "#8d6e63", Icon: "home"},
		{Name: "Groceries", Color: "#66bb6a", Icon: "cart"},
		{Name: "Transport", Color: "#42a5f5", Icon: "bus"},
		{Name: "Utilities", Color: "#ffa726", Icon: "bolt"},
		{Name: "Health", Color: "#ef5350", Icon: "heart"},
	},
	"family": {
		{Name: "Housing", Color: "#8d6e63", Icon: "home"},
		{Name: "Groceries", Color: "#66bb6a", Icon: "cart"},
		{Name: "Kids", Color: "#ab47bc", Icon: "stroller"},
		{Name: "Transport", Color: "#42a5f5", Icon: "bus"},
		{Name: "Health", Color: "#ef5350", Icon: "heart"},
		{Name: "Leisure", Color: "#26c6da", Icon: "ticket"},
	},
	"student": {
		{Name: "Rent", Color: "#8d6e63", Icon: "home"},
		{Name: "Food", Color: "#66bb6a", Icon: "cart"},
		{Name: "Books", Color: "#5c6bc0", Icon: "book"},
		{Name: "Going out", Color: "#26c6da", Icon: "ticket"},
	},
}

// OnboardingTemplates lists the available template names.
func OnboardingTemplates() []string {
	return []string{"essentials", "family", "student"}
}

// ApplyOnboardingTemplate creates the template's categories with fresh ids
// and marks the store as onboarded. Unknown template names are rejected.
func (s *Store) ApplyOnboardingTemplate(name string) ([]core.Category, error) {
	tmpl, ok := onboardingTemplates[name]
	if !ok {
		return nil, fmt.Errorf("unknown onboarding template %q", name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	created := make([]core.Category, 0, len(tmpl))
	for _, c := range tmpl {
		c.ID = s.newID()
		s.categories = append(s.categories, c)
		created = append(created, c)
	}
	s.hasOnboarded = true
	return created, nil
}
