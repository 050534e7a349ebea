package store

import (
	"strings"

	"bilancio/internal/core"
)

// CategoryPatch carries the fields of a category update; nil fields are left
// untouched. The id itself is immutable.
type CategoryPatch struct {
	Name        *string
	Color       *string
	Icon        *string
	BudgetLimit *core.Money
}

func (s *Store) CreateCategory(name, color, icon string, limit core.Money) (core.Category, error) {
	c := core.Category{
		ID:          s.newID(),
		Name:        strings.TrimSpace(name),
		Color:       color,
		Icon:        icon,
		BudgetLimit: limit,
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = append(s.categories, c)
	return c, nil
}

func (s *Store) UpdateCategory(id string, patch CategoryPatch) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findCategory(id)
	if idx < 0 {
		return core.Category{}, ErrNotFound
	}
	c := s.categories[idx]
	if patch.Name != nil {
		c.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Color != nil {
		c.Color = *patch.Color
	}
	if patch.Icon != nil {
		c.Icon = *patch.Icon
	}
	if patch.BudgetLimit != nil {
		c.BudgetLimit = *patch.BudgetLimit
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	s.categories[idx] = c
	return c, nil
}

// DeleteCategory removes the category only. Transactions that reference it
// are left untouched; their dangling categoryId resolves to an Uncategorized
// display entry at aggregation time.
func (s *Store) DeleteCategory(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findCategory(id)
	if idx < 0 {
		return false
	}
	s.categories = append(s.categories[:idx], s.categories[idx+1:]...)
	return true
}

// CreateOrReuseCategory returns the existing category whose name matches
// case-insensitively, or creates a new one. Used by AI-assisted paths so a
// suggested category name never silently drops a transaction's
// categorization. The second result reports whether a category was created.
func (s *Store) CreateOrReuseCategory(name, color, icon string) (core.Category, bool, error) {
	trimmed := strings.TrimSpace(name)
	s.mu.Lock()
	for _, c := range s.categories {
		if strings.EqualFold(c.Name, trimmed) {
			s.mu.Unlock()
			return c, false, nil
		}
	}
	s.mu.Unlock()

	c, err := s.CreateCategory(trimmed, color, icon, core.Money{})
	if err != nil {
		return core.Category{}, false, err
	}
	return c, true, nil
}

// Categories returns a copy of all categories.
func (s *Store) Categories() []core.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.categories...)
}

// CategoryByName performs the case-insensitive exact name match used when
// resolving collaborator suggestions. The second result reports a hit.
func (s *Store) CategoryByName(name string) (core.Category, bool) {
	trimmed := strings.TrimSpace(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if strings.EqualFold(c.Name, trimmed) {
			return c, true
		}
	}
	return core.Category{}, false
}

func (s *Store) findCategory(id string) int {
	for i, c := range s.categories {
		if c.ID == id {
			return i
		}
	}
	return -1
}
