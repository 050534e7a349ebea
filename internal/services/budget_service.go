// Package services orchestrates the in-memory store, persistence, change
// publishing and the advice collaborators.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"bilancio/internal/advice"
	"bilancio/internal/core"
	"bilancio/internal/store"
)

// StateRepository is the persistence surface the service needs.
type StateRepository interface {
	Load(ctx context.Context) (*store.State, bool, error)
	Save(ctx context.Context, st store.State) error
	Close() error
}

// Publisher notifies downstream consumers of entity changes. Nil disables
// publishing.
type Publisher interface {
	PublishChange(ctx context.Context, entity, id, op string, seq uint64) error
}

// InsightPlaceholder is shown when the advisor is unreachable or fails.
const InsightPlaceholder = "Add a few transactions and check back for personalized advice."

// BudgetService is the application core behind the HTTP API. Mutations go
// through the store first, then persist and publish best-effort.
type BudgetService struct {
	store   *store.Store
	repo    StateRepository
	pub     Publisher
	advisor advice.Advisor
	logger  *slog.Logger

	changeSeq uint64

	insightMu   sync.Mutex
	insight     string
	adviceSeq   uint64
	lastApplied uint64
}

func NewBudgetService(st *store.Store, repo StateRepository, pub Publisher, advisor advice.Advisor, logger *slog.Logger) *BudgetService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BudgetService{
		store:   st,
		repo:    repo,
		pub:     pub,
		advisor: advisor,
		logger:  logger,
		insight: InsightPlaceholder,
	}
}

// Init loads the persisted state into the store. A load failure degrades to
// defaults; startup never fails on bad state.
func (s *BudgetService) Init(ctx context.Context) error {
	st, found, err := s.repo.Load(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load state, starting with defaults", "error", err)
		s.store.Restore(store.DefaultState())
		return nil
	}
	if !found {
		s.logger.InfoContext(ctx, "No persisted state found, starting fresh")
		s.store.Restore(store.DefaultState())
		return nil
	}

	s.store.Restore(*st)
	s.logger.InfoContext(ctx, "State restored",
		"categories", len(st.Categories),
		"transactions", len(st.Transactions))
	return nil
}

// persist saves the current snapshot. Failures are logged, never propagated:
// the mutation already succeeded in memory.
func (s *BudgetService) persist(ctx context.Context) {
	if err := s.repo.Save(ctx, s.store.Snapshot()); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist state", "error", err)
	}
}

// publish sends a change notification. Failures are logged, never propagated.
func (s *BudgetService) publish(ctx context.Context, entity, id, op string) {
	if s.pub == nil {
		return
	}
	seq := atomic.AddUint64(&s.changeSeq, 1)
	if err := s.pub.PublishChange(ctx, entity, id, op, seq); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish change",
			"entity", entity, "id", id, "op", op, "error", err)
	}
}

// MonthView is the assembled response for a viewed month.
type MonthView struct {
	Year         int                `json:"year"`
	Month        int                `json:"month"`
	Transactions []core.Transaction `json:"transactions"`
	Summary      core.MonthSummary  `json:"summary"`
}

// Month projects, filters and summarizes a month. The summary is always
// computed from the unfiltered projection so totals do not shift with the
// active filter.
func (s *BudgetService) Month(year int, month time.Month, filter core.Filter) MonthView {
	effective := s.store.ProjectMonth(year, month)
	settings := s.store.Settings()
	summary := core.Summarize(effective, s.store.Categories(), settings.MonthlyIncome)

	return MonthView{
		Year:         year,
		Month:        int(month),
		Transactions: filter.Apply(effective),
		Summary:      summary,
	}
}

func (s *BudgetService) CreateTransaction(ctx context.Context, in store.TransactionInput, viewYear int, viewMonth time.Month) (core.Transaction, error) {
	t, err := s.store.CreateTransaction(in, viewYear, viewMonth)
	if err != nil {
		return core.Transaction{}, err
	}
	s.persist(ctx)
	s.publish(ctx, "transaction", t.ID, "create")
	return t, nil
}

func (s *BudgetService) UpdateTransaction(ctx context.Context, id string, patch store.TransactionPatch) (core.Transaction, error) {
	t, err := s.store.UpdateTransaction(id, patch)
	if err != nil {
		return core.Transaction{}, err
	}
	s.persist(ctx)
	s.publish(ctx, "transaction", t.ID, "update")
	return t, nil
}

// DeleteTransaction removes a master and with it every projected instance.
// Deleting an unknown id is a no-op.
func (s *BudgetService) DeleteTransaction(ctx context.Context, id string) {
	if !s.store.DeleteTransaction(id) {
		return
	}
	s.persist(ctx)
	s.publish(ctx, "transaction", id, "delete")
}

func (s *BudgetService) Categories() []core.Category {
	return s.store.Categories()
}

func (s *BudgetService) CreateCategory(ctx context.Context, name, color, icon string, limit core.Money) (core.Category, error) {
	c, err := s.store.CreateCategory(name, color, icon, limit)
	if err != nil {
		return core.Category{}, err
	}
	s.persist(ctx)
	s.publish(ctx, "category", c.ID, "create")
	return c, nil
}

func (s *BudgetService) UpdateCategory(ctx context.Context, id string, patch store.CategoryPatch) (core.Category, error) {
	c, err := s.store.UpdateCategory(id, patch)
	if err != nil {
		return core.Category{}, err
	}
	s.persist(ctx)
	s.publish(ctx, "category", c.ID, "update")
	return c, nil
}

func (s *BudgetService) DeleteCategory(ctx context.Context, id string) {
	if !s.store.DeleteCategory(id) {
		return
	}
	s.persist(ctx)
	s.publish(ctx, "category", id, "delete")
}

func (s *BudgetService) Settings() store.Settings {
	return s.store.Settings()
}

func (s *BudgetService) UpdateSettings(ctx context.Context, patch store.SettingsPatch) (store.Settings, error) {
	settings, err := s.store.UpdateSettings(patch)
	if err != nil {
		return store.Settings{}, err
	}
	s.persist(ctx)
	s.publish(ctx, "settings", "settings", "update")
	return settings, nil
}

func (s *BudgetService) OnboardingTemplates() []string {
	return store.OnboardingTemplates()
}

func (s *BudgetService) ApplyOnboardingTemplate(ctx context.Context, name string) ([]core.Category, error) {
	cats, err := s.store.ApplyOnboardingTemplate(name)
	if err != nil {
		return nil, err
	}
	s.persist(ctx)
	s.publish(ctx, "settings", "onboarding", "update")
	return cats, nil
}

// Insight returns the latest advice text.
func (s *BudgetService) Insight() string {
	s.insightMu.Lock()
	defer s.insightMu.Unlock()
	return s.insight
}

// RefreshAdvice asks the advisor for fresh advice on the given month and
// returns the resulting insight. Responses are applied last-request-wins:
// each request takes a sequence number up front, and a response is dropped
// when a newer request already resolved. A failed call leaves the placeholder.
func (s *BudgetService) RefreshAdvice(ctx context.Context, year int, month time.Month) string {
	seq := atomic.AddUint64(&s.adviceSeq, 1)

	effective := s.store.ProjectMonth(year, month)
	settings := s.store.Settings()

	text, err := s.advisor.GetAdvice(ctx, settings.MonthlyIncome, effective, s.store.Categories(), settings.Currency)
	if err != nil {
		s.logger.WarnContext(ctx, "Advice request failed", "error", err)
		text = InsightPlaceholder
	}

	s.insightMu.Lock()
	defer s.insightMu.Unlock()
	if seq < s.lastApplied {
		// A newer request already resolved; keep its insight.
		return s.insight
	}
	s.lastApplied = seq
	s.insight = text
	return s.insight
}

// SuggestCategory asks the advisor for a category name and resolves it
// case-insensitively against existing categories. An empty id means no
// match; the transaction stays uncategorized.
func (s *BudgetService) SuggestCategory(ctx context.Context, description string) (string, error) {
	name, err := s.advisor.SuggestCategory(ctx, description, s.store.Categories())
	if err != nil {
		return "", fmt.Errorf("suggest category: %w", err)
	}
	if strings.TrimSpace(name) == "" {
		return "", nil
	}
	c, ok := s.store.CategoryByName(name)
	if !ok {
		return "", nil
	}
	return c.ID, nil
}

// ParseResult is the outcome of a free-text parse. A nil Draft means the
// text could not be understood and the caller should re-prompt.
type ParseResult struct {
	Draft *advice.TransactionDraft `json:"draft"`
}

// ParseTransaction turns free text into a transaction draft. When the draft
// names a new category it is created on the spot, reusing an existing one on
// a case-insensitive name match.
func (s *BudgetService) ParseTransaction(ctx context.Context, text string) (ParseResult, error) {
	settings := s.store.Settings()
	draft, err := s.advisor.ParseTransaction(ctx, text, s.store.Categories(), settings.Currency)
	if err != nil {
		return ParseResult{}, fmt.Errorf("parse transaction: %w", err)
	}
	if draft == nil {
		return ParseResult{}, nil
	}

	if draft.CategoryID == "" && draft.NewCategoryName != "" {
		c, created, err := s.store.CreateOrReuseCategory(draft.NewCategoryName, "", "")
		if err != nil {
			s.logger.WarnContext(ctx, "Could not create suggested category",
				"name", draft.NewCategoryName, "error", err)
		} else {
			draft.CategoryID = c.ID
			if created {
				s.persist(ctx)
				s.publish(ctx, "category", c.ID, "create")
			}
		}
	}

	return ParseResult{Draft: draft}, nil
}

// Close releases the persistence backend.
func (s *BudgetService) Close() error {
	return s.repo.Close()
}
