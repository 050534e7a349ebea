package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/services"
	"bilancio/internal/store"
)

// invalidate drops every cached month view and bumps the cache generation.
// Any mutation can reshape an arbitrary number of projected months.
func (s *Server) invalidate() {
	s.cacheMu.Lock()
	s.cacheGen++
	s.viewCache.Clear()
	s.cacheMu.Unlock()
}

func (s *Server) cacheGeneration() uint64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.cacheGen
}

// cacheView stores a month view only if no mutation landed since gen was
// read, so stale views cannot outlive an invalidation.
func (s *Server) cacheView(key string, gen uint64, view services.MonthView) {
	s.cacheMu.Lock()
	if gen == s.cacheGen {
		s.viewCache.Set(key, view)
	}
	s.cacheMu.Unlock()
}

func monthKey(year, month int) string {
	return fmt.Sprintf("%d-%d", year, month)
}

func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil || year < 1 || year > 9999 {
		writeError(w, http.StatusBadRequest, "invalid year")
		return
	}
	month, err := strconv.Atoi(r.PathValue("month"))
	if err != nil || month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "invalid month")
		return
	}

	q := r.URL.Query()
	filter := core.Filter{
		Type:       q.Get("type"),
		CategoryID: q.Get("category"),
		Recurrence: q.Get("recurrence"),
	}

	unfiltered := filter == (core.Filter{})
	var gen uint64
	if unfiltered {
		if view, ok := s.viewCache.Get(monthKey(year, month)); ok {
			writeJSON(w, http.StatusOK, view)
			return
		}
		gen = s.cacheGeneration()
	}

	view := s.svc.Month(year, time.Month(month), filter)
	if unfiltered {
		s.cacheView(monthKey(year, month), gen, view)
	}
	writeJSON(w, http.StatusOK, view)
}

type transactionRequest struct {
	Amount      string `json:"amount"` // decimal string, alternative to amountCents
	AmountCents int64  `json:"amountCents"`
	CategoryID  string `json:"categoryId"`
	Description string `json:"description"`
	Date        string `json:"date"` // RFC3339, empty picks the default
	Type        string `json:"type"`
	IsRecurring bool   `json:"isRecurring"`
	Recurrence  string `json:"recurrence"`
	ViewYear    int    `json:"viewYear"`
	ViewMonth   int    `json:"viewMonth"`
}

func (req transactionRequest) amount() (core.Money, error) {
	if req.AmountCents != 0 {
		return core.Money{Cents: req.AmountCents}, nil
	}
	if strings.TrimSpace(req.Amount) == "" {
		return core.Money{}, core.ErrInvalidAmount
	}
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := req.amount()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	var date time.Time
	if req.Date != "" {
		date, err = time.Parse(time.RFC3339, req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date, expected RFC3339")
			return
		}
	}

	viewYear, viewMonth := req.ViewYear, time.Month(req.ViewMonth)
	if viewYear == 0 || req.ViewMonth < 1 || req.ViewMonth > 12 {
		now := time.Now()
		viewYear, viewMonth = now.Year(), now.Month()
	}

	tx, err := s.svc.CreateTransaction(r.Context(), store.TransactionInput{
		Amount:      amount,
		CategoryID:  req.CategoryID,
		Description: req.Description,
		Date:        date,
		Type:        core.TransactionType(req.Type),
		IsRecurring: req.IsRecurring,
		Recurrence:  core.Recurrence(req.Recurrence),
	}, viewYear, viewMonth)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.invalidate()
	writeJSON(w, http.StatusCreated, tx)
}

type transactionPatchRequest struct {
	AmountCents *int64  `json:"amountCents"`
	CategoryID  *string `json:"categoryId"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
	Type        *string `json:"type"`
	IsRecurring *bool   `json:"isRecurring"`
	Recurrence  *string `json:"recurrence"`
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req transactionPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch := store.TransactionPatch{
		Description: req.Description,
		CategoryID:  req.CategoryID,
		IsRecurring: req.IsRecurring,
	}
	if req.AmountCents != nil {
		patch.Amount = &core.Money{Cents: *req.AmountCents}
	}
	if req.Date != nil {
		date, err := time.Parse(time.RFC3339, *req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date, expected RFC3339")
			return
		}
		patch.Date = &date
	}
	if req.Type != nil {
		t := core.TransactionType(*req.Type)
		patch.Type = &t
	}
	if req.Recurrence != nil {
		rec := core.Recurrence(*req.Recurrence)
		patch.Recurrence = &rec
	}

	tx, err := s.svc.UpdateTransaction(r.Context(), id, patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.invalidate()
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	s.svc.DeleteTransaction(r.Context(), r.PathValue("id"))
	s.invalidate()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCategories(w http.ResponseWriter, _ *http.Request) {
	cats := s.svc.Categories()
	if cats == nil {
		cats = []core.Category{}
	}
	writeJSON(w, http.StatusOK, cats)
}

type categoryRequest struct {
	Name             string `json:"name"`
	Color            string `json:"color"`
	Icon             string `json:"icon"`
	BudgetLimitCents int64  `json:"budgetLimitCents"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cat, err := s.svc.CreateCategory(r.Context(), req.Name, req.Color, req.Icon,
		core.Money{Cents: req.BudgetLimitCents})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.invalidate()
	writeJSON(w, http.StatusCreated, cat)
}

type categoryPatchRequest struct {
	Name             *string `json:"name"`
	Color            *string `json:"color"`
	Icon             *string `json:"icon"`
	BudgetLimitCents *int64  `json:"budgetLimitCents"`
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req categoryPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch := store.CategoryPatch{
		Name:  req.Name,
		Color: req.Color,
		Icon:  req.Icon,
	}
	if req.BudgetLimitCents != nil {
		patch.BudgetLimit = &core.Money{Cents: *req.BudgetLimitCents}
	}

	cat, err := s.svc.UpdateCategory(r.Context(), id, patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "category not found")
			return
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.invalidate()
	writeJSON(w, http.StatusOK, cat)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	s.svc.DeleteCategory(r.Context(), r.PathValue("id"))
	s.invalidate()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Settings())
}

type settingsPatchRequest struct {
	MonthlyIncomeCents *int64  `json:"monthlyIncomeCents"`
	Currency           *string `json:"currency"`
	Theme              *string `json:"theme"`
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch := store.SettingsPatch{
		Currency: req.Currency,
		Theme:    req.Theme,
	}
	if req.MonthlyIncomeCents != nil {
		patch.MonthlyIncome = &core.Money{Cents: *req.MonthlyIncomeCents}
	}

	settings, err := s.svc.UpdateSettings(r.Context(), patch)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.invalidate()
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleOnboardingTemplates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"templates": s.svc.OnboardingTemplates()})
}

type onboardingRequest struct {
	Template string `json:"template"`
}

func (s *Server) handleApplyOnboarding(w http.ResponseWriter, r *http.Request) {
	var req onboardingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cats, err := s.svc.ApplyOnboardingTemplate(r.Context(), req.Template)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.invalidate()
	writeJSON(w, http.StatusCreated, cats)
}

type adviceResponse struct {
	Insight string `json:"insight"`
}

// handleAdvice returns the latest insight and kicks off a refresh for the
// requested month in the background. Clients poll to pick up the new text.
func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	year, month := now.Year(), int(now.Month())

	q := r.URL.Query()
	if y, err := strconv.Atoi(q.Get("year")); err == nil && y > 0 {
		year = y
	}
	if m, err := strconv.Atoi(q.Get("month")); err == nil && m >= 1 && m <= 12 {
		month = m
	}

	insight := s.svc.Insight()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		s.svc.RefreshAdvice(ctx, year, time.Month(month))
	}()

	writeJSON(w, http.StatusOK, adviceResponse{Insight: insight})
}

type parseRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusUnprocessableEntity, "text is empty")
		return
	}

	res, err := s.svc.ParseTransaction(r.Context(), req.Text)
	if err != nil {
		writeError(w, http.StatusBadGateway, "parsing is unavailable right now")
		return
	}
	if res.Draft == nil {
		writeError(w, http.StatusUnprocessableEntity, "could not understand the transaction, please rephrase")
		return
	}

	// A new category may have been created as a side effect.
	s.invalidate()
	writeJSON(w, http.StatusOK, res)
}

type suggestRequest struct {
	Description string `json:"description"`
}

type suggestResponse struct {
	CategoryID string `json:"categoryId"`
}

func (s *Server) handleSuggestCategory(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.svc.SuggestCategory(r.Context(), req.Description)
	if err != nil {
		writeError(w, http.StatusBadGateway, "suggestion is unavailable right now")
		return
	}
	writeJSON(w, http.StatusOK, suggestResponse{CategoryID: id})
}
