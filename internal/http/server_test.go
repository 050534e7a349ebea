package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bilancio/internal/advice"
	"bilancio/internal/core"
	"bilancio/internal/memory"
	"bilancio/internal/services"
	"bilancio/internal/store"
)

type fakeAdvisor struct {
	insight   string
	suggested string
	draft     *advice.TransactionDraft
}

func (a *fakeAdvisor) GetAdvice(context.Context, core.Money, []core.Transaction, []core.Category, string) (string, error) {
	return a.insight, nil
}

func (a *fakeAdvisor) SuggestCategory(context.Context, string, []core.Category) (string, error) {
	return a.suggested, nil
}

func (a *fakeAdvisor) ParseTransaction(context.Context, string, []core.Category, string) (*advice.TransactionDraft, error) {
	return a.draft, nil
}

func newTestServer(t *testing.T, adv advice.Advisor) (*Server, *httptest.Server) {
	t.Helper()
	repo, err := memory.NewFileRepository(t.TempDir())
	require.NoError(t, err)

	if adv == nil {
		adv = &fakeAdvisor{insight: "test insight"}
	}
	svc := services.NewBudgetService(store.New(), repo, nil, adv, nil)
	require.NoError(t, svc.Init(context.Background()))

	srv := NewServer(":0", svc, nil)
	ts := httptest.NewServer(srv.Server.Handler)
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Shutdown(context.Background())
	})
	return srv, ts
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealthEndpoints(t *testing.T) {
	_, ts := newTestServer(t, nil)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestCreateAndProjectTransaction(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/transactions", map[string]any{
		"amountCents": 3100,
		"description": "rent",
		"type":        "expense",
		"isRecurring": true,
		"recurrence":  "monthly",
		"date":        "2026-01-31T10:00:00Z",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[core.Transaction](t, resp)
	assert.NotEmpty(t, created.ID)

	// Anchored on Jan 31, the April instance clamps to the 30th.
	resp, err := http.Get(ts.URL + "/api/months/2026/4")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decode[services.MonthView](t, resp)
	require.Len(t, view.Transactions, 1)
	assert.Equal(t, created.ID, view.Transactions[0].ID)
	assert.Equal(t, 30, view.Transactions[0].Date.Day())
	assert.Equal(t, int64(3100), view.Summary.TotalExpenses.Cents)
}

func TestCreateTransactionDecimalAmount(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/transactions", map[string]any{
		"amount":      "12,50",
		"description": "lunch",
		"type":        "expense",
		"date":        "2026-03-05T12:00:00Z",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[core.Transaction](t, resp)
	assert.Equal(t, int64(1250), created.Amount.Cents)
}

func TestCreateTransactionRejectsInvalidAmount(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/transactions", map[string]any{
		"amountCents": -5,
		"description": "nope",
		"type":        "expense",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestUpdateTransactionPropagates(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/transactions", map[string]any{
		"amountCents": 5000,
		"description": "subscription",
		"type":        "expense",
		"isRecurring": true,
		"recurrence":  "monthly",
		"date":        "2026-01-10T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[core.Transaction](t, resp)

	resp = doJSON(t, http.MethodPut, ts.URL+"/api/transactions/"+created.ID, map[string]any{
		"amountCents": 7500,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Cached view from before the update must not be served.
	resp, err := http.Get(ts.URL + "/api/months/2026/6")
	require.NoError(t, err)
	view := decode[services.MonthView](t, resp)
	require.Len(t, view.Transactions, 1)
	assert.Equal(t, int64(7500), view.Transactions[0].Amount.Cents)
}

func TestUpdateUnknownTransaction(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp := doJSON(t, http.MethodPut, ts.URL+"/api/transactions/ghost", map[string]any{
		"amountCents": 100,
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteTransactionIsIdempotent(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp := doJSON(t, http.MethodDelete, ts.URL+"/api/transactions/ghost", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestMonthFilterQuery(t *testing.T) {
	_, ts := newTestServer(t, nil)

	for i, typ := range []string{"expense", "income"} {
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/transactions", map[string]any{
			"amountCents": int64(1000 * (i + 1)),
			"description": fmt.Sprintf("entry %d", i),
			"type":        typ,
			"date":        "2026-03-05T12:00:00Z",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp, err := http.Get(ts.URL + "/api/months/2026/3?type=income")
	require.NoError(t, err)
	view := decode[services.MonthView](t, resp)
	require.Len(t, view.Transactions, 1)
	assert.Equal(t, core.Income, view.Transactions[0].Type)
	// Summary stays unfiltered.
	assert.Equal(t, int64(1000), view.Summary.TotalExpenses.Cents)
}

func TestCategoryLifecycle(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/categories", map[string]any{
		"name": "Food", "color": "#22c55e", "icon": "🍕", "budgetLimitCents": 40000,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	cat := decode[core.Category](t, resp)

	resp = doJSON(t, http.MethodPut, ts.URL+"/api/categories/"+cat.ID, map[string]any{
		"budgetLimitCents": 50000,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[core.Category](t, resp)
	assert.Equal(t, int64(50000), updated.BudgetLimit.Cents)

	resp, err := http.Get(ts.URL + "/api/categories")
	require.NoError(t, err)
	cats := decode[[]core.Category](t, resp)
	require.Len(t, cats, 1)

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/categories/"+cat.ID, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestSettingsRoundTrip(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp := doJSON(t, http.MethodPut, ts.URL+"/api/settings", map[string]any{
		"monthlyIncomeCents": 250000,
		"theme":              "dark",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Get(ts.URL + "/api/settings")
	require.NoError(t, err)
	settings := decode[store.Settings](t, resp)
	assert.Equal(t, int64(250000), settings.MonthlyIncome.Cents)
	assert.Equal(t, "dark", settings.Theme)
	assert.Equal(t, "€", settings.Currency)
}

func TestOnboarding(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/api/onboarding")
	require.NoError(t, err)
	templates := decode[map[string][]string](t, resp)
	assert.Contains(t, templates["templates"], "essentials")

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/onboarding", map[string]any{
		"template": "essentials",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	cats := decode[[]core.Category](t, resp)
	assert.NotEmpty(t, cats)

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/onboarding", map[string]any{
		"template": "no-such-template",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestAdviceEndpoint(t *testing.T) {
	_, ts := newTestServer(t, &fakeAdvisor{insight: "fresh insight"})

	resp, err := http.Get(ts.URL + "/api/advice?year=2026&month=3")
	require.NoError(t, err)
	first := decode[adviceResponse](t, resp)
	assert.Equal(t, services.InsightPlaceholder, first.Insight)

	// The background refresh lands eventually.
	require.Eventually(t, func() bool {
		resp, err := http.Get(ts.URL + "/api/advice?year=2026&month=3")
		if err != nil {
			return false
		}
		return decode[adviceResponse](t, resp).Insight == "fresh insight"
	}, 2*time.Second, 20*time.Millisecond)
}

func TestParseEndpointRetryPrompt(t *testing.T) {
	_, ts := newTestServer(t, &fakeAdvisor{draft: nil})

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/parse", map[string]any{
		"text": "mumble",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestParseEndpointReturnsDraft(t *testing.T) {
	_, ts := newTestServer(t, &fakeAdvisor{draft: &advice.TransactionDraft{
		Amount:      core.Money{Cents: 2200},
		Description: "gym",
		Type:        core.Expense,
	}})

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/parse", map[string]any{
		"text": "22 euro gym",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[services.ParseResult](t, resp)
	require.NotNil(t, res.Draft)
	assert.Equal(t, int64(2200), res.Draft.Amount.Cents)
}

func TestSuggestCategoryEndpoint(t *testing.T) {
	_, ts := newTestServer(t, &fakeAdvisor{suggested: "Food"})

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/categories", map[string]any{
		"name": "Food",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	cat := decode[core.Category](t, resp)

	resp = doJSON(t, http.MethodPost, ts.URL+"/api/suggest-category", map[string]any{
		"description": "pizza night",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	suggestion := decode[suggestResponse](t, resp)
	assert.Equal(t, cat.ID, suggestion.CategoryID)
}

func TestRateLimitOnWrites(t *testing.T) {
	_, ts := newTestServer(t, nil)

	var limited bool
	for i := 0; i < 70; i++ {
		req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/transactions/ghost", nil)
		require.NoError(t, err)
		req.Header.Set("X-Forwarded-For", "203.0.113.7")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	assert.True(t, limited, "expected a 429 after exceeding the write budget")
}

func TestViewComputedBeforeMutationIsNotCached(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	key := monthKey(2026, 3)
	gen := srv.cacheGeneration()
	view := srv.svc.Month(2026, time.March, core.Filter{})

	// A mutation lands between computing the view and storing it.
	srv.invalidate()
	srv.cacheView(key, gen, view)

	_, ok := srv.viewCache.Get(key)
	assert.False(t, ok, "stale view must not land in the cache after an invalidation")

	srv.cacheView(key, srv.cacheGeneration(), view)
	_, ok = srv.viewCache.Get(key)
	assert.True(t, ok)
}
