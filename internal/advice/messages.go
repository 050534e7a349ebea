package advice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bilancio/internal/core"
)

const defaultBaseURL = "https://api.anthropic.com/v1/messages"

// messagesClient talks to an Anthropic-style messages API.
type messagesClient struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	maxTokens   int
}

func newMessagesClient(cfg Config) *messagesClient {
	model := cfg.Model
	if model == "" {
		model = "claude-3-5-haiku-latest"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 400
	}

	return &messagesClient{
		apiKey:      cfg.APIKey,
		model:       model,
		baseURL:     baseURL,
		temperature: temperature,
		maxTokens:   maxTokens,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (c *messagesClient) GetAdvice(ctx context.Context, monthlyIncome core.Money, transactions []core.Transaction, categories []core.Category, currency string) (string, error) {
	prompt := buildAdvicePrompt(monthlyIncome, transactions, categories, currency)
	system := "You are a personal budgeting assistant. Give one short, concrete, friendly tip based on the month's figures. Plain text, two sentences maximum."

	var out string
	err := WithRetry(ctx, func() error {
		text, err := c.complete(ctx, system, prompt)
		if err != nil {
			return err
		}
		out = strings.TrimSpace(text)
		return nil
	}, RetryOptions{})
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", fmt.Errorf("empty advice response")
	}
	return out, nil
}

func (c *messagesClient) SuggestCategory(ctx context.Context, description string, categories []core.Category) (string, error) {
	names := make([]string, 0, len(categories))
	for _, cat := range categories {
		names = append(names, cat.Name)
	}
	system := "You classify personal expenses. Respond only with JSON in the exact format requested."
	prompt := fmt.Sprintf(
		"Expense description: %q\nExisting categories: %s\nRespond with JSON {\"category\": \"<best matching existing category name, or empty string if none fits>\"}.",
		description, strings.Join(names, ", "))

	text, err := c.complete(ctx, system, prompt)
	if err != nil {
		return "", err
	}

	var resp struct {
		Category string `json:"category"`
	}
	if err := json.Unmarshal([]byte(cleanMarkdownWrapper(text)), &resp); err != nil {
		return "", fmt.Errorf("parse suggestion response: %w", err)
	}
	return strings.TrimSpace(resp.Category), nil
}

func (c *messagesClient) ParseTransaction(ctx context.Context, text string, categories []core.Category, currency string) (*TransactionDraft, error) {
	names := make([]string, 0, len(categories))
	for _, cat := range categories {
		names = append(names, fmt.Sprintf("%s (id=%s)", cat.Name, cat.ID))
	}
	system := "You turn free text into a structured personal-finance transaction. Respond only with JSON in the exact format requested. Respond with null if the text does not describe a transaction."
	prompt := fmt.Sprintf(
		"Text: %q\nCurrency: %s\nKnown categories: %s\n"+
			"Respond with JSON {\"amountCents\": <int>, \"description\": <string>, \"categoryId\": <string or null>, "+
			"\"newCategoryName\": <string or null>, \"type\": \"expense\"|\"income\", \"isRecurring\": <bool>, "+
			"\"recurrence\": \"none\"|\"daily\"|\"weekly\"|\"monthly\"|\"yearly\"} or null.",
		text, currency, strings.Join(names, ", "))

	raw, err := c.complete(ctx, system, prompt)
	if err != nil {
		return nil, err
	}
	return parseDraft(raw)
}

// complete performs one messages-API round trip and returns the text content.
func (c *messagesClient) complete(ctx context.Context, system, prompt string) (string, error) {
	requestBody := map[string]any{
		"model":       c.model,
		"max_tokens":  c.maxTokens,
		"temperature": c.temperature,
		"system":      system,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(string(jsonBody)))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return "", ErrRateLimit
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("messages API error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(parsed.Content) == 0 {
		return "", fmt.Errorf("no content in response")
	}
	return parsed.Content[0].Text, nil
}

// buildAdvicePrompt condenses the month into a compact JSON the model can
// reason about without seeing raw user data beyond what is needed.
func buildAdvicePrompt(monthlyIncome core.Money, transactions []core.Transaction, categories []core.Category, currency string) string {
	summary := core.Summarize(transactions, categories, monthlyIncome)
	type catLine struct {
		Name    string  `json:"name"`
		Spent   int64   `json:"spentCents"`
		Limit   int64   `json:"limitCents"`
		Percent float64 `json:"percentOfLimit"`
	}
	lines := make([]catLine, 0, len(summary.Categories))
	for _, c := range summary.Categories {
		lines = append(lines, catLine{Name: c.Name, Spent: c.Spent.Cents, Limit: c.Limit.Cents, Percent: c.PercentOfLimit})
	}
	payload := struct {
		Currency      string    `json:"currency"`
		IncomeCents   int64     `json:"totalIncomeCents"`
		ExpensesCents int64     `json:"totalExpensesCents"`
		Transactions  int       `json:"transactionCount"`
		Categories    []catLine `json:"categories"`
	}{
		Currency:      currency,
		IncomeCents:   summary.TotalIncome.Cents,
		ExpensesCents: summary.TotalExpenses.Cents,
		Transactions:  len(transactions),
		Categories:    lines,
	}
	b, _ := json.Marshal(payload)
	return "Monthly snapshot: " + string(b)
}
