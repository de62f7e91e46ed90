// Package worldnews talks to the World News API.
package worldnews

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/newstype/internal/model"
)

// DefaultBaseURL is the public provider endpoint.
const DefaultBaseURL = "https://api.worldnewsapi.com"

// SearchPageSize is the number of articles requested per search page.
const SearchPageSize = 10

// Quota headers reported by the provider after each call.
const (
	HeaderQuotaRequest = "X-API-Quota-Request"
	HeaderQuotaUsed    = "X-API-Quota-Used"
	HeaderQuotaLeft    = "X-API-Quota-Left"
)

// Query selects one page of articles.
type Query struct {
	Category string
	Country  string
	Offset   int
}

// Result is one decoded provider response.
type Result struct {
	Articles []model.Article
	Quota    *model.Quota
}

// APIError is a non-2xx provider response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("news api responded with status %d", e.StatusCode)
	}
	return fmt.Sprintf("news api responded with status %d: %s", e.StatusCode, e.Message)
}

// Client fetches articles from the provider.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New returns a client for baseURL. An empty baseURL uses DefaultBaseURL.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Fetch requests one page for q using apiKey.
func (c *Client) Fetch(ctx context.Context, apiKey string, q Query) (Result, error) {
	if apiKey == "" {
		return Result{}, fmt.Errorf("api key is required")
	}
	endpoint := c.endpoint(apiKey, q)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		// Keep the api key out of error messages.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = c.BaseURL + req.URL.Path
		}
		return Result{}, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, apiError(resp)
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Result{}, fmt.Errorf("failed to decode news response: %w", err)
	}
	return Result{
		Articles: payload.articles(),
		Quota:    QuotaFromHeader(resp.Header),
	}, nil
}

func (c *Client) endpoint(apiKey string, q Query) string {
	country := q.Country
	if country == "" {
		country = "us"
	}
	values := url.Values{}
	values.Set("source-country", country)
	values.Set("language", model.LanguageFor(country))
	values.Set("api-key", apiKey)
	if q.Category == "" || q.Category == "top" {
		return c.BaseURL + "/top-news?" + values.Encode()
	}
	values.Set("categories", q.Category)
	values.Set("number", strconv.Itoa(SearchPageSize))
	values.Set("offset", strconv.Itoa(q.Offset))
	return c.BaseURL + "/search-news?" + values.Encode()
}

// QuotaFromHeader reads the quota headers. It returns nil when none are present.
func QuotaFromHeader(h http.Header) *model.Quota {
	req, okReq := headerFloat(h, HeaderQuotaRequest)
	used, okUsed := headerFloat(h, HeaderQuotaUsed)
	left, okLeft := headerFloat(h, HeaderQuotaLeft)
	if !okReq && !okUsed && !okLeft {
		return nil
	}
	return &model.Quota{Requested: req, Used: used, Remaining: left}
}

func headerFloat(h http.Header, name string) (float64, bool) {
	raw := strings.TrimSpace(h.Get(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		msg = payload.Message
		if msg == "" {
			msg = payload.Error
		}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(msg)}
}
