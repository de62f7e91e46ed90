package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/newstype/internal/model"
)

// APIKeyHeader carries the user's key to the relay.
const APIKeyHeader = "X-Api-Key"

// Envelope is the relay's JSON body.
type Envelope struct {
	Data  *EnvelopeData `json:"data,omitempty"`
	Quota *model.Quota  `json:"quota,omitempty"`
	Error string        `json:"error,omitempty"`
}

// EnvelopeData holds the flattened article list.
type EnvelopeData struct {
	News      []model.Article `json:"news"`
	Available int             `json:"available"`
}

// RelayClient fetches articles through a newstype relay.
type RelayClient struct {
	BaseURL string
	HTTP    *http.Client
}

// NewRelayClient returns a client for the relay at baseURL.
func NewRelayClient(baseURL string, timeout time.Duration) *RelayClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RelayClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Fetch implements Fetcher.
func (c *RelayClient) Fetch(ctx context.Context, req Request) (Page, error) {
	values := url.Values{}
	values.Set("category", req.Category)
	values.Set("country", req.Country)
	if req.Category != "top" && req.Offset > 0 {
		values.Set("offset", strconv.Itoa(req.Offset))
	}
	endpoint := c.BaseURL + "/api/news?" + values.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return Page{}, fmt.Errorf("failed to create request: %w", err)
	}
	if req.APIKey != "" {
		httpReq.Header.Set(APIKeyHeader, req.APIKey)
	}
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return Page{}, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return Page{}, fmt.Errorf("failed to read relay response: %w", err)
	}
	var env Envelope
	decodeErr := json.Unmarshal(body, &env)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Error
		if decodeErr != nil || msg == "" {
			msg = fmt.Sprintf("news relay responded with status %d", resp.StatusCode)
		}
		return Page{}, &StatusError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return Page{}, fmt.Errorf("failed to decode relay response: %w", decodeErr)
	}
	if env.Error != "" {
		return Page{}, &StatusError{StatusCode: resp.StatusCode, Message: env.Error}
	}
	var articles []model.Article
	if env.Data != nil {
		articles = env.Data.News
	}
	return preparePage(articles, env.Quota), nil
}
