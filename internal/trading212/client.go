// Package trading212 talks to the broker's export API. It turns the
// asynchronous report-generation protocol (create job, poll status, download
// file) into a synchronous stream of normalized transaction records.
package trading212

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultGraceDelay   = 10 * time.Second
	defaultPollInterval = 30 * time.Second
	defaultMaxPolls     = 20
)

// Client is an authenticated export API client for one connection.
type Client struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
	log        zerolog.Logger

	// Export jobs usually finish within the grace delay. After the first
	// status check the API rate-limits polling, so subsequent checks wait a
	// full interval. maxPolls bounds the wait.
	graceDelay   time.Duration
	pollInterval time.Duration
	maxPolls     int
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithPolling overrides the export-poll schedule. Tests use this to avoid
// real waits.
func WithPolling(grace, interval time.Duration, maxPolls int) Option {
	return func(c *Client) {
		c.graceDelay = grace
		c.pollInterval = interval
		c.maxPolls = maxPolls
	}
}

// New creates a Client authenticating with HTTP Basic apiKey:apiSecret.
func New(baseURL, apiKey, apiSecret string, log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:      baseURL,
		apiKey:       apiKey,
		apiSecret:    apiSecret,
		httpClient:   &http.Client{Timeout: defaultTimeout},
		log:          log.With().Str("client", "trading212").Logger(),
		graceDelay:   defaultGraceDelay,
		pollInterval: defaultPollInterval,
		maxPolls:     defaultMaxPolls,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do performs an authenticated request and returns the response body.
func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.SetBasicAuth(c.apiKey, c.apiSecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("trading212: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("trading212: reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Debug().Int("status", resp.StatusCode).Str("path", path).Msg("api error")
		return nil, statusError(resp.StatusCode)
	}
	return data, nil
}

// AccountInfo is the remote account's identity and settlement currency.
type AccountInfo struct {
	ID           int64  `json:"id"`
	CurrencyCode string `json:"currencyCode"`
}

// AccountCash is the remote account's snapshot balances. Free is cash
// available to spend, Invested the current value of open positions.
type AccountCash struct {
	Free     decimal.Decimal `json:"free"`
	Invested decimal.Decimal `json:"invested"`
	Total    decimal.Decimal `json:"total"`
}

// FetchAccountInfo returns the remote account's id and currency.
func (c *Client) FetchAccountInfo(ctx context.Context) (AccountInfo, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/v0/equity/account/info", nil)
	if err != nil {
		return AccountInfo{}, err
	}
	var info AccountInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return AccountInfo{}, fmt.Errorf("parsing account info: %w", err)
	}
	return info, nil
}

// FetchAccountCash returns the remote account's snapshot balances.
func (c *Client) FetchAccountCash(ctx context.Context) (AccountCash, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/v0/equity/account/cash", nil)
	if err != nil {
		return AccountCash{}, err
	}
	var cash AccountCash
	if err := json.Unmarshal(data, &cash); err != nil {
		return AccountCash{}, fmt.Errorf("parsing account cash: %w", err)
	}
	return cash, nil
}
