// Package cepalstat implements a thin client for the CEPALSTAT Open Data
// API. It fetches a full indicator data cube and decodes the envelope into
// indicator records; filtering and aggregation are the extractor's job.
package cepalstat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"forestpanel/internal/errors"
	"forestpanel/internal/indicator"
)

// DefaultBaseURL is the CEPALSTAT API v1 endpoint.
const DefaultBaseURL = "https://api-cepalstat.cepal.org/cepalstat/api/v1"

// Client fetches CEPALSTAT indicator cubes with bounded retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retries    int
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint (used by tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetries sets the retry budget per request.
func WithRetries(n int) Option {
	return func(c *Client) { c.retries = n }
}

// NewClient creates a CEPALSTAT client.
func NewClient(logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retries:    3,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope mirrors the /indicator/{id}/data response. Data rows carry
// dynamic dim_<id> columns, so they stay generic maps until decoding.
type envelope struct {
	Body struct {
		Data       []map[string]any `json:"data"`
		Dimensions []dimension      `json:"dimensions"`
	} `json:"body"`
}

type dimension struct {
	ID      json.Number `json:"id"`
	Name    string      `json:"name"`
	Members []member    `json:"members"`
}

type member struct {
	ID   json.Number `json:"id"`
	Name string      `json:"name"`
}

// Fetch retrieves all records for an indicator rule. It satisfies the
// pipeline's indicator source contract.
func (c *Client) Fetch(ctx context.Context, rule indicator.Rule) ([]indicator.Record, error) {
	return c.FetchIndicator(ctx, rule.IndicatorID)
}

// FetchIndicator downloads the full data cube for an indicator and decodes
// it into records. Provider failures after the retry budget surface as a
// ProviderError for this indicator only.
func (c *Client) FetchIndicator(ctx context.Context, indicatorID string) ([]indicator.Record, error) {
	u := fmt.Sprintf("%s/indicator/%s/data?%s", c.baseURL, indicatorID, url.Values{
		"lang":   {"en"},
		"format": {"json"},
		"in":     {"1"},
		"path":   {"0"},
	}.Encode())

	body, err := c.getWithRetry(ctx, u)
	if err != nil {
		return nil, errors.ProviderFailure("cepalstat", indicatorID, err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, errors.ProviderFailure("cepalstat", indicatorID,
			fmt.Errorf("decode envelope: %w", err))
	}
	if len(env.Body.Data) == 0 {
		return nil, errors.ProviderFailure("cepalstat", indicatorID,
			fmt.Errorf("no data in cube response"))
	}

	records, err := decodeCube(env)
	if err != nil {
		return nil, errors.ProviderFailure("cepalstat", indicatorID, err)
	}
	c.logger.InfoContext(ctx, "fetched cepalstat cube",
		"indicator", indicatorID,
		"records", len(records),
	)
	return records, nil
}

func (c *Client) getWithRetry(ctx context.Context, u string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		c.logger.InfoContext(ctx, "GET", "url", u, "attempt", attempt)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				lastErr = readErr
			} else if resp.StatusCode != http.StatusOK {
				lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body))
			} else {
				return body, nil
			}
		}
		if attempt < c.retries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Second):
			}
		}
	}
	return nil, lastErr
}

func truncate(b []byte) string {
	const max = 200
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
