// Package worldbank implements a thin client for the World Bank indicator
// API. One request per country, decoded from the two-element
// [metadata, observations] envelope, rate limited and retried.
package worldbank

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"forestpanel/internal/country"
	"forestpanel/internal/errors"
	"forestpanel/internal/indicator"
)

// DefaultBaseURL is the World Bank API v2 endpoint.
const DefaultBaseURL = "https://api.worldbank.org/v2"

// Client fetches World Bank indicator observations for the study scope.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retries    int
	limiter    *rate.Limiter
	countries  []string
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

// WithRequestsPerSecond caps the request rate against the API.
func WithRequestsPerSecond(rps float64) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// WithCountries overrides the country list (used by tests).
func WithCountries(iso3 []string) Option {
	return func(c *Client) { c.countries = iso3 }
}

// NewClient creates a World Bank client scoped to the study countries.
func NewClient(logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		retries:    3,
		limiter:    rate.NewLimiter(rate.Limit(5), 1),
		countries:  country.SouthAmericaISO3,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// observation mirrors one element of the API's data array.
type observation struct {
	CountryISO3 string   `json:"countryiso3code"`
	Date        string   `json:"date"`
	Value       *float64 `json:"value"`
}

// Fetch retrieves an indicator for every in-scope country. It satisfies
// the pipeline's indicator source contract; rule.IndicatorID is the World
// Bank series code (e.g. EG.ELC.HYRO.ZS).
func (c *Client) Fetch(ctx context.Context, rule indicator.Rule) ([]indicator.Record, error) {
	var records []indicator.Record
	for _, iso3 := range c.countries {
		obs, err := c.fetchCountry(ctx, iso3, rule.IndicatorID)
		if err != nil {
			return nil, errors.ProviderFailure("worldbank", rule.IndicatorID, err)
		}
		for _, o := range obs {
			year, err := strconv.Atoi(o.Date)
			if err != nil {
				// Quarterly and aggregate dates are not panel years.
				continue
			}
			records = append(records, indicator.Record{
				ISO3:  o.CountryISO3,
				Year:  year,
				Value: o.Value,
			})
		}
	}
	c.logger.InfoContext(ctx, "fetched worldbank indicator",
		"indicator", rule.IndicatorID,
		"records", len(records),
	)
	return records, nil
}

func (c *Client) fetchCountry(ctx context.Context, iso3, code string) ([]observation, error) {
	u := fmt.Sprintf("%s/country/%s/indicator/%s?%s", c.baseURL, iso3, code, url.Values{
		"format":   {"json"},
		"per_page": {"2000"},
	}.Encode())

	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		c.logger.InfoContext(ctx, "GET", "url", u, "attempt", attempt)
		body, err := c.get(ctx, u)
		if err != nil {
			lastErr = err
			continue
		}

		// Envelope is a two-element array: [metadata, data]. The data
		// element is null for unknown series.
		var payload []json.RawMessage
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("decode envelope for %s/%s: %w", iso3, code, err)
		}
		if len(payload) < 2 {
			return nil, fmt.Errorf("unexpected envelope for %s/%s", iso3, code)
		}
		if string(payload[1]) == "null" {
			return nil, nil
		}
		var obs []observation
		if err := json.Unmarshal(payload[1], &obs); err != nil {
			return nil, fmt.Errorf("decode observations for %s/%s: %w", iso3, code, err)
		}
		return obs, nil
	}
	return nil, lastErr
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return body, nil
}
