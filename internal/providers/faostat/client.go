// Package faostat reads FAOSTAT observations, preferring local bulk-file
// archives (the normalized CSV-in-zip distribution) and falling back to
// the FAOSTAT API when no archive is configured for a domain.
package faostat

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"forestpanel/internal/country"
	"forestpanel/internal/errors"
	"forestpanel/internal/indicator"
	"forestpanel/internal/panel"
)

// DefaultBaseURL is the FAOSTAT API endpoint.
const DefaultBaseURL = "https://fenixservices.fao.org/faostat/api/v1/en"

// DefaultArchiveNames maps each domain to the official normalized bulk
// zip filename FAOSTAT publishes for it.
var DefaultArchiveNames = map[string]string{
	"QC": "Production_Crops_Livestock_E_All_Data_(Normalized).zip",
	"RL": "Inputs_LandUse_E_All_Data_(Normalized).zip",
	"EF": "Inputs_FertilizersNutrient_E_All_Data_(Normalized).zip",
	"GF": "Emissions_Land_Use_Forests_E_All_Data_(Normalized).zip",
	"GT": "Emissions_Totals_E_All_Data_(Normalized).zip",
}

// Client reads FAOSTAT data per domain.
type Client struct {
	baseURL    string
	httpClient *http.Client
	resolver   *country.Resolver
	// archives maps a FAOSTAT domain (QC, RL, EF, GHG...) to a local
	// normalized bulk zip. Domains without an archive go through the API.
	archives map[string]string
	logger   *slog.Logger
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

// WithArchive registers a local bulk zip for a domain.
func WithArchive(domain, zipPath string) Option {
	return func(c *Client) { c.archives[domain] = zipPath }
}

// NewClient creates a FAOSTAT client.
func NewClient(resolver *country.Resolver, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		resolver:   resolver,
		archives:   map[string]string{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch retrieves records for a rule whose IndicatorID is a FAOSTAT domain
// and whose filters carry item_code/element_code. It satisfies the
// pipeline's indicator source contract.
func (c *Client) Fetch(ctx context.Context, rule indicator.Rule) ([]indicator.Record, error) {
	domain := rule.IndicatorID
	if zipPath, ok := c.archives[domain]; ok {
		if _, err := os.Stat(zipPath); err == nil {
			records, err := c.readArchive(ctx, domain, zipPath)
			if err != nil {
				return nil, errors.ProviderFailure("faostat", domain, err)
			}
			return records, nil
		}
		c.logger.WarnContext(ctx, "bulk archive not found, falling back to API",
			"domain", domain, "path", zipPath)
	}
	records, err := c.fetchAPI(ctx, domain, rule)
	if err != nil {
		return nil, errors.ProviderFailure("faostat", domain, err)
	}
	return records, nil
}

// readArchive streams the normalized CSV inside a bulk zip, keeping only
// in-scope area codes and benchmark years. Item/element filtering is the
// extractor's job; the rows keep both codes as dimensions.
func (c *Client) readArchive(ctx context.Context, domain, zipPath string) ([]indicator.Record, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", zipPath, err)
	}
	defer zr.Close()

	file, err := dataCSV(zr, zipPath)
	if err != nil {
		return nil, err
	}
	csvName := file.Name

	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s in archive: %w", csvName, err)
	}
	defer rc.Close()

	r := csv.NewReader(rc)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", csvName, err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"Area Code", "Area", "Item Code", "Element Code", "Year", "Value"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", csvName, required)
		}
	}

	var records []indicator.Record
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", csvName, err)
		}
		areaCode, err := strconv.Atoi(strings.TrimSpace(row[col["Area Code"]]))
		if err != nil {
			continue
		}
		if _, ok := c.resolver.ResolveCode(areaCode); !ok {
			// World-wide bulk file; codes outside the study scope are
			// simply not part of the panel.
			continue
		}
		year, err := strconv.Atoi(strings.TrimSpace(row[col["Year"]]))
		if err != nil {
			continue
		}
		if !isAnalysisYear(year) {
			continue
		}
		rec := indicator.Record{
			Country:     strings.TrimSpace(row[col["Area"]]),
			CountryCode: areaCode,
			Year:        year,
			Dimensions: map[string]string{
				"item_code":    strings.TrimSpace(row[col["Item Code"]]),
				"element_code": strings.TrimSpace(row[col["Element Code"]]),
			},
		}
		if raw := strings.TrimSpace(row[col["Value"]]); raw != "" {
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				rec.Value = &v
			}
		}
		records = append(records, rec)
	}
	c.logger.InfoContext(ctx, "read faostat archive",
		"domain", domain,
		"archive", filepath.Base(zipPath),
		"records", len(records),
	)
	return records, nil
}

// dataCSV finds the data CSV inside a bulk zip. The official archives
// carry a CSV named after the zip; renamed archives still work as long as
// a single CSV entry identifies the data.
func dataCSV(zr *zip.ReadCloser, zipPath string) (*zip.File, error) {
	want := strings.TrimSuffix(filepath.Base(zipPath), ".zip") + ".csv"
	var csvs []*zip.File
	for _, f := range zr.File {
		if f.Name == want {
			return f, nil
		}
		if strings.EqualFold(filepath.Ext(f.Name), ".csv") {
			csvs = append(csvs, f)
		}
	}
	if len(csvs) == 1 {
		return csvs[0], nil
	}
	return nil, fmt.Errorf("archive %s does not contain %s or a single data CSV (%d CSV entries)",
		zipPath, want, len(csvs))
}

// apiPayload mirrors the FAOSTAT API response.
type apiPayload struct {
	Data []map[string]any `json:"data"`
}

func (c *Client) fetchAPI(ctx context.Context, domain string, rule indicator.Rule) ([]indicator.Record, error) {
	years := rule.Years
	if len(years) == 0 {
		years = panel.AnalysisYears
	}
	yearStrs := make([]string, len(years))
	for i, y := range years {
		yearStrs[i] = strconv.Itoa(y)
	}
	params := url.Values{
		"format": {"json"},
		"year":   {strings.Join(yearStrs, ",")},
	}
	if item, ok := rule.Filters["item_code"]; ok {
		params.Set("item_code", item)
	}
	if element, ok := rule.Filters["element_code"]; ok {
		params.Set("element_code", element)
	}
	u := fmt.Sprintf("%s/%s?%s", c.baseURL, domain, params.Encode())
	c.logger.InfoContext(ctx, "GET", "url", u)

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

	var payload apiPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	var records []indicator.Record
	for _, row := range payload.Data {
		iso3 := firstString(row, "area_code_iso3", "area_code_3", "area_iso3", "iso3")
		yearRaw := firstString(row, "year")
		year, err := strconv.Atoi(yearRaw)
		if err != nil {
			continue
		}
		rec := indicator.Record{
			ISO3: iso3,
			Year: year,
			Dimensions: map[string]string{
				"item_code":    firstString(row, "item_code", "item"),
				"element_code": firstString(row, "element_code", "element"),
			},
		}
		if v, ok := row["value"].(float64); ok {
			rec.Value = &v
		}
		records = append(records, rec)
	}
	return records, nil
}

func firstString(row map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := row[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatInt(int64(v), 10)
		}
	}
	return ""
}

func isAnalysisYear(y int) bool {
	for _, v := range panel.AnalysisYears {
		if v == y {
			return true
		}
	}
	return false
}
