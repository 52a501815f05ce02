package indicator

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sort"
	"strings"

	"forestpanel/internal/country"
	"forestpanel/internal/errors"
	"forestpanel/internal/panel"
)

// Stats tallies what happened to the raw records during one extraction.
// Malformed records are skipped but always counted, never silently ignored.
type Stats struct {
	// Matched records passed the dimension filters and carried a value.
	Matched int
	// Filtered records were valid but did not match the rule's filters,
	// fell outside the study scope, or fell outside the analysis years.
	Filtered int
	// Missing records matched but carried no observed value.
	Missing int
	// Malformed records lacked a required dimension or a usable year.
	Malformed int
	// Duplicates counts identity-aggregated keys that saw more than one
	// record.
	Duplicates int
}

// Extractor turns provider records into per-indicator series.
type Extractor struct {
	resolver *country.Resolver
	logger   *slog.Logger
}

// NewExtractor creates an extractor bound to the study's country scope.
func NewExtractor(resolver *country.Resolver, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{resolver: resolver, logger: logger}
}

// Extract filters and aggregates raw records into one (iso3, year) -> value
// series according to the rule. An in-scope country identifier that fails
// to resolve aborts the extraction with an UnmappedCountry error. Records
// with zero matches for an otherwise in-scope country-year simply leave no
// entry: absence propagates as missing, never zero.
func (e *Extractor) Extract(ctx context.Context, rule Rule, records []Record) (panel.Series, Stats, error) {
	if err := rule.Validate(); err != nil {
		return nil, Stats{}, err
	}
	years := rule.Years
	if len(years) == 0 {
		years = panel.AnalysisYears
	}

	stats := Stats{}
	series := make(panel.Series)
	seen := make(map[panel.Key]int)

	for _, rec := range records {
		iso3, skip, err := e.resolveCountry(rec)
		if err != nil {
			e.logger.ErrorContext(ctx, "extraction aborted on unmapped country",
				"indicator", rule.IndicatorID, "raw", rec.Country)
			return nil, stats, err
		}
		if skip || !yearIn(years, rec.Year) {
			stats.Filtered++
			continue
		}

		match, malformed := matchFilters(rec, rule.Filters)
		if malformed != "" {
			stats.Malformed++
			e.logger.WarnContext(ctx, "malformed record skipped",
				"indicator", rule.IndicatorID,
				"iso3", iso3,
				"year", rec.Year,
				"reason", malformed,
			)
			continue
		}
		if !match {
			stats.Filtered++
			continue
		}
		if !rec.HasValue() {
			stats.Missing++
			continue
		}

		key := panel.Key{ISO3: iso3, Year: rec.Year}
		seen[key]++
		switch rule.Aggregation {
		case AggSum, AggMean:
			series[key] += *rec.Value
		case AggFirst:
			if seen[key] == 1 {
				series[key] = *rec.Value
			}
		default: // AggIdentity
			if seen[key] > 1 {
				// The discarded record is a duplicate, not a match.
				stats.Duplicates++
				continue
			}
			series[key] = *rec.Value
		}
		stats.Matched++
	}

	if rule.Aggregation == AggMean {
		for k := range series {
			series[k] /= float64(seen[k])
		}
	}
	if scale := rule.scale(); scale != 1 {
		for k, v := range series {
			series[k] = v * scale
		}
	}

	e.logger.InfoContext(ctx, "extracted indicator series",
		"indicator", rule.IndicatorID,
		"column", rule.Column,
		"points", len(series),
		"matched", stats.Matched,
		"filtered", stats.Filtered,
		"missing", stats.Missing,
		"malformed", stats.Malformed,
		"duplicates", stats.Duplicates,
	)
	return series, stats, nil
}

// resolveCountry returns the ISO3 code for a record, whether the record is
// out of scope (skip), or an UnmappedCountry error for identifiers the
// resolver cannot place.
func (e *Extractor) resolveCountry(rec Record) (iso3 string, skip bool, err error) {
	if rec.ISO3 != "" {
		if !e.resolver.InScope(rec.ISO3) {
			return "", true, nil
		}
		return strings.ToUpper(strings.TrimSpace(rec.ISO3)), false, nil
	}
	if rec.CountryCode != 0 {
		iso, ok := e.resolver.ResolveCode(rec.CountryCode)
		if !ok {
			// Numeric codes come from world-wide bulk files; unknown
			// code means out-of-scope.
			return "", true, nil
		}
		return iso, false, nil
	}
	iso, rerr := e.resolver.Resolve(rec.Country)
	if rerr != nil {
		return "", false, rerr
	}
	return iso, false, nil
}

// matchFilters checks every rule filter against the record's dimensions.
// For each filter keyword it finds the dimension whose name contains the
// keyword; a record lacking such a dimension is malformed.
func matchFilters(rec Record, filters map[string]string) (match bool, malformed string) {
	if len(filters) == 0 {
		return true, ""
	}
	keywords := make([]string, 0, len(filters))
	for kw := range filters {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)

	for _, kw := range keywords {
		required := filters[kw]
		found := false
		for dim, val := range rec.Dimensions {
			if !strings.Contains(strings.ToLower(dim), strings.ToLower(kw)) {
				continue
			}
			found = true
			if !strings.EqualFold(strings.TrimSpace(val), required) {
				return false, ""
			}
			break
		}
		if !found {
			return false, "missing dimension matching keyword " + kw
		}
	}
	return true, ""
}

func yearIn(years []int, y int) bool {
	for _, v := range years {
		if v == y {
			return true
		}
	}
	return false
}

// Unmapped reports whether an error is an UnmappedCountry failure.
func Unmapped(err error) bool {
	return stderrors.Is(err, errors.ErrUnmappedCountry)
}
