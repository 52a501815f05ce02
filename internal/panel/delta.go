package panel

import (
	"context"
	"log/slog"
)

// Decade endpoints: each delta row is keyed by its period end year.
var periodEnds = []int{2010, 2020}

// DeltaRule maps a level column to its decadal delta column. Pct selects
// the percentage form instead of the absolute difference.
type DeltaRule struct {
	Level string
	Delta string
	Pct   bool
}

// DeltaRules is the fixed set of delta variables, in output column order.
var DeltaRules = []DeltaRule{
	{Level: "forest_area_kha", Delta: "delta_forest_kha"},
	{Level: "forest_area_kha", Delta: "delta_forest_pct", Pct: true},
	{Level: "co2_per_gdp_kg_per_usd", Delta: "delta_co2_intensity_abs"},
	{Level: "hydro_electricity_share_pct", Delta: "delta_hydro_share_pct"},
	{Level: "gdp_per_capita_ppp_const2017", Delta: "delta_gdp_per_capita"},
	{Level: "agriculture_value_added_share_gdp_pct", Delta: "delta_agri_share_pct"},
	{Level: "lulucf_per_capita_t_co2eq", Delta: "delta_lulucf_per_capita_t_co2eq"},
}

// MissingDelta records a country-decade whose delta for one variable could
// not be computed because an endpoint value is missing. Reported so
// consumers can audit completeness before citing the panel.
type MissingDelta struct {
	ISO3      string
	PeriodEnd int
	Column    string
}

// WithPerCapita returns a copy of the level panel extended with the derived
// lulucf_per_capita_t_co2eq column. The derivation is a pure function of
// lulucf_total_kt_co2eq and population_total: recomputing it from the same
// inputs always yields identical values.
func WithPerCapita(level *Panel) *Panel {
	out := level.Clone()
	for _, k := range out.Keys() {
		total, okT := out.Value(k, "lulucf_total_kt_co2eq")
		pop, okP := out.Value(k, "population_total")
		if !okT || !okP || pop == 0 {
			continue
		}
		out.set(k, "lulucf_per_capita_t_co2eq", total*1000.0/pop)
	}
	if !out.HasColumn("lulucf_per_capita_t_co2eq") {
		out.columns = append(out.columns, "lulucf_per_capita_t_co2eq")
	}
	return out
}

// BuildDeltas derives the decadal delta panel from a level panel. A delta
// row exists only when both endpoint level rows exist for the country; a
// specific delta value is present only when both endpoint values are
// present, so different variables may have different availability within
// the same country-decade. All-missing columns are pruned with the same
// policy as the level panel.
func BuildDeltas(ctx context.Context, logger *slog.Logger, level *Panel) (*Panel, []MissingDelta, []string) {
	if logger == nil {
		logger = slog.Default()
	}
	out := New()
	var missing []MissingDelta

	// Column layout: period bounds first, then period-end level values,
	// then the delta variables.
	out.columns = append(out.columns, "period_start")
	levelCols := level.Columns()
	out.columns = append(out.columns, levelCols...)
	for _, rule := range DeltaRules {
		if !out.HasColumn(rule.Delta) {
			out.columns = append(out.columns, rule.Delta)
		}
	}

	for _, k := range level.Keys() {
		iso := k.ISO3
		end := k.Year
		if !containsYear(periodEnds, end) {
			continue
		}
		start := end - 10
		startKey := Key{ISO3: iso, Year: start}
		if _, ok := level.cells[startKey]; !ok {
			// Never fabricate a delta row from a single endpoint.
			logger.WarnContext(ctx, "delta row skipped, start endpoint row missing",
				"iso3", iso, "period_start", start, "period_end", end)
			continue
		}

		dk := Key{ISO3: iso, Year: end}
		out.set(dk, "period_start", float64(start))
		for _, c := range levelCols {
			if v, ok := level.Value(k, c); ok {
				out.set(dk, c, v)
			}
		}

		for _, rule := range DeltaRules {
			endVal, okEnd := level.Value(k, rule.Level)
			startVal, okStart := level.Value(startKey, rule.Level)
			if !okEnd || !okStart {
				missing = append(missing, MissingDelta{ISO3: iso, PeriodEnd: end, Column: rule.Delta})
				continue
			}
			if rule.Pct {
				if startVal == 0 {
					missing = append(missing, MissingDelta{ISO3: iso, PeriodEnd: end, Column: rule.Delta})
					continue
				}
				out.set(dk, rule.Delta, 100.0*(endVal-startVal)/startVal)
				continue
			}
			out.set(dk, rule.Delta, endVal-startVal)
		}
	}

	pruned, dropped := Prune(out)
	logger.InfoContext(ctx, "delta panel built",
		"rows", pruned.NumRows(),
		"columns", len(pruned.Columns()),
		"missing_deltas", len(missing),
		"dropped_columns", len(dropped),
	)
	return pruned, missing, dropped
}

func containsYear(years []int, y int) bool {
	for _, v := range years {
		if v == y {
			return true
		}
	}
	return false
}
