// Package pipeline composes the enrichment stages into the fixed
// dependency order and runs them: extraction, assembly, pruning, delta
// construction, with per-indicator error isolation and a completeness
// report.
package pipeline

import (
	"context"

	"forestpanel/internal/indicator"
	"forestpanel/internal/panel"
)

// Source names, matching the Runner's source registry.
const (
	SourceCepalstat = "cepalstat"
	SourceWorldBank = "worldbank"
	SourceFaostat   = "faostat"
)

// SeriesRequest binds one extraction rule to the provider that serves it.
type SeriesRequest struct {
	Source string
	Rule   indicator.Rule
}

// Stage is one enrichment step: a set of indicator series to join onto the
// panel, plus an optional derivation over the assembled result. Stages are
// pure Panel -> Panel transformations; the runner threads the snapshot
// through them in order.
type Stage struct {
	Name     string
	Requests []SeriesRequest
	Derive   func(ctx context.Context, p *panel.Panel) *panel.Panel
}

// Stages returns the enrichment sequence in its fixed dependency order:
// base forest/CO2 first, then economic, energy mix, land use, governance,
// socio-economic, emissions, trade/energy and population controls. Each
// stage's output is the next stage's required input.
func Stages() []Stage {
	return []Stage{
		{
			Name: "base",
			Requests: []SeriesRequest{
				{SourceCepalstat, indicator.Rule{
					IndicatorID: "2036",
					Column:      "forest_area_kha",
					Filters:     map[string]string{"forest": "Total forest"},
				}},
				{SourceCepalstat, indicator.Rule{
					IndicatorID: "3914",
					Column:      "co2_per_gdp_kg_per_usd",
					Filters:     map[string]string{"reporting": "Global"},
				}},
			},
		},
		{
			Name: "economic",
			Requests: []SeriesRequest{
				{SourceCepalstat, indicator.Rule{
					IndicatorID: "3745",
					Column:      "agriculture_value_added_share_gdp_pct",
					Filters:     map[string]string{"reporting": "Global"},
				}},
				{SourceWorldBank, indicator.Rule{IndicatorID: "NY.GDP.PCAP.PP.KD", Column: "gdp_per_capita_ppp_const2017"}},
				{SourceWorldBank, indicator.Rule{IndicatorID: "AG.LND.AGRI.ZS", Column: "agricultural_land_share_pct"}},
				{SourceWorldBank, indicator.Rule{IndicatorID: "SP.URB.TOTL.IN.ZS", Column: "urban_population_share_pct"}},
				{SourceWorldBank, indicator.Rule{IndicatorID: "EG.ELC.HYRO.ZS", Column: "hydro_electricity_share_pct"}},
			},
		},
		{
			Name: "energy-mix",
			Requests: []SeriesRequest{
				// Re-supplies hydro share on purpose: identical values are
				// a no-op, changed upstream values surface as a
				// ColumnOverwrite diagnostic with last-write-wins.
				{SourceWorldBank, indicator.Rule{IndicatorID: "EG.ELC.HYRO.ZS", Column: "hydro_electricity_share_pct"}},
				{SourceWorldBank, indicator.Rule{IndicatorID: "EG.ELC.COAL.ZS", Column: "electricity_share_coal_pct"}},
				{SourceWorldBank, indicator.Rule{IndicatorID: "EG.ELC.NGAS.ZS", Column: "electricity_share_gas_pct"}},
				{SourceWorldBank, indicator.Rule{IndicatorID: "EG.ELC.RNWX.ZS", Column: "electricity_share_renewables_excl_hydro_pct"}},
				{SourceWorldBank, indicator.Rule{IndicatorID: "EG.ELC.ACCS.ZS", Column: "electrification_rate_pct"}},
			},
		},
		{
			Name: "land-use",
			Requests: []SeriesRequest{
				{SourceFaostat, indicator.Rule{
					IndicatorID: "QC",
					Column:      "soy_area_kha",
					Filters:     map[string]string{"item_code": "236", "element_code": "5312"},
					Aggregation: indicator.AggSum,
					Scale:       0.001,
				}},
				{SourceFaostat, indicator.Rule{
					IndicatorID: "QC",
					Column:      "sugarcane_area_kha",
					Filters:     map[string]string{"item_code": "156", "element_code": "5312"},
					Aggregation: indicator.AggSum,
					Scale:       0.001,
				}},
				{SourceFaostat, indicator.Rule{
					IndicatorID: "RL",
					Column:      "pasture_area_kha",
					Filters:     map[string]string{"item_code": "6655", "element_code": "5110"},
					Aggregation: indicator.AggSum,
					Scale:       0.001,
				}},
				{SourceFaostat, indicator.Rule{
					IndicatorID: "EF",
					Column:      "fertilizer_use_kg_per_ha",
					Filters:     map[string]string{"item_code": "3102", "element_code": "5157"},
					Aggregation: indicator.AggMean,
				}},
				{SourceCepalstat, indicator.Rule{
					IndicatorID: "2260",
					Column:      "protected_areas_share_pct",
				}},
			},
		},
		{
			Name: "governance",
			Requests: []SeriesRequest{
				{SourceWorldBank, indicator.Rule{IndicatorID: "CC.EST", Column: "control_of_corruption_est"}},
				{SourceWorldBank, indicator.Rule{IndicatorID: "RL.EST", Column: "rule_of_law_est"}},
			},
		},
		{
			Name: "socio-economic",
			Requests: []SeriesRequest{
				{SourceCepalstat, indicator.Rule{IndicatorID: "3289", Column: "gini_index"}},
				{SourceCepalstat, indicator.Rule{IndicatorID: "3328", Column: "rural_extreme_poverty_pct"}},
			},
		},
		{
			Name: "emissions",
			Requests: []SeriesRequest{
				// Retired upstream; usually yields no observations and the
				// column is pruned, which the report records.
				{SourceWorldBank, indicator.Rule{IndicatorID: "EN.ATM.METH.KT.CE", Column: "methane_emissions_kt_co2eq"}},
				{SourceFaostat, indicator.Rule{
					IndicatorID: "GF",
					Column:      "lulucf_forest_kt_co2eq",
					Filters:     map[string]string{"item_code": "6751", "element_code": "723113"},
					Aggregation: indicator.AggSum,
				}},
				{SourceFaostat, indicator.Rule{
					IndicatorID: "GT",
					Column:      "lulucf_total_kt_co2eq",
					Filters:     map[string]string{"item_code": "1707", "element_code": "723113"},
					Aggregation: indicator.AggSum,
				}},
			},
		},
		{
			Name: "trade-energy",
			Requests: []SeriesRequest{
				{SourceCepalstat, indicator.Rule{IndicatorID: "883", Column: "terms_of_trade_index"}},
				{SourceWorldBank, indicator.Rule{IndicatorID: "EG.ELC.RNEW.ZS", Column: "renewable_electricity_share_pct"}},
				{SourceWorldBank, indicator.Rule{IndicatorID: "NY.GDP.PETR.RT.ZS", Column: "oil_rents_share_gdp_pct"}},
				{SourceWorldBank, indicator.Rule{IndicatorID: "NY.GDP.MKTP.KD", Column: "gdp_constant_2015_usd"}},
			},
			Derive: deriveNonOilGDP,
		},
		{
			Name: "population-controls",
			Requests: []SeriesRequest{
				{SourceWorldBank, indicator.Rule{IndicatorID: "SP.POP.TOTL", Column: "population_total"}},
				{SourceWorldBank, indicator.Rule{IndicatorID: "EN.POP.DNST", Column: "population_density"}},
				{SourceWorldBank, indicator.Rule{IndicatorID: "EN.ATM.CO2E.KT", Column: "co2_total_kt"}},
				{SourceWorldBank, indicator.Rule{IndicatorID: "EN.ATM.CO2E.PC", Column: "co2_per_capita_tons"}},
			},
		},
	}
}

// deriveNonOilGDP computes GDP net of oil rents at level. Missing oil
// rents count as zero; missing GDP leaves the derived cell missing.
func deriveNonOilGDP(ctx context.Context, p *panel.Panel) *panel.Panel {
	series := make(panel.Series)
	for _, k := range p.Keys() {
		gdp, ok := p.Value(k, "gdp_constant_2015_usd")
		if !ok {
			continue
		}
		rents, _ := p.Value(k, "oil_rents_share_gdp_pct")
		series[k] = gdp * (1.0 - rents/100.0)
	}
	return p.WithColumn("non_oil_gdp_constant_2015_usd", series)
}
