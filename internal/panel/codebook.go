package panel

// CodebookEntry documents one panel variable for downstream consumers.
type CodebookEntry struct {
	Variable    string
	Description string
	Source      string
	Unit        string
}

// Codebook returns the fixed variable codebook for the level and delta
// panels. Column presence in an actual run is data-dependent; the codebook
// documents the full variable universe.
func Codebook() []CodebookEntry {
	return []CodebookEntry{
		{"iso3", "Country ISO3 code", "Multiple (CEPALSTAT, FAOSTAT, World Bank)", "-"},
		{"year", "Calendar year", "Multiple", "year"},
		{"forest_area_kha", "Forest area", "CEPALSTAT indicator 2036", "thousand hectares"},
		{"co2_per_gdp_kg_per_usd", "CO2 emissions per unit of GDP PPP (constant 2017 USD)", "CEPALSTAT indicator 3914", "kg CO2 / USD"},
		{"agriculture_value_added_share_gdp_pct", "Agriculture value added as share of GDP", "CEPALSTAT indicator 3745", "percent"},
		{"gdp_per_capita_ppp_const2017", "GDP per capita, PPP (constant 2017 international dollars)", "World Bank NY.GDP.PCAP.PP.KD", "2017 international USD per capita"},
		{"agricultural_land_share_pct", "Agricultural land as share of land area", "World Bank AG.LND.AGRI.ZS", "percent"},
		{"urban_population_share_pct", "Urban population as share of total", "World Bank SP.URB.TOTL.IN.ZS", "percent"},
		{"hydro_electricity_share_pct", "Electricity production from hydroelectric sources, share of total", "World Bank EG.ELC.HYRO.ZS", "percent"},
		{"electricity_share_coal_pct", "Electricity production from coal sources, share of total", "World Bank EG.ELC.COAL.ZS", "percent"},
		{"electricity_share_gas_pct", "Electricity production from natural gas sources, share of total", "World Bank EG.ELC.NGAS.ZS", "percent"},
		{"electricity_share_renewables_excl_hydro_pct", "Electricity production from renewables excluding hydro, share of total", "World Bank EG.ELC.RNWX.ZS", "percent"},
		{"electrification_rate_pct", "Access to electricity, total", "World Bank EG.ELC.ACCS.ZS", "percent of population"},
		{"soy_area_kha", "Soy harvested area", "FAOSTAT Production Crops & Livestock (Item Code 236, Element 5312)", "thousand hectares"},
		{"sugarcane_area_kha", "Sugarcane harvested area", "FAOSTAT Production Crops & Livestock (Item Code 156, Element 5312)", "thousand hectares"},
		{"pasture_area_kha", "Permanent meadows and pastures area", "FAOSTAT Inputs LandUse (Item Code 6655, Element 5110)", "thousand hectares"},
		{"fertilizer_use_kg_per_ha", "Nitrogen fertilizer application rate", "FAOSTAT Inputs Fertilizers by Nutrient (Item Code 3102, Element 5157)", "kg nutrient per hectare"},
		{"protected_areas_share_pct", "Terrestrial protected areas share", "CEPALSTAT indicator 2260", "percent"},
		{"control_of_corruption_est", "Control of Corruption estimate", "World Bank CC.EST", "index (-2.5..2.5)"},
		{"rule_of_law_est", "Rule of Law estimate", "World Bank RL.EST", "index (-2.5..2.5)"},
		{"gini_index", "Gini inequality index", "CEPALSTAT indicator 3289", "index (0..1)"},
		{"rural_extreme_poverty_pct", "Rural extreme poverty rate", "CEPALSTAT indicator 3328", "percent"},
		{"methane_emissions_kt_co2eq", "Methane emissions", "World Bank EN.ATM.METH.KT.CE", "kilotonnes CO2eq"},
		{"lulucf_forest_kt_co2eq", "Forest-land LULUCF net GHG emissions", "FAOSTAT Emissions Land Use Forests (Item Code 6751, Element 723113)", "kilotonnes CO2eq"},
		{"lulucf_total_kt_co2eq", "Total LULUCF net GHG emissions", "FAOSTAT Emissions Totals (Item Code 1707, Element 723113)", "kilotonnes CO2eq"},
		{"terms_of_trade_index", "Terms of trade index", "CEPALSTAT indicator 883", "index"},
		{"renewable_electricity_share_pct", "Renewable electricity output share", "World Bank EG.ELC.RNEW.ZS", "percent"},
		{"oil_rents_share_gdp_pct", "Oil rents as share of GDP", "World Bank NY.GDP.PETR.RT.ZS", "percent"},
		{"gdp_constant_2015_usd", "GDP, constant 2015 USD", "World Bank NY.GDP.MKTP.KD", "constant 2015 USD"},
		{"non_oil_gdp_constant_2015_usd", "GDP net of oil rents", "Computed from NY.GDP.MKTP.KD and NY.GDP.PETR.RT.ZS", "constant 2015 USD"},
		{"population_total", "Total population", "World Bank SP.POP.TOTL", "persons"},
		{"population_density", "Population density", "World Bank EN.POP.DNST", "people per sq. km of land area"},
		{"co2_total_kt", "Total CO2 emissions", "World Bank EN.ATM.CO2E.KT", "kilotonnes"},
		{"co2_per_capita_tons", "CO2 emissions per capita", "World Bank EN.ATM.CO2E.PC", "tonnes per capita"},
		{"lulucf_per_capita_t_co2eq", "LULUCF net GHG emissions per capita", "Computed from lulucf_total_kt_co2eq and population_total", "tonnes CO2eq per capita"},
		{"period_start", "First year of the decade", "Computed", "year"},
		{"delta_forest_kha", "Decadal absolute change in forest area", "Computed from forest_area_kha", "thousand hectares"},
		{"delta_forest_pct", "Decadal percentage change in forest area", "Computed from forest_area_kha", "percent"},
		{"delta_co2_intensity_abs", "Decadal absolute change in CO2 intensity per GDP", "Computed from co2_per_gdp_kg_per_usd", "kg CO2 / USD"},
		{"delta_hydro_share_pct", "Decadal change in hydro electricity share", "Computed from hydro_electricity_share_pct", "percentage points"},
		{"delta_gdp_per_capita", "Decadal change in GDP per capita PPP", "Computed from gdp_per_capita_ppp_const2017", "2017 international USD per capita"},
		{"delta_agri_share_pct", "Decadal change in agriculture value added share of GDP", "Computed from agriculture_value_added_share_gdp_pct", "percentage points"},
		{"delta_lulucf_per_capita_t_co2eq", "Decadal change in LULUCF emissions per capita", "Computed from lulucf_total_kt_co2eq and population_total", "tonnes CO2eq per capita"},
	}
}
