package pipeline

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forestpanel/internal/country"
	"forestpanel/internal/indicator"
	"forestpanel/internal/panel"
)

func fp(v float64) *float64 { return &v }

// fakeSource serves canned records per column. Successive calls for the
// same column walk the response list, so a re-supplied column can return
// revised values.
type fakeSource struct {
	mu        sync.Mutex
	responses map[string][][]indicator.Record
	errs      map[string]error
	calls     map[string]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		responses: make(map[string][][]indicator.Record),
		errs:      make(map[string]error),
		calls:     make(map[string]int),
	}
}

func (f *fakeSource) serve(column string, records ...[]indicator.Record) {
	f.responses[column] = records
}

func (f *fakeSource) fail(column string, err error) {
	f.errs[column] = err
}

func (f *fakeSource) Fetch(_ context.Context, rule indicator.Rule) ([]indicator.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[rule.Column]; ok {
		return nil, err
	}
	seq := f.responses[rule.Column]
	if len(seq) == 0 {
		return nil, nil
	}
	i := f.calls[rule.Column]
	f.calls[rule.Column]++
	if i >= len(seq) {
		i = len(seq) - 1
	}
	return seq[i], nil
}

func TestRunEndToEnd(t *testing.T) {
	cepal := newFakeSource()
	cepal.serve("forest_area_kha", []indicator.Record{
		{ISO3: "ARG", Year: 2000, Dimensions: map[string]string{"Type of forest": "Total forest"}, Value: fp(3000)},
		{ISO3: "ARG", Year: 2010, Dimensions: map[string]string{"Type of forest": "Total forest"}, Value: fp(2850)},
		{ISO3: "BRA", Year: 2000, Dimensions: map[string]string{"Type of forest": "Total forest"}, Value: fp(5000)},
		{ISO3: "BRA", Year: 2010, Dimensions: map[string]string{"Type of forest": "Total forest"}, Value: fp(4800)},
	})
	cepal.serve("co2_per_gdp_kg_per_usd", []indicator.Record{
		{ISO3: "ARG", Year: 2000, Dimensions: map[string]string{"Reporting type": "Global"}, Value: fp(0.219)},
		{ISO3: "ARG", Year: 2010, Dimensions: map[string]string{"Reporting type": "Global"}, Value: fp(0.205)},
	})

	wb := newFakeSource()
	// The energy-mix stage re-supplies hydro with a revised value.
	wb.serve("hydro_electricity_share_pct",
		[]indicator.Record{{ISO3: "ARG", Year: 2010, Value: fp(55)}},
		[]indicator.Record{{ISO3: "ARG", Year: 2010, Value: fp(57.5)}},
	)
	wb.serve("gdp_per_capita_ppp_const2017", []indicator.Record{
		{ISO3: "ARG", Year: 2000, Value: fp(10000)},
		{ISO3: "ARG", Year: 2010, Value: fp(12000)},
	})
	wb.serve("oil_rents_share_gdp_pct", []indicator.Record{
		{ISO3: "ARG", Year: 2010, Value: fp(10)},
	})
	wb.serve("gdp_constant_2015_usd", []indicator.Record{
		{ISO3: "ARG", Year: 2010, Value: fp(4e11)},
	})
	wb.serve("population_total", []indicator.Record{
		{ISO3: "ARG", Year: 2000, Value: fp(37e6)},
		{ISO3: "ARG", Year: 2010, Value: fp(45e6)},
	})
	wb.fail("co2_total_kt", fmt.Errorf("worldbank request for indicator EN.ATM.CO2E.KT failed"))

	fao := newFakeSource()
	fao.serve("lulucf_total_kt_co2eq", []indicator.Record{
		{CountryCode: 9, Year: 2000, Dimensions: map[string]string{"item_code": "1707", "element_code": "723113"}, Value: fp(90000)},
		{CountryCode: 9, Year: 2010, Dimensions: map[string]string{"item_code": "1707", "element_code": "723113"}, Value: fp(80000)},
	})

	runner := NewRunner(country.NewResolver(), map[string]Source{
		SourceCepalstat: cepal,
		SourceWorldBank: wb,
		SourceFaostat:   fao,
	}, nil)

	outcome, err := runner.Run(context.Background())
	require.NoError(t, err)
	report := outcome.Report
	assert.NotEmpty(t, report.RunID)

	// Level panel: ARG and BRA, both benchmark decades.
	assert.Equal(t, 4, outcome.Level.NumRows())

	// Derivations landed.
	nonOil, ok := outcome.Level.Value(panel.Key{ISO3: "ARG", Year: 2010}, "non_oil_gdp_constant_2015_usd")
	require.True(t, ok)
	assert.InDelta(t, 3.6e11, nonOil, 1)
	perCap, ok := outcome.Level.Value(panel.Key{ISO3: "ARG", Year: 2010}, "lulucf_per_capita_t_co2eq")
	require.True(t, ok)
	assert.InDelta(t, 80000*1000.0/45e6, perCap, 1e-9)

	// The re-supplied hydro value won and left a diagnostic.
	hydro, ok := outcome.Level.Value(panel.Key{ISO3: "ARG", Year: 2010}, "hydro_electricity_share_pct")
	require.True(t, ok)
	assert.Equal(t, 57.5, hydro)
	require.Len(t, report.Overwrites, 1)
	assert.Equal(t, "hydro_electricity_share_pct", report.Overwrites[0].Column)
	assert.Equal(t, 55.0, report.Overwrites[0].Previous)

	// The failed indicator is isolated: run completed, failure reported,
	// column pruned along with the never-observed ones.
	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "co2_total_kt", failed[0].Column)
	assert.Contains(t, report.DroppedColumns, "co2_total_kt")
	assert.Contains(t, report.DroppedColumns, "methane_emissions_kt_co2eq")
	assert.NotContains(t, report.DroppedColumns, "forest_area_kha")

	// Delta panel: one decade row per country with both endpoint rows.
	assert.Equal(t, 2, outcome.Delta.NumRows())
	dk := panel.Key{ISO3: "ARG", Year: 2010}

	pct, ok := outcome.Delta.Value(dk, "delta_forest_pct")
	require.True(t, ok)
	assert.InDelta(t, -5.0, pct, 1e-12)

	intensity, ok := outcome.Delta.Value(dk, "delta_co2_intensity_abs")
	require.True(t, ok)
	assert.InDelta(t, -0.014, intensity, 1e-12)

	gdp, ok := outcome.Delta.Value(dk, "delta_gdp_per_capita")
	require.True(t, ok)
	assert.InDelta(t, 2000.0, gdp, 1e-9)

	lulucf, ok := outcome.Delta.Value(dk, "delta_lulucf_per_capita_t_co2eq")
	require.True(t, ok)
	assert.InDelta(t, 80000*1000.0/45e6-90000*1000.0/37e6, lulucf, 1e-9)

	// Hydro has no 2000 endpoint, so its delta is reported missing.
	foundMissing := false
	for _, m := range report.MissingDeltas {
		if m.ISO3 == "ARG" && m.PeriodEnd == 2010 && m.Column == "delta_hydro_share_pct" {
			foundMissing = true
		}
	}
	assert.True(t, foundMissing)

	assert.Equal(t, report.LevelRows, outcome.Level.NumRows())
	assert.Equal(t, report.DeltaRows, outcome.Delta.NumRows())

	// Per-year descriptives land in the report.
	require.Contains(t, report.Descriptives, 2010)
	for _, cs := range report.Descriptives[2010] {
		if cs.Column == "forest_area_kha" {
			assert.Equal(t, 2, cs.N)
			assert.InDelta(t, (2850.0+4800.0)/2, cs.Mean, 1e-9)
		}
	}
}

func TestRunMissingSourceIsolated(t *testing.T) {
	runner := NewRunner(country.NewResolver(), map[string]Source{
		SourceCepalstat: newFakeSource(),
		SourceWorldBank: newFakeSource(),
		// no faostat
	}, nil)

	outcome, err := runner.Run(context.Background())
	require.NoError(t, err)

	foundFaostat := false
	for _, s := range outcome.Report.Failed() {
		if s.Source == SourceFaostat {
			foundFaostat = true
			assert.Contains(t, s.Error, "no source registered")
		}
	}
	assert.True(t, foundFaostat)
	assert.Zero(t, outcome.Level.NumRows())
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(country.NewResolver(), map[string]Source{
		SourceCepalstat: newFakeSource(),
		SourceWorldBank: newFakeSource(),
		SourceFaostat:   newFakeSource(),
	}, nil)

	_, err := runner.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStagesWiring(t *testing.T) {
	stages := Stages()
	require.NotEmpty(t, stages)

	// Every request names a registered source and a valid rule, and no two
	// requests share a column except the deliberate hydro re-supply.
	sources := map[string]bool{SourceCepalstat: true, SourceWorldBank: true, SourceFaostat: true}
	columns := map[string]int{}
	for _, stage := range stages {
		for _, req := range stage.Requests {
			assert.True(t, sources[req.Source], "unknown source in stage %s", stage.Name)
			assert.NoError(t, req.Rule.Validate())
			columns[req.Rule.Column]++
		}
	}
	assert.Equal(t, 2, columns["hydro_electricity_share_pct"])
	for col, n := range columns {
		if col == "hydro_electricity_share_pct" {
			continue
		}
		assert.Equal(t, 1, n, col)
	}
}
