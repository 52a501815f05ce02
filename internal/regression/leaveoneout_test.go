package regression

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forestpanel/internal/panel"
)

func elevenCountryPanel(t *testing.T) *panel.Panel {
	t.Helper()
	isos := []string{"ARG", "BOL", "BRA", "CHL", "COL", "ECU", "GUY", "PER", "PRY", "SUR", "URY"}
	var rows []panel.Row
	for i, iso := range isos {
		x := float64(i)
		rows = append(rows, panel.Row{
			Key:    panel.Key{ISO3: iso, Year: 2020},
			Values: map[string]float64{"y": 0.5 + 0.8*x + float64(i%3)*0.1, "x": x},
		})
	}
	p, _ := panel.FromRows([]string{"y", "x"}, rows)
	return p
}

func TestLeaveOneOut(t *testing.T) {
	engine := NewEngine(nil)
	spec := Spec{Name: "loo", Dependent: "y", Regressors: []string{"x"}, Variance: Classical}

	results, err := engine.LeaveOneOut(context.Background(), spec, elevenCountryPanel(t), "x")
	require.NoError(t, err)
	require.Len(t, results, 11)

	seen := map[string]bool{}
	for _, r := range results {
		assert.Equal(t, 10, r.NObs)
		assert.False(t, seen[r.OmittedISO3], "country omitted twice")
		seen[r.OmittedISO3] = true
		// The slope is stable under any single omission of this design.
		assert.InDelta(t, 0.8, r.Coefficient, 0.05)
		assert.Less(t, r.PValue, 0.01)
	}

	// Deterministic alphabetical omission order.
	assert.Equal(t, "ARG", results[0].OmittedISO3)
	assert.Equal(t, "URY", results[10].OmittedISO3)
}

func TestLeaveOneOutRefitsUnderRobustCovariance(t *testing.T) {
	// The per-omission p-values come from HC1 refits even when the spec
	// asks for classical inference; with heteroskedastic residuals the two
	// diverge while the coefficient stays the same.
	engine := NewEngine(nil)
	p := elevenCountryPanel(t)
	ctx := context.Background()
	spec := Spec{Name: "loo", Dependent: "y", Regressors: []string{"x"}, Variance: Classical}

	results, err := engine.LeaveOneOut(ctx, spec, p, "x")
	require.NoError(t, err)
	require.NotEmpty(t, results)

	sub := withoutCountry(p, results[0].OmittedISO3)
	hc1, err := engine.Fit(ctx, Spec{Name: "loo", Dependent: "y", Regressors: []string{"x"}, Variance: HC1}, sub)
	require.NoError(t, err)
	classical, err := engine.Fit(ctx, Spec{Name: "loo", Dependent: "y", Regressors: []string{"x"}, Variance: Classical}, sub)
	require.NoError(t, err)

	assert.Equal(t, hc1.Coefficients["x"], results[0].Coefficient)
	assert.Equal(t, hc1.PValues["x"], results[0].PValue)
	assert.NotEqual(t, classical.PValues["x"], results[0].PValue)
}

func TestLeaveOneOutSkipsThinRefits(t *testing.T) {
	// Three countries: each omission leaves n=2 < k+1, so every refit is
	// skipped rather than reported as unstable evidence.
	isos := []string{"ARG", "BRA", "CHL"}
	var rows []panel.Row
	for i, iso := range isos {
		rows = append(rows, panel.Row{
			Key:    panel.Key{ISO3: iso, Year: 2020},
			Values: map[string]float64{"y": float64(i), "x": float64(i * i)},
		})
	}
	p, _ := panel.FromRows([]string{"y", "x"}, rows)

	results, err := NewEngine(nil).LeaveOneOut(context.Background(),
		Spec{Name: "thin", Dependent: "y", Regressors: []string{"x"}, Variance: Classical}, p, "x")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestLeaveOneOutInvalidSpec(t *testing.T) {
	_, err := NewEngine(nil).LeaveOneOut(context.Background(),
		Spec{Name: "bad"}, elevenCountryPanel(t), "x")
	require.Error(t, err)
}
