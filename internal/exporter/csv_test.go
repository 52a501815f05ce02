package exporter

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forestpanel/internal/panel"
	"forestpanel/internal/pipeline"
)

func samplePanel(t *testing.T) *panel.Panel {
	t.Helper()
	p, dups := panel.FromRows([]string{"forest_area_kha", "gini_index"}, []panel.Row{
		{Key: panel.Key{ISO3: "BRA", Year: 2000}, Values: map[string]float64{"forest_area_kha": 521274, "gini_index": 58.6}},
		{Key: panel.Key{ISO3: "BRA", Year: 2020}, Values: map[string]float64{"forest_area_kha": 496620}},
		{Key: panel.Key{ISO3: "ARG", Year: 2000}, Values: map[string]float64{"gini_index": 51.1}},
	})
	require.Zero(t, dups)
	return p
}

func TestSavePanelCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "panel_levels.csv")
	require.NoError(t, SavePanelCSV(samplePanel(t), path))

	loaded, err := panel.LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.NumRows())
	assert.Equal(t, []string{"forest_area_kha", "gini_index"}, loaded.Columns())

	v, ok := loaded.Value(panel.Key{ISO3: "BRA", Year: 2000}, "forest_area_kha")
	require.True(t, ok)
	assert.Equal(t, 521274.0, v)

	// Missing stays missing through the round trip.
	_, ok = loaded.Value(panel.Key{ISO3: "BRA", Year: 2020}, "gini_index")
	assert.False(t, ok)
	_, ok = loaded.Value(panel.Key{ISO3: "ARG", Year: 2000}, "forest_area_kha")
	assert.False(t, ok)
}

func TestSavePanelCSVRejectsEmpty(t *testing.T) {
	err := SavePanelCSV(panel.New(), filepath.Join(t.TempDir(), "empty.csv"))
	require.Error(t, err)
}

func TestSaveCodebookCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "variables_codebook.csv")
	require.NoError(t, SaveCodebookCSV(panel.Codebook(), path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	assert.Equal(t, []string{"variable", "description", "source", "unit"}, rows[0])
	assert.Equal(t, len(panel.Codebook())+1, len(rows))

	found := false
	for _, row := range rows[1:] {
		if row[0] == "delta_forest_pct" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestSaveReportJSON(t *testing.T) {
	report := &pipeline.Report{
		RunID:          "test-run",
		DroppedColumns: []string{"methane_emissions_kt_co2eq"},
		LevelRows:      36,
	}
	path := filepath.Join(t.TempDir(), "run_report.json")
	require.NoError(t, SaveReportJSON(report, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var loaded pipeline.Report
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, "test-run", loaded.RunID)
	assert.Equal(t, 36, loaded.LevelRows)
	assert.Equal(t, []string{"methane_emissions_kt_co2eq"}, loaded.DroppedColumns)
}
