package pipeline

import (
	"time"

	"forestpanel/internal/indicator"
	"forestpanel/internal/panel"
)

// IndicatorStatus is the per-indicator outcome of one run. A non-empty
// Error means the column was never populated; the run itself continues.
type IndicatorStatus struct {
	Stage       string          `json:"stage"`
	Source      string          `json:"source"`
	IndicatorID string          `json:"indicator_id"`
	Column      string          `json:"column"`
	Points      int             `json:"points"`
	Stats       indicator.Stats `json:"stats"`
	Error       string          `json:"error,omitempty"`
}

// Report aggregates every diagnostic a run produced: indicator outcomes,
// column overwrites, pruned columns and country-decades whose deltas could
// not be computed. It is what consumers audit before citing the panel.
type Report struct {
	RunID          string               `json:"run_id"`
	StartedAt      time.Time            `json:"started_at"`
	FinishedAt     time.Time            `json:"finished_at"`
	Indicators     []IndicatorStatus    `json:"indicators"`
	Overwrites     []panel.Overwrite    `json:"overwrites,omitempty"`
	DroppedColumns []string             `json:"dropped_columns,omitempty"`
	MissingDeltas  []panel.MissingDelta `json:"missing_deltas,omitempty"`
	LevelRows      int                  `json:"level_rows"`
	LevelColumns   int                  `json:"level_columns"`
	DeltaRows      int                  `json:"delta_rows"`
	// Descriptives holds per-column summary statistics for each benchmark
	// year of the level panel.
	Descriptives map[int][]panel.ColumnStats `json:"descriptives,omitempty"`
}

// Failed returns the statuses of indicators that produced no column.
func (r *Report) Failed() []IndicatorStatus {
	var out []IndicatorStatus
	for _, s := range r.Indicators {
		if s.Error != "" {
			out = append(out, s)
		}
	}
	return out
}
