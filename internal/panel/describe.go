package panel

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// ColumnStats holds per-year descriptive statistics for one column.
type ColumnStats struct {
	Column string  `json:"column"`
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Describe computes mean, standard deviation, min and max per column for
// the rows of one benchmark year, skipping missing cells.
func Describe(p *Panel, year int, columns []string) []ColumnStats {
	var out []ColumnStats
	for _, c := range columns {
		var vals []float64
		for _, k := range p.Keys() {
			if k.Year != year {
				continue
			}
			if v, ok := p.Value(k, c); ok {
				vals = append(vals, v)
			}
		}
		cs := ColumnStats{Column: c, N: len(vals)}
		if len(vals) > 0 {
			cs.Mean = stat.Mean(vals, nil)
			// A single observation has no sample variance; keep the report
			// JSON-encodable instead of carrying NaN.
			if len(vals) > 1 {
				cs.Std = math.Sqrt(stat.Variance(vals, nil))
			}
			cs.Min = vals[0]
			cs.Max = vals[0]
			for _, v := range vals {
				cs.Min = math.Min(cs.Min, v)
				cs.Max = math.Max(cs.Max, v)
			}
		}
		out = append(out, cs)
	}
	return out
}

// Correlations returns the Pearson correlation matrix over the given
// columns, using only rows where both columns of a pair are observed.
// Entries with fewer than two complete pairs are NaN.
func Correlations(p *Panel, columns []string) [][]float64 {
	keys := p.Keys()
	out := make([][]float64, len(columns))
	for i := range columns {
		out[i] = make([]float64, len(columns))
		for j := range columns {
			var xs, ys []float64
			for _, k := range keys {
				x, okX := p.Value(k, columns[i])
				y, okY := p.Value(k, columns[j])
				if okX && okY {
					xs = append(xs, x)
					ys = append(ys, y)
				}
			}
			if len(xs) < 2 {
				out[i][j] = math.NaN()
				continue
			}
			out[i][j] = stat.Correlation(xs, ys, nil)
		}
	}
	return out
}
