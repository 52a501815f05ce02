package panel

import (
	"context"
	"log/slog"
	"sort"

	"forestpanel/internal/country"
)

// Series is one indicator's (iso3, year) -> value mapping, as produced by
// the extractor.
type Series map[Key]float64

// Overwrite records a ColumnOverwrite diagnostic: the same key received a
// second value for a column that was already populated. Last write wins.
type Overwrite struct {
	Key      Key
	Column   string
	Previous float64
	Next     float64
}

// Assembler folds indicator series into a growing panel via key-preserving
// left joins restricted to the study domain.
type Assembler struct {
	resolver *country.Resolver
	logger   *slog.Logger
}

// NewAssembler creates an assembler over the given country scope.
func NewAssembler(resolver *country.Resolver, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{resolver: resolver, logger: logger}
}

// Assemble joins a new series onto the base panel under the given column
// name and returns the enriched panel. The output row set is the union of
// keys present in either input, restricted to the 12x3 study domain, and
// (iso3, year) stays unique. If the column already holds a different value
// for a key, the most recently supplied value wins and a ColumnOverwrite
// diagnostic is reported.
func (a *Assembler) Assemble(ctx context.Context, base *Panel, series Series, column string) (*Panel, []Overwrite) {
	out := base.Clone()
	var overwrites []Overwrite

	keys := make([]Key, 0, len(series))
	for k := range series {
		keys = append(keys, k)
	}
	// Deterministic join order for byte-identical re-runs.
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	for _, k := range keys {
		if !inDomain(a.resolver, k) {
			continue
		}
		v := series[k]
		if prev, ok := out.Value(k, column); ok && prev != v {
			overwrites = append(overwrites, Overwrite{Key: k, Column: column, Previous: prev, Next: v})
			a.logger.WarnContext(ctx, "column overwrite",
				"column", column,
				"iso3", k.ISO3,
				"year", k.Year,
				"previous", prev,
				"next", v,
			)
		}
		out.set(k, column, v)
	}

	// Register the column even when the series is empty so the pruning
	// stage can report it as dropped.
	if !out.HasColumn(column) {
		out.columns = append(out.columns, column)
	}

	a.logger.InfoContext(ctx, "assembled column",
		"column", column,
		"series_points", len(series),
		"panel_rows", out.NumRows(),
	)
	return out, overwrites
}
