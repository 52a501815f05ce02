// Package panel implements the country-year panel value type and the pure
// transformations that build the analysis panel: key-preserving assembly,
// deduplication, all-NA column pruning and decadal delta construction.
//
// A Panel is treated as an immutable snapshot between pipeline stages: every
// transformation returns a new value and never mutates its input, so a
// failure mid-stage can never leave a partially updated panel visible to
// later stages.
package panel

import (
	"sort"

	"forestpanel/internal/country"
)

// AnalysisYears is the fixed temporal scope of the level panel.
var AnalysisYears = []int{2000, 2010, 2020}

// Key identifies one panel row. (ISO3, Year) is unique across all rows of a
// panel at every stage after deduplication.
type Key struct {
	ISO3 string
	Year int
}

// Less orders keys by (iso3, year), the canonical panel ordering.
func (k Key) Less(other Key) bool {
	if k.ISO3 != other.ISO3 {
		return k.ISO3 < other.ISO3
	}
	return k.Year < other.Year
}

// Panel is a sparse table keyed by (iso3, year). A missing cell means the
// value was not observed; absence is never coerced to zero.
type Panel struct {
	columns []string
	cells   map[Key]map[string]float64
}

// New returns an empty panel.
func New() *Panel {
	return &Panel{cells: make(map[Key]map[string]float64)}
}

// Columns returns the column names in assembly order.
func (p *Panel) Columns() []string {
	out := make([]string, len(p.columns))
	copy(out, p.columns)
	return out
}

// HasColumn reports whether the panel carries the named column.
func (p *Panel) HasColumn(name string) bool {
	for _, c := range p.columns {
		if c == name {
			return true
		}
	}
	return false
}

// Keys returns all row keys ordered by (iso3, year).
func (p *Panel) Keys() []Key {
	keys := make([]Key, 0, len(p.cells))
	for k := range p.cells {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// NumRows returns the number of rows.
func (p *Panel) NumRows() int {
	return len(p.cells)
}

// Value returns the cell value for a key and column. The boolean is false
// when the value was not observed.
func (p *Panel) Value(k Key, column string) (float64, bool) {
	row, ok := p.cells[k]
	if !ok {
		return 0, false
	}
	v, ok := row[column]
	return v, ok
}

// Observations counts the non-missing values in a column.
func (p *Panel) Observations(column string) int {
	n := 0
	for _, row := range p.cells {
		if _, ok := row[column]; ok {
			n++
		}
	}
	return n
}

// Clone returns a deep copy. Transformations build their result on a clone
// so the input snapshot stays untouched.
func (p *Panel) Clone() *Panel {
	out := &Panel{
		columns: make([]string, len(p.columns)),
		cells:   make(map[Key]map[string]float64, len(p.cells)),
	}
	copy(out.columns, p.columns)
	for k, row := range p.cells {
		nr := make(map[string]float64, len(row))
		for c, v := range row {
			nr[c] = v
		}
		out.cells[k] = nr
	}
	return out
}

// WithColumn returns a copy of the panel carrying one additional column.
// Only keys already present as rows receive values; derived columns never
// introduce rows. Used by derivation steps that compute a series from
// columns the panel already holds.
func (p *Panel) WithColumn(column string, s Series) *Panel {
	out := p.Clone()
	if !out.HasColumn(column) {
		out.columns = append(out.columns, column)
	}
	for k, v := range s {
		if _, ok := out.cells[k]; !ok {
			continue
		}
		out.cells[k][column] = v
	}
	return out
}

// set writes a cell, registering the column and row as needed. Internal:
// exported mutation goes through the stage functions.
func (p *Panel) set(k Key, column string, v float64) {
	if !p.HasColumn(column) {
		p.columns = append(p.columns, column)
	}
	row, ok := p.cells[k]
	if !ok {
		row = make(map[string]float64)
		p.cells[k] = row
	}
	row[column] = v
}

// inDomain reports whether a key lies inside the fixed 12-country by
// 3-year study domain.
func inDomain(resolver *country.Resolver, k Key) bool {
	if !resolver.InScope(k.ISO3) {
		return false
	}
	for _, y := range AnalysisYears {
		if k.Year == y {
			return true
		}
	}
	return false
}
