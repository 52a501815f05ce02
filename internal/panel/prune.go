package panel

// Row is one raw panel row before deduplication, in input order. Rows in
// this form come from persisted CSVs or overlapping source joins.
type Row struct {
	Key    Key
	Values map[string]float64
}

// FromRows builds a panel from raw rows, collapsing exact-duplicate
// (iso3, year) keys by keeping the first occurrence (stable on input
// order). Returns the panel and the number of duplicate rows collapsed.
func FromRows(columns []string, rows []Row) (*Panel, int) {
	p := New()
	p.columns = append(p.columns, columns...)
	duplicates := 0
	for _, r := range rows {
		if _, exists := p.cells[r.Key]; exists {
			duplicates++
			continue
		}
		row := make(map[string]float64, len(r.Values))
		for c, v := range r.Values {
			row[c] = v
		}
		p.cells[r.Key] = row
	}
	return p, duplicates
}

// Prune drops every column with exactly zero observed values and returns
// the pruned panel with the names of the dropped columns. Columns with at
// least one observation are retained even if mostly missing; partial
// missingness is handled row-wise by the regression stage, not here.
func Prune(p *Panel) (*Panel, []string) {
	out := p.Clone()
	var kept []string
	var dropped []string
	for _, c := range out.columns {
		if out.Observations(c) == 0 {
			dropped = append(dropped, c)
			continue
		}
		kept = append(kept, c)
	}
	out.columns = kept
	return out, dropped
}
