package cepalstat

import (
	"fmt"
	"strconv"
	"strings"

	"forestpanel/internal/indicator"
)

// dimIndex resolves dim_<id> row columns back to dimension names and member
// labels.
type dimIndex struct {
	yearColumn string
	yearLabels map[string]string            // member id -> year label
	columns    map[string]string            // dim column -> dimension name
	members    map[string]map[string]string // dim column -> member id -> label
}

func buildDimIndex(dims []dimension) (dimIndex, error) {
	idx := dimIndex{
		yearLabels: map[string]string{},
		columns:    map[string]string{},
		members:    map[string]map[string]string{},
	}
	for _, d := range dims {
		col := "dim_" + d.ID.String()
		labels := make(map[string]string, len(d.Members))
		for _, m := range d.Members {
			labels[m.ID.String()] = m.Name
		}
		if strings.Contains(strings.ToLower(d.Name), "year") {
			idx.yearColumn = col
			idx.yearLabels = labels
			continue
		}
		idx.columns[col] = d.Name
		idx.members[col] = labels
	}
	if idx.yearColumn == "" {
		return idx, fmt.Errorf("year dimension not found in cube metadata")
	}
	if len(idx.yearLabels) == 0 {
		return idx, fmt.Errorf("year member map is empty")
	}
	return idx, nil
}

// decodeCube turns the raw cube rows into indicator records. Each record
// carries the iso3 code the API reports, the year resolved through the
// year dimension's member labels, every other dimension as a name -> value
// pair, and the observed value (nil when null). Rows whose year cannot be
// resolved are dropped here; they cannot key a panel cell.
func decodeCube(env envelope) ([]indicator.Record, error) {
	idx, err := buildDimIndex(env.Body.Dimensions)
	if err != nil {
		return nil, err
	}

	records := make([]indicator.Record, 0, len(env.Body.Data))
	for _, row := range env.Body.Data {
		yearRaw, ok := row[idx.yearColumn]
		if !ok {
			return nil, fmt.Errorf("year dimension column %s missing in data", idx.yearColumn)
		}
		yearLabel := idx.yearLabels[anyToString(yearRaw)]
		year, err := strconv.Atoi(strings.TrimSpace(yearLabel))
		if err != nil {
			continue
		}

		rec := indicator.Record{
			ISO3:       strings.TrimSpace(anyToString(row["iso3"])),
			Year:       year,
			Dimensions: make(map[string]string, len(idx.columns)),
		}
		for col, name := range idx.columns {
			raw, ok := row[col]
			if !ok {
				continue
			}
			if label, ok := idx.members[col][anyToString(raw)]; ok {
				rec.Dimensions[name] = label
			}
		}
		if v, ok := anyToFloat(row["value"]); ok {
			rec.Value = &v
		}
		records = append(records, rec)
	}
	return records, nil
}

func anyToString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		// JSON numbers decode as float64; member ids are integral.
		return strconv.FormatInt(int64(t), 10)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func anyToFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
