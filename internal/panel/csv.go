package panel

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadCSV reads a persisted panel (level or delta) back into memory.
// The first two columns must be iso3 and year; empty cells are missing
// values. Duplicate (iso3, year) rows are collapsed keeping the first
// occurrence, matching the deduplication policy of the builder.
func LoadCSV(path string) (*Panel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open panel csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read panel header: %w", err)
	}
	if len(header) < 2 || header[0] != "iso3" || header[1] != "year" {
		return nil, fmt.Errorf("panel csv %s: header must start with iso3,year", path)
	}
	columns := header[2:]

	var rows []Row
	line := 1
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read panel row %d: %w", line, err)
		}
		line++
		year, err := strconv.Atoi(strings.TrimSpace(rec[1]))
		if err != nil {
			return nil, fmt.Errorf("panel row %d: bad year %q: %w", line, rec[1], err)
		}
		row := Row{
			Key:    Key{ISO3: strings.TrimSpace(rec[0]), Year: year},
			Values: make(map[string]float64),
		}
		for i, col := range columns {
			cell := strings.TrimSpace(rec[i+2])
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("panel row %d column %s: bad value %q: %w", line, col, cell, err)
			}
			row.Values[col] = v
		}
		rows = append(rows, row)
	}

	p, _ := FromRows(columns, rows)
	return p, nil
}
