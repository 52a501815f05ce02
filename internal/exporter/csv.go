// Package exporter writes the pipeline outputs: panel CSVs, the variables
// codebook, the run report and the Excel workbook.
package exporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"forestpanel/internal/panel"
	"forestpanel/internal/pipeline"
)

// SavePanelCSV writes a panel with an iso3,year,<columns...> header.
// Missing cells are written as empty fields, never as zero.
func SavePanelCSV(p *panel.Panel, outputPath string) error {
	if p.NumRows() == 0 {
		return fmt.Errorf("no rows to save")
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	columns := p.Columns()
	header := append([]string{"iso3", "year"}, columns...)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for _, k := range p.Keys() {
		record := make([]string, 0, len(header))
		record = append(record, k.ISO3, strconv.Itoa(k.Year))
		for _, c := range columns {
			if v, ok := p.Value(k, c); ok {
				record = append(record, formatFloat(v))
			} else {
				record = append(record, "")
			}
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write CSV record for %s/%d: %w", k.ISO3, k.Year, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// SaveCodebookCSV writes the variables codebook.
func SaveCodebookCSV(entries []panel.CodebookEntry, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create codebook file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"variable", "description", "source", "unit"}); err != nil {
		return fmt.Errorf("write codebook header: %w", err)
	}
	for _, e := range entries {
		if err := writer.Write([]string{e.Variable, e.Description, e.Source, e.Unit}); err != nil {
			return fmt.Errorf("write codebook row %s: %w", e.Variable, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// SaveReportJSON writes the run report as indented JSON.
func SaveReportJSON(report *pipeline.Report, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// formatFloat renders values without trailing zero noise and without
// scientific notation for the magnitudes the panel carries.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
