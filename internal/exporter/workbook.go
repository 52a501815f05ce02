package exporter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"forestpanel/internal/panel"
)

// SaveWorkbook writes the level panel, delta panel and codebook into one
// Excel workbook for reviewers who work outside the CSV tooling.
func SaveWorkbook(level, delta *panel.Panel, codebook []panel.CodebookEntry, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := writePanelSheet(f, "Levels", level, headerStyle); err != nil {
		return err
	}
	if err := writePanelSheet(f, "Deltas", delta, headerStyle); err != nil {
		return err
	}
	if err := writeCodebookSheet(f, codebook, headerStyle); err != nil {
		return err
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}
	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writePanelSheet(f *excelize.File, name string, p *panel.Panel, headerStyle int) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}

	columns := p.Columns()
	header := append([]string{"iso3", "year"}, columns...)
	for i, h := range header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("sheet %s header cell: %w", name, err)
		}
		if err := f.SetCellValue(name, cell, h); err != nil {
			return fmt.Errorf("sheet %s header: %w", name, err)
		}
	}
	endCell, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return fmt.Errorf("sheet %s header range: %w", name, err)
	}
	if err := f.SetCellStyle(name, "A1", endCell, headerStyle); err != nil {
		return fmt.Errorf("sheet %s header style: %w", name, err)
	}

	for rowIdx, k := range p.Keys() {
		row := rowIdx + 2
		if err := setCell(f, name, 1, row, k.ISO3); err != nil {
			return err
		}
		if err := setCell(f, name, 2, row, k.Year); err != nil {
			return err
		}
		for colIdx, c := range columns {
			v, ok := p.Value(k, c)
			if !ok {
				// Missing stays blank.
				continue
			}
			if err := setCell(f, name, colIdx+3, row, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeCodebookSheet(f *excelize.File, codebook []panel.CodebookEntry, headerStyle int) error {
	const name = "Codebook"
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	header := []string{"variable", "description", "source", "unit"}
	for i, h := range header {
		if err := setCell(f, name, i+1, 1, h); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(name, "A1", "D1", headerStyle); err != nil {
		return fmt.Errorf("sheet %s header style: %w", name, err)
	}
	for rowIdx, e := range codebook {
		row := rowIdx + 2
		values := []string{e.Variable, e.Description, e.Source, e.Unit}
		for colIdx, v := range values {
			if err := setCell(f, name, colIdx+1, row, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("sheet %s cell (%d,%d): %w", sheet, col, row, err)
	}
	if err := f.SetCellValue(sheet, cell, v); err != nil {
		return fmt.Errorf("sheet %s cell %s: %w", sheet, cell, err)
	}
	return nil
}
