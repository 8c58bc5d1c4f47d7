package fileio

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/nvirag/vsheet/internal/sheet"
)

// SaveCSV writes sh's evaluated grid as standard comma-separated text,
// double-quote escaped by encoding/csv. Evaluated display values are
// written, not formulas (spec.md §6 "evaluated values are written on
// export").
func SaveCSV(path string, sh *sheet.Sheet) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("fileio: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	maxRow := sh.MaxRow()
	maxCol := sh.MaxCol()
	for row := 0; row <= maxRow; row++ {
		record := make([]string, maxCol+1)
		for col := 0; col <= maxCol; col++ {
			record[col] = sh.Evaluate(col, row)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("fileio: write csv row %d: %w", row, err)
		}
	}
	w.Flush()
	return w.Error()
}

// LoadCSV reads a standard CSV file into a fresh Sheet, one row per CSV
// record. Every field is imported as literal text input (no formula
// detection is attempted on import, matching spec.md §6's "literal strings
// are read on import"); cellmodel.Classify then sorts numbers/booleans/text
// out as it does for any other raw input.
//
// A CSV import uses a trimmed heuristic: an empty token is skipped rather
// than written as an explicit blank cell, so intentionally blank cells
// between commas are indistinguishable from absent ones (spec.md Non-goals
// / Open Question — accepted deviation).
func LoadCSV(path string) (*sheet.Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fileio: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("fileio: parse %s: %w", path, err)
	}

	sh := sheet.New("Sheet1")
	for row, record := range records {
		for col, field := range record {
			if field == "" {
				continue
			}
			sh.SetCell(col, row, field)
		}
	}
	return sh, nil
}
