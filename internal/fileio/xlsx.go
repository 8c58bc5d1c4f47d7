package fileio

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/nvirag/vsheet/internal/cellmodel"
	"github.com/nvirag/vsheet/internal/refcodec"
	"github.com/nvirag/vsheet/internal/sheet"
)

// SaveXLSX writes sh to an .xlsx workbook using excelize, auto-detecting
// each cell's Go type from its raw input so numbers and booleans round-trip
// as native Excel types rather than text (spec.md §6 "export writes
// booleans/numbers/text by auto-detection of the raw input").
func SaveXLSX(path string, sh *sheet.Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := sh.Name
	if sheetName == "" {
		sheetName = "Sheet1"
	}
	if sheetName != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheetName); err != nil {
			return fmt.Errorf("fileio: rename sheet: %w", err)
		}
	}

	var writeErr error
	sh.ForEachCell(func(col, row int, c cellmodel.Cell) {
		if writeErr != nil {
			return
		}
		cellName := refcodec.Format(refcodec.Ref{Col: col, Row: row})
		var v any
		switch {
		case c.Value.Kind == cellmodel.KindFormula:
			v = sh.Evaluate(col, row)
		case strings.EqualFold(c.RawInput, "TRUE"):
			v = true
		case strings.EqualFold(c.RawInput, "FALSE"):
			v = false
		default:
			if n, err := strconv.ParseFloat(c.RawInput, 64); err == nil {
				v = n
			} else {
				v = c.RawInput
			}
		}
		if err := f.SetCellValue(sheetName, cellName, v); err != nil {
			writeErr = fmt.Errorf("fileio: set cell %s: %w", cellName, err)
		}
	})
	if writeErr != nil {
		return writeErr
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("fileio: save %s: %w", path, err)
	}
	return nil
}

// LoadXLSX imports the first sheet of an .xlsx workbook, coercing every
// typed cell to its text representation as raw input (spec.md §6 "import
// coerces typed cells to text input").
func LoadXLSX(path string) (*sheet.Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("fileio: open %s: %w", path, err)
	}
	defer f.Close()

	names := f.GetSheetList()
	if len(names) == 0 {
		return sheet.New("Sheet1"), nil
	}
	rows, err := f.GetRows(names[0])
	if err != nil {
		return nil, fmt.Errorf("fileio: read rows: %w", err)
	}

	sh := sheet.New(names[0])
	for row, record := range rows {
		for col, field := range record {
			if field == "" {
				continue
			}
			sh.SetCell(col, row, field)
		}
	}
	return sh, nil
}
