// Package fileio implements the persistence collaborators named in spec.md
// §6: a custom JSON format, CSV round-trip, and an optional XLSX
// collaborator. Each codec is a pure Sheet<->bytes function; internal/fileio
// never looks at controller or tui state.
package fileio

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nvirag/vsheet/internal/cellmodel"
	"github.com/nvirag/vsheet/internal/refcodec"
	"github.com/nvirag/vsheet/internal/sheet"
)

const jsonVersion = "1.0"

// jsonDoc mirrors spec.md §6's JSON shape exactly:
//
//	{ version: "1.0", name: string, col_widths: {"A": 12, ...},
//	  cells: { "A1": { value, formula? } } }
type jsonDoc struct {
	Version   string               `json:"version"`
	Name      string               `json:"name"`
	ColWidths map[string]int       `json:"col_widths,omitempty"`
	Cells     map[string]jsonCell  `json:"cells"`
}

type jsonCell struct {
	Value   string `json:"value"`
	Formula string `json:"formula,omitempty"`
}

// SaveJSON writes sh to path in the vsheet JSON format. Non-formula cells
// store value = raw_input; formula cells store the evaluated display string
// as value and the raw input as formula, so a plain JSON viewer still shows
// something sensible (spec.md §6).
func SaveJSON(path string, sh *sheet.Sheet) error {
	doc := jsonDoc{
		Version:   jsonVersion,
		Name:      sh.Name,
		ColWidths: make(map[string]int),
		Cells:     make(map[string]jsonCell),
	}
	for col, w := range sh.ColWidths() {
		doc.ColWidths[refcodec.ColumnIndexToName(col)] = w
	}
	sh.ForEachCell(func(col, row int, c cellmodel.Cell) {
		key := refcodec.Format(refcodec.Ref{Col: col, Row: row})
		if c.Value.Kind == cellmodel.KindFormula {
			doc.Cells[key] = jsonCell{Value: sh.Evaluate(col, row), Formula: c.RawInput}
		} else {
			doc.Cells[key] = jsonCell{Value: c.RawInput}
		}
	})

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("fileio: marshal json: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadJSON reads a vsheet JSON file back into a Sheet. If a cell carries a
// formula field it is used as the raw input (re-parsed and re-evaluated on
// load); otherwise value is used verbatim, per spec.md §6.
func LoadJSON(path string) (*sheet.Sheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fileio: read %s: %w", path, err)
	}
	var doc jsonDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("fileio: parse %s: %w", path, err)
	}

	name := doc.Name
	if name == "" {
		name = "Sheet1"
	}
	sh := sheet.New(name)
	for colName, w := range doc.ColWidths {
		col, err := refcodec.ColumnNameToIndex(colName)
		if err != nil {
			continue
		}
		sh.SetColWidth(col, w)
	}
	for key, cell := range doc.Cells {
		ref, err := refcodec.Parse(key)
		if err != nil {
			continue
		}
		if cell.Formula != "" {
			sh.SetCell(ref.Col, ref.Row, cell.Formula)
		} else {
			sh.SetCell(ref.Col, ref.Row, cell.Value)
		}
	}
	return sh, nil
}
