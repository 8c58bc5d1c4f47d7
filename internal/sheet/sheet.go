// Package sheet implements the sparse cell store described in spec.md §4.4:
// a (col,row)-keyed map, per-column widths, and the structural row/column
// insert/delete operations that shift cells and rewrite formulas in place.
//
// Grounded on the teacher's spreadsheet.Sheet (spreadsheet/sheet.go,
// spreadsheet/engine.go) for the overall shape — a cell map plus the
// operations that mutate it — generalized from the teacher's dependency-graph
// eager recompute (spec.md's Non-goals explicitly rule out a lazy recompute
// graph; this sheet has no recompute graph at all, dependency or otherwise)
// to the pull-based, evaluate-on-read model spec.md §2 describes.
package sheet

import (
	"strings"

	"golang.org/x/exp/maps"

	"github.com/nvirag/vsheet/internal/cellmodel"
	"github.com/nvirag/vsheet/internal/formula"
)

// Grid bounds, spec.md §3.
const (
	MaxCol = 255
	MaxRow = 9999

	DefaultColWidth = 10
	MinColWidth     = 3
	MaxColWidth     = 50
)

type coord struct{ Col, Row int }

// Sheet is the sparse cell store: an absent (col,row) is Empty by
// definition (spec.md invariant 1).
type Sheet struct {
	Name      string
	cells     map[coord]cellmodel.Cell
	colWidths map[int]int
}

// New returns an empty sheet with the given display name.
func New(name string) *Sheet {
	return &Sheet{Name: name, cells: make(map[coord]cellmodel.Cell), colWidths: make(map[int]int)}
}

// RawInput implements formula.CellReader so an Evaluator can dereference
// cell references directly against a Sheet.
func (s *Sheet) RawInput(col, row int) string {
	if c, ok := s.cells[coord{col, row}]; ok {
		return c.RawInput
	}
	return ""
}

// GetCell returns the stored cell at (col,row), or the zero Cell and false
// if the coordinate is absent.
func (s *Sheet) GetCell(col, row int) (cellmodel.Cell, bool) {
	c, ok := s.cells[coord{col, row}]
	return c, ok
}

func inBounds(col, row int) bool {
	return col >= 0 && col <= MaxCol && row >= 0 && row <= MaxRow
}

// SetCell parses input and stores it at (col,row); whitespace-only input
// removes the cell entirely (spec.md invariant 1). Out-of-range coordinates
// are a no-op (spec.md §4.6 "structural operations ... are no-ops" applies
// equally to plain sets).
func (s *Sheet) SetCell(col, row int, input string) {
	if !inBounds(col, row) {
		return
	}
	key := coord{col, row}
	if strings.TrimSpace(input) == "" {
		delete(s.cells, key)
		return
	}
	format := cellmodel.DisplayFormat{Kind: cellmodel.FormatGeneral}
	if existing, ok := s.cells[key]; ok {
		format = existing.Format
	}
	s.cells[key] = cellmodel.Cell{RawInput: input, Value: cellmodel.Classify(input), Format: format}
}

// SetCellFormat changes the DisplayFormat of an already-present cell; it is
// a no-op on an absent coordinate (setting a format never creates a cell).
func (s *Sheet) SetCellFormat(col, row int, format cellmodel.DisplayFormat) {
	key := coord{col, row}
	c, ok := s.cells[key]
	if !ok {
		return
	}
	c.Format = format
	s.cells[key] = c
}

// ClearCell removes the cell at (col,row) if present.
func (s *Sheet) ClearCell(col, row int) {
	delete(s.cells, coord{col, row})
}

// Evaluate returns the display string for (col,row): running the Evaluator
// for a Formula cell, applying the cell's DisplayFormat to a Number, and
// rendering everything else per spec.md §4.4. An absent cell displays as "".
func (s *Sheet) Evaluate(col, row int) string {
	c, ok := s.cells[coord{col, row}]
	if !ok {
		return ""
	}
	if c.Value.Kind == cellmodel.KindFormula {
		ev := formula.NewEvaluator(s)
		result := ev.EvalCell(col, row, c.Value.Formula[1:])
		return display(result, c.Format)
	}
	return display(c.Value, c.Format)
}

func display(v cellmodel.CellValue, format cellmodel.DisplayFormat) string {
	switch v.Kind {
	case cellmodel.KindNumber:
		if format.Kind == cellmodel.FormatGeneral {
			return cellmodel.General(v.Number)
		}
		return format.Render(v.Number)
	case cellmodel.KindText:
		return v.Text
	case cellmodel.KindBoolean:
		if v.Boolean {
			return "TRUE"
		}
		return "FALSE"
	case cellmodel.KindError:
		return v.Err.Glyph()
	default:
		return ""
	}
}

// ForEachCell visits every present cell; iteration order is unspecified.
func (s *Sheet) ForEachCell(fn func(col, row int, c cellmodel.Cell)) {
	for k, c := range s.cells {
		fn(k.Col, k.Row, c)
	}
}

// Clone returns a deep copy of s suitable for an undo/redo snapshot
// (spec.md invariant 4). Cell is a plain value type, so cloning the two
// backing maps is sufficient.
func (s *Sheet) Clone() *Sheet {
	return &Sheet{Name: s.Name, cells: maps.Clone(s.cells), colWidths: maps.Clone(s.colWidths)}
}

// Equal reports bytewise equality with other (name, cells and widths), the
// comparison spec.md testable property 2 is stated in; the clone test in
// sheet_test.go uses it.
func (s *Sheet) Equal(other *Sheet) bool {
	if other == nil {
		return false
	}
	return s.Name == other.Name && maps.Equal(s.cells, other.cells) && maps.Equal(s.colWidths, other.colWidths)
}

// --- Extrema and scanning -------------------------------------------------

// MaxRow returns the highest occupied row, or -1 if the sheet is empty.
func (s *Sheet) MaxRow() int {
	max := -1
	for k := range s.cells {
		if k.Row > max {
			max = k.Row
		}
	}
	return max
}

// MaxCol returns the highest occupied column, or -1 if the sheet is empty.
func (s *Sheet) MaxCol() int {
	max := -1
	for k := range s.cells {
		if k.Col > max {
			max = k.Col
		}
	}
	return max
}

// MaxColInRow returns the highest occupied column in row, or -1 if the row
// has no cells.
func (s *Sheet) MaxColInRow(row int) int {
	max := -1
	for k := range s.cells {
		if k.Row == row && k.Col > max {
			max = k.Col
		}
	}
	return max
}

// MaxRowInCol returns the highest occupied row in col, or -1 if the column
// has no cells.
func (s *Sheet) MaxRowInCol(col int) int {
	max := -1
	for k := range s.cells {
		if k.Col == col && k.Row > max {
			max = k.Row
		}
	}
	return max
}

// FirstNonEmptyColInRow returns the lowest occupied column in row.
func (s *Sheet) FirstNonEmptyColInRow(row int) (int, bool) {
	min, found := -1, false
	for k := range s.cells {
		if k.Row == row && (!found || k.Col < min) {
			min, found = k.Col, true
		}
	}
	return min, found
}

// FirstNonEmptyRowInCol returns the lowest occupied row in col.
func (s *Sheet) FirstNonEmptyRowInCol(col int) (int, bool) {
	min, found := -1, false
	for k := range s.cells {
		if k.Col == col && (!found || k.Row < min) {
			min, found = k.Row, true
		}
	}
	return min, found
}

// --- Column widths ---------------------------------------------------------

// GetColWidth returns col's width, defaulting to DefaultColWidth.
func (s *Sheet) GetColWidth(col int) int {
	if w, ok := s.colWidths[col]; ok {
		return w
	}
	return DefaultColWidth
}

// SetColWidth clamps w to [MinColWidth,MaxColWidth] and stores it; setting
// the default value removes the entry so the map stays minimal.
func (s *Sheet) SetColWidth(col, w int) {
	if w < MinColWidth {
		w = MinColWidth
	}
	if w > MaxColWidth {
		w = MaxColWidth
	}
	if w == DefaultColWidth {
		delete(s.colWidths, col)
		return
	}
	s.colWidths[col] = w
}

// AdjustColWidth applies a relative delta to col's current width.
func (s *Sheet) AdjustColWidth(col, delta int) {
	s.SetColWidth(col, s.GetColWidth(col)+delta)
}

// ColWidths returns a copy of the sparse width overrides, keyed by column
// index, for the JSON/XLSX codecs.
func (s *Sheet) ColWidths() map[int]int {
	return maps.Clone(s.colWidths)
}

// AutoWidth recomputes the width of every column in [colStart,colEnd] from
// its evaluated content (spec.md §6 ":autowidth"), grounded on the teacher's
// pattern of a pure function scanning the cell map without mutating any
// dependency state (spreadsheet/engine.go's propagateUpdates walks the same
// map read-only before this function ever writes to it).
func (s *Sheet) AutoWidth(colStart, colEnd int) {
	if colStart > colEnd {
		colStart, colEnd = colEnd, colStart
	}
	widest := make(map[int]int)
	for k := range s.cells {
		if k.Col < colStart || k.Col > colEnd {
			continue
		}
		n := len(s.Evaluate(k.Col, k.Row))
		if n > widest[k.Col] {
			widest[k.Col] = n
		}
	}
	for col := colStart; col <= colEnd; col++ {
		if w, ok := widest[col]; ok {
			s.SetColWidth(col, w+1)
		}
	}
}

// --- Structural operations --------------------------------------------------

// InsertRow shifts every cell at row >= atRow down by one row, dropping any
// cell pushed past MaxRow, then rewrites every remaining formula so its row
// references track the shift (spec.md §4.4).
func (s *Sheet) InsertRow(atRow int) {
	if atRow < 0 || atRow > MaxRow {
		return
	}
	s.moveCells(func(k coord) (coord, bool) {
		if k.Row >= atRow {
			k.Row++
		}
		return k, k.Row <= MaxRow
	})
	s.rewriteAll(func(body string) string { return formula.RewriteRowInsert(body, atRow) })
}

// DeleteRow removes every cell in atRow, shifts cells at row > atRow up by
// one, then rewrites every remaining formula, turning references to the
// deleted row into the literal #REF! (spec.md §4.2, §4.4).
func (s *Sheet) DeleteRow(atRow int) {
	if atRow < 0 || atRow > MaxRow {
		return
	}
	s.moveCells(func(k coord) (coord, bool) {
		switch {
		case k.Row == atRow:
			return k, false
		case k.Row > atRow:
			k.Row--
		}
		return k, true
	})
	s.rewriteAll(func(body string) string { return formula.RewriteRowDelete(body, atRow) })
}

// InsertCol is InsertRow's column-axis twin.
func (s *Sheet) InsertCol(atCol int) {
	if atCol < 0 || atCol > MaxCol {
		return
	}
	s.moveCells(func(k coord) (coord, bool) {
		if k.Col >= atCol {
			k.Col++
		}
		return k, k.Col <= MaxCol
	})
	s.rewriteAll(func(body string) string { return formula.RewriteColInsert(body, atCol) })
}

// DeleteCol is DeleteRow's column-axis twin.
func (s *Sheet) DeleteCol(atCol int) {
	if atCol < 0 || atCol > MaxCol {
		return
	}
	s.moveCells(func(k coord) (coord, bool) {
		switch {
		case k.Col == atCol:
			return k, false
		case k.Col > atCol:
			k.Col--
		}
		return k, true
	})
	s.rewriteAll(func(body string) string { return formula.RewriteColDelete(body, atCol) })
}

// moveCells rebuilds the cell map by passing every existing key through f;
// f returns the new key and whether the cell survives the move.
func (s *Sheet) moveCells(f func(coord) (coord, bool)) {
	next := make(map[coord]cellmodel.Cell, len(s.cells))
	for k, c := range s.cells {
		if nk, ok := f(k); ok {
			next[nk] = c
		}
	}
	s.cells = next
}

// rewriteAll re-parses every stored Formula cell's raw input through f,
// keeping the Cell.value invariant (spec.md invariant 2) intact across a
// structural edit.
func (s *Sheet) rewriteAll(f func(string) string) {
	for k, c := range s.cells {
		if c.Value.Kind != cellmodel.KindFormula {
			continue
		}
		newRaw := formula.RewriteRawInput(c.RawInput, f)
		c.RawInput = newRaw
		c.Value = cellmodel.Classify(newRaw)
		s.cells[k] = c
	}
}

// ShiftCellsRight moves every cell in row at column >= col one column to
// the right, dropping whatever was in MaxCol; it does not touch formula
// text (spec.md §4.4 "these do not rewrite formulas").
func (s *Sheet) ShiftCellsRight(col, row int) {
	if !inBounds(col, row) {
		return
	}
	delete(s.cells, coord{MaxCol, row})
	for c := MaxCol - 1; c >= col; c-- {
		src, dst := coord{c, row}, coord{c + 1, row}
		if cell, ok := s.cells[src]; ok {
			s.cells[dst] = cell
			delete(s.cells, src)
		} else {
			delete(s.cells, dst)
		}
	}
}

// ShiftCellsDown is ShiftCellsRight's row-axis twin.
func (s *Sheet) ShiftCellsDown(col, row int) {
	if !inBounds(col, row) {
		return
	}
	delete(s.cells, coord{col, MaxRow})
	for r := MaxRow - 1; r >= row; r-- {
		src, dst := coord{col, r}, coord{col, r + 1}
		if cell, ok := s.cells[src]; ok {
			s.cells[dst] = cell
			delete(s.cells, src)
		} else {
			delete(s.cells, dst)
		}
	}
}
