// Package clipboard implements ClipboardContent (spec.md §3): a rectangular
// snapshot of raw cell inputs captured from a Sheet, plus the TSV/CSV
// serialization used for the system clipboard and the system-clipboard
// adapter itself.
//
// Grounded on spec.md §4.5's Paste and System-clipboard paste sections; the
// system-clipboard adapter uses github.com/atotto/clipboard, the same
// dependency the wider example pack reaches for (see DESIGN.md), treated as
// a best-effort external side-effect per spec.md §5.
package clipboard

import (
	"encoding/csv"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/nvirag/vsheet/internal/formula"
)

// CellReader is the read access Capture needs from a Sheet.
type CellReader interface {
	RawInput(col, row int) string
}

// PasteTarget is the write access Paste needs from a Sheet.
type PasteTarget interface {
	SetCell(col, row int, input string)
}

// Content is a captured rectangle of raw inputs: the source of truth for a
// later paste (spec.md §3 "the snapshot captures raw inputs, not evaluated
// results, so formulas are adjusted on paste").
type Content struct {
	StartCol, StartRow int
	Cols, Rows         int
	RawInputs          [][]string // [row][col], relative to StartCol/StartRow
}

// Capture snapshots a cols x rows rectangle of sheet starting at
// (startCol,startRow).
func Capture(sheet CellReader, startCol, startRow, cols, rows int) Content {
	raw := make([][]string, rows)
	for r := 0; r < rows; r++ {
		raw[r] = make([]string, cols)
		for c := 0; c < cols; c++ {
			raw[r][c] = sheet.RawInput(startCol+c, startRow+r)
		}
	}
	return Content{StartCol: startCol, StartRow: startRow, Cols: cols, Rows: rows, RawInputs: raw}
}

// Paste writes c's cells into sheet at (destCol,destRow), adjusting every
// formula by the offset from the clipboard's capture origin (spec.md §4.5
// "the destination offset relative to the clipboard origin ... formulas are
// rewritten via adjust_formula(copy_offset)").
func Paste(c Content, sheet PasteTarget, destCol, destRow int) {
	dcol := destCol - c.StartCol
	drow := destRow - c.StartRow
	for r := 0; r < c.Rows; r++ {
		for col := 0; col < c.Cols; col++ {
			raw := c.RawInputs[r][col]
			adjusted := formula.RewriteRawInput(raw, func(body string) string {
				return formula.RewriteCopyOffset(body, dcol, drow)
			})
			sheet.SetCell(destCol+col, destRow+r, adjusted)
		}
	}
}

// ToTSV serializes c's raw inputs as tab-separated text, the format written
// to the system clipboard on "*y.
func (c Content) ToTSV() string {
	lines := make([]string, c.Rows)
	for r := 0; r < c.Rows; r++ {
		lines[r] = strings.Join(c.RawInputs[r], "\t")
	}
	return strings.Join(lines, "\n")
}

// ParseSystemClipboard parses text pasted from the system clipboard: TSV if
// it contains a tab, else CSV (spec.md §4.5: "parses TSV if tabs are
// present, else CSV").
func ParseSystemClipboard(text string) [][]string {
	if strings.Contains(text, "\t") {
		return parseTSV(text)
	}
	return parseCSVLiteral(text)
}

func parseTSV(text string) [][]string {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	out := make([][]string, len(lines))
	for i, line := range lines {
		out[i] = strings.Split(strings.TrimSuffix(line, "\r"), "\t")
	}
	return out
}

func parseCSVLiteral(text string) [][]string {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil
	}
	return records
}

// ReadSystem reads the OS clipboard. Failures are returned to the caller,
// which surfaces them on the status line rather than blocking (spec.md §5).
func ReadSystem() (string, error) { return clipboard.ReadAll() }

// WriteSystem writes text to the OS clipboard.
func WriteSystem(text string) error { return clipboard.WriteAll(text) }
