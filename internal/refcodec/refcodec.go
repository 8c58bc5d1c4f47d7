// Package refcodec parses and formats A1-style cell references: bijective
// base-26 column letters, 1-based row numbers, and the optional '$'
// absoluteness markers on each component.
//
// Grounded on the example pack's reference codec
// (orayew2002-rast-excel/excel/cell.go CellName/IndexToColumn) and on
// kalexmills-spreadsheets' ParseCellID/decodeRowExpr, generalized to carry
// the '$' absoluteness flags the formula rewriter needs.
package refcodec

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidRef is returned when a token does not match the reference grammar.
var ErrInvalidRef = errors.New("refcodec: invalid cell reference")

// Ref is a fully decoded reference: zero-based (Col, Row) plus whether each
// component carried a '$' absoluteness marker.
type Ref struct {
	Col, Row         int
	ColAbs, RowAbs   bool
}

var refPattern = regexp.MustCompile(`^(\$?)([A-Za-z]+)(\$?)([0-9]+)$`)

// Parse decodes a token of the form `$?[A-Z]+$?[0-9]+` (case-insensitive on
// letters). It rejects an empty column, an empty row, and row 0.
func Parse(token string) (Ref, error) {
	m := refPattern.FindStringSubmatch(token)
	if m == nil {
		return Ref{}, ErrInvalidRef
	}
	colAbs := m[1] == "$"
	rowAbs := m[3] == "$"
	col, err := ColumnNameToIndex(m[2])
	if err != nil {
		return Ref{}, err
	}
	rowNum, err := strconv.Atoi(m[4])
	if err != nil || rowNum == 0 {
		return Ref{}, ErrInvalidRef
	}
	return Ref{Col: col, Row: rowNum - 1, ColAbs: colAbs, RowAbs: rowAbs}, nil
}

// Format is the inverse of Parse.
func Format(r Ref) string {
	var b strings.Builder
	if r.ColAbs {
		b.WriteByte('$')
	}
	b.WriteString(ColumnIndexToName(r.Col))
	if r.RowAbs {
		b.WriteByte('$')
	}
	b.WriteString(strconv.Itoa(r.Row + 1))
	return b.String()
}

// ColumnIndexToName converts a zero-based column index to bijective base-26
// letters: 0 -> "A", 25 -> "Z", 26 -> "AA".
func ColumnIndexToName(col int) string {
	if col < 0 {
		return ""
	}
	var buf []byte
	n := col
	for {
		rem := n % 26
		buf = append([]byte{byte('A' + rem)}, buf...)
		n = n/26 - 1
		if n < 0 {
			break
		}
	}
	return string(buf)
}

// ColumnNameToIndex is the inverse of ColumnIndexToName; it rejects an empty
// or non-alphabetic string.
func ColumnNameToIndex(name string) (int, error) {
	if name == "" {
		return 0, ErrInvalidRef
	}
	col := 0
	for _, ch := range strings.ToUpper(name) {
		if ch < 'A' || ch > 'Z' {
			return 0, ErrInvalidRef
		}
		col = col*26 + int(ch-'A'+1)
	}
	return col - 1, nil
}

// TokenPattern matches a bare reference token anywhere inside a larger
// string. It intentionally matches the same grammar as refPattern but
// without anchors. The FormulaRewriter does not use it; it tokenizes with
// the formula package's Lexer.
var TokenPattern = regexp.MustCompile(`\$?[A-Za-z]+\$?[0-9]+`)
