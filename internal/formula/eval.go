// Package formula implements the spreadsheet expression language: a
// tokenizer + Pratt parser producing an AST (token.go, lexer.go, ast.go,
// parser.go), a tree-walking Evaluator with cycle detection (eval.go,
// builtins.go), and a string-level FormulaRewriter for copy/paste and
// structural inserts/deletes (rewriter.go).
//
// Grounded on the teacher's own from-scratch language front end
// (karl/lexer, karl/token, karl/ast, karl/parser) — the same
// tokenizer-then-Pratt-parser shape, scaled down to the fixed grammar of
// spec.md §4.3 — and on its evaluator's exit-safe error propagation
// (karl/interpreter/eval.go's `(Value, *Environment, error)` returns,
// adapted here to spreadsheet semantics where failures become a CellValue
// instead of a Go error once they reach the Sheet boundary).
package formula

import (
	"math"
	"strings"

	"github.com/nvirag/vsheet/internal/cellmodel"
)

// CellReader is the read-only view of a Sheet the Evaluator needs. Sheet
// implements this; keeping it an interface lets eval_test.go exercise the
// evaluator against an in-memory fake without importing internal/sheet.
type CellReader interface {
	// RawInput returns the stored raw input at (col,row), or "" if absent.
	RawInput(col, row int) string
}

// Evaluator walks a parsed formula AST against a CellReader, dereferencing
// cell references lazily and maintaining an evaluation stack to detect
// cycles (spec.md §4.3 "Cell dereference & cycles").
type Evaluator struct {
	sheet CellReader
	stack map[[2]int]struct{}
}

func NewEvaluator(sheet CellReader) *Evaluator {
	return &Evaluator{sheet: sheet, stack: make(map[[2]int]struct{})}
}

// evalError is the internal error carrier so the walk can short-circuit
// with Go's error-return plumbing; EvalCell converts it to a CellValue at
// the boundary and never lets it escape (spec.md §4.6).
type evalError struct {
	kind cellmodel.ErrorKind
	pos  int
}

func (e evalError) Error() string { return e.kind.Glyph() }

func errAt(kind cellmodel.ErrorKind) error { return evalError{kind: kind} }

// EvalCell evaluates the formula stored at (col,row) — whose raw input must
// begin with '=' — and returns the resulting CellValue. It never mutates
// the sheet and never returns a Go error: parse failures and runtime
// failures alike become CellValue{Kind: KindError}.
func (e *Evaluator) EvalCell(col, row int, formulaBody string) cellmodel.CellValue {
	node, errs := ParseFormula(formulaBody)
	if len(errs) > 0 {
		return cellmodel.Error(cellmodel.ErrValue)
	}
	return e.evalTopLevel(col, row, node)
}

func (e *Evaluator) evalTopLevel(col, row int, node Node) cellmodel.CellValue {
	key := [2]int{col, row}
	if _, onStack := e.stack[key]; onStack {
		return cellmodel.Error(cellmodel.ErrCycle)
	}
	e.stack[key] = struct{}{}
	defer delete(e.stack, key)

	v, err := e.eval(node)
	if err != nil {
		if ee, ok := err.(evalError); ok {
			return cellmodel.Error(ee.kind)
		}
		return cellmodel.Error(cellmodel.ErrValue)
	}
	return v
}

// derefCell evaluates the cell at (col,row) as it would appear if read
// through a reference: Empty/missing cells yield CellValue{KindEmpty}, a
// stored Formula recurses (through the cycle-checked evalTopLevel), and
// every other stored kind is returned as-is.
func (e *Evaluator) derefCell(col, row int) cellmodel.CellValue {
	raw := e.sheet.RawInput(col, row)
	if strings.TrimSpace(raw) == "" {
		return cellmodel.Empty()
	}
	cv := cellmodel.Classify(raw)
	if cv.Kind != cellmodel.KindFormula {
		return cv
	}
	key := [2]int{col, row}
	if _, onStack := e.stack[key]; onStack {
		return cellmodel.Error(cellmodel.ErrCycle)
	}
	e.stack[key] = struct{}{}
	defer delete(e.stack, key)
	node, errs := ParseFormula(raw[1:])
	if len(errs) > 0 {
		return cellmodel.Error(cellmodel.ErrValue)
	}
	v, err := e.eval(node)
	if err != nil {
		if ee, ok := err.(evalError); ok {
			return cellmodel.Error(ee.kind)
		}
		return cellmodel.Error(cellmodel.ErrValue)
	}
	return v
}

func (e *Evaluator) eval(n Node) (cellmodel.CellValue, error) {
	switch n := n.(type) {
	case *NumberLit:
		return cellmodel.Number(n.Value), nil
	case *StringLit:
		return cellmodel.Text(n.Value), nil
	case *BoolLit:
		return cellmodel.Boolean(n.Value), nil
	case *ErrorLit:
		return cellmodel.CellValue{}, errAt(n.Kind)
	case *RefExpr:
		v := e.derefCell(n.Ref.Col, n.Ref.Row)
		if v.IsError() {
			return cellmodel.CellValue{}, errAt(v.Err)
		}
		return v, nil
	case *RangeExpr:
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue) // a bare range is not a scalar
	case *UnaryExpr:
		return e.evalUnary(n)
	case *BinaryExpr:
		return e.evalBinary(n)
	case *CallExpr:
		return e.evalCall(n)
	default:
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
}

func (e *Evaluator) evalUnary(n *UnaryExpr) (cellmodel.CellValue, error) {
	x, err := e.eval(n.X)
	if err != nil {
		return cellmodel.CellValue{}, err
	}
	num, ok := toNumber(x)
	if !ok {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	return cellmodel.Number(-num), nil
}

func (e *Evaluator) evalBinary(n *BinaryExpr) (cellmodel.CellValue, error) {
	x, err := e.eval(n.X)
	if err != nil {
		return cellmodel.CellValue{}, err
	}
	y, err := e.eval(n.Y)
	if err != nil {
		return cellmodel.CellValue{}, err
	}
	switch n.Op {
	case PLUS, MINUS, MUL, DIV, CARET:
		return evalArith(n.Op, x, y)
	case AMP:
		return cellmodel.Text(toDisplayString(x) + toDisplayString(y)), nil
	case EQ, NE1, NE2, LT, LE, GT, GE:
		return evalCompare(n.Op, x, y)
	default:
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
}

func evalArith(op TokenType, x, y cellmodel.CellValue) (cellmodel.CellValue, error) {
	xn, ok := toNumber(x)
	if !ok {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	yn, ok := toNumber(y)
	if !ok {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
	switch op {
	case PLUS:
		return cellmodel.Number(xn + yn), nil
	case MINUS:
		return cellmodel.Number(xn - yn), nil
	case MUL:
		return cellmodel.Number(xn * yn), nil
	case DIV:
		if yn == 0 {
			return cellmodel.CellValue{}, errAt(cellmodel.ErrDivZero)
		}
		return cellmodel.Number(xn / yn), nil
	case CARET:
		return cellmodel.Number(powFloat(xn, yn)), nil
	default:
		return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
	}
}

func evalCompare(op TokenType, x, y cellmodel.CellValue) (cellmodel.CellValue, error) {
	var cmp int
	if x.Kind == cellmodel.KindText && y.Kind == cellmodel.KindText {
		cmp = strings.Compare(strings.ToLower(x.Text), strings.ToLower(y.Text))
	} else if x.Kind == cellmodel.KindBoolean && y.Kind == cellmodel.KindBoolean {
		cmp = boolCompare(x.Boolean, y.Boolean)
	} else {
		xn, xok := toNumber(x)
		yn, yok := toNumber(y)
		if !xok || !yok {
			return cellmodel.CellValue{}, errAt(cellmodel.ErrValue)
		}
		cmp = floatCompare(xn, yn)
	}
	var result bool
	switch op {
	case EQ:
		result = cmp == 0
	case NE1, NE2:
		result = cmp != 0
	case LT:
		result = cmp < 0
	case LE:
		result = cmp <= 0
	case GT:
		result = cmp > 0
	case GE:
		result = cmp >= 0
	}
	return cellmodel.Boolean(result), nil
}

func floatCompare(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func boolCompare(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	default:
		return -1
	}
}

func powFloat(base, exp float64) float64 {
	return math.Pow(base, exp)
}

func (e *Evaluator) evalCall(n *CallExpr) (cellmodel.CellValue, error) {
	fn, ok := builtins[n.Name]
	if !ok {
		return cellmodel.CellValue{}, errAt(cellmodel.ErrName)
	}
	return fn(e, n.Args)
}

// rangeBounds normalizes a RangeExpr (or a bare RefExpr treated as a 1x1
// range) to inclusive [minCol,maxCol] x [minRow,maxRow] bounds.
func rangeBounds(n Node) (minCol, minRow, maxCol, maxRow int, ok bool) {
	switch n := n.(type) {
	case *RefExpr:
		return n.Ref.Col, n.Ref.Row, n.Ref.Col, n.Ref.Row, true
	case *RangeExpr:
		minCol, maxCol = n.From.Col, n.To.Col
		if minCol > maxCol {
			minCol, maxCol = maxCol, minCol
		}
		minRow, maxRow = n.From.Row, n.To.Row
		if minRow > maxRow {
			minRow, maxRow = maxRow, minRow
		}
		return minCol, minRow, maxCol, maxRow, true
	default:
		return 0, 0, 0, 0, false
	}
}

// iterateRange walks a range's cells row-major, invoking visit for each.
func (e *Evaluator) iterateRange(n Node, visit func(v cellmodel.CellValue)) error {
	minCol, minRow, maxCol, maxRow, ok := rangeBounds(n)
	if !ok {
		return errAt(cellmodel.ErrValue)
	}
	for r := minRow; r <= maxRow; r++ {
		for c := minCol; c <= maxCol; c++ {
			v := e.derefCell(c, r)
			if v.IsError() {
				return errAt(v.Err)
			}
			visit(v)
		}
	}
	return nil
}
