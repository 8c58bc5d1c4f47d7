package formula

import (
	"github.com/nvirag/vsheet/internal/cellmodel"
	"github.com/nvirag/vsheet/internal/refcodec"
)

// Node is any expression node of a parsed formula. Modeled on the teacher's
// karl/ast.Expression interface, with a single Pos for error reporting in
// place of the full token captured on every AST node.
type Node interface {
	node()
	Position() int
}

type base struct{ Pos int }

func (base) node()            {}
func (b base) Position() int  { return b.Pos }

type NumberLit struct {
	base
	Value float64
}

type StringLit struct {
	base
	Value string
}

type BoolLit struct {
	base
	Value bool
}

type ErrorLit struct {
	base
	Kind cellmodel.ErrorKind
}

type RefExpr struct {
	base
	Ref refcodec.Ref
}

type RangeExpr struct {
	base
	From, To refcodec.Ref
}

type UnaryExpr struct {
	base
	Op TokenType
	X  Node
}

type BinaryExpr struct {
	base
	Op   TokenType
	X, Y Node
}

type CallExpr struct {
	base
	Name string
	Args []Node
}
