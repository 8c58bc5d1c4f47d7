package formula

import "github.com/nvirag/vsheet/internal/cellmodel"

// glyphToErrorKind maps the fixed set of error literals a formula can embed
// (typically written there by the FormulaRewriter after a structural
// delete) back to their ErrorKind. An unrecognized glyph is treated as
// #VALUE! — it cannot occur from the rewriter, but a hand-typed formula
// containing stray '#' text should still fail closed rather than panic.
func glyphToErrorKind(glyph string) cellmodel.ErrorKind {
	switch glyph {
	case "#DIV/0!":
		return cellmodel.ErrDivZero
	case "#VALUE!":
		return cellmodel.ErrValue
	case "#REF!":
		return cellmodel.ErrRef
	case "#NAME?":
		return cellmodel.ErrName
	case "#NUM!":
		return cellmodel.ErrNum
	case "#N/A":
		return cellmodel.ErrNA
	case "#CYCLE!":
		return cellmodel.ErrCycle
	default:
		return cellmodel.ErrValue
	}
}
