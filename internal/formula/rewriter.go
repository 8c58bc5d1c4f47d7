package formula

import (
	"strings"

	"github.com/nvirag/vsheet/internal/refcodec"
)

// refRewriter is a pure function over a single reference: given a decoded Ref,
// it returns either the Ref to write back, or ok=false to signal the
// reference should become the literal #REF! (spec.md §4.2).
type refRewriter func(r refcodec.Ref) (refcodec.Ref, bool)

// RewriteCopyOffset shifts non-absolute reference components by
// (dcol,drow), clamping at 0; absolute ('$') components are unchanged.
// Used for copy/paste and for the paste-advance repeat.
func RewriteCopyOffset(formulaBody string, dcol, drow int) string {
	return rewrite(formulaBody, func(r refcodec.Ref) (refcodec.Ref, bool) {
		if !r.ColAbs {
			r.Col = clampNonNegative(r.Col + dcol)
		}
		if !r.RowAbs {
			r.Row = clampNonNegative(r.Row + drow)
		}
		return r, true
	})
}

// RewriteRowInsert shifts every reference at or below atRow down by one row,
// regardless of absoluteness (structural edits move the grid itself).
func RewriteRowInsert(formulaBody string, atRow int) string {
	return rewrite(formulaBody, func(r refcodec.Ref) (refcodec.Ref, bool) {
		if r.Row >= atRow {
			r.Row++
		}
		return r, true
	})
}

// RewriteRowDelete turns a reference to the deleted row into #REF!, shifts
// references below it up by one row, and leaves references above untouched.
func RewriteRowDelete(formulaBody string, atRow int) string {
	return rewrite(formulaBody, func(r refcodec.Ref) (refcodec.Ref, bool) {
		switch {
		case r.Row == atRow:
			return r, false
		case r.Row > atRow:
			r.Row--
		}
		return r, true
	})
}

// RewriteColInsert is RewriteRowInsert's column-axis twin.
func RewriteColInsert(formulaBody string, atCol int) string {
	return rewrite(formulaBody, func(r refcodec.Ref) (refcodec.Ref, bool) {
		if r.Col >= atCol {
			r.Col++
		}
		return r, true
	})
}

// RewriteColDelete is RewriteRowDelete's column-axis twin.
func RewriteColDelete(formulaBody string, atCol int) string {
	return rewrite(formulaBody, func(r refcodec.Ref) (refcodec.Ref, bool) {
		switch {
		case r.Col == atCol:
			return r, false
		case r.Col > atCol:
			r.Col--
		}
		return r, true
	})
}

// RewriteRawInput applies one of the Rewrite* functions to a full cell
// raw_input (including its leading '='); non-formula input is returned
// unchanged. Sheet structural operations call this on every stored formula
// cell and then re-parse the rewritten text to recompute CellValue, per
// spec.md's Cell.value invariant.
func RewriteRawInput(raw string, f func(body string) string) string {
	if !strings.HasPrefix(raw, "=") {
		return raw
	}
	return "=" + f(raw[1:])
}

func clampNonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// rewrite tokenizes formulaBody and reconstructs it byte-for-byte, except
// that every REF token is passed through f and either replaced with the
// rewritten reference's text or with the literal "#REF!". Everything else —
// operators, quoted strings (treated as opaque per spec.md §4.2), numbers,
// function names, whitespace — is copied verbatim from the source, so
// rewriting can never produce a syntactically different formula than the
// one the user wrote, beyond the intended reference substitutions.
func rewrite(formulaBody string, f refRewriter) string {
	l := NewLexer(formulaBody)
	var out strings.Builder
	cursor := 0
	for {
		tok := l.NextToken()
		out.WriteString(formulaBody[cursor:tok.Pos])
		if tok.Type == EOF {
			break
		}
		if tok.Type == REF {
			ref, err := refcodec.Parse(tok.Literal)
			if err != nil {
				out.WriteString(formulaBody[tok.Pos:tok.End])
			} else if newRef, ok := f(ref); ok {
				out.WriteString(refcodec.Format(newRef))
			} else {
				out.WriteString("#REF!")
			}
		} else {
			out.WriteString(formulaBody[tok.Pos:tok.End])
		}
		cursor = tok.End
	}
	return out.String()
}
