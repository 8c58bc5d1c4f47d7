package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/nvirag/vsheet/internal/controller"
	"github.com/nvirag/vsheet/internal/refcodec"
)

const rowHeaderWidth = 5

// Render draws a's current view window — column headers, row-numbered
// grid, the status/command line, and a cursor highlight — to out, following
// the teacher's own clear-then-redraw approach (repl/input_tty.go's
// redrawLine / clearScreen) scaled up from one line to a full screen.
func Render(out io.Writer, a *controller.App) {
	cols, rows := a.ViewCols, a.ViewRows
	if cols <= 0 {
		cols = 8
	}
	if rows <= 1 {
		rows = 20
	}
	gridRows := rows - 1 // reserve the last line for status/command

	fmt.Fprint(out, "\x1b[H\x1b[2J")

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", rowHeaderWidth))
	for c := a.ViewCol; c < a.ViewCol+cols; c++ {
		w := a.Sheet.GetColWidth(c)
		b.WriteString(padCenter(refcodec.ColumnIndexToName(c), w))
		b.WriteByte(' ')
	}
	b.WriteString("\r\n")

	for r := a.ViewRow; r < a.ViewRow+gridRows; r++ {
		fmt.Fprintf(&b, "%*d ", rowHeaderWidth-1, r+1)
		for c := a.ViewCol; c < a.ViewCol+cols; c++ {
			w := a.Sheet.GetColWidth(c)
			disp := a.Sheet.Evaluate(c, r)
			cell := padRight(truncate(disp, w), w)
			if c == a.CursorCol && r == a.CursorRow {
				cell = "\x1b[7m" + cell + "\x1b[0m"
			}
			b.WriteString(cell)
			b.WriteByte(' ')
		}
		b.WriteString("\r\n")
	}

	b.WriteString(statusLine(a))
	fmt.Fprint(out, b.String())
}

func statusLine(a *controller.App) string {
	switch a.Mode {
	case controller.ModeCommand:
		return ":" + a.CommandBuffer
	case controller.ModeEditSingle, controller.ModeEditContinuous, controller.ModeEditPreserve:
		return refcodec.Format(refcodec.Ref{Col: a.CursorCol, Row: a.CursorRow}) + "> " + a.InputBuffer
	default:
		ref := refcodec.Format(refcodec.Ref{Col: a.CursorCol, Row: a.CursorRow})
		if a.StatusMessage != "" {
			return ref + "  " + a.StatusMessage
		}
		return ref + "  " + modeLabel(a.Mode)
	}
}

func modeLabel(m controller.Mode) string {
	switch m {
	case controller.ModeVisual:
		return "VISUAL"
	default:
		return "NORMAL"
	}
}

func padRight(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}

func padCenter(s string, w int) string {
	if len(s) >= w {
		return s
	}
	total := w - len(s)
	left := total / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", total-left)
}

func truncate(s string, w int) string {
	if len(s) <= w {
		return s
	}
	if w <= 1 {
		return s[:w]
	}
	return s[:w-1] + "…"
}
