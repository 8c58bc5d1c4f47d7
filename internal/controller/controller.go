// Package controller implements the modal, keystroke-driven App state
// machine of spec.md §4.5: mode transitions, the pending-operator and
// count-prefix buffers, register-pending dispatch, visual selection,
// internal/system clipboard paste, undo/redo, and search.
//
// Grounded on the teacher's own line-editing and command-dispatch loop
// (repl/input_tty.go's ttyInput.readLine byte-at-a-time state machine,
// repl/repl.go's handleCommand ":"-prefixed dispatch), generalized from
// "edit one line, dispatch one REPL command" to "edit one cell, dispatch
// one modal key event, optionally fronted by a pending two-key chord" —
// the finite-state shape spec.md's Design Notes explicitly call for
// ("~8 states and a handful of transitions; write it explicitly").
package controller

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/nvirag/vsheet/internal/cellmodel"
	"github.com/nvirag/vsheet/internal/clipboard"
	"github.com/nvirag/vsheet/internal/refcodec"
	"github.com/nvirag/vsheet/internal/sheet"
)

// errNoPersistence is reported on the status line when a file command is
// issued without a Persistence implementation wired in (e.g. running
// against an unnamed, not-yet-saved buffer with no backing adapter).
var errNoPersistence = errors.New("no file backend configured")

// Mode is one of the six modal states of spec.md §4.5.
type Mode int

const (
	ModeNormal Mode = iota
	ModeEditSingle
	ModeEditContinuous
	ModeEditPreserve
	ModeCommand
	ModeVisual
)

// Axis is the controller's current primary direction (spec.md §4.5 / GLOSSARY).
type Axis int

const (
	AxisRow Axis = iota
	AxisColumn
)

// Special tags a non-printable key. internal/tui is responsible for
// decoding raw terminal bytes into Key values; the controller never reads a
// byte stream directly (spec.md §1's external I/O boundary, the other
// direction: the decoder lives outside core, but the vocabulary it emits
// into the core is fixed here).
type Special int

const (
	KeyNone Special = iota
	KeyEnter
	KeyEsc
	KeyTab
	KeyBackTab
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyF2
	KeyCtrlF
	KeyCtrlB
	KeyCtrlD
	KeyCtrlU
	KeyCtrlR
	KeyBackspace
	KeyDelete
)

// Key is a single decoded input event.
type Key struct {
	Rune    rune
	Special Special
}

const undoLimit = 100

// Persistence is the external file I/O boundary of spec.md §1/§6; the
// controller calls it from command-mode actions and never touches the
// filesystem itself. A nil Persistence makes every :w/:e/:export/:import
// report a status-line error instead of panicking.
type Persistence interface {
	Save(path string, sh *sheet.Sheet) error
	Load(path string) (*sheet.Sheet, error)
	ExportCSV(path string, sh *sheet.Sheet) error
	ImportCSV(path string) (*sheet.Sheet, error)
}

type registerState int

const (
	regNone registerState = iota
	regAwaitingName
	regAwaitingOp
)

// App is the controller's full mutable state (spec.md §3 "App state").
type App struct {
	Sheet   *sheet.Sheet
	Persist Persistence

	Mode Mode
	Axis Axis

	CursorCol, CursorRow int
	ViewCol, ViewRow     int
	ViewCols, ViewRows   int // visible window size; set by Resize

	InputBuffer   string
	CommandBuffer string
	commandPrefix rune
	EditOriginal  string

	PendingOperator string
	CountBuffer     string

	registerState   registerState
	pendingRegister rune

	VisualStartCol, VisualStartRow int
	VisualLine                     bool

	SearchTerm    string
	SearchForward bool

	Clipboard                   clipboard.Content
	HasClipboard                bool
	LastPasteCols, LastPasteRows int

	undoStack []*sheet.Sheet
	redoStack []*sheet.Sheet

	StatusMessage string
	Quit          bool
}

// New returns a fresh App over an empty sheet named name, in Normal mode at A1.
func New(name string, persist Persistence) *App {
	return &App{Sheet: sheet.New(name), Persist: persist, Mode: ModeNormal, Axis: AxisRow}
}

// Resize records the renderer's visible grid dimensions, used by page
// motions and ensureViewContainsCursor.
func (a *App) Resize(cols, rows int) {
	a.ViewCols, a.ViewRows = cols, rows
	a.ensureViewContainsCursor()
}

// Handle processes one decoded key event, advancing the state machine
// exactly one transition (spec.md §5 "each key event produces exactly one
// state transition").
func (a *App) Handle(k Key) {
	a.StatusMessage = ""
	switch a.Mode {
	case ModeNormal:
		a.handleNormalKey(k)
	case ModeEditSingle, ModeEditContinuous, ModeEditPreserve:
		a.handleEditKey(k)
	case ModeCommand:
		a.handleCommandKey(k)
	case ModeVisual:
		a.handleVisualKey(k)
	}
}

// --- Normal mode -------------------------------------------------------

func (a *App) handleNormalKey(k Key) {
	if a.registerState == regAwaitingName {
		a.handleRegisterName(k)
		return
	}
	if a.registerState == regAwaitingOp {
		a.handleRegisterOp(k)
		return
	}
	if a.PendingOperator != "" {
		a.handlePendingOperator(k)
		return
	}
	if k.Rune >= '1' && k.Rune <= '9' || (k.Rune == '0' && a.CountBuffer != "") {
		a.CountBuffer += string(k.Rune)
		return
	}

	switch {
	case k.Special == KeyUp:
		a.withCount(func() { a.moveCursor(0, -1) })
	case k.Special == KeyDown:
		a.withCount(func() { a.moveCursor(0, 1) })
	case k.Special == KeyLeft:
		a.withCount(func() { a.moveCursor(-1, 0) })
	case k.Special == KeyRight, k.Special == KeyTab:
		a.withCount(func() { a.moveCursor(1, 0) })
	case k.Special == KeyBackTab:
		a.withCount(func() { a.moveCursor(-1, 0) })
	case k.Special == KeyCtrlF:
		a.scrollPage(a.pageSize())
	case k.Special == KeyCtrlB:
		a.scrollPage(-a.pageSize())
	case k.Special == KeyCtrlD:
		a.scrollPage(a.pageSize() / 2)
	case k.Special == KeyCtrlU:
		a.scrollPage(-a.pageSize() / 2)
	case k.Special == KeyCtrlR:
		a.Redo()
	case k.Rune == 'h':
		a.withCount(func() { a.moveCursor(-1, 0) })
	case k.Rune == 'l':
		a.withCount(func() { a.moveCursor(1, 0) })
	case k.Rune == 'k':
		a.withCount(func() { a.moveCursor(0, -1) })
	case k.Rune == 'j':
		a.withCount(func() { a.moveCursor(0, 1) })
	case k.Rune == '0':
		a.takeCount()
		c, r := a.axisStart()
		a.setCursor(c, r)
	case k.Rune == '$':
		a.takeCount()
		c, r := a.axisEnd()
		a.setCursor(c, r)
	case k.Rune == '^':
		a.takeCount()
		c, r := a.axisFirstNonEmpty()
		a.setCursor(c, r)
	case k.Rune == 'G':
		a.takeCount()
		a.setCursor(a.CursorCol, a.Sheet.MaxRow())
	case k.Rune == 'u':
		a.takeCount()
		a.Undo()
	case k.Rune == 'x':
		a.takeCount()
		a.pushUndo()
		a.Sheet.ClearCell(a.CursorCol, a.CursorRow)
	case k.Rune == 'r':
		a.takeCount()
		a.enterEdit(ModeEditSingle, "")
	case k.Rune == 'R':
		a.takeCount()
		a.enterEdit(ModeEditContinuous, "")
	case k.Rune == '=':
		a.takeCount()
		a.enterEdit(ModeEditSingle, "=")
	case k.Special == KeyF2:
		a.takeCount()
		a.enterEdit(ModeEditPreserve, a.Sheet.RawInput(a.CursorCol, a.CursorRow))
	case k.Rune == 'i':
		a.takeCount()
		a.insertAtCursor()
	case k.Rune == ':':
		a.takeCount()
		a.commandPrefix = ':'
		a.Mode = ModeCommand
		a.CommandBuffer = ""
	case k.Rune == '?':
		a.takeCount()
		a.commandPrefix = '?'
		a.Mode = ModeCommand
		a.CommandBuffer = ""
	case k.Rune == 'v':
		a.takeCount()
		a.enterVisual(false)
	case k.Rune == 'V':
		a.takeCount()
		a.enterVisual(true)
	case k.Rune == 'n':
		a.takeCount()
		a.searchNext(1)
	case k.Rune == 'N':
		a.takeCount()
		a.searchNext(-1)
	case k.Rune == 'p':
		count := a.takeCount()
		a.paste(count)
	case k.Rune == '"':
		a.registerState = regAwaitingName
	case k.Rune == 'd':
		a.takeCount()
		a.PendingOperator = "d"
	case k.Rune == 'g':
		a.takeCount()
		a.PendingOperator = "g"
	case k.Rune == '/':
		a.takeCount()
		a.PendingOperator = "/"
	default:
		a.takeCount()
	}
}

// withCount repeats action CountBuffer times (at least once), then clears
// the count buffer.
func (a *App) withCount(action func()) {
	n := a.takeCount()
	for i := 0; i < n; i++ {
		action()
	}
}

func (a *App) takeCount() int {
	if a.CountBuffer == "" {
		return 1
	}
	n, err := strconv.Atoi(a.CountBuffer)
	a.CountBuffer = ""
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// handlePendingOperator completes a two-key chord: "dd"/"d$"/"d0"/"d^"/"dG"
// /"dgg", or the bare "gg", or the "/r"/"/c" axis chord (spec.md §4.5).
func (a *App) handlePendingOperator(k Key) {
	op := a.PendingOperator
	a.PendingOperator = ""
	switch op {
	case "g":
		if k.Rune == 'g' {
			a.setCursor(0, 0)
		}
	case "/":
		switch k.Rune {
		case 'r':
			a.Axis = AxisRow
		case 'c':
			a.Axis = AxisColumn
		default:
			a.commandPrefix = '/'
			a.Mode = ModeCommand
			if k.Rune != 0 {
				a.CommandBuffer = string(k.Rune)
			} else {
				a.CommandBuffer = ""
			}
		}
	case "d":
		switch {
		case k.Rune == 'd':
			a.deleteCurrentLine()
		case k.Rune == '$':
			c, r := a.axisEnd()
			a.clearAlongAxis(c, r)
		case k.Rune == '0':
			c, r := a.axisStart()
			a.clearAlongAxis(c, r)
		case k.Rune == '^':
			c, r := a.axisFirstNonEmpty()
			a.clearAlongAxis(c, r)
		case k.Rune == 'G':
			a.clearAlongAxis(a.CursorCol, a.Sheet.MaxRow())
		case k.Rune == 'g':
			a.PendingOperator = "dg"
		}
	case "dg":
		if k.Rune == 'g' {
			a.clearAlongAxis(0, 0)
		}
	}
}

// axisEnd, axisStart and axisFirstNonEmpty are the "$" / "0" / "^" landmarks
// of spec.md §4.5, parameterised by the current Axis.
func (a *App) axisEnd() (col, row int) {
	if a.Axis == AxisRow {
		c := a.Sheet.MaxColInRow(a.CursorRow)
		if c < 0 {
			c = a.CursorCol
		}
		return c, a.CursorRow
	}
	r := a.Sheet.MaxRowInCol(a.CursorCol)
	if r < 0 {
		r = a.CursorRow
	}
	return a.CursorCol, r
}

func (a *App) axisStart() (col, row int) {
	if a.Axis == AxisRow {
		return 0, a.CursorRow
	}
	return a.CursorCol, 0
}

func (a *App) axisFirstNonEmpty() (col, row int) {
	if a.Axis == AxisRow {
		c, ok := a.Sheet.FirstNonEmptyColInRow(a.CursorRow)
		if !ok {
			c = 0
		}
		return c, a.CursorRow
	}
	r, ok := a.Sheet.FirstNonEmptyRowInCol(a.CursorCol)
	if !ok {
		r = 0
	}
	return a.CursorCol, r
}

// clearAlongAxis clears every cell between the cursor and (toCol,toRow)
// along the current axis only (spec.md §4.5 "clear along the axis").
func (a *App) clearAlongAxis(toCol, toRow int) {
	a.pushUndo()
	if a.Axis == AxisRow {
		lo, hi := a.CursorCol, toCol
		if lo > hi {
			lo, hi = hi, lo
		}
		for c := lo; c <= hi; c++ {
			a.Sheet.ClearCell(c, a.CursorRow)
		}
		return
	}
	lo, hi := a.CursorRow, toRow
	if lo > hi {
		lo, hi = hi, lo
	}
	for r := lo; r <= hi; r++ {
		a.Sheet.ClearCell(a.CursorCol, r)
	}
}

// deleteCurrentLine implements "dd": a structural delete of the current row
// or column, axis-dependent (spec.md §4.5).
func (a *App) deleteCurrentLine() {
	a.pushUndo()
	if a.Axis == AxisRow {
		a.Sheet.DeleteRow(a.CursorRow)
		return
	}
	a.Sheet.DeleteCol(a.CursorCol)
}

// insertAtCursor implements the axis-aware "insert at cursor" gesture
// spec.md §4.4 names as the reason shift_cells_right/shift_cells_down
// exist: push the remainder of the current row/column over by one without
// touching any other row/column, then drop the cursor into edit mode on the
// freshly opened cell.
func (a *App) insertAtCursor() {
	a.pushUndo()
	if a.Axis == AxisRow {
		a.Sheet.ShiftCellsRight(a.CursorCol, a.CursorRow)
	} else {
		a.Sheet.ShiftCellsDown(a.CursorCol, a.CursorRow)
	}
	a.enterEdit(ModeEditSingle, "")
}

// --- Navigation ----------------------------------------------------------

func (a *App) moveCursor(dcol, drow int) {
	a.setCursor(a.CursorCol+dcol, a.CursorRow+drow)
}

func (a *App) setCursor(col, row int) {
	if col < 0 {
		col = 0
	}
	if col > sheet.MaxCol {
		col = sheet.MaxCol
	}
	if row < 0 {
		row = 0
	}
	if row > sheet.MaxRow {
		row = sheet.MaxRow
	}
	a.CursorCol, a.CursorRow = col, row
	a.ensureViewContainsCursor()
}

// ensureViewContainsCursor keeps the view window containing the cursor
// after any movement or resize (spec.md invariant 3).
func (a *App) ensureViewContainsCursor() {
	if a.ViewCols > 0 {
		if a.CursorCol < a.ViewCol {
			a.ViewCol = a.CursorCol
		}
		if a.CursorCol >= a.ViewCol+a.ViewCols {
			a.ViewCol = a.CursorCol - a.ViewCols + 1
		}
	}
	if a.ViewRows > 0 {
		if a.CursorRow < a.ViewRow {
			a.ViewRow = a.CursorRow
		}
		if a.CursorRow >= a.ViewRow+a.ViewRows {
			a.ViewRow = a.CursorRow - a.ViewRows + 1
		}
	}
}

func (a *App) pageSize() int {
	if a.ViewRows < 1 {
		return 1
	}
	return a.ViewRows
}

func (a *App) scrollPage(rows int) {
	a.ViewRow += rows
	if a.ViewRow < 0 {
		a.ViewRow = 0
	}
	a.CursorRow += rows
	a.setCursor(a.CursorCol, a.CursorRow)
}

// --- Edit modes ------------------------------------------------------------

func (a *App) enterEdit(mode Mode, initial string) {
	a.Mode = mode
	a.EditOriginal = a.Sheet.RawInput(a.CursorCol, a.CursorRow)
	a.InputBuffer = initial
}

func (a *App) handleEditKey(k Key) {
	switch {
	case k.Special == KeyEsc:
		a.InputBuffer = ""
		a.Mode = ModeNormal
	case k.Special == KeyBackspace:
		if r := []rune(a.InputBuffer); len(r) > 0 {
			a.InputBuffer = string(r[:len(r)-1])
		}
	case k.Special == KeyEnter || k.Special == KeyUp || k.Special == KeyDown ||
		k.Special == KeyLeft || k.Special == KeyRight || k.Special == KeyTab || k.Special == KeyBackTab:
		a.commitEdit(k.Special)
	default:
		if k.Rune != 0 {
			a.InputBuffer += string(k.Rune)
		}
	}
}

// commitEdit implements spec.md §4.5's "Commit & exit semantics for edit
// modes": a non-empty buffer is written before any cursor movement, and
// EditContinuous alone survives the commit by re-entering edit on the cell
// the movement landed on.
func (a *App) commitEdit(move Special) {
	if strings.TrimSpace(a.InputBuffer) != "" {
		a.pushUndo()
		a.Sheet.SetCell(a.CursorCol, a.CursorRow, a.InputBuffer)
	}
	a.InputBuffer = ""

	switch move {
	case KeyEnter:
		if a.Mode == ModeEditContinuous {
			a.advanceAlongAxis(1)
			a.enterEdit(ModeEditContinuous, "")
			return
		}
		a.Mode = ModeNormal
	case KeyUp:
		a.moveCursor(0, -1)
		a.exitEditOrContinue()
	case KeyDown:
		a.moveCursor(0, 1)
		a.exitEditOrContinue()
	case KeyLeft, KeyBackTab:
		a.moveCursor(-1, 0)
		a.exitEditOrContinue()
	case KeyRight, KeyTab:
		a.moveCursor(1, 0)
		a.exitEditOrContinue()
	}
}

func (a *App) exitEditOrContinue() {
	if a.Mode == ModeEditContinuous {
		a.enterEdit(ModeEditContinuous, "")
		return
	}
	a.Mode = ModeNormal
}

func (a *App) advanceAlongAxis(n int) {
	if a.Axis == AxisRow {
		a.moveCursor(n, 0)
		return
	}
	a.moveCursor(0, n)
}

// --- Visual mode -----------------------------------------------------------

func (a *App) enterVisual(line bool) {
	a.Mode = ModeVisual
	a.VisualStartCol, a.VisualStartRow = a.CursorCol, a.CursorRow
	a.VisualLine = line
}

func (a *App) selectionRect() (c0, r0, c1, r1 int) {
	c0, c1 = a.VisualStartCol, a.CursorCol
	if c0 > c1 {
		c0, c1 = c1, c0
	}
	r0, r1 = a.VisualStartRow, a.CursorRow
	if r0 > r1 {
		r0, r1 = r1, r0
	}
	if a.VisualLine {
		if a.Axis == AxisRow {
			c0, c1 = 0, sheet.MaxCol
		} else {
			r0, r1 = 0, sheet.MaxRow
		}
	}
	return
}

func (a *App) handleVisualKey(k Key) {
	switch {
	case k.Special == KeyEsc:
		a.Mode = ModeNormal
	case k.Special == KeyUp, k.Rune == 'k':
		a.moveCursor(0, -1)
	case k.Special == KeyDown, k.Rune == 'j':
		a.moveCursor(0, 1)
	case k.Special == KeyLeft, k.Rune == 'h':
		a.moveCursor(-1, 0)
	case k.Special == KeyRight, k.Rune == 'l':
		a.moveCursor(1, 0)
	case k.Rune == 'y':
		a.yankVisual()
		a.Mode = ModeNormal
	case k.Rune == 'd', k.Rune == 'x':
		a.deleteVisual()
		a.Mode = ModeNormal
	}
}

func (a *App) yankVisual() {
	c0, r0, c1, r1 := a.selectionRect()
	a.Clipboard = clipboard.Capture(a.Sheet, c0, r0, c1-c0+1, r1-r0+1)
	a.HasClipboard = true
}

func (a *App) deleteVisual() {
	c0, r0, c1, r1 := a.selectionRect()
	a.pushUndo()
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			a.Sheet.ClearCell(c, r)
		}
	}
}

// --- Registers ---------------------------------------------------------

func (a *App) handleRegisterName(k Key) {
	a.registerState = regNone
	if k.Rune == '*' {
		a.pendingRegister = '*'
		a.registerState = regAwaitingOp
	}
}

func (a *App) handleRegisterOp(k Key) {
	reg := a.pendingRegister
	a.pendingRegister = 0
	a.registerState = regNone
	if reg != '*' {
		return
	}
	switch k.Rune {
	case 'y':
		a.yankSystem()
	case 'p':
		a.pasteSystem()
	}
}

func (a *App) yankSystem() {
	var content clipboard.Content
	if a.Mode == ModeVisual {
		c0, r0, c1, r1 := a.selectionRect()
		content = clipboard.Capture(a.Sheet, c0, r0, c1-c0+1, r1-r0+1)
	} else {
		content = clipboard.Capture(a.Sheet, a.CursorCol, a.CursorRow, 1, 1)
	}
	if err := clipboard.WriteSystem(content.ToTSV()); err != nil {
		a.StatusMessage = "clipboard: " + err.Error()
	}
}

func (a *App) pasteSystem() {
	text, err := clipboard.ReadSystem()
	if err != nil {
		a.StatusMessage = "clipboard: " + err.Error()
		return
	}
	rows := clipboard.ParseSystemClipboard(text)
	a.pushUndo()
	for r, row := range rows {
		for c, val := range row {
			a.Sheet.SetCell(a.CursorCol+c, a.CursorRow+r, val)
		}
	}
}

// --- Internal clipboard paste ----------------------------------------------

// paste writes the internal clipboard at the cursor count times, advancing
// along the axis by the clipboard's dimension between pastes (spec.md §4.5).
func (a *App) paste(count int) {
	if !a.HasClipboard {
		a.StatusMessage = "Nothing to paste"
		return
	}
	a.pushUndo()
	col, row := a.CursorCol, a.CursorRow
	for i := 0; i < count; i++ {
		clipboard.Paste(a.Clipboard, a.Sheet, col, row)
		if a.Axis == AxisRow {
			col += a.Clipboard.Cols
		} else {
			row += a.Clipboard.Rows
		}
	}
	a.LastPasteCols, a.LastPasteRows = a.Clipboard.Cols, a.Clipboard.Rows
}

// --- Undo/redo -------------------------------------------------------------

// pushUndo snapshots the pre-mutation Sheet and clears the redo stack
// (spec.md invariant 4); every mutating action calls this exactly once
// before mutating.
func (a *App) pushUndo() {
	a.undoStack = append(a.undoStack, a.Sheet.Clone())
	if len(a.undoStack) > undoLimit {
		a.undoStack = a.undoStack[1:]
	}
	a.redoStack = nil
}

// Undo pops the most recent snapshot onto the redo stack and restores it.
func (a *App) Undo() {
	n := len(a.undoStack)
	if n == 0 {
		a.StatusMessage = "Nothing to undo"
		return
	}
	prev := a.undoStack[n-1]
	a.undoStack = a.undoStack[:n-1]
	a.redoStack = append(a.redoStack, a.Sheet.Clone())
	a.Sheet = prev
}

// Redo pops the most recent undone snapshot back onto the undo stack.
func (a *App) Redo() {
	n := len(a.redoStack)
	if n == 0 {
		a.StatusMessage = "Nothing to redo"
		return
	}
	next := a.redoStack[n-1]
	a.redoStack = a.redoStack[:n-1]
	a.undoStack = append(a.undoStack, a.Sheet.Clone())
	a.Sheet = next
}

// --- Command mode ------------------------------------------------------

func (a *App) handleCommandKey(k Key) {
	switch {
	case k.Special == KeyEsc:
		a.CommandBuffer = ""
		a.Mode = ModeNormal
	case k.Special == KeyBackspace:
		if r := []rune(a.CommandBuffer); len(r) > 0 {
			a.CommandBuffer = string(r[:len(r)-1])
		} else {
			a.Mode = ModeNormal
		}
	case k.Special == KeyEnter:
		cmd, prefix := a.CommandBuffer, a.commandPrefix
		a.CommandBuffer = ""
		a.Mode = ModeNormal
		switch prefix {
		case ':':
			a.executeCommand(cmd)
		case '/':
			a.search(cmd, true)
		case '?':
			a.search(cmd, false)
		}
	default:
		if k.Rune != 0 {
			a.CommandBuffer += string(k.Rune)
		}
	}
}

// executeCommand dispatches a ":"-prefixed command line (spec.md §6).
func (a *App) executeCommand(cmd string) {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" {
		return
	}
	name, rest, _ := strings.Cut(cmd, " ")
	arg := strings.TrimSpace(rest)

	switch name {
	case "w", "wq":
		if err := a.save(arg); err != nil {
			a.StatusMessage = err.Error()
			return
		}
		if name == "wq" {
			a.Quit = true
		}
	case "q", "q!":
		a.Quit = true
	case "e", "open", "edit":
		a.load(arg)
	case "export":
		a.exportCSV(arg)
	case "import":
		a.importCSV(arg)
	case "goto", "g":
		a.gotoRef(arg)
	case "set":
		a.setCommand(arg)
	case "delrow":
		a.deleteRowCmd(arg)
	case "delcol":
		a.deleteColCmd(arg)
	case "insrow":
		a.insertRowCmd(arg)
	case "inscol":
		a.insertColCmd(arg)
	case "clear":
		a.pushUndo()
		a.Sheet = sheet.New(a.Sheet.Name)
	case "autowidth":
		a.autowidthCmd(arg)
	default:
		if n, err := strconv.Atoi(name); err == nil {
			a.setCursor(a.CursorCol, n-1)
			return
		}
		a.StatusMessage = "unknown command: " + cmd
	}
}

func (a *App) save(path string) error {
	if a.Persist == nil {
		return errNoPersistence
	}
	return a.Persist.Save(path, a.Sheet)
}

func (a *App) load(path string) {
	if a.Persist == nil {
		a.StatusMessage = errNoPersistence.Error()
		return
	}
	sh, err := a.Persist.Load(path)
	if err != nil {
		a.StatusMessage = err.Error()
		return
	}
	a.pushUndo()
	a.Sheet = sh
	a.setCursor(0, 0)
}

func (a *App) exportCSV(path string) {
	if a.Persist == nil {
		a.StatusMessage = errNoPersistence.Error()
		return
	}
	if err := a.Persist.ExportCSV(path, a.Sheet); err != nil {
		a.StatusMessage = err.Error()
	}
}

func (a *App) importCSV(path string) {
	if a.Persist == nil {
		a.StatusMessage = errNoPersistence.Error()
		return
	}
	sh, err := a.Persist.ImportCSV(path)
	if err != nil {
		a.StatusMessage = err.Error()
		return
	}
	a.pushUndo()
	a.Sheet = sh
	a.setCursor(0, 0)
}

func (a *App) gotoRef(arg string) {
	ref, err := refcodec.Parse(strings.TrimSpace(arg))
	if err != nil {
		a.StatusMessage = "bad reference: " + arg
		return
	}
	a.setCursor(ref.Col, ref.Row)
}

func (a *App) search(term string, forward bool) {
	a.SearchTerm = term
	a.SearchForward = forward
	a.searchNext(1)
}

func (a *App) setCommand(arg string) {
	k, v, ok := strings.Cut(arg, "=")
	if !ok || strings.TrimSpace(k) != "name" {
		a.StatusMessage = "usage: :set name=<value>"
		return
	}
	a.pushUndo()
	a.Sheet.Name = v
}

func parseColRange(arg string) (lo, hi int, ok bool) {
	a, b, hasRange := strings.Cut(arg, ":")
	lo, err := refcodec.ColumnNameToIndex(strings.TrimSpace(a))
	if err != nil {
		return 0, 0, false
	}
	if !hasRange {
		return lo, lo, true
	}
	hi, err = refcodec.ColumnNameToIndex(strings.TrimSpace(b))
	if err != nil {
		return 0, 0, false
	}
	return lo, hi, true
}

func (a *App) deleteRowCmd(arg string) {
	row := a.CursorRow
	if arg != "" {
		if n, err := strconv.Atoi(arg); err == nil {
			row = n - 1
		}
	}
	a.pushUndo()
	a.Sheet.DeleteRow(row)
}

func (a *App) insertRowCmd(arg string) {
	row := a.CursorRow
	if arg != "" {
		if n, err := strconv.Atoi(arg); err == nil {
			row = n - 1
		}
	}
	a.pushUndo()
	a.Sheet.InsertRow(row)
}

func (a *App) deleteColCmd(arg string) {
	col := a.CursorCol
	if arg != "" {
		if n, err := refcodec.ColumnNameToIndex(arg); err == nil {
			col = n
		}
	}
	a.pushUndo()
	a.Sheet.DeleteCol(col)
}

func (a *App) insertColCmd(arg string) {
	col := a.CursorCol
	if arg != "" {
		if n, err := refcodec.ColumnNameToIndex(arg); err == nil {
			col = n
		}
	}
	a.pushUndo()
	a.Sheet.InsertCol(col)
}

func (a *App) autowidthCmd(arg string) {
	if arg == "" {
		a.pushUndo()
		a.Sheet.AutoWidth(0, sheet.MaxCol)
		return
	}
	lo, hi, ok := parseColRange(arg)
	if !ok {
		a.StatusMessage = "bad column range: " + arg
		return
	}
	a.pushUndo()
	a.Sheet.AutoWidth(lo, hi)
}

// --- Search ------------------------------------------------------------

// searchNext repeats the last search one step in dir (+1 for 'n', -1 for
// 'N'), wrapping around once (spec.md §4.5).
func (a *App) searchNext(dir int) {
	if a.SearchTerm == "" {
		return
	}
	forward := a.SearchForward
	if dir < 0 {
		forward = !forward
	}
	term := strings.ToLower(a.SearchTerm)
	matches := a.scanMatches(term)
	if len(matches) == 0 {
		a.StatusMessage = "not found: " + a.SearchTerm
		return
	}
	curRow, curCol := a.CursorRow, a.CursorCol
	if forward {
		for _, m := range matches {
			if m[0] > curRow || (m[0] == curRow && m[1] > curCol) {
				a.setCursor(m[1], m[0])
				return
			}
		}
		a.setCursor(matches[0][1], matches[0][0])
		return
	}
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		if m[0] < curRow || (m[0] == curRow && m[1] < curCol) {
			a.setCursor(m[1], m[0])
			return
		}
	}
	last := matches[len(matches)-1]
	a.setCursor(last[1], last[0])
}

// scanMatches returns every [row,col] whose evaluated display contains term
// (case-insensitive substring), sorted in reading order (spec.md §4.5
// "Matching is case-insensitive substring on the evaluated display string").
func (a *App) scanMatches(term string) [][2]int {
	var matches [][2]int
	a.Sheet.ForEachCell(func(col, row int, _ cellmodel.Cell) {
		disp := strings.ToLower(a.Sheet.Evaluate(col, row))
		if strings.Contains(disp, term) {
			matches = append(matches, [2]int{row, col})
		}
	})
	sort.Slice(matches, func(i, j int) bool {
		if matches[i][0] != matches[j][0] {
			return matches[i][0] < matches[j][0]
		}
		return matches[i][1] < matches[j][1]
	})
	return matches
}
