// Package tui is vsheet's external I/O boundary (spec.md §1): raw-mode
// terminal input decoding and the grid renderer. Nothing under internal/...
// outside this package imports it, so the core stays terminal-agnostic.
//
// Grounded directly on the teacher's repl/input_tty.go: the same
// byte-event channel plus escape-sequence decoder, generalized from
// "assemble one edited line" to "decode one key and hand it to the
// controller" — dispatch moves from ttyInput.readLine's switch into
// App.Handle, but the escape-sequence recognition (arrows, Home/End, the
// ESC [ 3 ~ delete form) is the teacher's own.
package tui

import (
	"os"
	"time"

	"golang.org/x/term"

	"github.com/nvirag/vsheet/internal/controller"
)

type byteEvent struct {
	b   byte
	err error
}

// Input puts a terminal into raw mode and decodes its byte stream into
// controller.Key values.
type Input struct {
	in     *os.File
	state  *term.State
	events chan byteEvent
}

// Open switches in into raw mode (term.MakeRaw) if it is a terminal. ok is
// false when in isn't a *os.File or isn't attached to a terminal, matching
// the teacher's own fallback-to-non-interactive behavior.
func Open(in *os.File) (*Input, bool) {
	if !term.IsTerminal(int(in.Fd())) {
		return nil, false
	}
	state, err := term.MakeRaw(int(in.Fd()))
	if err != nil {
		return nil, false
	}
	t := &Input{in: in, state: state, events: make(chan byteEvent, 128)}
	go t.readBytes()
	return t, true
}

// Close restores the terminal's original mode (term.Restore).
func (t *Input) Close() {
	if t == nil || t.state == nil {
		return
	}
	_ = term.Restore(int(t.in.Fd()), t.state)
}

// Size reports the terminal's current column/row count (term.GetSize).
func (t *Input) Size() (cols, rows int, err error) {
	return term.GetSize(int(t.in.Fd()))
}

func (t *Input) readBytes() {
	defer close(t.events)
	buf := make([]byte, 1)
	for {
		n, err := t.in.Read(buf)
		if n > 0 {
			t.events <- byteEvent{b: buf[0]}
		}
		if err != nil {
			t.events <- byteEvent{err: err}
			return
		}
	}
}

// ReadKey blocks for the next decoded key event. ok is false on EOF or a
// read error (the caller should treat this as "quit").
func (t *Input) ReadKey() (controller.Key, bool) {
	ev, ok := <-t.events
	if !ok || ev.err != nil {
		return controller.Key{}, false
	}
	switch ev.b {
	case '\r', '\n':
		return controller.Key{Special: controller.KeyEnter}, true
	case 0x1b:
		return t.readEscapeSequence()
	case 0x7f, 0x08:
		return controller.Key{Special: controller.KeyBackspace}, true
	case '\t':
		return controller.Key{Special: controller.KeyTab}, true
	case 0x06: // Ctrl+F
		return controller.Key{Special: controller.KeyCtrlF}, true
	case 0x02: // Ctrl+B
		return controller.Key{Special: controller.KeyCtrlB}, true
	case 0x04: // Ctrl+D
		return controller.Key{Special: controller.KeyCtrlD}, true
	case 0x15: // Ctrl+U
		return controller.Key{Special: controller.KeyCtrlU}, true
	case 0x12: // Ctrl+R
		return controller.Key{Special: controller.KeyCtrlR}, true
	default:
		if ev.b >= 0x20 && ev.b < 0x7f {
			return controller.Key{Rune: rune(ev.b)}, true
		}
		return t.ReadKey()
	}
}

// readEscapeSequence decodes ESC [ ... forms: arrows, Home/End, Delete, and
// Shift+Tab (ESC [ Z), falling back to a bare Esc when the timeout fires
// with nothing following — the same disambiguation the teacher's readLine
// uses for a standalone Escape key vs. the start of a CSI sequence.
func (t *Input) readEscapeSequence() (controller.Key, bool) {
	next, ok := t.readByteWithTimeout(10 * time.Millisecond)
	if !ok {
		return controller.Key{Special: controller.KeyEsc}, true
	}
	if next != '[' && next != 'O' {
		return controller.Key{Special: controller.KeyEsc}, true
	}
	code, ok := t.readByteWithTimeout(10 * time.Millisecond)
	if !ok {
		return controller.Key{Special: controller.KeyEsc}, true
	}
	switch code {
	case 'A':
		return controller.Key{Special: controller.KeyUp}, true
	case 'B':
		return controller.Key{Special: controller.KeyDown}, true
	case 'C':
		return controller.Key{Special: controller.KeyRight}, true
	case 'D':
		return controller.Key{Special: controller.KeyLeft}, true
	case 'H':
		return controller.Key{Special: controller.KeyHome}, true
	case 'F':
		return controller.Key{Special: controller.KeyEnd}, true
	case 'Z':
		return controller.Key{Special: controller.KeyBackTab}, true
	case 'Q': // ESC O Q: F2
		return controller.Key{Special: controller.KeyF2}, true
	case '3':
		if term, ok := t.readByteWithTimeout(10 * time.Millisecond); ok && term == '~' {
			return controller.Key{Special: controller.KeyDelete}, true
		}
		return controller.Key{Special: controller.KeyEsc}, true
	default:
		return controller.Key{Special: controller.KeyEsc}, true
	}
}

func (t *Input) readByteWithTimeout(timeout time.Duration) (byte, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case ev, ok := <-t.events:
		if !ok || ev.err != nil {
			return 0, false
		}
		return ev.b, true
	case <-timer.C:
		return 0, false
	}
}
