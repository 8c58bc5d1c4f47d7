// Command vsheet is the terminal spreadsheet entrypoint: it loads (or
// creates) a sheet and drives the raw-mode render/poll loop; the sheet is
// written only by :w/:wq, not on quit. Argument handling follows the teacher's own main.go in spirit —
// a positional filename plus a small flag set — but uses the standard
// `flag` package instead of the teacher's hand-rolled os.Args switch,
// since vsheet has one mode of operation rather than a dozen subcommands.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/nvirag/vsheet/internal/controller"
	"github.com/nvirag/vsheet/internal/fileio"
	"github.com/nvirag/vsheet/internal/sheet"
	"github.com/nvirag/vsheet/internal/tui"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

func run(args []string, stdin *os.File, stdout *os.File) int {
	fs := flag.NewFlagSet("vsheet", flag.ContinueOnError)
	logPath := fs.String("log", "", "write diagnostic output to this file (discarded by default)")
	readonly := fs.Bool("readonly", false, "open the sheet without allowing :w/:wq to persist changes")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  vsheet [flags] [file]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger := newLogger(*logPath)
	a := controller.New("Sheet1", fileio.Adapter{})
	if fs.NArg() > 0 {
		path := fs.Arg(0)
		sh, err := loadInitial(path)
		if err != nil {
			logger.Printf("load %s: %v", path, err)
			fmt.Fprintf(os.Stderr, "vsheet: %v\n", err)
		} else {
			a.Sheet = sh
		}
	}
	if *readonly {
		a.Persist = readonlyPersistence{}
	}

	in, ok := tui.Open(stdin)
	if !ok {
		fmt.Fprintln(os.Stderr, "vsheet: stdin is not a terminal")
		return 1
	}
	defer in.Close()

	if cols, rows, err := in.Size(); err == nil {
		a.Resize(cols, rows)
	} else {
		a.Resize(80, 24)
	}

	for !a.Quit {
		tui.Render(stdout, a)
		key, ok := in.ReadKey()
		if !ok {
			break
		}
		a.Handle(key)
	}
	fmt.Fprint(stdout, "\x1b[H\x1b[2J")
	return 0
}

// loadInitial picks the importer by extension: ".csv" is read as CSV,
// ".xlsx" as an XLSX workbook, and everything else as vsheet JSON; a JSON
// path that does not exist yields a fresh empty sheet.
func loadInitial(path string) (*sheet.Sheet, error) {
	if strings.EqualFold(filepathExt(path), ".csv") {
		return fileio.LoadCSV(path)
	}
	if strings.EqualFold(filepathExt(path), ".xlsx") {
		return fileio.LoadXLSX(path)
	}
	if _, err := os.Stat(path); err != nil {
		sh := sheet.New("Sheet1")
		return sh, nil
	}
	return fileio.LoadJSON(path)
}

func filepathExt(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return ""
	}
	return path[i:]
}

func newLogger(path string) *log.Logger {
	if path == "" {
		return log.New(io.Discard, "", 0)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return log.New(io.Discard, "", 0)
	}
	return log.New(f, "vsheet: ", log.LstdFlags)
}

// readonlyPersistence rejects every write while still allowing :e/:import
// to load new content, for the --readonly flag.
type readonlyPersistence struct{}

func (readonlyPersistence) Save(path string, sh *sheet.Sheet) error {
	return fmt.Errorf("readonly: refusing to write %s", path)
}
func (readonlyPersistence) Load(path string) (*sheet.Sheet, error) { return fileio.Adapter{}.Load(path) }
func (readonlyPersistence) ExportCSV(path string, sh *sheet.Sheet) error {
	return fmt.Errorf("readonly: refusing to write %s", path)
}
func (readonlyPersistence) ImportCSV(path string) (*sheet.Sheet, error) {
	return fileio.Adapter{}.ImportCSV(path)
}
