package fileio

import (
	"strings"

	"github.com/nvirag/vsheet/internal/sheet"
)

// Adapter implements controller.Persistence, dispatching Save/Load by file
// extension: ".csv" to the CSV codec, ".xlsx" to excelize, everything else
// to the vsheet JSON format (spec.md §6's CLI extension rule, reused here
// for :w/:e so a single save path behaves consistently with the startup
// loader in cmd/vsheet).
type Adapter struct{}

func (Adapter) Save(path string, sh *sheet.Sheet) error {
	switch ext(path) {
	case ".csv":
		return SaveCSV(path, sh)
	case ".xlsx":
		return SaveXLSX(path, sh)
	default:
		return SaveJSON(path, sh)
	}
}

func (Adapter) Load(path string) (*sheet.Sheet, error) {
	switch ext(path) {
	case ".csv":
		return LoadCSV(path)
	case ".xlsx":
		return LoadXLSX(path)
	default:
		return LoadJSON(path)
	}
}

func (Adapter) ExportCSV(path string, sh *sheet.Sheet) error { return SaveCSV(path, sh) }
func (Adapter) ImportCSV(path string) (*sheet.Sheet, error)  { return LoadCSV(path) }

func ext(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(path[i:])
}
