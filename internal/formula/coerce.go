package formula

import (
	"strings"

	"github.com/nvirag/vsheet/internal/cellmodel"
)

// toNumber implements spec.md §4.3's "to number" coercion table. It never
// sees a Formula or Error CellValue directly (those are resolved to their
// result or surfaced as a Go error before reaching here), but both cases
// are handled defensively.
func toNumber(v cellmodel.CellValue) (float64, bool) {
	switch v.Kind {
	case cellmodel.KindNumber:
		return v.Number, true
	case cellmodel.KindBoolean:
		if v.Boolean {
			return 1, true
		}
		return 0, true
	case cellmodel.KindEmpty:
		return 0, true
	case cellmodel.KindText:
		return cellmodel.ParseNumber(v.Text)
	default:
		return 0, false
	}
}

// toDisplayString implements the "to string" coercion table.
func toDisplayString(v cellmodel.CellValue) string {
	switch v.Kind {
	case cellmodel.KindNumber:
		return cellmodel.General(v.Number)
	case cellmodel.KindText:
		return v.Text
	case cellmodel.KindBoolean:
		if v.Boolean {
			return "TRUE"
		}
		return "FALSE"
	case cellmodel.KindEmpty:
		return ""
	case cellmodel.KindError:
		return v.Err.Glyph()
	default:
		return ""
	}
}

// toBoolean implements the "to boolean" coercion used by logical functions:
// numbers coerce nonzero == true, text "true"/"false" (case-insensitive)
// coerces directly, anything else falls back to numeric coercion.
func toBoolean(v cellmodel.CellValue) (bool, bool) {
	switch v.Kind {
	case cellmodel.KindBoolean:
		return v.Boolean, true
	case cellmodel.KindNumber:
		return v.Number != 0, true
	case cellmodel.KindEmpty:
		return false, true
	case cellmodel.KindText:
		if strings.EqualFold(v.Text, "true") {
			return true, true
		}
		if strings.EqualFold(v.Text, "false") {
			return false, true
		}
		if n, ok := cellmodel.ParseNumber(v.Text); ok {
			return n != 0, true
		}
		return false, false
	default:
		return false, false
	}
}
