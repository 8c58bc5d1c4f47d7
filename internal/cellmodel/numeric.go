package cellmodel

import (
	"strconv"
	"strings"
)

// parseFloatStrict parses s as a float64, rejecting the Inf/NaN spellings
// strconv.ParseFloat otherwise accepts — those are not valid spreadsheet
// numeric literals.
func parseFloatStrict(s string) (float64, bool) {
	lower := strings.ToLower(s)
	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseNumber is the exported form used by the evaluator's coercion rules.
func ParseNumber(s string) (float64, bool) {
	return parseFloatStrict(strings.TrimSpace(s))
}
