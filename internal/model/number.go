package model

import (
	"math"
	"strconv"
	"strings"
)

var nullTokens = map[string]bool{
	"":     true,
	"-":    true,
	"na":   true,
	"n/a":  true,
	"nan":  true,
	"none": true,
	"null": true,
	"nil":  true,
}

// ParseNumber reads a spreadsheet cell as a finite number. Blank cells,
// null-like tokens and anything that does not parse are reported as absent
// rather than as errors. Thousands separators and surrounding whitespace are
// tolerated.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if nullTokens[strings.ToLower(s)] {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseNumberPtr is ParseNumber returning nil for absent values.
func ParseNumberPtr(s string) *float64 {
	f, ok := ParseNumber(s)
	if !ok {
		return nil
	}
	return &f
}
