package model

import "strings"

// SpeciesRow is one species catalog record. Attrs holds the raw per-feature
// attributes keyed by normalized column name (e.g. "rainfall_min", "soils").
type SpeciesRow struct {
	ID         string            `json:"species_id"`
	Name       string            `json:"species_name"`
	CommonName string            `json:"species_common_name"`
	Attrs      map[string]string `json:"attributes,omitempty"`
}

// Attr returns the trimmed attribute value and whether it is non-blank.
func (s SpeciesRow) Attr(key string) (string, bool) {
	v, ok := s.Attrs[key]
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// ParamOverride is a per-(species, feature) scoring parameter row. Values are
// kept as raw cell text; numeric coercion happens when the index is built.
type ParamOverride struct {
	SpeciesID    string `json:"species_id"`
	Feature      string `json:"feature"`
	ScoreMethod  string `json:"score_method,omitempty"`
	Weight       string `json:"weight,omitempty"`
	TrapLeftTol  string `json:"trap_left_tol,omitempty"`
	TrapRightTol string `json:"trap_right_tol,omitempty"`
}
