package suitability

import (
	"strings"

	"github.com/sells-group/suitability-cli/internal/model"
)

// Params holds the resolved per-(species, feature) overrides. Nil pointers
// and an empty method mean "use the default".
type Params struct {
	ScoreMethod  Method   `json:"score_method,omitempty"`
	Weight       *float64 `json:"weight,omitempty"`
	TrapLeftTol  *float64 `json:"trap_left_tol,omitempty"`
	TrapRightTol *float64 `json:"trap_right_tol,omitempty"`
}

// ParamsIndex maps species id to feature key to overrides.
type ParamsIndex map[string]map[string]Params

// Lookup returns the overrides for a species and feature, if any.
func (idx ParamsIndex) Lookup(speciesID, feature string) (Params, bool) {
	byFeature, ok := idx[speciesID]
	if !ok {
		return Params{}, false
	}
	p, ok := byFeature[feature]
	return p, ok
}

// BuildParamsIndex normalizes override rows into a lookup table. Numeric
// cells that do not parse, or are negative, are treated as absent. Rows
// without a species id or feature are ignored. A repeated (species, feature)
// pair replaces the earlier row.
func BuildParamsIndex(rows []model.ParamOverride) ParamsIndex {
	idx := make(ParamsIndex)
	for _, row := range rows {
		sid := strings.TrimSpace(row.SpeciesID)
		feat := strings.TrimSpace(row.Feature)
		if sid == "" || feat == "" {
			continue
		}
		byFeature, ok := idx[sid]
		if !ok {
			byFeature = make(map[string]Params)
			idx[sid] = byFeature
		}
		byFeature[feat] = Params{
			ScoreMethod:  normalizeMethod(row.ScoreMethod),
			Weight:       nonNegative(row.Weight),
			TrapLeftTol:  nonNegative(row.TrapLeftTol),
			TrapRightTol: nonNegative(row.TrapRightTol),
		}
	}
	return idx
}

func nonNegative(cell string) *float64 {
	f, ok := model.ParseNumber(cell)
	if !ok || f < 0 {
		return nil
	}
	return &f
}

func normalizeMethod(s string) Method {
	s = strings.ToLower(strings.TrimSpace(s))
	if isNullToken(s) {
		return ""
	}
	return Method(s)
}

func isNullToken(s string) bool {
	switch s {
	case "", "-", "na", "n/a", "nan", "none", "null", "nil":
		return true
	}
	return false
}
