package suitability

import (
	"slices"

	"github.com/sells-group/suitability-cli/internal/model"
)

// Reasons attached to per-feature outcomes.
const (
	ReasonInsideRange      = "inside preferred range"
	ReasonBelowRange       = "below preferred range"
	ReasonAboveRange       = "above preferred range"
	ReasonLowerTolerance   = "within lower tolerance"
	ReasonUpperTolerance   = "within upper tolerance"
	ReasonOutsideTolerance = "outside tolerance"
	ReasonExactMatch       = "exact match"
	ReasonNoMatch          = "no match"
	ReasonIncompatible     = "incompatible"
	ReasonMissingFarmValue = "missing farm value"
	ReasonNotNumeric       = "farm value not numeric"
	ReasonNoPreference     = "no species preference"
	ReasonMissingBounds    = "missing species bounds"
	reasonCompatiblePrefix = "compatible with "
)

func score(f float64) *float64 { return &f }

// NumRange scores 1 when min <= v <= max and 0 otherwise. The score is nil
// when v or either bound is missing.
func NumRange(v, lo, hi *float64) (*float64, string) {
	if v == nil {
		return nil, ReasonMissingFarmValue
	}
	if lo == nil || hi == nil {
		return nil, ReasonMissingBounds
	}
	switch {
	case *v < *lo:
		return score(0), ReasonBelowRange
	case *v > *hi:
		return score(0), ReasonAboveRange
	default:
		return score(1), ReasonInsideRange
	}
}

// Trapezoid scores 1 on [min, max] and ramps linearly to 0 across the
// tolerance band on each side, reaching exactly 0 at min-leftTol and
// max+rightTol. A zero tolerance makes that side a step, as in NumRange.
func Trapezoid(v, lo, hi *float64, leftTol, rightTol float64) (*float64, string) {
	if v == nil {
		return nil, ReasonMissingFarmValue
	}
	if lo == nil || hi == nil {
		return nil, ReasonMissingBounds
	}
	x := *v
	switch {
	case x < *lo:
		if leftTol <= 0 {
			return score(0), ReasonBelowRange
		}
		d := *lo - x
		if d >= leftTol {
			return score(0), ReasonOutsideTolerance
		}
		return score(1 - d/leftTol), ReasonLowerTolerance
	case x > *hi:
		if rightTol <= 0 {
			return score(0), ReasonAboveRange
		}
		d := x - *hi
		if d >= rightTol {
			return score(0), ReasonOutsideTolerance
		}
		return score(1 - d/rightTol), ReasonUpperTolerance
	default:
		return score(1), ReasonInsideRange
	}
}

// CatExact scores 1 when v is one of the preferred values and 0 otherwise.
// The score is nil when v is empty or there are no preferences. Values are
// compared after NormalizeCategory.
func CatExact(v string, preferred []string) (*float64, string) {
	v = NormalizeCategory(v)
	if v == "" {
		return nil, ReasonMissingFarmValue
	}
	if len(preferred) == 0 {
		return nil, ReasonNoPreference
	}
	if containsCategory(preferred, v) {
		return score(1), ReasonExactMatch
	}
	return score(0), ReasonNoMatch
}

// CatCompatibility scores 1 on an exact match. Otherwise it looks up
// table[p][v] for each preferred value p and returns the best weight found,
// or 0 when the table has no entry for v.
func CatCompatibility(v string, preferred []string, table model.CompatibilityTable) (*float64, string) {
	v = NormalizeCategory(v)
	if v == "" {
		return nil, ReasonMissingFarmValue
	}
	if len(preferred) == 0 {
		return nil, ReasonNoPreference
	}
	if containsCategory(preferred, v) {
		return score(1), ReasonExactMatch
	}

	best, bestPref := 0.0, ""
	for _, p := range preferred {
		w, ok := table.Weight(p, v)
		if ok && w > best {
			best, bestPref = w, p
		}
	}
	if bestPref == "" {
		return score(0), ReasonIncompatible
	}
	return score(best), reasonCompatiblePrefix + bestPref
}

func containsCategory(preferred []string, v string) bool {
	return slices.ContainsFunc(preferred, func(p string) bool {
		return NormalizeCategory(p) == v
	})
}
