package suitability

import (
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"

	"github.com/sells-group/suitability-cli/internal/model"
)

// Method names a per-feature scoring function.
type Method string

const (
	MethodNumRange         Method = "num_range"
	MethodTrapezoid        Method = "trapezoid"
	MethodCatExact         Method = "cat_exact"
	MethodCatCompatibility Method = "cat_compatibility"
)

// Known reports whether m is a supported method.
func (m Method) Known() bool {
	switch m {
	case MethodNumRange, MethodTrapezoid, MethodCatExact, MethodCatCompatibility:
		return true
	}
	return false
}

// AppliesTo reports whether m can score features of type ft.
func (m Method) AppliesTo(ft model.FeatureType) bool {
	switch m {
	case MethodNumRange, MethodTrapezoid:
		return ft == model.FeatureNumerical
	case MethodCatExact, MethodCatCompatibility:
		return ft == model.FeatureCategorical
	}
	return false
}

// DefaultMethod returns the method used when neither an override nor the
// feature configuration names one.
func DefaultMethod(ft model.FeatureType) Method {
	if ft == model.FeatureCategorical {
		return MethodCatExact
	}
	return MethodNumRange
}

// Args is the method-specific argument set of a rule. The concrete type
// always matches the rule's Method.
type Args interface {
	method() Method
}

// NumRangeArgs are the bounds of a num_range rule.
type NumRangeArgs struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// TrapezoidArgs are the bounds and tolerance widths of a trapezoid rule.
type TrapezoidArgs struct {
	Min      float64 `json:"min" yaml:"min"`
	Max      float64 `json:"max" yaml:"max"`
	LeftTol  float64 `json:"left_tol" yaml:"left_tol"`
	RightTol float64 `json:"right_tol" yaml:"right_tol"`
}

// CatExactArgs is the preference list of a cat_exact rule.
type CatExactArgs struct {
	Preferred []string `json:"preferred" yaml:"preferred"`
}

// CatCompatibilityArgs is the preference list and partial-credit table of a
// cat_compatibility rule.
type CatCompatibilityArgs struct {
	Preferred []string                 `json:"preferred" yaml:"preferred"`
	Table     model.CompatibilityTable `json:"table" yaml:"table"`
}

func (NumRangeArgs) method() Method         { return MethodNumRange }
func (TrapezoidArgs) method() Method        { return MethodTrapezoid }
func (CatExactArgs) method() Method         { return MethodCatExact }
func (CatCompatibilityArgs) method() Method { return MethodCatCompatibility }

// Rule is one executable scoring unit for a species and feature.
type Rule struct {
	Feature   string             `json:"feature" yaml:"feature"`
	ShortName string             `json:"short_name" yaml:"short_name"`
	Type      model.FeatureType  `json:"type" yaml:"type"`
	Method    Method             `json:"score_method" yaml:"score_method"`
	Weight    float64            `json:"weight" yaml:"weight"`
	Args      Args               `json:"args" yaml:"args"`
	Params    map[string]float64 `json:"params,omitempty" yaml:"params,omitempty"`
	Preferred []string           `json:"preferred,omitempty" yaml:"preferred,omitempty"`
}

// RuleSet maps species id to its rules, ordered by feature key.
type RuleSet map[string][]Rule

// Count returns the total number of rules across all species.
func (rs RuleSet) Count() int {
	n := 0
	for _, rules := range rs {
		n += len(rules)
	}
	return n
}

// BuildRules resolves the executable rules of every species. A species gets
// a rule for each configured feature its catalog row has data for; missing
// bounds or preferences skip that feature only. Configuration mistakes are
// collected across the whole catalog and returned together, with no rules.
func BuildRules(species []model.SpeciesRow, params ParamsIndex, features model.FeatureSet) (RuleSet, error) {
	var errs []error

	keys := features.Keys()
	tables := make(map[string]model.CompatibilityTable, len(keys))
	for _, key := range keys {
		f := features[key]
		if err := validateFeature(key, f); err != nil {
			errs = append(errs, err)
			continue
		}
		table, err := foldTable(f.Compatibility)
		if err != nil {
			errs = append(errs, eris.Wrapf(err, "feature %q", key))
			continue
		}
		tables[key] = table
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	rs := make(RuleSet, len(species))
	for _, sp := range species {
		var rules []Rule
		for _, key := range keys {
			f := features[key]
			p, _ := params.Lookup(sp.ID, key)

			method := resolveMethod(f, p)
			if err := checkMethod(method, f, tables[key]); err != nil {
				errs = append(errs, eris.Wrapf(err, "species %q feature %q", sp.ID, key))
				continue
			}

			rule, ok := buildRule(sp, f, method, p, tables[key])
			if ok {
				rules = append(rules, rule)
			}
		}
		rs[sp.ID] = rules
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return rs, nil
}

func validateFeature(key string, f model.FeatureDef) error {
	if strings.TrimSpace(key) == "" {
		return eris.Wrap(ErrInvalidFeature, "empty feature key")
	}
	if _, ok := model.ParseFeatureType(string(f.Type)); !ok {
		return eris.Wrapf(ErrInvalidFeature, "feature %q has unknown type %q", key, f.Type)
	}
	if f.ScoreMethod != "" {
		if err := checkMethod(Method(f.ScoreMethod), f, f.Compatibility); err != nil {
			return eris.Wrapf(err, "feature %q", key)
		}
	}
	for pref, alts := range f.Compatibility {
		for alt, w := range alts {
			if w < 0 || w > 1 {
				return eris.Wrapf(ErrInvalidCompatibility, "feature %q weight %s->%s = %g outside [0,1]", key, pref, alt, w)
			}
		}
	}
	return nil
}

func checkMethod(m Method, f model.FeatureDef, table model.CompatibilityTable) error {
	if !m.Known() {
		return eris.Wrapf(ErrUnknownMethod, "%q", m)
	}
	if !m.AppliesTo(f.Type) {
		return eris.Wrapf(ErrMethodTypeMismatch, "%s on %s feature", m, f.Type)
	}
	if m == MethodCatCompatibility && len(table) == 0 {
		return eris.Wrap(ErrInvalidCompatibility, "cat_compatibility requires compatibility_pairs")
	}
	return nil
}

func resolveMethod(f model.FeatureDef, p Params) Method {
	if p.ScoreMethod != "" {
		return p.ScoreMethod
	}
	if f.ScoreMethod != "" {
		return Method(f.ScoreMethod)
	}
	return DefaultMethod(f.Type)
}

func buildRule(sp model.SpeciesRow, f model.FeatureDef, m Method, p Params, table model.CompatibilityTable) (Rule, bool) {
	rule := Rule{
		Feature:   f.Key,
		ShortName: f.ShortName(),
		Type:      f.Type,
		Method:    m,
		Weight:    1.0,
	}
	if p.Weight != nil {
		rule.Weight = *p.Weight
	}

	switch f.Type {
	case model.FeatureNumerical:
		lo, hi, ok := speciesBounds(sp, f)
		if !ok {
			return Rule{}, false
		}
		rule.Params = map[string]float64{"min": lo, "max": hi}
		if m == MethodTrapezoid {
			args := TrapezoidArgs{Min: lo, Max: hi}
			if p.TrapLeftTol != nil {
				args.LeftTol = *p.TrapLeftTol
			}
			if p.TrapRightTol != nil {
				args.RightTol = *p.TrapRightTol
			}
			rule.Params["left_tol"] = args.LeftTol
			rule.Params["right_tol"] = args.RightTol
			rule.Args = args
		} else {
			rule.Args = NumRangeArgs{Min: lo, Max: hi}
		}
	case model.FeatureCategorical:
		raw, _ := sp.Attr(f.PrefsField())
		prefs := ParsePreferences(raw)
		if len(prefs) == 0 {
			return Rule{}, false
		}
		rule.Preferred = prefs
		if m == MethodCatCompatibility {
			rule.Args = CatCompatibilityArgs{Preferred: prefs, Table: table}
		} else {
			rule.Args = CatExactArgs{Preferred: prefs}
		}
	default:
		return Rule{}, false
	}
	return rule, true
}

// speciesBounds reads the min/max tolerance pair of a numerical feature.
// Reversed bounds are swapped.
func speciesBounds(sp model.SpeciesRow, f model.FeatureDef) (float64, float64, bool) {
	minCell, _ := sp.Attr(f.MinField())
	maxCell, _ := sp.Attr(f.MaxField())
	lo, ok := model.ParseNumber(minCell)
	if !ok {
		return 0, 0, false
	}
	hi, ok := model.ParseNumber(maxCell)
	if !ok {
		return 0, 0, false
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi, true
}

// ParsePreferences splits a catalog preference cell into a de-duplicated
// list of normalized values. Lists may be written as "loam, clay",
// "loam;clay", "loam|clay" or "['loam', 'clay']".
func ParsePreferences(cell string) []string {
	parts := strings.FieldsFunc(cell, func(r rune) bool {
		return r == ',' || r == ';' || r == '|'
	})
	seen := make(map[string]bool, len(parts))
	var out []string
	for _, part := range parts {
		v := NormalizeCategory(strings.Trim(strings.TrimSpace(part), `[]()"'`))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// NormalizeCategory case-folds and trims a categorical value so catalog
// preferences and farm observations compare equal regardless of case.
func NormalizeCategory(s string) string {
	return strings.TrimSpace(cases.Fold().String(strings.TrimSpace(s)))
}

// foldTable normalizes both levels of a compatibility table. Entries that
// fold onto the same pair must agree on the weight.
func foldTable(t model.CompatibilityTable) (model.CompatibilityTable, error) {
	if len(t) == 0 {
		return nil, nil
	}
	out := make(model.CompatibilityTable, len(t))
	for pref, alts := range t {
		p := NormalizeCategory(pref)
		row, ok := out[p]
		if !ok {
			row = make(map[string]float64, len(alts))
			out[p] = row
		}
		for alt, w := range alts {
			a := NormalizeCategory(alt)
			if prev, dup := row[a]; dup && prev != w {
				return nil, eris.Wrapf(ErrInvalidCompatibility, "%s->%s has conflicting weights %g and %g", p, a, prev, w)
			}
			row[a] = w
		}
	}
	return out, nil
}
