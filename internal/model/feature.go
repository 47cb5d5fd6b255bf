package model

import (
	"sort"
	"strings"
)

// FeatureType distinguishes how a feature's species attributes and farm values are read.
type FeatureType string

const (
	FeatureNumerical   FeatureType = "numerical"
	FeatureCategorical FeatureType = "categorical"
)

// ParseFeatureType normalizes a configured type name. "numeric" is accepted
// as an alias for numerical. The second return is false for unknown names.
func ParseFeatureType(s string) (FeatureType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "numerical", "numeric", "number":
		return FeatureNumerical, true
	case "categorical", "category":
		return FeatureCategorical, true
	default:
		return "", false
	}
}

// CompatibilityTable maps a preferred categorical value to the alternatives
// that are acceptable in its place, each with a partial-credit weight in [0,1].
type CompatibilityTable map[string]map[string]float64

// Weight returns the compatibility weight of alternative for preferred.
func (t CompatibilityTable) Weight(preferred, alternative string) (float64, bool) {
	alts, ok := t[preferred]
	if !ok {
		return 0, false
	}
	w, ok := alts[alternative]
	return w, ok
}

// FeatureDef is the configured definition of one scoring feature.
type FeatureDef struct {
	Key           string             `json:"key" yaml:"key"`
	Short         string             `json:"short" yaml:"short"`
	Type          FeatureType        `json:"type" yaml:"type"`
	ScoreMethod   string             `json:"score_method,omitempty" yaml:"score_method,omitempty"`
	Compatibility CompatibilityTable `json:"compatibility_pairs,omitempty" yaml:"compatibility_pairs,omitempty"`
}

// ShortName returns the display name, falling back to the key.
func (f FeatureDef) ShortName() string {
	if f.Short != "" {
		return f.Short
	}
	return f.Key
}

// MinField is the catalog column holding the lower tolerance bound of a numerical feature.
func (f FeatureDef) MinField() string { return f.Key + "_min" }

// MaxField is the catalog column holding the upper tolerance bound of a numerical feature.
func (f FeatureDef) MaxField() string { return f.Key + "_max" }

// PrefsField is the catalog column holding the preference list of a categorical feature.
func (f FeatureDef) PrefsField() string { return f.Key + "s" }

var keyReplacer = strings.NewReplacer(" ", "_", "-", "_")

// NormalizeKey lower-cases a column or feature name and replaces spaces and
// hyphens with underscores. A leading byte-order mark is dropped.
func NormalizeKey(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ToLower(strings.TrimSpace(s))
	return keyReplacer.Replace(s)
}

// FeatureSet is the configured feature catalog keyed by feature key.
type FeatureSet map[string]FeatureDef

// Keys returns the feature keys in sorted order.
func (s FeatureSet) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
