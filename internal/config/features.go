package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sells-group/suitability-cli/internal/model"
)

// FeatureSet converts the configured features into model definitions.
// Keys are normalized with model.NormalizeKey to match catalog columns and
// farm keys. When two keys normalize alike the first in sorted order is kept;
// Validate reports the clash. Unknown type names are passed through verbatim
// so rule building can reject them with a typed error.
func (c SuitabilityConfig) FeatureSet() model.FeatureSet {
	raw := make([]string, 0, len(c.Features))
	for key := range c.Features {
		raw = append(raw, key)
	}
	sort.Strings(raw)

	fs := make(model.FeatureSet, len(c.Features))
	for _, rawKey := range raw {
		fc := c.Features[rawKey]
		key := model.NormalizeKey(rawKey)
		if _, dup := fs[key]; dup {
			continue
		}
		ft, ok := model.ParseFeatureType(fc.Type)
		if !ok {
			ft = model.FeatureType(strings.ToLower(strings.TrimSpace(fc.Type)))
		}
		var table model.CompatibilityTable
		if len(fc.CompatibilityPairs) > 0 {
			table = make(model.CompatibilityTable, len(fc.CompatibilityPairs))
			for pref, alts := range fc.CompatibilityPairs {
				row := make(map[string]float64, len(alts))
				for alt, w := range alts {
					row[alt] = w
				}
				table[pref] = row
			}
		}
		fs[key] = model.FeatureDef{
			Key:           key,
			Short:         fc.Short,
			Type:          ft,
			ScoreMethod:   strings.ToLower(strings.TrimSpace(fc.ScoreMethod)),
			Compatibility: table,
		}
	}
	return fs
}

// keyCollisions lists configured feature keys that normalize to the same key.
func (c SuitabilityConfig) keyCollisions() []string {
	seen := make(map[string][]string, len(c.Features))
	for key := range c.Features {
		n := model.NormalizeKey(key)
		seen[n] = append(seen[n], key)
	}
	var out []string
	for n, keys := range seen {
		if len(keys) > 1 {
			sort.Strings(keys)
			quoted := make([]string, len(keys))
			for i, k := range keys {
				quoted[i] = strconv.Quote(k)
			}
			out = append(out, fmt.Sprintf("%s all normalize to %q", strings.Join(quoted, ", "), n))
		}
	}
	sort.Strings(out)
	return out
}

// Hash returns a stable fingerprint of the feature configuration, recorded
// with saved runs so results can be traced to the rules that produced them.
func (c SuitabilityConfig) Hash() string {
	// encoding/json sorts map keys, which keeps the digest stable.
	data, err := json.Marshal(c.Features)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}
