package suitability

import (
	"math"
	"sort"

	"github.com/sells-group/suitability-cli/internal/model"
)

// Ranking defaults.
const (
	DefaultPrecision  = 3
	DefaultMaxReasons = 3
)

// RankOptions controls recommendation ranking. Precision is the number of
// decimal places used both for the reported score and for tie detection.
type RankOptions struct {
	Precision  int
	MaxReasons int
}

// DefaultRankOptions returns the standard ranking options.
func DefaultRankOptions() RankOptions {
	return RankOptions{Precision: DefaultPrecision, MaxReasons: DefaultMaxReasons}
}

// RoundScore rounds s to the given number of decimal places.
func RoundScore(s float64, precision int) float64 {
	scale := math.Pow10(precision)
	return math.Round(s*scale) / scale
}

// scoreKey is the integer form of a rounded score, compared for ties.
func scoreKey(s float64, precision int) int64 {
	return int64(math.Round(s * math.Pow10(precision)))
}

// BuildRecommendations sorts results by rounded score, highest first, and
// assigns dense ranks: equal rounded scores share a rank and the next lower
// score takes the next integer. Equal scores keep their input order.
func BuildRecommendations(results []model.SuitabilityResult, opts RankOptions) []model.Recommendation {
	if opts.Precision < 0 {
		opts.Precision = DefaultPrecision
	}

	order := make([]int, len(results))
	keys := make([]int64, len(results))
	for i, r := range results {
		order[i] = i
		keys[i] = scoreKey(r.MCDAScore, opts.Precision)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return keys[order[a]] > keys[order[b]]
	})

	recs := make([]model.Recommendation, 0, len(results))
	rank := 0
	for pos, idx := range order {
		if pos == 0 || keys[idx] != keys[order[pos-1]] {
			rank++
		}
		r := results[idx]
		recs = append(recs, model.Recommendation{
			SpeciesID:         r.SpeciesID,
			SpeciesName:       r.SpeciesName,
			SpeciesCommonName: r.SpeciesCommonName,
			ScoreMCDA:         RoundScore(r.MCDAScore, opts.Precision),
			RankOverall:       rank,
			KeyReasons:        KeyReasons(r.Features, opts.MaxReasons),
		})
	}
	return recs
}

// KeyReasons picks up to limit scored outcomes, most decisive first, and
// renders them as "Short:reason". Decisiveness is the distance of the score
// from 0.5, so clear matches and clear mismatches come before partial
// scores. Ties fall back to weight, then score, then feature key.
func KeyReasons(features map[string]model.FeatureOutcome, limit int) []string {
	type candidate struct {
		key      string
		out      model.FeatureOutcome
		decisive float64
	}

	cands := make([]candidate, 0, len(features))
	for key, out := range features {
		if out.Score == nil {
			continue
		}
		cands = append(cands, candidate{key: key, out: out, decisive: RoundScore(math.Abs(2**out.Score-1), 9)})
	}
	sort.Slice(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.decisive != b.decisive {
			return a.decisive > b.decisive
		}
		if a.out.Weight != b.out.Weight {
			return a.out.Weight > b.out.Weight
		}
		if *a.out.Score != *b.out.Score {
			return *a.out.Score > *b.out.Score
		}
		return a.key < b.key
	})

	if limit < 0 {
		limit = 0
	}
	reasons := make([]string, 0, min(limit, len(cands)))
	for _, c := range cands {
		if len(reasons) == limit {
			break
		}
		reasons = append(reasons, c.out.ShortName+":"+c.out.Reason)
	}
	return reasons
}
