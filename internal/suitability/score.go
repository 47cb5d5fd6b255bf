package suitability

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/suitability-cli/internal/model"
)

// Evaluate scores the rule against a farm profile.
func (r Rule) Evaluate(farm model.FarmProfile) model.FeatureOutcome {
	out := model.FeatureOutcome{
		ShortName: r.ShortName,
		Type:      r.Type,
		Method:    string(r.Method),
		Weight:    r.Weight,
		Params:    r.Params,
		Preferred: r.Preferred,
	}

	val, ok := farm.Get(r.Feature)
	if !ok {
		out.Reason = ReasonMissingFarmValue
		return out
	}
	out.FarmValue = val

	switch args := r.Args.(type) {
	case NumRangeArgs:
		x, ok := val.Float()
		if !ok {
			out.Reason = ReasonNotNumeric
			return out
		}
		out.Score, out.Reason = NumRange(&x, &args.Min, &args.Max)
	case TrapezoidArgs:
		x, ok := val.Float()
		if !ok {
			out.Reason = ReasonNotNumeric
			return out
		}
		out.Score, out.Reason = Trapezoid(&x, &args.Min, &args.Max, args.LeftTol, args.RightTol)
	case CatExactArgs:
		out.Score, out.Reason = CatExact(val.String(), args.Preferred)
	case CatCompatibilityArgs:
		out.Score, out.Reason = CatCompatibility(val.String(), args.Preferred, args.Table)
	default:
		out.Reason = ReasonMissingBounds
	}
	return out
}

// CalculateSuitability evaluates every rule of every species against one
// farm. The weighted mean only counts features that produced a score; a
// species with nothing scorable gets 0 with Scored false. Results follow the
// order of species.
func CalculateSuitability(farm model.FarmProfile, species []model.SpeciesRow, rules RuleSet) ([]model.SuitabilityResult, []model.SpeciesScore) {
	results := make([]model.SuitabilityResult, 0, len(species))
	scores := make([]model.SpeciesScore, 0, len(species))

	for _, sp := range species {
		res := model.SuitabilityResult{
			SpeciesID:         sp.ID,
			SpeciesName:       sp.Name,
			SpeciesCommonName: sp.CommonName,
			Features:          make(map[string]model.FeatureOutcome, len(rules[sp.ID])),
		}

		var num, den float64
		for _, rule := range rules[sp.ID] {
			out := rule.Evaluate(farm)
			res.Features[rule.Feature] = out
			if out.Score == nil {
				continue
			}
			num += rule.Weight * *out.Score
			den += rule.Weight
		}
		if den > 0 {
			res.MCDAScore = num / den
			res.Scored = true
		}

		results = append(results, res)
		scores = append(scores, model.SpeciesScore{SpeciesID: sp.ID, Score: res.MCDAScore})
	}
	return results, scores
}

// FarmResult is the scoring output for one farm of a batch.
type FarmResult struct {
	FarmID  string                    `json:"farm_id"`
	Results []model.SuitabilityResult `json:"results"`
	Scores  []model.SpeciesScore      `json:"scores"`
}

// CalculateBatch scores several farms concurrently, at most workers at a
// time. Output order matches farms.
func CalculateBatch(ctx context.Context, farms []model.Farm, species []model.SpeciesRow, rules RuleSet, workers int) ([]FarmResult, error) {
	if workers < 1 {
		workers = 1
	}
	out := make([]FarmResult, len(farms))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, farm := range farms {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results, scores := CalculateSuitability(farm.Profile, species, rules)
			out[i] = FarmResult{FarmID: farm.ID, Results: results, Scores: scores}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "suitability: batch scoring")
	}
	return out, nil
}
