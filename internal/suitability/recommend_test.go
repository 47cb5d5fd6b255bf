package suitability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/suitability-cli/internal/model"
)

func scoredResult(id string, score float64) model.SuitabilityResult {
	return model.SuitabilityResult{SpeciesID: id, MCDAScore: score, Scored: true}
}

func TestBuildRecommendations_DenseRank(t *testing.T) {
	t.Parallel()

	results := []model.SuitabilityResult{
		scoredResult("a", 0.5),
		scoredResult("b", 0.9),
		scoredResult("c", 0.5),
		scoredResult("d", 0.1),
		scoredResult("e", 0.9),
	}

	recs := BuildRecommendations(results, DefaultRankOptions())
	require.Len(t, recs, 5)

	var ids []string
	var ranks []int
	for _, r := range recs {
		ids = append(ids, r.SpeciesID)
		ranks = append(ranks, r.RankOverall)
	}
	assert.Equal(t, []string{"b", "e", "a", "c", "d"}, ids, "ties keep input order")
	assert.Equal(t, []int{1, 1, 2, 2, 3}, ranks)
}

func TestBuildRecommendations_RoundingDrivesTies(t *testing.T) {
	t.Parallel()

	results := []model.SuitabilityResult{
		scoredResult("a", 0.66661),
		scoredResult("b", 0.66659),
		scoredResult("c", 0.6662),
	}

	recs := BuildRecommendations(results, RankOptions{Precision: 3})
	require.Len(t, recs, 3)
	assert.Equal(t, 0.667, recs[0].ScoreMCDA)
	assert.Equal(t, 0.667, recs[1].ScoreMCDA)
	assert.Equal(t, 1, recs[0].RankOverall)
	assert.Equal(t, 1, recs[1].RankOverall, "equal display scores share a rank")
	assert.Equal(t, 0.666, recs[2].ScoreMCDA)
	assert.Equal(t, 2, recs[2].RankOverall)

	recs = BuildRecommendations(results, RankOptions{Precision: 5})
	assert.Equal(t, "a", recs[0].SpeciesID)
	assert.Equal(t, []int{1, 2, 3}, []int{recs[0].RankOverall, recs[1].RankOverall, recs[2].RankOverall})
}

func TestBuildRecommendations_RankProperty(t *testing.T) {
	t.Parallel()

	var results []model.SuitabilityResult
	for i, s := range []float64{0.2, 0.8, 0.2, 0.4, 1, 0.8, 0, 0.4, 0.4} {
		results = append(results, scoredResult(string(rune('a'+i)), s))
	}

	recs := BuildRecommendations(results, DefaultRankOptions())

	distinct := map[float64]int{}
	for i, r := range recs {
		if i > 0 {
			prev := recs[i-1]
			assert.GreaterOrEqual(t, prev.ScoreMCDA, r.ScoreMCDA)
			if prev.ScoreMCDA == r.ScoreMCDA {
				assert.Equal(t, prev.RankOverall, r.RankOverall)
			} else {
				assert.Equal(t, prev.RankOverall+1, r.RankOverall)
			}
		}
		distinct[r.ScoreMCDA] = r.RankOverall
	}
	assert.Len(t, distinct, 5)
	assert.Equal(t, 5, recs[len(recs)-1].RankOverall)
}

func TestBuildRecommendations_Empty(t *testing.T) {
	t.Parallel()

	recs := BuildRecommendations(nil, DefaultRankOptions())
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestBuildRecommendations_UnscoredRankAtZero(t *testing.T) {
	t.Parallel()

	results := []model.SuitabilityResult{
		{SpeciesID: "none", MCDAScore: 0},
		scoredResult("zero", 0),
		scoredResult("half", 0.5),
	}

	recs := BuildRecommendations(results, DefaultRankOptions())
	assert.Equal(t, "half", recs[0].SpeciesID)
	assert.Equal(t, "none", recs[1].SpeciesID)
	assert.Equal(t, 2, recs[1].RankOverall)
	assert.Equal(t, 2, recs[2].RankOverall)
	assert.Empty(t, recs[1].KeyReasons)
}

func outcome(short, reason string, score, weight float64) model.FeatureOutcome {
	return model.FeatureOutcome{ShortName: short, Reason: reason, Score: &score, Weight: weight}
}

func TestKeyReasons(t *testing.T) {
	t.Parallel()

	features := map[string]model.FeatureOutcome{
		"ph":       outcome("pH", ReasonLowerTolerance, 0.55, 1),
		"soil":     outcome("Soil", ReasonNoMatch, 0, 1),
		"rainfall": outcome("Rainfall", ReasonInsideRange, 1, 1),
		"slope":    outcome("Slope", ReasonInsideRange, 1, 3),
		"frost":    {ShortName: "Frost", Reason: ReasonMissingFarmValue},
		"aspect":   outcome("Aspect", ReasonUpperTolerance, 0.9, 1),
	}

	assert.Equal(t, []string{
		"Slope:inside preferred range",
		"Rainfall:inside preferred range",
		"Soil:no match",
	}, KeyReasons(features, 3))

	all := KeyReasons(features, 10)
	assert.Equal(t, []string{
		"Slope:inside preferred range",
		"Rainfall:inside preferred range",
		"Soil:no match",
		"Aspect:within upper tolerance",
		"pH:within lower tolerance",
	}, all, "absent scores are never cited")

	assert.Empty(t, KeyReasons(features, 0))
	assert.Empty(t, KeyReasons(nil, 3))
}

func TestRoundScore(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.667, RoundScore(2.0/3.0, 3))
	assert.Equal(t, 1.0, RoundScore(0.9996, 3))
	assert.Equal(t, 0.0, RoundScore(0.0004, 3))
	assert.Equal(t, 1.0, RoundScore(0.6, 0))
}
