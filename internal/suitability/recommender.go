package suitability

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/suitability-cli/internal/config"
	"github.com/sells-group/suitability-cli/internal/model"
)

// Report is the full output of one farm evaluation.
type Report struct {
	FarmID          string                    `json:"farm_id,omitempty"`
	Results         []model.SuitabilityResult `json:"results,omitempty"`
	Scores          []model.SpeciesScore      `json:"scores,omitempty"`
	Recommendations []model.Recommendation    `json:"recommendations"`
}

// Recommender holds a species catalog with its resolved rules and answers
// recommendation requests against it. It is safe for concurrent use.
type Recommender struct {
	features   model.FeatureSet
	species    []model.SpeciesRow
	byID       map[string]int
	rules      RuleSet
	rank       RankOptions
	workers    int
	configHash string
}

// Option configures a Recommender.
type Option func(*Recommender)

// WithRankOptions sets the ranking precision and reason count.
func WithRankOptions(opts RankOptions) Option {
	return func(r *Recommender) { r.rank = opts }
}

// WithWorkers bounds batch concurrency.
func WithWorkers(n int) Option {
	return func(r *Recommender) {
		if n > 0 {
			r.workers = n
		}
	}
}

// NewRecommender builds the parameter index and rules once. Any
// configuration error is returned before a recommender exists.
func NewRecommender(cfg config.SuitabilityConfig, species []model.SpeciesRow, overrides []model.ParamOverride, opts ...Option) (*Recommender, error) {
	start := time.Now()

	features := cfg.FeatureSet()
	params := BuildParamsIndex(overrides)
	rules, err := BuildRules(species, params, features)
	if err != nil {
		return nil, eris.Wrap(err, "suitability: build rules")
	}

	r := &Recommender{
		features:   features,
		species:    species,
		byID:       make(map[string]int, len(species)),
		rules:      rules,
		rank:       DefaultRankOptions(),
		workers:    1,
		configHash: cfg.Hash(),
	}
	for i, sp := range species {
		r.byID[sp.ID] = i
	}
	for _, opt := range opts {
		opt(r)
	}

	zap.L().Info("suitability: rules built",
		zap.Int("species", len(species)),
		zap.Int("features", len(features)),
		zap.Int("overrides", len(overrides)),
		zap.Int("rules", rules.Count()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return r, nil
}

// Recommend scores and ranks every species for one farm.
func (r *Recommender) Recommend(farm model.FarmProfile) Report {
	results, scores := CalculateSuitability(farm, r.species, r.rules)
	return Report{
		Results:         results,
		Scores:          scores,
		Recommendations: BuildRecommendations(results, r.rank),
	}
}

// RecommendBatch scores several farms concurrently. Reports follow the order of farms.
func (r *Recommender) RecommendBatch(ctx context.Context, farms []model.Farm) ([]Report, error) {
	start := time.Now()

	batch, err := CalculateBatch(ctx, farms, r.species, r.rules, r.workers)
	if err != nil {
		return nil, err
	}

	reports := make([]Report, len(batch))
	for i, fr := range batch {
		reports[i] = Report{
			FarmID:          fr.FarmID,
			Results:         fr.Results,
			Scores:          fr.Scores,
			Recommendations: BuildRecommendations(fr.Results, r.rank),
		}
	}

	zap.L().Info("suitability: batch complete",
		zap.Int("farms", len(farms)),
		zap.Int("workers", r.workers),
		zap.Duration("elapsed", time.Since(start)),
	)
	return reports, nil
}

// Species returns the catalog in input order.
func (r *Recommender) Species() []model.SpeciesRow { return r.species }

// SpeciesByID looks up one catalog row.
func (r *Recommender) SpeciesByID(id string) (model.SpeciesRow, bool) {
	i, ok := r.byID[id]
	if !ok {
		return model.SpeciesRow{}, false
	}
	return r.species[i], true
}

// Rules returns the resolved rules of one species.
func (r *Recommender) Rules(speciesID string) ([]Rule, bool) {
	rules, ok := r.rules[speciesID]
	return rules, ok
}

// RuleSet returns all resolved rules.
func (r *Recommender) RuleSet() RuleSet { return r.rules }

// Features returns the configured feature definitions.
func (r *Recommender) Features() model.FeatureSet { return r.features }

// ConfigHash fingerprints the feature configuration the rules were built from.
func (r *Recommender) ConfigHash() string { return r.configHash }

// RankOptions returns the ranking options in use.
func (r *Recommender) RankOptions() RankOptions { return r.rank }
