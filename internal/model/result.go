package model

// FeatureOutcome is the evaluation of one species rule against one farm.
// Score is nil when the farm or the species lacks the data to score it.
type FeatureOutcome struct {
	ShortName string             `json:"short_name" yaml:"short_name"`
	Type      FeatureType        `json:"type" yaml:"type"`
	Method    string             `json:"score_method" yaml:"score_method"`
	Weight    float64            `json:"weight" yaml:"weight"`
	FarmValue Value              `json:"farm_value" yaml:"farm_value"`
	Score     *float64           `json:"score" yaml:"score"`
	Reason    string             `json:"reason" yaml:"reason"`
	Params    map[string]float64 `json:"params,omitempty" yaml:"params,omitempty"`
	Preferred []string           `json:"preferred,omitempty" yaml:"preferred,omitempty"`
}

// SuitabilityResult is the aggregate evaluation of one species for one farm.
// Scored is false when no feature could be scored; MCDAScore is then 0.
type SuitabilityResult struct {
	SpeciesID         string                    `json:"species_id" yaml:"species_id"`
	SpeciesName       string                    `json:"species_name" yaml:"species_name"`
	SpeciesCommonName string                    `json:"species_common_name" yaml:"species_common_name"`
	MCDAScore         float64                   `json:"mcda_score" yaml:"mcda_score"`
	Scored            bool                      `json:"scored" yaml:"scored"`
	Features          map[string]FeatureOutcome `json:"features" yaml:"features"`
}

// SpeciesScore is the compact (species, score) pair returned alongside results.
type SpeciesScore struct {
	SpeciesID string  `json:"species_id" yaml:"species_id"`
	Score     float64 `json:"score" yaml:"score"`
}

// Recommendation is one ranked, explained entry of a recommendation list.
type Recommendation struct {
	SpeciesID         string   `json:"species_id" yaml:"species_id"`
	SpeciesName       string   `json:"species_name" yaml:"species_name"`
	SpeciesCommonName string   `json:"species_common_name" yaml:"species_common_name"`
	ScoreMCDA         float64  `json:"score_mcda" yaml:"score_mcda"`
	RankOverall       int      `json:"rank_overall" yaml:"rank_overall"`
	KeyReasons        []string `json:"key_reasons" yaml:"key_reasons"`
}
