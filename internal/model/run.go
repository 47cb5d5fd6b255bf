package model

import "time"

// Run is a persisted recommendation request for one farm.
type Run struct {
	ID              string           `json:"id" yaml:"id"`
	FarmID          string           `json:"farm_id" yaml:"farm_id"`
	ConfigHash      string           `json:"config_hash" yaml:"config_hash"`
	Farm            FarmProfile      `json:"farm" yaml:"farm"`
	Recommendations []Recommendation `json:"recommendations" yaml:"recommendations"`
	CreatedAt       time.Time        `json:"created_at" yaml:"created_at"`
}

// TopRecommendation returns the first-ranked entry, or nil for an empty run.
func (r *Run) TopRecommendation() *Recommendation {
	if r == nil || len(r.Recommendations) == 0 {
		return nil
	}
	return &r.Recommendations[0]
}

// PlantingPlan is a persisted planting layout for one farm boundary.
type PlantingPlan struct {
	ID           string    `json:"id" yaml:"id"`
	FarmID       string    `json:"farm_id" yaml:"farm_id"`
	SpacingM     float64   `json:"spacing_m" yaml:"spacing_m"`
	MaxSlopeDeg  float64   `json:"max_slope_deg" yaml:"max_slope_deg"`
	OptimalAngle float64   `json:"optimal_angle" yaml:"optimal_angle"`
	SaplingCount int       `json:"sapling_count" yaml:"sapling_count"`
	Dropped      int       `json:"dropped" yaml:"dropped"`
	Geometry     []byte    `json:"-" yaml:"-"` // EWKB multipoint
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
}
