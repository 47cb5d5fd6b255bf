package planting

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

var (
	// ErrInvalidSpacing is returned for a non-positive sapling spacing.
	ErrInvalidSpacing = eris.New("planting: spacing must be positive")
	// ErrEmptyBoundary is returned when the boundary has no usable exterior ring.
	ErrEmptyBoundary = eris.New("planting: boundary is empty")
	// ErrNoSlopeData is returned when the slope raster holds no data at all.
	ErrNoSlopeData = eris.New("planting: slope raster has no data")
	// ErrTooManyPoints is returned when the spacing is too fine for the boundary.
	ErrTooManyPoints = eris.New("planting: grid exceeds point limit")
)

// MaxGridPoints caps the lattice laid over one boundary at one rotation.
const MaxGridPoints = 10_000_000

// DefaultMaxSlopeDeg is the steepest terrain a sapling is planted on.
const DefaultMaxSlopeDeg = 15.0

// Sampler reads a raster value at a map coordinate.
type Sampler interface {
	Sample(x, y float64) (float64, bool)
}

// Options controls plan estimation.
type Options struct {
	SpacingM        float64
	MaxSlopeDeg     float64
	RotationStepDeg float64
}

// Plan is an estimated planting layout.
type Plan struct {
	OptimalAngle float64      `json:"optimal_angle"`
	Candidates   int          `json:"candidates"`
	SaplingCount int          `json:"sapling_count"`
	Dropped      int          `json:"dropped"`
	Points       []geom.Coord `json:"-"`
}

// FilterBySlope keeps points whose sampled slope is at most maxSlope.
// Points the sampler cannot read are dropped.
func FilterBySlope(points []geom.Coord, slope Sampler, maxSlope float64) ([]geom.Coord, int) {
	kept := make([]geom.Coord, 0, len(points))
	for _, p := range points {
		s, ok := slope.Sample(p[0], p[1])
		if !ok || s > maxSlope {
			continue
		}
		kept = append(kept, p)
	}
	return kept, len(points) - len(kept)
}

// Estimate finds the best grid rotation for boundary and removes points on
// terrain steeper than the configured maximum. A nil slope raster skips the
// slope filter.
func Estimate(boundary *geom.Polygon, slope *Grid, opts Options) (*Plan, error) {
	start := time.Now()

	if opts.SpacingM <= 0 {
		return nil, eris.Wrapf(ErrInvalidSpacing, "%g", opts.SpacingM)
	}
	if err := validBoundary(boundary); err != nil {
		return nil, err
	}
	if opts.MaxSlopeDeg <= 0 {
		opts.MaxSlopeDeg = DefaultMaxSlopeDeg
	}
	if slope != nil && slope.ValidCells() == 0 {
		return nil, ErrNoSlopeData
	}

	angle, points, err := OptimalRotation(boundary, opts.SpacingM, opts.RotationStepDeg)
	if err != nil {
		return nil, err
	}

	plan := &Plan{OptimalAngle: angle, Candidates: len(points), Points: points}
	if slope != nil {
		plan.Points, plan.Dropped = FilterBySlope(points, slope, opts.MaxSlopeDeg)
	}
	plan.SaplingCount = len(plan.Points)

	zap.L().Info("planting: plan estimated",
		zap.Float64("spacing_m", opts.SpacingM),
		zap.Float64("optimal_angle", plan.OptimalAngle),
		zap.Int("candidates", plan.Candidates),
		zap.Int("saplings", plan.SaplingCount),
		zap.Int("dropped", plan.Dropped),
		zap.Duration("elapsed", time.Since(start)),
	)
	return plan, nil
}
