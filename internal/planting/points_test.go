package planting

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func square(size float64) *geom.Polygon {
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{
		{{0, 0}, {size, 0}, {size, size}, {0, size}, {0, 0}},
	})
}

func squareWithHole() *geom.Polygon {
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{
		{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
		{{4, 4}, {6, 4}, {6, 6}, {4, 6}, {4, 4}},
	})
}

func TestGeneratePoints_Square(t *testing.T) {
	t.Parallel()

	points, err := GeneratePoints(square(10), 2, 0)
	require.NoError(t, err)
	require.Len(t, points, 25)
	assert.Equal(t, geom.Coord{1, 1}, points[0])
	assert.Equal(t, geom.Coord{9, 9}, points[24])
}

func TestGeneratePoints_Hole(t *testing.T) {
	t.Parallel()

	points, err := GeneratePoints(squareWithHole(), 2, 0)
	require.NoError(t, err)
	assert.Len(t, points, 24)
	assert.NotContains(t, points, geom.Coord{5, 5})
}

func TestGeneratePoints_RotatedStaysInside(t *testing.T) {
	t.Parallel()

	for _, angle := range []float64{15, 30, 45, 60, 90} {
		points, err := GeneratePoints(square(10), 2, angle)
		require.NoError(t, err)
		assert.NotEmpty(t, points, "angle %v", angle)
		for _, p := range points {
			assert.True(t, p[0] > -1e-9 && p[0] < 10+1e-9 && p[1] > -1e-9 && p[1] < 10+1e-9,
				"angle %v point %v outside boundary", angle, p)
		}
	}

	quarter, err := GeneratePoints(square(10), 2, 90)
	require.NoError(t, err)
	assert.Len(t, quarter, 25)
}

func TestGeneratePoints_Errors(t *testing.T) {
	t.Parallel()

	_, err := GeneratePoints(square(10), 0, 0)
	assert.ErrorIs(t, err, ErrInvalidSpacing)

	_, err = GeneratePoints(square(10), -1, 0)
	assert.ErrorIs(t, err, ErrInvalidSpacing)

	_, err = GeneratePoints(nil, 1, 0)
	assert.ErrorIs(t, err, ErrEmptyBoundary)

	_, err = GeneratePoints(geom.NewPolygon(geom.XY), 1, 0)
	assert.ErrorIs(t, err, ErrEmptyBoundary)
}

func utmSquare(size float64) *geom.Polygon {
	const e, n = 500000.0, 6000000.0
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{
		{{e, n}, {e + size, n}, {e + size, n + size}, {e, n + size}, {e, n}},
	})
}

func TestGeneratePoints_ProjectedCoordinates(t *testing.T) {
	t.Parallel()

	points, err := GeneratePoints(utmSquare(10), 2, 0)
	require.NoError(t, err)
	assert.Len(t, points, 25)
}

func TestGeneratePoints_SpacingTooFine(t *testing.T) {
	t.Parallel()

	_, err := GeneratePoints(utmSquare(100), 1e-12, 0)
	assert.ErrorIs(t, err, ErrTooManyPoints)

	_, _, err = OptimalRotation(utmSquare(100), 1e-12, 45)
	assert.ErrorIs(t, err, ErrTooManyPoints)
}

func TestGridSteps(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 5, gridSteps(10, 2))
	assert.Equal(t, 5, gridSteps(9, 2))
	assert.Equal(t, 1, gridSteps(1, 2))
	assert.Equal(t, 0, gridSteps(0.5, 2))
	assert.Equal(t, math.MaxInt32, gridSteps(100, 1e-12))
}

func TestGeneratePoints_SpacingLargerThanBoundary(t *testing.T) {
	t.Parallel()

	points, err := GeneratePoints(square(1), 5, 0)
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestOptimalRotation(t *testing.T) {
	t.Parallel()

	boundary := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{
		{{0, 0}, {17, 10}, {16, 12}, {-1, 2}, {0, 0}},
	})

	angle, points, err := OptimalRotation(boundary, 1, 5)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, angle, 0.0)
	assert.Less(t, angle, 90.0)

	for a := 0.0; a < 90; a += 5 {
		other, err := GeneratePoints(boundary, 1, a)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(other), len(points), "angle %v beats chosen %v", a, angle)
		if len(other) == len(points) {
			assert.LessOrEqual(t, angle, a, "ties keep the smallest angle")
		}
	}
}

func TestOptimalRotation_SingleStep(t *testing.T) {
	t.Parallel()

	angle, points, err := OptimalRotation(square(10), 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, angle)
	assert.Len(t, points, 25)
}

func TestCentroid(t *testing.T) {
	t.Parallel()

	x, y := centroid(ring{{0, 0}, {6, 0}, {0, 6}, {0, 0}})
	assert.InDelta(t, 2.0, x, 1e-12)
	assert.InDelta(t, 2.0, y, 1e-12)

	x, y = centroid(ring{{1, 1}, {3, 3}})
	assert.InDelta(t, 2.0, x, 1e-12)
	assert.InDelta(t, 2.0, y, 1e-12)
}

func TestRing_Contains(t *testing.T) {
	t.Parallel()

	r := ring{{0, 0}, {4, 0}, {4, 4}, {0, 4}}
	assert.True(t, r.contains(2, 2))
	assert.False(t, r.contains(5, 2))
	assert.False(t, r.contains(-0.1, 2))
}
