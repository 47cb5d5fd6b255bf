package planting

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleASC = `ncols 4
nrows 3
xllcorner 100
yllcorner 200
cellsize 10
NODATA_value -1
1 2 3 4
5 6 -1 8
9 10 11 12
`

func TestReadASCIIGrid(t *testing.T) {
	t.Parallel()

	g, err := ReadASCIIGrid(strings.NewReader(sampleASC))
	require.NoError(t, err)

	assert.Equal(t, 4, g.Cols)
	assert.Equal(t, 3, g.Rows)
	assert.Equal(t, 100.0, g.XLL)
	assert.Equal(t, 200.0, g.YLL)
	assert.Equal(t, 10.0, g.CellSize)
	assert.Equal(t, -1.0, g.NoData)
	assert.Equal(t, 11, g.ValidCells())

	v, ok := g.At(0, 0)
	require.True(t, ok)
	assert.Equal(t, 1.0, v)
	_, ok = g.At(1, 2)
	assert.False(t, ok, "no-data cell")
	_, ok = g.At(3, 0)
	assert.False(t, ok, "out of range")
}

func TestReadASCIIGrid_CenterRegistration(t *testing.T) {
	t.Parallel()

	src := "ncols 1\nnrows 1\nxllcenter 5\nyllcenter 5\ncellsize 10\n7\n"
	g, err := ReadASCIIGrid(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, 0.0, g.XLL)
	assert.Equal(t, 0.0, g.YLL)
	assert.Equal(t, DefaultNoData, g.NoData)
}

func TestReadASCIIGrid_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{"missing header", "1 2 3\n"},
		{"unknown key", "ncols 1\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\nbogus 3\n1\n"},
		{"bad header value", "ncols x\n"},
		{"short body", "ncols 2\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 1\n1 2 3\n"},
		{"bad cell", "ncols 1\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\nabc\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadASCIIGrid(strings.NewReader(tt.src))
			assert.Error(t, err)
		})
	}
}

func TestGrid_Sample(t *testing.T) {
	t.Parallel()

	g, err := ReadASCIIGrid(strings.NewReader(sampleASC))
	require.NoError(t, err)

	// Top-left cell spans x [100,110), y [220,230).
	v, ok := g.Sample(105, 225)
	require.True(t, ok)
	assert.Equal(t, 1.0, v)

	// Bottom-right cell.
	v, ok = g.Sample(139, 201)
	require.True(t, ok)
	assert.Equal(t, 12.0, v)

	_, ok = g.Sample(99, 205)
	assert.False(t, ok)
	_, ok = g.Sample(125, 215)
	assert.False(t, ok, "no-data cell")
}

func TestWriteASCIIGrid_RoundTrip(t *testing.T) {
	t.Parallel()

	g, err := ReadASCIIGrid(strings.NewReader(sampleASC))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteASCIIGrid(&buf, g))

	back, err := ReadASCIIGrid(&buf)
	require.NoError(t, err)
	assert.Equal(t, g, back)
}

// planeDEM builds a DEM rising by rise metres per cell towards the east.
func planeDEM(cols, rows int, cellSize, rise float64) *Grid {
	g := NewGrid(cols, rows, 0, 0, cellSize, DefaultNoData)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			g.Set(r, c, float64(c)*rise)
		}
	}
	return g
}

func TestSlopeFromDEM_Plane(t *testing.T) {
	t.Parallel()

	// Rise equal to the cell size is a 45 degree slope.
	slope := SlopeFromDEM(planeDEM(5, 5, 10, 10))

	for r := 0; r < 5; r++ {
		for c := 0; c < 5; c++ {
			v, ok := slope.At(r, c)
			if r == 0 || c == 0 || r == 4 || c == 4 {
				assert.False(t, ok, "edge cell %d,%d", r, c)
				continue
			}
			require.True(t, ok)
			assert.InDelta(t, 45.0, v, 1e-9)
		}
	}
}

func TestSlopeFromDEM_FlatAndNoData(t *testing.T) {
	t.Parallel()

	dem := planeDEM(4, 4, 5, 0)
	dem.Set(0, 0, DefaultNoData)
	slope := SlopeFromDEM(dem)

	_, ok := slope.At(1, 1)
	assert.False(t, ok, "neighbour is no-data")

	v, ok := slope.At(2, 2)
	require.True(t, ok)
	assert.Equal(t, 0.0, v)
}

func TestSlopeFromDEM_NorthSouth(t *testing.T) {
	t.Parallel()

	g := NewGrid(3, 3, 0, 0, 1, DefaultNoData)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			g.Set(r, c, float64(r)*math.Sqrt(3))
		}
	}
	v, ok := SlopeFromDEM(g).At(1, 1)
	require.True(t, ok)
	assert.InDelta(t, 60.0, v, 1e-9)
}
