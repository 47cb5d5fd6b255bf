//go:build !integration

package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/suitability-cli/internal/planting"
	"github.com/sells-group/suitability-cli/internal/store"
)

func writeSquareBoundary(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "farm.shp")
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{shp.StringField("NAME", 10)}))
	poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{
		{{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 0}},
	}))
	n := w.Write(&poly)
	require.NoError(t, w.WriteAttribute(int(n), 0, "farm"))
	w.Close()
	return path
}

// eastRidgeDEM covers [-1, 11] in 1 m cells: flat up to x=6, rising 2 m
// per metre from there on.
func eastRidgeDEM() string {
	var b strings.Builder
	b.WriteString("ncols 12\nnrows 12\nxllcorner -1\nyllcorner -1\ncellsize 1\nNODATA_value -9999\n")
	for r := 0; r < 12; r++ {
		for c := 0; c < 12; c++ {
			z := 0.0
			if x := float64(c - 1); x > 6 {
				z = 2 * (x - 6)
			}
			if c > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%g", z)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func TestPlantCmd_WritesPoints(t *testing.T) {
	cfg = testConfig(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "saplings.shp")
	slopeOut := filepath.Join(dir, "slope.asc")

	setFlags(t, plantCmd, map[string]string{
		"boundary":     writeSquareBoundary(t, dir),
		"dem":          writeFile(t, dir, "dem.asc", eastRidgeDEM()),
		"output":       out,
		"slope-output": slopeOut,
	})
	require.NoError(t, runCmd(t, plantCmd))

	r, err := shp.Open(out)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	count := 0
	for r.Next() {
		_, shape := r.Shape()
		p, ok := shape.(*shp.Point)
		require.True(t, ok)
		assert.Less(t, p.X, 6.0, "points on the ridge are dropped")
		count++
	}
	assert.Equal(t, 15, count)

	f, err := os.Open(slopeOut)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck
	slope, err := planting.ReadASCIIGrid(f)
	require.NoError(t, err)
	assert.Equal(t, 12, slope.Cols)
}

func TestPlantCmd_FlagOverrides(t *testing.T) {
	cfg = testConfig(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "saplings.shp")

	setFlags(t, plantCmd, map[string]string{
		"boundary": writeSquareBoundary(t, dir),
		"spacing":  "5",
		"output":   out,
	})
	require.NoError(t, runCmd(t, plantCmd))
	assert.Equal(t, 5.0, cfg.Planting.SpacingM)

	r, err := shp.Open(out)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()
	count := 0
	for r.Next() {
		count++
	}
	assert.Equal(t, 4, count)
}

func TestPlantCmd_Errors(t *testing.T) {
	cfg = testConfig(t)
	err := runCmd(t, plantCmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boundary shapefile is required")

	cfg = testConfig(t)
	setFlags(t, plantCmd, map[string]string{"spacing": "-1"})
	err = runCmd(t, plantCmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "planting.spacing_m")
}

func TestSavePlan(t *testing.T) {
	cfg = testConfig(t)
	ctx := context.Background()

	plan := &planting.Plan{
		OptimalAngle: 15,
		Candidates:   3,
		SaplingCount: 2,
		Dropped:      1,
		Points:       []geom.Coord{{1, 1}, {3, 1}},
	}
	id, err := savePlan(ctx, "north", 32755, plan)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	st, err := store.New(ctx, cfg.Store)
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	got, err := st.GetPlan(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "north", got.FarmID)
	assert.Equal(t, 2, got.SaplingCount)
	assert.Equal(t, 15.0, got.OptimalAngle)

	points, srid, err := planting.DecodePoints(got.Geometry)
	require.NoError(t, err)
	assert.Equal(t, 32755, srid)
	assert.Equal(t, plan.Points, points)
}

func TestFormatPlan(t *testing.T) {
	var buf bytes.Buffer
	formatPlan(&buf, "north", "abc", &planting.Plan{OptimalAngle: 30, Candidates: 10, SaplingCount: 8, Dropped: 2})

	output := buf.String()
	assert.Contains(t, output, "north")
	assert.Contains(t, output, "30°")
	assert.Contains(t, output, "Saplings:")
	assert.Contains(t, output, "8")
}
