package planting

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func writeBoundaryShapefile(t *testing.T, parts [][]shp.Point) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "farm.shp")
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{shp.StringField("NAME", 20)}))

	poly := shp.Polygon(*shp.NewPolyLine(parts))
	n := w.Write(&poly)
	require.NoError(t, w.WriteAttribute(int(n), 0, "north block"))
	w.Close()
	return path
}

func TestReadBoundary(t *testing.T) {
	t.Parallel()

	path := writeBoundaryShapefile(t, [][]shp.Point{
		{{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 0}},
		{{X: 4, Y: 4}, {X: 4, Y: 6}, {X: 6, Y: 6}, {X: 6, Y: 4}},
	})

	boundary, err := ReadBoundary(path)
	require.NoError(t, err)
	require.Equal(t, 2, boundary.NumLinearRings())

	// Open rings are closed on read.
	hole := boundary.LinearRing(1)
	assert.Equal(t, 5, hole.NumCoords())
	assert.Equal(t, hole.Coord(0), hole.Coord(4))

	points, err := GeneratePoints(boundary, 2, 0)
	require.NoError(t, err)
	assert.Len(t, points, 24)
}

func TestReadBoundary_Errors(t *testing.T) {
	t.Parallel()

	_, err := ReadBoundary(filepath.Join(t.TempDir(), "missing.shp"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "points.shp")
	require.NoError(t, WritePoints(path, []geom.Coord{{1, 1}}))
	_, err = ReadBoundary(path)
	assert.ErrorIs(t, err, ErrEmptyBoundary)
}

func TestWritePoints(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "saplings.shp")
	points := []geom.Coord{{1, 2}, {3, 4}, {5, 6}}
	require.NoError(t, WritePoints(path, points))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"saplings.dbf", "saplings.shp", "saplings.shx"}, names)

	r, err := shp.Open(path)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	fields := r.Fields()
	require.Len(t, fields, 1)
	assert.Equal(t, "ID", strings.TrimRight(fields[0].String(), "\x00"))

	var got []geom.Coord
	var ids []string
	for r.Next() {
		n, shape := r.Shape()
		p, ok := shape.(*shp.Point)
		require.True(t, ok)
		got = append(got, geom.Coord{p.X, p.Y})
		ids = append(ids, strings.TrimSpace(r.ReadAttribute(n, 0)))
	}
	assert.Equal(t, points, got)
	assert.Equal(t, []string{"1", "2", "3"}, ids)
}

func TestWritePoints_NoExtension(t *testing.T) {
	t.Parallel()

	base := filepath.Join(t.TempDir(), "plan")
	require.NoError(t, WritePoints(base, []geom.Coord{{7, 8}}))
	assert.FileExists(t, base+".shp")
	assert.FileExists(t, base+".dbf")
	assert.NoFileExists(t, base+"dbf")

	r, err := shp.Open(base + ".shp")
	require.NoError(t, err)
	defer func() { _ = r.Close() }()
	require.Len(t, r.Fields(), 1)
	require.True(t, r.Next())
	n, _ := r.Shape()
	assert.Equal(t, "1", strings.TrimSpace(r.ReadAttribute(n, 0)))
}

func TestEncodePoints(t *testing.T) {
	t.Parallel()

	points := []geom.Coord{{1.5, 2.5}, {3, 4}}
	data, err := EncodePoints(points, 32755)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	got, srid, err := DecodePoints(data)
	require.NoError(t, err)
	assert.Equal(t, 32755, srid)
	assert.Equal(t, points, got)
}

func TestEncodePoints_Empty(t *testing.T) {
	t.Parallel()

	data, err := EncodePoints(nil, 4326)
	require.NoError(t, err)

	got, srid, err := DecodePoints(data)
	require.NoError(t, err)
	assert.Equal(t, 4326, srid)
	assert.Empty(t, got)
}

func TestDecodePoints_Errors(t *testing.T) {
	t.Parallel()

	_, _, err := DecodePoints([]byte{0x01, 0x02})
	assert.Error(t, err)
}
