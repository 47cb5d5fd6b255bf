package planting

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"
)

// ReadBoundary returns the first polygon record of a shapefile. The first
// part becomes the exterior ring and later parts become holes.
func ReadBoundary(path string) (*geom.Polygon, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "planting: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	skipped := 0
	for reader.Next() {
		_, shape := reader.Shape()
		p, ok := shape.(*shp.Polygon)
		if !ok || p.NumParts == 0 || len(p.Points) == 0 {
			skipped++
			continue
		}
		poly, err := shpToPolygon(p)
		if err != nil {
			return nil, eris.Wrapf(err, "planting: polygon in %s", path)
		}
		if skipped > 0 {
			zap.L().Debug("planting: skipped non-polygon records", zap.String("path", path), zap.Int("skipped", skipped))
		}
		return poly, nil
	}
	if err := reader.Err(); err != nil {
		return nil, eris.Wrapf(err, "planting: read shapefile %s", path)
	}
	return nil, eris.Wrapf(ErrEmptyBoundary, "no polygon in %s", path)
}

func shpToPolygon(p *shp.Polygon) (*geom.Polygon, error) {
	poly := geom.NewPolygon(geom.XY)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		flat := make([]float64, 0, 2*(end-start+1))
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}
		if n := len(flat); n >= 2 && (flat[0] != flat[n-2] || flat[1] != flat[n-1]) {
			flat = append(flat, flat[0], flat[1])
		}

		if err := poly.Push(geom.NewLinearRingFlat(geom.XY, flat)); err != nil {
			return nil, err
		}
	}
	return poly, nil
}

// WritePoints writes planting points to a point shapefile with a 1-based
// ID attribute.
func WritePoints(path string, points []geom.Coord) error {
	base := path
	if strings.EqualFold(filepath.Ext(base), ".shp") {
		base = base[:len(base)-len(".shp")]
	}

	w, err := shp.Create(base+".shp", shp.POINT)
	if err != nil {
		return eris.Wrapf(err, "planting: create shapefile %s", path)
	}
	err = writePointRecords(w, points)
	w.Close()
	if err != nil {
		return err
	}
	return fixDBFName(base)
}

func writePointRecords(w *shp.Writer, points []geom.Coord) error {
	if err := w.SetFields([]shp.Field{shp.NumberField("ID", 10)}); err != nil {
		return eris.Wrap(err, "planting: set shapefile fields")
	}
	for i, p := range points {
		n := w.Write(&shp.Point{X: p[0], Y: p[1]})
		if err := w.WriteAttribute(int(n), 0, i+1); err != nil {
			return eris.Wrapf(err, "planting: write point %d", i+1)
		}
	}
	return nil
}

// fixDBFName moves the attribute table go-shp v0.1.1 writes to "<base>dbf"
// (no dot) into place next to the .shp.
func fixDBFName(base string) error {
	stray := base + "dbf"
	if _, err := os.Stat(stray); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := os.Rename(stray, base+".dbf"); err != nil {
		return eris.Wrapf(err, "planting: rename attribute table %s", stray)
	}
	return nil
}

// EncodePoints encodes points as a little-endian EWKB multipoint with srid.
func EncodePoints(points []geom.Coord, srid int) ([]byte, error) {
	flat := make([]float64, 0, 2*len(points))
	for _, p := range points {
		flat = append(flat, p[0], p[1])
	}
	mp := geom.NewMultiPointFlat(geom.XY, flat).SetSRID(srid)

	data, err := ewkb.Marshal(mp, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "planting: encode EWKB")
	}
	return data, nil
}

// DecodePoints reverses EncodePoints.
func DecodePoints(data []byte) ([]geom.Coord, int, error) {
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return nil, 0, eris.Wrap(err, "planting: decode EWKB")
	}
	mp, ok := g.(*geom.MultiPoint)
	if !ok {
		return nil, 0, eris.Errorf("planting: expected multipoint, got %T", g)
	}
	coords := mp.Coords()
	return coords, mp.SRID(), nil
}
