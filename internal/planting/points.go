package planting

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// ring is a closed or open sequence of XY vertices.
type ring [][2]float64

// polygonRings extracts the XY rings of p, exterior first.
func polygonRings(p *geom.Polygon) []ring {
	stride := p.Stride()
	rings := make([]ring, 0, p.NumLinearRings())
	for i := 0; i < p.NumLinearRings(); i++ {
		flat := p.LinearRing(i).FlatCoords()
		r := make(ring, 0, len(flat)/stride)
		for j := 0; j+1 < len(flat); j += stride {
			r = append(r, [2]float64{flat[j], flat[j+1]})
		}
		rings = append(rings, r)
	}
	return rings
}

// contains reports whether (x, y) is inside the ring by ray casting.
func (r ring) contains(x, y float64) bool {
	in := false
	for i, j := 0, len(r)-1; i < len(r); j, i = i, i+1 {
		xi, yi := r[i][0], r[i][1]
		xj, yj := r[j][0], r[j][1]
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			in = !in
		}
	}
	return in
}

// insidePolygon checks the exterior ring and excludes holes.
func insidePolygon(rings []ring, x, y float64) bool {
	if len(rings) == 0 || !rings[0].contains(x, y) {
		return false
	}
	for _, hole := range rings[1:] {
		if hole.contains(x, y) {
			return false
		}
	}
	return true
}

// centroid returns the area centroid of the exterior ring, or the mean of
// its vertices when the ring has no area.
func centroid(r ring) (float64, float64) {
	var a, cx, cy float64
	for i := range r {
		j := (i + 1) % len(r)
		cross := r[i][0]*r[j][1] - r[j][0]*r[i][1]
		a += cross
		cx += (r[i][0] + r[j][0]) * cross
		cy += (r[i][1] + r[j][1]) * cross
	}
	if math.Abs(a) > 1e-12 {
		return cx / (3 * a), cy / (3 * a)
	}
	var sx, sy float64
	for _, v := range r {
		sx += v[0]
		sy += v[1]
	}
	n := float64(len(r))
	return sx / n, sy / n
}

type rotation struct {
	cx, cy   float64
	cos, sin float64
}

func newRotation(cx, cy, angleDeg float64) rotation {
	rad := angleDeg * math.Pi / 180
	return rotation{cx: cx, cy: cy, cos: math.Cos(rad), sin: math.Sin(rad)}
}

func (t rotation) apply(x, y float64) (float64, float64) {
	dx, dy := x-t.cx, y-t.cy
	return t.cx + dx*t.cos - dy*t.sin, t.cy + dx*t.sin + dy*t.cos
}

func (t rotation) inverse() rotation {
	return rotation{cx: t.cx, cy: t.cy, cos: t.cos, sin: -t.sin}
}

func validBoundary(boundary *geom.Polygon) error {
	if boundary == nil || boundary.Empty() || boundary.NumLinearRings() == 0 || boundary.LinearRing(0).NumCoords() < 3 {
		return ErrEmptyBoundary
	}
	return nil
}

// GeneratePoints lays a square grid with the given spacing over boundary,
// rotated by angleDeg about the boundary centroid, and keeps the points
// that fall inside the boundary and outside its holes. Grid lines start
// half a spacing in from the rotated bounding box.
func GeneratePoints(boundary *geom.Polygon, spacing, angleDeg float64) ([]geom.Coord, error) {
	if spacing <= 0 || math.IsNaN(spacing) || math.IsInf(spacing, 0) {
		return nil, eris.Wrapf(ErrInvalidSpacing, "%g", spacing)
	}
	if err := validBoundary(boundary); err != nil {
		return nil, err
	}

	rings := polygonRings(boundary)
	cx, cy := centroid(rings[0])
	toGrid := newRotation(cx, cy, -angleDeg)
	toWorld := toGrid.inverse()

	// Work in the grid frame, where the lattice is axis aligned.
	local := make([]ring, len(rings))
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i, r := range rings {
		local[i] = make(ring, len(r))
		for j, v := range r {
			x, y := toGrid.apply(v[0], v[1])
			local[i][j] = [2]float64{x, y}
			if i == 0 {
				minX, maxX = math.Min(minX, x), math.Max(maxX, x)
				minY, maxY = math.Min(minY, y), math.Max(maxY, y)
			}
		}
	}

	nx, ny := gridSteps(maxX-minX, spacing), gridSteps(maxY-minY, spacing)
	if float64(nx)*float64(ny) > MaxGridPoints {
		return nil, eris.Wrapf(ErrTooManyPoints, "%d x %d at spacing %g", nx, ny, spacing)
	}

	var points []geom.Coord
	for j := 0; j < ny; j++ {
		y := minY + spacing/2 + float64(j)*spacing
		for i := 0; i < nx; i++ {
			x := minX + spacing/2 + float64(i)*spacing
			if !insidePolygon(local, x, y) {
				continue
			}
			wx, wy := toWorld.apply(x, y)
			points = append(points, geom.Coord{wx, wy})
		}
	}
	return points, nil
}

// gridSteps counts lattice lines at s/2, 3s/2, ... that fit within extent.
func gridSteps(extent, s float64) int {
	if extent < s/2 {
		return 0
	}
	n := math.Floor((extent-s/2)/s) + 1
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

// OptimalRotation tries angles in [0, 90) at stepDeg increments and returns
// the one yielding the most points. Ties keep the smallest angle. A square
// lattice repeats every 90 degrees, so larger angles add nothing.
func OptimalRotation(boundary *geom.Polygon, spacing, stepDeg float64) (float64, []geom.Coord, error) {
	if stepDeg <= 0 || stepDeg > 90 {
		stepDeg = 90
	}

	best := -1.0
	var bestPoints []geom.Coord
	for i := 0; ; i++ {
		angle := float64(i) * stepDeg
		if angle >= 90 {
			break
		}
		points, err := GeneratePoints(boundary, spacing, angle)
		if err != nil {
			return 0, nil, err
		}
		if best < 0 || len(points) > len(bestPoints) {
			best, bestPoints = angle, points
		}
	}
	return best, bestPoints, nil
}
