// Package planting estimates sapling layouts for a farm boundary: a square
// planting grid rotated to fit the boundary best, filtered by terrain slope.
package planting

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// DefaultNoData is the ESRI ASCII grid no-data value used when the header omits one.
const DefaultNoData = -9999.0

// Grid is a north-up raster. Values are row-major with row 0 at the top.
// XLL/YLL locate the lower-left corner of the lower-left cell.
type Grid struct {
	Cols     int
	Rows     int
	XLL      float64
	YLL      float64
	CellSize float64
	NoData   float64
	Values   []float64
}

// NewGrid allocates a grid filled with the no-data value.
func NewGrid(cols, rows int, xll, yll, cellSize, noData float64) *Grid {
	g := &Grid{Cols: cols, Rows: rows, XLL: xll, YLL: yll, CellSize: cellSize, NoData: noData}
	g.Values = make([]float64, cols*rows)
	for i := range g.Values {
		g.Values[i] = noData
	}
	return g
}

// At returns the cell value and false for out-of-range or no-data cells.
func (g *Grid) At(row, col int) (float64, bool) {
	if row < 0 || col < 0 || row >= g.Rows || col >= g.Cols {
		return 0, false
	}
	v := g.Values[row*g.Cols+col]
	if g.isNoData(v) {
		return 0, false
	}
	return v, true
}

// Set writes a cell value. Out-of-range cells are ignored.
func (g *Grid) Set(row, col int, v float64) {
	if row < 0 || col < 0 || row >= g.Rows || col >= g.Cols {
		return
	}
	g.Values[row*g.Cols+col] = v
}

// Sample returns the value of the cell containing (x, y).
func (g *Grid) Sample(x, y float64) (float64, bool) {
	if g.CellSize <= 0 {
		return 0, false
	}
	col := int(math.Floor((x - g.XLL) / g.CellSize))
	row := g.Rows - 1 - int(math.Floor((y-g.YLL)/g.CellSize))
	return g.At(row, col)
}

// ValidCells counts cells holding data.
func (g *Grid) ValidCells() int {
	n := 0
	for _, v := range g.Values {
		if !g.isNoData(v) {
			n++
		}
	}
	return n
}

func (g *Grid) isNoData(v float64) bool {
	return math.IsNaN(v) || v == g.NoData
}

// ReadASCIIGrid parses an ESRI ASCII raster (.asc). Both corner and center
// registration are accepted; centers are converted to corners.
func ReadASCIIGrid(r io.Reader) (*Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	sc.Split(bufio.ScanWords)

	g := &Grid{NoData: DefaultNoData}
	var (
		xCenter, yCenter bool
		haveX, haveY     bool
		pending          string
	)

	// Header: keyword/value pairs until the first numeric token.
	for sc.Scan() {
		tok := sc.Text()
		if _, err := strconv.ParseFloat(tok, 64); err == nil {
			pending = tok
			break
		}
		key := strings.ToLower(tok)
		if !sc.Scan() {
			return nil, eris.Errorf("planting: grid header %q has no value", tok)
		}
		val := sc.Text()
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, eris.Wrapf(err, "planting: grid header %s", key)
		}
		switch key {
		case "ncols":
			g.Cols = int(f)
		case "nrows":
			g.Rows = int(f)
		case "xllcorner":
			g.XLL, haveX = f, true
		case "xllcenter":
			g.XLL, haveX, xCenter = f, true, true
		case "yllcorner":
			g.YLL, haveY = f, true
		case "yllcenter":
			g.YLL, haveY, yCenter = f, true, true
		case "cellsize":
			g.CellSize = f
		case "nodata_value":
			g.NoData = f
		default:
			return nil, eris.Errorf("planting: unknown grid header %q", tok)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "planting: read grid")
	}
	if g.Cols <= 0 || g.Rows <= 0 || g.CellSize <= 0 || !haveX || !haveY {
		return nil, eris.New("planting: grid header incomplete (need ncols, nrows, xll, yll, cellsize)")
	}
	if xCenter {
		g.XLL -= g.CellSize / 2
	}
	if yCenter {
		g.YLL -= g.CellSize / 2
	}

	g.Values = make([]float64, 0, g.Cols*g.Rows)
	parse := func(tok string) error {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return eris.Wrapf(err, "planting: grid cell %d", len(g.Values))
		}
		g.Values = append(g.Values, v)
		return nil
	}
	if pending != "" {
		if err := parse(pending); err != nil {
			return nil, err
		}
	}
	for sc.Scan() {
		if err := parse(sc.Text()); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "planting: read grid")
	}
	if len(g.Values) != g.Cols*g.Rows {
		return nil, eris.Errorf("planting: grid has %d cells, header declares %dx%d", len(g.Values), g.Cols, g.Rows)
	}
	return g, nil
}

// WriteASCIIGrid writes g in ESRI ASCII format with corner registration.
func WriteASCIIGrid(w io.Writer, g *Grid) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ncols %d\nnrows %d\nxllcorner %s\nyllcorner %s\ncellsize %s\nNODATA_value %s\n",
		g.Cols, g.Rows, fmtFloat(g.XLL), fmtFloat(g.YLL), fmtFloat(g.CellSize), fmtFloat(g.NoData))
	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			if col > 0 {
				bw.WriteByte(' ') //nolint:errcheck
			}
			bw.WriteString(fmtFloat(g.Values[row*g.Cols+col])) //nolint:errcheck
		}
		bw.WriteByte('\n') //nolint:errcheck
	}
	return eris.Wrap(bw.Flush(), "planting: write grid")
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// SlopeFromDEM derives a slope raster in degrees from an elevation raster
// using Horn's 3x3 finite difference. Edge cells and cells with a no-data
// neighbour are no-data.
func SlopeFromDEM(dem *Grid) *Grid {
	out := NewGrid(dem.Cols, dem.Rows, dem.XLL, dem.YLL, dem.CellSize, DefaultNoData)
	if dem.CellSize <= 0 {
		return out
	}

	for row := 1; row < dem.Rows-1; row++ {
		for col := 1; col < dem.Cols-1; col++ {
			var z [3][3]float64
			ok := true
			for dr := -1; dr <= 1 && ok; dr++ {
				for dc := -1; dc <= 1; dc++ {
					v, valid := dem.At(row+dr, col+dc)
					if !valid {
						ok = false
						break
					}
					z[dr+1][dc+1] = v
				}
			}
			if !ok {
				continue
			}

			dzdx := ((z[0][2] + 2*z[1][2] + z[2][2]) - (z[0][0] + 2*z[1][0] + z[2][0])) / (8 * dem.CellSize)
			dzdy := ((z[2][0] + 2*z[2][1] + z[2][2]) - (z[0][0] + 2*z[0][1] + z[0][2])) / (8 * dem.CellSize)
			out.Set(row, col, math.Atan(math.Hypot(dzdx, dzdy))*180/math.Pi)
		}
	}
	return out
}
