// Package dem samples elevations from a digital elevation model.
package dem

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/secinterp/secinterp/internal/lib/geo"
)

// Sampler returns the elevation at a planar coordinate. ok is false where
// the model has no data.
type Sampler interface {
	Sample(x, y float64) (elevation float64, ok bool)
}

// Grid is a single-band regular raster with values at cell centres
type Grid struct {
	cols, rows int
	xll, yll   float64 // lower-left corner of the lower-left cell
	cellSize   float64
	noData     float64
	hasNoData  bool
	values     []float64 // row-major, first row is the northernmost
}

// NewGrid builds a grid from row-major values, northernmost row first
func NewGrid(cols, rows int, xll, yll, cellSize float64, values []float64) (*Grid, error) {
	if cols < 1 || rows < 1 {
		return nil, fmt.Errorf("grid must have at least one cell, got %dx%d", cols, rows)
	}
	if cellSize <= 0 {
		return nil, fmt.Errorf("cell size must be positive, got %v", cellSize)
	}
	if len(values) != cols*rows {
		return nil, fmt.Errorf("expected %d values, got %d", cols*rows, len(values))
	}
	return &Grid{cols: cols, rows: rows, xll: xll, yll: yll, cellSize: cellSize, values: values}, nil
}

// SetNoData marks a sentinel value as missing
func (g *Grid) SetNoData(v float64) {
	g.noData = v
	g.hasNoData = true
}

// OpenASCIIGrid loads an ESRI ASCII grid file
func OpenASCIIGrid(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open DEM: %w", err)
	}
	defer f.Close()

	grid, err := LoadASCIIGrid(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read DEM %s: %w", path, err)
	}
	return grid, nil
}

// LoadASCIIGrid parses an ESRI ASCII grid
func LoadASCIIGrid(r io.Reader) (*Grid, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	scanner.Split(bufio.ScanWords)

	header := make(map[string]float64)
	var first string
	for scanner.Scan() {
		key := strings.ToLower(scanner.Text())
		if _, err := strconv.ParseFloat(key, 64); err == nil {
			first = key
			break
		}
		if !scanner.Scan() {
			return nil, fmt.Errorf("header %q has no value", key)
		}
		v, err := strconv.ParseFloat(scanner.Text(), 64)
		if err != nil {
			return nil, fmt.Errorf("header %q: %w", key, err)
		}
		header[key] = v
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	cols, rows := int(header["ncols"]), int(header["nrows"])
	cellSize := header["cellsize"]
	xll, hasX := header["xllcorner"]
	yll, hasY := header["yllcorner"]
	if xc, ok := header["xllcenter"]; ok && !hasX {
		xll, hasX = xc-cellSize/2, true
	}
	if yc, ok := header["yllcenter"]; ok && !hasY {
		yll, hasY = yc-cellSize/2, true
	}
	if !hasX || !hasY {
		return nil, fmt.Errorf("missing lower-left coordinates")
	}

	values := make([]float64, 0, cols*rows)
	if first != "" {
		v, _ := strconv.ParseFloat(first, 64)
		values = append(values, v)
	}
	for scanner.Scan() {
		v, err := strconv.ParseFloat(scanner.Text(), 64)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", len(values), err)
		}
		values = append(values, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	grid, err := NewGrid(cols, rows, xll, yll, cellSize, values)
	if err != nil {
		return nil, err
	}
	if nd, ok := header["nodata_value"]; ok {
		grid.SetNoData(nd)
	}
	return grid, nil
}

// Sample interpolates bilinearly between cell centres. Within half a cell of
// the grid edge the nearest edge values are used. If any of the four cells
// has no data the nearest cell is returned instead.
func (g *Grid) Sample(x, y float64) (float64, bool) {
	fc := (x-g.xll)/g.cellSize - 0.5
	fr := (g.yll+float64(g.rows)*g.cellSize-y)/g.cellSize - 0.5
	if fc < -0.5 || fc > float64(g.cols)-0.5 || fr < -0.5 || fr > float64(g.rows)-0.5 || math.IsNaN(fc) || math.IsNaN(fr) {
		return 0, false
	}

	fc = math.Max(0, math.Min(fc, float64(g.cols-1)))
	fr = math.Max(0, math.Min(fr, float64(g.rows-1)))
	c0, r0 := int(fc), int(fr)
	c1, r1 := minInt(c0+1, g.cols-1), minInt(r0+1, g.rows-1)
	tx, ty := fc-float64(c0), fr-float64(r0)

	v00, ok00 := g.at(c0, r0)
	v10, ok10 := g.at(c1, r0)
	v01, ok01 := g.at(c0, r1)
	v11, ok11 := g.at(c1, r1)
	if ok00 && ok10 && ok01 && ok11 {
		top := v00 + (v10-v00)*tx
		bottom := v01 + (v11-v01)*tx
		return top + (bottom-top)*ty, true
	}

	return g.at(int(math.Round(fc)), int(math.Round(fr)))
}

func (g *Grid) at(col, row int) (float64, bool) {
	v := g.values[row*g.cols+col]
	if math.IsNaN(v) || (g.hasNoData && v == g.noData) {
		return 0, false
	}
	return v, true
}

// Profile samples elevations every step metres along the line. Stations
// without data are skipped and counted.
func Profile(sampler Sampler, line *geo.SectionLine, step float64) ([]geo.SectionPoint, int) {
	stations := line.Densify(step)
	points := make([]geo.SectionPoint, 0, len(stations))
	missing := 0
	for _, st := range stations {
		z, ok := sampler.Sample(st.Point.X, st.Point.Y)
		if !ok {
			missing++
			continue
		}
		points = append(points, geo.SectionPoint{Distance: st.Distance, Elevation: z})
	}
	return points, missing
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
