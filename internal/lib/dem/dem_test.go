package dem

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secinterp/secinterp/internal/lib/geo"
)

// 3x2 grid of 10 m cells; the northern row is first
const sampleGrid = `ncols 3
nrows 2
xllcorner 1000
yllcorner 2000
cellsize 10
NODATA_value -9999
110 120 130
100 110 -9999
`

func loadSample(t *testing.T) *Grid {
	t.Helper()
	grid, err := LoadASCIIGrid(strings.NewReader(sampleGrid))
	require.NoError(t, err)
	return grid
}

func TestLoadASCIIGrid(t *testing.T) {
	grid := loadSample(t)
	assert.Equal(t, 3, grid.cols)
	assert.Equal(t, 2, grid.rows)
	assert.Equal(t, 1000.0, grid.xll)
	assert.True(t, grid.hasNoData)

	// Cell centre of the north-west cell
	z, ok := grid.Sample(1005, 2015)
	require.True(t, ok)
	assert.Equal(t, 110.0, z)
}

func TestLoadASCIIGrid_CenterHeader(t *testing.T) {
	src := "ncols 1\nnrows 1\nxllcenter 5\nyllcenter 5\ncellsize 10\n42\n"
	grid, err := LoadASCIIGrid(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, 0.0, grid.xll)
	z, ok := grid.Sample(5, 5)
	require.True(t, ok)
	assert.Equal(t, 42.0, z)
}

func TestLoadASCIIGrid_Errors(t *testing.T) {
	_, err := LoadASCIIGrid(strings.NewReader("ncols 2\nnrows 1\ncellsize 1\n1 2\n"))
	assert.Error(t, err, "missing corner")

	_, err = LoadASCIIGrid(strings.NewReader("ncols 2\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 1\n1 2 3\n"))
	assert.Error(t, err, "too few values")

	_, err = LoadASCIIGrid(strings.NewReader("ncols 1\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\nabc\n"))
	assert.Error(t, err)
}

func TestGrid_SampleBilinear(t *testing.T) {
	grid := loadSample(t)

	// Midway between the two western cell centres
	z, ok := grid.Sample(1005, 2010)
	require.True(t, ok)
	assert.InDelta(t, 105, z, 1e-9)

	// Centre of the four western cells
	z, ok = grid.Sample(1010, 2010)
	require.True(t, ok)
	assert.InDelta(t, 110, z, 1e-9)

	// Outside the grid
	_, ok = grid.Sample(900, 2010)
	assert.False(t, ok)
}

func TestGrid_SampleNoData(t *testing.T) {
	grid := loadSample(t)

	// South-east cell is NODATA
	_, ok := grid.Sample(1025, 2005)
	assert.False(t, ok)

	// Neighbourhood touches NODATA, nearest valid cell wins
	z, ok := grid.Sample(1016, 2012)
	require.True(t, ok)
	assert.Equal(t, 120.0, z)
}

func TestProfile(t *testing.T) {
	grid := loadSample(t)
	line, err := geo.NewSectionLine([]geo.Point{{X: 1005, Y: 2015}, {X: 1025, Y: 2015}})
	require.NoError(t, err)

	points, missing := Profile(grid, line, 10)
	assert.Equal(t, 0, missing)
	assert.Equal(t, []geo.SectionPoint{
		{Distance: 0, Elevation: 110},
		{Distance: 10, Elevation: 120},
		{Distance: 20, Elevation: 130},
	}, points)

	line, err = geo.NewSectionLine([]geo.Point{{X: 1005, Y: 2005}, {X: 1025, Y: 2005}})
	require.NoError(t, err)
	points, missing = Profile(grid, line, 10)
	assert.Equal(t, 1, missing)
	assert.Len(t, points, 2)
}
