package structural

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secinterp/secinterp/internal/lib/geo"
)

func TestApparentDip_ParallelToStrike(t *testing.T) {
	for _, dip := range []float64{0, 10, 45, 60, 89, 90} {
		for _, strike := range []float64{0, 37, 180, 305.5} {
			assert.Equal(t, 0.0, ApparentDip(strike, dip, strike), "strike %v dip %v", strike, dip)
			// Opposite direction along strike is still parallel
			assert.Equal(t, 0.0, ApparentDip(strike, dip, strike+180), "strike %v dip %v", strike, dip)
		}
	}
}

func TestApparentDip_PerpendicularToStrike(t *testing.T) {
	for _, dip := range []float64{0, 12.5, 45, 70, 90} {
		for _, strike := range []float64{0, 30, 135, 271} {
			assert.Equal(t, dip, ApparentDip(strike, dip, strike+90), "strike %v dip %v", strike, dip)
			assert.Equal(t, dip, ApparentDip(strike, dip, strike-90), "strike %v dip %v", strike, dip)
		}
	}
}

func TestApparentDip_Oblique(t *testing.T) {
	// 45 degree dip seen 30 degrees off strike: atan(tan45 * sin30)
	expected := math.Atan(0.5) * 180 / math.Pi
	assert.InDelta(t, expected, ApparentDip(0, 45, 30), 1e-9)
	assert.InDelta(t, expected, ApparentDip(0, 45, 330), 1e-9)

	// Apparent dip never exceeds true dip
	for az := 0.0; az < 360; az += 7 {
		assert.LessOrEqual(t, ApparentDip(20, 60, az), 60.0+1e-9)
	}
}

func TestApparentDip_Total(t *testing.T) {
	// Out-of-range inputs are folded, never NaN
	assert.Equal(t, 30.0, ApparentDip(-270, -30, 0))
	assert.Equal(t, 80.0, ApparentDip(0, 100, 90))
	assert.False(t, math.IsNaN(ApparentDip(1e6, 45, -1e6)))
	assert.Equal(t, ApparentDip(12, 34, 56), ApparentDip(12, 34, 56))
}

func TestSignedApparentDip(t *testing.T) {
	east := NewOrientation(0, 40) // strikes north, dips east
	assert.Equal(t, 40.0, SignedApparentDip(east, 90))
	assert.Equal(t, -40.0, SignedApparentDip(east, 270))
}

func TestParseAzimuth(t *testing.T) {
	tests := []struct {
		raw      string
		expected float64
	}{
		{"030", 30},
		{" 30.5° ", 30.5},
		{"-10", 350},
		{"N30E", 30},
		{"n30w", 330},
		{"S30E", 150},
		{"S 45 W", 225},
		{"N0E", 0},
		{"NE", 45},
		{"wsw", 247.5},
		{"S", 180},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseAzimuth(tt.raw)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-12)
		})
	}
}

func TestParseAzimuth_Errors(t *testing.T) {
	for _, raw := range []string{"", "north-ish", "N95E", "E30N", "Inf", "NaN"} {
		_, err := ParseAzimuth(raw)
		var parseErr *ParseError
		require.True(t, errors.As(err, &parseErr), "expected ParseError for %q", raw)
		assert.Equal(t, raw, parseErr.Raw)
	}
}

func TestParseDip(t *testing.T) {
	dip, dir, hasDir, err := ParseDip("45")
	require.NoError(t, err)
	assert.Equal(t, 45.0, dip)
	assert.False(t, hasDir)
	assert.Equal(t, 0.0, dir)

	dip, dir, hasDir, err = ParseDip("45 SW")
	require.NoError(t, err)
	assert.Equal(t, 45.0, dip)
	assert.True(t, hasDir)
	assert.Equal(t, 225.0, dir)

	dip, dir, _, err = ParseDip("12.5°ne")
	require.NoError(t, err)
	assert.Equal(t, 12.5, dip)
	assert.Equal(t, 45.0, dir)

	for _, raw := range []string{"", "steep", "95", "45 XY", "-10"} {
		_, _, _, err = ParseDip(raw)
		assert.Error(t, err, raw)
	}
}

func TestParseOrientation(t *testing.T) {
	// Dip direction on the right of strike: unchanged
	o, err := ParseOrientation("N30E", "45 SE")
	require.NoError(t, err)
	assert.InDelta(t, 30, o.Strike, 1e-12)
	assert.InDelta(t, 120, o.DipDirection, 1e-12)
	assert.Equal(t, 45.0, o.Dip)

	// Dip direction on the left: strike flipped to the right-hand rule
	o, err = ParseOrientation("N30E", "45 NW")
	require.NoError(t, err)
	assert.InDelta(t, 210, o.Strike, 1e-12)
	assert.InDelta(t, 300, o.DipDirection, 1e-12)

	// No direction: right-hand rule assumed
	o, err = ParseOrientation("120", "20")
	require.NoError(t, err)
	assert.InDelta(t, 210, o.DipDirection, 1e-12)

	_, err = ParseOrientation("0", "30 N")
	assert.Error(t, err, "dip direction parallel to strike")

	_, err = ParseOrientation("bogus", "30")
	var parseErr *ParseError
	assert.True(t, errors.As(err, &parseErr))
}

func TestProject(t *testing.T) {
	line, err := geo.NewSectionLine([]geo.Point{{X: 0, Y: 0}, {X: 1000, Y: 0}})
	require.NoError(t, err)

	m := Measurement{
		ID:          "st-1",
		Location:    geo.Point{X: 400, Y: 25},
		Orientation: NewOrientation(0, 30),
	}

	p := Project(m, line, 210)
	assert.Equal(t, "st-1", p.ID)
	assert.InDelta(t, 400, p.Distance, 1e-9)
	assert.InDelta(t, 25, p.Offset, 1e-9)
	assert.Equal(t, 210.0, p.Elevation)
	assert.Equal(t, 30.0, p.ApparentDip)
	assert.Equal(t, 30.0, p.TrueDip)

	m.HasElevation = true
	m.Elevation = 199
	assert.Equal(t, 199.0, Project(m, line, 210).Elevation)
}
