package structural

import (
	"math"

	"github.com/secinterp/secinterp/internal/lib/geo"
)

// ApparentDip returns the dip of a plane as seen on a vertical section with
// the given azimuth. All angles are in degrees. The result is in [0, 90].
//
// A section parallel to strike shows the plane as horizontal, a section
// perpendicular to strike shows the true dip.
func ApparentDip(strike, dip, sectionAzimuth float64) float64 {
	dip = normalizeDip(dip)
	factor := strikeFactor(strike, sectionAzimuth)

	switch {
	case factor == 0 || dip == 0:
		return 0
	case factor == 1 || dip == 90:
		return dip
	}

	return math.Atan(math.Tan(dip*math.Pi/180)*factor) * 180 / math.Pi
}

// SignedApparentDip returns the apparent dip with a sign: positive when the
// plane dips toward increasing distance along the section.
func SignedApparentDip(o Orientation, sectionAzimuth float64) float64 {
	apparent := ApparentDip(o.Strike, o.Dip, sectionAzimuth)
	if math.Cos(deltaRadians(o.DipDirection, sectionAzimuth)) < 0 {
		return -apparent
	}
	return apparent
}

// strikeFactor is |sin(strike - azimuth)|, exact at the cardinal angles
func strikeFactor(strike, azimuth float64) float64 {
	delta := math.Mod(geo.NormalizeDegrees(strike-azimuth), 180)
	switch delta {
	case 0:
		return 0
	case 90:
		return 1
	}
	return math.Abs(math.Sin(delta * math.Pi / 180))
}

func deltaRadians(a, b float64) float64 {
	return geo.NormalizeDegrees(a-b) * math.Pi / 180
}

// normalizeDip folds any real dip into [0, 90]
func normalizeDip(dip float64) float64 {
	if math.IsNaN(dip) {
		return 0
	}
	dip = math.Abs(dip)
	if dip > 90 {
		dip = math.Mod(dip, 180)
		if dip > 90 {
			dip = 180 - dip
		}
	}
	return dip
}
