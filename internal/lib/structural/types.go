package structural

import (
	"fmt"

	"github.com/secinterp/secinterp/internal/lib/geo"
)

// Orientation of a planar feature. Strike follows the right-hand rule, so
// DipDirection is always Strike + 90.
type Orientation struct {
	Strike       float64 `json:"strike"`
	Dip          float64 `json:"dip"`
	DipDirection float64 `json:"dip_direction"`
}

// NewOrientation builds a right-hand-rule orientation from numeric strike and dip
func NewOrientation(strike, dip float64) Orientation {
	strike = geo.NormalizeDegrees(strike)
	return Orientation{
		Strike:       strike,
		Dip:          normalizeDip(dip),
		DipDirection: geo.NormalizeDegrees(strike + 90),
	}
}

// FromDipDirection builds an orientation from dip direction and dip
func FromDipDirection(dipDirection, dip float64) Orientation {
	return NewOrientation(dipDirection-90, dip)
}

// Measurement is a structural point observation
type Measurement struct {
	ID           string      `json:"id"`
	Location     geo.Point   `json:"location"`
	Elevation    float64     `json:"elevation"`
	HasElevation bool        `json:"has_elevation"`
	Orientation  Orientation `json:"orientation"`
}

// ProjectedStructure is what survives of a measurement after projection
// onto a section
type ProjectedStructure struct {
	ID          string  `json:"id"`
	Distance    float64 `json:"distance"`
	Offset      float64 `json:"offset"`
	Elevation   float64 `json:"elevation"`
	ApparentDip float64 `json:"apparent_dip"` // signed, positive toward increasing distance
	TrueDip     float64 `json:"true_dip"`
}

// ParseError reports strike or dip notation that could not be understood.
// The containing measurement should be skipped.
type ParseError struct {
	Raw    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse orientation %q: %s", e.Raw, e.Reason)
}
