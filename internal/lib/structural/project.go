package structural

import (
	"github.com/secinterp/secinterp/internal/lib/geo"
)

// Project places a measurement on the section. The apparent dip uses the
// azimuth of the segment the measurement projects onto. elevation is used
// when the measurement carries none of its own.
func Project(m Measurement, line *geo.SectionLine, elevation float64) ProjectedStructure {
	proj := line.Project(m.Location)
	if m.HasElevation {
		elevation = m.Elevation
	}

	return ProjectedStructure{
		ID:          m.ID,
		Distance:    proj.Distance,
		Offset:      proj.Offset,
		Elevation:   elevation,
		ApparentDip: SignedApparentDip(m.Orientation, line.SegmentAzimuth(proj.Segment)),
		TrueDip:     m.Orientation.Dip,
	}
}
