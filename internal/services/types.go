package services

import (
	"context"
	"time"

	"github.com/secinterp/secinterp/internal/lib/drillhole"
	"github.com/secinterp/secinterp/internal/lib/geo"
	"github.com/secinterp/secinterp/internal/lib/quality"
	"github.com/secinterp/secinterp/internal/lib/records"
	"github.com/secinterp/secinterp/internal/lib/selection"
	"github.com/secinterp/secinterp/internal/lib/structural"
)

// FeatureSource reads the features of a named layer
type FeatureSource interface {
	Features(ctx context.Context, layer string) ([]records.FeatureRecord, error)
}

// Layers names the input layers. Empty optional layers are not read.
type Layers struct {
	Collars    string
	Surveys    string
	Intervals  string
	Structures string
}

func (l Layers) names() []string {
	return []string{l.Collars, l.Surveys, l.Intervals, l.Structures}
}

// ProfileRequest describes one section to interpret
type ProfileRequest struct {
	Name               string
	Vertices           []geo.Point
	BufferWidth        float64
	SampleInterval     float64
	OnSectionTolerance float64
	Method             drillhole.Method
	Layers             Layers
	Fields             records.FieldMapping
	SkipCache          bool
}

// HoleProfile is a drillhole as drawn on the section
type HoleProfile struct {
	HoleID         string                        `json:"hole_id"`
	Collar         drillhole.Collar              `json:"collar"`
	Classification selection.Classification      `json:"classification"`
	Distance       float64                       `json:"distance"`
	Offset         float64                       `json:"offset"`
	Trajectory     []drillhole.TrajectoryPoint   `json:"trajectory"`
	Trace          []geo.SectionPoint            `json:"trace"`
	Intervals      []drillhole.ProjectedInterval `json:"intervals"`
}

// Profile is an interpreted cross-section
type Profile struct {
	ID          string                          `json:"id"`
	Name        string                          `json:"name"`
	Line        string                          `json:"line"` // encoded polyline
	Vertices    []geo.Point                     `json:"vertices"`
	Length      float64                         `json:"length"`
	Azimuth     float64                         `json:"azimuth"`
	BufferWidth float64                         `json:"buffer_width"`
	GeneratedAt time.Time                       `json:"generated_at"`
	Topography  []geo.SectionPoint              `json:"topography"`
	Holes       []HoleProfile                   `json:"holes"`
	Structures  []structural.ProjectedStructure `json:"structures"`
	Warnings    []quality.Warning               `json:"warnings"`
	Summary     []quality.CodeCount             `json:"summary"`
	Cached      bool                            `json:"-"`
}

// ElevationRange returns the lowest and highest elevation drawn on the profile
func (p *Profile) ElevationRange() (low, high float64, ok bool) {
	visit := func(pts []geo.SectionPoint) {
		for _, pt := range pts {
			if !ok {
				low, high, ok = pt.Elevation, pt.Elevation, true
				continue
			}
			if pt.Elevation < low {
				low = pt.Elevation
			}
			if pt.Elevation > high {
				high = pt.Elevation
			}
		}
	}

	visit(p.Topography)
	for _, h := range p.Holes {
		visit(h.Trace)
	}
	for _, s := range p.Structures {
		visit([]geo.SectionPoint{{Distance: s.Distance, Elevation: s.Elevation}})
	}
	return low, high, ok
}
