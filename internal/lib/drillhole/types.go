package drillhole

import (
	"github.com/golang/geo/r3"

	"github.com/secinterp/secinterp/internal/lib/geo"
)

// Method selects the desurveying algorithm
type Method string

const (
	MethodAverageAngle     Method = "average_angle"
	MethodMinimumCurvature Method = "minimum_curvature"
)

// Collar is the surface entry point of a hole
type Collar struct {
	HoleID     string  `json:"hole_id"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	HasZ       bool    `json:"has_z"`
	TotalDepth float64 `json:"total_depth"` // <= 0 when unknown
}

// Location returns the collar's plan position
func (c Collar) Location() geo.Point {
	return geo.Point{X: c.X, Y: c.Y}
}

// Vector returns the collar as a 3D vector
func (c Collar) Vector() r3.Vector {
	return r3.Vector{X: c.X, Y: c.Y, Z: c.Z}
}

// SurveyStation is a downhole orientation reading. Azimuth is clockwise from
// north, inclination is measured from horizontal and negative downward.
type SurveyStation struct {
	Depth       float64 `json:"depth"`
	Azimuth     float64 `json:"azimuth"`
	Inclination float64 `json:"inclination"`
}

// TrajectoryPoint is an absolute position along a hole
type TrajectoryPoint struct {
	Depth float64 `json:"depth"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
}

func (p TrajectoryPoint) vector() r3.Vector {
	return r3.Vector{X: p.X, Y: p.Y, Z: p.Z}
}

func pointAt(depth float64, v r3.Vector) TrajectoryPoint {
	return TrajectoryPoint{Depth: depth, X: v.X, Y: v.Y, Z: v.Z}
}

// Interval is a depth range of a hole logged as one geological unit
type Interval struct {
	HoleID string  `json:"hole_id"`
	From   float64 `json:"from"`
	To     float64 `json:"to"`
	Label  string  `json:"label"`
}

// ProjectedInterval is an interval drawn in section coordinates
type ProjectedInterval struct {
	HoleID string             `json:"hole_id"`
	Label  string             `json:"label"`
	From   float64            `json:"from"`
	To     float64            `json:"to"`
	Points []geo.SectionPoint `json:"points"`
}

// DesurveyOptions control final depth reconciliation and the algorithm
type DesurveyOptions struct {
	HoleID           string
	TotalDepth       float64 // <= 0 when unknown
	MaxIntervalDepth float64
	Method           Method
}
