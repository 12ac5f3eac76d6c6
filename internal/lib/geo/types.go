package geo

import (
	"errors"
	"fmt"

	"github.com/golang/geo/r2"
)

// ErrDegenerateLine is wrapped by every GeometryError
var ErrDegenerateLine = errors.New("degenerate section line")

// Point represents a planar coordinate in a projected CRS (metres)
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) vec() r2.Point {
	return r2.Point{X: p.X, Y: p.Y}
}

func fromVec(v r2.Point) Point {
	return Point{X: v.X, Y: v.Y}
}

// Projection is the position of a point relative to a section line
type Projection struct {
	Distance float64 `json:"distance"` // along the line from its first vertex
	Offset   float64 `json:"offset"`   // perpendicular, positive to the left
	Segment  int     `json:"segment"`
}

// Station is a point sampled along a section line
type Station struct {
	Distance float64 `json:"distance"`
	Point    Point   `json:"point"`
}

// SectionPoint is a vertex in the 2D profile plane
type SectionPoint struct {
	Distance  float64 `json:"distance"`
	Elevation float64 `json:"elevation"`
}

// GeometryError reports a section line that cannot be used for projection.
// It is fatal to the whole profile request.
type GeometryError struct {
	Reason string
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("geometry error: %s", e.Reason)
}

func (e *GeometryError) Unwrap() error {
	return ErrDegenerateLine
}
