package geo

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/twpayne/go-polyline"
)

// lineCodec encodes projected coordinates with centimetre precision
var lineCodec = polyline.Codec{Dim: 2, Scale: 1e2}

// SectionLine is an immutable polyline used as the trace of a cross-section
type SectionLine struct {
	vertices   []Point
	cumulative []float64 // arc length at each vertex
}

// NewSectionLine validates vertices and builds a section line.
// At least two vertices are required and no segment may have zero length.
func NewSectionLine(vertices []Point) (*SectionLine, error) {
	if len(vertices) < 2 {
		return nil, &GeometryError{Reason: fmt.Sprintf("section line needs at least 2 vertices, got %d", len(vertices))}
	}

	pts := make([]Point, len(vertices))
	copy(pts, vertices)

	cumulative := make([]float64, len(pts))
	for i, p := range pts {
		if !isFinite(p.X) || !isFinite(p.Y) {
			return nil, &GeometryError{Reason: fmt.Sprintf("vertex %d has non-finite coordinates", i)}
		}
		if i == 0 {
			continue
		}
		length := p.vec().Sub(pts[i-1].vec()).Norm()
		if length == 0 {
			return nil, &GeometryError{Reason: fmt.Sprintf("segment %d has zero length", i-1)}
		}
		cumulative[i] = cumulative[i-1] + length
	}

	return &SectionLine{vertices: pts, cumulative: cumulative}, nil
}

// Vertices returns a copy of the line's vertices
func (l *SectionLine) Vertices() []Point {
	out := make([]Point, len(l.vertices))
	copy(out, l.vertices)
	return out
}

// Length returns the total length of the line
func (l *SectionLine) Length() float64 {
	return l.cumulative[len(l.cumulative)-1]
}

// SegmentCount returns the number of segments
func (l *SectionLine) SegmentCount() int {
	return len(l.vertices) - 1
}

// Project returns the distance along the line and the signed perpendicular
// offset of p. A single-segment line uses an unclamped vector projection.
// A multi-segment line picks the segment with the smallest absolute offset,
// clamping the foot point to the segment.
func (l *SectionLine) Project(p Point) Projection {
	if l.SegmentCount() == 1 {
		along, offset := l.projectSegment(0, p, false)
		return Projection{Distance: along, Offset: offset, Segment: 0}
	}

	best := Projection{Offset: math.Inf(1)}
	for i := 0; i < l.SegmentCount(); i++ {
		along, offset := l.projectSegment(i, p, true)
		if math.Abs(offset) < math.Abs(best.Offset) {
			best = Projection{Distance: l.cumulative[i] + along, Offset: offset, Segment: i}
		}
	}
	return best
}

// projectSegment projects p onto segment i, returning the local distance
// from the segment start and the signed offset
func (l *SectionLine) projectSegment(i int, p Point, clamp bool) (float64, float64) {
	a := l.vertices[i].vec()
	s := l.vertices[i+1].vec().Sub(a)
	v := p.vec().Sub(a)
	length := l.segmentLength(i)

	along := v.Dot(s) / length
	offset := s.Cross(v) / length
	if !clamp || (along >= 0 && along <= length) {
		return along, offset
	}

	// Beyond the segment ends the nearest endpoint is the reference
	along = math.Max(0, math.Min(along, length))
	foot := a.Add(s.Mul(along / length))
	dist := p.vec().Sub(foot).Norm()
	if offset < 0 {
		dist = -dist
	}
	return along, dist
}

// Reconstruct rebuilds a point from a projection in the local frame of the
// projection's segment
func (l *SectionLine) Reconstruct(proj Projection) Point {
	i := proj.Segment
	if i < 0 || i >= l.SegmentCount() {
		i = l.segmentAt(proj.Distance)
	}
	a := l.vertices[i].vec()
	dir := l.vertices[i+1].vec().Sub(a).Normalize()
	local := proj.Distance - l.cumulative[i]
	return fromVec(a.Add(dir.Mul(local)).Add(dir.Ortho().Mul(proj.Offset)))
}

// segmentAt returns the index of the segment containing distance
func (l *SectionLine) segmentAt(distance float64) int {
	i := sort.SearchFloat64s(l.cumulative, distance)
	// SearchFloat64s returns the first vertex at or after distance
	if i > 0 {
		i--
	}
	if i >= l.SegmentCount() {
		i = l.SegmentCount() - 1
	}
	return i
}

func (l *SectionLine) segmentLength(i int) float64 {
	return l.cumulative[i+1] - l.cumulative[i]
}

// SegmentAzimuth returns the bearing of segment i in degrees clockwise from north
func (l *SectionLine) SegmentAzimuth(i int) float64 {
	if i < 0 {
		i = 0
	}
	if i >= l.SegmentCount() {
		i = l.SegmentCount() - 1
	}
	return Azimuth(l.vertices[i], l.vertices[i+1])
}

// Azimuth returns the bearing from the first to the last vertex
func (l *SectionLine) Azimuth() float64 {
	return Azimuth(l.vertices[0], l.vertices[len(l.vertices)-1])
}

// Densify returns stations every step metres along the line. Every vertex
// and the end of the line are always included.
func (l *SectionLine) Densify(step float64) []Station {
	if step <= 0 || !isFinite(step) {
		step = l.Length()
	}

	stations := []Station{{Distance: 0, Point: l.vertices[0]}}
	for i := 0; i < l.SegmentCount(); i++ {
		start := l.cumulative[i]
		end := l.cumulative[i+1]
		for d := math.Floor(start/step)*step + step; d < end; d += step {
			if d <= start {
				continue
			}
			stations = append(stations, Station{Distance: d, Point: l.Reconstruct(Projection{Distance: d, Segment: i})})
		}
		stations = append(stations, Station{Distance: end, Point: l.vertices[i+1]})
	}
	return stations
}

// Encode returns the line as an encoded polyline with centimetre precision
func (l *SectionLine) Encode() string {
	coords := make([][]float64, len(l.vertices))
	for i, p := range l.vertices {
		coords[i] = []float64{p.X, p.Y}
	}
	return string(lineCodec.EncodeCoords(nil, coords))
}

// DecodeSectionLine parses an encoded polyline produced by Encode
func DecodeSectionLine(encoded string) (*SectionLine, error) {
	if encoded == "" {
		return nil, errors.New("encoded section line is empty")
	}

	coords, rest, err := lineCodec.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to decode section line: %w", err)
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("failed to decode section line: %d trailing bytes", len(rest))
	}

	points := make([]Point, len(coords))
	for i, c := range coords {
		points[i] = Point{X: c[0], Y: c[1]}
	}
	return NewSectionLine(points)
}

// Azimuth returns the bearing from a to b in degrees clockwise from north, in [0, 360)
func Azimuth(a, b Point) float64 {
	deg := math.Atan2(b.X-a.X, b.Y-a.Y) * 180 / math.Pi
	return NormalizeDegrees(deg)
}

// NormalizeDegrees wraps an angle into [0, 360)
func NormalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg == 360 {
		deg = 0
	}
	return deg
}

// Distance returns the planar distance between two points
func Distance(a, b Point) float64 {
	return b.vec().Sub(a.vec()).Norm()
}

// BoundingBox returns the lower-left and upper-right corners of points
func BoundingBox(points []Point) (Point, Point) {
	if len(points) == 0 {
		return Point{}, Point{}
	}

	min, max := points[0], points[0]
	for _, p := range points[1:] {
		min.X = math.Min(min.X, p.X)
		min.Y = math.Min(min.Y, p.Y)
		max.X = math.Max(max.X, p.X)
		max.Y = math.Max(max.Y, p.Y)
	}
	return min, max
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
