package selection

import (
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"

	"github.com/secinterp/secinterp/internal/lib/geo"
)

const (
	// siteTolerance is the half-size of a site's box in the index
	siteTolerance = 1e-6
	// DefaultOnSectionTolerance is the offset in metres below which a site
	// counts as lying on the section
	DefaultOnSectionTolerance = 1.0
)

type indexedSite struct {
	Site
	rect rtreego.Rect
}

func (s *indexedSite) Bounds() rtreego.Rect {
	return s.rect
}

// Selector finds the sites inside a section's buffer. An R-tree narrows the
// candidates to each segment's grown bounding box; the exact offset from the
// line projector decides inclusion.
type Selector struct {
	tree               *rtreego.Rtree
	onSectionTolerance float64
}

// NewSelector indexes sites. Sites with non-finite coordinates are ignored.
func NewSelector(sites []Site, onSectionTolerance float64) *Selector {
	if onSectionTolerance < 0 {
		onSectionTolerance = DefaultOnSectionTolerance
	}

	tree := rtreego.NewTree(2, 25, 50)
	for _, site := range sites {
		if math.IsNaN(site.Location.X) || math.IsNaN(site.Location.Y) ||
			math.IsInf(site.Location.X, 0) || math.IsInf(site.Location.Y, 0) {
			continue
		}
		tree.Insert(&indexedSite{
			Site: site,
			rect: rtreego.Point{site.Location.X, site.Location.Y}.ToRect(siteTolerance),
		})
	}

	return &Selector{tree: tree, onSectionTolerance: onSectionTolerance}
}

// Size returns the number of indexed sites
func (s *Selector) Size() int {
	return s.tree.Size()
}

// Select returns the sites within bufferWidth of the line, ordered by
// distance along the section
func (s *Selector) Select(line *geo.SectionLine, bufferWidth float64) []Candidate {
	bufferWidth = math.Abs(bufferWidth)
	seen := make(map[*indexedSite]bool)
	var selected []Candidate

	vertices := line.Vertices()
	for i := 0; i < len(vertices)-1; i++ {
		min, max := geo.BoundingBox(vertices[i : i+2])
		grow := bufferWidth + siteTolerance
		rect, err := rtreego.NewRectFromPoints(
			rtreego.Point{min.X - grow, min.Y - grow},
			rtreego.Point{max.X + grow, max.Y + grow},
		)
		if err != nil {
			continue
		}

		for _, hit := range s.tree.SearchIntersect(rect) {
			site := hit.(*indexedSite)
			if seen[site] {
				continue
			}
			seen[site] = true

			candidate := s.Classify(line, site.Site, bufferWidth)
			if candidate.Classification != Outside {
				selected = append(selected, candidate)
			}
		}
	}

	sort.SliceStable(selected, func(i, j int) bool {
		if selected[i].Projection.Distance != selected[j].Projection.Distance {
			return selected[i].Projection.Distance < selected[j].Projection.Distance
		}
		return selected[i].ID < selected[j].ID
	})
	return selected
}

// Classify projects a single site and classifies it against the buffer
func (s *Selector) Classify(line *geo.SectionLine, site Site, bufferWidth float64) Candidate {
	proj := line.Project(site.Location)
	candidate := Candidate{Site: site, Projection: proj, Classification: Outside}

	offset := math.Abs(proj.Offset)
	// Single-segment projections are not clamped, so guard the line ends
	inRange := proj.Distance >= -bufferWidth && proj.Distance <= line.Length()+bufferWidth
	switch {
	case !inRange:
	case offset <= bufferWidth && offset <= s.onSectionTolerance:
		candidate.Classification = OnSection
	case offset <= bufferWidth:
		candidate.Classification = Within
	}
	return candidate
}

// IDs returns the ids of candidates in order
func IDs(candidates []Candidate) []string {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	return ids
}
