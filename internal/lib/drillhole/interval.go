package drillhole

import (
	"math"
	"sort"

	"github.com/secinterp/secinterp/internal/lib/geo"
	"github.com/secinterp/secinterp/internal/lib/quality"
)

// InterpolateAt returns the trajectory position at depth, linear between the
// bracketing points and clamped to the first and last points. A depth that
// matches a trajectory point returns that point unchanged.
func InterpolateAt(trajectory []TrajectoryPoint, depth float64) TrajectoryPoint {
	if len(trajectory) == 0 {
		return TrajectoryPoint{}
	}
	if depth <= trajectory[0].Depth {
		return trajectory[0]
	}
	last := trajectory[len(trajectory)-1]
	if depth >= last.Depth {
		return last
	}

	i := sort.Search(len(trajectory), func(i int) bool { return trajectory[i].Depth >= depth })
	if trajectory[i].Depth == depth {
		return trajectory[i]
	}

	a, b := trajectory[i-1], trajectory[i]
	t := (depth - a.Depth) / (b.Depth - a.Depth)
	v := a.vector().Add(b.vector().Sub(a.vector()).Mul(t))
	return pointAt(depth, v)
}

// ProjectTrajectory draws the hole trace in section coordinates
func ProjectTrajectory(trajectory []TrajectoryPoint, line *geo.SectionLine) []geo.SectionPoint {
	points := make([]geo.SectionPoint, len(trajectory))
	for i, p := range trajectory {
		points[i] = toSection(p, line)
	}
	return points
}

// ProjectIntervals maps depth intervals onto the trajectory and projects them
// onto the section. Each valid interval yields one polyline made of its two
// boundary points and every trajectory point strictly between them.
// Inverted or empty intervals are skipped; overlaps are reported and kept
// in input order.
func ProjectIntervals(trajectory []TrajectoryPoint, intervals []Interval, line *geo.SectionLine) ([]ProjectedInterval, []quality.Warning) {
	var warnings []quality.Warning
	if len(intervals) == 0 {
		return nil, nil
	}
	if len(trajectory) == 0 {
		return nil, []quality.Warning{quality.New(intervals[0].HoleID, quality.MissingGeometry,
			"%d intervals skipped, hole has no trajectory", len(intervals))}
	}

	warnings = append(warnings, findOverlaps(intervals)...)

	maxDepth := trajectory[len(trajectory)-1].Depth
	projected := make([]ProjectedInterval, 0, len(intervals))

	for _, iv := range intervals {
		if math.IsNaN(iv.From) || math.IsNaN(iv.To) || iv.From >= iv.To {
			warnings = append(warnings, quality.New(iv.HoleID, quality.InvalidInterval,
				"skipped %q: from %.2f is not above to %.2f", iv.Label, iv.From, iv.To))
			continue
		}
		if iv.From >= maxDepth {
			warnings = append(warnings, quality.New(iv.HoleID, quality.IntervalBeyondTrajectory,
				"skipped %q: starts at %.2f, trajectory ends at %.2f", iv.Label, iv.From, maxDepth))
			continue
		}

		from, to := iv.From, iv.To
		if to <= 0 {
			warnings = append(warnings, quality.New(iv.HoleID, quality.InvalidInterval,
				"skipped %q: %.2f to %.2f lies above the collar", iv.Label, from, to))
			continue
		}
		if from < 0 {
			warnings = append(warnings, quality.New(iv.HoleID, quality.InvalidInterval,
				"%q starts above the collar at %.2f, clamped to 0", iv.Label, from))
			from = 0
		}
		if to > maxDepth {
			warnings = append(warnings, quality.New(iv.HoleID, quality.IntervalBeyondTrajectory,
				"%q clamped from %.2f to trajectory end %.2f", iv.Label, to, maxDepth))
			to = maxDepth
		}

		points := []geo.SectionPoint{toSection(InterpolateAt(trajectory, from), line)}
		for _, p := range trajectory {
			if p.Depth > from && p.Depth < to {
				points = append(points, toSection(p, line))
			}
		}
		points = append(points, toSection(InterpolateAt(trajectory, to), line))

		projected = append(projected, ProjectedInterval{
			HoleID: iv.HoleID,
			Label:  iv.Label,
			From:   from,
			To:     to,
			Points: points,
		})
	}

	return projected, warnings
}

// MaxDepth returns the deepest valid interval bottom
func MaxDepth(intervals []Interval) float64 {
	max := 0.0
	for _, iv := range intervals {
		if iv.To > iv.From && iv.To > max {
			max = iv.To
		}
	}
	return max
}

// findOverlaps reports intervals that start above the bottom of an earlier one
func findOverlaps(intervals []Interval) []quality.Warning {
	sorted := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if iv.From < iv.To {
			sorted = append(sorted, iv)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].From < sorted[j].From })

	var warnings []quality.Warning
	for i := 1; i < len(sorted); i++ {
		// prev is the interval reaching deepest so far
		prev, cur := sorted[i-1], sorted[i]
		if cur.From < prev.To {
			warnings = append(warnings, quality.New(cur.HoleID, quality.OverlappingIntervals,
				"%q (%.2f-%.2f) overlaps %q (%.2f-%.2f)", cur.Label, cur.From, cur.To, prev.Label, prev.From, prev.To))
		}
		if cur.To < prev.To {
			sorted[i] = prev
		}
	}
	return warnings
}

func toSection(p TrajectoryPoint, line *geo.SectionLine) geo.SectionPoint {
	proj := line.Project(geo.Point{X: p.X, Y: p.Y})
	return geo.SectionPoint{Distance: proj.Distance, Elevation: p.Z}
}
