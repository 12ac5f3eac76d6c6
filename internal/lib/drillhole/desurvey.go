package drillhole

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"

	"github.com/secinterp/secinterp/internal/lib/geo"
	"github.com/secinterp/secinterp/internal/lib/quality"
)

// Desurvey converts survey stations into an absolute trajectory starting at
// the collar. The hole is extended in a straight line past the deepest
// station to the reconciled final depth:
//
//	max(TotalDepth if > 0, deepest station, MaxIntervalDepth)
//
// Without stations the hole is vertical. Messy stations are normalised and
// reported as warnings rather than rejected.
func Desurvey(collar r3.Vector, stations []SurveyStation, opts DesurveyOptions) ([]TrajectoryPoint, []quality.Warning) {
	clean, warnings := normalizeStations(opts.HoleID, stations)

	maxSurvey := 0.0
	if len(clean) > 0 {
		maxSurvey = clean[len(clean)-1].Depth
	}
	final := math.Max(maxSurvey, opts.MaxIntervalDepth)
	if opts.TotalDepth > 0 {
		final = math.Max(final, opts.TotalDepth)
	}
	if math.IsNaN(final) || math.IsInf(final, 0) {
		final = maxSurvey
	}

	trajectory := []TrajectoryPoint{pointAt(0, collar)}

	if len(clean) == 0 {
		if final <= 0 {
			warnings = append(warnings, quality.New(opts.HoleID, quality.MissingGeometry,
				"no surveys, total depth or intervals; trajectory is the collar only"))
			return trajectory, warnings
		}
		bottom := collar.Add(r3.Vector{Z: -final})
		return append(trajectory, pointAt(final, bottom)), warnings
	}

	step := averageAngleStep
	if opts.Method == MethodMinimumCurvature {
		step = minimumCurvatureStep
	}

	// The leg above the first station uses the first station's angles
	prev := SurveyStation{Azimuth: clean[0].Azimuth, Inclination: clean[0].Inclination}
	position := collar
	for _, st := range clean {
		length := st.Depth - prev.Depth
		if length > 0 {
			position = position.Add(step(length, prev, st))
			trajectory = append(trajectory, pointAt(st.Depth, position))
		}
		prev = st
	}

	if final > maxSurvey {
		position = position.Add(step(final-maxSurvey, prev, prev))
		trajectory = append(trajectory, pointAt(final, position))
	}

	return trajectory, warnings
}

// averageAngleStep displaces along the mean azimuth and inclination. The
// azimuth mean is circular, so 350 and 10 average to 0 rather than 180.
func averageAngleStep(length float64, from, to SurveyStation) r3.Vector {
	az := circularMean(from.Azimuth, to.Azimuth)
	inc := (from.Inclination + to.Inclination) / 2

	horizontal := length * cosDeg(inc)
	return r3.Vector{
		X: horizontal * sinDeg(az),
		Y: horizontal * cosDeg(az),
		Z: length * sinDeg(inc),
	}
}

// minimumCurvatureStep fits a circular arc between the two station
// directions and returns its chord
func minimumCurvatureStep(length float64, from, to SurveyStation) r3.Vector {
	d1 := direction(from)
	d2 := direction(to)

	cos := math.Max(-1, math.Min(1, d1.Dot(d2)))
	dogleg := math.Acos(cos)
	ratio := 1.0
	if dogleg > 1e-9 {
		ratio = 2 / dogleg * math.Tan(dogleg/2)
	}
	return d1.Add(d2).Mul(length / 2 * ratio)
}

// direction is the unit tangent of a station
func direction(st SurveyStation) r3.Vector {
	horizontal := cosDeg(st.Inclination)
	return r3.Vector{
		X: horizontal * sinDeg(st.Azimuth),
		Y: horizontal * cosDeg(st.Azimuth),
		Z: sinDeg(st.Inclination),
	}
}

// normalizeStations sorts by depth, wraps azimuths, clamps inclinations and
// drops stations that cannot be used
func normalizeStations(holeID string, stations []SurveyStation) ([]SurveyStation, []quality.Warning) {
	var warnings []quality.Warning
	clean := make([]SurveyStation, 0, len(stations))

	for _, st := range stations {
		if math.IsNaN(st.Depth) || math.IsInf(st.Depth, 0) || st.Depth < 0 {
			warnings = append(warnings, quality.New(holeID, quality.InvalidStation,
				"dropped station with depth %v", st.Depth))
			continue
		}
		if math.IsNaN(st.Azimuth) || math.IsNaN(st.Inclination) || math.IsInf(st.Azimuth, 0) || math.IsInf(st.Inclination, 0) {
			warnings = append(warnings, quality.New(holeID, quality.InvalidStation,
				"dropped station at %.2f with non-finite angles", st.Depth))
			continue
		}

		if st.Azimuth < 0 || st.Azimuth >= 360 {
			wrapped := geo.NormalizeDegrees(st.Azimuth)
			warnings = append(warnings, quality.New(holeID, quality.AngleOutOfRange,
				"azimuth %.2f at %.2f wrapped to %.2f", st.Azimuth, st.Depth, wrapped))
			st.Azimuth = wrapped
		}
		if st.Inclination < -90 || st.Inclination > 90 {
			clamped := math.Max(-90, math.Min(90, st.Inclination))
			warnings = append(warnings, quality.New(holeID, quality.AngleOutOfRange,
				"inclination %.2f at %.2f clamped to %.0f", st.Inclination, st.Depth, clamped))
			st.Inclination = clamped
		}
		clean = append(clean, st)
	}

	if !sort.SliceIsSorted(clean, func(i, j int) bool { return clean[i].Depth < clean[j].Depth }) {
		warnings = append(warnings, quality.New(holeID, quality.UnsortedStations, "survey stations sorted by depth"))
		sort.SliceStable(clean, func(i, j int) bool { return clean[i].Depth < clean[j].Depth })
	}

	// Keep the first station at each depth
	deduped := clean[:0]
	for i, st := range clean {
		if i > 0 && st.Depth == deduped[len(deduped)-1].Depth {
			warnings = append(warnings, quality.New(holeID, quality.DuplicateStation,
				"ignored duplicate station at %.2f", st.Depth))
			continue
		}
		deduped = append(deduped, st)
	}

	return deduped, warnings
}

// circularMean averages two azimuths across the 0/360 seam
func circularMean(a, b float64) float64 {
	diff := b - a
	if diff > 180 {
		diff -= 360
	} else if diff < -180 {
		diff += 360
	}
	return geo.NormalizeDegrees(a + diff/2)
}

// sinDeg and cosDeg are exact at multiples of 90 degrees so vertical and
// cardinal holes carry no rounding drift
func sinDeg(deg float64) float64 {
	switch geo.NormalizeDegrees(deg) {
	case 0, 180:
		return 0
	case 90:
		return 1
	case 270:
		return -1
	}
	return math.Sin(deg * math.Pi / 180)
}

func cosDeg(deg float64) float64 {
	switch geo.NormalizeDegrees(deg) {
	case 90, 270:
		return 0
	case 0:
		return 1
	case 180:
		return -1
	}
	return math.Cos(deg * math.Pi / 180)
}
