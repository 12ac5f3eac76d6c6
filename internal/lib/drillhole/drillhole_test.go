package drillhole

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secinterp/secinterp/internal/lib/geo"
	"github.com/secinterp/secinterp/internal/lib/quality"
)

func codes(warnings []quality.Warning) []quality.Code {
	out := make([]quality.Code, len(warnings))
	for i, w := range warnings {
		out[i] = w.Code
	}
	return out
}

func TestDesurvey_NoStationsVertical(t *testing.T) {
	traj, warnings := Desurvey(r3.Vector{X: 0, Y: 0, Z: 100}, nil, DesurveyOptions{TotalDepth: 50})
	assert.Empty(t, warnings)
	assert.Equal(t, []TrajectoryPoint{
		{Depth: 0, X: 0, Y: 0, Z: 100},
		{Depth: 50, X: 0, Y: 0, Z: 50},
	}, traj)
}

func TestDesurvey_NoStationsUsesIntervalDepth(t *testing.T) {
	traj, _ := Desurvey(r3.Vector{X: 5, Y: 6, Z: 10}, nil, DesurveyOptions{MaxIntervalDepth: 30})
	require.Len(t, traj, 2)
	assert.Equal(t, TrajectoryPoint{Depth: 30, X: 5, Y: 6, Z: -20}, traj[1])
}

func TestDesurvey_NoGeometryIsCollarOnly(t *testing.T) {
	traj, warnings := Desurvey(r3.Vector{X: 1, Y: 2, Z: 3}, nil, DesurveyOptions{HoleID: "DH-9"})
	assert.Equal(t, []TrajectoryPoint{{Depth: 0, X: 1, Y: 2, Z: 3}}, traj)
	require.Len(t, warnings, 1)
	assert.Equal(t, quality.MissingGeometry, warnings[0].Code)
	assert.Equal(t, "DH-9", warnings[0].Subject)
}

func TestDesurvey_StraightDown(t *testing.T) {
	collar := r3.Vector{X: 1000, Y: 2000, Z: 300}
	stations := []SurveyStation{
		{Depth: 0, Azimuth: 0, Inclination: -90},
		{Depth: 100, Azimuth: 0, Inclination: -90},
	}

	traj, warnings := Desurvey(collar, stations, DesurveyOptions{})
	assert.Empty(t, warnings)
	require.Len(t, traj, 2)
	assert.Equal(t, TrajectoryPoint{Depth: 0, X: 1000, Y: 2000, Z: 300}, traj[0])
	assert.Equal(t, TrajectoryPoint{Depth: 100, X: 1000, Y: 2000, Z: 200}, traj[1])
}

func TestDesurvey_InclinedAverageAngle(t *testing.T) {
	stations := []SurveyStation{
		{Depth: 0, Azimuth: 90, Inclination: -45},
		{Depth: 100, Azimuth: 90, Inclination: -45},
	}

	traj, _ := Desurvey(r3.Vector{}, stations, DesurveyOptions{})
	require.Len(t, traj, 2)
	leg := 100 / math.Sqrt2
	assert.InDelta(t, leg, traj[1].X, 1e-9)
	assert.InDelta(t, 0, traj[1].Y, 1e-9)
	assert.InDelta(t, -leg, traj[1].Z, 1e-9)
}

func TestDesurvey_FinalDepthReconciliation(t *testing.T) {
	stations := []SurveyStation{
		{Depth: 0, Azimuth: 0, Inclination: -90},
		{Depth: 50, Azimuth: 0, Inclination: -90},
	}

	// Total depth beyond the last station extends the hole
	traj, _ := Desurvey(r3.Vector{Z: 100}, stations, DesurveyOptions{TotalDepth: 80})
	require.Len(t, traj, 3)
	assert.Equal(t, TrajectoryPoint{Depth: 80, Z: 20}, traj[2])

	// Deeper intervals win over the recorded total depth
	traj, _ = Desurvey(r3.Vector{Z: 100}, stations, DesurveyOptions{TotalDepth: 80, MaxIntervalDepth: 120})
	assert.Equal(t, 120.0, traj[len(traj)-1].Depth)
	assert.Equal(t, -20.0, traj[len(traj)-1].Z)

	// A total depth shallower than the surveys is ignored
	traj, _ = Desurvey(r3.Vector{Z: 100}, stations, DesurveyOptions{TotalDepth: 10})
	assert.Equal(t, 50.0, traj[len(traj)-1].Depth)
}

func TestDesurvey_TailKeepsLastAngles(t *testing.T) {
	stations := []SurveyStation{
		{Depth: 0, Azimuth: 0, Inclination: -90},
		{Depth: 10, Azimuth: 0, Inclination: -90},
		{Depth: 20, Azimuth: 0, Inclination: 0},
	}

	traj, _ := Desurvey(r3.Vector{}, stations, DesurveyOptions{TotalDepth: 30})
	require.Len(t, traj, 4)
	tail := traj[3]
	prev := traj[2]
	// Horizontal northward tail
	assert.InDelta(t, 10, tail.Y-prev.Y, 1e-9)
	assert.InDelta(t, 0, tail.Z-prev.Z, 1e-9)
}

func TestDesurvey_FirstStationBelowCollar(t *testing.T) {
	stations := []SurveyStation{
		{Depth: 20, Azimuth: 0, Inclination: -90},
		{Depth: 40, Azimuth: 0, Inclination: -90},
	}

	traj, _ := Desurvey(r3.Vector{Z: 50}, stations, DesurveyOptions{})
	assert.Equal(t, []TrajectoryPoint{
		{Depth: 0, Z: 50},
		{Depth: 20, Z: 30},
		{Depth: 40, Z: 10},
	}, traj)
}

func TestDesurvey_MessyStations(t *testing.T) {
	sorted := []SurveyStation{
		{Depth: 0, Azimuth: 45, Inclination: -60},
		{Depth: 30, Azimuth: 50, Inclination: -62},
		{Depth: 60, Azimuth: 55, Inclination: -65},
	}
	shuffled := []SurveyStation{sorted[2], sorted[0], sorted[1]}

	expected, warnings := Desurvey(r3.Vector{}, sorted, DesurveyOptions{})
	assert.Empty(t, warnings)

	traj, warnings := Desurvey(r3.Vector{}, shuffled, DesurveyOptions{HoleID: "DH-2"})
	assert.Equal(t, expected, traj)
	assert.Equal(t, []quality.Code{quality.UnsortedStations}, codes(warnings))

	// Out-of-range angles are wrapped and clamped, bad depths dropped
	messy := []SurveyStation{
		{Depth: 0, Azimuth: 405, Inclination: -60},
		{Depth: -5, Azimuth: 10, Inclination: -60},
		{Depth: 30, Azimuth: 50, Inclination: -62},
		{Depth: 30, Azimuth: 80, Inclination: -10},
		{Depth: 60, Azimuth: 55, Inclination: -95},
	}
	traj, warnings = Desurvey(r3.Vector{}, messy, DesurveyOptions{})
	require.Len(t, traj, 3)
	assert.ElementsMatch(t, []quality.Code{
		quality.AngleOutOfRange,
		quality.InvalidStation,
		quality.AngleOutOfRange,
		quality.DuplicateStation,
	}, codes(warnings))
	for i := 1; i < len(traj); i++ {
		assert.Greater(t, traj[i].Depth, traj[i-1].Depth)
	}
}

func TestDesurvey_MinimumCurvature(t *testing.T) {
	straight := []SurveyStation{
		{Depth: 0, Azimuth: 120, Inclination: -70},
		{Depth: 100, Azimuth: 120, Inclination: -70},
	}
	avg, _ := Desurvey(r3.Vector{}, straight, DesurveyOptions{})
	mc, _ := Desurvey(r3.Vector{}, straight, DesurveyOptions{Method: MethodMinimumCurvature})
	require.Len(t, mc, 2)
	assert.InDelta(t, avg[1].X, mc[1].X, 1e-9)
	assert.InDelta(t, avg[1].Y, mc[1].Y, 1e-9)
	assert.InDelta(t, avg[1].Z, mc[1].Z, 1e-9)

	// Flattening by 20 degrees in a vertical plane
	curved := []SurveyStation{
		{Depth: 0, Azimuth: 0, Inclination: -80},
		{Depth: 100, Azimuth: 0, Inclination: -60},
	}
	avg, _ = Desurvey(r3.Vector{}, curved, DesurveyOptions{})
	mc, _ = Desurvey(r3.Vector{}, curved, DesurveyOptions{Method: MethodMinimumCurvature})
	chord := mc[1].vector().Norm()
	assert.Less(t, chord, 100.0, "an arc's chord is shorter than the arc")
	assert.InDelta(t, 0, mc[1].X, 1e-9)
	assert.InDelta(t, avg[1].Y, mc[1].Y, 1.0)
	assert.InDelta(t, avg[1].Z, mc[1].Z, 1.0)
}

func TestDesurvey_Idempotent(t *testing.T) {
	stations := []SurveyStation{
		{Depth: 0, Azimuth: 10, Inclination: -55},
		{Depth: 35.5, Azimuth: 17, Inclination: -58},
		{Depth: 71, Azimuth: 22, Inclination: -61},
	}
	opts := DesurveyOptions{TotalDepth: 90, Method: MethodAverageAngle}
	a, _ := Desurvey(r3.Vector{X: 1, Y: 2, Z: 3}, stations, opts)
	b, _ := Desurvey(r3.Vector{X: 1, Y: 2, Z: 3}, stations, opts)
	assert.Equal(t, a, b)
}

func TestCircularMean(t *testing.T) {
	assert.InDelta(t, 0, circularMean(350, 10), 1e-12)
	assert.InDelta(t, 0, circularMean(10, 350), 1e-12)
	assert.InDelta(t, 30, circularMean(20, 40), 1e-12)
	assert.InDelta(t, 185, circularMean(170, 200), 1e-12)
}

// Interval interpolation

func eastLine(t *testing.T) *geo.SectionLine {
	t.Helper()
	line, err := geo.NewSectionLine([]geo.Point{{X: 0, Y: 0}, {X: 1000, Y: 0}})
	require.NoError(t, err)
	return line
}

func inclinedTrajectory() []TrajectoryPoint {
	return []TrajectoryPoint{
		{Depth: 0, X: 100, Y: 20, Z: 300},
		{Depth: 50, X: 130, Y: 20, Z: 260},
		{Depth: 100, X: 160, Y: 20, Z: 220},
	}
}

func TestInterpolateAt(t *testing.T) {
	traj := inclinedTrajectory()

	assert.Equal(t, traj[0], InterpolateAt(traj, -10))
	assert.Equal(t, traj[1], InterpolateAt(traj, 50))
	assert.Equal(t, traj[2], InterpolateAt(traj, 250))

	mid := InterpolateAt(traj, 75)
	assert.Equal(t, 75.0, mid.Depth)
	assert.InDelta(t, 145, mid.X, 1e-9)
	assert.InDelta(t, 240, mid.Z, 1e-9)

	assert.Equal(t, TrajectoryPoint{}, InterpolateAt(nil, 10))
}

func TestProjectIntervals_ExactTrajectoryDepths(t *testing.T) {
	line := eastLine(t)
	traj := inclinedTrajectory()

	projected, warnings := ProjectIntervals(traj, []Interval{{HoleID: "DH-1", From: 0, To: 50, Label: "Till"}}, line)
	assert.Empty(t, warnings)
	require.Len(t, projected, 1)

	iv := projected[0]
	assert.Equal(t, "Till", iv.Label)
	require.Len(t, iv.Points, 2)
	assert.Equal(t, line.Project(geo.Point{X: 100, Y: 20}).Distance, iv.Points[0].Distance)
	assert.Equal(t, 300.0, iv.Points[0].Elevation)
	assert.Equal(t, line.Project(geo.Point{X: 130, Y: 20}).Distance, iv.Points[1].Distance)
	assert.Equal(t, 260.0, iv.Points[1].Elevation)
}

func TestProjectIntervals_SpansTrajectoryPoints(t *testing.T) {
	projected, _ := ProjectIntervals(inclinedTrajectory(), []Interval{{HoleID: "DH-1", From: 25, To: 75, Label: "Granite"}}, eastLine(t))
	require.Len(t, projected, 1)

	points := projected[0].Points
	require.Len(t, points, 3)
	assert.InDelta(t, 115, points[0].Distance, 1e-9)
	assert.InDelta(t, 280, points[0].Elevation, 1e-9)
	assert.InDelta(t, 130, points[1].Distance, 1e-9)
	assert.InDelta(t, 145, points[2].Distance, 1e-9)
}

func TestProjectIntervals_InvalidAndClamped(t *testing.T) {
	intervals := []Interval{
		{HoleID: "DH-1", From: 10, To: 10, Label: "Empty"},
		{HoleID: "DH-1", From: 40, To: 20, Label: "Inverted"},
		{HoleID: "DH-1", From: 80, To: 140, Label: "Deep"},
		{HoleID: "DH-1", From: 150, To: 160, Label: "Below"},
		{HoleID: "DH-1", From: -10, To: -5, Label: "Above"},
	}

	projected, warnings := ProjectIntervals(inclinedTrajectory(), intervals, eastLine(t))
	require.Len(t, projected, 1)
	assert.Equal(t, "Deep", projected[0].Label)
	assert.Equal(t, 100.0, projected[0].To)
	last := projected[0].Points[len(projected[0].Points)-1]
	assert.InDelta(t, 160, last.Distance, 1e-9)
	assert.InDelta(t, 220, last.Elevation, 1e-9)

	assert.ElementsMatch(t, []quality.Code{
		quality.InvalidInterval,
		quality.InvalidInterval,
		quality.InvalidInterval,
		quality.IntervalBeyondTrajectory,
		quality.IntervalBeyondTrajectory,
	}, codes(warnings))
	for _, iv := range projected {
		assert.Less(t, iv.From, iv.To)
	}
}

func TestProjectIntervals_OverlapsKept(t *testing.T) {
	intervals := []Interval{
		{HoleID: "DH-3", From: 0, To: 60, Label: "A"},
		{HoleID: "DH-3", From: 10, To: 20, Label: "B"},
		{HoleID: "DH-3", From: 30, To: 40, Label: "C"},
		{HoleID: "DH-3", From: 60, To: 90, Label: "D"},
	}

	projected, warnings := ProjectIntervals(inclinedTrajectory(), intervals, eastLine(t))
	require.Len(t, projected, 4)
	assert.Equal(t, []string{"A", "B", "C", "D"}, []string{projected[0].Label, projected[1].Label, projected[2].Label, projected[3].Label})
	assert.Equal(t, []quality.Code{quality.OverlappingIntervals, quality.OverlappingIntervals}, codes(warnings))
}

func TestProjectIntervals_NoTrajectory(t *testing.T) {
	projected, warnings := ProjectIntervals(nil, []Interval{{HoleID: "DH-4", From: 0, To: 1}}, eastLine(t))
	assert.Empty(t, projected)
	require.Len(t, warnings, 1)
	assert.Equal(t, quality.MissingGeometry, warnings[0].Code)
}

func TestProjectTrajectory(t *testing.T) {
	points := ProjectTrajectory(inclinedTrajectory(), eastLine(t))
	assert.Equal(t, []geo.SectionPoint{
		{Distance: 100, Elevation: 300},
		{Distance: 130, Elevation: 260},
		{Distance: 160, Elevation: 220},
	}, points)
}

func TestMaxDepth(t *testing.T) {
	assert.Equal(t, 0.0, MaxDepth(nil))
	assert.Equal(t, 45.0, MaxDepth([]Interval{{From: 0, To: 30}, {From: 30, To: 45}, {From: 80, To: 70}}))
}
