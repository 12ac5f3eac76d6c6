package records

import (
	"sort"
	"strconv"
	"strings"

	"github.com/secinterp/secinterp/internal/lib/drillhole"
	"github.com/secinterp/secinterp/internal/lib/geo"
	"github.com/secinterp/secinterp/internal/lib/quality"
	"github.com/secinterp/secinterp/internal/lib/structural"
)

// CollarFields names the collar layer attributes. Empty X/Y/Z fall back to
// the feature geometry.
type CollarFields struct {
	HoleID     string `koanf:"hole_id"`
	X          string `koanf:"x"`
	Y          string `koanf:"y"`
	Z          string `koanf:"z"`
	TotalDepth string `koanf:"total_depth"`
}

// SurveyFields names the survey table attributes
type SurveyFields struct {
	HoleID      string `koanf:"hole_id"`
	Depth       string `koanf:"depth"`
	Azimuth     string `koanf:"azimuth"`
	Inclination string `koanf:"inclination"`
}

// IntervalFields names the geology interval table attributes
type IntervalFields struct {
	HoleID string `koanf:"hole_id"`
	From   string `koanf:"from"`
	To     string `koanf:"to"`
	Label  string `koanf:"label"`
}

// StructureFields names the structural measurement layer attributes
type StructureFields struct {
	ID     string `koanf:"id"`
	X      string `koanf:"x"`
	Y      string `koanf:"y"`
	Z      string `koanf:"z"`
	Strike string `koanf:"strike"`
	Dip    string `koanf:"dip"`
}

// FieldMapping names the attributes of every input layer
type FieldMapping struct {
	Collars    CollarFields    `koanf:"collars"`
	Surveys    SurveyFields    `koanf:"surveys"`
	Intervals  IntervalFields  `koanf:"intervals"`
	Structures StructureFields `koanf:"structures"`
}

// DefaultFieldMapping uses common column names; coordinates come from geometry
func DefaultFieldMapping() FieldMapping {
	return FieldMapping{
		Collars:    CollarFields{HoleID: "hole_id", TotalDepth: "total_depth"},
		Surveys:    SurveyFields{HoleID: "hole_id", Depth: "depth", Azimuth: "azimuth", Inclination: "inclination"},
		Intervals:  IntervalFields{HoleID: "hole_id", From: "from_depth", To: "to_depth", Label: "lithology"},
		Structures: StructureFields{ID: "id", Strike: "strike", Dip: "dip"},
	}
}

// DecodeCollars reads collars. Records without a hole id or location are skipped.
func DecodeCollars(recs []FeatureRecord, fields CollarFields) ([]drillhole.Collar, []quality.Warning) {
	var warnings []quality.Warning
	collars := make([]drillhole.Collar, 0, len(recs))
	seen := make(map[string]bool)

	for i, rec := range recs {
		id, ok := holeID(rec, fields.HoleID)
		if !ok {
			warnings = append(warnings, quality.New(recordName(i), quality.MissingAttribute,
				"collar skipped, no %s", fields.HoleID))
			continue
		}
		if seen[id] {
			warnings = append(warnings, quality.New(id, quality.MissingAttribute, "duplicate collar ignored"))
			continue
		}

		loc, ok := location(rec, fields.X, fields.Y, fields.Z)
		if !ok {
			warnings = append(warnings, quality.New(id, quality.MissingAttribute, "collar skipped, no location"))
			continue
		}

		collar := drillhole.Collar{HoleID: id, X: loc.X, Y: loc.Y, Z: loc.Z, HasZ: loc.HasZ}
		if depth, ok := rec.Float(fields.TotalDepth); ok {
			collar.TotalDepth = depth
		}
		seen[id] = true
		collars = append(collars, collar)
	}

	return collars, warnings
}

// DecodeSurveys groups survey stations by hole id
func DecodeSurveys(recs []FeatureRecord, fields SurveyFields) (map[string][]drillhole.SurveyStation, []quality.Warning) {
	var warnings []quality.Warning
	surveys := make(map[string][]drillhole.SurveyStation)

	for i, rec := range recs {
		id, ok := holeID(rec, fields.HoleID)
		if !ok {
			warnings = append(warnings, quality.New(recordName(i), quality.MissingAttribute,
				"survey skipped, no %s", fields.HoleID))
			continue
		}

		depth, okD := rec.Float(fields.Depth)
		az, okA := rec.Float(fields.Azimuth)
		inc, okI := rec.Float(fields.Inclination)
		if !okD || !okA || !okI {
			warnings = append(warnings, quality.New(id, quality.MissingAttribute,
				"survey station skipped, needs %s, %s and %s", fields.Depth, fields.Azimuth, fields.Inclination))
			continue
		}

		surveys[id] = append(surveys[id], drillhole.SurveyStation{Depth: depth, Azimuth: az, Inclination: inc})
	}

	return surveys, warnings
}

// DecodeIntervals groups geology intervals by hole id
func DecodeIntervals(recs []FeatureRecord, fields IntervalFields) (map[string][]drillhole.Interval, []quality.Warning) {
	var warnings []quality.Warning
	intervals := make(map[string][]drillhole.Interval)

	for i, rec := range recs {
		id, ok := holeID(rec, fields.HoleID)
		if !ok {
			warnings = append(warnings, quality.New(recordName(i), quality.MissingAttribute,
				"interval skipped, no %s", fields.HoleID))
			continue
		}

		from, okF := rec.Float(fields.From)
		to, okT := rec.Float(fields.To)
		if !okF || !okT {
			warnings = append(warnings, quality.New(id, quality.MissingAttribute,
				"interval skipped, needs %s and %s", fields.From, fields.To))
			continue
		}

		label, _ := rec.String(fields.Label)
		intervals[id] = append(intervals[id], drillhole.Interval{
			HoleID: id,
			From:   from,
			To:     to,
			Label:  strings.TrimSpace(label),
		})
	}

	return intervals, warnings
}

// DecodeStructures reads structural measurements. Strike and dip may be
// numeric or in bearing notation; unparsable measurements are skipped.
func DecodeStructures(recs []FeatureRecord, fields StructureFields) ([]structural.Measurement, []quality.Warning) {
	var warnings []quality.Warning
	measurements := make([]structural.Measurement, 0, len(recs))

	for i, rec := range recs {
		id, ok := holeID(rec, fields.ID)
		if !ok {
			id = recordName(i)
		}

		loc, ok := location(rec, fields.X, fields.Y, fields.Z)
		if !ok {
			warnings = append(warnings, quality.New(id, quality.MissingAttribute, "measurement skipped, no location"))
			continue
		}

		strike, _ := rec.String(fields.Strike)
		dip, _ := rec.String(fields.Dip)
		orientation, err := structural.ParseOrientation(strike, dip)
		if err != nil {
			warnings = append(warnings, quality.New(id, quality.UnparsableOrientation, "measurement skipped: %v", err))
			continue
		}

		measurements = append(measurements, structural.Measurement{
			ID:           id,
			Location:     geo.Point{X: loc.X, Y: loc.Y},
			Elevation:    loc.Z,
			HasElevation: loc.HasZ,
			Orientation:  orientation,
		})
	}

	return measurements, warnings
}

// HoleIDs returns the sorted keys of a per-hole map
func HoleIDs[T any](byHole map[string][]T) []string {
	ids := make([]string, 0, len(byHole))
	for id := range byHole {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func holeID(rec FeatureRecord, field string) (string, bool) {
	id, ok := rec.String(field)
	id = strings.TrimSpace(id)
	return id, ok && id != ""
}

// location reads X/Y/Z attributes, falling back to the geometry
func location(rec FeatureRecord, xField, yField, zField string) (PointGeometry, bool) {
	var loc PointGeometry
	geom, hasGeom := rec.Point()

	x, okX := rec.Float(xField)
	y, okY := rec.Float(yField)
	switch {
	case okX && okY:
		loc.X, loc.Y = x, y
	case hasGeom:
		loc.X, loc.Y = geom.X, geom.Y
	default:
		return loc, false
	}

	if z, ok := rec.Float(zField); ok {
		loc.Z, loc.HasZ = z, true
	} else if hasGeom && geom.HasZ {
		loc.Z, loc.HasZ = geom.Z, true
	}
	return loc, true
}

func recordName(i int) string {
	return "record " + strconv.Itoa(i+1)
}
