package structural

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/secinterp/secinterp/internal/lib/geo"
)

var (
	quadrantPattern = regexp.MustCompile(`^([NS])(\d+(?:\.\d+)?)([EW])$`)
	dipPattern      = regexp.MustCompile(`^(\d+(?:\.\d+)?)([NESW]{0,3})$`)
)

// compassPoints maps 16-point compass abbreviations to azimuths
var compassPoints = map[string]float64{
	"N": 0, "NNE": 22.5, "NE": 45, "ENE": 67.5,
	"E": 90, "ESE": 112.5, "SE": 135, "SSE": 157.5,
	"S": 180, "SSW": 202.5, "SW": 225, "WSW": 247.5,
	"W": 270, "WNW": 292.5, "NW": 315, "NNW": 337.5,
}

// ParseAzimuth reads a bearing in numeric ("030", "30.5°"), quadrant
// ("N30E", "S 45 W") or compass point ("NE") notation
func ParseAzimuth(raw string) (float64, error) {
	s := compact(raw)
	if s == "" {
		return 0, &ParseError{Raw: raw, Reason: "empty value"}
	}

	if v, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, &ParseError{Raw: raw, Reason: "not a finite number"}
		}
		return geo.NormalizeDegrees(v), nil
	}

	if m := quadrantPattern.FindStringSubmatch(s); m != nil {
		angle, _ := strconv.ParseFloat(m[2], 64)
		if angle > 90 {
			return 0, &ParseError{Raw: raw, Reason: "quadrant angle exceeds 90"}
		}
		switch m[1] + m[3] {
		case "NE":
			return geo.NormalizeDegrees(angle), nil
		case "NW":
			return geo.NormalizeDegrees(360 - angle), nil
		case "SE":
			return 180 - angle, nil
		default: // SW
			return geo.NormalizeDegrees(180 + angle), nil
		}
	}

	if az, ok := compassPoints[s]; ok {
		return az, nil
	}

	return 0, &ParseError{Raw: raw, Reason: "unrecognised bearing notation"}
}

// ParseDip reads a dip angle with an optional dip direction ("45", "45 SW",
// "45°NE"). hasDirection reports whether a direction was given.
func ParseDip(raw string) (dip float64, direction float64, hasDirection bool, err error) {
	s := compact(raw)
	m := dipPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false, &ParseError{Raw: raw, Reason: "unrecognised dip notation"}
	}

	dip, _ = strconv.ParseFloat(m[1], 64)
	if dip > 90 {
		return 0, 0, false, &ParseError{Raw: raw, Reason: "dip exceeds 90"}
	}

	if m[2] == "" {
		return dip, 0, false, nil
	}
	direction, ok := compassPoints[m[2]]
	if !ok {
		return 0, 0, false, &ParseError{Raw: raw, Reason: "unrecognised dip direction " + m[2]}
	}
	return dip, direction, true, nil
}

// ParseOrientation combines a strike and a dip string. When the dip names a
// direction, the dip direction is taken on the side of strike it points to
// and the strike is rewritten to the right-hand rule.
func ParseOrientation(strikeRaw, dipRaw string) (Orientation, error) {
	strike, err := ParseAzimuth(strikeRaw)
	if err != nil {
		return Orientation{}, err
	}

	dip, direction, hasDirection, err := ParseDip(dipRaw)
	if err != nil {
		return Orientation{}, err
	}
	if !hasDirection {
		return NewOrientation(strike, dip), nil
	}

	right := geo.NormalizeDegrees(strike + 90)
	left := geo.NormalizeDegrees(strike - 90)
	toRight := angularDistance(direction, right)
	toLeft := angularDistance(direction, left)
	switch {
	case toRight < toLeft:
		return FromDipDirection(right, dip), nil
	case toLeft < toRight:
		return FromDipDirection(left, dip), nil
	}
	return Orientation{}, &ParseError{Raw: strikeRaw + " " + dipRaw, Reason: "dip direction is parallel to strike"}
}

// angularDistance is the smallest angle between two bearings, in [0, 180]
func angularDistance(a, b float64) float64 {
	d := math.Abs(geo.NormalizeDegrees(a) - geo.NormalizeDegrees(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}

// compact uppercases and drops whitespace and degree marks
func compact(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	return strings.NewReplacer(" ", "", "\t", "", "°", "", "º", "").Replace(s)
}
