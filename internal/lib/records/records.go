// Package records decouples layer attributes from the geometry core.
//
// A FeatureRecord exposes a feature's point geometry and named attributes.
// The decoders turn records into collars, surveys, intervals and structural
// measurements using a configurable field mapping, reporting unusable
// records as warnings.
package records

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PointGeometry is the point geometry of a feature
type PointGeometry struct {
	X, Y, Z float64
	HasZ    bool
}

// FeatureRecord is a single feature read from a layer
type FeatureRecord interface {
	Float(field string) (float64, bool)
	String(field string) (string, bool)
	Point() (PointGeometry, bool)
}

// MapRecord is a FeatureRecord backed by an attribute map. Field lookups fall
// back to a case-insensitive match.
type MapRecord struct {
	Attributes map[string]interface{}
	Geometry   *PointGeometry
}

// NewMapRecord creates a record without geometry
func NewMapRecord(attrs map[string]interface{}) *MapRecord {
	return &MapRecord{Attributes: attrs}
}

func (r *MapRecord) lookup(field string) (interface{}, bool) {
	if field == "" {
		return nil, false
	}
	if v, ok := r.Attributes[field]; ok {
		return v, v != nil
	}
	for k, v := range r.Attributes {
		if strings.EqualFold(k, field) {
			return v, v != nil
		}
	}
	return nil, false
}

// Float returns a numeric attribute. Numeric strings are parsed.
func (r *MapRecord) Float(field string) (float64, bool) {
	v, ok := r.lookup(field)
	if !ok {
		return 0, false
	}

	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int32:
		f = float64(val)
	case int64:
		f = float64(val)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case []byte:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(string(val)), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// String returns an attribute as text. Numbers are formatted without
// trailing zeros.
func (r *MapRecord) String(field string) (string, bool) {
	v, ok := r.lookup(field)
	if !ok {
		return "", false
	}

	switch val := v.(type) {
	case string:
		return val, true
	case []byte:
		return string(val), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), true
	case int64:
		return strconv.FormatInt(val, 10), true
	default:
		return fmt.Sprint(val), true
	}
}

// Point returns the record's geometry
func (r *MapRecord) Point() (PointGeometry, bool) {
	if r.Geometry == nil {
		return PointGeometry{}, false
	}
	return *r.Geometry, true
}
