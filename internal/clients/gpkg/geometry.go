package gpkg

import (
	"errors"
	"fmt"
	"math"

	"github.com/twpayne/go-geom"
	geomgpkg "github.com/twpayne/go-geom/encoding/gpkg"

	"github.com/secinterp/secinterp/internal/lib/records"
)

var (
	// ErrNotGeoPackageGeometry is returned for blobs without the GP header
	ErrNotGeoPackageGeometry = errors.New("not a GeoPackage geometry blob")

	// ErrUnsupportedGeometry is returned for non-point geometry types
	ErrUnsupportedGeometry = errors.New("unsupported geometry type")
)

// ParseGeometry decodes a GeoPackage geometry blob holding a Point,
// PointZ/M/ZM or MultiPoint (first member). ok is false for empty geometry.
func ParseGeometry(blob []byte) (records.PointGeometry, bool, error) {
	if len(blob) < 8 || blob[0] != 'G' || blob[1] != 'P' {
		return records.PointGeometry{}, false, ErrNotGeoPackageGeometry
	}

	g, err := geomgpkg.Unmarshal(blob)
	if err != nil {
		return records.PointGeometry{}, false, fmt.Errorf("failed to decode geometry: %w", err)
	}

	switch g := g.(type) {
	case *geom.Point:
		p, ok := pointGeometry(g)
		return p, ok, nil
	case *geom.MultiPoint:
		if g.NumPoints() == 0 {
			return records.PointGeometry{}, false, nil
		}
		p, ok := pointGeometry(g.Point(0))
		return p, ok, nil
	case nil:
		return records.PointGeometry{}, false, nil
	}
	return records.PointGeometry{}, false, fmt.Errorf("%w: %T", ErrUnsupportedGeometry, g)
}

// pointGeometry keeps Z when the layout carries one; NaN coordinates are empty
func pointGeometry(p *geom.Point) (records.PointGeometry, bool) {
	if p == nil || p.Empty() {
		return records.PointGeometry{}, false
	}

	pg := records.PointGeometry{X: p.X(), Y: p.Y()}
	if math.IsNaN(pg.X) || math.IsNaN(pg.Y) {
		return records.PointGeometry{}, false
	}
	if p.Layout().ZIndex() != -1 {
		if z := p.Z(); !math.IsNaN(z) {
			pg.Z, pg.HasZ = z, true
		}
	}
	return pg, true
}
