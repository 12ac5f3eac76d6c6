package export

import (
	"fmt"
	"image/color"
	"io"

	"github.com/ctessum/geom/proj"
	kml "github.com/twpayne/go-kml"

	"github.com/secinterp/secinterp/internal/lib/geo"
	"github.com/secinterp/secinterp/internal/services"
)

const wgs84 = "+proj=longlat +datum=WGS84 +no_defs"

// NewReprojector returns a transform from a projected CRS to WGS84 degrees
func NewReprojector(proj4 string) (proj.Transformer, error) {
	src, err := proj.Parse(proj4)
	if err != nil {
		return nil, fmt.Errorf("invalid source CRS %q: %w", proj4, err)
	}
	dst, err := proj.Parse(wgs84)
	if err != nil {
		return nil, fmt.Errorf("invalid WGS84 definition: %w", err)
	}
	transform, err := src.NewTransform(dst)
	if err != nil {
		return nil, fmt.Errorf("failed to build transform from %q: %w", proj4, err)
	}
	return transform, nil
}

// WriteKML writes the section line, selected collars and hole traces as a
// KML document in WGS84. Traces carry absolute altitudes.
func WriteKML(w io.Writer, p *services.Profile, transform proj.Transformer) error {
	lineCoords, err := reproject(transform, p.Vertices)
	if err != nil {
		return fmt.Errorf("failed to reproject section line: %w", err)
	}

	collars := []kml.Element{kml.Name("Collars")}
	traces := []kml.Element{kml.Name("Traces")}
	for _, h := range p.Holes {
		lon, lat, err := transform(h.Collar.X, h.Collar.Y)
		if err != nil {
			return fmt.Errorf("failed to reproject collar %s: %w", h.HoleID, err)
		}
		collars = append(collars, kml.Placemark(
			kml.Name(h.HoleID),
			kml.StyleURL("#collar"),
			kml.Description(fmt.Sprintf("%s, distance %s m, offset %s m",
				h.Classification, formatFloat(h.Distance), formatFloat(h.Offset))),
			kml.Point(kml.Coordinates(kml.Coordinate{Lon: lon, Lat: lat, Alt: h.Collar.Z})),
		))

		if len(h.Trajectory) < 2 {
			continue
		}
		coords := make([]kml.Coordinate, len(h.Trajectory))
		for i, t := range h.Trajectory {
			lon, lat, err := transform(t.X, t.Y)
			if err != nil {
				return fmt.Errorf("failed to reproject trace of %s: %w", h.HoleID, err)
			}
			coords[i] = kml.Coordinate{Lon: lon, Lat: lat, Alt: t.Z}
		}
		traces = append(traces, kml.Placemark(
			kml.Name(h.HoleID),
			kml.StyleURL("#trace"),
			kml.LineString(
				kml.AltitudeMode(kml.AltitudeModeAbsolute),
				kml.Coordinates(coords...),
			),
		))
	}

	doc := kml.KML(kml.Document(
		kml.Name(p.Name),
		kml.Description(fmt.Sprintf("Section %s, azimuth %.1f, buffer %g m", p.Name, p.Azimuth, p.BufferWidth)),
		kml.SharedStyle("section", kml.LineStyle(kml.Color(color.RGBA{R: 200, G: 0, B: 32, A: 255}), kml.Width(3))),
		kml.SharedStyle("trace", kml.LineStyle(kml.Color(color.Black), kml.Width(2))),
		kml.SharedStyle("collar", kml.IconStyle(kml.Scale(0.8))),
		kml.Placemark(
			kml.Name(p.Name),
			kml.StyleURL("#section"),
			kml.LineString(
				kml.Tessellate(true),
				kml.Coordinates(lineCoords...),
			),
		),
		kml.Folder(collars...),
		kml.Folder(traces...),
	))

	if err := doc.WriteIndent(w, "", "  "); err != nil {
		return fmt.Errorf("failed to write KML: %w", err)
	}
	return nil
}

func reproject(transform proj.Transformer, points []geo.Point) ([]kml.Coordinate, error) {
	coords := make([]kml.Coordinate, len(points))
	for i, p := range points {
		lon, lat, err := transform(p.X, p.Y)
		if err != nil {
			return nil, err
		}
		coords[i] = kml.Coordinate{Lon: lon, Lat: lat}
	}
	return coords, nil
}
