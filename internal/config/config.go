package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/secinterp/secinterp/internal/lib/drillhole"
	"github.com/secinterp/secinterp/internal/lib/geo"
	"github.com/secinterp/secinterp/internal/lib/records"
)

// Config represents the complete profile generation configuration
type Config struct {
	Input    InputConfig          `koanf:"input"`
	Fields   records.FieldMapping `koanf:"fields"`
	Section  SectionConfig        `koanf:"section"`
	Desurvey DesurveyConfig       `koanf:"desurvey"`
	DEM      DEMConfig            `koanf:"dem"`
	Export   ExportConfig         `koanf:"export"`
	CRS      CRSConfig            `koanf:"crs"`
	Logging  LoggingConfig        `koanf:"logging"`
	Cache    CacheConfig          `koanf:"cache"`
}

// InputConfig names the GeoPackage and its layers
type InputConfig struct {
	GeoPackage string       `koanf:"geopackage"`
	Layers     LayersConfig `koanf:"layers"`
}

// LayersConfig holds layer names. Empty optional layers are not read.
type LayersConfig struct {
	Collars    string `koanf:"collars"`
	Surveys    string `koanf:"surveys"`
	Intervals  string `koanf:"intervals"`
	Structures string `koanf:"structures"`
}

// SectionConfig holds the section line and selection settings
type SectionConfig struct {
	Name               string      `koanf:"name"`
	Vertices           [][]float64 `koanf:"vertices"`
	BufferWidth        float64     `koanf:"buffer_width"`
	SampleInterval     float64     `koanf:"sample_interval"`
	OnSectionTolerance float64     `koanf:"on_section_tolerance"`
}

// DesurveyConfig selects the desurvey algorithm
type DesurveyConfig struct {
	Method string `koanf:"method"`
}

// DEMConfig points at an ESRI ASCII grid. Only band 1 exists in that format.
type DEMConfig struct {
	Path string `koanf:"path"`
	Band int    `koanf:"band"`
}

// ExportConfig controls the written outputs
type ExportConfig struct {
	Dir                  string   `koanf:"dir"`
	Formats              []string `koanf:"formats"`
	SVGWidth             int      `koanf:"svg_width"`
	SVGHeight            int      `koanf:"svg_height"`
	VerticalExaggeration float64  `koanf:"vertical_exaggeration"`
}

// CRSConfig describes the projected CRS of the input data
type CRSConfig struct {
	Proj4 string `koanf:"proj4"`
}

// LoggingConfig holds zap logger settings
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// CacheConfig holds profile cache settings
type CacheConfig struct {
	TTL             time.Duration `koanf:"ttl"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
}

// Export formats
const (
	FormatCSV = "csv"
	FormatSVG = "svg"
	FormatKML = "kml"
)

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			Layers: LayersConfig{
				Collars:    "collars",
				Surveys:    "surveys",
				Intervals:  "intervals",
				Structures: "structures",
			},
		},
		Fields: records.DefaultFieldMapping(),
		Section: SectionConfig{
			Name:               "section",
			BufferWidth:        50,
			SampleInterval:     10,
			OnSectionTolerance: 1,
		},
		Desurvey: DesurveyConfig{
			Method: string(drillhole.MethodAverageAngle),
		},
		DEM: DEMConfig{
			Band: 1,
		},
		Export: ExportConfig{
			Dir:                  ".",
			Formats:              []string{FormatCSV, FormatSVG},
			SVGWidth:             1200,
			SVGHeight:            600,
			VerticalExaggeration: 1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Cache: CacheConfig{
			TTL:             10 * time.Minute,
			CleanupInterval: time.Minute,
		},
	}
}

// SectionVertices converts the configured vertices to points
func (c *Config) SectionVertices() ([]geo.Point, error) {
	points := make([]geo.Point, 0, len(c.Section.Vertices))
	for i, v := range c.Section.Vertices {
		if len(v) != 2 {
			return nil, fmt.Errorf("section vertex %d must have 2 coordinates, got %d", i, len(v))
		}
		points = append(points, geo.Point{X: v[0], Y: v[1]})
	}
	return points, nil
}

// DesurveyMethod returns the configured method
func (c *Config) DesurveyMethod() drillhole.Method {
	return drillhole.Method(c.Desurvey.Method)
}

// HasFormat reports whether an export format is enabled
func (c *Config) HasFormat(format string) bool {
	for _, f := range c.Export.Formats {
		if strings.EqualFold(f, format) {
			return true
		}
	}
	return false
}

// Validate reports every configuration problem at once
func (c *Config) Validate() error {
	var err error

	if c.Input.GeoPackage == "" {
		err = multierr.Append(err, fmt.Errorf("input.geopackage is required"))
	}
	if c.Input.Layers.Collars == "" {
		err = multierr.Append(err, fmt.Errorf("input.layers.collars is required"))
	}
	if c.Fields.Collars.HoleID == "" {
		err = multierr.Append(err, fmt.Errorf("fields.collars.hole_id is required"))
	}
	if len(c.Section.Vertices) < 2 {
		err = multierr.Append(err, fmt.Errorf("section.vertices needs at least 2 points, got %d", len(c.Section.Vertices)))
	}
	if _, vErr := c.SectionVertices(); vErr != nil {
		err = multierr.Append(err, vErr)
	}
	if c.Section.BufferWidth < 0 {
		err = multierr.Append(err, fmt.Errorf("section.buffer_width must not be negative, got %v", c.Section.BufferWidth))
	}
	if c.Section.SampleInterval <= 0 {
		err = multierr.Append(err, fmt.Errorf("section.sample_interval must be positive, got %v", c.Section.SampleInterval))
	}
	if c.Section.OnSectionTolerance < 0 {
		err = multierr.Append(err, fmt.Errorf("section.on_section_tolerance must not be negative, got %v", c.Section.OnSectionTolerance))
	}

	switch c.DesurveyMethod() {
	case drillhole.MethodAverageAngle, drillhole.MethodMinimumCurvature:
	default:
		err = multierr.Append(err, fmt.Errorf("desurvey.method %q is not one of %s, %s",
			c.Desurvey.Method, drillhole.MethodAverageAngle, drillhole.MethodMinimumCurvature))
	}

	if c.DEM.Path != "" && c.DEM.Band != 1 {
		err = multierr.Append(err, fmt.Errorf("dem.band %d not available, ASCII grids have a single band", c.DEM.Band))
	}

	for _, f := range c.Export.Formats {
		switch strings.ToLower(f) {
		case FormatCSV, FormatSVG, FormatKML:
		default:
			err = multierr.Append(err, fmt.Errorf("export.formats: unknown format %q", f))
		}
	}
	if c.HasFormat(FormatKML) && c.CRS.Proj4 == "" {
		err = multierr.Append(err, fmt.Errorf("crs.proj4 is required for KML export"))
	}
	if c.Export.SVGWidth <= 0 || c.Export.SVGHeight <= 0 {
		err = multierr.Append(err, fmt.Errorf("export svg size must be positive, got %dx%d", c.Export.SVGWidth, c.Export.SVGHeight))
	}
	if c.Export.VerticalExaggeration <= 0 {
		err = multierr.Append(err, fmt.Errorf("export.vertical_exaggeration must be positive, got %v", c.Export.VerticalExaggeration))
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		err = multierr.Append(err, fmt.Errorf("logging.format %q is not json or console", c.Logging.Format))
	}

	return err
}

// ParseLine reads a section line given either as "x1,y1;x2,y2;..." or as an
// encoded polyline from a previous profile. Encoded polylines never contain
// commas or digits.
func ParseLine(s string) ([][]float64, error) {
	s = strings.TrimSpace(s)
	if strings.ContainsAny(s, ",;0123456789") {
		return ParseVertices(s)
	}

	line, err := geo.DecodeSectionLine(s)
	if err != nil {
		return nil, err
	}
	vertices := make([][]float64, 0, len(line.Vertices()))
	for _, p := range line.Vertices() {
		vertices = append(vertices, []float64{p.X, p.Y})
	}
	return vertices, nil
}

// ParseVertices reads "x1,y1;x2,y2;..." into section vertices
func ParseVertices(s string) ([][]float64, error) {
	var vertices [][]float64
	for i, pair := range strings.Split(s, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.Split(pair, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("vertex %d: expected x,y, got %q", i, pair)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("vertex %d: %w", i, err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("vertex %d: %w", i, err)
		}
		vertices = append(vertices, []float64{x, y})
	}
	return vertices, nil
}
