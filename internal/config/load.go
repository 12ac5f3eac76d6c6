package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes environment overrides. Nested keys are separated by a
// double underscore, e.g. SECINTERP_SECTION__BUFFER_WIDTH=75.
const EnvPrefix = "SECINTERP_"

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in increasing precedence
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// envValue maps SECINTERP_A__B_C to a.b_c and splits list values
func envValue(key, value string) (string, interface{}) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	key = strings.ReplaceAll(key, "__", ".")

	switch key {
	case "export.formats":
		formats := strings.Split(value, ",")
		for i := range formats {
			formats[i] = strings.TrimSpace(formats[i])
		}
		return key, formats
	case "section.vertices":
		vertices, err := ParseVertices(value)
		if err != nil {
			// Left as a string so unmarshalling reports it
			return key, value
		}
		return key, vertices
	}
	return key, value
}

func defaults() map[string]interface{} {
	d := DefaultConfig()
	f := d.Fields
	return map[string]interface{}{
		"input.layers.collars":    d.Input.Layers.Collars,
		"input.layers.surveys":    d.Input.Layers.Surveys,
		"input.layers.intervals":  d.Input.Layers.Intervals,
		"input.layers.structures": d.Input.Layers.Structures,

		"fields.collars.hole_id":     f.Collars.HoleID,
		"fields.collars.total_depth": f.Collars.TotalDepth,
		"fields.surveys.hole_id":     f.Surveys.HoleID,
		"fields.surveys.depth":       f.Surveys.Depth,
		"fields.surveys.azimuth":     f.Surveys.Azimuth,
		"fields.surveys.inclination": f.Surveys.Inclination,
		"fields.intervals.hole_id":   f.Intervals.HoleID,
		"fields.intervals.from":      f.Intervals.From,
		"fields.intervals.to":        f.Intervals.To,
		"fields.intervals.label":     f.Intervals.Label,
		"fields.structures.id":       f.Structures.ID,
		"fields.structures.strike":   f.Structures.Strike,
		"fields.structures.dip":      f.Structures.Dip,

		"section.name":                 d.Section.Name,
		"section.buffer_width":         d.Section.BufferWidth,
		"section.sample_interval":      d.Section.SampleInterval,
		"section.on_section_tolerance": d.Section.OnSectionTolerance,

		"desurvey.method": d.Desurvey.Method,
		"dem.band":        d.DEM.Band,

		"export.dir":                   d.Export.Dir,
		"export.formats":               d.Export.Formats,
		"export.svg_width":             d.Export.SVGWidth,
		"export.svg_height":            d.Export.SVGHeight,
		"export.vertical_exaggeration": d.Export.VerticalExaggeration,

		"logging.level":  d.Logging.Level,
		"logging.format": d.Logging.Format,

		"cache.ttl":              d.Cache.TTL.String(),
		"cache.cleanup_interval": d.Cache.CleanupInterval.String(),
	}
}
