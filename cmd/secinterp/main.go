package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/secinterp/secinterp/internal/cache"
	"github.com/secinterp/secinterp/internal/clients/gpkg"
	"github.com/secinterp/secinterp/internal/config"
	"github.com/secinterp/secinterp/internal/export"
	"github.com/secinterp/secinterp/internal/lib/dem"
	"github.com/secinterp/secinterp/internal/lib/geo"
	"github.com/secinterp/secinterp/internal/services"
)

// lineFlags collects repeated -line values
type lineFlags []string

func (l *lineFlags) String() string     { return strings.Join(*l, " ") }
func (l *lineFlags) Set(v string) error { *l = append(*l, v); return nil }

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "secinterp: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("secinterp", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML configuration file")
	geopackage := fs.String("gpkg", "", "GeoPackage with the input layers (overrides input.geopackage)")
	demPath := fs.String("dem", "", "ESRI ASCII grid DEM (overrides dem.path)")
	name := fs.String("name", "", "section name (overrides section.name)")
	buffer := fs.Float64("buffer", -1, "buffer width in metres (overrides section.buffer_width)")
	method := fs.String("method", "", "desurvey method: average_angle or minimum_curvature")
	outDir := fs.String("out", "", "export directory (overrides export.dir)")
	formats := fs.String("format", "", "comma-separated export formats: csv,svg,kml")
	noCache := fs.Bool("no-cache", false, "recompute every section instead of reusing cached profiles")
	var lines lineFlags
	fs.Var(&lines, "line", `section vertices "x1,y1;x2,y2;..." or an encoded polyline (repeat for several sections)`)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *geopackage != "" {
		cfg.Input.GeoPackage = *geopackage
	}
	if *demPath != "" {
		cfg.DEM.Path = *demPath
	}
	if *name != "" {
		cfg.Section.Name = *name
	}
	if *buffer >= 0 {
		cfg.Section.BufferWidth = *buffer
	}
	if *method != "" {
		cfg.Desurvey.Method = *method
	}
	if *outDir != "" {
		cfg.Export.Dir = *outDir
	}
	if *formats != "" {
		cfg.Export.Formats = strings.Split(*formats, ",")
	}

	sections := make([][][]float64, 0, len(lines))
	for _, l := range lines {
		vertices, err := config.ParseLine(l)
		if err != nil {
			return fmt.Errorf("invalid -line %q: %w", l, err)
		}
		sections = append(sections, vertices)
	}
	if len(sections) > 0 {
		cfg.Section.Vertices = sections[0]
	} else {
		sections = append(sections, cfg.Section.Vertices)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, err := gpkg.Open(cfg.Input.GeoPackage)
	if err != nil {
		return err
	}
	defer source.Close()
	logger.Info("GeoPackage opened", zap.String("path", source.Path()))

	var sampler dem.Sampler
	if cfg.DEM.Path != "" {
		grid, err := dem.OpenASCIIGrid(cfg.DEM.Path)
		if err != nil {
			return err
		}
		sampler = grid
		logger.Info("DEM loaded", zap.String("path", cfg.DEM.Path))
	}

	profileCache := cache.NewCache(logger)
	profileCache.StartPeriodicCleanup(ctx, cfg.Cache.CleanupInterval)

	service := services.NewProfileService(source, sampler, profileCache, cfg, logger)

	for i, vertices := range sections {
		req, err := services.NewProfileRequest(cfg)
		if err != nil {
			return err
		}
		req.Vertices = make([]geo.Point, len(vertices))
		for j, v := range vertices {
			req.Vertices[j] = geo.Point{X: v[0], Y: v[1]}
		}
		if len(sections) > 1 {
			req.Name = fmt.Sprintf("%s-%d", cfg.Section.Name, i+1)
		}
		req.SkipCache = *noCache

		if err := generate(ctx, logger, service, req, cfg); err != nil {
			return err
		}
	}

	stats := profileCache.Stats()
	logger.Debug("cache stats",
		zap.Int("entries", stats.TotalEntries),
		zap.Int("stale", stats.StaleEntries),
		zap.Int("hits", stats.Hits),
		zap.Strings("keys", profileCache.Keys()))
	return nil
}

func generate(ctx context.Context, logger *zap.Logger, service *services.ProfileService, req services.ProfileRequest, cfg *config.Config) error {
	profile, err := service.Generate(ctx, req)
	if err != nil {
		return fmt.Errorf("section %s: %w", req.Name, err)
	}

	for _, count := range profile.Summary {
		logger.Warn("data warnings", zap.String("section", profile.Name),
			zap.String("code", string(count.Code)), zap.Int("count", count.Count))
	}
	for _, w := range profile.Warnings {
		logger.Debug(w.Message, zap.String("subject", w.Subject), zap.String("code", string(w.Code)))
	}

	paths, err := export.WriteAll(profile, export.Options{
		Dir:     cfg.Export.Dir,
		Formats: cfg.Export.Formats,
		SVG: export.SVGOptions{
			Width:                cfg.Export.SVGWidth,
			Height:               cfg.Export.SVGHeight,
			VerticalExaggeration: cfg.Export.VerticalExaggeration,
		},
		Proj4: cfg.CRS.Proj4,
	})
	if err != nil {
		return fmt.Errorf("failed to export %s: %w", profile.Name, err)
	}

	logger.Info("profile exported",
		zap.String("section", profile.Name),
		zap.String("id", profile.ID),
		zap.Bool("cached", profile.Cached),
		zap.Int("holes", len(profile.Holes)),
		zap.Int("structures", len(profile.Structures)),
		zap.Strings("files", paths))
	return nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid logging.level: %w", err)
	}

	zc := zap.NewDevelopmentConfig()
	if cfg.Format == "json" {
		zc = zap.NewProductionConfig()
	}
	zc.Level = level
	return zc.Build()
}
