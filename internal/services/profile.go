package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/secinterp/secinterp/internal/cache"
	"github.com/secinterp/secinterp/internal/config"
	"github.com/secinterp/secinterp/internal/lib/dem"
	"github.com/secinterp/secinterp/internal/lib/drillhole"
	"github.com/secinterp/secinterp/internal/lib/geo"
	"github.com/secinterp/secinterp/internal/lib/quality"
	"github.com/secinterp/secinterp/internal/lib/records"
	"github.com/secinterp/secinterp/internal/lib/selection"
	"github.com/secinterp/secinterp/internal/lib/structural"
)

// ErrInvalidRequest is returned for requests that cannot produce a profile
var ErrInvalidRequest = errors.New("invalid profile request")

// ProfileService turns layers, an optional DEM and a section line into an
// interpreted profile
type ProfileService struct {
	source  FeatureSource
	sampler dem.Sampler
	cache   *cache.Cache
	config  *config.Config
	logger  *zap.Logger
	now     func() time.Time
}

// NewProfileService creates a ProfileService. sampler and cache may be nil.
func NewProfileService(source FeatureSource, sampler dem.Sampler, cache *cache.Cache, cfg *config.Config, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{
		source:  source,
		sampler: sampler,
		cache:   cache,
		config:  cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// NewProfileRequest builds a request from the configured section
func NewProfileRequest(cfg *config.Config) (ProfileRequest, error) {
	vertices, err := cfg.SectionVertices()
	if err != nil {
		return ProfileRequest{}, err
	}
	l := cfg.Input.Layers
	return ProfileRequest{
		Name:               cfg.Section.Name,
		Vertices:           vertices,
		BufferWidth:        cfg.Section.BufferWidth,
		SampleInterval:     cfg.Section.SampleInterval,
		OnSectionTolerance: cfg.Section.OnSectionTolerance,
		Method:             cfg.DesurveyMethod(),
		Layers:             Layers{Collars: l.Collars, Surveys: l.Surveys, Intervals: l.Intervals, Structures: l.Structures},
		Fields:             cfg.Fields,
	}, nil
}

// Generate builds the profile for a request. Invalid section geometry and
// unreadable layers are errors; problems with individual holes or
// measurements become warnings on the profile.
func (s *ProfileService) Generate(ctx context.Context, req ProfileRequest) (*Profile, error) {
	line, err := geo.NewSectionLine(req.Vertices)
	if err != nil {
		return nil, fmt.Errorf("invalid section line: %w", err)
	}
	if req.BufferWidth < 0 {
		return nil, fmt.Errorf("%w: buffer width must not be negative, got %v", ErrInvalidRequest, req.BufferWidth)
	}
	if req.Layers.Collars == "" {
		return nil, fmt.Errorf("%w: collar layer is required", ErrInvalidRequest)
	}

	key := cache.ProfileKey(line, s.keyInput(req))
	if s.cache != nil {
		if req.SkipCache || s.cache.IsStale(key) {
			s.cache.Delete(key)
		} else if cached, ok := s.cached(key); ok {
			// The key covers content only, the request names the copy
			cached.ID = uuid.NewString()
			cached.Name = req.Name
			return cached, nil
		}
	}

	profile := &Profile{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Line:        line.Encode(),
		Vertices:    line.Vertices(),
		Length:      line.Length(),
		Azimuth:     line.Azimuth(),
		BufferWidth: req.BufferWidth,
		GeneratedAt: s.now().UTC(),
	}

	if err := s.addHoles(ctx, profile, line, req); err != nil {
		return nil, err
	}
	if err := s.addStructures(ctx, profile, line, req); err != nil {
		return nil, err
	}
	s.addTopography(profile, line, req)

	profile.Summary = quality.Summarize(profile.Warnings)

	s.logger.Info("profile generated",
		zap.String("id", profile.ID),
		zap.String("name", profile.Name),
		zap.Float64("length", profile.Length),
		zap.Int("holes", len(profile.Holes)),
		zap.Int("structures", len(profile.Structures)),
		zap.Int("warnings", len(profile.Warnings)))

	if s.cache != nil {
		if err := s.cache.Set(key, profile, s.config.Cache.TTL, "profile"); err != nil {
			s.logger.Warn("failed to cache profile", zap.String("id", profile.ID), zap.Error(err))
		}
	}

	return profile, nil
}

func (s *ProfileService) cached(key string) (*Profile, bool) {
	var cached Profile
	found, err := s.cache.Get(key, &cached)
	if err != nil {
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !found {
		return nil, false
	}
	s.logger.Debug("returning cached profile", zap.String("id", cached.ID), zap.String("name", cached.Name))
	cached.Cached = true
	return &cached, true
}

func (s *ProfileService) keyInput(req ProfileRequest) cache.KeyInput {
	f := req.Fields
	return cache.KeyInput{
		Source: s.config.Input.GeoPackage,
		Layers: req.Layers.names(),
		Fields: []string{
			f.Collars.HoleID, f.Collars.X, f.Collars.Y, f.Collars.Z, f.Collars.TotalDepth,
			f.Surveys.HoleID, f.Surveys.Depth, f.Surveys.Azimuth, f.Surveys.Inclination,
			f.Intervals.HoleID, f.Intervals.From, f.Intervals.To, f.Intervals.Label,
			f.Structures.ID, f.Structures.X, f.Structures.Y, f.Structures.Z, f.Structures.Strike, f.Structures.Dip,
		},
		BufferWidth:        req.BufferWidth,
		SampleInterval:     req.SampleInterval,
		OnSectionTolerance: req.OnSectionTolerance,
		DEMPath:            s.config.DEM.Path,
		DEMBand:            s.config.DEM.Band,
		Method:             string(req.Method),
	}
}

// readLayer returns nil for an unconfigured layer
func (s *ProfileService) readLayer(ctx context.Context, kind, name string) ([]records.FeatureRecord, error) {
	if name == "" {
		return nil, nil
	}
	features, err := s.source.Features(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s layer %q: %w", kind, name, err)
	}
	s.logger.Debug("layer read", zap.String("kind", kind), zap.String("layer", name), zap.Int("features", len(features)))
	return features, nil
}

func (s *ProfileService) addHoles(ctx context.Context, profile *Profile, line *geo.SectionLine, req ProfileRequest) error {
	collarRecs, err := s.readLayer(ctx, "collar", req.Layers.Collars)
	if err != nil {
		return err
	}
	surveyRecs, err := s.readLayer(ctx, "survey", req.Layers.Surveys)
	if err != nil {
		return err
	}
	intervalRecs, err := s.readLayer(ctx, "interval", req.Layers.Intervals)
	if err != nil {
		return err
	}

	collars, warnings := records.DecodeCollars(collarRecs, req.Fields.Collars)
	profile.Warnings = append(profile.Warnings, warnings...)
	surveys, warnings := records.DecodeSurveys(surveyRecs, req.Fields.Surveys)
	profile.Warnings = append(profile.Warnings, warnings...)
	intervals, warnings := records.DecodeIntervals(intervalRecs, req.Fields.Intervals)
	profile.Warnings = append(profile.Warnings, warnings...)

	byID := make(map[string]drillhole.Collar, len(collars))
	sites := make([]selection.Site, 0, len(collars))
	for _, c := range collars {
		byID[c.HoleID] = c
		sites = append(sites, selection.Site{ID: c.HoleID, Location: c.Location()})
	}
	profile.Warnings = append(profile.Warnings, unknownHoles(byID, surveys, intervals)...)

	selector := selection.NewSelector(sites, req.OnSectionTolerance)
	candidates := selector.Select(line, req.BufferWidth)
	s.logger.Debug("holes selected",
		zap.Int("collars", selector.Size()),
		zap.Strings("selected", selection.IDs(candidates)))

	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}

		collar := byID[candidate.ID]
		if !collar.HasZ {
			collar = s.collarElevation(profile, collar)
		}

		holeIntervals := intervals[collar.HoleID]
		trajectory, warnings := drillhole.Desurvey(collar.Vector(), surveys[collar.HoleID], drillhole.DesurveyOptions{
			HoleID:           collar.HoleID,
			TotalDepth:       collar.TotalDepth,
			MaxIntervalDepth: drillhole.MaxDepth(holeIntervals),
			Method:           req.Method,
		})
		profile.Warnings = append(profile.Warnings, warnings...)

		projected, warnings := drillhole.ProjectIntervals(trajectory, holeIntervals, line)
		profile.Warnings = append(profile.Warnings, warnings...)

		profile.Holes = append(profile.Holes, HoleProfile{
			HoleID:         collar.HoleID,
			Collar:         collar,
			Classification: candidate.Classification,
			Distance:       candidate.Projection.Distance,
			Offset:         candidate.Projection.Offset,
			Trajectory:     trajectory,
			Trace:          drillhole.ProjectTrajectory(trajectory, line),
			Intervals:      projected,
		})
	}

	return nil
}

// collarElevation fills a missing collar Z from the DEM
func (s *ProfileService) collarElevation(profile *Profile, collar drillhole.Collar) drillhole.Collar {
	if s.sampler != nil {
		if z, ok := s.sampler.Sample(collar.X, collar.Y); ok {
			collar.Z, collar.HasZ = z, true
			return collar
		}
	}
	profile.Warnings = append(profile.Warnings, quality.New(collar.HoleID, quality.MissingElevation,
		"collar has no elevation and the DEM has no value there; using 0"))
	return collar
}

func (s *ProfileService) addStructures(ctx context.Context, profile *Profile, line *geo.SectionLine, req ProfileRequest) error {
	recs, err := s.readLayer(ctx, "structure", req.Layers.Structures)
	if err != nil {
		return err
	}

	measurements, warnings := records.DecodeStructures(recs, req.Fields.Structures)
	profile.Warnings = append(profile.Warnings, warnings...)

	sites := make([]selection.Site, len(measurements))
	byID := make(map[string]structural.Measurement, len(measurements))
	for i, m := range measurements {
		// Ids are not guaranteed unique in structure layers
		key := fmt.Sprintf("%d", i)
		sites[i] = selection.Site{ID: key, Location: m.Location}
		byID[key] = m
	}

	selector := selection.NewSelector(sites, req.OnSectionTolerance)
	for _, candidate := range selector.Select(line, req.BufferWidth) {
		if err := ctx.Err(); err != nil {
			return err
		}

		m := byID[candidate.ID]
		elevation := m.Elevation
		if !m.HasElevation {
			z, ok := s.sample(m.Location)
			if !ok {
				profile.Warnings = append(profile.Warnings, quality.New(m.ID, quality.MissingElevation,
					"measurement skipped, no elevation and no DEM value"))
				continue
			}
			elevation = z
		}

		profile.Structures = append(profile.Structures, structural.Project(m, line, elevation))
	}

	return nil
}

func (s *ProfileService) sample(p geo.Point) (float64, bool) {
	if s.sampler == nil {
		return 0, false
	}
	return s.sampler.Sample(p.X, p.Y)
}

func (s *ProfileService) addTopography(profile *Profile, line *geo.SectionLine, req ProfileRequest) {
	if s.sampler == nil || req.SampleInterval <= 0 {
		return
	}

	points, missing := dem.Profile(s.sampler, line, req.SampleInterval)
	profile.Topography = points
	if missing > 0 {
		profile.Warnings = append(profile.Warnings, quality.New(profile.Name, quality.MissingElevation,
			"%d topography stations outside the DEM", missing))
	}
}

// unknownHoles reports survey and interval rows for holes without a collar
func unknownHoles(collars map[string]drillhole.Collar, surveys map[string][]drillhole.SurveyStation, intervals map[string][]drillhole.Interval) []quality.Warning {
	var warnings []quality.Warning
	for _, id := range records.HoleIDs(surveys) {
		if _, ok := collars[id]; !ok {
			warnings = append(warnings, quality.New(id, quality.UnknownHole,
				"%d survey stations for a hole with no collar", len(surveys[id])))
		}
	}
	for _, id := range records.HoleIDs(intervals) {
		if _, ok := collars[id]; !ok {
			warnings = append(warnings, quality.New(id, quality.UnknownHole,
				"%d intervals for a hole with no collar", len(intervals[id])))
		}
	}
	return warnings
}
