// Package resolve decides which footprint masking strategy applies to a
// mosaic folder and composes the provider tree handed to the rendering
// pipeline. Resolution runs once when the mosaic layer opens; the returned
// provider is immutable and safe for concurrent queries.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/containerd/errdefs"
	"github.com/spf13/afero"

	"github.com/geomosaic/footprint/internal/config"
	"github.com/geomosaic/footprint/internal/footprint"
	"github.com/geomosaic/footprint/internal/footprint/inset"
	"github.com/geomosaic/footprint/internal/footprint/metricswrap"
	"github.com/geomosaic/footprint/internal/footprint/rastermask"
	"github.com/geomosaic/footprint/internal/footprint/sidecar"
	"github.com/geomosaic/footprint/internal/footprint/vectorstore"
	"github.com/geomosaic/footprint/internal/geos"
	"github.com/geomosaic/footprint/internal/predicate"
	"github.com/geomosaic/footprint/internal/store/shapefile"
)

// DefaultShapefile is the whole-mosaic footprint file probed for when no
// explicit source is configured.
const DefaultShapefile = "footprints.shp"

// DefaultLocationField is the footprint record field joined against the
// granule location when no filter is configured.
const DefaultLocationField = "location"

// Selector builds one concrete footprint provider from resolved settings
// plus filesystem state. Collaborators are injected so the decision logic
// can be exercised without real stores.
type Selector struct {
	fsys           afero.Fs
	logger         *slog.Logger
	shrinker       inset.Shrinker
	openStore      func(path string) (vectorstore.Store, error)
	parseFilter    func(text string) (predicate.Predicate, error)
	newRasterStore func(fsys afero.Fs, folder string, logger *slog.Logger) rastermask.Store
	locationField  string
	metrics        metricswrap.Recorder
}

type Option func(*Selector)

func WithFs(fsys afero.Fs) Option           { return func(s *Selector) { s.fsys = fsys } }
func WithLogger(l *slog.Logger) Option      { return func(s *Selector) { s.logger = l } }
func WithShrinker(sh inset.Shrinker) Option { return func(s *Selector) { s.shrinker = sh } }

func WithLocationField(field string) Option {
	return func(s *Selector) { s.locationField = field }
}

func WithMetrics(rec metricswrap.Recorder) Option {
	return func(s *Selector) { s.metrics = rec }
}

// WithStoreOpener replaces the vector-store engine.
func WithStoreOpener(open func(path string) (vectorstore.Store, error)) Option {
	return func(s *Selector) { s.openStore = open }
}

// WithFilterParser replaces the predicate parser.
func WithFilterParser(parse func(text string) (predicate.Predicate, error)) Option {
	return func(s *Selector) { s.parseFilter = parse }
}

// WithRasterStore replaces the raster mask engine.
func WithRasterStore(build func(fsys afero.Fs, folder string, logger *slog.Logger) rastermask.Store) Option {
	return func(s *Selector) { s.newRasterStore = build }
}

// NewSelector returns a selector wired with the production collaborators:
// the OS filesystem, the shapefile store, the expr filter parser, the PNG
// raster mask store and the GEOS shrinker.
func NewSelector(opts ...Option) *Selector {
	s := &Selector{
		fsys:        afero.NewOsFs(),
		shrinker:    geos.New(),
		parseFilter: predicate.Parse,
		newRasterStore: func(fsys afero.Fs, folder string, logger *slog.Logger) rastermask.Store {
			return rastermask.NewPNGStore(fsys, folder, logger)
		},
		openStore: func(path string) (vectorstore.Store, error) {
			return shapefile.Open(path)
		},
		locationField: DefaultLocationField,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open is the one-call entry point: it loads the mosaic folder's footprint
// settings, resolves them and selects the provider.
func Open(ctx context.Context, folder string, opts ...Option) (footprint.ROIProvider, error) {
	s := NewSelector(opts...)
	raw, err := config.Load(s.fsys, folder)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Resolve(raw)
	if err != nil {
		return nil, err
	}
	return s.Select(ctx, folder, cfg)
}

// Select picks exactly one provider variant for the mosaic folder, or
// fails. Every geometry variant is wrapped by the inset decorator, identity
// at distance zero; the raster variant is returned bare since raster masks
// are not polygon-shrinkable.
func (s *Selector) Select(ctx context.Context, folder string, cfg config.Resolved) (footprint.ROIProvider, error) {
	var (
		inner   footprint.GeometryProvider
		variant string
		err     error
	)

	switch cfg.Source {
	case config.SourceDefault:
		defaultShp := filepath.Join(folder, DefaultShapefile)
		ok, probeErr := afero.Exists(s.fsys, defaultShp)
		if probeErr != nil {
			return nil, fmt.Errorf("probe %s: %w", defaultShp, probeErr)
		}
		if ok {
			inner, err = s.buildVectorStore(ctx, folder, DefaultShapefile, cfg)
			variant = "vectorstore"
		} else {
			inner, err = s.buildSidecar(folder)
			variant = "sidecar"
		}
	case config.SourceSidecar:
		inner, err = s.buildSidecar(folder)
		variant = "sidecar"
	case config.SourceShapefile:
		inner, err = s.buildVectorStore(ctx, folder, cfg.SourcePath, cfg)
		variant = "vectorstore"
	case config.SourceRaster:
		store := s.newRasterStore(s.fsys, folder, s.logger)
		s.logVariant(folder, "raster", cfg)
		return s.withMetrics(rastermask.New(store), "raster"), nil
	default:
		return nil, fmt.Errorf(
			"invalid source type, it should be a reference to a shapefile or \"sidecar\", but was %q instead: %w",
			cfg.Source, errdefs.ErrInvalidArgument)
	}
	if err != nil {
		return nil, err
	}

	s.logVariant(folder, variant, cfg)
	decorated := inset.Wrap(inner, s.shrinker, cfg.Inset, cfg.InsetType)
	return s.withMetrics(decorated, variant), nil
}

func (s *Selector) buildSidecar(folder string) (footprint.GeometryProvider, error) {
	p, err := sidecar.New(s.fsys, folder, s.logger)
	if err != nil {
		return nil, fmt.Errorf("%w: sidecar provider for %s: %w", footprint.ErrSourceBuild, folder, err)
	}
	return p, nil
}

func (s *Selector) buildVectorStore(_ context.Context, folder, location string, cfg config.Resolved) (footprint.GeometryProvider, error) {
	path := location
	if !filepath.IsAbs(path) {
		path = filepath.Join(folder, path)
	}
	ok, err := afero.Exists(s.fsys, path)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("tried to load the footprints from %s but the file was not found: %w",
			path, errdefs.ErrNotFound)
	}

	base := filepath.Base(path)
	typeName := strings.TrimSuffix(base, filepath.Ext(base))

	var pred predicate.Predicate
	if cfg.Filter != "" {
		pred, err = s.parseFilter(cfg.Filter)
		if err != nil {
			return nil, fmt.Errorf("%w: filter for %s: %w", footprint.ErrSourceBuild, path, err)
		}
	} else {
		pred = predicate.LocationEquals{Field: s.locationField}
	}

	store, err := s.openStore(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", footprint.ErrSourceBuild, path, err)
	}
	return vectorstore.New(store, typeName, pred), nil
}

func (s *Selector) withMetrics(p footprint.ROIProvider, variant string) footprint.ROIProvider {
	if s.metrics == nil {
		return p
	}
	return metricswrap.Wrap(p, s.metrics, variant)
}

func (s *Selector) logVariant(folder, variant string, cfg config.Resolved) {
	if s.logger == nil {
		return
	}
	s.logger.Debug("footprint provider selected",
		"folder", folder,
		"variant", variant,
		"inset", cfg.Inset,
		"inset_type", string(cfg.InsetType),
	)
}
