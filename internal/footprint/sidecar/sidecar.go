// Package sidecar resolves per-granule footprints from geometry files living
// next to the granules, matched by file name.
package sidecar

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/geojson"
	"github.com/go-spatial/geom/encoding/wkt"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spf13/afero"

	"github.com/geomosaic/footprint/internal/footprint"
)

// sidecar extensions probed in order, next to the granule file
var extensions = []string{".wkt", ".geojson"}

const defaultCacheSize = 512

type entry struct {
	g geom.Geometry // nil when the granule has no sidecar
}

// Provider looks up one geometry file per granule under the mosaic folder.
type Provider struct {
	fsys   afero.Fs
	folder string
	logger *slog.Logger
	cache  *lru.Cache[uint64, entry]
}

var _ footprint.GeometryProvider = (*Provider)(nil)

func New(fsys afero.Fs, folder string, logger *slog.Logger) (*Provider, error) {
	cache, err := lru.New[uint64, entry](defaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("sidecar cache: %w", err)
	}
	return &Provider{fsys: fsys, folder: folder, logger: logger, cache: cache}, nil
}

// Footprint returns the granule's sidecar geometry, or nil when no sidecar
// file exists. Decoded geometries are kept in a bounded cache so repeated
// lookups for the same granule skip the filesystem.
func (p *Provider) Footprint(_ context.Context, granule footprint.GranuleRef) (geom.Geometry, error) {
	key := xxhash.Sum64String(granule.Location)
	if e, ok := p.cache.Get(key); ok {
		return e.g, nil
	}

	g, err := p.load(granule)
	if err != nil {
		return nil, err
	}
	p.cache.Add(key, entry{g: g})
	return g, nil
}

func (p *Provider) load(granule footprint.GranuleRef) (geom.Geometry, error) {
	base := granule.Location
	if !filepath.IsAbs(base) {
		base = filepath.Join(p.folder, base)
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))

	for _, ext := range extensions {
		path := base + ext
		ok, err := afero.Exists(p.fsys, path)
		if err != nil {
			return nil, fmt.Errorf("probe sidecar %s: %w", path, err)
		}
		if !ok {
			continue
		}
		data, err := afero.ReadFile(p.fsys, path)
		if err != nil {
			return nil, fmt.Errorf("read sidecar %s: %w", path, err)
		}
		g, err := decode(ext, data)
		if err != nil {
			return nil, fmt.Errorf("decode sidecar %s: %w", path, err)
		}
		return g, nil
	}

	if p.logger != nil {
		p.logger.Debug("no sidecar footprint", "granule", granule.Location)
	}
	return nil, nil
}

func decode(ext string, data []byte) (geom.Geometry, error) {
	switch ext {
	case ".wkt":
		return wkt.DecodeString(string(data))
	case ".geojson":
		var g geojson.Geometry
		if err := json.Unmarshal(data, &g); err != nil {
			return nil, err
		}
		return g.Geometry, nil
	}
	return nil, fmt.Errorf("unsupported sidecar extension %q", ext)
}
