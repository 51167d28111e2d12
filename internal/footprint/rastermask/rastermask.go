// Package rastermask sources granule masks from auxiliary raster channels
// instead of vector geometry. Masks come back in raster form and are never
// inset-shrunk.
package rastermask

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/geomosaic/footprint/internal/footprint"
)

// Store fetches the pixel mask for a granule at a pyramid level. A nil mask
// with a nil error means the granule carries no mask channel.
type Store interface {
	Mask(ctx context.Context, granule footprint.GranuleRef, level int) (*footprint.RasterMask, error)
}

// Provider serves raster masks for a mosaic folder.
type Provider struct {
	store Store
}

var _ footprint.ROIProvider = (*Provider)(nil)

func New(store Store) *Provider {
	return &Provider{store: store}
}

func (p *Provider) ROI(ctx context.Context, granule footprint.GranuleRef, level int) (*footprint.Mask, error) {
	m, err := p.store.Mask(ctx, granule, level)
	if err != nil {
		return nil, fmt.Errorf("raster mask for %s: %w", granule.Location, err)
	}
	if m == nil {
		return nil, nil
	}
	return &footprint.Mask{Raster: m}, nil
}

// PNGStore reads per-granule mask channels from PNG files next to the
// granule: <base>.msk.png for the full resolution, <base>.msk.<level>.png
// for overview levels, falling back to the full resolution file.
type PNGStore struct {
	fsys   afero.Fs
	folder string
	logger *slog.Logger
}

var _ Store = (*PNGStore)(nil)

func NewPNGStore(fsys afero.Fs, folder string, logger *slog.Logger) *PNGStore {
	return &PNGStore{fsys: fsys, folder: folder, logger: logger}
}

func (s *PNGStore) Mask(_ context.Context, granule footprint.GranuleRef, level int) (*footprint.RasterMask, error) {
	base := granule.Location
	if !filepath.IsAbs(base) {
		base = filepath.Join(s.folder, base)
	}
	base = strings.TrimSuffix(base, filepath.Ext(base))

	candidates := []string{base + ".msk.png"}
	if level > 0 {
		candidates = []string{fmt.Sprintf("%s.msk.%d.png", base, level), base + ".msk.png"}
	}

	for _, path := range candidates {
		ok, err := afero.Exists(s.fsys, path)
		if err != nil {
			return nil, fmt.Errorf("probe %s: %w", path, err)
		}
		if !ok {
			continue
		}
		data, err := afero.ReadFile(s.fsys, path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return fromImage(img), nil
	}

	if s.logger != nil {
		s.logger.Debug("no raster mask", "granule", granule.Location, "level", level)
	}
	return nil, nil
}

// fromImage flattens the mask channel to one byte per pixel. A pixel is
// valid when it is neither transparent nor black.
func fromImage(img image.Image) *footprint.RasterMask {
	b := img.Bounds()
	m := &footprint.RasterMask{
		Bounds: b,
		Data:   make([]uint8, b.Dx()*b.Dy()),
	}
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			if a != 0 && r|g|bl != 0 {
				m.Data[i] = 1
			}
			i++
		}
	}
	return m
}
