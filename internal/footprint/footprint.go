// Package footprint defines the contracts shared by every per-granule mask
// strategy of a mosaic. Concrete providers live in subpackages; the
// resolution logic that picks one lives in internal/resolve.
package footprint

import (
	"context"
	"image"

	"github.com/go-spatial/geom"
)

// GranuleRef identifies one granule of the mosaic. Location is typically the
// granule's file path or URL and doubles as the join key against external
// footprint catalogs.
type GranuleRef struct {
	Location string
}

// RasterMask is a byte-per-pixel coverage mask sourced from an auxiliary
// raster channel. Zero means masked out, anything else means valid data.
type RasterMask struct {
	Bounds image.Rectangle
	Data   []uint8
}

// At reports whether the pixel at (x, y) carries valid data.
func (m *RasterMask) At(x, y int) bool {
	if m == nil || !image.Pt(x, y).In(m.Bounds) {
		return false
	}
	i := (y-m.Bounds.Min.Y)*m.Bounds.Dx() + (x - m.Bounds.Min.X)
	return m.Data[i] != 0
}

// Mask is the region-of-interest for one granule. Exactly one of Geometry or
// Raster is set: geometry-based strategies yield polygons in the granule's
// native coordinate space, the raster strategy yields a pixel mask. The
// caller is expected to branch on which side is present.
type Mask struct {
	Geometry geom.Geometry
	Raster   *RasterMask
}

// GeometryProvider is the capability every vector footprint strategy
// implements. A nil geometry with a nil error means the granule has no mask.
// Implementations must be safe for concurrent use once constructed.
type GeometryProvider interface {
	Footprint(ctx context.Context, granule GranuleRef) (geom.Geometry, error)
}

// ROIProvider is the single entry point handed to the mosaic pipeline. The
// level selects a pyramid (overview) level where the backing strategy is
// level-aware; geometry-based strategies ignore it. A nil *Mask with a nil
// error means no mask applies.
type ROIProvider interface {
	ROI(ctx context.Context, granule GranuleRef, level int) (*Mask, error)
}
