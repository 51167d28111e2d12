// Package inset layers an inward shrink on top of any geometry footprint
// provider. The shrink itself belongs to a geometry collaborator; this
// decorator only routes the distance and policy through.
package inset

import (
	"context"
	"fmt"

	"github.com/go-spatial/geom"

	"github.com/geomosaic/footprint/internal/config"
	"github.com/geomosaic/footprint/internal/footprint"
)

// Shrinker is the geometry-shrink collaborator contract.
type Shrinker interface {
	Shrink(g geom.Geometry, distance float64, policy config.InsetPolicy) (geom.Geometry, error)
}

// Decorator wraps a geometry provider and shrinks every returned footprint.
// A zero distance makes it transparent; the wrap is applied regardless so
// every geometry-based provider tree has the same shape.
type Decorator struct {
	inner    footprint.GeometryProvider
	shrinker Shrinker
	distance float64
	policy   config.InsetPolicy
}

var (
	_ footprint.GeometryProvider = (*Decorator)(nil)
	_ footprint.ROIProvider      = (*Decorator)(nil)
)

func Wrap(inner footprint.GeometryProvider, shrinker Shrinker, distance float64, policy config.InsetPolicy) *Decorator {
	return &Decorator{inner: inner, shrinker: shrinker, distance: distance, policy: policy}
}

// Inner exposes the wrapped provider.
func (d *Decorator) Inner() footprint.GeometryProvider { return d.inner }

// Distance is the configured inset distance.
func (d *Decorator) Distance() float64 { return d.distance }

func (d *Decorator) Footprint(ctx context.Context, granule footprint.GranuleRef) (geom.Geometry, error) {
	g, err := d.inner.Footprint(ctx, granule)
	if err != nil || g == nil {
		return g, err
	}
	if d.distance == 0 {
		return g, nil
	}
	shrunk, err := d.shrinker.Shrink(g, d.distance, d.policy)
	if err != nil {
		return nil, fmt.Errorf("inset %v on granule %s: %w: %w",
			d.distance, granule.Location, footprint.ErrInsetComputation, err)
	}
	return shrunk, nil
}

func (d *Decorator) ROI(ctx context.Context, granule footprint.GranuleRef, level int) (*footprint.Mask, error) {
	return geometryROI(ctx, d, granule)
}

// GeometryROI adapts any geometry provider to the multi-level ROI contract.
// Geometry footprints live in granule-native coordinates and do not vary by
// pyramid level, so the level is ignored.
type GeometryROI struct {
	Provider footprint.GeometryProvider
}

var _ footprint.ROIProvider = GeometryROI{}

func (a GeometryROI) ROI(ctx context.Context, granule footprint.GranuleRef, _ int) (*footprint.Mask, error) {
	return geometryROI(ctx, a.Provider, granule)
}

func geometryROI(ctx context.Context, p footprint.GeometryProvider, granule footprint.GranuleRef) (*footprint.Mask, error) {
	g, err := p.Footprint(ctx, granule)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, nil
	}
	return &footprint.Mask{Geometry: g}, nil
}
