// Package geos implements the geometry-shrink collaborator on top of the
// GEOS library, bridged over WKT.
package geos

import (
	"fmt"

	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/wkt"
	gogeos "github.com/paulsmith/gogeos/geos"

	"github.com/geomosaic/footprint/internal/config"
)

// Shrinker applies an inward buffer to footprint geometries. Border shrinks
// only the outer boundary of each polygon, carving the original holes back
// out of the result; Full buffers the whole geometry, holes included.
type Shrinker struct{}

func New() *Shrinker { return &Shrinker{} }

func (s *Shrinker) Shrink(g geom.Geometry, distance float64, policy config.InsetPolicy) (geom.Geometry, error) {
	if distance == 0 {
		return g, nil
	}
	polys, err := polygons(g)
	if err != nil {
		return nil, err
	}

	var out geom.MultiPolygon
	for _, poly := range polys {
		shrunk, err := shrinkPolygon(poly, distance, policy)
		if err != nil {
			return nil, err
		}
		out = append(out, shrunk...)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("inset %v collapsed the footprint to an empty geometry", distance)
	}
	if len(out) == 1 {
		return geom.Polygon(out[0]), nil
	}
	return out, nil
}

func shrinkPolygon(poly geom.Polygon, distance float64, policy config.InsetPolicy) ([][][][2]float64, error) {
	rings := poly.LinearRings()
	if len(rings) == 0 {
		return nil, fmt.Errorf("polygon has no rings")
	}

	subject := poly
	if policy == config.InsetBorder {
		// shrink the shell only, holes are restored afterwards
		subject = geom.Polygon{rings[0]}
	}

	gg, err := toGeos(subject)
	if err != nil {
		return nil, err
	}
	buffered, err := gg.Buffer(-distance)
	if err != nil {
		return nil, fmt.Errorf("buffer by %v: %w", -distance, err)
	}

	if policy == config.InsetBorder && len(rings) > 1 {
		var holes geom.MultiPolygon
		for _, hole := range rings[1:] {
			holes = append(holes, [][][2]float64{hole})
		}
		hg, err := toGeos(holes)
		if err != nil {
			return nil, err
		}
		buffered, err = buffered.Difference(hg)
		if err != nil {
			return nil, fmt.Errorf("carve holes: %w", err)
		}
	}

	empty, err := buffered.IsEmpty()
	if err != nil {
		return nil, fmt.Errorf("empty check: %w", err)
	}
	if empty {
		return nil, fmt.Errorf("inset %v collapsed the footprint to an empty geometry", distance)
	}

	decoded, err := fromGeos(buffered)
	if err != nil {
		return nil, err
	}
	return polygonSlices(decoded)
}

func toGeos(g geom.Geometry) (*gogeos.Geometry, error) {
	text, err := wkt.EncodeString(g)
	if err != nil {
		return nil, fmt.Errorf("encode wkt: %w", err)
	}
	gg, err := gogeos.FromWKT(text)
	if err != nil {
		return nil, fmt.Errorf("geos parse: %w", err)
	}
	return gg, nil
}

func fromGeos(g *gogeos.Geometry) (geom.Geometry, error) {
	text, err := g.ToWKT()
	if err != nil {
		return nil, fmt.Errorf("geos write wkt: %w", err)
	}
	decoded, err := wkt.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("decode wkt: %w", err)
	}
	return decoded, nil
}

func polygons(g geom.Geometry) ([]geom.Polygon, error) {
	slices, err := polygonSlices(g)
	if err != nil {
		return nil, err
	}
	out := make([]geom.Polygon, len(slices))
	for i, s := range slices {
		out[i] = geom.Polygon(s)
	}
	return out, nil
}

func polygonSlices(g geom.Geometry) ([][][][2]float64, error) {
	switch t := g.(type) {
	case geom.Polygon:
		return [][][][2]float64{t.LinearRings()}, nil
	case *geom.Polygon:
		return [][][][2]float64{t.LinearRings()}, nil
	case geom.MultiPolygon:
		return t.Polygons(), nil
	case *geom.MultiPolygon:
		return t.Polygons(), nil
	}
	return nil, fmt.Errorf("unsupported geometry type %T, want polygon or multipolygon", g)
}
