// Package shapefile is the vector-store engine for .shp footprint sources.
// The footprint table of a mosaic is a small index, so the whole file is
// read once at open time and queries run against the in-memory records.
package shapefile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/containerd/errdefs"
	"github.com/go-spatial/geom"
	shp "github.com/jonas-p/go-shp"

	"github.com/geomosaic/footprint/internal/footprint"
	"github.com/geomosaic/footprint/internal/footprint/vectorstore"
	"github.com/geomosaic/footprint/internal/predicate"
)

type Store struct {
	path    string
	records []vectorstore.Record
}

var _ vectorstore.Store = (*Store)(nil)

// Open reads the shapefile and its dbf attribute table at path. A missing
// attribute table is an open error: without it every predicate, including
// the default location join, would silently match nothing.
func Open(path string) (*Store, error) {
	dbfPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".dbf"
	if _, err := os.Stat(dbfPath); err != nil {
		return nil, fmt.Errorf("attribute table %s: %v: %w", dbfPath, err, errdefs.ErrNotFound)
	}

	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile %s: %w", path, err)
	}
	defer r.Close()

	fields := r.Fields()
	var records []vectorstore.Record
	for row := 0; r.Next(); row++ {
		_, shape := r.Shape()
		g, err := toGeom(shape)
		if err != nil {
			return nil, fmt.Errorf("shapefile %s row %d: %w", path, row, err)
		}
		attrs := make(map[string]any, len(fields))
		for i, f := range fields {
			attrs[f.String()] = convert(f, r.ReadAttribute(row, i))
		}
		records = append(records, vectorstore.Record{Attributes: attrs, Geometry: g})
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read shapefile %s: %w", path, err)
	}
	return &Store{path: path, records: records}, nil
}

func (s *Store) Query(_ context.Context, pred predicate.Predicate, granule footprint.GranuleRef) ([]vectorstore.Record, error) {
	var out []vectorstore.Record
	for _, rec := range s.records {
		ok, err := pred.Matches(rec.Attributes, granule)
		if err != nil {
			return nil, fmt.Errorf("match against %s: %w", s.path, err)
		}
		if ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *Store) Close() error { return nil }

func toGeom(shape shp.Shape) (geom.Geometry, error) {
	p, ok := shape.(*shp.Polygon)
	if !ok {
		return nil, fmt.Errorf("unsupported shape type %T, want polygon", shape)
	}
	var poly geom.Polygon
	for part := range p.Parts {
		start := int(p.Parts[part])
		end := len(p.Points)
		if part+1 < len(p.Parts) {
			end = int(p.Parts[part+1])
		}
		ring := make([][2]float64, 0, end-start)
		for _, pt := range p.Points[start:end] {
			ring = append(ring, [2]float64{pt.X, pt.Y})
		}
		poly = append(poly, ring)
	}
	return poly, nil
}

// convert maps a dbf cell to a predicate-friendly value. Numeric columns
// become float64 so filters like `id == 3` compare naturally.
func convert(f shp.Field, raw string) any {
	v := strings.TrimRight(strings.TrimSpace(raw), "\x00")
	switch f.Fieldtype {
	case 'N', 'F':
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	case 'L':
		switch strings.ToLower(v) {
		case "t", "y", "true":
			return true
		case "f", "n", "false":
			return false
		}
	}
	return v
}
