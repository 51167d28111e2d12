// Package vectorstore adapts an attribute-queryable vector store into a
// per-granule footprint source.
package vectorstore

import (
	"context"
	"fmt"

	"github.com/go-spatial/geom"

	"github.com/geomosaic/footprint/internal/footprint"
	"github.com/geomosaic/footprint/internal/predicate"
)

// Record is one footprint row: attributes by field name plus its geometry.
type Record struct {
	Attributes map[string]any
	Geometry   geom.Geometry
}

// Store is the engine contract. Query returns every record matching the
// predicate for the given granule. Handles are opened once and held for the
// provider's lifetime; Close releases them.
type Store interface {
	Query(ctx context.Context, pred predicate.Predicate, granule footprint.GranuleRef) ([]Record, error)
	Close() error
}

// Provider matches footprint records against granules through a predicate.
type Provider struct {
	store    Store
	typeName string
	pred     predicate.Predicate
}

var _ footprint.GeometryProvider = (*Provider)(nil)

func New(store Store, typeName string, pred predicate.Predicate) *Provider {
	return &Provider{store: store, typeName: typeName, pred: pred}
}

// TypeName is the feature type served, derived from the source file name.
func (p *Provider) TypeName() string { return p.typeName }

// Footprint returns the single record geometry matching the granule. No
// match means no mask. More than one match is a data integrity problem in
// the footprint catalog and is surfaced as an error rather than resolved
// silently.
func (p *Provider) Footprint(ctx context.Context, granule footprint.GranuleRef) (geom.Geometry, error) {
	recs, err := p.store.Query(ctx, p.pred, granule)
	if err != nil {
		return nil, fmt.Errorf("query footprints for %s: %w", granule.Location, err)
	}
	switch len(recs) {
	case 0:
		return nil, nil
	case 1:
		return recs[0].Geometry, nil
	}
	return nil, fmt.Errorf("found %d footprint records for granule %s, expected at most one",
		len(recs), granule.Location)
}

// Close releases the backing store handle.
func (p *Provider) Close() error { return p.store.Close() }
