package shapefile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/containerd/errdefs"
	"github.com/go-spatial/geom"
	shp "github.com/jonas-p/go-shp"

	"github.com/geomosaic/footprint/internal/footprint"
	"github.com/geomosaic/footprint/internal/predicate"
)

// writes a two-record footprint shapefile with location and id columns
func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "footprints.shp")
	w, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		t.Fatalf("create shapefile: %v", err)
	}

	w.SetFields([]shp.Field{
		shp.StringField("location", 64),
		shp.NumberField("id", 8),
	})

	shapes := []struct {
		points   [][]shp.Point
		location string
		id       int
	}{
		{[][]shp.Point{{{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 0}}}, "a.tif", 3},
		{[][]shp.Point{{{X: 20, Y: 20}, {X: 20, Y: 30}, {X: 30, Y: 30}, {X: 30, Y: 20}, {X: 20, Y: 20}}}, "b.tif", 4},
	}
	for row, s := range shapes {
		poly := (*shp.Polygon)(shp.NewPolyLine(s.points))
		w.Write(poly)
		if err := w.WriteAttribute(row, 0, s.location); err != nil {
			t.Fatalf("write location attr: %v", err)
		}
		if err := w.WriteAttribute(row, 1, s.id); err != nil {
			t.Fatalf("write id attr: %v", err)
		}
	}
	w.Close()

	// go-shp's writer drops the dbf next to the shp without the dot in its
	// extension; move it to the <base>.dbf name the reader expects
	base := strings.TrimSuffix(path, ".shp")
	if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
		t.Fatalf("rename attribute table: %v", err)
	}
	return path
}

func TestOpen_MissingFileFails(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "nope.shp")); err == nil {
		t.Fatal("expected error for missing shapefile")
	}
}

func TestOpen_MissingAttributeTableFails(t *testing.T) {
	path := writeFixture(t)
	dbf := strings.TrimSuffix(path, ".shp") + ".dbf"
	if err := os.Remove(dbf); err != nil {
		t.Fatalf("remove attribute table: %v", err)
	}

	_, err := Open(path)
	if err == nil {
		t.Fatal("expected error for missing attribute table")
	}
	if !errdefs.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if !strings.Contains(err.Error(), dbf) {
		t.Fatalf("error does not name the dbf path: %v", err)
	}
}

func TestQuery_LocationJoin(t *testing.T) {
	store, err := Open(writeFixture(t))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	recs, err := store.Query(context.Background(),
		predicate.LocationEquals{Field: "location"},
		footprint.GranuleRef{Location: "a.tif"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	poly, ok := recs[0].Geometry.(geom.Polygon)
	if !ok {
		t.Fatalf("geometry type = %T, want polygon", recs[0].Geometry)
	}
	if len(poly.LinearRings()) != 1 {
		t.Fatalf("rings = %d, want 1", len(poly.LinearRings()))
	}
}

func TestQuery_NumericAttributeFilter(t *testing.T) {
	store, err := Open(writeFixture(t))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	pred, err := predicate.Parse("id == 4")
	if err != nil {
		t.Fatalf("parse filter: %v", err)
	}
	recs, err := store.Query(context.Background(), pred, footprint.GranuleRef{Location: "ignored"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	if recs[0].Attributes["location"] != "b.tif" {
		t.Fatalf("wrong record matched: %v", recs[0].Attributes)
	}
}

func TestQuery_NoMatch(t *testing.T) {
	store, err := Open(writeFixture(t))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	recs, err := store.Query(context.Background(),
		predicate.LocationEquals{Field: "location"},
		footprint.GranuleRef{Location: "zzz.tif"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("got %d records, want none", len(recs))
	}
}
