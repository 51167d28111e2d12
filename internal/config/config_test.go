package config

import (
	"strings"
	"testing"

	"github.com/containerd/errdefs"
	"github.com/spf13/afero"
)

func TestResolve_EmptyRawUsesDefaults(t *testing.T) {
	got, err := Resolve(Raw{})
	if err != nil {
		t.Fatalf("resolve empty raw: %v", err)
	}
	if got.Source != SourceDefault {
		t.Fatalf("source = %v, want default", got.Source)
	}
	if got.Inset != 0 {
		t.Fatalf("inset = %v, want 0", got.Inset)
	}
	if got.InsetType != InsetBorder {
		t.Fatalf("inset type = %q, want border", got.InsetType)
	}
	if got.Filter != "" {
		t.Fatalf("filter = %q, want empty", got.Filter)
	}
}

func TestResolve_SourceKinds(t *testing.T) {
	cases := []struct {
		name     string
		source   string
		want     SourceKind
		wantPath string
	}{
		{"sidecar", "sidecar", SourceSidecar, ""},
		{"raster", "raster", SourceRaster, ""},
		{"shapefile", "zones.shp", SourceShapefile, "zones.shp"},
		{"shapefile uppercase ext", "ZONES.SHP", SourceShapefile, "ZONES.SHP"},
		{"shapefile relative path", "masks/zones.shp", SourceShapefile, "masks/zones.shp"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Resolve(Raw{SourceKey: tc.source})
			if err != nil {
				t.Fatalf("resolve %q: %v", tc.source, err)
			}
			if got.Source != tc.want {
				t.Fatalf("source = %v, want %v", got.Source, tc.want)
			}
			if got.SourcePath != tc.wantPath {
				t.Fatalf("source path = %q, want %q", got.SourcePath, tc.wantPath)
			}
		})
	}
}

func TestResolve_UnknownSourceFails(t *testing.T) {
	_, err := Resolve(Raw{SourceKey: "postgis"})
	if err == nil {
		t.Fatal("expected error for unknown source")
	}
	if !errdefs.IsInvalidArgument(err) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if !strings.Contains(err.Error(), "postgis") {
		t.Fatalf("error does not echo the offending value: %v", err)
	}
	if !strings.Contains(err.Error(), "sidecar") {
		t.Fatalf("error does not name the sidecar token: %v", err)
	}
}

func TestResolve_BadInsetFails(t *testing.T) {
	_, err := Resolve(Raw{InsetKey: "abc"})
	if err == nil {
		t.Fatal("expected error for non-numeric inset")
	}
	if !errdefs.IsInvalidArgument(err) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if !strings.Contains(err.Error(), "abc") {
		t.Fatalf("error does not contain the offending value: %v", err)
	}
}

func TestResolve_NegativeInsetFails(t *testing.T) {
	_, err := Resolve(Raw{InsetKey: "-3"})
	if err == nil {
		t.Fatal("expected error for negative inset")
	}
	if !errdefs.IsInvalidArgument(err) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestResolve_InsetParsed(t *testing.T) {
	got, err := Resolve(Raw{InsetKey: "0.5", InsetTypeKey: "full"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.Inset != 0.5 {
		t.Fatalf("inset = %v, want 0.5", got.Inset)
	}
	if got.InsetType != InsetFull {
		t.Fatalf("inset type = %q, want full", got.InsetType)
	}
}

func TestResolve_UnknownInsetTypeListsPolicies(t *testing.T) {
	_, err := Resolve(Raw{InsetTypeKey: "bogus"})
	if err == nil {
		t.Fatal("expected error for unknown inset type")
	}
	if !errdefs.IsInvalidArgument(err) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	for _, name := range InsetPolicyNames() {
		if !strings.Contains(err.Error(), name) {
			t.Fatalf("error does not enumerate policy %q: %v", name, err)
		}
	}
	if !strings.Contains(err.Error(), "bogus") {
		t.Fatalf("error does not echo the offending value: %v", err)
	}
}

func TestParseInsetPolicy_BlankMeansBorder(t *testing.T) {
	for _, v := range []string{"", "   ", "\t"} {
		got, err := ParseInsetPolicy(v)
		if err != nil {
			t.Fatalf("parse %q: %v", v, err)
		}
		if got != InsetBorder {
			t.Fatalf("parse %q = %q, want border", v, got)
		}
	}
}

func TestLoad_MissingFileYieldsEmptyRaw(t *testing.T) {
	fs := afero.NewMemMapFs()
	raw, err := Load(fs, "/mosaic")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(raw) != 0 {
		t.Fatalf("raw = %v, want empty", raw)
	}
}

func TestLoad_ReadsProperties(t *testing.T) {
	fs := afero.NewMemMapFs()
	data := []byte("footprint_source = zones.shp\nfootprint_filter = id == 3\nfootprint_inset = 0.01\n")
	if err := afero.WriteFile(fs, "/mosaic/footprints.properties", data, 0o644); err != nil {
		t.Fatalf("write properties: %v", err)
	}

	raw, err := Load(fs, "/mosaic")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if raw[SourceKey] != "zones.shp" {
		t.Fatalf("source = %q, want zones.shp", raw[SourceKey])
	}
	if raw[FilterKey] != "id == 3" {
		t.Fatalf("filter = %q, want id == 3", raw[FilterKey])
	}
	if raw[InsetKey] != "0.01" {
		t.Fatalf("inset = %q, want 0.01", raw[InsetKey])
	}
}
