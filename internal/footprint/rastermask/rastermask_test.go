package rastermask

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/spf13/afero"

	"github.com/geomosaic/footprint/internal/footprint"
)

// writes a 4x2 mask: left half opaque white, right half transparent
func writeMask(t *testing.T, fs afero.Fs, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			if x < 2 {
				img.Set(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
			} else {
				img.Set(x, y, color.NRGBA{})
			}
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode mask: %v", err)
	}
	if err := afero.WriteFile(fs, path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write mask %s: %v", path, err)
	}
}

func TestROI_DecodesMaskChannel(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeMask(t, fs, "/mosaic/tile_a.msk.png")
	p := New(NewPNGStore(fs, "/mosaic", nil))

	mask, err := p.ROI(context.Background(), footprint.GranuleRef{Location: "tile_a.tif"}, 0)
	if err != nil {
		t.Fatalf("roi: %v", err)
	}
	if mask == nil || mask.Raster == nil {
		t.Fatalf("mask = %+v, want raster side set", mask)
	}
	if mask.Geometry != nil {
		t.Fatal("raster mask must not carry a geometry")
	}
	r := mask.Raster
	if r.Bounds.Dx() != 4 || r.Bounds.Dy() != 2 {
		t.Fatalf("bounds = %v, want 4x2", r.Bounds)
	}
	if !r.At(0, 0) || !r.At(1, 1) {
		t.Fatal("opaque pixels reported as masked")
	}
	if r.At(2, 0) || r.At(3, 1) {
		t.Fatal("transparent pixels reported as valid")
	}
	if r.At(-1, 0) || r.At(4, 0) {
		t.Fatal("out of bounds pixels reported as valid")
	}
}

func TestROI_AbsentMaskMeansNoMask(t *testing.T) {
	p := New(NewPNGStore(afero.NewMemMapFs(), "/mosaic", nil))
	mask, err := p.ROI(context.Background(), footprint.GranuleRef{Location: "tile_a.tif"}, 0)
	if err != nil {
		t.Fatalf("roi: %v", err)
	}
	if mask != nil {
		t.Fatalf("expected no mask, got %+v", mask)
	}
}

func TestROI_LevelSpecificMaskPreferred(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeMask(t, fs, "/mosaic/tile_a.msk.png")

	// level 2 mask is a single valid pixel
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode level mask: %v", err)
	}
	if err := afero.WriteFile(fs, "/mosaic/tile_a.msk.2.png", buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write level mask: %v", err)
	}

	p := New(NewPNGStore(fs, "/mosaic", nil))
	mask, err := p.ROI(context.Background(), footprint.GranuleRef{Location: "tile_a.tif"}, 2)
	if err != nil {
		t.Fatalf("roi: %v", err)
	}
	if mask == nil || mask.Raster == nil {
		t.Fatalf("mask = %+v, want raster", mask)
	}
	if mask.Raster.Bounds.Dx() != 1 {
		t.Fatalf("level 2 mask not used, bounds = %v", mask.Raster.Bounds)
	}
}

func TestROI_MissingLevelFallsBackToBase(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeMask(t, fs, "/mosaic/tile_a.msk.png")
	p := New(NewPNGStore(fs, "/mosaic", nil))

	mask, err := p.ROI(context.Background(), footprint.GranuleRef{Location: "tile_a.tif"}, 3)
	if err != nil {
		t.Fatalf("roi: %v", err)
	}
	if mask == nil || mask.Raster == nil || mask.Raster.Bounds.Dx() != 4 {
		t.Fatalf("mask = %+v, want base mask fallback", mask)
	}
}
