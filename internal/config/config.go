// Package config resolves the footprint settings of a mosaic folder into a
// typed form. The settings file is optional; every key has a default.
package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/containerd/errdefs"
	"github.com/magiconair/properties"
	"github.com/spf13/afero"
)

// well known keys of footprints.properties
const (
	SourceKey    = "footprint_source"
	FilterKey    = "footprint_filter"
	InsetKey     = "footprint_inset"
	InsetTypeKey = "footprint_inset_type"
)

// PropertiesFile is the per-mosaic settings file name.
const PropertiesFile = "footprints.properties"

// source tokens
const (
	tokenSidecar = "sidecar"
	tokenRaster  = "raster"
)

// Raw is the flat key/value settings map as loaded from the mosaic folder.
// Unknown keys are ignored.
type Raw map[string]string

// SourceKind tags the masking strategy named by the settings.
type SourceKind int

const (
	// SourceDefault means no explicit source was given; the actual strategy
	// is decided later by probing the mosaic folder.
	SourceDefault SourceKind = iota
	SourceSidecar
	SourceShapefile
	SourceRaster
)

func (k SourceKind) String() string {
	switch k {
	case SourceDefault:
		return "default"
	case SourceSidecar:
		return "sidecar"
	case SourceShapefile:
		return "shapefile"
	case SourceRaster:
		return "raster"
	}
	return fmt.Sprintf("sourcekind(%d)", int(k))
}

// InsetPolicy names how an inset distance is applied to a footprint.
type InsetPolicy string

const (
	// InsetBorder shrinks only the outer boundary, leaving holes untouched.
	InsetBorder InsetPolicy = "border"
	// InsetFull shrinks the whole geometry, holes included.
	InsetFull InsetPolicy = "full"
)

// InsetPolicyNames lists the accepted footprint_inset_type values.
func InsetPolicyNames() []string {
	return []string{string(InsetBorder), string(InsetFull)}
}

// ParseInsetPolicy maps a raw footprint_inset_type value to a policy.
// Blank means border.
func ParseInsetPolicy(v string) (InsetPolicy, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return InsetBorder, nil
	}
	switch InsetPolicy(v) {
	case InsetBorder, InsetFull:
		return InsetPolicy(v), nil
	}
	return "", fmt.Errorf("invalid inset type %q, valid values are: %s: %w",
		v, strings.Join(InsetPolicyNames(), ", "), errdefs.ErrInvalidArgument)
}

// Resolved is the typed footprint configuration derived once from Raw.
type Resolved struct {
	Source SourceKind
	// SourcePath is the shapefile reference, set only for SourceShapefile.
	// May be relative to the mosaic folder.
	SourcePath string
	// Filter is the raw predicate text, forwarded verbatim to the predicate
	// parser. Empty means the default location-equality match.
	Filter string
	Inset  float64
	// InsetType is always well defined, even when Inset is zero.
	InsetType InsetPolicy
}

// Resolve derives the typed configuration from the raw settings map.
func Resolve(raw Raw) (Resolved, error) {
	out := Resolved{InsetType: InsetBorder}

	switch src := raw[SourceKey]; {
	case src == "":
		out.Source = SourceDefault
	case src == tokenSidecar:
		out.Source = SourceSidecar
	case src == tokenRaster:
		out.Source = SourceRaster
	case strings.HasSuffix(strings.ToLower(src), ".shp"):
		out.Source = SourceShapefile
		out.SourcePath = src
	default:
		return Resolved{}, fmt.Errorf(
			"invalid source type, it should be a reference to a shapefile or %q, but was %q instead: %w",
			tokenSidecar, src, errdefs.ErrInvalidArgument)
	}

	out.Filter = raw[FilterKey]

	if v := raw[InsetKey]; v != "" {
		inset, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return Resolved{}, fmt.Errorf(
				"invalid inset value, should be a floating point number, but instead it is %q: %w",
				v, errdefs.ErrInvalidArgument)
		}
		if inset < 0 {
			return Resolved{}, fmt.Errorf(
				"invalid inset value, should be non-negative, but instead it is %q: %w",
				v, errdefs.ErrInvalidArgument)
		}
		out.Inset = inset
	}

	policy, err := ParseInsetPolicy(raw[InsetTypeKey])
	if err != nil {
		return Resolved{}, err
	}
	out.InsetType = policy

	return out, nil
}

// Load reads footprints.properties from the mosaic folder. A missing file
// yields an empty Raw, matching the all-defaults behavior.
func Load(fsys afero.Fs, folder string) (Raw, error) {
	path := filepath.Join(folder, PropertiesFile)
	ok, err := afero.Exists(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", path, err)
	}
	if !ok {
		return Raw{}, nil
	}
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	props, err := properties.Load(data, properties.UTF8)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	raw := make(Raw, len(props.Keys()))
	for _, k := range props.Keys() {
		if v, ok := props.Get(k); ok {
			raw[k] = v
		}
	}
	return raw, nil
}
