package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-spatial/geom/encoding/geojson"

	"github.com/geomosaic/footprint/internal/footprint"
)

type rasterMaskInfo struct {
	Kind   string `json:"kind"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Valid  int    `json:"valid_pixels"`
}

// serves the mask of one granule: GeoJSON for geometry masks, a summary for
// raster masks, 204 when the granule has no mask
func roiHandler(log *slog.Logger, provider footprint.ROIProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		granule := strings.TrimSpace(r.URL.Query().Get("granule"))
		if granule == "" {
			http.Error(w, "missing required parameter: granule", http.StatusBadRequest)
			return
		}
		level := 0
		if v := strings.TrimSpace(r.URL.Query().Get("level")); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				http.Error(w, "invalid level: "+v, http.StatusBadRequest)
				return
			}
			level = n
		}

		mask, err := provider.ROI(r.Context(), footprint.GranuleRef{Location: granule}, level)
		if err != nil {
			log.Warn("mask query failed", "granule", granule, "level", level, "err", err)
			status := http.StatusInternalServerError
			if errors.Is(err, footprint.ErrInsetComputation) {
				status = http.StatusUnprocessableEntity
			}
			http.Error(w, err.Error(), status)
			return
		}
		if mask == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if mask.Raster != nil {
			valid := 0
			for _, b := range mask.Raster.Data {
				if b != 0 {
					valid++
				}
			}
			_ = json.NewEncoder(w).Encode(rasterMaskInfo{
				Kind:   "raster",
				Width:  mask.Raster.Bounds.Dx(),
				Height: mask.Raster.Bounds.Dy(),
				Valid:  valid,
			})
			return
		}
		if err := json.NewEncoder(w).Encode(geojson.Geometry{Geometry: mask.Geometry}); err != nil {
			log.Warn("encode mask", "granule", granule, "err", err)
		}
	}
}
