// Package metricswrap wraps an ROI provider with Prometheus query counters.
package metricswrap

import (
	"context"

	"github.com/geomosaic/footprint/internal/footprint"
)

// Recorder receives one observation per mask query.
type Recorder interface {
	RecordQuery(variant, outcome string)
}

type WithMetrics struct {
	inner   footprint.ROIProvider
	rec     Recorder
	variant string
}

var _ footprint.ROIProvider = (*WithMetrics)(nil)

func Wrap(inner footprint.ROIProvider, rec Recorder, variant string) *WithMetrics {
	return &WithMetrics{inner: inner, rec: rec, variant: variant}
}

func (w *WithMetrics) ROI(ctx context.Context, granule footprint.GranuleRef, level int) (*footprint.Mask, error) {
	m, err := w.inner.ROI(ctx, granule, level)
	switch {
	case err != nil:
		w.rec.RecordQuery(w.variant, "error")
	case m == nil:
		w.rec.RecordQuery(w.variant, "empty")
	default:
		w.rec.RecordQuery(w.variant, "hit")
	}
	return m, err
}
