package footprint

import "errors"

// ErrSourceBuild marks a construction failure of a footprint source. The
// original cause (store open error, predicate parse error) stays in the
// chain.
var ErrSourceBuild = errors.New("failed to build footprint source")

// ErrInsetComputation marks a degenerate shrink result at query time, e.g.
// an inset distance that collapses the footprint to nothing. It is surfaced
// per granule and never aborts the mosaic.
var ErrInsetComputation = errors.New("footprint inset computation failed")
