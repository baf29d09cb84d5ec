package elevation

import (
	"context"

	"github.com/paulmach/orb"
)

// Reading is the elevation found for one point. Missing readings carry
// Elevation 0.
type Reading struct {
	Point     orb.Point
	Elevation float64
	Missing   bool
}

// Provider looks up elevations for a batch of points in one call. It returns
// one reading per input point, in order; failures on individual points are
// reported as Missing rather than as an error. The error is reserved for
// the caller's context ending.
type Provider interface {
	Lookup(ctx context.Context, points []orb.Point) ([]Reading, error)
}

func missingReadings(points []orb.Point) []Reading {
	out := make([]Reading, len(points))
	for i, p := range points {
		out[i] = Reading{Point: p, Missing: true}
	}
	return out
}
