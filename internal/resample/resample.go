package resample

import (
	"math"

	"backend-gravelatlas/internal/shared/geo"
	"backend-gravelatlas/internal/surface"

	"github.com/paulmach/orb"
)

const (
	DefaultSpacingM = 100
	// samples closer than this to the end are replaced by the end itself
	endEpsilonKm = 1e-6
)

// Sample is a resampled waypoint with the surface drawn under it.
type Sample struct {
	Point   orb.Point    `json:"point"`
	Surface surface.Type `json:"surfaceType"`
}

// SurfaceSource classifies the surface at a point from rendered layers.
type SurfaceSource interface {
	SurfaceAt(p orb.Point) surface.Type
}

type Resampler struct {
	surfaces  SurfaceSource
	spacingKm float64
}

func New(surfaces SurfaceSource, spacingM float64) *Resampler {
	if spacingM <= 0 {
		spacingM = DefaultSpacingM
	}
	return &Resampler{surfaces: surfaces, spacingKm: spacingM / 1000}
}

// Resample walks path at fixed spacing and tags each waypoint.
func (r *Resampler) Resample(path []orb.Point) []Sample {
	points := Points(path, r.spacingKm)
	out := make([]Sample, len(points))
	for i, p := range points {
		out[i] = Sample{Point: p, Surface: r.surfaceAt(p)}
	}
	return out
}

func (r *Resampler) surfaceAt(p orb.Point) surface.Type {
	if r.surfaces == nil {
		return surface.Unknown
	}
	return r.surfaces.SurfaceAt(p)
}

// Points returns waypoints every spacingKm along the cumulative length of
// path, always ending with the path's last vertex.
func Points(path []orb.Point, spacingKm float64) []orb.Point {
	switch len(path) {
	case 0:
		return nil
	case 1:
		return []orb.Point{path[0]}
	}

	cum := geo.Cumulative(path)
	length := cum[len(cum)-1]
	count := int(math.Floor(length/spacingKm+1e-9)) + 1

	out := make([]orb.Point, 0, count+1)
	for i := 0; i < count; i++ {
		out = append(out, geo.Along(path, cum, float64(i)*spacingKm))
	}

	end := path[len(path)-1]
	if geo.DistanceKm(out[len(out)-1], end) < endEpsilonKm {
		out[len(out)-1] = end
	} else {
		out = append(out, end)
	}
	return out
}
