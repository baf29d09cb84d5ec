package tiles

import (
	"context"
	"math"

	"backend-gravelatlas/internal/snap"
	"backend-gravelatlas/internal/surface"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// NearbyRoads implements snap.RoadQuery against the local road layer.
// Candidates carry the nearest on-line coordinate and ground distance.
func (ix *Index) NearbyRoads(ctx context.Context, p orb.Point, radiusM float64, limit int) ([]snap.RoadFeature, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// mercator meters stretch by 1/cos(lat)
	scale := math.Cos(p.Lat() * math.Pi / 180)
	if scale <= 0 {
		return nil, nil
	}
	mp := project.Point(p, project.WGS84.ToMercator)

	ix.mu.RLock()
	hits := ix.within(LayerRoad, mp, radiusM/scale)
	ix.mu.RUnlock()

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]snap.RoadFeature, 0, len(hits))
	for _, h := range hits {
		near := project.Point(nearestOn(h.f.merc, mp), project.Mercator.ToWGS84)
		out = append(out, snap.RoadFeature{
			Point:     near,
			Tags:      surface.ParseTags(h.f.Properties),
			DistanceM: h.dist * scale,
		})
	}
	return out, nil
}
