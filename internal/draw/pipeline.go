package draw

import (
	"context"

	"backend-gravelatlas/internal/elevation"
	"backend-gravelatlas/internal/resample"
	"backend-gravelatlas/internal/snap"

	"github.com/paulmach/orb"
)

// Pipeline runs snap, resample and elevation for a single click.
type Pipeline struct {
	snapper   *snap.Snapper
	resampler *resample.Resampler
	enricher  *elevation.Enricher
}

func NewPipeline(snapper *snap.Snapper, resampler *resample.Resampler, enricher *elevation.Enricher) *Pipeline {
	return &Pipeline{snapper: snapper, resampler: resampler, enricher: enricher}
}

// Run returns the road path for click and its elevation profile with
// distances starting at 0. With snapping off a straight line from prev is
// drawn. The only error is context cancellation.
func (p *Pipeline) Run(ctx context.Context, click orb.Point, prev *orb.Point, snapOn bool) (Segment, []elevation.Point, error) {
	res, err := p.snapper.Snap(ctx, click, prev, snapOn)
	if err != nil {
		return Segment{}, nil, err
	}
	path := res.Path
	if !snapOn && prev != nil {
		path = []orb.Point{*prev, click}
	}

	samples := p.resampler.Resample(path)
	profile, err := p.enricher.Enrich(ctx, samples)
	if err != nil {
		return Segment{}, nil, err
	}
	if err := ctx.Err(); err != nil {
		return Segment{}, nil, err
	}
	return Segment{RoadPoints: path, RoadInfo: res.Tags}, profile, nil
}
