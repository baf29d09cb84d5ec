package draw

import (
	"context"

	"backend-gravelatlas/internal/elevation"
	"backend-gravelatlas/internal/gpx"
	"backend-gravelatlas/internal/segment"
	"backend-gravelatlas/internal/surface"

	"github.com/paulmach/orb"
)

// Saver persists a finished drawing. segment.Service satisfies it.
type Saver interface {
	Create(ctx context.Context, in segment.CreateInput) (segment.Segment, error)
}

// Save finishes the session if needed and publishes it as a segment. It
// succeeds at most once per session.
func (s *Session) Save(ctx context.Context, saver Saver, title, ownerName string) (segment.Segment, error) {
	s.mu.Lock()
	if s.saved {
		s.mu.Unlock()
		return segment.Segment{}, ErrAlreadySaved
	}
	feature := s.finishLocked()
	if feature == nil {
		s.mu.Unlock()
		return segment.Segment{}, ErrTooFewPoints
	}
	coords := append([]orb.Point{}, s.coords...)
	profile := append([]elevation.Point{}, s.profile...)
	dominant := s.stats.Dominant()
	s.saved = true
	s.mu.Unlock()

	seg, err := publish(ctx, saver, segment.CreateInput{
		Title:            title,
		GeoJSON:          feature,
		ElevationProfile: profile,
		SurfaceTypes:     []surface.Type{dominant},
		OwnerID:          s.OwnerID,
		OwnerName:        ownerName,
	}, coords)
	if err != nil {
		s.mu.Lock()
		s.saved = false
		s.mu.Unlock()
		return segment.Segment{}, err
	}
	return seg, nil
}

func publish(ctx context.Context, saver Saver, in segment.CreateInput, coords []orb.Point) (segment.Segment, error) {
	doc, err := gpx.Build(in.Title, coords, nil)
	if err != nil {
		return segment.Segment{}, err
	}
	in.GPXData = doc
	return saver.Create(ctx, in)
}
