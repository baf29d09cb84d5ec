package segment

import (
	"context"
	"fmt"
	"strings"

	"backend-gravelatlas/internal/elevation"
	"backend-gravelatlas/internal/gpx"
	"backend-gravelatlas/internal/shared/geo"
	"backend-gravelatlas/internal/surface"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ImportInput is an uploaded GPX file. Title falls back to the GPX name.
type ImportInput struct {
	Title     string
	GPXData   string
	OwnerID   string
	OwnerName string
}

// Import creates a segment from a GPX track recorded elsewhere. The profile
// comes from the file's own elevations when every point has one; surfaces
// are unknown.
func (s *Service) Import(ctx context.Context, in ImportInput) (Segment, error) {
	track, err := gpx.Parse(in.GPXData)
	if err != nil {
		return Segment{}, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}
	if len(track.Points) < 2 {
		return Segment{}, ErrInvalidGeometry
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = strings.TrimSpace(track.Name)
	}

	feature := geojson.NewFeature(orb.LineString(track.Points))
	feature.Properties["surfaceTypes"] = []surface.Type{surface.Unknown}

	return s.Create(ctx, CreateInput{
		Title:            title,
		GeoJSON:          feature,
		GPXData:          in.GPXData,
		ElevationProfile: trackProfile(track),
		SurfaceTypes:     []surface.Type{surface.Unknown},
		OwnerID:          in.OwnerID,
		OwnerName:        in.OwnerName,
	})
}

func trackProfile(t gpx.Track) []elevation.Point {
	if len(t.Elevations) != len(t.Points) {
		return nil
	}
	dist := geo.Cumulative(t.Points)
	grades := elevation.Grades(dist, t.Elevations, elevation.DefaultBaselineM/1000.0)
	out := make([]elevation.Point, len(t.Points))
	for i := range t.Points {
		out[i] = elevation.Point{
			DistanceKm: dist[i],
			Elevation:  t.Elevations[i],
			Surface:    surface.Unknown,
			Grade:      grades[i],
		}
	}
	return out
}
