package mapbox

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"backend-gravelatlas/internal/snap"
	"backend-gravelatlas/internal/surface"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const streetsTileset = "mapbox.mapbox-streets-v8"

// NearbyRoads implements snap.RoadQuery with the tilequery API on the
// streets road layer.
func (c *Client) NearbyRoads(ctx context.Context, p orb.Point, radiusM float64, limit int) ([]snap.RoadFeature, error) {
	path := fmt.Sprintf("/v4/%s/tilequery/%s.json", streetsTileset, lngLat(p))
	q := url.Values{}
	q.Set("radius", strconv.FormatFloat(radiusM, 'f', -1, 64))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("layers", "road")
	q.Set("geometry", "linestring")

	body, err := c.get(ctx, path, q)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, fmt.Errorf("decode tilequery: %w", err)
	}

	out := make([]snap.RoadFeature, 0, len(fc.Features))
	for _, f := range fc.Features {
		pt, ok := f.Geometry.(orb.Point)
		if !ok {
			continue
		}
		out = append(out, snap.RoadFeature{
			Point:     pt,
			Tags:      surface.ParseTags(f.Properties),
			DistanceM: tilequeryDistance(f.Properties),
		})
	}
	return out, nil
}

func tilequeryDistance(props geojson.Properties) float64 {
	tq, ok := props["tilequery"].(map[string]interface{})
	if !ok {
		return 0
	}
	d, _ := tq["distance"].(float64)
	return d
}
