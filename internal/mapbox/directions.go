package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"backend-gravelatlas/internal/snap"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

type directionsResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Geometry *geojson.Geometry `json:"geometry"`
		Distance float64           `json:"distance"`
		Duration float64           `json:"duration"`
	} `json:"routes"`
}

// Directions implements snap.Router with alternatives enabled and ferries
// excluded.
func (c *Client) Directions(ctx context.Context, from, to orb.Point, profile snap.Profile) ([]snap.Route, error) {
	path := fmt.Sprintf("/directions/v5/mapbox/%s/%s;%s", profile, lngLat(from), lngLat(to))
	q := url.Values{}
	q.Set("geometries", "geojson")
	q.Set("overview", "full")
	q.Set("alternatives", "true")
	q.Set("continue_straight", "true")
	q.Set("exclude", "ferry")

	body, err := c.get(ctx, path, q)
	if err != nil {
		return nil, err
	}
	var resp directionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode directions: %w", err)
	}
	if resp.Code != "" && resp.Code != "Ok" {
		return nil, fmt.Errorf("directions: %s", resp.Code)
	}

	routes := make([]snap.Route, 0, len(resp.Routes))
	for _, r := range resp.Routes {
		if r.Geometry == nil {
			continue
		}
		ls, ok := r.Geometry.Geometry().(orb.LineString)
		if !ok || len(ls) == 0 {
			continue
		}
		routes = append(routes, snap.Route{
			Path:      []orb.Point(ls),
			DistanceM: r.Distance,
			DurationS: r.Duration,
		})
	}
	return routes, nil
}

func lngLat(p orb.Point) string {
	return fmt.Sprintf("%f,%f", p.Lon(), p.Lat())
}
