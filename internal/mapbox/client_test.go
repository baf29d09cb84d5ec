package mapbox

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"backend-gravelatlas/internal/snap"
	"backend-gravelatlas/internal/surface"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

func TestDirectionsDecodesRoutes(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"code":"Ok","routes":[
			{"geometry":{"type":"LineString","coordinates":[[144.9,-37.8],[144.905,-37.805],[144.91,-37.81]]},"distance":1450.5,"duration":320},
			{"geometry":{"type":"LineString","coordinates":[]},"distance":0,"duration":0}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", srv.Client())
	routes, err := c.Directions(context.Background(), orb.Point{144.9, -37.8}, orb.Point{144.91, -37.81}, snap.Cycling)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(routes) != 1 {
		t.Fatalf("expected 1 route, got %d", len(routes))
	}
	if len(routes[0].Path) != 3 || routes[0].DistanceM != 1450.5 || routes[0].DurationS != 320 {
		t.Fatalf("unexpected route: %+v", routes[0])
	}
	if !strings.HasPrefix(gotPath, "/directions/v5/mapbox/cycling/") {
		t.Fatalf("unexpected path %s", gotPath)
	}
	for _, want := range []string{"alternatives=true", "exclude=ferry", "geometries=geojson", "access_token=tok"} {
		if !strings.Contains(gotQuery, want) {
			t.Fatalf("query %q missing %q", gotQuery, want)
		}
	}
}

func TestDirectionsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/driving/"):
			w.WriteHeader(http.StatusTooManyRequests)
		case strings.Contains(r.URL.Path, "/walking/"):
			_, _ = w.Write([]byte(`{"code":"NoRoute","routes":[]}`))
		default:
			_, _ = w.Write([]byte(`not json`))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", srv.Client())
	a, b := orb.Point{1, 1}, orb.Point{2, 2}

	_, err := c.Directions(context.Background(), a, b, snap.Driving)
	var se *StatusError
	if !errors.As(err, &se) || se.Status != http.StatusTooManyRequests {
		t.Fatalf("expected status error, got %v", err)
	}
	if _, err := c.Directions(context.Background(), a, b, snap.Walking); err == nil {
		t.Fatalf("expected NoRoute error")
	}
	if _, err := c.Directions(context.Background(), a, b, snap.Cycling); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestNearbyRoadsParsesTilequery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[
			{"type":"Feature","geometry":{"type":"Point","coordinates":[144.9001,-37.8]},
			 "properties":{"class":"track","surface":"gravel","bicycle":"designated","tilequery":{"distance":4.2,"layer":"road"}}},
			{"type":"Feature","geometry":{"type":"Point","coordinates":[144.9002,-37.8]},
			 "properties":{"class":"street"}}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", srv.Client())
	roads, err := c.NearbyRoads(context.Background(), orb.Point{144.9, -37.8}, 10, 5)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(roads) != 2 {
		t.Fatalf("expected 2 roads, got %d", len(roads))
	}
	if roads[0].DistanceM != 4.2 || roads[0].Tags.Class != surface.ClassTrack || roads[0].Tags.Surface != surface.Unpaved {
		t.Fatalf("unexpected first road: %+v", roads[0])
	}
	if roads[1].Tags.Class != surface.ClassUnknown {
		t.Fatalf("expected unknown class, got %s", roads[1].Tags.Class)
	}
	if !strings.Contains(gotQuery, "radius=10") || !strings.Contains(gotQuery, "limit=5") {
		t.Fatalf("unexpected query %s", gotQuery)
	}
}

func TestTerrainTileDecodesPNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(1, 1, color.RGBA{R: 1, G: 134, B: 160, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}

	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", srv.Client())
	got, err := c.TerrainTile(context.Background(), maptile.New(14800, 10050, 14))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if gotPath != "/v4/mapbox.terrain-rgb/14/14800/10050.pngraw" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	r, g, b, _ := got.At(1, 1).RGBA()
	if r>>8 != 1 || g>>8 != 134 || b>>8 != 160 {
		t.Fatalf("unexpected pixel")
	}
}

func TestTerrainTileBadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("nope"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", nil)
	if _, err := c.TerrainTile(context.Background(), maptile.New(0, 0, 0)); err == nil {
		t.Fatalf("expected decode error")
	}
}
