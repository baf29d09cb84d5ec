// Package gpx builds and reads the GPX payload stored with each segment.
package gpx

import (
	"errors"

	"github.com/paulmach/orb"
	gpxgo "github.com/tkrajina/gpxgo/gpx"
)

const creator = "Gravel Atlas"

var ErrNoPoints = errors.New("gpx: no track points")

// Build renders a single-track GPX 1.1 document. Elevations are optional and
// used only when they line up with the points.
func Build(name string, points []orb.Point, elevations []float64) (string, error) {
	if len(points) == 0 {
		return "", ErrNoPoints
	}
	withEle := len(elevations) == len(points)

	seg := gpxgo.GPXTrackSegment{Points: make([]gpxgo.GPXPoint, len(points))}
	for i, p := range points {
		pt := gpxgo.GPXPoint{Point: gpxgo.Point{Latitude: p.Lat(), Longitude: p.Lon()}}
		if withEle {
			pt.Elevation = *gpxgo.NewNullableFloat64(elevations[i])
		}
		seg.Points[i] = pt
	}

	doc := &gpxgo.GPX{
		Creator: creator,
		Name:    name,
		Tracks: []gpxgo.GPXTrack{{
			Name:     name,
			Segments: []gpxgo.GPXTrackSegment{seg},
		}},
	}
	out, err := doc.ToXml(gpxgo.ToXmlParams{Version: "1.1", Indent: true})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Track is every track of a document joined in order.
type Track struct {
	Name   string
	Points []orb.Point
	// nil unless every point carries an elevation
	Elevations []float64
}

// Parse reads a GPX document. The name falls back from the document to its
// first track.
func Parse(data string) (Track, error) {
	doc, err := gpxgo.ParseString(data)
	if err != nil {
		return Track{}, err
	}
	t := Track{Name: doc.Name}
	allEle := true
	for _, trk := range doc.Tracks {
		if t.Name == "" {
			t.Name = trk.Name
		}
		for _, seg := range trk.Segments {
			for _, p := range seg.Points {
				t.Points = append(t.Points, orb.Point{p.Longitude, p.Latitude})
				if p.Elevation.NotNull() {
					t.Elevations = append(t.Elevations, p.Elevation.Value())
				} else {
					allEle = false
				}
			}
		}
	}
	if len(t.Points) == 0 {
		return Track{}, ErrNoPoints
	}
	if !allEle {
		t.Elevations = nil
	}
	return t, nil
}
