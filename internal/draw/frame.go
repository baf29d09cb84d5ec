package draw

import (
	"encoding/json"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Broadcaster delivers redraw frames to whoever watches a session.
type Broadcaster interface {
	Broadcast(sessionID string, payload []byte)
}

const (
	FrameDraw  = "draw"
	FrameClear = "clear"
)

// Frame is what the map needs to redraw a session: one line per segment
// carrying its surfaceType, and one marker per click.
type Frame struct {
	Type      string                     `json:"type"`
	SessionID string                     `json:"sessionId"`
	Seq       uint64                     `json:"seq"`
	Lines     *geojson.FeatureCollection `json:"lines,omitempty"`
	Markers   *geojson.FeatureCollection `json:"markers,omitempty"`
}

func renderFrame(sessionID string, seq uint64, segments []Segment, clicks []ClickPoint) ([]byte, error) {
	lines := geojson.NewFeatureCollection()
	for _, seg := range segments {
		if len(seg.RoadPoints) < 2 {
			continue
		}
		f := geojson.NewFeature(append(orb.LineString(nil), seg.RoadPoints...))
		f.Properties["surfaceType"] = seg.Surface()
		lines.Append(f)
	}

	markers := geojson.NewFeatureCollection()
	for _, c := range clicks {
		f := geojson.NewFeature(c.Point)
		f.Properties["timestamp"] = c.Timestamp.UnixMilli()
		markers.Append(f)
	}

	return json.Marshal(Frame{Type: FrameDraw, SessionID: sessionID, Seq: seq, Lines: lines, Markers: markers})
}

func clearFrame(sessionID string, seq uint64) []byte {
	payload, _ := json.Marshal(Frame{Type: FrameClear, SessionID: sessionID, Seq: seq})
	return payload
}
