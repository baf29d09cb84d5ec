package draw

import (
	"errors"
	"time"

	"backend-gravelatlas/internal/elevation"
	"backend-gravelatlas/internal/surface"

	"github.com/paulmach/orb"
)

var (
	ErrNotDrawing   = errors.New("session is not drawing")
	ErrSuperseded   = errors.New("click superseded by a newer one")
	ErrTooFewPoints = errors.New("a segment needs at least 2 coordinates")
	ErrAlreadySaved = errors.New("session already saved")
	ErrNoSession    = errors.New("no drawing session")
)

type ClickPoint struct {
	Point     orb.Point `json:"coordinates"`
	Timestamp time.Time `json:"timestamp"`
}

// Segment is the road geometry produced by one click. ProfileLen is how many
// elevation points it contributed, so undo can drop exactly those.
type Segment struct {
	Click      ClickPoint   `json:"click"`
	RoadPoints []orb.Point  `json:"roadPoints"`
	RoadInfo   surface.Tags `json:"roadInfo"`
	ProfileLen int          `json:"-"`
}

// Surface is the segment's dominant surface for stats and rendering.
func (s Segment) Surface() surface.Type {
	if s.RoadInfo.Surface == "" {
		return surface.Unknown
	}
	return s.RoadInfo.Surface
}

type Snapshot struct {
	SessionID        string            `json:"sessionId"`
	IsDrawing        bool              `json:"isDrawing"`
	Processing       bool              `json:"processing"`
	SnapToRoad       bool              `json:"snapToRoad"`
	DrawnCoordinates []orb.Point       `json:"drawnCoordinates"`
	ElevationProfile []elevation.Point `json:"elevationProfile"`
	RoadStats        surface.Stats     `json:"roadStats"`
	Grades           elevation.Summary `json:"grades"`
	Clicks           int               `json:"clicks"`
}
