package draw

import (
	"context"
	"log"
	"sync"
	"time"

	"backend-gravelatlas/internal/elevation"
	"backend-gravelatlas/internal/shared/geo"
	"backend-gravelatlas/internal/surface"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Session is one caller's drawing state. Click pipelines run outside the
// lock; each click carries a generation and its result is applied only if
// no newer click, undo or clear happened meanwhile.
type Session struct {
	ID      string
	OwnerID string

	pipeline *Pipeline
	frames   Broadcaster
	now      func() time.Time

	mu         sync.Mutex
	drawing    bool
	snapToRoad bool
	clicks     []ClickPoint
	segments   []Segment
	coords     []orb.Point
	profile    []elevation.Point
	stats      surface.Stats
	finished   *geojson.Feature
	saved      bool

	generation uint64
	cancel     context.CancelFunc
	processing bool
	seq        uint64
}

func NewSession(id, ownerID string, pipeline *Pipeline, frames Broadcaster) *Session {
	return &Session{
		ID:         id,
		OwnerID:    ownerID,
		pipeline:   pipeline,
		frames:     frames,
		now:        time.Now,
		snapToRoad: true,
		stats:      surface.NewStats(),
	}
}

// Start resets every accumulator and enters Drawing.
func (s *Session) Start() Snapshot {
	s.mu.Lock()
	s.abortLocked()
	s.resetLocked()
	s.drawing = true
	frame := s.frameLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.send(frame)
	return snap
}

// HandleClick runs the pipeline for p relative to the last drawn coordinate.
// A click that is overtaken returns ErrSuperseded and changes nothing.
func (s *Session) HandleClick(ctx context.Context, p orb.Point) (Snapshot, error) {
	s.mu.Lock()
	if !s.drawing {
		s.mu.Unlock()
		return Snapshot{}, ErrNotDrawing
	}
	s.abortLocked()
	s.generation++
	gen := s.generation
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.processing = true

	var prev *orb.Point
	if n := len(s.coords); n > 0 {
		last := s.coords[n-1]
		prev = &last
	}
	snapOn := s.snapToRoad
	click := ClickPoint{Point: p, Timestamp: s.now().UTC()}
	s.mu.Unlock()

	seg, profile, err := s.pipeline.Run(runCtx, p, prev, snapOn)
	cancel()

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return Snapshot{}, ErrSuperseded
	}
	s.processing = false
	s.cancel = nil
	if err != nil {
		s.mu.Unlock()
		log.Printf("draw session %s: click abandoned: %v", s.ID, err)
		return Snapshot{}, err
	}

	seg.Click = click
	s.appendLocked(seg, profile)
	frame := s.frameLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.send(frame)
	return snap, nil
}

func (s *Session) appendLocked(seg Segment, profile []elevation.Point) {
	offset := 0.0
	if n := len(s.profile); n > 0 {
		offset = s.profile[n-1].DistanceKm
		// the first sample sits on the previous segment's last point
		if len(profile) > 0 {
			profile = profile[1:]
		}
	}
	for _, pt := range profile {
		pt.DistanceKm += offset
		s.profile = append(s.profile, pt)
	}
	seg.ProfileLen = len(profile)

	s.clicks = append(s.clicks, seg.Click)
	s.segments = append(s.segments, seg)
	s.coords = appendPath(s.coords, seg.RoadPoints)
	s.stats.Add(seg.Surface(), geo.PathLengthKm(seg.RoadPoints))
}

// appendPath adds path to coords, skipping a first point that repeats the
// current last coordinate.
func appendPath(coords, path []orb.Point) []orb.Point {
	if n := len(coords); n > 0 && len(path) > 0 && coords[n-1].Equal(path[0]) {
		path = path[1:]
	}
	return append(coords, path...)
}

// Undo drops the last segment, its click and the profile points it added.
// An in-flight click is abandoned since it was computed from the old tail.
func (s *Session) Undo() (Snapshot, error) {
	s.mu.Lock()
	if !s.drawing {
		s.mu.Unlock()
		return Snapshot{}, ErrNotDrawing
	}
	s.abortLocked()
	if len(s.segments) == 0 {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}

	last := s.segments[len(s.segments)-1]
	s.segments = s.segments[:len(s.segments)-1]
	s.clicks = s.clicks[:len(s.clicks)-1]
	s.profile = s.profile[:len(s.profile)-last.ProfileLen]

	s.coords = nil
	s.stats = surface.NewStats()
	for _, seg := range s.segments {
		s.coords = appendPath(s.coords, seg.RoadPoints)
		s.stats.Add(seg.Surface(), geo.PathLengthKm(seg.RoadPoints))
	}
	frame := s.frameLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.send(frame)
	return snap, nil
}

// Finish freezes the drawn line into a feature tagged with the dominant
// surface and leaves Drawing. Fewer than 2 coordinates returns nil and
// changes nothing.
func (s *Session) Finish() *geojson.Feature {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finishLocked()
}

func (s *Session) finishLocked() *geojson.Feature {
	if s.finished != nil && !s.drawing {
		return s.finished
	}
	if len(s.coords) < 2 {
		return nil
	}
	s.abortLocked()
	line := append(orb.LineString(nil), s.coords...)
	f := geojson.NewFeature(line)
	f.Properties["surfaceTypes"] = []surface.Type{s.stats.Dominant()}
	s.finished = f
	s.drawing = false
	return f
}

// Clear abandons in-flight work, drops everything and returns to Idle.
func (s *Session) Clear() {
	s.mu.Lock()
	s.abortLocked()
	s.resetLocked()
	s.drawing = false
	s.seq++
	frame := clearFrame(s.ID, s.seq)
	s.mu.Unlock()

	s.send(frame)
}

func (s *Session) ToggleSnapToRoad(enabled bool) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapToRoad = enabled
	return s.snapshotLocked()
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// abortLocked invalidates any in-flight click.
func (s *Session) abortLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.processing {
		s.generation++
		s.processing = false
	}
}

func (s *Session) resetLocked() {
	s.clicks = nil
	s.segments = nil
	s.coords = nil
	s.profile = nil
	s.stats = surface.NewStats()
	s.finished = nil
	s.saved = false
}

// frameLocked renders the current drawing. Frames are numbered so viewers
// can drop one that arrives after a newer frame.
func (s *Session) frameLocked() []byte {
	if s.frames == nil {
		return nil
	}
	s.seq++
	payload, err := renderFrame(s.ID, s.seq, s.segments, s.clicks)
	if err != nil {
		log.Printf("draw session %s: render frame: %v", s.ID, err)
		return nil
	}
	return payload
}

// send must be called without s.mu held.
func (s *Session) send(frame []byte) {
	if s.frames == nil || frame == nil {
		return
	}
	s.frames.Broadcast(s.ID, frame)
}

func (s *Session) snapshotLocked() Snapshot {
	stats := s.stats
	stats.LengthKm = make(map[surface.Type]float64, len(s.stats.LengthKm))
	for k, v := range s.stats.LengthKm {
		stats.LengthKm[k] = v
	}
	return Snapshot{
		SessionID:        s.ID,
		IsDrawing:        s.drawing,
		Processing:       s.processing,
		SnapToRoad:       s.snapToRoad,
		DrawnCoordinates: append([]orb.Point{}, s.coords...),
		ElevationProfile: append([]elevation.Point{}, s.profile...),
		RoadStats:        stats,
		Grades:           elevation.Summarize(s.profile),
		Clicks:           len(s.clicks),
	}
}
