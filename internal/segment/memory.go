package segment

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"backend-gravelatlas/internal/surface"
)

const maxVoteRetries = 1000

var errConflict = errors.New("segment changed concurrently")

// MemoryStore is an in-process Store. Votes use an optimistic read, apply,
// compare-and-swap loop on the segment version.
type MemoryStore struct {
	mu       sync.RWMutex
	segments map[string]Segment
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{segments: map[string]Segment{}, now: time.Now}
}

func (m *MemoryStore) Create(_ context.Context, seg Segment) (Segment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	seg.CreatedAt, seg.UpdatedAt = now, now
	seg.version = 1
	if seg.Votes == nil {
		seg.Votes = []Vote{}
	}
	m.segments[seg.ID] = seg
	return clone(seg), nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (Segment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seg, ok := m.segments[id]
	if !ok {
		return Segment{}, ErrNotFound
	}
	return clone(seg), nil
}

func (m *MemoryStore) List(_ context.Context, f ListFilter) ([]Segment, int, error) {
	m.mu.RLock()
	var matched []Segment
	for _, seg := range m.segments {
		if f.UserID != "" && seg.OwnerID != f.UserID {
			continue
		}
		if f.Bounds != nil && !within(seg, *f.Bounds) {
			continue
		}
		s := clone(seg)
		s.GPXData = ""
		matched = append(matched, s)
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	total := len(matched)
	start := (f.Page - 1) * f.Limit
	if start >= total {
		return nil, total, nil
	}
	end := start + f.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func within(seg Segment, b Bounds) bool {
	if seg.GeoJSON == nil || seg.GeoJSON.Geometry == nil {
		return false
	}
	bound := seg.GeoJSON.Geometry.Bound()
	return bound.Min.Lon() >= b.MinLng && bound.Min.Lat() >= b.MinLat &&
		bound.Max.Lon() <= b.MaxLng && bound.Max.Lat() <= b.MaxLat
}

func (m *MemoryStore) Update(_ context.Context, id, title string, surfaceTypes []surface.Type) (Segment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seg, ok := m.segments[id]
	if !ok {
		return Segment{}, ErrNotFound
	}
	seg.Metadata.Title = title
	seg.Metadata.SurfaceTypes = append([]surface.Type(nil), surfaceTypes...)
	seg.UpdatedAt = m.now()
	seg.version++
	m.segments[id] = seg
	return clone(seg), nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.segments[id]; !ok {
		return ErrNotFound
	}
	delete(m.segments, id)
	return nil
}

func (m *MemoryStore) Vote(ctx context.Context, id string, v Vote) (Stats, error) {
	for attempt := 0; attempt < maxVoteRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return Stats{}, err
		}
		current, err := m.Get(ctx, id)
		if err != nil {
			return Stats{}, err
		}
		votes := ApplyVote(current.Votes, v)
		stats := RecomputeStats(votes)
		err = m.compareAndSwap(id, current.version, votes, stats)
		if errors.Is(err, errConflict) {
			continue
		}
		if err != nil {
			return Stats{}, err
		}
		return stats, nil
	}
	return Stats{}, errConflict
}

func (m *MemoryStore) compareAndSwap(id string, version int, votes []Vote, stats Stats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	seg, ok := m.segments[id]
	if !ok {
		return ErrNotFound
	}
	if seg.version != version {
		return errConflict
	}
	seg.Votes = votes
	seg.Stats = stats
	seg.UpdatedAt = m.now()
	seg.version++
	m.segments[id] = seg
	return nil
}

func clone(seg Segment) Segment {
	seg.Votes = append([]Vote{}, seg.Votes...)
	seg.Metadata.SurfaceTypes = append([]surface.Type(nil), seg.Metadata.SurfaceTypes...)
	if seg.Stats.AverageRating != nil {
		avg := *seg.Stats.AverageRating
		seg.Stats.AverageRating = &avg
	}
	return seg
}
