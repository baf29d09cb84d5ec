package draw

import (
	"context"
	"sync"

	"backend-gravelatlas/internal/segment"

	"github.com/google/uuid"
)

// Registry holds at most one drawing session per user.
type Registry struct {
	pipeline *Pipeline
	frames   Broadcaster
	saver    Saver

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(pipeline *Pipeline, frames Broadcaster, saver Saver) *Registry {
	return &Registry{
		pipeline: pipeline,
		frames:   frames,
		saver:    saver,
		sessions: map[string]*Session{},
	}
}

// Start opens a fresh session for ownerID, clearing any previous one.
func (r *Registry) Start(ownerID string) (*Session, Snapshot) {
	r.mu.Lock()
	old := r.sessions[ownerID]
	s := NewSession(uuid.NewString(), ownerID, r.pipeline, r.frames)
	r.sessions[ownerID] = s
	r.mu.Unlock()

	if old != nil {
		old.Clear()
	}
	return s, s.Start()
}

func (r *Registry) Get(ownerID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[ownerID]
	if !ok {
		return nil, ErrNoSession
	}
	return s, nil
}

// Clear discards the user's session.
func (r *Registry) Clear(ownerID string) error {
	r.mu.Lock()
	s, ok := r.sessions[ownerID]
	delete(r.sessions, ownerID)
	r.mu.Unlock()
	if !ok {
		return ErrNoSession
	}
	s.Clear()
	return nil
}

// Save materializes the user's session into a segment and retires it.
func (r *Registry) Save(ctx context.Context, ownerID, ownerName, title string) (segment.Segment, error) {
	s, err := r.Get(ownerID)
	if err != nil {
		return segment.Segment{}, err
	}
	seg, err := s.Save(ctx, r.saver, title, ownerName)
	if err != nil {
		return segment.Segment{}, err
	}

	r.mu.Lock()
	if r.sessions[ownerID] == s {
		delete(r.sessions, ownerID)
	}
	r.mu.Unlock()
	return seg, nil
}
