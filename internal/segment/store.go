package segment

import (
	"context"

	"backend-gravelatlas/internal/surface"
)

// Store persists segments and their votes. Vote must apply the upsert and
// the stats recompute as one atomic step.
type Store interface {
	Create(ctx context.Context, seg Segment) (Segment, error)
	Get(ctx context.Context, id string) (Segment, error)
	List(ctx context.Context, filter ListFilter) ([]Segment, int, error)
	Update(ctx context.Context, id, title string, surfaceTypes []surface.Type) (Segment, error)
	Delete(ctx context.Context, id string) error
	Vote(ctx context.Context, id string, vote Vote) (Stats, error)
}
