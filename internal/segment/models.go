package segment

import (
	"errors"
	"time"

	"backend-gravelatlas/internal/elevation"
	"backend-gravelatlas/internal/surface"

	"github.com/paulmach/orb/geojson"
)

var (
	ErrNotFound         = errors.New("segment not found")
	ErrForbidden        = errors.New("not the segment owner")
	ErrInvalidCondition = errors.New("condition must be one of 0-6")
	ErrMissingFields    = errors.New("title, geojson and gpx data are required")
	ErrInvalidGeometry  = errors.New("geojson must be a LineString with at least 2 coordinates")
	ErrInvalidSurface   = errors.New("surface types must be paved, unpaved or unknown")
	ErrInvalidProfile   = errors.New("elevation profile distances must be non-negative and non-decreasing")
)

type Vote struct {
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Condition string    `json:"condition"`
	Timestamp time.Time `json:"timestamp"`
}

// Stats is derived from Votes and must always agree with it.
type Stats struct {
	AverageRating *float64 `json:"average_rating"`
	TotalVotes    int      `json:"total_votes"`
}

type Metadata struct {
	Title            string            `json:"title"`
	LengthM          float64           `json:"length"`
	ElevationGainM   float64           `json:"elevation_gain"`
	ElevationLossM   float64           `json:"elevation_loss"`
	ElevationProfile []elevation.Point `json:"elevation_profile"`
	SurfaceTypes     []surface.Type    `json:"surface_types"`
}

type Segment struct {
	ID        string           `json:"id"`
	GPXData   string           `json:"gpx_data,omitempty"`
	GeoJSON   *geojson.Feature `json:"geojson"`
	Metadata  Metadata         `json:"metadata"`
	Votes     []Vote           `json:"votes"`
	Stats     Stats            `json:"stats"`
	OwnerID   string           `json:"owner_id"`
	OwnerName string           `json:"owner_name"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`

	// version guards optimistic updates in the memory store
	version int
}

// CreateInput is everything needed to publish a drawn segment.
type CreateInput struct {
	Title            string            `json:"title"`
	GeoJSON          *geojson.Feature  `json:"geojson"`
	GPXData          string            `json:"gpx_data"`
	ElevationProfile []elevation.Point `json:"elevation_profile"`
	SurfaceTypes     []surface.Type    `json:"surface_types"`
	OwnerID          string            `json:"-"`
	OwnerName        string            `json:"-"`
}

// UpdateInput carries the owner-editable fields. Nil means unchanged.
type UpdateInput struct {
	Title        *string        `json:"title"`
	SurfaceTypes []surface.Type `json:"surface_types"`
}

// Bounds is a lng/lat bounding box filter.
type Bounds struct {
	MinLng, MinLat, MaxLng, MaxLat float64
}

type ListFilter struct {
	Limit  int
	Page   int
	UserID string
	Bounds *Bounds
}

type Page struct {
	Segments   []Segment  `json:"segments"`
	Pagination Pagination `json:"pagination"`
}

type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

// VoteSummary is the public stats view of a segment.
type VoteSummary struct {
	TotalVotes     int            `json:"total_votes"`
	AverageRating  *float64       `json:"average_rating"`
	Distribution   map[string]int `json:"distribution"`
	LengthM        float64        `json:"length"`
	ElevationGainM float64        `json:"elevation_gain"`
	ElevationLossM float64        `json:"elevation_loss"`
}
