package segment

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"backend-gravelatlas/internal/elevation"
	"backend-gravelatlas/internal/shared/geo"
	"backend-gravelatlas/internal/surface"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Create validates a drawn segment and stores it with server-side length
// and climb figures.
func (s *Service) Create(ctx context.Context, in CreateInput) (Segment, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" || in.GeoJSON == nil || strings.TrimSpace(in.GPXData) == "" {
		return Segment{}, ErrMissingFields
	}
	line, ok := in.GeoJSON.Geometry.(orb.LineString)
	if !ok || len(line) < 2 {
		return Segment{}, ErrInvalidGeometry
	}
	types, err := parseSurfaces(in.SurfaceTypes)
	if err != nil {
		return Segment{}, err
	}
	if len(types) == 0 {
		types = []surface.Type{surface.Unknown}
	}
	if err := checkProfile(in.ElevationProfile); err != nil {
		return Segment{}, err
	}

	gain, loss := elevation.GainLoss(in.ElevationProfile)
	seg := Segment{
		ID:      uuid.NewString(),
		GPXData: in.GPXData,
		GeoJSON: in.GeoJSON,
		Metadata: Metadata{
			Title:            title,
			LengthM:          math.Round(geo.PathLengthKm(line) * 1000),
			ElevationGainM:   math.Round(gain),
			ElevationLossM:   math.Round(loss),
			ElevationProfile: in.ElevationProfile,
			SurfaceTypes:     types,
		},
		Votes:     []Vote{},
		OwnerID:   in.OwnerID,
		OwnerName: in.OwnerName,
	}
	return s.store.Create(ctx, seg)
}

// parseSurfaces normalizes client supplied surface types.
func parseSurfaces(in []surface.Type) ([]surface.Type, error) {
	out := make([]surface.Type, 0, len(in))
	for _, t := range in {
		parsed, err := surface.ParseType(string(t))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSurface, err)
		}
		out = append(out, parsed)
	}
	return out, nil
}

func checkProfile(profile []elevation.Point) error {
	prev := 0.0
	for i, p := range profile {
		if p.DistanceKm < 0 || (i > 0 && p.DistanceKm < prev) {
			return ErrInvalidProfile
		}
		prev = p.DistanceKm
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (Segment, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter) (Page, error) {
	if f.Limit <= 0 {
		f.Limit = defaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	segments, total, err := s.store.List(ctx, f)
	if err != nil {
		return Page{}, err
	}
	if segments == nil {
		segments = []Segment{}
	}
	return Page{
		Segments: segments,
		Pagination: Pagination{
			Total: total,
			Page:  f.Page,
			Pages: int(math.Ceil(float64(total) / float64(f.Limit))),
		},
	}, nil
}

// Update lets the owner change the title and surface types only.
func (s *Service) Update(ctx context.Context, id, userID string, patch UpdateInput) (Segment, error) {
	seg, err := s.store.Get(ctx, id)
	if err != nil {
		return Segment{}, err
	}
	if seg.OwnerID != userID {
		return Segment{}, ErrForbidden
	}
	title := seg.Metadata.Title
	if patch.Title != nil {
		title = strings.TrimSpace(*patch.Title)
		if title == "" {
			return Segment{}, ErrMissingFields
		}
	}
	types := seg.Metadata.SurfaceTypes
	if patch.SurfaceTypes != nil {
		if types, err = parseSurfaces(patch.SurfaceTypes); err != nil {
			return Segment{}, err
		}
	}
	return s.store.Update(ctx, id, title, types)
}

func (s *Service) Delete(ctx context.Context, id, userID string) error {
	seg, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if seg.OwnerID != userID {
		return ErrForbidden
	}
	return s.store.Delete(ctx, id)
}

// Vote records a condition rating. Invalid conditions are rejected before
// the store is touched.
func (s *Service) Vote(ctx context.Context, id, userID, userName, condition string) (Stats, error) {
	if _, err := ValidateCondition(condition); err != nil {
		return Stats{}, err
	}
	return s.store.Vote(ctx, id, Vote{
		UserID:    userID,
		UserName:  userName,
		Condition: condition,
		Timestamp: s.now().UTC(),
	})
}

func (s *Service) Summary(ctx context.Context, id string) (VoteSummary, error) {
	seg, err := s.store.Get(ctx, id)
	if err != nil {
		return VoteSummary{}, err
	}
	return VoteSummary{
		TotalVotes:     seg.Stats.TotalVotes,
		AverageRating:  seg.Stats.AverageRating,
		Distribution:   Distribution(seg.Votes),
		LengthM:        seg.Metadata.LengthM,
		ElevationGainM: seg.Metadata.ElevationGainM,
		ElevationLossM: seg.Metadata.ElevationLossM,
	}, nil
}
