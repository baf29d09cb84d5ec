package snap

import (
	"context"
	"log"

	"backend-gravelatlas/internal/shared/geo"
	"backend-gravelatlas/internal/surface"

	"github.com/paulmach/orb"
)

type Profile string

const (
	Cycling Profile = "cycling"
	Driving Profile = "driving"
	Walking Profile = "walking"
)

// Profiles are tried in this order.
var Profiles = []Profile{Cycling, Driving, Walking}

var profileFactor = map[Profile]float64{
	Cycling: 0.7,
	Driving: 1.2,
	Walking: 1.5,
}

const (
	defaultRadiusM  = 10
	candidateLimit  = 5
	midpointRadiusM = 5
	designatedBonus = 5
	maxDeviation    = 0.5
)

// Route is one routed alternative between two points.
type Route struct {
	Path      []orb.Point
	DistanceM float64
	DurationS float64
}

// Router returns routed alternatives between two points for a profile.
type Router interface {
	Directions(ctx context.Context, from, to orb.Point, profile Profile) ([]Route, error)
}

// RoadFeature is a road candidate near a queried point.
type RoadFeature struct {
	Point     orb.Point
	Tags      surface.Tags
	DistanceM float64
}

// RoadQuery finds road features within radiusM of a point.
type RoadQuery interface {
	NearbyRoads(ctx context.Context, p orb.Point, radiusM float64, limit int) ([]RoadFeature, error)
}

// Result is the road-aligned replacement for a click.
type Result struct {
	Path    []orb.Point
	Tags    surface.Tags
	Snapped bool
}

type Snapper struct {
	router  Router
	roads   RoadQuery
	radiusM float64
}

// New builds a Snapper. Either collaborator may be nil, in which case the
// matching lookup is skipped and the raw geometry is used.
func New(router Router, roads RoadQuery, radiusM float64) *Snapper {
	if radiusM <= 0 {
		radiusM = defaultRadiusM
	}
	return &Snapper{router: router, roads: roads, radiusM: radiusM}
}

// Snap resolves a click to road geometry. Collaborator failures fall back to
// the raw click or a straight line; only context cancellation is returned as
// an error so the caller can drop the result.
func (s *Snapper) Snap(ctx context.Context, clicked orb.Point, prev *orb.Point, enabled bool) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if !enabled {
		return raw(clicked), nil
	}
	if prev == nil {
		return s.snapPoint(ctx, clicked)
	}
	return s.snapLine(ctx, *prev, clicked)
}

func raw(p orb.Point) Result {
	return Result{Path: []orb.Point{p}, Tags: surface.UnknownTags()}
}

func rank(f RoadFeature) int {
	score := f.Tags.Class.Priority()
	if f.Tags.Bicycle == surface.BicycleDesignated {
		score += designatedBonus
	}
	return score
}

// Best picks the highest ranked candidate, nearest first on ties.
func Best(features []RoadFeature) (RoadFeature, bool) {
	if len(features) == 0 {
		return RoadFeature{}, false
	}
	best := features[0]
	for _, f := range features[1:] {
		r, br := rank(f), rank(best)
		if r > br || (r == br && f.DistanceM < best.DistanceM) {
			best = f
		}
	}
	return best, true
}

func (s *Snapper) snapPoint(ctx context.Context, clicked orb.Point) (Result, error) {
	if s.roads == nil {
		return raw(clicked), nil
	}
	features, err := s.roads.NearbyRoads(ctx, clicked, s.radiusM, candidateLimit)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		log.Printf("snap: road query failed: %v", err)
		return raw(clicked), nil
	}
	best, ok := Best(features)
	if !ok {
		return raw(clicked), nil
	}
	return Result{Path: []orb.Point{best.Point}, Tags: best.Tags, Snapped: true}, nil
}

// Score rates a route against the straight-line distance; lower is better.
// ok is false when the route deviates too far or is degenerate.
func Score(r Route, straightM float64, profile Profile) (float64, bool) {
	if r.DistanceM <= 0 || len(r.Path) == 0 || straightM <= 0 {
		return 0, false
	}
	deviation := (r.DistanceM - straightM) / straightM
	if deviation >= maxDeviation {
		return 0, false
	}
	density := float64(len(r.Path)) / r.DistanceM
	score := 0.4*deviation + 0.3*(1/density) + 0.3*r.DurationS
	return score * profileFactor[profile], true
}

func (s *Snapper) snapLine(ctx context.Context, prev, clicked orb.Point) (Result, error) {
	straight := geo.DistanceM(prev, clicked)
	if straight == 0 {
		return raw(clicked), nil
	}
	fallback := Result{Path: []orb.Point{prev, clicked}, Tags: surface.UnknownTags()}
	if s.router == nil {
		return fallback, nil
	}

	var (
		best        *Route
		bestScore   float64
		bestProfile Profile
	)
	for _, profile := range Profiles {
		routes, err := s.router.Directions(ctx, prev, clicked, profile)
		if err != nil {
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			log.Printf("snap: %s directions failed: %v", profile, err)
			continue
		}
		for i := range routes {
			score, ok := Score(routes[i], straight, profile)
			if !ok {
				continue
			}
			if best == nil || score < bestScore {
				best, bestScore, bestProfile = &routes[i], score, profile
			}
		}
		if best != nil && bestProfile == Cycling {
			break
		}
	}
	if best == nil {
		return fallback, nil
	}

	tags, err := s.midpointTags(ctx, best.Path[len(best.Path)/2])
	if err != nil {
		return Result{}, err
	}
	tags.Profile = string(bestProfile)
	return Result{Path: best.Path, Tags: tags, Snapped: true}, nil
}

func (s *Snapper) midpointTags(ctx context.Context, mid orb.Point) (surface.Tags, error) {
	if s.roads == nil {
		return surface.UnknownTags(), nil
	}
	features, err := s.roads.NearbyRoads(ctx, mid, midpointRadiusM, 1)
	if err != nil {
		if ctx.Err() != nil {
			return surface.Tags{}, ctx.Err()
		}
		log.Printf("snap: midpoint road query failed: %v", err)
		return surface.UnknownTags(), nil
	}
	if len(features) == 0 {
		return surface.UnknownTags(), nil
	}
	return features[0].Tags, nil
}
