package tiles

import (
	"math"
	"sort"
	"sync"

	"backend-gravelatlas/internal/surface"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/project"
)

const (
	LayerRoad   = "road"
	LayerGravel = "gravel_roads"

	// mercatorCircumference is the equator length in web-mercator meters.
	mercatorCircumference = 2 * math.Pi * 6378137.0
	tileSize              = 256.0
)

// Feature is a rendered line feature and its properties.
type Feature struct {
	Layer      string         `json:"layer"`
	Geometry   orb.LineString `json:"-"`
	Properties map[string]any `json:"properties"`
}

type indexed struct {
	Feature
	merc  orb.LineString
	bound orb.Bound
}

// Index answers "what is drawn at this point" for a fixed zoom level
// without going to the network. Geometry is held in web mercator so the
// pixel tolerance is uniform on screen.
type Index struct {
	mu          sync.RWMutex
	zoom        float64
	tolerancePx float64
	layers      map[string][]indexed
}

func NewIndex(zoom, tolerancePx float64) *Index {
	return &Index{
		zoom:        zoom,
		tolerancePx: tolerancePx,
		layers:      map[string][]indexed{},
	}
}

// Add stores a line on the given layer. Lines with fewer than two vertices
// are ignored.
func (ix *Index) Add(layer string, line orb.LineString, props map[string]any) {
	if len(line) < 2 {
		return
	}
	merc := project.LineString(line.Clone(), project.WGS84.ToMercator)
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.layers[layer] = append(ix.layers[layer], indexed{
		Feature: Feature{Layer: layer, Geometry: line, Properties: props},
		merc:    merc,
		bound:   merc.Bound(),
	})
}

// Len reports how many features a layer holds.
func (ix *Index) Len(layer string) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.layers[layer])
}

func (ix *Index) metersPerPixel() float64 {
	return mercatorCircumference / (tileSize * math.Pow(2, ix.zoom))
}

type hit struct {
	f    indexed
	dist float64
}

func (ix *Index) within(layer string, p orb.Point, maxMerc float64) []hit {
	var hits []hit
	for _, f := range ix.layers[layer] {
		if !f.bound.Pad(maxMerc).Contains(p) {
			continue
		}
		d := planar.DistanceFrom(f.merc, p)
		if d <= maxMerc {
			hits = append(hits, hit{f: f, dist: d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })
	return hits
}

// FeaturesAt returns the features under p on the requested layers, in layer
// order and nearest first within a layer.
func (ix *Index) FeaturesAt(p orb.Point, layers ...string) []Feature {
	mp := project.Point(p, project.WGS84.ToMercator)
	tol := ix.tolerancePx * ix.metersPerPixel()

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	var out []Feature
	for _, layer := range layers {
		for _, h := range ix.within(layer, mp, tol) {
			out = append(out, h.f.Feature)
		}
	}
	return out
}

// SurfaceAt classifies the surface under p. A hit on the gravel layer wins
// over the road layer's surface tag.
func (ix *Index) SurfaceAt(p orb.Point) surface.Type {
	features := ix.FeaturesAt(p, LayerGravel, LayerRoad)
	if len(features) == 0 {
		return surface.Unknown
	}
	if features[0].Layer == LayerGravel {
		return surface.Unpaved
	}
	tag, _ := features[0].Properties["surface"].(string)
	return surface.Classify(tag)
}

// nearestOn returns the closest point to p on line, all in mercator.
func nearestOn(line orb.LineString, p orb.Point) orb.Point {
	best := line[0]
	bestD := math.Inf(1)
	for i := 1; i < len(line); i++ {
		c := closestOnSegment(line[i-1], line[i], p)
		if d := planar.DistanceSquared(c, p); d < bestD {
			best, bestD = c, d
		}
	}
	return best
}

func closestOnSegment(a, b, p orb.Point) orb.Point {
	dx, dy := b[0]-a[0], b[1]-a[1]
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return a
	}
	t := ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return orb.Point{a[0] + t*dx, a[1] + t*dy}
}
