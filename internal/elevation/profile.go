package elevation

import (
	"context"
	"log"
	"math"

	"backend-gravelatlas/internal/resample"
	"backend-gravelatlas/internal/shared/geo"
	"backend-gravelatlas/internal/surface"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/floats"
)

const (
	DefaultBaselineM  = 50
	smoothingWindow   = 2
	// grades steeper than this are treated as data noise in summaries
	maxPlausibleGrade = 25
)

// Point is one entry of an elevation profile.
type Point struct {
	DistanceKm float64      `json:"distance"`
	Elevation  float64      `json:"elevation"`
	Surface    surface.Type `json:"surfaceType"`
	Grade      float64      `json:"grade"`
}

type Summary struct {
	MaxGrade float64 `json:"maxGrade"`
	MinGrade float64 `json:"minGrade"`
}

// Smooth applies a moving average over window values, leaving input shorter
// than the window untouched.
func Smooth(values []float64, window int) []float64 {
	n := len(values)
	out := make([]float64, n)
	if n < window || window < 2 {
		copy(out, values)
		return out
	}
	for i := range values {
		start := i - window/2
		if start < 0 {
			start = 0
		}
		end := start + window
		if end > n {
			end = n
		}
		out[i] = floats.Sum(values[start:end]) / float64(end-start)
	}
	return out
}

// Grades computes the percent grade at each point against the first later
// point at least baselineKm further along. Points with no such partner reuse
// the previous grade.
func Grades(distKm, elev []float64, baselineKm float64) []float64 {
	grades := make([]float64, len(distKm))
	for i := range distKm {
		found := false
		for j := i + 1; j < len(distKm); j++ {
			dd := distKm[j] - distKm[i]
			if dd >= baselineKm {
				grades[i] = (elev[j] - elev[i]) / (dd * 1000) * 100
				found = true
				break
			}
		}
		if !found && i > 0 {
			grades[i] = grades[i-1]
		}
	}
	return grades
}

// Summarize reports max and min grade, ignoring implausible values.
func Summarize(points []Point) Summary {
	var plausible []float64
	for _, p := range points {
		if math.Abs(p.Grade) <= maxPlausibleGrade {
			plausible = append(plausible, p.Grade)
		}
	}
	if len(plausible) == 0 {
		return Summary{}
	}
	return Summary{MaxGrade: floats.Max(plausible), MinGrade: floats.Min(plausible)}
}

// GainLoss sums the climbs and descents of a profile. Loss is positive.
func GainLoss(points []Point) (gain, loss float64) {
	for i := 1; i < len(points); i++ {
		d := points[i].Elevation - points[i-1].Elevation
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	return gain, loss
}

// Enricher turns resampled waypoints into an elevation profile.
type Enricher struct {
	provider   Provider
	baselineKm float64
}

func NewEnricher(provider Provider, baselineM float64) *Enricher {
	if baselineM <= 0 {
		baselineM = DefaultBaselineM
	}
	return &Enricher{provider: provider, baselineKm: baselineM / 1000}
}

// Enrich looks up all samples in one batch and derives distance, smoothed
// elevation and grade. Lookup failures become elevation 0; only context
// cancellation is returned.
func (e *Enricher) Enrich(ctx context.Context, samples []resample.Sample) ([]Point, error) {
	if len(samples) == 0 {
		return nil, nil
	}
	pts := make([]orb.Point, len(samples))
	for i, s := range samples {
		pts[i] = s.Point
	}

	elev := make([]float64, len(samples))
	if e.provider != nil {
		readings, err := e.provider.Lookup(ctx, pts)
		if err != nil {
			return nil, err
		}
		if len(readings) != len(samples) {
			log.Printf("elevation: provider returned %d readings for %d points", len(readings), len(samples))
		} else {
			for i, r := range readings {
				elev[i] = r.Elevation
			}
		}
	}

	dist := geo.Cumulative(pts)
	elev = Smooth(elev, smoothingWindow)
	grades := Grades(dist, elev, e.baselineKm)

	out := make([]Point, len(samples))
	for i, s := range samples {
		out[i] = Point{DistanceKm: dist[i], Elevation: elev[i], Surface: s.Surface, Grade: grades[i]}
	}
	return out, nil
}
