package geo

import (
	"math"

	"github.com/paulmach/orb"
)

const earthRadiusKm = 6371.0

func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// DistanceKm is HaversineKm for orb points (lng, lat order).
func DistanceKm(a, b orb.Point) float64 {
	return HaversineKm(a.Lat(), a.Lon(), b.Lat(), b.Lon())
}

func DistanceM(a, b orb.Point) float64 {
	return DistanceKm(a, b) * 1000
}

// PathLengthKm sums the great-circle length of consecutive vertices.
func PathLengthKm(path []orb.Point) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		total += DistanceKm(path[i-1], path[i])
	}
	return total
}

// Cumulative returns the running distance in km at each vertex.
func Cumulative(path []orb.Point) []float64 {
	out := make([]float64, len(path))
	for i := 1; i < len(path); i++ {
		out[i] = out[i-1] + DistanceKm(path[i-1], path[i])
	}
	return out
}

// Along returns the point at distKm along the path, linearly interpolated
// inside the vertex pair that contains it. Distances past the end clamp to
// the last vertex.
func Along(path []orb.Point, cum []float64, distKm float64) orb.Point {
	if len(path) == 0 {
		return orb.Point{}
	}
	if distKm <= 0 {
		return path[0]
	}
	for i := 1; i < len(path); i++ {
		if cum[i] < distKm {
			continue
		}
		span := cum[i] - cum[i-1]
		if span == 0 {
			return path[i]
		}
		f := (distKm - cum[i-1]) / span
		return orb.Point{
			path[i-1][0] + (path[i][0]-path[i-1][0])*f,
			path[i-1][1] + (path[i][1]-path[i-1][1])*f,
		}
	}
	return path[len(path)-1]
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
