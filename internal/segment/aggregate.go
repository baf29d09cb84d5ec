package segment

import (
	"strconv"

	"gonum.org/v1/gonum/stat"
)

// Conditions are the rating bands, 0 smoothest to 6 hike-a-bike.
var Conditions = [...]string{
	"Smooth surface, any bike",
	"Well maintained, gravel bike",
	"Occasional rough surface",
	"Frequent loose surface",
	"Very rough surface",
	"Extremely rough surface, MTB",
	"Hike-A-Bike",
}

// ValidateCondition parses a condition band, rejecting anything but "0".."6".
func ValidateCondition(condition string) (int, error) {
	if len(condition) != 1 {
		return 0, ErrInvalidCondition
	}
	n, err := strconv.Atoi(condition)
	if err != nil || n < 0 || n >= len(Conditions) {
		return 0, ErrInvalidCondition
	}
	return n, nil
}

// RecomputeStats derives Stats from the full vote list.
func RecomputeStats(votes []Vote) Stats {
	if len(votes) == 0 {
		return Stats{}
	}
	values := make([]float64, 0, len(votes))
	for _, v := range votes {
		n, err := ValidateCondition(v.Condition)
		if err != nil {
			continue
		}
		values = append(values, float64(n))
	}
	stats := Stats{TotalVotes: len(votes)}
	if len(values) > 0 {
		avg := stat.Mean(values, nil)
		stats.AverageRating = &avg
	}
	return stats
}

// ApplyVote returns a copy of votes with v upserted by user id. An existing
// vote keeps its position.
func ApplyVote(votes []Vote, v Vote) []Vote {
	out := make([]Vote, len(votes), len(votes)+1)
	copy(out, votes)
	for i := range out {
		if out[i].UserID == v.UserID {
			out[i] = v
			return out
		}
	}
	return append(out, v)
}

// Distribution counts votes per condition band, including empty bands.
func Distribution(votes []Vote) map[string]int {
	dist := make(map[string]int, len(Conditions))
	for i := range Conditions {
		dist[strconv.Itoa(i)] = 0
	}
	for _, v := range votes {
		if _, err := ValidateCondition(v.Condition); err == nil {
			dist[v.Condition]++
		}
	}
	return dist
}
