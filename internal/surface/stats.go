package surface

// Percentages is the share of total length per surface type, 0..100.
type Percentages struct {
	Paved   float64 `json:"paved"`
	Unpaved float64 `json:"unpaved"`
	Unknown float64 `json:"unknown"`
}

// Stats accumulates drawn length per surface type for one session.
type Stats struct {
	LengthKm      map[Type]float64 `json:"surfaces"`
	TotalLengthKm float64          `json:"totalDistance"`
	Percentages   Percentages      `json:"surfacePercentages"`
}

func NewStats() Stats {
	return Stats{LengthKm: map[Type]float64{}}
}

// Add records km of the given surface and refreshes totals and percentages.
func (s *Stats) Add(t Type, km float64) {
	if s.LengthKm == nil {
		s.LengthKm = map[Type]float64{}
	}
	if t != Paved && t != Unpaved {
		t = Unknown
	}
	s.LengthKm[t] += km
	s.recompute()
}

func (s *Stats) recompute() {
	total := 0.0
	for _, km := range s.LengthKm {
		total += km
	}
	s.TotalLengthKm = total
	s.Percentages = Percentages{
		Paved:   percent(s.LengthKm[Paved], total),
		Unpaved: percent(s.LengthKm[Unpaved], total),
		Unknown: percent(s.LengthKm[Unknown], total),
	}
}

func percent(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return part / total * 100
}

// Dominant returns unpaved or paved when that type holds a strict majority
// of the length, otherwise unknown. An exact 50/50 split is unknown.
func (s Stats) Dominant() Type {
	switch {
	case s.Percentages.Unpaved > 50:
		return Unpaved
	case s.Percentages.Paved > 50:
		return Paved
	default:
		return Unknown
	}
}
