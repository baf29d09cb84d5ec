package surface

import (
	"fmt"
	"strings"
)

// Type is the coarse surface class used for colouring and stats.
type Type string

const (
	Paved   Type = "paved"
	Unpaved Type = "unpaved"
	Unknown Type = "unknown"
)

var lexicon = map[string]Type{
	"paved":           Paved,
	"asphalt":         Paved,
	"concrete":        Paved,
	"paving_stones":   Paved,
	"sett":            Paved,
	"cobblestone":     Paved,
	"metal":           Paved,
	"wood":            Paved,
	"concrete:plates": Paved,

	"unpaved":     Unpaved,
	"compacted":   Unpaved,
	"fine_gravel": Unpaved,
	"gravel":      Unpaved,
	"dirt":        Unpaved,
	"earth":       Unpaved,
	"ground":      Unpaved,
	"grass":       Unpaved,
	"mud":         Unpaved,
	"sand":        Unpaved,
	"woodchips":   Unpaved,
}

// Classify maps a raw OSM surface tag to a Type. Matching ignores case and
// surrounding whitespace; anything not in the lexicon is Unknown.
func Classify(tag string) Type {
	if t, ok := lexicon[strings.ToLower(strings.TrimSpace(tag))]; ok {
		return t
	}
	return Unknown
}

// ParseType validates an already classified value such as "unpaved".
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case Paved, Unpaved, Unknown:
		return t, nil
	}
	return Unknown, fmt.Errorf("unknown surface type %q", s)
}
