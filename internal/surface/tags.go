package surface

import (
	"fmt"
	"strings"
)

// RoadClass is the road classification carried by a road feature.
type RoadClass string

const (
	ClassCycleway    RoadClass = "cycleway"
	ClassTrack       RoadClass = "track"
	ClassPath        RoadClass = "path"
	ClassTertiary    RoadClass = "tertiary"
	ClassResidential RoadClass = "residential"
	ClassSecondary   RoadClass = "secondary"
	ClassPrimary     RoadClass = "primary"
	ClassTrunk       RoadClass = "trunk"
	ClassService     RoadClass = "service"
	ClassMotorway    RoadClass = "motorway"
	ClassUnknown     RoadClass = "unknown"
)

var classPriority = map[RoadClass]int{
	ClassCycleway:    10,
	ClassTrack:       9,
	ClassPath:        8,
	ClassTertiary:    7,
	ClassResidential: 6,
	ClassSecondary:   5,
	ClassPrimary:     4,
	ClassTrunk:       3,
	ClassService:     2,
	ClassMotorway:    1,
}

// Priority ranks a class for snapping; unknown classes rank lowest.
func (c RoadClass) Priority() int {
	return classPriority[c]
}

func parseClass(s string) RoadClass {
	c := RoadClass(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := classPriority[c]; ok {
		return c
	}
	return ClassUnknown
}

// Bicycle is the bicycle access tag of a road feature.
type Bicycle string

const (
	BicycleDesignated Bicycle = "designated"
	BicycleYes        Bicycle = "yes"
	BicycleNo         Bicycle = "no"
	BicycleUnknown    Bicycle = "unknown"
)

func parseBicycle(s string) Bicycle {
	switch b := Bicycle(strings.ToLower(strings.TrimSpace(s))); b {
	case BicycleDesignated, BicycleYes, BicycleNo:
		return b
	}
	return BicycleUnknown
}

// Tags is the parsed form of a road feature's property bag.
type Tags struct {
	Class      RoadClass `json:"class"`
	Surface    Type      `json:"surfaceType"`
	SurfaceTag string    `json:"surface,omitempty"`
	Bicycle    Bicycle   `json:"bicycle"`
	Profile    string    `json:"profile,omitempty"`
}

// UnknownTags is the tag set used when nothing is known about the road.
func UnknownTags() Tags {
	return Tags{Class: ClassUnknown, Surface: Unknown, Bicycle: BicycleUnknown}
}

// ParseTags reads class, surface and bicycle from a loosely typed property
// map. Missing or unrecognised values default to unknown.
func ParseTags(props map[string]any) Tags {
	tags := UnknownTags()
	if props == nil {
		return tags
	}
	tags.Class = parseClass(stringProp(props, "class"))
	if tags.Class == ClassUnknown {
		tags.Class = parseClass(stringProp(props, "highway"))
	}
	tags.SurfaceTag = stringProp(props, "surface")
	tags.Surface = Classify(tags.SurfaceTag)
	tags.Bicycle = parseBicycle(stringProp(props, "bicycle"))
	return tags
}

func stringProp(props map[string]any, key string) string {
	switch v := props[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
