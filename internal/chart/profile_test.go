package chart

import (
	"bytes"
	"strings"
	"testing"

	"backend-gravelatlas/internal/elevation"
)

func TestElevationProfileRendersHTML(t *testing.T) {
	points := []elevation.Point{
		{DistanceKm: 0, Elevation: 100},
		{DistanceKm: 0.1, Elevation: 110, Grade: 10},
		{DistanceKm: 0.2, Elevation: 105, Grade: -5},
	}
	var buf bytes.Buffer
	if err := ElevationProfile(&buf, "Dandenongs gravel", points); err != nil {
		t.Fatalf("render: %v", err)
	}
	html := buf.String()
	if !strings.Contains(html, "Dandenongs gravel") {
		t.Fatalf("expected title in output")
	}
	if !strings.Contains(html, "0.10") {
		t.Fatalf("expected distance labels in output")
	}
}

func TestElevationProfileEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := ElevationProfile(&buf, "empty", nil); err != nil {
		t.Fatalf("render: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatalf("expected html output")
	}
}
