package utils

import (
	"math"
	"testing"
)

// northOf returns a point the given number of meters due north of a latitude.
func northOf(lat, meters float64) float64 {
	return lat + meters/earthRadiusMeters*180/math.Pi
}

func TestDistanceMeters(t *testing.T) {
	t.Run("zero distance for identical points", func(t *testing.T) {
		if d := DistanceMeters(48.8566, 2.3522, 48.8566, 2.3522); d != 0 {
			t.Errorf("expected 0, got %f", d)
		}
	})

	t.Run("known city pair", func(t *testing.T) {
		// Paris → London, roughly 343.5 km
		d := DistanceMeters(48.8566, 2.3522, 51.5074, -0.1278)
		if d < 340000 || d > 348000 {
			t.Errorf("Paris-London distance out of range: %f", d)
		}
	})

	t.Run("pure north displacement", func(t *testing.T) {
		lat, lng := 40.7128, -74.0060
		d := DistanceMeters(lat, lng, northOf(lat, 100), lng)
		if math.Abs(d-100) > 0.01 {
			t.Errorf("expected ~100m, got %f", d)
		}
	})

	t.Run("symmetry", func(t *testing.T) {
		a := DistanceMeters(35.6762, 139.6503, 34.6937, 135.5023)
		b := DistanceMeters(34.6937, 135.5023, 35.6762, 139.6503)
		if a != b {
			t.Errorf("distance not symmetric: %f vs %f", a, b)
		}
	})
}

func TestWithinRadius(t *testing.T) {
	centerLat, centerLng := 48.8566, 2.3522
	const radius = 50.0

	cases := []struct {
		name   string
		meters float64
		want   bool
	}{
		{"just inside", 49.9, true},
		{"exactly at the radius", 50.0, true},
		{"just beyond", 50.1, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lat := northOf(centerLat, tc.meters)
			got := WithinRadius(lat, centerLng, centerLat, centerLng, radius)
			if got != tc.want {
				d := DistanceMeters(lat, centerLng, centerLat, centerLng)
				t.Errorf("WithinRadius at %.1fm = %v, want %v (computed distance %f)", tc.meters, got, tc.want, d)
			}
		})
	}
}

func TestBoundingRegion(t *testing.T) {
	region := BoundingRegion{MinLat: 40, MaxLat: 41, MinLng: -75, MaxLng: -73}

	if !region.Contains(40.7, -74) {
		t.Error("expected point inside region")
	}
	if region.Contains(42, -74) {
		t.Error("expected latitude outside region")
	}
	if region.Contains(40.7, -76) {
		t.Error("expected longitude outside region")
	}
	// boundary counts as inside
	if !region.Contains(40, -75) {
		t.Error("expected boundary point inside region")
	}
}

func TestBoundingBox(t *testing.T) {
	lat, lng := 48.8566, 2.3522
	minLat, maxLat, minLng, maxLng := BoundingBox(lat, lng, 1000)

	if minLat >= lat || maxLat <= lat || minLng >= lng || maxLng <= lng {
		t.Fatal("bounding box does not surround the center")
	}
	// a point 999m north must fall inside the box
	if p := northOf(lat, 999); p > maxLat {
		t.Errorf("point 999m north (%f) escapes the box (max %f)", p, maxLat)
	}
}
