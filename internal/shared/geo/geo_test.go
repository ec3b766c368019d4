package geo

import (
	"errors"
	"math"
	"testing"
	"time"

	"pgregory.net/rapid"
)

func TestDistanceMeters(t *testing.T) {
	// Shinjuku station to Tokyo station, roughly 6-7 km
	d := DistanceMeters(35.6896, 139.7006, 35.6812, 139.7671)
	if d < 5000 || d > 8000 {
		t.Fatalf("unexpected distance: %v", d)
	}

	// 0.001 degrees of longitude at the equator is ~111 m
	d = DistanceMeters(0, 0, 0, 0.001)
	if math.Abs(d-111.19) > 2 {
		t.Fatalf("unexpected equator distance: %v", d)
	}
}

func TestDistanceSymmetricAndNonNegative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		lat1 := rapid.Float64Range(-89, 89).Draw(t, "lat1")
		lng1 := rapid.Float64Range(-180, 180).Draw(t, "lng1")
		lat2 := rapid.Float64Range(-89, 89).Draw(t, "lat2")
		lng2 := rapid.Float64Range(-180, 180).Draw(t, "lng2")

		ab := DistanceMeters(lat1, lng1, lat2, lng2)
		ba := DistanceMeters(lat2, lng2, lat1, lng1)
		if ab < 0 {
			t.Fatalf("negative distance: %v", ab)
		}
		if math.Abs(ab-ba) > 1e-6 {
			t.Fatalf("asymmetric distance: %v vs %v", ab, ba)
		}
		if DistanceMeters(lat1, lng1, lat1, lng1) > 1e-6 {
			t.Fatalf("distance to self not zero")
		}
	})
}

func TestInitialBearingDegrees(t *testing.T) {
	b := InitialBearingDegrees(34.999, 139.0, 35.0, 139.0)
	if math.Abs(b) > 0.1 {
		t.Fatalf("expected due north, got %v", b)
	}

	b = InitialBearingDegrees(0, 0, 0, 1)
	if math.Abs(b-90) > 0.1 {
		t.Fatalf("expected due east, got %v", b)
	}

	b = InitialBearingDegrees(1, 0, 0, 0)
	if math.Abs(b-180) > 0.1 {
		t.Fatalf("expected due south, got %v", b)
	}
}

func TestBearingRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		lat1 := rapid.Float64Range(-89, 89).Draw(t, "lat1")
		lng1 := rapid.Float64Range(-180, 180).Draw(t, "lng1")
		lat2 := rapid.Float64Range(-89, 89).Draw(t, "lat2")
		lng2 := rapid.Float64Range(-180, 180).Draw(t, "lng2")

		b := InitialBearingDegrees(lat1, lng1, lat2, lng2)
		if b < 0 || b >= 360 {
			t.Fatalf("bearing out of range: %v", b)
		}
	})
}

func TestCompassDirection(t *testing.T) {
	cases := map[float64]string{
		0:     "N",
		44:    "N",
		46:    "NE",
		90:    "E",
		135:   "SE",
		180:   "S",
		225:   "SW",
		270:   "W",
		315:   "NW",
		359:   "N",
		360:   "N",
		-45:   "NW",
		405:   "NE",
		157.6: "S",
	}
	for bearing, want := range cases {
		if got := CompassDirection(bearing); got != want {
			t.Fatalf("CompassDirection(%v) = %q, want %q", bearing, got, want)
		}
	}
}

func TestSpeedKmh(t *testing.T) {
	if s := SpeedKmh(0, 0); s != 0 {
		t.Fatalf("expected zero speed for zero duration, got %v", s)
	}
	if s := SpeedKmh(1000, -time.Second); s != 0 {
		t.Fatalf("expected zero speed for negative duration, got %v", s)
	}
	if s := SpeedKmh(5000, time.Hour); math.Abs(s-5) > 1e-9 {
		t.Fatalf("expected 5 km/h, got %v", s)
	}
}

func TestPredictedArrival(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	eta, err := PredictedArrival(now, 2500, 5)
	if err != nil {
		t.Fatalf("predicted arrival: %v", err)
	}
	if want := now.Add(30 * time.Minute); !eta.Equal(want) {
		t.Fatalf("expected %v, got %v", want, eta)
	}

	if _, err := PredictedArrival(now, 1000, 0); !errors.Is(err, ErrInvalidSpeed) {
		t.Fatalf("expected ErrInvalidSpeed, got %v", err)
	}
	if _, err := PredictedArrival(now, 1000, -3); !errors.Is(err, ErrInvalidSpeed) {
		t.Fatalf("expected ErrInvalidSpeed for negative speed, got %v", err)
	}
}
