package session

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/kobadaidesu/shade-route-app/internal/position"
)

func equatorFix(lng float64, at time.Time) position.Fix {
	return position.Fix{Lat: 0, Lng: lng, AccuracyM: 10, RecordedAt: at}
}

func TestNewSession(t *testing.T) {
	start := equatorFix(0, time.Now())
	s := New("dev-1", start)

	if s.ID == "" {
		t.Fatalf("expected session id")
	}
	if !s.Open() {
		t.Fatalf("new session should be open")
	}
	if len(s.Path) != 1 || s.Path[0] != start {
		t.Fatalf("path must start with the start fix")
	}
	if s.TotalDistanceM != 0 || s.AvgSpeedKmh != 0 {
		t.Fatalf("expected zeroed distance and speed")
	}
	if !s.StartedAt.Equal(start.RecordedAt) {
		t.Fatalf("start time should come from the start fix")
	}
}

func TestNewSessionWithoutTimestamp(t *testing.T) {
	s := New("dev-1", position.Fix{Lat: 1, Lng: 1})
	if s.StartedAt.IsZero() {
		t.Fatalf("expected wall clock fallback for start time")
	}
	if s.Path[0].RecordedAt.IsZero() {
		t.Fatalf("expected start fix timestamp backfilled")
	}
}

func TestAppendFixAccumulatesDistance(t *testing.T) {
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	s := New("dev-1", equatorFix(0, base))

	// ~111 m per 0.001 degrees of longitude at the equator
	prev := 0.0
	for i, lng := range []float64{0.001, 0.002, 0.003} {
		at := base.Add(time.Duration(i+1) * time.Minute)
		if err := s.AppendFix(equatorFix(lng, at)); err != nil {
			t.Fatalf("append fix: %v", err)
		}
		if s.TotalDistanceM <= prev {
			t.Fatalf("distance not strictly increasing: %v -> %v", prev, s.TotalDistanceM)
		}
		prev = s.TotalDistanceM
	}

	if math.Abs(s.TotalDistanceM-333.58) > 333.58*0.01 {
		t.Fatalf("expected ~333 m, got %v", s.TotalDistanceM)
	}
	if s.DurationMs != (3 * time.Minute).Milliseconds() {
		t.Fatalf("unexpected duration: %v", s.DurationMs)
	}
	if s.AvgSpeedKmh <= 0 {
		t.Fatalf("expected positive average speed")
	}
}

func TestAppendFixClampsBackwardsClock(t *testing.T) {
	base := time.Now()
	s := New("dev-1", equatorFix(0, base))

	if err := s.AppendFix(equatorFix(0.001, base.Add(-time.Minute))); err != nil {
		t.Fatalf("append fix: %v", err)
	}
	if s.DurationMs != 0 {
		t.Fatalf("expected duration clamped to 0, got %v", s.DurationMs)
	}
	if s.AvgSpeedKmh != 0 {
		t.Fatalf("expected zero speed at zero duration")
	}
}

func TestComplete(t *testing.T) {
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	s := New("dev-1", equatorFix(0, base))
	_ = s.AppendFix(equatorFix(0.001, base.Add(time.Minute)))

	end := equatorFix(0.002, base.Add(2*time.Minute))
	if err := s.Complete(end); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if s.Open() {
		t.Fatalf("session should be closed")
	}
	if s.EndFix == nil || *s.EndFix != end {
		t.Fatalf("end fix not recorded")
	}
	if len(s.Path) != 3 {
		t.Fatalf("end fix should be appended to the path")
	}
	if s.DurationMs != (2 * time.Minute).Milliseconds() {
		t.Fatalf("unexpected frozen duration: %v", s.DurationMs)
	}

	if err := s.AppendFix(equatorFix(0.003, base.Add(3*time.Minute))); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := s.Complete(end); !errors.Is(err, ErrAlreadyClosed) {
		t.Fatalf("expected ErrAlreadyClosed, got %v", err)
	}
}

func TestCompleteWithLastPathElement(t *testing.T) {
	base := time.Now()
	s := New("dev-1", equatorFix(0, base))

	last := equatorFix(0.001, base.Add(time.Minute))
	_ = s.AppendFix(last)

	if err := s.Complete(last); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if len(s.Path) != 2 {
		t.Fatalf("end fix equal to last path element must not be re-appended")
	}
}

func TestAvgAccuracy(t *testing.T) {
	base := time.Now()
	s := New("dev-1", position.Fix{Lat: 0, Lng: 0, AccuracyM: 4, RecordedAt: base})
	_ = s.AppendFix(position.Fix{Lat: 0, Lng: 0.001, AccuracyM: 8, RecordedAt: base.Add(time.Minute)})

	if got := s.AvgAccuracyM(); got != 6 {
		t.Fatalf("expected avg accuracy 6, got %v", got)
	}
}
