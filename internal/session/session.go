package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kobadaidesu/shade-route-app/internal/position"
	"github.com/kobadaidesu/shade-route-app/internal/shared/geo"
)

var (
	// ErrClosed is returned when a fix is appended after completion.
	ErrClosed = errors.New("session closed")
	// ErrAlreadyClosed is returned when a session is completed twice.
	ErrAlreadyClosed = errors.New("session already closed")
)

// Session is the record of one continuous walk. The path is append-only
// while the session is open; distance, duration and average speed are
// recomputed on every appended fix.
type Session struct {
	ID             string         `json:"id"`
	DeviceID       string         `json:"device_id"`
	StartedAt      time.Time      `json:"started_at"`
	EndedAt        time.Time      `json:"ended_at,omitempty"`
	StartFix       position.Fix   `json:"start_fix"`
	EndFix         *position.Fix  `json:"end_fix,omitempty"`
	Path           []position.Fix `json:"path"`
	TotalDistanceM float64        `json:"total_distance_m"`
	DurationMs     int64          `json:"duration_ms"`
	AvgSpeedKmh    float64        `json:"avg_speed_kmh"`
}

func New(deviceID string, start position.Fix) *Session {
	startedAt := start.RecordedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
		start.RecordedAt = startedAt
	}
	return &Session{
		ID:        uuid.NewString(),
		DeviceID:  deviceID,
		StartedAt: startedAt,
		StartFix:  start,
		Path:      []position.Fix{start},
	}
}

func (s *Session) Open() bool {
	return s.EndedAt.IsZero()
}

func (s *Session) AppendFix(fix position.Fix) error {
	if !s.Open() {
		return ErrClosed
	}
	s.accumulate(fix)
	return nil
}

// Complete freezes the session. The end fix is appended first unless it is
// already the last path element.
func (s *Session) Complete(end position.Fix) error {
	if !s.Open() {
		return ErrAlreadyClosed
	}
	if last := s.Path[len(s.Path)-1]; last != end {
		s.accumulate(end)
	}

	s.EndedAt = end.RecordedAt
	if s.EndedAt.Before(s.StartedAt) {
		s.EndedAt = s.StartedAt
	}
	s.EndFix = &end
	s.DurationMs = s.EndedAt.Sub(s.StartedAt).Milliseconds()
	s.AvgSpeedKmh = geo.SpeedKmh(s.TotalDistanceM, s.EndedAt.Sub(s.StartedAt))
	return nil
}

// AvgAccuracyM is the mean reported accuracy over the whole path.
func (s *Session) AvgAccuracyM() float64 {
	if len(s.Path) == 0 {
		return 0
	}
	sum := 0.0
	for _, f := range s.Path {
		sum += f.AccuracyM
	}
	return sum / float64(len(s.Path))
}

func (s *Session) accumulate(fix position.Fix) {
	last := s.Path[len(s.Path)-1]
	s.Path = append(s.Path, fix)
	s.TotalDistanceM += geo.DistanceMeters(last.Lat, last.Lng, fix.Lat, fix.Lng)

	elapsed := fix.RecordedAt.Sub(s.StartedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	s.DurationMs = elapsed.Milliseconds()
	s.AvgSpeedKmh = geo.SpeedKmh(s.TotalDistanceM, elapsed)
}
