package nav

import (
	"errors"
	"time"

	"github.com/kobadaidesu/shade-route-app/internal/position"
)

type Mode string

const (
	ModeIdle       Mode = "idle"
	ModeTracking   Mode = "tracking"
	ModeNavigating Mode = "navigating"
)

var (
	ErrGeolocationUnsupported = errors.New("geolocation not supported")
	ErrNoDestination          = errors.New("destination required")
)

type LatLng struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// Snapshot is the observable navigation state handed to the UI collaborator.
type Snapshot struct {
	DeviceID               string          `json:"device_id"`
	Mode                   Mode            `json:"mode"`
	Destination            *LatLng         `json:"destination,omitempty"`
	CurrentFix             *position.Fix   `json:"current_fix,omitempty"`
	DistanceToDestinationM *float64        `json:"distance_to_destination_m,omitempty"`
	BearingDeg             *float64        `json:"bearing_deg,omitempty"`
	Direction              string          `json:"direction,omitempty"`
	ETA                    *time.Time      `json:"eta,omitempty"`
	Session                *SessionSummary `json:"session,omitempty"`
	Trail                  []position.Fix  `json:"trail,omitempty"`
	LastError              string          `json:"last_error,omitempty"`
}

type SessionSummary struct {
	ID             string    `json:"id"`
	StartedAt      time.Time `json:"started_at"`
	TotalDistanceM float64   `json:"total_distance_m"`
	DurationMs     int64     `json:"duration_ms"`
	AvgSpeedKmh    float64   `json:"avg_speed_kmh"`
	FixCount       int       `json:"fix_count"`
}

type errorEvent struct {
	Error       string `json:"error"`
	Recoverable bool   `json:"recoverable"`
}

// trail keeps the most recent fixes for display, oldest evicted first.
// It is deliberately separate from the session path, which is unbounded.
type trail struct {
	limit int
	fixes []position.Fix
}

func newTrail(limit int) *trail {
	return &trail{limit: limit}
}

func (t *trail) push(f position.Fix) {
	if t.limit <= 0 {
		return
	}
	if len(t.fixes) == t.limit {
		copy(t.fixes, t.fixes[1:])
		t.fixes[len(t.fixes)-1] = f
		return
	}
	t.fixes = append(t.fixes, f)
}

func (t *trail) snapshot() []position.Fix {
	if len(t.fixes) == 0 {
		return nil
	}
	out := make([]position.Fix, len(t.fixes))
	copy(out, t.fixes)
	return out
}
