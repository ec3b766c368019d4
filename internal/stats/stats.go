package stats

import (
	"github.com/kobadaidesu/shade-route-app/internal/session"
)

// Lifetime holds aggregate totals over all completed walking sessions.
type Lifetime struct {
	TotalSessions  int     `json:"total_sessions"`
	TotalDistanceM float64 `json:"total_distance_m"`
	TotalTimeMs    int64   `json:"total_time_ms"`
	AvgSpeedKmh    float64 `json:"avg_speed_kmh"`
	AvgAccuracyM   float64 `json:"avg_accuracy_m"`
}

// Aggregate recomputes lifetime stats in full from the completed sessions.
// The average speed is an unweighted mean of per-session averages; the
// average accuracy is the mean over every fix in every path. An empty input
// yields the zero value.
func Aggregate(sessions []session.Session) Lifetime {
	var out Lifetime
	if len(sessions) == 0 {
		return out
	}

	speedSum := 0.0
	accuracySum := 0.0
	fixCount := 0
	for _, s := range sessions {
		out.TotalSessions++
		out.TotalDistanceM += s.TotalDistanceM
		out.TotalTimeMs += s.DurationMs
		speedSum += s.AvgSpeedKmh
		for _, f := range s.Path {
			accuracySum += f.AccuracyM
			fixCount++
		}
	}

	out.AvgSpeedKmh = speedSum / float64(out.TotalSessions)
	if fixCount > 0 {
		out.AvgAccuracyM = accuracySum / float64(fixCount)
	}
	return out
}
