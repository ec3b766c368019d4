package geo

import (
	"errors"
	"math"
	"time"
)

const earthRadiusM = 6371000.0

// ErrInvalidSpeed is returned by PredictedArrival for a zero or negative speed.
var ErrInvalidSpeed = errors.New("speed must be positive")

var compassLabels = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// DistanceMeters returns the great-circle distance between two points
// using the haversine formula.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return earthRadiusM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// InitialBearingDegrees returns the forward azimuth from point 1 to point 2
// in [0, 360).
func InitialBearingDegrees(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)
	theta := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(theta+360, 360)
}

// CompassDirection maps a bearing onto one of the 8 ordinal labels. Each
// label covers a 45-degree arc centered on its heading, except that north
// owns everything in [337.5, 45): a bearing short of due northeast still
// reads as "N".
func CompassDirection(bearingDeg float64) string {
	b := math.Mod(bearingDeg, 360)
	if b < 0 {
		b += 360
	}
	if b < 45 || b >= 337.5 {
		return compassLabels[0]
	}
	return compassLabels[int(math.Round(b/45))%8]
}

// SpeedKmh returns 0 for a non-positive duration rather than dividing by zero.
func SpeedKmh(distanceM float64, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return (distanceM / 1000) / d.Hours()
}

func PredictedArrival(now time.Time, remainingM, speedKmh float64) (time.Time, error) {
	if speedKmh <= 0 {
		return time.Time{}, ErrInvalidSpeed
	}
	hours := remainingM / 1000 / speedKmh
	return now.Add(time.Duration(hours * float64(time.Hour))), nil
}
