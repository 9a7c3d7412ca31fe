package geo

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// TravelMode selects the fixed speed used for travel estimates
type TravelMode string

const (
	TravelModeWalk    TravelMode = "walk"
	TravelModeDrive   TravelMode = "drive"
	TravelModeTransit TravelMode = "transit"

	DefaultTravelMode = TravelModeDrive
)

// ClockLayout is how departure times are rendered
const ClockLayout = "03:04 PM"

var speedsKmh = map[TravelMode]float64{
	TravelModeWalk:    5,
	TravelModeDrive:   25,
	TravelModeTransit: 20,
}

// ParseTravelMode maps a user-supplied mode to a TravelMode. Empty means drive.
func ParseTravelMode(s string) (TravelMode, error) {
	mode := TravelMode(strings.ToLower(strings.TrimSpace(s)))
	if mode == "" {
		return DefaultTravelMode, nil
	}
	if _, ok := speedsKmh[mode]; !ok {
		return "", fmt.Errorf("unknown travel mode %q", s)
	}
	return mode, nil
}

// SpeedKmh returns the speed for mode, falling back to the default mode
func SpeedKmh(mode TravelMode) float64 {
	if speed, ok := speedsKmh[mode]; ok {
		return speed
	}
	return speedsKmh[DefaultTravelMode]
}

// TravelMinutes estimates whole minutes needed to cover distanceKm
func TravelMinutes(distanceKm float64, mode TravelMode) int {
	if distanceKm <= 0 {
		return 0
	}
	return int(math.Ceil(distanceKm / SpeedKmh(mode) * 60))
}

// DepartureClock returns now+minutes as a clock string in loc
func DepartureClock(now time.Time, minutes int, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return now.Add(time.Duration(minutes) * time.Minute).In(loc).Format(ClockLayout)
}
