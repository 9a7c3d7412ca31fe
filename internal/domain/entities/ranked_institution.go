package entities

import (
	"time"
)

// RankedInstitution is an institution annotated with proximity to the requester.
// The proximity fields are nil when the requester location is unknown.
type RankedInstitution struct {
	Institution
	DistanceKm    *float64 `json:"distance_km,omitempty"`
	TravelMinutes *int     `json:"travel_minutes,omitempty"`
	DepartureTime *string  `json:"departure_time,omitempty"`
}

// LocationFix is a requester position reported by a device
type LocationFix struct {
	Latitude     float64   `json:"latitude" validate:"latitude"`
	Longitude    float64   `json:"longitude" validate:"longitude"`
	Accuracy     *float64  `json:"accuracy,omitempty" validate:"omitempty,gte=0"`
	HighAccuracy bool      `json:"high_accuracy"`
	RecordedAt   time.Time `json:"recorded_at"`
}
