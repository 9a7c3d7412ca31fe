package entities

import (
	"time"
)

// CrowdLevel is a coarse occupancy classification of an institution
type CrowdLevel string

const (
	CrowdLevelLow      CrowdLevel = "low"
	CrowdLevelModerate CrowdLevel = "moderate"
	CrowdLevelHigh     CrowdLevel = "high"
	CrowdLevelSurge    CrowdLevel = "surge"
)

// Institution represents a service-providing organisation customers can queue at
type Institution struct {
	ID             string         `json:"id" db:"id"`
	Name           string         `json:"name" db:"name"`
	Category       string         `json:"category" db:"category"`
	Description    string         `json:"description,omitempty" db:"description"`
	Address        string         `json:"address" db:"address"`
	City           string         `json:"city" db:"city"`
	Location       Location       `json:"location"`
	Phone          string         `json:"phone,omitempty" db:"phone"`
	OperatingHours OperatingHours `json:"operating_hours"`
	CrowdLevel     CrowdLevel     `json:"crowd_level" db:"crowd_level"`
	IsActive       bool           `json:"is_active" db:"is_active"`
	Services       []Service      `json:"services,omitempty"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// Location represents geographic coordinates
type Location struct {
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}

// OperatingHours is the daily opening window, "HH:MM" local time
type OperatingHours struct {
	Open  string `json:"open,omitempty" db:"opening_time"`
	Close string `json:"close,omitempty" db:"closing_time"`
}

// HasLocation reports whether the institution carries usable coordinates
func (i *Institution) HasLocation() bool {
	return i.Location.Latitude != 0 || i.Location.Longitude != 0
}
