package entities

import (
	"time"
)

// ServiceStatus represents the operational state of a service
type ServiceStatus string

const (
	ServiceStatusActive ServiceStatus = "active"
	ServiceStatusPaused ServiceStatus = "paused"
	ServiceStatusSurge  ServiceStatus = "surge"
	ServiceStatusClosed ServiceStatus = "closed"
)

// IsValid reports whether s is a known service status
func (s ServiceStatus) IsValid() bool {
	switch s {
	case ServiceStatusActive, ServiceStatusPaused, ServiceStatusSurge, ServiceStatusClosed:
		return true
	}
	return false
}

// AcceptsBookings reports whether new bookings may join the service queue
func (s ServiceStatus) AcceptsBookings() bool {
	return s == ServiceStatusActive || s == ServiceStatusSurge
}

// Service represents a counter or desk an institution offers
type Service struct {
	ID                    string        `json:"id" db:"id"`
	InstitutionID         string        `json:"institution_id" db:"institution_id"`
	Name                  string        `json:"name" db:"name"`
	Category              string        `json:"category,omitempty" db:"category"`
	Subcategory           string        `json:"subcategory,omitempty" db:"subcategory"`
	NormalCapacity        int           `json:"normal_capacity" db:"normal_capacity"`
	CurrentInflow         int           `json:"current_inflow" db:"current_inflow"`
	BufferedCount         int           `json:"buffered_count" db:"buffered_count"`
	AvgServiceTimeMinutes int           `json:"avg_service_time_minutes" db:"avg_service_time_minutes"`
	Status                ServiceStatus `json:"status" db:"status"`
	SurgeThreshold        *int          `json:"surge_threshold,omitempty" db:"surge_threshold"`
	BufferThreshold       *int          `json:"buffer_threshold,omitempty" db:"buffer_threshold"`
	CreatedAt             time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time     `json:"updated_at" db:"updated_at"`
}
