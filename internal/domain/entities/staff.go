package entities

import (
	"time"
)

// StaffRole is the role a staff member holds at an institution
type StaffRole string

const (
	StaffRoleManager  StaffRole = "manager"
	StaffRoleOperator StaffRole = "operator"
	StaffRoleStaff    StaffRole = "staff"
)

// Staff represents a person working a service counter
type Staff struct {
	ID               string    `json:"id" db:"id"`
	UserID           *string   `json:"user_id,omitempty" db:"user_id"`
	InstitutionID    string    `json:"institution_id" db:"institution_id"`
	Name             string    `json:"name" db:"name"`
	Role             StaffRole `json:"role" db:"role"`
	CurrentServiceID *string   `json:"current_service_id,omitempty" db:"current_service_id"`
	IsAvailable      bool      `json:"is_available" db:"is_available"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// StaffAssignment records a move of a staff member between services
type StaffAssignment struct {
	ID            string     `json:"id" db:"id"`
	StaffID       string     `json:"staff_id" db:"staff_id"`
	FromServiceID *string    `json:"from_service_id,omitempty" db:"from_service_id"`
	ToServiceID   string     `json:"to_service_id" db:"to_service_id"`
	Reason        string     `json:"reason,omitempty" db:"reason"`
	AssignedBy    *string    `json:"assigned_by,omitempty" db:"assigned_by"`
	AssignedAt    time.Time  `json:"assigned_at" db:"assigned_at"`
	EndedAt       *time.Time `json:"ended_at,omitempty" db:"ended_at"`
}
