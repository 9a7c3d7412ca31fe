package entities

import (
	"time"
)

// BookingStatus represents the lifecycle state of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCheckedIn BookingStatus = "checked_in"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusSnoozed   BookingStatus = "snoozed"
)

// IsTerminal reports whether the booking can no longer change
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

// IsValid reports whether s is a known status
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCheckedIn,
		BookingStatusCompleted, BookingStatusCancelled, BookingStatusSnoozed:
		return true
	}
	return false
}

// BookingType is the certainty mode the customer picked
type BookingType string

const (
	BookingTypeImmediate BookingType = "immediate"
	BookingTypeScheduled BookingType = "scheduled"
	BookingTypePriority  BookingType = "priority"
)

// IsValid reports whether t is a known booking type
func (t BookingType) IsValid() bool {
	return t == BookingTypeImmediate || t == BookingTypeScheduled || t == BookingTypePriority
}

// Booking represents a customer's slot in a service queue
type Booking struct {
	ID               string        `json:"id" db:"id"`
	UserID           *string       `json:"user_id,omitempty" db:"user_id"`
	InstitutionID    string        `json:"institution_id" db:"institution_id"`
	ServiceID        string        `json:"service_id" db:"service_id"`
	BookingDate      time.Time     `json:"booking_date" db:"booking_date"`
	TimeSlotStart    string        `json:"time_slot_start" db:"time_slot_start"`
	TimeSlotEnd      string        `json:"time_slot_end" db:"time_slot_end"`
	QueuePosition    *int          `json:"queue_position,omitempty" db:"queue_position"`
	OriginalPosition *int          `json:"original_position,omitempty" db:"original_position"`
	SnoozeCount      int           `json:"snooze_count" db:"snooze_count"`
	Status           BookingStatus `json:"status" db:"status"`
	BookingType      BookingType   `json:"booking_type" db:"booking_type"`
	CheckInCode      string        `json:"check_in_code" db:"qr_code"`
	CheckedInAt      *time.Time    `json:"checked_in_at,omitempty" db:"checked_in_at"`
	CompletedAt      *time.Time    `json:"completed_at,omitempty" db:"completed_at"`
	Notes            string        `json:"notes,omitempty" db:"notes"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" db:"updated_at"`

	// Read-side joins, populated by list queries
	Institution *BookingInstitution `json:"institution,omitempty" db:"-"`
	Service     *BookingService     `json:"service,omitempty" db:"-"`
}

// BookingInstitution is the institution summary shown alongside a booking
type BookingInstitution struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// BookingService is the service summary shown alongside a booking
type BookingService struct {
	Name string `json:"name"`
}

// IsOwnedBy reports whether userID owns the booking
func (b *Booking) IsOwnedBy(userID string) bool {
	return b.UserID != nil && *b.UserID == userID
}

// Position returns the current queue position, zero when unset
func (b *Booking) Position() int {
	if b.QueuePosition == nil {
		return 0
	}
	return *b.QueuePosition
}
