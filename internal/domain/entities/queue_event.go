package entities

import (
	"time"

	"github.com/google/uuid"
)

// QueueEventType represents the kind of queue change being broadcast
type QueueEventType string

const (
	QueueEventBookingCreated       QueueEventType = "booking_created"
	QueueEventBookingSnoozed       QueueEventType = "booking_snoozed"
	QueueEventBookingCancelled     QueueEventType = "booking_cancelled"
	QueueEventBookingCheckedIn     QueueEventType = "booking_checked_in"
	QueueEventBookingCompleted     QueueEventType = "booking_completed"
	QueueEventServiceStatusChanged QueueEventType = "service_status_changed"
	QueueEventStaffReassigned      QueueEventType = "staff_reassigned"
)

// QueueEvent represents a real-time change to a queue, a service or its staffing
type QueueEvent struct {
	ID            string                 `json:"id"`
	EventType     QueueEventType         `json:"event_type"`
	InstitutionID string                 `json:"institution_id"`
	ServiceID     string                 `json:"service_id,omitempty"`
	BookingID     string                 `json:"booking_id,omitempty"`
	UserID        string                 `json:"user_id,omitempty"`
	Timestamp     time.Time              `json:"timestamp"`
	ChangedFields map[string]interface{} `json:"changed_fields,omitempty"`
}

// NewQueueEvent creates a new queue event
func NewQueueEvent(eventType QueueEventType, institutionID string, changedFields map[string]interface{}) *QueueEvent {
	return &QueueEvent{
		ID:            uuid.NewString(),
		EventType:     eventType,
		InstitutionID: institutionID,
		Timestamp:     time.Now().UTC(),
		ChangedFields: changedFields,
	}
}

// NewBookingEvent creates a queue event describing a change to b
func NewBookingEvent(eventType QueueEventType, b *Booking) *QueueEvent {
	event := NewQueueEvent(eventType, b.InstitutionID, map[string]interface{}{
		"status":         b.Status,
		"queue_position": b.QueuePosition,
		"snooze_count":   b.SnoozeCount,
	})
	event.ServiceID = b.ServiceID
	event.BookingID = b.ID
	if b.UserID != nil {
		event.UserID = *b.UserID
	}
	return event
}
