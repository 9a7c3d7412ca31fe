package queue

import (
	"github.com/myturn/backend/internal/domain/entities"
)

var transitions = map[entities.BookingStatus][]entities.BookingStatus{
	entities.BookingStatusPending: {
		entities.BookingStatusConfirmed,
		entities.BookingStatusSnoozed,
		entities.BookingStatusCheckedIn,
		entities.BookingStatusCancelled,
	},
	entities.BookingStatusConfirmed: {
		entities.BookingStatusSnoozed,
		entities.BookingStatusCheckedIn,
		entities.BookingStatusCancelled,
	},
	entities.BookingStatusSnoozed: {
		entities.BookingStatusSnoozed,
		entities.BookingStatusCheckedIn,
		entities.BookingStatusCancelled,
	},
	entities.BookingStatusCheckedIn: {
		entities.BookingStatusSnoozed,
		entities.BookingStatusCompleted,
		entities.BookingStatusCancelled,
	},
}

// CanTransition reports whether a booking in status from may move to status to.
// Completed and cancelled bookings accept no transition.
func CanTransition(from, to entities.BookingStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
