package queue

import (
	"errors"
	"time"

	"github.com/myturn/backend/internal/domain/entities"
)

// SnoozePenalty is how many places a late arrival loses per snooze
const SnoozePenalty = 2

// ErrTerminalBooking is returned when a completed or cancelled booking is modified
var ErrTerminalBooking = errors.New("booking is in a terminal state")

// Snooze applies the late-arrival penalty to b and returns the updated copy.
// The input is never modified. original_position is left untouched.
func Snooze(b entities.Booking, now time.Time) (entities.Booking, error) {
	if b.Status.IsTerminal() {
		return b, ErrTerminalBooking
	}

	next := b.Position() + SnoozePenalty

	out := b
	out.QueuePosition = &next
	out.SnoozeCount = b.SnoozeCount + 1
	out.Status = entities.BookingStatusSnoozed
	out.UpdatedAt = now
	return out, nil
}
