// Package queue holds the booking queue policy: how positions are handed out,
// how late arrivals are penalised and which status changes are allowed.
// Everything here is pure; persistence and atomicity live in the adapters.
package queue

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-day layout used for booking dates
const DateLayout = "2006-01-02"

// Window identifies the institution/service/date/slot a position belongs to
type Window struct {
	ServiceID string
	Date      time.Time
	SlotStart string
}

// Key returns a stable identifier for the window
func (w Window) Key() string {
	return fmt.Sprintf("%s:%s:%s", w.ServiceID, w.Date.Format(DateLayout), w.SlotStart)
}

// Occupancy is the highest position already handed out in a window
type Occupancy struct {
	Window Window
	Issued int
}

// AssignPosition returns the next available position in the window.
// The result is always at least 1.
func AssignPosition(occ Occupancy) int {
	if occ.Issued < 0 {
		return 1
	}
	return occ.Issued + 1
}
