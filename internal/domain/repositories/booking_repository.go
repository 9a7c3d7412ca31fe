package repositories

import (
	"context"
	"time"

	"github.com/myturn/backend/internal/domain/entities"
	"github.com/myturn/backend/internal/domain/queue"
)

// BookingRepository defines the interface for booking data operations
type BookingRepository interface {
	// Create inserts a new booking
	Create(ctx context.Context, booking *entities.Booking) error

	// GetByID retrieves a booking by ID
	GetByID(ctx context.Context, id string) (*entities.Booking, error)

	// GetByCheckInCode retrieves a booking by its check-in code
	GetByCheckInCode(ctx context.Context, code string) (*entities.Booking, error)

	// ListByUser retrieves a user's bookings ordered by date then slot start
	ListByUser(ctx context.Context, userID string, filter BookingFilter) ([]*entities.Booking, error)

	// ListByInstitution retrieves bookings for an institution ordered by date, slot and position
	ListByInstitution(ctx context.Context, institutionID string, filter BookingFilter) ([]*entities.Booking, error)

	// MaxPosition returns the highest original position handed out in a window, 0 if none
	MaxPosition(ctx context.Context, window queue.Window) (int, error)

	// CountActiveByService returns the number of non-terminal bookings per service on a date
	CountActiveByService(ctx context.Context, institutionID string, date time.Time) (map[string]int, error)

	// UpdateSnooze persists a snoozed booking. The write only applies while the stored
	// snooze_count still equals expectedSnoozeCount and the booking is not terminal;
	// otherwise a conflict or not found error is returned.
	UpdateSnooze(ctx context.Context, booking *entities.Booking, expectedSnoozeCount int) error

	// UpdateStatus moves a booking from one status to another, stamping checked_in_at or
	// completed_at as appropriate. The write only applies while the stored status equals from.
	UpdateStatus(ctx context.Context, id string, from, to entities.BookingStatus, at time.Time) error
}

// BookingFilter defines filters for listing bookings
type BookingFilter struct {
	Status entities.BookingStatus
	Date   *time.Time
	Limit  int
	Offset int
}
