package services

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/myturn/backend/internal/domain/entities"
	"github.com/myturn/backend/internal/domain/providers"
	"github.com/myturn/backend/internal/domain/queue"
	"github.com/myturn/backend/internal/domain/repositories"
	"github.com/myturn/backend/internal/infrastructure/observability"
	"github.com/myturn/backend/pkg/config"
	apperrors "github.com/myturn/backend/pkg/errors"
)

// CreateBookingRequest is the input of CreateBooking
type CreateBookingRequest struct {
	InstitutionID string               `json:"institution_id" validate:"required"`
	ServiceID     string               `json:"service_id" validate:"required"`
	BookingDate   string               `json:"booking_date" validate:"required,datetime=2006-01-02"`
	TimeSlotStart string               `json:"time_slot_start" validate:"required,datetime=15:04"`
	TimeSlotEnd   string               `json:"time_slot_end" validate:"required,datetime=15:04"`
	BookingType   entities.BookingType `json:"booking_type" validate:"required,oneof=immediate scheduled priority"`
	Notes         string               `json:"notes" validate:"max=500"`
}

// BookingService handles the booking lifecycle: issuing positions, snoozing and status changes
type BookingService struct {
	bookings  repositories.BookingRepository
	services  repositories.ServiceRepository
	counter   providers.QueueCounter
	publisher *EventPublisher
	encoder   providers.CheckInCodeEncoder
	cfg       config.BookingConfig
	metrics   *observability.Metrics
	validate  *validator.Validate
	now       func() time.Time
	random    io.Reader
}

// NewBookingService creates a new booking service. counter may be nil, in which
// case positions are drawn from storage alone.
func NewBookingService(
	bookings repositories.BookingRepository,
	services repositories.ServiceRepository,
	counter providers.QueueCounter,
	publisher *EventPublisher,
	encoder providers.CheckInCodeEncoder,
	cfg config.BookingConfig,
	metrics *observability.Metrics,
) *BookingService {
	return &BookingService{
		bookings:  bookings,
		services:  services,
		counter:   counter,
		publisher: publisher,
		encoder:   encoder,
		cfg:       cfg,
		metrics:   metrics,
		validate:  validator.New(),
		now:       time.Now,
		random:    rand.Reader,
	}
}

// CreateBooking issues the next position in the requested window and stores a confirmed booking
func (s *BookingService) CreateBooking(ctx context.Context, userID string, req CreateBookingRequest) (*entities.Booking, error) {
	ctx, span := observability.StartSpan(ctx, "BookingService.CreateBooking")
	defer span.End()

	if userID == "" {
		return nil, apperrors.NewUnauthorizedError("sign in to book a slot")
	}
	if err := s.validate.Struct(&req); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	// HH:MM strings order lexically
	if req.TimeSlotEnd <= req.TimeSlotStart {
		return nil, apperrors.NewValidationError("time_slot_end must be after time_slot_start")
	}
	date, err := time.Parse(queue.DateLayout, req.BookingDate)
	if err != nil {
		return nil, apperrors.NewValidationError("booking_date must be YYYY-MM-DD")
	}

	svc, err := s.services.GetByID(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}
	if svc.InstitutionID != req.InstitutionID {
		return nil, apperrors.NewValidationError("service does not belong to institution")
	}
	if !svc.Status.AcceptsBookings() {
		return nil, apperrors.NewConflictError("service is " + string(svc.Status) + " and not accepting bookings")
	}

	window := queue.Window{ServiceID: svc.ID, Date: date, SlotStart: req.TimeSlotStart}
	position, err := s.nextPosition(ctx, window)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	now := s.now().UTC()
	code, err := queue.NewCheckInCode(s.cfg.CheckInPrefix, now, s.random)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to generate check-in code", err)
	}

	owner := userID
	booking := &entities.Booking{
		ID:               uuid.NewString(),
		UserID:           &owner,
		InstitutionID:    req.InstitutionID,
		ServiceID:        req.ServiceID,
		BookingDate:      date,
		TimeSlotStart:    req.TimeSlotStart,
		TimeSlotEnd:      req.TimeSlotEnd,
		QueuePosition:    &position,
		OriginalPosition: intPtr(position),
		Status:           entities.BookingStatusConfirmed,
		BookingType:      req.BookingType,
		CheckInCode:      code,
		Notes:            req.Notes,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info().
		Str("booking_id", booking.ID).
		Str("window", window.Key()).
		Int("position", position).
		Msg("booking created")
	observability.RecordBookingEvent(ctx, s.metrics, string(entities.QueueEventBookingCreated), string(booking.BookingType))
	s.publisher.Publish(ctx, entities.NewBookingEvent(entities.QueueEventBookingCreated, booking))

	return booking, nil
}

// nextPosition draws from the shared counter floored at the stored maximum.
// A counter outage falls back to the stored maximum alone.
func (s *BookingService) nextPosition(ctx context.Context, window queue.Window) (int, error) {
	issued, err := s.bookings.MaxPosition(ctx, window)
	if err != nil {
		return 0, err
	}

	if s.counter != nil {
		position, err := s.counter.Next(ctx, window, issued)
		if err == nil {
			return position, nil
		}
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("window", window.Key()).Msg("queue counter unavailable, using stored maximum")
	}

	return queue.AssignPosition(queue.Occupancy{Window: window, Issued: issued}), nil
}

// SnoozeBooking moves the caller's booking back by the snooze penalty
func (s *BookingService) SnoozeBooking(ctx context.Context, userID, id string) (*entities.Booking, error) {
	ctx, span := observability.StartSpan(ctx, "BookingService.SnoozeBooking")
	defer span.End()

	booking, err := s.ownedBooking(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	expected := booking.SnoozeCount
	snoozed, err := queue.Snooze(*booking, s.now().UTC())
	if errors.Is(err, queue.ErrTerminalBooking) {
		return nil, apperrors.NewConflictError("booking is already " + string(booking.Status))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to snooze booking", err)
	}

	if err := s.bookings.UpdateSnooze(ctx, &snoozed, expected); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info().
		Str("booking_id", snoozed.ID).
		Int("queue_position", snoozed.Position()).
		Int("snooze_count", snoozed.SnoozeCount).
		Msg("booking snoozed")
	observability.RecordBookingEvent(ctx, s.metrics, string(entities.QueueEventBookingSnoozed), string(snoozed.BookingType))
	s.publisher.Publish(ctx, entities.NewBookingEvent(entities.QueueEventBookingSnoozed, &snoozed))

	return &snoozed, nil
}

// CancelBooking cancels the caller's booking
func (s *BookingService) CancelBooking(ctx context.Context, userID, id string) (*entities.Booking, error) {
	booking, err := s.ownedBooking(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, booking, entities.BookingStatusCancelled, entities.QueueEventBookingCancelled)
}

// CheckIn marks the booking carrying code as arrived. A non-empty
// institutionID restricts the check-in to that institution's bookings.
func (s *BookingService) CheckIn(ctx context.Context, institutionID, code string) (*entities.Booking, error) {
	if code == "" {
		return nil, apperrors.NewValidationError("check-in code is required")
	}
	booking, err := s.bookings.GetByCheckInCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !inInstitution(institutionID, booking.InstitutionID) {
		return nil, apperrors.NewForbiddenError("booking belongs to another institution")
	}
	return s.transition(ctx, booking, entities.BookingStatusCheckedIn, entities.QueueEventBookingCheckedIn)
}

// CompleteBooking marks a checked-in booking as served
func (s *BookingService) CompleteBooking(ctx context.Context, institutionID, id string) (*entities.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !inInstitution(institutionID, booking.InstitutionID) {
		return nil, apperrors.NewForbiddenError("booking belongs to another institution")
	}
	return s.transition(ctx, booking, entities.BookingStatusCompleted, entities.QueueEventBookingCompleted)
}

// inInstitution reports whether a record owned by owner is visible to a
// caller scoped to scope. An empty scope sees every institution.
func inInstitution(scope, owner string) bool {
	return scope == "" || scope == owner
}

func (s *BookingService) transition(ctx context.Context, booking *entities.Booking, to entities.BookingStatus, eventType entities.QueueEventType) (*entities.Booking, error) {
	from := booking.Status
	if !queue.CanTransition(from, to) {
		if from.IsTerminal() {
			return nil, apperrors.NewConflictError("booking is already " + string(from))
		}
		return nil, apperrors.NewConflictError("booking cannot move from " + string(from) + " to " + string(to))
	}

	now := s.now().UTC()
	if err := s.bookings.UpdateStatus(ctx, booking.ID, from, to, now); err != nil {
		return nil, err
	}

	updated := *booking
	updated.Status = to
	updated.UpdatedAt = now
	switch to {
	case entities.BookingStatusCheckedIn:
		updated.CheckedInAt = &now
	case entities.BookingStatusCompleted:
		updated.CompletedAt = &now
	}

	observability.LoggerFromContext(ctx).Info().
		Str("booking_id", updated.ID).
		Str("from", string(from)).
		Str("to", string(to)).
		Msg("booking status changed")
	observability.RecordBookingEvent(ctx, s.metrics, string(eventType), string(updated.BookingType))
	s.publisher.Publish(ctx, entities.NewBookingEvent(eventType, &updated))

	return &updated, nil
}

// GetBooking returns one of the caller's bookings
func (s *BookingService) GetBooking(ctx context.Context, userID, id string) (*entities.Booking, error) {
	return s.ownedBooking(ctx, userID, id)
}

// ListMyBookings returns the caller's bookings ordered by date then slot start
func (s *BookingService) ListMyBookings(ctx context.Context, userID string, filter repositories.BookingFilter) ([]*entities.Booking, error) {
	if userID == "" {
		return nil, apperrors.NewUnauthorizedError("sign in to see your bookings")
	}
	return s.bookings.ListByUser(ctx, userID, filter)
}

// ListInstitutionBookings returns an institution's bookings in queue order
func (s *BookingService) ListInstitutionBookings(ctx context.Context, institutionID string, filter repositories.BookingFilter) ([]*entities.Booking, error) {
	return s.bookings.ListByInstitution(ctx, institutionID, filter)
}

// CheckInCodeImage renders the check-in code of the caller's booking as a PNG
func (s *BookingService) CheckInCodeImage(ctx context.Context, userID, id string, size int) ([]byte, error) {
	booking, err := s.ownedBooking(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = s.cfg.QRCodeSize
	}
	png, err := s.encoder.Encode(booking.CheckInCode, size)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to render check-in code", err)
	}
	return png, nil
}

func (s *BookingService) ownedBooking(ctx context.Context, userID, id string) (*entities.Booking, error) {
	if userID == "" {
		return nil, apperrors.NewUnauthorizedError("sign in to manage bookings")
	}
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !booking.IsOwnedBy(userID) {
		return nil, apperrors.NewForbiddenError("booking belongs to another user")
	}
	return booking, nil
}

func intPtr(v int) *int {
	return &v
}
