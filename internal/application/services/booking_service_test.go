package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/myturn/backend/internal/application/services"
	"github.com/myturn/backend/internal/domain/entities"
	"github.com/myturn/backend/internal/domain/providers"
	"github.com/myturn/backend/internal/domain/queue"
	"github.com/myturn/backend/internal/domain/repositories"
	"github.com/myturn/backend/pkg/config"
	apperrors "github.com/myturn/backend/pkg/errors"
)

var bookingConfig = config.BookingConfig{CheckInPrefix: "MYTURN", QRCodeSize: 256}

type bookingFixture struct {
	bookings *MockBookingRepository
	services *MockServiceRepository
	counter  *MockQueueCounter
	bus      *MockEventBus
	stream   *MockEventStream
	encoder  *MockEncoder
	svc      *services.BookingService
}

func newBookingFixture(withCounter bool) *bookingFixture {
	f := &bookingFixture{
		bookings: new(MockBookingRepository),
		services: new(MockServiceRepository),
		counter:  new(MockQueueCounter),
		bus:      new(MockEventBus),
		stream:   new(MockEventStream),
		encoder:  new(MockEncoder),
	}
	f.bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	f.stream.On("Append", mock.Anything, mock.Anything).Return(nil).Maybe()

	var counter providers.QueueCounter
	if withCounter {
		counter = f.counter
	}
	publisher := services.NewEventPublisher(f.bus, f.stream)
	f.svc = services.NewBookingService(f.bookings, f.services, counter, publisher, f.encoder, bookingConfig, nil)
	return f
}

func validRequest() services.CreateBookingRequest {
	return services.CreateBookingRequest{
		InstitutionID: "inst-1",
		ServiceID:     "svc-1",
		BookingDate:   "2024-03-09",
		TimeSlotStart: "10:00",
		TimeSlotEnd:   "10:30",
		BookingType:   entities.BookingTypeScheduled,
	}
}

func windowKey(key string) interface{} {
	return mock.MatchedBy(func(w queue.Window) bool { return w.Key() == key })
}

func userBooking(status entities.BookingStatus, position, snoozes int) *entities.Booking {
	owner := "user-1"
	original := position - snoozes*queue.SnoozePenalty
	return &entities.Booking{
		ID:               "bk-1",
		UserID:           &owner,
		InstitutionID:    "inst-1",
		ServiceID:        "svc-1",
		QueuePosition:    &position,
		OriginalPosition: &original,
		SnoozeCount:      snoozes,
		Status:           status,
		BookingType:      entities.BookingTypeImmediate,
		CheckInCode:      "MYTURN-1-ABCDEF",
	}
}

func TestBookingService_CreateBooking_DrawsFromCounter(t *testing.T) {
	f := newBookingFixture(true)
	ctx := context.Background()

	f.services.On("GetByID", mock.Anything, "svc-1").
		Return(&entities.Service{ID: "svc-1", InstitutionID: "inst-1", Status: entities.ServiceStatusActive}, nil)
	f.bookings.On("MaxPosition", mock.Anything, windowKey("svc-1:2024-03-09:10:00")).Return(6, nil)
	f.counter.On("Next", mock.Anything, windowKey("svc-1:2024-03-09:10:00"), 6).Return(7, nil)
	f.bookings.On("Create", mock.Anything, mock.AnythingOfType("*entities.Booking")).Return(nil)

	booking, err := f.svc.CreateBooking(ctx, "user-1", validRequest())
	require.NoError(t, err)

	assert.Equal(t, 7, *booking.QueuePosition)
	assert.Equal(t, 7, *booking.OriginalPosition)
	assert.Equal(t, entities.BookingStatusConfirmed, booking.Status)
	assert.Equal(t, 0, booking.SnoozeCount)
	assert.True(t, booking.IsOwnedBy("user-1"))
	assert.Regexp(t, `^MYTURN-\d+-[0-9A-Z]{6}$`, booking.CheckInCode)

	f.bus.AssertCalled(t, "Publish", mock.Anything, "queue:updates", mock.Anything)
	f.bus.AssertCalled(t, "Publish", mock.Anything, "queue:institution:inst-1", mock.Anything)
	f.bus.AssertCalled(t, "Publish", mock.Anything, "queue:user:user-1", mock.Anything)
	f.stream.AssertNumberOfCalls(t, "Append", 1)
}

func TestBookingService_CreateBooking_CounterOutageUsesStoredMaximum(t *testing.T) {
	f := newBookingFixture(true)

	f.services.On("GetByID", mock.Anything, "svc-1").
		Return(&entities.Service{ID: "svc-1", InstitutionID: "inst-1", Status: entities.ServiceStatusSurge}, nil)
	f.bookings.On("MaxPosition", mock.Anything, mock.Anything).Return(6, nil)
	f.counter.On("Next", mock.Anything, mock.Anything, 6).Return(0, errors.New("redis down"))
	f.bookings.On("Create", mock.Anything, mock.Anything).Return(nil)

	booking, err := f.svc.CreateBooking(context.Background(), "user-1", validRequest())
	require.NoError(t, err)
	assert.Equal(t, 7, *booking.QueuePosition)
}

func TestBookingService_CreateBooking_FirstInWindowWithoutCounter(t *testing.T) {
	f := newBookingFixture(false)

	f.services.On("GetByID", mock.Anything, "svc-1").
		Return(&entities.Service{ID: "svc-1", InstitutionID: "inst-1", Status: entities.ServiceStatusActive}, nil)
	f.bookings.On("MaxPosition", mock.Anything, mock.Anything).Return(0, nil)
	f.bookings.On("Create", mock.Anything, mock.Anything).Return(nil)

	booking, err := f.svc.CreateBooking(context.Background(), "user-1", validRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, *booking.QueuePosition)
	f.counter.AssertNotCalled(t, "Next", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_CreateBooking_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		userID  string
		mutate  func(*services.CreateBookingRequest)
		service *entities.Service
		want    apperrors.ErrorType
	}{
		{name: "anonymous", userID: "", mutate: func(*services.CreateBookingRequest) {}, want: apperrors.ErrorTypeUnauthorized},
		{name: "missing service", userID: "user-1", mutate: func(r *services.CreateBookingRequest) { r.ServiceID = "" }, want: apperrors.ErrorTypeValidation},
		{name: "bad date", userID: "user-1", mutate: func(r *services.CreateBookingRequest) { r.BookingDate = "09/03/2024" }, want: apperrors.ErrorTypeValidation},
		{name: "bad slot", userID: "user-1", mutate: func(r *services.CreateBookingRequest) { r.TimeSlotStart = "25:00" }, want: apperrors.ErrorTypeValidation},
		{name: "slot ends before start", userID: "user-1", mutate: func(r *services.CreateBookingRequest) { r.TimeSlotEnd = "09:30" }, want: apperrors.ErrorTypeValidation},
		{name: "unknown booking type", userID: "user-1", mutate: func(r *services.CreateBookingRequest) { r.BookingType = "vip" }, want: apperrors.ErrorTypeValidation},
		{
			name:    "service of another institution",
			userID:  "user-1",
			mutate:  func(*services.CreateBookingRequest) {},
			service: &entities.Service{ID: "svc-1", InstitutionID: "inst-2", Status: entities.ServiceStatusActive},
			want:    apperrors.ErrorTypeValidation,
		},
		{
			name:    "paused service",
			userID:  "user-1",
			mutate:  func(*services.CreateBookingRequest) {},
			service: &entities.Service{ID: "svc-1", InstitutionID: "inst-1", Status: entities.ServiceStatusPaused},
			want:    apperrors.ErrorTypeConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBookingFixture(false)
			if tt.service != nil {
				f.services.On("GetByID", mock.Anything, "svc-1").Return(tt.service, nil)
			}
			req := validRequest()
			tt.mutate(&req)

			booking, err := f.svc.CreateBooking(context.Background(), tt.userID, req)
			require.Error(t, err)
			assert.Nil(t, booking)
			assert.Equal(t, tt.want, apperrors.TypeOf(err))
			f.bookings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestBookingService_SnoozeBooking(t *testing.T) {
	f := newBookingFixture(false)
	stored := userBooking(entities.BookingStatusConfirmed, 7, 0)

	f.bookings.On("GetByID", mock.Anything, "bk-1").Return(stored, nil)
	f.bookings.On("UpdateSnooze", mock.Anything, mock.MatchedBy(func(b *entities.Booking) bool {
		return *b.QueuePosition == 9 && b.SnoozeCount == 1 && b.Status == entities.BookingStatusSnoozed
	}), 0).Return(nil)

	snoozed, err := f.svc.SnoozeBooking(context.Background(), "user-1", "bk-1")
	require.NoError(t, err)
	assert.Equal(t, 9, *snoozed.QueuePosition)
	assert.Equal(t, 7, *snoozed.OriginalPosition)
	assert.Equal(t, 1, snoozed.SnoozeCount)
	assert.Equal(t, 7, *stored.QueuePosition, "stored booking is not mutated")
	f.bus.AssertCalled(t, "Publish", mock.Anything, "queue:user:user-1", mock.MatchedBy(func(e *entities.QueueEvent) bool {
		return e.EventType == entities.QueueEventBookingSnoozed
	}))
}

func TestBookingService_SnoozeBooking_Rejections(t *testing.T) {
	t.Run("another user's booking", func(t *testing.T) {
		f := newBookingFixture(false)
		f.bookings.On("GetByID", mock.Anything, "bk-1").Return(userBooking(entities.BookingStatusConfirmed, 7, 0), nil)

		_, err := f.svc.SnoozeBooking(context.Background(), "user-2", "bk-1")
		assert.Equal(t, apperrors.ErrorTypeForbidden, apperrors.TypeOf(err))
	})

	t.Run("terminal booking", func(t *testing.T) {
		f := newBookingFixture(false)
		f.bookings.On("GetByID", mock.Anything, "bk-1").Return(userBooking(entities.BookingStatusCompleted, 7, 0), nil)

		_, err := f.svc.SnoozeBooking(context.Background(), "user-1", "bk-1")
		assert.Equal(t, apperrors.ErrorTypeConflict, apperrors.TypeOf(err))
		f.bookings.AssertNotCalled(t, "UpdateSnooze", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("lost race", func(t *testing.T) {
		f := newBookingFixture(false)
		f.bookings.On("GetByID", mock.Anything, "bk-1").Return(userBooking(entities.BookingStatusSnoozed, 9, 1), nil)
		f.bookings.On("UpdateSnooze", mock.Anything, mock.Anything, 1).
			Return(apperrors.NewConflictError("booking was modified concurrently")).Once()

		_, err := f.svc.SnoozeBooking(context.Background(), "user-1", "bk-1")
		assert.Equal(t, apperrors.ErrorTypeConflict, apperrors.TypeOf(err))
		f.bookings.AssertNumberOfCalls(t, "UpdateSnooze", 1)
		f.bus.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown booking", func(t *testing.T) {
		f := newBookingFixture(false)
		f.bookings.On("GetByID", mock.Anything, "missing").Return(nil, apperrors.NewNotFoundError("booking not found"))

		_, err := f.svc.SnoozeBooking(context.Background(), "user-1", "missing")
		assert.Equal(t, apperrors.ErrorTypeNotFound, apperrors.TypeOf(err))
	})
}

func TestBookingService_StatusTransitions(t *testing.T) {
	t.Run("cancel", func(t *testing.T) {
		f := newBookingFixture(false)
		f.bookings.On("GetByID", mock.Anything, "bk-1").Return(userBooking(entities.BookingStatusSnoozed, 9, 1), nil)
		f.bookings.On("UpdateStatus", mock.Anything, "bk-1", entities.BookingStatusSnoozed, entities.BookingStatusCancelled, mock.Anything).Return(nil)

		booking, err := f.svc.CancelBooking(context.Background(), "user-1", "bk-1")
		require.NoError(t, err)
		assert.Equal(t, entities.BookingStatusCancelled, booking.Status)
	})

	t.Run("check in by code", func(t *testing.T) {
		f := newBookingFixture(false)
		f.bookings.On("GetByCheckInCode", mock.Anything, "MYTURN-1-ABCDEF").Return(userBooking(entities.BookingStatusConfirmed, 3, 0), nil)
		f.bookings.On("UpdateStatus", mock.Anything, "bk-1", entities.BookingStatusConfirmed, entities.BookingStatusCheckedIn, mock.Anything).Return(nil)

		booking, err := f.svc.CheckIn(context.Background(), "inst-1", "MYTURN-1-ABCDEF")
		require.NoError(t, err)
		assert.Equal(t, entities.BookingStatusCheckedIn, booking.Status)
		assert.NotNil(t, booking.CheckedInAt)
	})

	t.Run("complete requires check in", func(t *testing.T) {
		f := newBookingFixture(false)
		f.bookings.On("GetByID", mock.Anything, "bk-1").Return(userBooking(entities.BookingStatusConfirmed, 3, 0), nil)

		_, err := f.svc.CompleteBooking(context.Background(), "", "bk-1")
		assert.Equal(t, apperrors.ErrorTypeConflict, apperrors.TypeOf(err))
	})

	t.Run("cancelled is terminal", func(t *testing.T) {
		f := newBookingFixture(false)
		f.bookings.On("GetByID", mock.Anything, "bk-1").Return(userBooking(entities.BookingStatusCancelled, 3, 0), nil)

		_, err := f.svc.CancelBooking(context.Background(), "user-1", "bk-1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already cancelled")
	})
}

func TestBookingService_StaffActionsScopedToInstitution(t *testing.T) {
	t.Run("check in at another institution", func(t *testing.T) {
		f := newBookingFixture(false)
		f.bookings.On("GetByCheckInCode", mock.Anything, "MYTURN-1-ABCDEF").Return(userBooking(entities.BookingStatusConfirmed, 3, 0), nil)

		_, err := f.svc.CheckIn(context.Background(), "inst-2", "MYTURN-1-ABCDEF")
		assert.Equal(t, apperrors.ErrorTypeForbidden, apperrors.TypeOf(err))
		f.bookings.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("complete at another institution", func(t *testing.T) {
		f := newBookingFixture(false)
		f.bookings.On("GetByID", mock.Anything, "bk-1").Return(userBooking(entities.BookingStatusCheckedIn, 3, 0), nil)

		_, err := f.svc.CompleteBooking(context.Background(), "inst-2", "bk-1")
		assert.Equal(t, apperrors.ErrorTypeForbidden, apperrors.TypeOf(err))
		f.bookings.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("complete at own institution", func(t *testing.T) {
		f := newBookingFixture(false)
		f.bookings.On("GetByID", mock.Anything, "bk-1").Return(userBooking(entities.BookingStatusCheckedIn, 3, 0), nil)
		f.bookings.On("UpdateStatus", mock.Anything, "bk-1", entities.BookingStatusCheckedIn, entities.BookingStatusCompleted, mock.Anything).Return(nil)

		booking, err := f.svc.CompleteBooking(context.Background(), "inst-1", "bk-1")
		require.NoError(t, err)
		assert.Equal(t, entities.BookingStatusCompleted, booking.Status)
	})
}

func TestBookingService_CheckInCodeImage(t *testing.T) {
	f := newBookingFixture(false)
	f.bookings.On("GetByID", mock.Anything, "bk-1").Return(userBooking(entities.BookingStatusConfirmed, 3, 0), nil)
	f.encoder.On("Encode", "MYTURN-1-ABCDEF", 256).Return([]byte("png"), nil)

	png, err := f.svc.CheckInCodeImage(context.Background(), "user-1", "bk-1", 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), png)
}

func TestBookingService_ListMyBookingsRequiresIdentity(t *testing.T) {
	f := newBookingFixture(false)
	_, err := f.svc.ListMyBookings(context.Background(), "", repositories.BookingFilter{})
	assert.Equal(t, apperrors.ErrorTypeUnauthorized, apperrors.TypeOf(err))
}
