package handlers_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/myturn/backend/internal/application/services"
	"github.com/myturn/backend/internal/domain/entities"
	"github.com/myturn/backend/internal/domain/repositories"
)

type MockBookingUseCases struct {
	mock.Mock
}

func (m *MockBookingUseCases) booking(args mock.Arguments) (*entities.Booking, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Booking), args.Error(1)
}

func (m *MockBookingUseCases) CreateBooking(ctx context.Context, userID string, req services.CreateBookingRequest) (*entities.Booking, error) {
	return m.booking(m.Called(ctx, userID, req))
}

func (m *MockBookingUseCases) SnoozeBooking(ctx context.Context, userID, id string) (*entities.Booking, error) {
	return m.booking(m.Called(ctx, userID, id))
}

func (m *MockBookingUseCases) CancelBooking(ctx context.Context, userID, id string) (*entities.Booking, error) {
	return m.booking(m.Called(ctx, userID, id))
}

func (m *MockBookingUseCases) CheckIn(ctx context.Context, institutionID, code string) (*entities.Booking, error) {
	return m.booking(m.Called(ctx, institutionID, code))
}

func (m *MockBookingUseCases) CompleteBooking(ctx context.Context, institutionID, id string) (*entities.Booking, error) {
	return m.booking(m.Called(ctx, institutionID, id))
}

func (m *MockBookingUseCases) GetBooking(ctx context.Context, userID, id string) (*entities.Booking, error) {
	return m.booking(m.Called(ctx, userID, id))
}

func (m *MockBookingUseCases) ListMyBookings(ctx context.Context, userID string, filter repositories.BookingFilter) ([]*entities.Booking, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).([]*entities.Booking), args.Error(1)
}

func (m *MockBookingUseCases) ListInstitutionBookings(ctx context.Context, institutionID string, filter repositories.BookingFilter) ([]*entities.Booking, error) {
	args := m.Called(ctx, institutionID, filter)
	return args.Get(0).([]*entities.Booking), args.Error(1)
}

func (m *MockBookingUseCases) CheckInCodeImage(ctx context.Context, userID, id string, size int) ([]byte, error) {
	args := m.Called(ctx, userID, id, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockInstitutionUseCases struct {
	mock.Mock
}

func (m *MockInstitutionUseCases) Nearby(ctx context.Context, query services.NearbyQuery) ([]entities.RankedInstitution, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.RankedInstitution), args.Error(1)
}

func (m *MockInstitutionUseCases) GetInstitution(ctx context.Context, id string) (*entities.Institution, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Institution), args.Error(1)
}

func (m *MockInstitutionUseCases) ReportLocation(ctx context.Context, userID string, fix entities.LocationFix) error {
	return m.Called(ctx, userID, fix).Error(0)
}

type MockDashboardUseCases struct {
	mock.Mock
}

func (m *MockDashboardUseCases) Overview(ctx context.Context, institutionID string, date time.Time) (*services.DashboardOverview, error) {
	args := m.Called(ctx, institutionID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.DashboardOverview), args.Error(1)
}

func (m *MockDashboardUseCases) SetServiceStatus(ctx context.Context, institutionID, serviceID string, status entities.ServiceStatus) (*entities.Service, error) {
	args := m.Called(ctx, institutionID, serviceID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Service), args.Error(1)
}

type MockStaffUseCases struct {
	mock.Mock
}

func (m *MockStaffUseCases) ListStaff(ctx context.Context, institutionID string) ([]*entities.Staff, error) {
	args := m.Called(ctx, institutionID)
	return args.Get(0).([]*entities.Staff), args.Error(1)
}

func (m *MockStaffUseCases) Reassign(ctx context.Context, institutionID, staffID string, req services.ReassignRequest, assignedBy string) (*entities.StaffAssignment, error) {
	args := m.Called(ctx, institutionID, staffID, req, assignedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.StaffAssignment), args.Error(1)
}
