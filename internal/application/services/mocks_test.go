package services_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/myturn/backend/internal/domain/entities"
	"github.com/myturn/backend/internal/domain/queue"
	"github.com/myturn/backend/internal/domain/repositories"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *entities.Booking) error {
	return m.Called(ctx, booking).Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*entities.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Booking), args.Error(1)
}

func (m *MockBookingRepository) GetByCheckInCode(ctx context.Context, code string) (*entities.Booking, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListByUser(ctx context.Context, userID string, filter repositories.BookingFilter) ([]*entities.Booking, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).([]*entities.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListByInstitution(ctx context.Context, institutionID string, filter repositories.BookingFilter) ([]*entities.Booking, error) {
	args := m.Called(ctx, institutionID, filter)
	return args.Get(0).([]*entities.Booking), args.Error(1)
}

func (m *MockBookingRepository) MaxPosition(ctx context.Context, window queue.Window) (int, error) {
	args := m.Called(ctx, window)
	return args.Int(0), args.Error(1)
}

func (m *MockBookingRepository) CountActiveByService(ctx context.Context, institutionID string, date time.Time) (map[string]int, error) {
	args := m.Called(ctx, institutionID, date)
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *MockBookingRepository) UpdateSnooze(ctx context.Context, booking *entities.Booking, expectedSnoozeCount int) error {
	return m.Called(ctx, booking, expectedSnoozeCount).Error(0)
}

func (m *MockBookingRepository) UpdateStatus(ctx context.Context, id string, from, to entities.BookingStatus, at time.Time) error {
	return m.Called(ctx, id, from, to, at).Error(0)
}

type MockServiceRepository struct {
	mock.Mock
}

func (m *MockServiceRepository) GetByID(ctx context.Context, id string) (*entities.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Service), args.Error(1)
}

func (m *MockServiceRepository) ListByInstitution(ctx context.Context, institutionID string) ([]*entities.Service, error) {
	args := m.Called(ctx, institutionID)
	return args.Get(0).([]*entities.Service), args.Error(1)
}

func (m *MockServiceRepository) UpdateStatus(ctx context.Context, id string, status entities.ServiceStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

type MockInstitutionRepository struct {
	mock.Mock
}

func (m *MockInstitutionRepository) GetByID(ctx context.Context, id string) (*entities.Institution, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Institution), args.Error(1)
}

func (m *MockInstitutionRepository) GetByIDs(ctx context.Context, ids []string) ([]*entities.Institution, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*entities.Institution), args.Error(1)
}

func (m *MockInstitutionRepository) ListActive(ctx context.Context, filter repositories.InstitutionFilter) ([]*entities.Institution, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*entities.Institution), args.Error(1)
}

func (m *MockInstitutionRepository) UpdateCrowdLevel(ctx context.Context, id string, level entities.CrowdLevel) error {
	return m.Called(ctx, id, level).Error(0)
}

type MockInstitutionSearch struct {
	mock.Mock
}

func (m *MockInstitutionSearch) Index(ctx context.Context, institution *entities.Institution) error {
	return m.Called(ctx, institution).Error(0)
}

func (m *MockInstitutionSearch) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockInstitutionSearch) Search(ctx context.Context, query repositories.InstitutionSearchQuery) ([]string, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockStaffRepository struct {
	mock.Mock
}

func (m *MockStaffRepository) GetByID(ctx context.Context, id string) (*entities.Staff, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Staff), args.Error(1)
}

func (m *MockStaffRepository) ListByInstitution(ctx context.Context, institutionID string) ([]*entities.Staff, error) {
	args := m.Called(ctx, institutionID)
	return args.Get(0).([]*entities.Staff), args.Error(1)
}

func (m *MockStaffRepository) Reassign(ctx context.Context, assignment *entities.StaffAssignment) error {
	return m.Called(ctx, assignment).Error(0)
}

type MockDemandPredictionRepository struct {
	mock.Mock
}

func (m *MockDemandPredictionRepository) ListByInstitution(ctx context.Context, institutionID string, date time.Time) ([]*entities.DemandPrediction, error) {
	args := m.Called(ctx, institutionID, date)
	return args.Get(0).([]*entities.DemandPrediction), args.Error(1)
}

type MockQueueCounter struct {
	mock.Mock
}

func (m *MockQueueCounter) Next(ctx context.Context, window queue.Window, floor int) (int, error) {
	args := m.Called(ctx, window, floor)
	return args.Int(0), args.Error(1)
}

type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.QueueEvent) error {
	return m.Called(ctx, channel, event).Error(0)
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.QueueEvent, error) {
	args := m.Called(ctx, channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(chan *entities.QueueEvent), args.Error(1)
}

func (m *MockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	return m.Called(ctx, channel).Error(0)
}

func (m *MockEventBus) Close() error {
	return m.Called().Error(0)
}

type MockEventStream struct {
	mock.Mock
}

func (m *MockEventStream) Append(ctx context.Context, event *entities.QueueEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockEventStream) Close() error {
	return m.Called().Error(0)
}

type MockLocationProvider struct {
	mock.Mock
}

func (m *MockLocationProvider) Report(ctx context.Context, userID string, fix entities.LocationFix) error {
	return m.Called(ctx, userID, fix).Error(0)
}

func (m *MockLocationProvider) Current(ctx context.Context, userID string) (*entities.LocationFix, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.LocationFix), args.Error(1)
}

type MockEncoder struct {
	mock.Mock
}

func (m *MockEncoder) Encode(code string, size int) ([]byte, error) {
	args := m.Called(code, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockCacheProvider struct {
	mock.Mock
}

func (m *MockCacheProvider) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheProvider) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	return m.Called(ctx, key, value, expirationSeconds).Error(0)
}

func (m *MockCacheProvider) Delete(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}

func (m *MockCacheProvider) DeletePattern(ctx context.Context, pattern string) error {
	return m.Called(ctx, pattern).Error(0)
}
