package services

import (
	"context"
	"time"

	"github.com/myturn/backend/internal/domain/capacity"
	"github.com/myturn/backend/internal/domain/entities"
	"github.com/myturn/backend/internal/domain/repositories"
	"github.com/myturn/backend/internal/infrastructure/observability"
	apperrors "github.com/myturn/backend/pkg/errors"
)

// ServiceLoad is the live load of one service
type ServiceLoad struct {
	Service     *entities.Service  `json:"service"`
	Utilization float64            `json:"utilization"`
	Level       capacity.LoadLevel `json:"level"`
	QueueLength int                `json:"queue_length"`
}

// SurgeAlert is a forecast hour whose demand exceeds the surge limit
type SurgeAlert struct {
	ServiceID       *string `json:"service_id,omitempty"`
	HourSlot        int     `json:"hour_slot"`
	PredictedDemand int     `json:"predicted_demand"`
	SurgeLimit      int     `json:"surge_limit"`
}

// DashboardOverview summarizes an institution's queues for one day
type DashboardOverview struct {
	InstitutionID string                       `json:"institution_id"`
	Date          string                       `json:"date"`
	CrowdLevel    entities.CrowdLevel          `json:"crowd_level"`
	Utilization   float64                      `json:"utilization"`
	TotalInflow   int                          `json:"total_inflow"`
	TotalCapacity int                          `json:"total_capacity"`
	TotalBuffered int                          `json:"total_buffered"`
	Services      []ServiceLoad                `json:"services"`
	SurgeAlerts   []SurgeAlert                 `json:"surge_alerts"`
	Predictions   []*entities.DemandPrediction `json:"predictions"`
}

// DashboardService builds institution dashboards and changes service status
type DashboardService struct {
	institutions repositories.InstitutionRepository
	services     repositories.ServiceRepository
	bookings     repositories.BookingRepository
	predictions  repositories.DemandPredictionRepository
	publisher    *EventPublisher
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	institutions repositories.InstitutionRepository,
	services repositories.ServiceRepository,
	bookings repositories.BookingRepository,
	predictions repositories.DemandPredictionRepository,
	publisher *EventPublisher,
) *DashboardService {
	return &DashboardService{
		institutions: institutions,
		services:     services,
		bookings:     bookings,
		predictions:  predictions,
		publisher:    publisher,
	}
}

// Overview computes the per-service load, totals, crowd level and surge alerts of a day.
// A changed crowd level is written back to the institution.
func (s *DashboardService) Overview(ctx context.Context, institutionID string, date time.Time) (*DashboardOverview, error) {
	ctx, span := observability.StartSpan(ctx, "DashboardService.Overview")
	defer span.End()

	institution, err := s.institutions.GetByID(ctx, institutionID)
	if err != nil {
		return nil, err
	}
	services, err := s.services.ListByInstitution(ctx, institutionID)
	if err != nil {
		return nil, err
	}
	queueLengths, err := s.bookings.CountActiveByService(ctx, institutionID, date)
	if err != nil {
		return nil, err
	}
	predictions, err := s.predictions.ListByInstitution(ctx, institutionID, date)
	if err != nil {
		return nil, err
	}

	overview := &DashboardOverview{
		InstitutionID: institutionID,
		Date:          date.Format("2006-01-02"),
		Services:      make([]ServiceLoad, 0, len(services)),
		SurgeAlerts:   []SurgeAlert{},
		Predictions:   predictions,
	}

	limits := make(map[string]int, len(services))
	for _, svc := range services {
		overview.Services = append(overview.Services, ServiceLoad{
			Service:     svc,
			Utilization: capacity.Utilization(svc.CurrentInflow, svc.NormalCapacity),
			Level:       capacity.Classify(*svc),
			QueueLength: queueLengths[svc.ID],
		})
		overview.TotalInflow += svc.CurrentInflow
		overview.TotalCapacity += svc.NormalCapacity
		overview.TotalBuffered += svc.BufferedCount
		limits[svc.ID] = capacity.SurgeLimit(*svc)
	}

	overview.Utilization = capacity.Utilization(overview.TotalInflow, overview.TotalCapacity)
	overview.CrowdLevel = capacity.CrowdLevelFor(capacity.Percent(overview.TotalInflow, overview.TotalCapacity))

	for _, p := range predictions {
		limit := overview.TotalCapacity
		if p.ServiceID != nil {
			serviceLimit, ok := limits[*p.ServiceID]
			if !ok {
				continue
			}
			limit = serviceLimit
		}
		if p.PredictedDemand > limit {
			overview.SurgeAlerts = append(overview.SurgeAlerts, SurgeAlert{
				ServiceID:       p.ServiceID,
				HourSlot:        p.HourSlot,
				PredictedDemand: p.PredictedDemand,
				SurgeLimit:      limit,
			})
		}
	}

	if institution.CrowdLevel != overview.CrowdLevel {
		if err := s.institutions.UpdateCrowdLevel(ctx, institutionID, overview.CrowdLevel); err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("institution_id", institutionID).Msg("failed to store crowd level")
		}
	}

	return overview, nil
}

// SetServiceStatus pauses, resumes or closes a service
func (s *DashboardService) SetServiceStatus(ctx context.Context, institutionID, serviceID string, status entities.ServiceStatus) (*entities.Service, error) {
	if !status.IsValid() {
		return nil, apperrors.NewValidationError("unknown service status " + string(status))
	}

	svc, err := s.services.GetByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if !inInstitution(institutionID, svc.InstitutionID) {
		return nil, apperrors.NewForbiddenError("service belongs to another institution")
	}
	if svc.Status == status {
		return svc, nil
	}

	previous := svc.Status
	if err := s.services.UpdateStatus(ctx, serviceID, status); err != nil {
		return nil, err
	}
	svc.Status = status

	observability.LoggerFromContext(ctx).Info().
		Str("service_id", serviceID).
		Str("from", string(previous)).
		Str("to", string(status)).
		Msg("service status changed")

	event := entities.NewQueueEvent(entities.QueueEventServiceStatusChanged, svc.InstitutionID, map[string]interface{}{
		"status":          status,
		"previous_status": previous,
	})
	event.ServiceID = serviceID
	s.publisher.Publish(ctx, event)

	return svc, nil
}
