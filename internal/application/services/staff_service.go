package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/myturn/backend/internal/domain/entities"
	"github.com/myturn/backend/internal/domain/repositories"
	"github.com/myturn/backend/internal/infrastructure/observability"
	apperrors "github.com/myturn/backend/pkg/errors"
)

// ReassignRequest is the input of Reassign
type ReassignRequest struct {
	ToServiceID string `json:"to_service_id"`
	Reason      string `json:"reason"`
}

// StaffService handles staff listing and moving staff between services
type StaffService struct {
	staff     repositories.StaffRepository
	services  repositories.ServiceRepository
	publisher *EventPublisher
	now       func() time.Time
}

// NewStaffService creates a new staff service
func NewStaffService(staff repositories.StaffRepository, services repositories.ServiceRepository, publisher *EventPublisher) *StaffService {
	return &StaffService{
		staff:     staff,
		services:  services,
		publisher: publisher,
		now:       time.Now,
	}
}

// ListStaff returns the staff of an institution
func (s *StaffService) ListStaff(ctx context.Context, institutionID string) ([]*entities.Staff, error) {
	return s.staff.ListByInstitution(ctx, institutionID)
}

// Reassign moves an available staff member to another service of the same institution
func (s *StaffService) Reassign(ctx context.Context, institutionID, staffID string, req ReassignRequest, assignedBy string) (*entities.StaffAssignment, error) {
	if req.ToServiceID == "" {
		return nil, apperrors.NewValidationError("to_service_id is required")
	}

	member, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if !inInstitution(institutionID, member.InstitutionID) {
		return nil, apperrors.NewForbiddenError("staff member belongs to another institution")
	}
	if !member.IsAvailable {
		return nil, apperrors.NewConflictError("staff member is not available")
	}
	if member.CurrentServiceID != nil && *member.CurrentServiceID == req.ToServiceID {
		return nil, apperrors.NewConflictError("staff member is already assigned to this service")
	}

	target, err := s.services.GetByID(ctx, req.ToServiceID)
	if err != nil {
		return nil, err
	}
	if target.InstitutionID != member.InstitutionID {
		return nil, apperrors.NewValidationError("service belongs to another institution")
	}
	if target.Status == entities.ServiceStatusClosed {
		return nil, apperrors.NewConflictError("service is closed")
	}

	assignment := &entities.StaffAssignment{
		ID:            uuid.NewString(),
		StaffID:       member.ID,
		FromServiceID: member.CurrentServiceID,
		ToServiceID:   target.ID,
		Reason:        req.Reason,
		AssignedAt:    s.now().UTC(),
	}
	if assignedBy != "" {
		assignment.AssignedBy = &assignedBy
	}

	if err := s.staff.Reassign(ctx, assignment); err != nil {
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info().
		Str("staff_id", member.ID).
		Str("to_service_id", target.ID).
		Msg("staff reassigned")

	fields := map[string]interface{}{
		"staff_id":      member.ID,
		"to_service_id": target.ID,
	}
	if member.CurrentServiceID != nil {
		fields["from_service_id"] = *member.CurrentServiceID
	}
	event := entities.NewQueueEvent(entities.QueueEventStaffReassigned, member.InstitutionID, fields)
	event.ServiceID = target.ID
	s.publisher.Publish(ctx, event)

	return assignment, nil
}
