package repositories

import (
	"context"
	"time"

	"github.com/myturn/backend/internal/domain/entities"
)

// StaffRepository defines the interface for staff data operations
type StaffRepository interface {
	// GetByID retrieves a staff member by ID
	GetByID(ctx context.Context, id string) (*entities.Staff, error)

	// ListByInstitution retrieves the staff of an institution
	ListByInstitution(ctx context.Context, institutionID string) ([]*entities.Staff, error)

	// Reassign moves a staff member to another service and records the assignment
	// in one transaction, closing any open assignment of the staff member.
	Reassign(ctx context.Context, assignment *entities.StaffAssignment) error
}

// DemandPredictionRepository defines the interface for demand forecast reads
type DemandPredictionRepository interface {
	// ListByInstitution retrieves the forecasts of an institution for a day, ordered by hour
	ListByInstitution(ctx context.Context, institutionID string, date time.Time) ([]*entities.DemandPrediction, error)
}
