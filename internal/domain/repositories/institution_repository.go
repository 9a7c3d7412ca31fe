package repositories

import (
	"context"

	"github.com/myturn/backend/internal/domain/entities"
)

// InstitutionRepository defines the interface for institution data operations
type InstitutionRepository interface {
	// GetByID retrieves an institution by ID, including its services
	GetByID(ctx context.Context, id string) (*entities.Institution, error)

	// GetByIDs retrieves institutions by ID in the order given, skipping unknown IDs
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Institution, error)

	// ListActive retrieves active institutions, optionally restricted to a category
	ListActive(ctx context.Context, filter InstitutionFilter) ([]*entities.Institution, error)

	// UpdateCrowdLevel stores the derived crowd level of an institution
	UpdateCrowdLevel(ctx context.Context, id string, level entities.CrowdLevel) error
}

// InstitutionFilter defines filters for listing institutions
type InstitutionFilter struct {
	Category string
	City     string
	Limit    int
	Offset   int
}

// ServiceRepository defines the interface for service data operations
type ServiceRepository interface {
	// GetByID retrieves a service by ID
	GetByID(ctx context.Context, id string) (*entities.Service, error)

	// ListByInstitution retrieves all services of an institution
	ListByInstitution(ctx context.Context, institutionID string) ([]*entities.Service, error)

	// UpdateStatus sets the operational status of a service
	UpdateStatus(ctx context.Context, id string, status entities.ServiceStatus) error
}

// InstitutionSearchRepository defines the interface for institution text search
type InstitutionSearchRepository interface {
	// Index upserts an institution document
	Index(ctx context.Context, institution *entities.Institution) error

	// Delete removes an institution document
	Delete(ctx context.Context, id string) error

	// Search returns matching institution IDs in relevance order
	Search(ctx context.Context, query InstitutionSearchQuery) ([]string, error)
}

// InstitutionSearchQuery represents a text search over institutions
type InstitutionSearchQuery struct {
	Text     string
	Category string
	Limit    int
}
