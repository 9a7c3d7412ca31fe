package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/myturn/backend/internal/domain/entities"
	"github.com/myturn/backend/internal/domain/repositories"
	"github.com/myturn/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/myturn/backend/pkg/errors"
)

const institutionsTable = "institutions"

var institutionColumns = []interface{}{
	"id", "name", "category", "description", "address", "city", "latitude",
	"longitude", "phone", "opening_time", "closing_time", "crowd_level",
	"is_active", "created_at", "updated_at",
}

// InstitutionAdapter implements the InstitutionRepository interface
type InstitutionAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewInstitutionAdapter creates a new institution adapter
func NewInstitutionAdapter(client *postgres.Client) repositories.InstitutionRepository {
	return &InstitutionAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

func scanInstitution(row rowScanner) (*entities.Institution, error) {
	inst := &entities.Institution{}
	var description, phone, openingTime, closingTime, crowdLevel sql.NullString

	err := row.Scan(
		&inst.ID, &inst.Name, &inst.Category, &description, &inst.Address, &inst.City,
		&inst.Location.Latitude, &inst.Location.Longitude, &phone, &openingTime,
		&closingTime, &crowdLevel, &inst.IsActive, &inst.CreatedAt, &inst.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	inst.Description = description.String
	inst.Phone = phone.String
	inst.OperatingHours = entities.OperatingHours{Open: openingTime.String, Close: closingTime.String}
	inst.CrowdLevel = entities.CrowdLevel(crowdLevel.String)
	if inst.CrowdLevel == "" {
		inst.CrowdLevel = entities.CrowdLevelLow
	}
	return inst, nil
}

// GetByID retrieves an institution by ID, including its services
func (a *InstitutionAdapter) GetByID(ctx context.Context, id string) (*entities.Institution, error) {
	query, args, err := a.db.Select(institutionColumns...).
		From(institutionsTable).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	inst, err := scanInstitution(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("institution with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewUpstreamError("failed to get institution", err)
	}

	services, err := listServices(ctx, a.client, a.db, id)
	if err != nil {
		return nil, err
	}
	for _, s := range services {
		inst.Services = append(inst.Services, *s)
	}

	return inst, nil
}

// GetByIDs retrieves institutions by ID in the order given, skipping unknown IDs
func (a *InstitutionAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Institution, error) {
	if len(ids) == 0 {
		return []*entities.Institution{}, nil
	}

	ds := a.db.Select(institutionColumns...).
		From(institutionsTable).
		Where(goqu.C("id").In(ids))

	found, err := a.list(ctx, ds)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*entities.Institution, len(found))
	for _, inst := range found {
		byID[inst.ID] = inst
	}

	ordered := make([]*entities.Institution, 0, len(found))
	for _, id := range ids {
		if inst, ok := byID[id]; ok {
			ordered = append(ordered, inst)
		}
	}
	return ordered, nil
}

// ListActive retrieves active institutions, optionally restricted to a category
func (a *InstitutionAdapter) ListActive(ctx context.Context, filter repositories.InstitutionFilter) ([]*entities.Institution, error) {
	ds := a.db.Select(institutionColumns...).
		From(institutionsTable).
		Where(goqu.C("is_active").IsTrue()).
		Order(goqu.C("name").Asc())

	if filter.Category != "" {
		ds = ds.Where(goqu.C("category").Eq(filter.Category))
	}
	if filter.City != "" {
		ds = ds.Where(goqu.C("city").ILike(filter.City))
	}
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	return a.list(ctx, ds)
}

func (a *InstitutionAdapter) list(ctx context.Context, ds *goqu.SelectDataset) ([]*entities.Institution, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewUpstreamError("failed to list institutions", err)
	}
	defer rows.Close()

	institutions := make([]*entities.Institution, 0)
	for rows.Next() {
		inst, err := scanInstitution(rows)
		if err != nil {
			return nil, apperrors.NewUpstreamError("failed to scan institution", err)
		}
		institutions = append(institutions, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewUpstreamError("failed to iterate institutions", err)
	}
	return institutions, nil
}

// UpdateCrowdLevel stores the derived crowd level of an institution
func (a *InstitutionAdapter) UpdateCrowdLevel(ctx context.Context, id string, level entities.CrowdLevel) error {
	query, args, err := a.db.Update(institutionsTable).
		Set(goqu.Record{
			"crowd_level": level,
			"updated_at":  time.Now().UTC(),
		}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewUpstreamError("failed to update crowd level", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewUpstreamError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("institution with id %s not found", id))
	}
	return nil
}
