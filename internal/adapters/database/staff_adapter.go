package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"

	"github.com/myturn/backend/internal/domain/entities"
	"github.com/myturn/backend/internal/domain/repositories"
	"github.com/myturn/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/myturn/backend/pkg/errors"
)

const (
	staffTable            = "staff"
	staffAssignmentsTable = "staff_assignments"
)

var staffColumns = []interface{}{
	"id", "user_id", "institution_id", "name", "role", "current_service_id",
	"is_available", "created_at", "updated_at",
}

// StaffAdapter implements the StaffRepository interface
type StaffAdapter struct {
	db   *goqu.Database
	sqlx *sqlx.DB
}

// NewStaffAdapter creates a new staff adapter
func NewStaffAdapter(client *postgres.Client) repositories.StaffRepository {
	return &StaffAdapter{
		db:   goqu.New("postgres", client.DB()),
		sqlx: sqlx.NewDb(client.DB(), "postgres"),
	}
}

// GetByID retrieves a staff member by ID
func (a *StaffAdapter) GetByID(ctx context.Context, id string) (*entities.Staff, error) {
	query, args, err := a.db.Select(staffColumns...).
		From(staffTable).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var staff entities.Staff
	err = a.sqlx.GetContext(ctx, &staff, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("staff with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewUpstreamError("failed to get staff", err)
	}
	return &staff, nil
}

// ListByInstitution retrieves the staff of an institution
func (a *StaffAdapter) ListByInstitution(ctx context.Context, institutionID string) ([]*entities.Staff, error) {
	query, args, err := a.db.Select(staffColumns...).
		From(staffTable).
		Where(goqu.Ex{"institution_id": institutionID}).
		Order(goqu.C("role").Asc(), goqu.C("name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	staff := make([]*entities.Staff, 0)
	if err := a.sqlx.SelectContext(ctx, &staff, query, args...); err != nil {
		return nil, apperrors.NewUpstreamError("failed to list staff", err)
	}
	return staff, nil
}

// Reassign moves a staff member to another service and records the assignment
func (a *StaffAdapter) Reassign(ctx context.Context, assignment *entities.StaffAssignment) error {
	tx, err := a.sqlx.BeginTxx(ctx, nil)
	if err != nil {
		return apperrors.NewUpstreamError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	closeQuery, closeArgs, err := a.db.Update(staffAssignmentsTable).
		Set(goqu.Record{"ended_at": assignment.AssignedAt}).
		Where(goqu.C("staff_id").Eq(assignment.StaffID), goqu.C("ended_at").IsNull()).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}
	if _, err := tx.ExecContext(ctx, closeQuery, closeArgs...); err != nil {
		return apperrors.NewUpstreamError("failed to close previous assignment", err)
	}

	moveQuery, moveArgs, err := a.db.Update(staffTable).
		Set(goqu.Record{
			"current_service_id": assignment.ToServiceID,
			"updated_at":         assignment.AssignedAt,
		}).
		Where(goqu.Ex{"id": assignment.StaffID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}
	result, err := tx.ExecContext(ctx, moveQuery, moveArgs...)
	if err != nil {
		return apperrors.NewUpstreamError("failed to move staff", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return apperrors.NewUpstreamError("failed to get rows affected", err)
	} else if n == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("staff with id %s not found", assignment.StaffID))
	}

	insertQuery, insertArgs, err := a.db.Insert(staffAssignmentsTable).
		Rows(goqu.Record{
			"id":              assignment.ID,
			"staff_id":        assignment.StaffID,
			"from_service_id": assignment.FromServiceID,
			"to_service_id":   assignment.ToServiceID,
			"reason":          assignment.Reason,
			"assigned_by":     assignment.AssignedBy,
			"assigned_at":     assignment.AssignedAt,
		}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}
	if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
		return apperrors.NewUpstreamError("failed to record assignment", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewUpstreamError("failed to commit reassignment", err)
	}
	return nil
}
