package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"

	"github.com/myturn/backend/internal/domain/entities"
	"github.com/myturn/backend/internal/domain/queue"
	"github.com/myturn/backend/internal/domain/repositories"
	"github.com/myturn/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/myturn/backend/pkg/errors"
)

const bookingsTable = "bookings"

// uniqueViolation is raised by the window/original_position index when two
// creates draw the same position
const uniqueViolation pq.ErrorCode = "23505"

var terminalStatuses = []interface{}{
	entities.BookingStatusCompleted,
	entities.BookingStatusCancelled,
}

// BookingAdapter implements the BookingRepository interface
type BookingAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewBookingAdapter creates a new booking adapter
func NewBookingAdapter(client *postgres.Client) repositories.BookingRepository {
	return &BookingAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

func bookingColumns(table string) []interface{} {
	names := []string{
		"id", "user_id", "institution_id", "service_id", "booking_date",
		"time_slot_start", "time_slot_end", "queue_position", "original_position",
		"snooze_count", "status", "booking_type", "qr_code", "checked_in_at",
		"completed_at", "notes", "created_at", "updated_at",
	}
	cols := make([]interface{}, len(names))
	for i, n := range names {
		if table == "" {
			cols[i] = goqu.C(n)
		} else {
			cols[i] = goqu.T(table).Col(n)
		}
	}
	return cols
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanBooking reads the columns of bookingColumns followed by extra destinations
func scanBooking(row rowScanner, extra ...interface{}) (*entities.Booking, error) {
	b := &entities.Booking{}
	var (
		userID                          sql.NullString
		queuePosition, originalPosition sql.NullInt64
		checkedInAt, completedAt        sql.NullTime
		notes                           sql.NullString
	)

	dest := []interface{}{
		&b.ID, &userID, &b.InstitutionID, &b.ServiceID, &b.BookingDate,
		&b.TimeSlotStart, &b.TimeSlotEnd, &queuePosition, &originalPosition,
		&b.SnoozeCount, &b.Status, &b.BookingType, &b.CheckInCode, &checkedInAt,
		&completedAt, &notes, &b.CreatedAt, &b.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	if userID.Valid {
		b.UserID = &userID.String
	}
	if queuePosition.Valid {
		v := int(queuePosition.Int64)
		b.QueuePosition = &v
	}
	if originalPosition.Valid {
		v := int(originalPosition.Int64)
		b.OriginalPosition = &v
	}
	if checkedInAt.Valid {
		b.CheckedInAt = &checkedInAt.Time
	}
	if completedAt.Valid {
		b.CompletedAt = &completedAt.Time
	}
	b.Notes = notes.String

	return b, nil
}

// Create inserts a new booking
func (a *BookingAdapter) Create(ctx context.Context, booking *entities.Booking) error {
	record := goqu.Record{
		"id":                booking.ID,
		"user_id":           booking.UserID,
		"institution_id":    booking.InstitutionID,
		"service_id":        booking.ServiceID,
		"booking_date":      booking.BookingDate.Format(queue.DateLayout),
		"time_slot_start":   booking.TimeSlotStart,
		"time_slot_end":     booking.TimeSlotEnd,
		"queue_position":    booking.QueuePosition,
		"original_position": booking.OriginalPosition,
		"snooze_count":      booking.SnoozeCount,
		"status":            booking.Status,
		"booking_type":      booking.BookingType,
		"qr_code":           booking.CheckInCode,
		"notes":             booking.Notes,
		"created_at":        booking.CreatedAt,
		"updated_at":        booking.UpdatedAt,
	}

	query, args, err := a.db.Insert(bookingsTable).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return apperrors.NewConflictError("queue position already taken, please retry")
		}
		return apperrors.NewUpstreamError("failed to create booking", err)
	}

	return nil
}

// GetByID retrieves a booking by ID
func (a *BookingAdapter) GetByID(ctx context.Context, id string) (*entities.Booking, error) {
	return a.getOne(ctx, goqu.Ex{"id": id}, fmt.Sprintf("booking with id %s not found", id))
}

// GetByCheckInCode retrieves a booking by its check-in code
func (a *BookingAdapter) GetByCheckInCode(ctx context.Context, code string) (*entities.Booking, error) {
	return a.getOne(ctx, goqu.Ex{"qr_code": code}, "no booking matches the check-in code")
}

func (a *BookingAdapter) getOne(ctx context.Context, where goqu.Ex, notFound string) (*entities.Booking, error) {
	query, args, err := a.db.Select(bookingColumns("")...).
		From(bookingsTable).
		Where(where).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	booking, err := scanBooking(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(notFound)
	}
	if err != nil {
		return nil, apperrors.NewUpstreamError("failed to get booking", err)
	}

	return booking, nil
}

// ListByUser retrieves a user's bookings ordered by date then slot start
func (a *BookingAdapter) ListByUser(ctx context.Context, userID string, filter repositories.BookingFilter) ([]*entities.Booking, error) {
	ds := a.listDataset(filter).
		Where(goqu.T(bookingsTable).Col("user_id").Eq(userID)).
		Order(
			goqu.T(bookingsTable).Col("booking_date").Asc(),
			goqu.T(bookingsTable).Col("time_slot_start").Asc(),
		)
	return a.list(ctx, ds)
}

// ListByInstitution retrieves bookings for an institution ordered by date, slot and position
func (a *BookingAdapter) ListByInstitution(ctx context.Context, institutionID string, filter repositories.BookingFilter) ([]*entities.Booking, error) {
	ds := a.listDataset(filter).
		Where(goqu.T(bookingsTable).Col("institution_id").Eq(institutionID)).
		Order(
			goqu.T(bookingsTable).Col("booking_date").Asc(),
			goqu.T(bookingsTable).Col("time_slot_start").Asc(),
			goqu.T(bookingsTable).Col("queue_position").Asc().NullsLast(),
		)
	return a.list(ctx, ds)
}

func (a *BookingAdapter) listDataset(filter repositories.BookingFilter) *goqu.SelectDataset {
	cols := append(bookingColumns(bookingsTable),
		goqu.T("institutions").Col("name"),
		goqu.T("institutions").Col("address"),
		goqu.T("services").Col("name"),
	)

	ds := a.db.Select(cols...).
		From(bookingsTable).
		LeftJoin(goqu.T("institutions"), goqu.On(goqu.T("institutions").Col("id").Eq(goqu.T(bookingsTable).Col("institution_id")))).
		LeftJoin(goqu.T("services"), goqu.On(goqu.T("services").Col("id").Eq(goqu.T(bookingsTable).Col("service_id"))))

	if filter.Status != "" {
		ds = ds.Where(goqu.T(bookingsTable).Col("status").Eq(filter.Status))
	}
	if filter.Date != nil {
		ds = ds.Where(goqu.T(bookingsTable).Col("booking_date").Eq(filter.Date.Format(queue.DateLayout)))
	}
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}
	return ds
}

func (a *BookingAdapter) list(ctx context.Context, ds *goqu.SelectDataset) ([]*entities.Booking, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewUpstreamError("failed to list bookings", err)
	}
	defer rows.Close()

	bookings := make([]*entities.Booking, 0)
	for rows.Next() {
		var instName, instAddress, serviceName sql.NullString
		booking, err := scanBooking(rows, &instName, &instAddress, &serviceName)
		if err != nil {
			return nil, apperrors.NewUpstreamError("failed to scan booking", err)
		}
		if instName.Valid {
			booking.Institution = &entities.BookingInstitution{Name: instName.String, Address: instAddress.String}
		}
		if serviceName.Valid {
			booking.Service = &entities.BookingService{Name: serviceName.String}
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewUpstreamError("failed to iterate bookings", err)
	}

	return bookings, nil
}

// MaxPosition returns the highest original position handed out in a window
func (a *BookingAdapter) MaxPosition(ctx context.Context, window queue.Window) (int, error) {
	query, args, err := a.db.Select(goqu.COALESCE(goqu.MAX("original_position"), 0)).
		From(bookingsTable).
		Where(goqu.Ex{
			"service_id":      window.ServiceID,
			"booking_date":    window.Date.Format(queue.DateLayout),
			"time_slot_start": window.SlotStart,
		}).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build query", err)
	}

	var highest int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&highest); err != nil {
		return 0, apperrors.NewUpstreamError("failed to read queue occupancy", err)
	}
	return highest, nil
}

// CountActiveByService returns the number of non-terminal bookings per service on a date
func (a *BookingAdapter) CountActiveByService(ctx context.Context, institutionID string, date time.Time) (map[string]int, error) {
	query, args, err := a.db.Select(goqu.C("service_id"), goqu.COUNT(goqu.Star())).
		From(bookingsTable).
		Where(
			goqu.C("institution_id").Eq(institutionID),
			goqu.C("booking_date").Eq(date.Format(queue.DateLayout)),
			goqu.C("status").NotIn(terminalStatuses...),
		).
		GroupBy("service_id").
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewUpstreamError("failed to count bookings", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var serviceID string
		var n int
		if err := rows.Scan(&serviceID, &n); err != nil {
			return nil, apperrors.NewUpstreamError("failed to scan booking count", err)
		}
		counts[serviceID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewUpstreamError("failed to iterate booking counts", err)
	}
	return counts, nil
}

// UpdateSnooze persists a snoozed booking guarded by the previous snooze_count
func (a *BookingAdapter) UpdateSnooze(ctx context.Context, booking *entities.Booking, expectedSnoozeCount int) error {
	query, args, err := a.db.Update(bookingsTable).
		Set(goqu.Record{
			"queue_position": booking.QueuePosition,
			"snooze_count":   booking.SnoozeCount,
			"status":         booking.Status,
			"updated_at":     booking.UpdatedAt,
		}).
		Where(
			goqu.C("id").Eq(booking.ID),
			goqu.C("snooze_count").Eq(expectedSnoozeCount),
			goqu.C("status").NotIn(terminalStatuses...),
		).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	return a.execGuarded(ctx, booking.ID, query, args, "failed to snooze booking")
}

// UpdateStatus moves a booking from one status to another
func (a *BookingAdapter) UpdateStatus(ctx context.Context, id string, from, to entities.BookingStatus, at time.Time) error {
	record := goqu.Record{
		"status":     to,
		"updated_at": at,
	}
	switch to {
	case entities.BookingStatusCheckedIn:
		record["checked_in_at"] = at
	case entities.BookingStatusCompleted:
		record["completed_at"] = at
	}

	query, args, err := a.db.Update(bookingsTable).
		Set(record).
		Where(goqu.C("id").Eq(id), goqu.C("status").Eq(from)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	return a.execGuarded(ctx, id, query, args, "failed to update booking status")
}

// execGuarded runs a conditional update and explains a zero-row result
func (a *BookingAdapter) execGuarded(ctx context.Context, id, query string, args []interface{}, failure string) error {
	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewUpstreamError(failure, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewUpstreamError("failed to get rows affected", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	statusQuery, statusArgs, err := a.db.Select("status").
		From(bookingsTable).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build query", err)
	}

	var status entities.BookingStatus
	err = a.client.DB().QueryRowContext(ctx, statusQuery, statusArgs...).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NewNotFoundError(fmt.Sprintf("booking with id %s not found", id))
	}
	if err != nil {
		return apperrors.NewUpstreamError("failed to re-read booking", err)
	}
	if status.IsTerminal() {
		return apperrors.NewConflictError(fmt.Sprintf("booking is already %s", status))
	}
	return apperrors.NewConflictError("booking was modified concurrently")
}
