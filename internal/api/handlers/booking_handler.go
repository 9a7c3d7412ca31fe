package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/myturn/backend/internal/api/middleware"
	"github.com/myturn/backend/internal/application/services"
	"github.com/myturn/backend/internal/domain/entities"
	"github.com/myturn/backend/internal/domain/repositories"
	apperrors "github.com/myturn/backend/pkg/errors"
)

// BookingUseCases is the booking behaviour the HTTP layer depends on
type BookingUseCases interface {
	CreateBooking(ctx context.Context, userID string, req services.CreateBookingRequest) (*entities.Booking, error)
	SnoozeBooking(ctx context.Context, userID, id string) (*entities.Booking, error)
	CancelBooking(ctx context.Context, userID, id string) (*entities.Booking, error)
	CheckIn(ctx context.Context, institutionID, code string) (*entities.Booking, error)
	CompleteBooking(ctx context.Context, institutionID, id string) (*entities.Booking, error)
	GetBooking(ctx context.Context, userID, id string) (*entities.Booking, error)
	ListMyBookings(ctx context.Context, userID string, filter repositories.BookingFilter) ([]*entities.Booking, error)
	ListInstitutionBookings(ctx context.Context, institutionID string, filter repositories.BookingFilter) ([]*entities.Booking, error)
	CheckInCodeImage(ctx context.Context, userID, id string, size int) ([]byte, error)
}

// BookingHandler handles booking-related HTTP requests
type BookingHandler struct {
	bookings BookingUseCases
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookings BookingUseCases) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

// CheckInRequest is the body of POST /api/checkins
type CheckInRequest struct {
	Code string `json:"code"`
}

// CreateBooking handles POST /api/bookings
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req services.CreateBookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	booking, err := h.bookings.CreateBooking(r.Context(), middleware.UserIDFromContext(r.Context()), req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, booking)
}

// ListMyBookings handles GET /api/bookings?status=&date=&limit=&offset=
func (h *BookingHandler) ListMyBookings(w http.ResponseWriter, r *http.Request) {
	filter, err := parseBookingFilter(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	bookings, err := h.bookings.ListMyBookings(r.Context(), middleware.UserIDFromContext(r.Context()), filter)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// GetBooking handles GET /api/bookings/{id}
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.bookings.GetBooking(r.Context(), middleware.UserIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, booking)
}

// SnoozeBooking handles POST /api/bookings/{id}/snooze
func (h *BookingHandler) SnoozeBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.bookings.SnoozeBooking(r.Context(), middleware.UserIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, booking)
}

// CancelBooking handles POST /api/bookings/{id}/cancel
func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.bookings.CancelBooking(r.Context(), middleware.UserIDFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, booking)
}

// GetCheckInCode handles GET /api/bookings/{id}/qr?size=
func (h *BookingHandler) GetCheckInCode(w http.ResponseWriter, r *http.Request) {
	size, err := queryInt(r, "size", 0)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	png, err := h.bookings.CheckInCodeImage(r.Context(), middleware.UserIDFromContext(r.Context()), r.PathValue("id"), size)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// CheckIn handles POST /api/checkins
func (h *BookingHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req CheckInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	booking, err := h.bookings.CheckIn(r.Context(), callerInstitution(r), strings.TrimSpace(req.Code))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, booking)
}

// CompleteBooking handles POST /api/bookings/{id}/complete
func (h *BookingHandler) CompleteBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := h.bookings.CompleteBooking(r.Context(), callerInstitution(r), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, booking)
}

// ListInstitutionBookings handles GET /api/institutions/{id}/bookings
func (h *BookingHandler) ListInstitutionBookings(w http.ResponseWriter, r *http.Request) {
	if !requireInstitutionScope(w, r) {
		return
	}

	filter, err := parseBookingFilter(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	bookings, err := h.bookings.ListInstitutionBookings(r.Context(), r.PathValue("id"), filter)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

func parseBookingFilter(r *http.Request) (repositories.BookingFilter, error) {
	query := r.URL.Query()
	filter := repositories.BookingFilter{}

	if status := query.Get("status"); status != "" {
		filter.Status = entities.BookingStatus(status)
		if !filter.Status.IsValid() {
			return filter, apperrors.NewValidationError("invalid status parameter")
		}
	}

	if raw := query.Get("date"); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, apperrors.NewValidationError("date must be YYYY-MM-DD")
		}
		filter.Date = &date
	}

	var err error
	if filter.Limit, err = queryInt(r, "limit", 50); err != nil {
		return filter, err
	}
	if filter.Offset, err = queryInt(r, "offset", 0); err != nil {
		return filter, err
	}
	return filter, nil
}
