package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/myturn/backend/internal/api/middleware"
	"github.com/myturn/backend/internal/application/services"
	"github.com/myturn/backend/internal/domain/entities"
)

// DashboardUseCases is the operator dashboard behaviour the HTTP layer depends on
type DashboardUseCases interface {
	Overview(ctx context.Context, institutionID string, date time.Time) (*services.DashboardOverview, error)
	SetServiceStatus(ctx context.Context, institutionID, serviceID string, status entities.ServiceStatus) (*entities.Service, error)
}

// StaffUseCases is the staff management behaviour the HTTP layer depends on
type StaffUseCases interface {
	ListStaff(ctx context.Context, institutionID string) ([]*entities.Staff, error)
	Reassign(ctx context.Context, institutionID, staffID string, req services.ReassignRequest, assignedBy string) (*entities.StaffAssignment, error)
}

// DashboardHandler handles the operator dashboard and staff management
type DashboardHandler struct {
	dashboard DashboardUseCases
	staff     StaffUseCases
	now       func() time.Time
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboard DashboardUseCases, staff StaffUseCases) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, staff: staff, now: time.Now}
}

// ServiceStatusRequest is the body of PATCH /api/services/{id}/status
type ServiceStatusRequest struct {
	Status entities.ServiceStatus `json:"status"`
}

// Overview handles GET /api/institutions/{id}/dashboard?date=
func (h *DashboardHandler) Overview(w http.ResponseWriter, r *http.Request) {
	if !requireInstitutionScope(w, r) {
		return
	}

	date := h.now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	overview, err := h.dashboard.Overview(r.Context(), r.PathValue("id"), date)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, overview)
}

// SetServiceStatus handles PATCH /api/services/{id}/status
func (h *DashboardHandler) SetServiceStatus(w http.ResponseWriter, r *http.Request) {
	var req ServiceStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	service, err := h.dashboard.SetServiceStatus(r.Context(), callerInstitution(r), r.PathValue("id"), req.Status)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, service)
}

// ListStaff handles GET /api/institutions/{id}/staff
func (h *DashboardHandler) ListStaff(w http.ResponseWriter, r *http.Request) {
	if !requireInstitutionScope(w, r) {
		return
	}

	staff, err := h.staff.ListStaff(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"staff": staff,
		"count": len(staff),
	})
}

// ReassignStaff handles POST /api/staff/{id}/reassign
func (h *DashboardHandler) ReassignStaff(w http.ResponseWriter, r *http.Request) {
	var req services.ReassignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	assignment, err := h.staff.Reassign(r.Context(), callerInstitution(r), r.PathValue("id"), req, middleware.UserIDFromContext(r.Context()))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, assignment)
}
