package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/myturn/backend/internal/api/handlers"
	"github.com/myturn/backend/internal/application/services"
	"github.com/myturn/backend/internal/domain/entities"
	apperrors "github.com/myturn/backend/pkg/errors"
)

func TestDashboardHandler_Overview(t *testing.T) {
	dashboard := new(MockDashboardUseCases)
	handler := handlers.NewDashboardHandler(dashboard, new(MockStaffUseCases))

	day := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	dashboard.On("Overview", mock.Anything, "inst-1", day).Return(&services.DashboardOverview{
		InstitutionID: "inst-1",
		Date:          "2024-03-09",
		Utilization:   76.7,
		CrowdLevel:    entities.CrowdLevelHigh,
	}, nil)

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/institutions/inst-1/dashboard?date=2024-03-09", nil), "op-1", "manager", "inst-1")
	req.SetPathValue("id", "inst-1")
	w := httptest.NewRecorder()
	handler.Overview(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"utilization":76.7`)
	assert.Contains(t, w.Body.String(), `"crowd_level":"high"`)
}

func TestDashboardHandler_OverviewRejectsBadDate(t *testing.T) {
	dashboard := new(MockDashboardUseCases)
	handler := handlers.NewDashboardHandler(dashboard, new(MockStaffUseCases))

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/institutions/inst-1/dashboard?date=tomorrow", nil), "op-1", "manager", "")
	req.SetPathValue("id", "inst-1")
	w := httptest.NewRecorder()
	handler.Overview(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	dashboard.AssertNotCalled(t, "Overview", mock.Anything, mock.Anything, mock.Anything)
}

func TestDashboardHandler_SetServiceStatus(t *testing.T) {
	dashboard := new(MockDashboardUseCases)
	handler := handlers.NewDashboardHandler(dashboard, new(MockStaffUseCases))
	dashboard.On("SetServiceStatus", mock.Anything, "", "svc-1", entities.ServiceStatusPaused).
		Return(&entities.Service{ID: "svc-1", Status: entities.ServiceStatusPaused}, nil)

	req := asUser(httptest.NewRequest(http.MethodPatch, "/api/services/svc-1/status", strings.NewReader(`{"status":"paused"}`)), "op-1", "manager", "")
	req.SetPathValue("id", "svc-1")
	w := httptest.NewRecorder()
	handler.SetServiceStatus(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"paused"`)
}

func TestDashboardHandler_ReassignStaff(t *testing.T) {
	staff := new(MockStaffUseCases)
	handler := handlers.NewDashboardHandler(new(MockDashboardUseCases), staff)

	assignedBy := "op-1"
	staff.On("Reassign", mock.Anything, "", "st-1", services.ReassignRequest{ToServiceID: "svc-2", Reason: "surge"}, "op-1").
		Return(&entities.StaffAssignment{ID: "as-1", StaffID: "st-1", ToServiceID: "svc-2", AssignedBy: &assignedBy}, nil)

	req := asUser(httptest.NewRequest(http.MethodPost, "/api/staff/st-1/reassign", strings.NewReader(`{"to_service_id":"svc-2","reason":"surge"}`)), "op-1", "manager", "")
	req.SetPathValue("id", "st-1")
	w := httptest.NewRecorder()
	handler.ReassignStaff(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"to_service_id":"svc-2"`)
}

func TestDashboardHandler_ReassignStaffConflict(t *testing.T) {
	staff := new(MockStaffUseCases)
	handler := handlers.NewDashboardHandler(new(MockDashboardUseCases), staff)
	staff.On("Reassign", mock.Anything, "", "st-1", mock.Anything, "op-1").Return(nil, apperrors.NewConflictError("staff member is not available"))

	req := asUser(httptest.NewRequest(http.MethodPost, "/api/staff/st-1/reassign", strings.NewReader(`{"to_service_id":"svc-2"}`)), "op-1", "manager", "")
	req.SetPathValue("id", "st-1")
	w := httptest.NewRecorder()
	handler.ReassignStaff(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDashboardHandler_SetServiceStatusOtherInstitution(t *testing.T) {
	dashboard := new(MockDashboardUseCases)
	handler := handlers.NewDashboardHandler(dashboard, new(MockStaffUseCases))
	dashboard.On("SetServiceStatus", mock.Anything, "inst-1", "svc-9", entities.ServiceStatusClosed).
		Return(nil, apperrors.NewForbiddenError("service belongs to another institution"))

	req := asUser(httptest.NewRequest(http.MethodPatch, "/api/services/svc-9/status", strings.NewReader(`{"status":"closed"}`)), "op-1", "manager", "inst-1")
	req.SetPathValue("id", "svc-9")
	w := httptest.NewRecorder()
	handler.SetServiceStatus(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	dashboard.AssertExpectations(t)
}

func TestDashboardHandler_ReassignStaffOtherInstitution(t *testing.T) {
	staff := new(MockStaffUseCases)
	handler := handlers.NewDashboardHandler(new(MockDashboardUseCases), staff)
	staff.On("Reassign", mock.Anything, "inst-1", "st-9", mock.Anything, "op-1").
		Return(nil, apperrors.NewForbiddenError("staff member belongs to another institution"))

	req := asUser(httptest.NewRequest(http.MethodPost, "/api/staff/st-9/reassign", strings.NewReader(`{"to_service_id":"svc-2"}`)), "op-1", "manager", "inst-1")
	req.SetPathValue("id", "st-9")
	w := httptest.NewRecorder()
	handler.ReassignStaff(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	staff.AssertExpectations(t)
}

func TestDashboardHandler_ListStaff(t *testing.T) {
	staff := new(MockStaffUseCases)
	handler := handlers.NewDashboardHandler(new(MockDashboardUseCases), staff)
	staff.On("ListStaff", mock.Anything, "inst-1").Return([]*entities.Staff{{ID: "st-1", Name: "Asha"}}, nil)

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/institutions/inst-1/staff", nil), "op-1", "manager", "inst-1")
	req.SetPathValue("id", "inst-1")
	w := httptest.NewRecorder()
	handler.ListStaff(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
}
