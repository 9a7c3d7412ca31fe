package routes

import (
	"net/http"

	"github.com/myturn/backend/internal/api/handlers"
	"github.com/myturn/backend/internal/api/middleware"
	"github.com/myturn/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	institutionHandler *handlers.InstitutionHandler
	bookingHandler     *handlers.BookingHandler
	dashboardHandler   *handlers.DashboardHandler

	auth      *middleware.Authenticator
	metrics   *observability.Metrics
	readiness map[string]ReadinessCheck
}

// NewRouter creates a new router
func NewRouter(
	institutionHandler *handlers.InstitutionHandler,
	bookingHandler *handlers.BookingHandler,
	dashboardHandler *handlers.DashboardHandler,
	auth *middleware.Authenticator,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:                http.NewServeMux(),
		institutionHandler: institutionHandler,
		bookingHandler:     bookingHandler,
		dashboardHandler:   dashboardHandler,
		auth:               auth,
		metrics:            metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", healthCheck)
	r.mux.HandleFunc("GET /ready", r.ready)

	public := func(h http.HandlerFunc) http.Handler { return r.auth.Optional(h) }
	customer := func(h http.HandlerFunc) http.Handler { return r.auth.Require(h) }
	staff := func(h http.HandlerFunc) http.Handler { return r.auth.RequireStaff(h) }

	// Discovery
	r.mux.Handle("GET /api/institutions/nearby", public(r.institutionHandler.Nearby))
	r.mux.Handle("GET /api/institutions/{id}", public(r.institutionHandler.GetInstitution))
	r.mux.Handle("PUT /api/me/location", customer(r.institutionHandler.ReportLocation))

	// Bookings
	r.mux.Handle("POST /api/bookings", customer(r.bookingHandler.CreateBooking))
	r.mux.Handle("GET /api/bookings", customer(r.bookingHandler.ListMyBookings))
	r.mux.Handle("GET /api/bookings/{id}", customer(r.bookingHandler.GetBooking))
	r.mux.Handle("POST /api/bookings/{id}/snooze", customer(r.bookingHandler.SnoozeBooking))
	r.mux.Handle("POST /api/bookings/{id}/cancel", customer(r.bookingHandler.CancelBooking))
	r.mux.Handle("GET /api/bookings/{id}/qr", customer(r.bookingHandler.GetCheckInCode))

	// Staff
	r.mux.Handle("POST /api/checkins", staff(r.bookingHandler.CheckIn))
	r.mux.Handle("POST /api/bookings/{id}/complete", staff(r.bookingHandler.CompleteBooking))
	r.mux.Handle("GET /api/institutions/{id}/bookings", staff(r.bookingHandler.ListInstitutionBookings))
	r.mux.Handle("GET /api/institutions/{id}/dashboard", staff(r.dashboardHandler.Overview))
	r.mux.Handle("GET /api/institutions/{id}/staff", staff(r.dashboardHandler.ListStaff))
	r.mux.Handle("PATCH /api/services/{id}/status", staff(r.dashboardHandler.SetServiceStatus))
	r.mux.Handle("POST /api/staff/{id}/reassign", staff(r.dashboardHandler.ReassignStaff))

	// Apply middleware in reverse order (last middleware wraps first).
	// CORS must be outermost so preflight and error responses carry its headers.
	var handler http.Handler = middleware.RouteCapture(r.mux)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}

// SetupStreamRoutes configures the server-sent event endpoints served by the stream binary
func SetupStreamRoutes(sse *handlers.SSEHandler, auth *middleware.Authenticator) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthCheck)
	mux.Handle("GET /api/stream/bookings", auth.Require(http.HandlerFunc(sse.StreamMyBookings)))
	mux.HandleFunc("GET /api/stream/institutions/{id}", sse.StreamInstitution)

	var handler http.Handler = mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.CORSMiddleware(handler)
	return handler
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
