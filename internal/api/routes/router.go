package routes

import (
	"net/http"

	"github.com/zatekoja/ClinicalAnalytics/backend/internal/api/handlers"
	"github.com/zatekoja/ClinicalAnalytics/backend/internal/api/middleware"
	"github.com/zatekoja/ClinicalAnalytics/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux              *http.ServeMux
	dashboardHandler *handlers.DashboardHandler
	allowedOrigins   []string
	metrics          *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	dashboardHandler *handlers.DashboardHandler,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:              http.NewServeMux(),
		dashboardHandler: dashboardHandler,
		allowedOrigins:   allowedOrigins,
		metrics:          metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Filter options and dataset
	r.mux.HandleFunc("GET /api/filters", r.dashboardHandler.GetFilterOptions)
	r.mux.HandleFunc("GET /api/dataset", r.dashboardHandler.GetDataset)

	// Heatmap
	r.mux.HandleFunc("GET /api/heatmap", r.dashboardHandler.GetHeatmap)

	// Department table and series
	r.mux.HandleFunc("GET /api/departments", r.dashboardHandler.GetDepartmentTable)
	r.mux.HandleFunc("GET /api/departments/{department}/series", r.dashboardHandler.GetDepartmentSeries)

	// Apply middleware in reverse order (last middleware wraps first).
	// Observability sits next to the mux so the matched route pattern is visible to it.
	var handler http.Handler = r.mux
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so preflight requests never reach the handlers
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
