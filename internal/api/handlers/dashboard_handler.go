package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/ClinicalAnalytics/backend/internal/application/services"
	"github.com/zatekoja/ClinicalAnalytics/backend/internal/domain/entities"
	apperrors "github.com/zatekoja/ClinicalAnalytics/backend/pkg/errors"
)

// DashboardService is the query interface the handler serves
type DashboardService interface {
	FilterOptions() entities.FilterOptions
	DatasetSummary() services.DatasetSummary
	Heatmap(ctx context.Context, c entities.FilterCriteria) *entities.Heatmap
	DepartmentSeries(ctx context.Context, department string, c entities.FilterCriteria) *entities.DepartmentSeries
	DepartmentTable(ctx context.Context, c entities.FilterCriteria) *entities.DepartmentTable
}

// Query parameter names
const (
	paramClinic      = "clinic"
	paramStart       = "start"
	paramEnd         = "end"
	paramAdmitSource = "admit_source"
)

// dateLayout is the short form accepted for start and end; the end date is exclusive
const dateLayout = "2006-01-02"

// DashboardHandler handles dashboard HTTP requests
type DashboardHandler struct {
	service DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// GetFilterOptions handles GET /api/filters
func (h *DashboardHandler) GetFilterOptions(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.service.FilterOptions())
}

// GetDataset handles GET /api/dataset
func (h *DashboardHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.service.DatasetSummary())
}

// GetHeatmap handles GET /api/heatmap
func (h *DashboardHandler) GetHeatmap(w http.ResponseWriter, r *http.Request) {
	criteria, err := h.parseCriteria(r.URL.Query())
	if err != nil {
		handleError(w, err)
		return
	}

	heatmap := h.service.Heatmap(r.Context(), criteria)
	respondWithJSON(w, http.StatusOK, newHeatmapResponse(criteria, heatmap))
}

// GetDepartmentSeries handles GET /api/departments/{department}/series
func (h *DashboardHandler) GetDepartmentSeries(w http.ResponseWriter, r *http.Request) {
	department := r.PathValue("department")
	if department == "" {
		handleError(w, apperrors.NewValidationError("department is required"))
		return
	}

	criteria, err := h.parseCriteria(r.URL.Query())
	if err != nil {
		handleError(w, err)
		return
	}

	series := h.service.DepartmentSeries(r.Context(), department, criteria)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"criteria": criteria,
		"series":   newSeriesResponse(series),
	})
}

// GetDepartmentTable handles GET /api/departments
func (h *DashboardHandler) GetDepartmentTable(w http.ResponseWriter, r *http.Request) {
	criteria, err := h.parseCriteria(r.URL.Query())
	if err != nil {
		handleError(w, err)
		return
	}

	table := h.service.DepartmentTable(r.Context(), criteria)
	respondWithJSON(w, http.StatusOK, newDepartmentTableResponse(criteria, table))
}

// parseCriteria builds filter criteria from the query string. Omitted values
// fall back to the dashboard defaults; an admit_source parameter that is
// present but empty selects no sources.
func (h *DashboardHandler) parseCriteria(q url.Values) (entities.FilterCriteria, error) {
	criteria := h.service.FilterOptions().DefaultCriteria()

	if clinic := q.Get(paramClinic); clinic != "" {
		criteria.Clinic = clinic
	}

	if v := q.Get(paramStart); v != "" {
		start, err := parseDate(v)
		if err != nil {
			return criteria, apperrors.NewValidationError(fmt.Sprintf("invalid %s %q: use YYYY-MM-DD or RFC 3339", paramStart, v))
		}
		criteria.Start = start
	}
	if v := q.Get(paramEnd); v != "" {
		end, err := parseDate(v)
		if err != nil {
			return criteria, apperrors.NewValidationError(fmt.Sprintf("invalid %s %q: use YYYY-MM-DD or RFC 3339", paramEnd, v))
		}
		criteria.End = end
	}

	if values, ok := q[paramAdmitSource]; ok {
		criteria.AdmitSources = make([]string, 0, len(values))
		for _, v := range values {
			if v != "" {
				criteria.AdmitSources = append(criteria.AdmitSources, v)
			}
		}
	}

	return criteria, nil
}

func parseDate(v string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func handleError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case apperrors.ErrorTypeValidation:
			respondWithError(w, http.StatusBadRequest, appErr.Message)
			return
		case apperrors.ErrorTypeNotFound:
			respondWithError(w, http.StatusNotFound, appErr.Message)
			return
		}
	}
	log.Error().Err(err).Msg("Dashboard request failed")
	respondWithError(w, http.StatusInternalServerError, "internal server error")
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warn().Err(err).Msg("Failed to write response")
	}
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
