package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/ClinicalAnalytics/backend/internal/domain/entities"
	"github.com/zatekoja/ClinicalAnalytics/backend/internal/domain/providers"
	"github.com/zatekoja/ClinicalAnalytics/backend/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/ClinicalAnalytics/backend/pkg/errors"
)

// Operation names used for cache keys, spans and metrics
const (
	opHeatmap          = "heatmap"
	opDepartmentSeries = "department_series"
	opDepartmentTable  = "department_table"
)

// DashboardService answers dashboard queries over an immutable dataset
type DashboardService struct {
	dataset *Dataset
	cache   providers.CacheProvider
	ttl     int
	metrics *observability.Metrics
}

// NewDashboardService creates a new dashboard service. cache and metrics may be nil.
func NewDashboardService(dataset *Dataset, cache providers.CacheProvider, ttlSeconds int, metrics *observability.Metrics) *DashboardService {
	return &DashboardService{
		dataset: dataset,
		cache:   cache,
		ttl:     ttlSeconds,
		metrics: metrics,
	}
}

// FilterOptions returns the selectable clinics, admit sources, departments and date bounds
func (s *DashboardService) FilterOptions() entities.FilterOptions {
	return s.dataset.Options()
}

// DatasetSummary describes the loaded dataset
func (s *DashboardService) DatasetSummary() DatasetSummary {
	return s.dataset.Summary()
}

// Heatmap returns the weekly check-in volume grid for the criteria
func (s *DashboardService) Heatmap(ctx context.Context, c entities.FilterCriteria) *entities.Heatmap {
	if err := s.dataset.CheckCriteria(c); err != nil {
		s.reject(ctx, opHeatmap, err)
		empty := entities.NewHeatmap()
		return &empty
	}

	return cached(ctx, s, opHeatmap, c.CacheKey(), func() *entities.Heatmap {
		h := ComputeHeatmap(s.dataset, c)
		return &h
	})
}

// DepartmentSeries returns the per-encounter scatter series of one department
func (s *DashboardService) DepartmentSeries(ctx context.Context, department string, c entities.FilterCriteria) *entities.DepartmentSeries {
	err := s.dataset.CheckCriteria(c)
	if err == nil && !s.dataset.HasDepartment(department) {
		err = apperrors.NewFilterError(fmt.Sprintf("department %q is not in the dataset", department))
	}
	if err != nil {
		s.reject(ctx, opDepartmentSeries, err)
		return &entities.DepartmentSeries{Department: department, Points: []entities.EncounterPoint{}}
	}

	return cached(ctx, s, opDepartmentSeries, strconv.Quote(department)+"|"+c.CacheKey(), func() *entities.DepartmentSeries {
		series := ComputeDepartmentSeries(s.dataset, c, department)
		return &series
	})
}

// DepartmentTable returns the series of every department with shared axis ranges
func (s *DashboardService) DepartmentTable(ctx context.Context, c entities.FilterCriteria) *entities.DepartmentTable {
	if err := s.dataset.CheckCriteria(c); err != nil {
		s.reject(ctx, opDepartmentTable, err)
		table := entities.DepartmentTable{
			Rows:             []entities.DepartmentSeries{},
			EmptyDepartments: s.dataset.Options().Departments,
		}
		return &table
	}

	return cached(ctx, s, opDepartmentTable, c.CacheKey(), func() *entities.DepartmentTable {
		table := ComputeDepartmentTable(s.dataset, c)
		return &table
	})
}

func (s *DashboardService) reject(ctx context.Context, op string, err error) {
	observability.RecordFilterReject(ctx, s.metrics, op)
	observability.LoggerFromContext(ctx).Debug().
		Err(err).
		Str("operation", op).
		Msg("Filter cannot match dataset, returning empty result")
}

func (s *DashboardService) cacheKey(op, key string) string {
	return fmt.Sprintf("dashboard:%s:%s:%s", s.dataset.Fingerprint(), op, key)
}

// cached returns the cached result for key, computing and storing it on a miss.
// Cache failures never fail the query.
func cached[T any](ctx context.Context, s *DashboardService, op, key string, compute func() T) T {
	ctx, span := observability.StartSpan(ctx, "dashboard."+op)
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.String("dashboard.operation", op),
		attribute.String("dashboard.fingerprint", s.dataset.Fingerprint()),
	)

	fullKey := s.cacheKey(op, key)
	if s.cache != nil {
		data, err := s.cache.Get(ctx, fullKey)
		switch {
		case err == nil:
			var result T
			if err := json.Unmarshal(data, &result); err == nil {
				observability.RecordCacheHit(ctx, s.metrics, op)
				span.SetAttributes(attribute.Bool("cache.hit", true))
				return result
			}
			log.Warn().Str("key", fullKey).Msg("Discarding undecodable cache entry")
			if err := s.cache.Delete(ctx, fullKey); err != nil {
				log.Warn().Err(err).Str("key", fullKey).Msg("Cache delete failed")
			}
		case errors.Is(err, providers.ErrCacheMiss):
		default:
			log.Warn().Err(err).Str("key", fullKey).Msg("Cache read failed")
		}
		observability.RecordCacheMiss(ctx, s.metrics, op)
	}

	start := time.Now()
	result := compute()
	observability.RecordAggregation(ctx, s.metrics, op, time.Since(start))
	span.SetAttributes(attribute.Bool("cache.hit", false))

	if s.cache != nil {
		data, err := json.Marshal(result)
		if err != nil {
			log.Warn().Err(err).Str("key", fullKey).Msg("Failed to encode result for cache")
			return result
		}
		if err := s.cache.Set(ctx, fullKey, data, s.ttl); err != nil {
			log.Warn().Err(err).Str("key", fullKey).Msg("Cache write failed")
		}
	}
	return result
}
