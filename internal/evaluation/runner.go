package evaluation

import (
	"context"
	"fmt"
	"time"

	"github.com/zatekoja/ClinicalAnalytics/backend/internal/domain/entities"
)

// DashboardQuerier answers the dashboard queries under evaluation
type DashboardQuerier interface {
	Heatmap(ctx context.Context, c entities.FilterCriteria) *entities.Heatmap
	DepartmentSeries(ctx context.Context, department string, c entities.FilterCriteria) *entities.DepartmentSeries
	FilterOptions() entities.FilterOptions
}

// Runner runs evaluation across a set of golden cases.
type Runner struct {
	querier    DashboardQuerier
	rows       []entities.Encounter
	guardrails *Guardrails
}

// NewRunner creates a runner. rows are the normalized encounters the querier
// serves; invariants are re-derived from them.
func NewRunner(querier DashboardQuerier, rows []entities.Encounter, guardrails *Guardrails) *Runner {
	if guardrails == nil {
		guardrails = NewGuardrails(GuardrailConfig{})
	}
	return &Runner{querier: querier, rows: rows, guardrails: guardrails}
}

func (r *Runner) Run(ctx context.Context, cases []GoldenCase) (*EvalSummary, error) {
	if err := ValidateGoldenCases(cases); err != nil {
		return nil, err
	}

	summary := &EvalSummary{
		TotalCases: len(cases),
		ByKind:     make(map[Kind]*KindSummary),
		Results:    make([]EvalResult, 0, len(cases)),
	}

	for _, gc := range cases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		criteria := r.criteria(gc)
		start := time.Now()

		var result EvalResult
		switch gc.Kind {
		case KindHeatmap:
			result = r.evalHeatmap(ctx, gc, criteria)
		case KindDepartment:
			result = r.evalDepartment(ctx, gc, criteria)
		}
		result.CaseID = gc.ID
		result.Kind = gc.Kind
		result.Latency = time.Since(start)
		result.Passed = len(result.Failures) == 0 && len(result.Violations) == 0

		r.updateSummary(summary, result)
	}

	r.finalizeSummary(summary)
	return summary, nil
}

func (r *Runner) criteria(gc GoldenCase) entities.FilterCriteria {
	// Dates were validated by ValidateGoldenCases
	start, _ := time.Parse(dateLayout, gc.Start)
	end, _ := time.Parse(dateLayout, gc.End)

	sources := gc.AdmitSources
	if sources == nil {
		sources = r.querier.FilterOptions().AdmitSources
	}

	return entities.FilterCriteria{
		Clinic:       gc.Clinic,
		Start:        start,
		End:          end,
		AdmitSources: sources,
	}
}

func (r *Runner) evalHeatmap(ctx context.Context, gc GoldenCase, c entities.FilterCriteria) EvalResult {
	h := r.querier.Heatmap(ctx, c)

	result := EvalResult{
		CellAccuracy: CellAccuracy(gc.ExpectedCells, h),
		Violations:   r.guardrails.CheckHeatmap(r.rows, c, h),
	}
	if gc.ExpectedTotal != nil && h.Total != *gc.ExpectedTotal {
		result.Failures = append(result.Failures, fmt.Sprintf("total = %d, want %d", h.Total, *gc.ExpectedTotal))
	}
	for _, e := range gc.ExpectedCells {
		if got := h.Cell(e.Weekday, e.HourBucket); got != e.Value {
			result.Failures = append(result.Failures, fmt.Sprintf("cell %s %s = %d, want %d", e.Weekday, e.HourBucket, got, e.Value))
		}
	}
	return result
}

func (r *Runner) evalDepartment(ctx context.Context, gc GoldenCase, c entities.FilterCriteria) EvalResult {
	s := r.querier.DepartmentSeries(ctx, gc.Department, c)

	mae, missing := MeanAbsError(gc.ExpectedPoints, s)
	result := EvalResult{
		CellAccuracy: 1.0,
		MeanAbsError: mae,
		Violations:   r.guardrails.CheckSeries(r.rows, c, s),
	}
	if gc.ExpectedCount != nil && len(s.Points) != *gc.ExpectedCount {
		result.Failures = append(result.Failures, fmt.Sprintf("%d points, want %d", len(s.Points), *gc.ExpectedCount))
	}
	for _, id := range missing {
		result.Failures = append(result.Failures, fmt.Sprintf("encounter %s missing from series", id))
	}
	if mae > r.guardrails.Tolerance() {
		result.Failures = append(result.Failures, fmt.Sprintf("mean absolute error %g exceeds tolerance", mae))
	}
	return result
}

func (r *Runner) updateSummary(s *EvalSummary, res EvalResult) {
	s.AvgLatency += res.Latency
	s.TotalViolations += len(res.Violations)
	if res.Passed {
		s.Passed++
	} else {
		s.Failed++
	}
	s.Results = append(s.Results, res)

	if _, ok := s.ByKind[res.Kind]; !ok {
		s.ByKind[res.Kind] = &KindSummary{}
	}
	ks := s.ByKind[res.Kind]
	ks.Count++
	if res.Passed {
		ks.Passed++
	}
	ks.AvgCellAccuracy += res.CellAccuracy
	ks.AvgMeanAbsError += res.MeanAbsError
}

func (r *Runner) finalizeSummary(s *EvalSummary) {
	if s.TotalCases > 0 {
		s.AvgLatency /= time.Duration(s.TotalCases)
	}

	for _, ks := range s.ByKind {
		if ks.Count > 0 {
			n := float64(ks.Count)
			ks.AvgCellAccuracy /= n
			ks.AvgMeanAbsError /= n
		}
	}
}
