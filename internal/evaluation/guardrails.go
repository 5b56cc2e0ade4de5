package evaluation

import (
	"fmt"
	"math"

	"github.com/zatekoja/ClinicalAnalytics/backend/internal/domain/entities"
)

// Invariant names reported in violations
const (
	InvariantHeatmapSum       = "heatmap_sum"
	InvariantHeatmapAxes      = "heatmap_axes"
	InvariantNonNegative      = "non_negative_cells"
	InvariantEncounterCount   = "distinct_encounter_count"
	InvariantEncounterOrder   = "first_occurrence_order"
	InvariantMeanWithinBounds = "mean_within_bounds"
)

// Violation is a broken invariant
type Violation struct {
	Invariant string `json:"invariant"`
	Detail    string `json:"detail"`
}

type GuardrailConfig struct {
	Tolerance float64
}

// Guardrails re-derive aggregation invariants from the normalized rows
type Guardrails struct {
	config GuardrailConfig
}

func NewGuardrails(config GuardrailConfig) *Guardrails {
	if config.Tolerance <= 0 {
		config.Tolerance = 1e-9
	}
	return &Guardrails{config: config}
}

// CheckHeatmap verifies the grid against the rows that pass c
func (g *Guardrails) CheckHeatmap(rows []entities.Encounter, c entities.FilterCriteria, h *entities.Heatmap) []Violation {
	var violations []Violation

	if h.Weekdays != entities.Weekdays || h.HourBuckets != entities.HourBuckets {
		violations = append(violations, Violation{InvariantHeatmapAxes, "axes differ from the fixed weekday/hour labels"})
	}

	var cellSum int64
	for d := range h.Cells {
		for hr, v := range h.Cells[d] {
			if v < 0 {
				violations = append(violations, Violation{InvariantNonNegative,
					fmt.Sprintf("%s %s = %d", h.Weekdays[d], h.HourBuckets[hr], v)})
			}
			cellSum += v
		}
	}

	var want int64
	m := c.Matcher()
	for i := range rows {
		if m.Match(&rows[i]) {
			want += rows[i].NumberOfRecords
		}
	}
	if cellSum != want {
		violations = append(violations, Violation{InvariantHeatmapSum,
			fmt.Sprintf("cells sum to %d, filtered rows hold %d records", cellSum, want)})
	}

	return violations
}

// CheckSeries verifies a department series against the rows that pass c
func (g *Guardrails) CheckSeries(rows []entities.Encounter, c entities.FilterCriteria, s *entities.DepartmentSeries) []Violation {
	var violations []Violation

	type bounds struct{ minWait, maxWait, minScore, maxScore float64 }
	var order []string
	groups := make(map[string]*bounds)

	m := c.Matcher()
	for i := range rows {
		e := &rows[i]
		if e.Department != s.Department || !m.Match(e) {
			continue
		}
		b, ok := groups[e.EncounterNumber]
		if !ok {
			groups[e.EncounterNumber] = &bounds{e.WaitTimeMinutes, e.WaitTimeMinutes, e.CareScore, e.CareScore}
			order = append(order, e.EncounterNumber)
			continue
		}
		b.minWait = math.Min(b.minWait, e.WaitTimeMinutes)
		b.maxWait = math.Max(b.maxWait, e.WaitTimeMinutes)
		b.minScore = math.Min(b.minScore, e.CareScore)
		b.maxScore = math.Max(b.maxScore, e.CareScore)
	}

	if len(s.Points) != len(order) {
		violations = append(violations, Violation{InvariantEncounterCount,
			fmt.Sprintf("%d points, %d distinct encounters", len(s.Points), len(order))})
		return violations
	}

	tol := g.config.Tolerance
	for i, p := range s.Points {
		if p.EncounterNumber != order[i] {
			violations = append(violations, Violation{InvariantEncounterOrder,
				fmt.Sprintf("position %d holds %s, first occurrence order expects %s", i, p.EncounterNumber, order[i])})
			continue
		}
		b := groups[p.EncounterNumber]
		if p.MeanWaitMinutes < b.minWait-tol || p.MeanWaitMinutes > b.maxWait+tol {
			violations = append(violations, Violation{InvariantMeanWithinBounds,
				fmt.Sprintf("encounter %s wait mean %g outside [%g, %g]", p.EncounterNumber, p.MeanWaitMinutes, b.minWait, b.maxWait)})
		}
		if p.MeanCareScore < b.minScore-tol || p.MeanCareScore > b.maxScore+tol {
			violations = append(violations, Violation{InvariantMeanWithinBounds,
				fmt.Sprintf("encounter %s care score mean %g outside [%g, %g]", p.EncounterNumber, p.MeanCareScore, b.minScore, b.maxScore)})
		}
	}

	return violations
}

// Tolerance returns the numeric tolerance used for float comparisons
func (g *Guardrails) Tolerance() float64 {
	return g.config.Tolerance
}
