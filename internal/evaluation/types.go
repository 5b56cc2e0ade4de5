package evaluation

import "time"

// Kind is the dashboard query a golden case exercises.
type Kind string

const (
	KindHeatmap    Kind = "heatmap"    // weekly check-in volume grid
	KindDepartment Kind = "department" // one department's scatter series
)

// ValidKinds returns all valid kind values.
func ValidKinds() []Kind {
	return []Kind{KindHeatmap, KindDepartment}
}

// IsValid checks if the kind value is one of the defined constants.
func (k Kind) IsValid() bool {
	switch k {
	case KindHeatmap, KindDepartment:
		return true
	}
	return false
}

// CellExpectation pins one heatmap cell.
type CellExpectation struct {
	Weekday    string `json:"weekday"`
	HourBucket string `json:"hour_bucket"`
	Value      int64  `json:"value"`
}

// PointExpectation pins the means of one encounter.
type PointExpectation struct {
	EncounterNumber string  `json:"encounter_number"`
	MeanWaitMinutes float64 `json:"mean_wait_minutes"`
	MeanCareScore   float64 `json:"mean_care_score"`
}

// GoldenCase is a labeled dashboard query with expected outcomes.
// Dates are YYYY-MM-DD with an exclusive end; a nil AdmitSources selects every source.
type GoldenCase struct {
	ID           string   `json:"id"`
	Description  string   `json:"description"`
	Kind         Kind     `json:"kind"`
	Clinic       string   `json:"clinic"`
	Start        string   `json:"start"`
	End          string   `json:"end"`
	AdmitSources []string `json:"admit_sources"`
	Department   string   `json:"department,omitempty"`

	ExpectedTotal  *int64             `json:"expected_total,omitempty"`
	ExpectedCells  []CellExpectation  `json:"expected_cells,omitempty"`
	ExpectedCount  *int               `json:"expected_count,omitempty"`
	ExpectedPoints []PointExpectation `json:"expected_points,omitempty"`
}

// EvalResult holds the evaluation outcome for a single case.
type EvalResult struct {
	CaseID       string
	Kind         Kind
	Passed       bool
	CellAccuracy float64 // fraction of expected cells that matched
	MeanAbsError float64 // mean absolute error over expected point means
	Failures     []string
	Violations   []Violation
	Latency      time.Duration
}

// EvalSummary holds aggregate metrics across all golden cases.
type EvalSummary struct {
	TotalCases      int
	Passed          int
	Failed          int
	AvgLatency      time.Duration
	TotalViolations int
	ByKind          map[Kind]*KindSummary
	Results         []EvalResult
}

// KindSummary holds metrics grouped by kind.
type KindSummary struct {
	Count           int
	Passed          int
	AvgCellAccuracy float64
	AvgMeanAbsError float64
}
