package entities

import "time"

// EncounterPoint is one scatter point of a department row: the per-encounter
// means and the metadata of the encounter's first check-in row
type EncounterPoint struct {
	EncounterNumber string    `json:"encounter_number"`
	MeanWaitMinutes float64   `json:"mean_wait_minutes"`
	MeanCareScore   float64   `json:"mean_care_score"`
	CheckInTime     time.Time `json:"check_in_time"`
	Weekday         string    `json:"weekday"`
	HourBucket      string    `json:"hour_bucket"`
	Records         int64     `json:"records"`
}

// DepartmentSeries holds the points of one department in first-occurrence order
type DepartmentSeries struct {
	Department string           `json:"department"`
	Points     []EncounterPoint `json:"points"`
}

// IsEmpty reports whether the department had no matching encounters
func (s *DepartmentSeries) IsEmpty() bool {
	return len(s.Points) == 0
}

// AxisRange is a [Min, Max] scatter axis range
type AxisRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DepartmentTable is the wait time / care score table of all departments.
// Rows hold departments with data; EmptyDepartments are rendered as placeholders.
type DepartmentTable struct {
	Rows             []DepartmentSeries `json:"rows"`
	EmptyDepartments []string           `json:"empty_departments"`
	WaitTimeRange    *AxisRange         `json:"wait_time_range,omitempty"`
	CareScoreRange   *AxisRange         `json:"care_score_range,omitempty"`
}
