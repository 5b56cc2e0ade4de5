package evaluation

import (
	"math"
	"testing"
	"time"

	"github.com/zatekoja/ClinicalAnalytics/backend/internal/domain/entities"
)

const floatTolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

// --- CellAccuracy tests ---

func TestCellAccuracy_AllMatch(t *testing.T) {
	h := entities.NewHeatmap()
	h.Add(2, 9, 3)
	expected := []CellExpectation{
		{Weekday: "Wednesday", HourBucket: "09 AM", Value: 3},
		{Weekday: "Monday", HourBucket: "12 AM", Value: 0},
	}
	got := CellAccuracy(expected, &h)
	if !almostEqual(got, 1.0) {
		t.Errorf("expected 1.0, got %f", got)
	}
}

func TestCellAccuracy_PartialMatch(t *testing.T) {
	h := entities.NewHeatmap()
	h.Add(2, 9, 3)
	expected := []CellExpectation{
		{Weekday: "Wednesday", HourBucket: "09 AM", Value: 2},
		{Weekday: "Monday", HourBucket: "12 AM", Value: 0},
	}
	got := CellAccuracy(expected, &h)
	if !almostEqual(got, 0.5) {
		t.Errorf("expected 0.5, got %f", got)
	}
}

func TestCellAccuracy_UnknownLabelReadsZero(t *testing.T) {
	h := entities.NewHeatmap()
	expected := []CellExpectation{{Weekday: "Funday", HourBucket: "09 AM", Value: 0}}
	got := CellAccuracy(expected, &h)
	if !almostEqual(got, 1.0) {
		t.Errorf("expected 1.0, got %f", got)
	}
}

func TestCellAccuracy_NothingExpected(t *testing.T) {
	h := entities.NewHeatmap()
	got := CellAccuracy(nil, &h)
	if !almostEqual(got, 1.0) {
		t.Errorf("expected 1.0, got %f", got)
	}
}

// --- MeanAbsError tests ---

func series(points ...entities.EncounterPoint) *entities.DepartmentSeries {
	return &entities.DepartmentSeries{Department: "X", Points: points}
}

func TestMeanAbsError_Exact(t *testing.T) {
	s := series(entities.EncounterPoint{EncounterNumber: "1", MeanWaitMinutes: 30, MeanCareScore: 8})
	got, missing := MeanAbsError([]PointExpectation{{EncounterNumber: "1", MeanWaitMinutes: 30, MeanCareScore: 8}}, s)
	if !almostEqual(got, 0) || len(missing) != 0 {
		t.Errorf("expected 0 and no missing, got %f %v", got, missing)
	}
}

func TestMeanAbsError_Off(t *testing.T) {
	s := series(
		entities.EncounterPoint{EncounterNumber: "1", MeanWaitMinutes: 31, MeanCareScore: 8},
		entities.EncounterPoint{EncounterNumber: "2", MeanWaitMinutes: 10, MeanCareScore: 5},
	)
	expected := []PointExpectation{
		{EncounterNumber: "1", MeanWaitMinutes: 30, MeanCareScore: 8},
		{EncounterNumber: "2", MeanWaitMinutes: 10, MeanCareScore: 4},
	}
	got, _ := MeanAbsError(expected, s)
	// |31-30| + |8-8| + |10-10| + |5-4| over 4 values
	if !almostEqual(got, 0.5) {
		t.Errorf("expected 0.5, got %f", got)
	}
}

func TestMeanAbsError_Missing(t *testing.T) {
	s := series(entities.EncounterPoint{EncounterNumber: "1", MeanWaitMinutes: 30, MeanCareScore: 8})
	got, missing := MeanAbsError([]PointExpectation{{EncounterNumber: "9"}}, s)
	if !almostEqual(got, 0) {
		t.Errorf("expected 0, got %f", got)
	}
	if len(missing) != 1 || missing[0] != "9" {
		t.Errorf("expected encounter 9 missing, got %v", missing)
	}
}

func TestMeanAbsError_EmptySeries(t *testing.T) {
	got, missing := MeanAbsError(nil, series())
	if !almostEqual(got, 0) || missing != nil {
		t.Errorf("expected 0 and nil, got %f %v", got, missing)
	}
}

func at(s string) time.Time {
	t, err := time.Parse(entities.CheckInLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}
