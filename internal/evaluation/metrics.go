package evaluation

import (
	"math"

	"github.com/zatekoja/ClinicalAnalytics/backend/internal/domain/entities"
)

// CellAccuracy computes the fraction of expected cells whose value matches the heatmap.
// Returns 1.0 if nothing is expected.
func CellAccuracy(expected []CellExpectation, h *entities.Heatmap) float64 {
	if len(expected) == 0 {
		return 1.0
	}

	matched := 0
	for _, e := range expected {
		if h.Cell(e.Weekday, e.HourBucket) == e.Value {
			matched++
		}
	}

	return float64(matched) / float64(len(expected))
}

// MeanAbsError computes the mean absolute error of the expected wait time and care
// score means against the series. Encounters absent from the series are returned
// as missing and do not contribute to the error. Returns 0.0 if nothing is compared.
func MeanAbsError(expected []PointExpectation, s *entities.DepartmentSeries) (float64, []string) {
	byEncounter := make(map[string]entities.EncounterPoint, len(s.Points))
	for _, p := range s.Points {
		byEncounter[p.EncounterNumber] = p
	}

	var missing []string
	var sum float64
	compared := 0
	for _, e := range expected {
		p, ok := byEncounter[e.EncounterNumber]
		if !ok {
			missing = append(missing, e.EncounterNumber)
			continue
		}
		sum += math.Abs(p.MeanWaitMinutes - e.MeanWaitMinutes)
		sum += math.Abs(p.MeanCareScore - e.MeanCareScore)
		compared += 2
	}

	if compared == 0 {
		return 0.0, missing
	}
	return sum / float64(compared), missing
}
