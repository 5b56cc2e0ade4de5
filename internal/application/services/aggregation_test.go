package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/ClinicalAnalytics/backend/internal/application/services"
	"github.com/zatekoja/ClinicalAnalytics/backend/internal/domain/entities"
)

func withMeasures(r entities.RawEncounter, wait, score, records string) entities.RawEncounter {
	r.WaitTimeMinutes = wait
	r.CareScore = score
	r.NumberOfRecords = records
	return r
}

func exampleCriteria() entities.FilterCriteria {
	return entities.FilterCriteria{
		Clinic:       "A",
		Start:        day("2019-05-01"),
		End:          day("2019-05-02"),
		AdmitSources: []string{"ER"},
	}
}

func mixedDataset(t *testing.T) *services.Dataset {
	return mustDataset(t,
		withMeasures(raw("A", "ER", "2019-05-01 09:15:00 AM", "Cardiology", "1000"), "20", "7", "1"),
		withMeasures(raw("A", "ER", "2019-05-01 09:45:00 AM", "Cardiology", "1000"), "40", "9", "2"),
		withMeasures(raw("A", "Referral", "2019-05-02 01:05:00 PM", "Cardiology", "1001"), "15", "6", "1"),
		withMeasures(raw("A", "ER", "2019-05-04 11:30:00 PM", "Radiology", "2000"), "55", "4.5", "3"),
		withMeasures(raw("B", "ER", "2019-05-01 09:15:00 AM", "Cardiology", "3000"), "10", "9", "5"),
		withMeasures(raw("A", "", "2019-05-06 12:10:00 AM", "Oncology", "4000"), "25", "8", "1"),
		withMeasures(raw("A", "ER", "2019-05-06 08:00:00 AM", "Radiology", "1000"), "33", "7", "1"),
	)
}

func allSources(d *services.Dataset) []string {
	return d.Options().AdmitSources
}

func TestComputeHeatmap_SingleRowExample(t *testing.T) {
	d := mustDataset(t, raw("A", "ER", "2019-05-01 09:15:00 AM", "Cardiology", "1000"))

	h := services.ComputeHeatmap(d, exampleCriteria())

	assert.Equal(t, int64(1), h.Cell("Wednesday", "09 AM"))
	assert.Equal(t, int64(1), h.Total)
	for di := range h.Cells {
		for hi, v := range h.Cells[di] {
			if h.Weekdays[di] == "Wednesday" && h.HourBuckets[hi] == "09 AM" {
				continue
			}
			assert.Zero(t, v, "%s %s", h.Weekdays[di], h.HourBuckets[hi])
		}
	}
}

func TestComputeHeatmap_FixedAxes(t *testing.T) {
	h := services.ComputeHeatmap(mixedDataset(t), exampleCriteria())

	assert.Equal(t, "Monday", h.Weekdays[0])
	assert.Equal(t, "Sunday", h.Weekdays[6])
	assert.Equal(t, "12 AM", h.HourBuckets[0])
	assert.Equal(t, "01 AM", h.HourBuckets[1])
	assert.Equal(t, "12 PM", h.HourBuckets[12])
	assert.Equal(t, "11 PM", h.HourBuckets[23])
}

func TestComputeHeatmap_SumsRecordCounts(t *testing.T) {
	d := mixedDataset(t)
	c := entities.FilterCriteria{
		Clinic:       "A",
		Start:        day("2019-05-01"),
		End:          day("2019-05-08"),
		AdmitSources: allSources(d),
	}

	h := services.ComputeHeatmap(d, c)

	assert.Equal(t, int64(3), h.Cell("Wednesday", "09 AM"))
	assert.Equal(t, int64(1), h.Cell("Thursday", "01 PM"))
	assert.Equal(t, int64(3), h.Cell("Saturday", "11 PM"))
	assert.Equal(t, int64(1), h.Cell("Monday", "12 AM"))
	assert.Equal(t, int64(1), h.Cell("Monday", "08 AM"))
	assert.Equal(t, services.FilteredRecordCount(d, c), h.Total)
	assert.Equal(t, int64(9), h.Total)
}

func TestComputeHeatmap_SumInvariant(t *testing.T) {
	d := mixedDataset(t)
	criteria := []entities.FilterCriteria{
		{Clinic: "A", Start: day("2019-05-01"), End: day("2019-05-08"), AdmitSources: []string{"ER"}},
		{Clinic: "A", Start: day("2019-05-02"), End: day("2019-05-07"), AdmitSources: allSources(d)},
		{Clinic: "B", Start: day("2019-04-01"), End: day("2019-06-01"), AdmitSources: allSources(d)},
		{Clinic: "A", Start: day("2019-05-01"), End: day("2019-05-08"), AdmitSources: []string{entities.AdmitSourceNotIdentified}},
	}

	for _, c := range criteria {
		h := services.ComputeHeatmap(d, c)
		var sum int64
		for di := range h.Cells {
			for _, v := range h.Cells[di] {
				assert.GreaterOrEqual(t, v, int64(0))
				sum += v
			}
		}
		assert.Equal(t, services.FilteredRecordCount(d, c), sum, c.CacheKey())
		assert.Equal(t, sum, h.Total)
	}
}

func TestComputeHeatmap_Idempotent(t *testing.T) {
	d := mixedDataset(t)
	c := entities.FilterCriteria{Clinic: "A", Start: day("2019-05-01"), End: day("2019-05-08"), AdmitSources: allSources(d)}

	assert.Equal(t, services.ComputeHeatmap(d, c), services.ComputeHeatmap(d, c))
}

func TestComputeHeatmap_OrderIndependent(t *testing.T) {
	rows := []entities.RawEncounter{
		withMeasures(raw("A", "ER", "2019-05-01 09:15:00 AM", "X", "1"), "1", "1", "2"),
		withMeasures(raw("A", "ER", "2019-05-02 10:15:00 AM", "X", "2"), "1", "1", "3"),
		withMeasures(raw("A", "ER", "2019-05-01 09:55:00 AM", "X", "3"), "1", "1", "4"),
	}
	reversed := []entities.RawEncounter{rows[2], rows[1], rows[0]}
	c := entities.FilterCriteria{Clinic: "A", Start: day("2019-05-01"), End: day("2019-05-03"), AdmitSources: []string{"ER"}}

	a := services.ComputeHeatmap(mustDataset(t, rows...), c)
	b := services.ComputeHeatmap(mustDataset(t, reversed...), c)
	assert.Equal(t, a.Cells, b.Cells)
}

func TestComputeHeatmap_EmptyResults(t *testing.T) {
	d := mixedDataset(t)

	tests := []struct {
		name     string
		criteria entities.FilterCriteria
	}{
		{"empty admit source set", entities.FilterCriteria{Clinic: "A", Start: day("2019-05-01"), End: day("2019-05-08")}},
		{"unknown clinic", entities.FilterCriteria{Clinic: "Nowhere", Start: day("2019-05-01"), End: day("2019-05-08"), AdmitSources: allSources(d)}},
		{"start after end", entities.FilterCriteria{Clinic: "A", Start: day("2019-05-08"), End: day("2019-05-01"), AdmitSources: allSources(d)}},
		{"no rows in range", entities.FilterCriteria{Clinic: "A", Start: day("2020-01-01"), End: day("2020-02-01"), AdmitSources: allSources(d)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := services.ComputeHeatmap(d, tt.criteria)
			assert.True(t, h.IsZero())
			assert.Equal(t, entities.Weekdays, h.Weekdays)
			assert.Equal(t, entities.HourBuckets, h.HourBuckets)
		})
	}
}

func TestComputeHeatmap_RangeIsHalfOpen(t *testing.T) {
	d := mustDataset(t,
		raw("A", "ER", "2019-05-01 12:00:00 AM", "X", "start"),
		raw("A", "ER", "2019-05-02 12:00:00 AM", "X", "end"),
	)
	c := exampleCriteria()

	h := services.ComputeHeatmap(d, c)

	assert.Equal(t, int64(1), h.Cell("Wednesday", "12 AM"), "check-in at start is included")
	assert.Equal(t, int64(0), h.Cell("Thursday", "12 AM"), "check-in at end is excluded")
	assert.Equal(t, int64(1), h.Total)
}

func TestComputeDepartmentSeries_SingleRowExample(t *testing.T) {
	d := mustDataset(t, raw("A", "ER", "2019-05-01 09:15:00 AM", "Cardiology", "1000"))

	series := services.ComputeDepartmentSeries(d, exampleCriteria(), "Cardiology")

	require.Len(t, series.Points, 1)
	p := series.Points[0]
	assert.Equal(t, "Cardiology", series.Department)
	assert.Equal(t, "1000", p.EncounterNumber)
	assert.Equal(t, 30.0, p.MeanWaitMinutes)
	assert.Equal(t, 8.0, p.MeanCareScore)
	assert.Equal(t, "Wednesday", p.Weekday)
	assert.Equal(t, "09 AM", p.HourBucket)
}

func TestComputeDepartmentSeries_MeansPerEncounter(t *testing.T) {
	d := mixedDataset(t)

	series := services.ComputeDepartmentSeries(d, exampleCriteria(), "Cardiology")

	require.Len(t, series.Points, 1)
	p := series.Points[0]
	assert.Equal(t, "1000", p.EncounterNumber)
	assert.Equal(t, 30.0, p.MeanWaitMinutes)
	assert.Equal(t, 8.0, p.MeanCareScore)
	assert.Equal(t, int64(3), p.Records)
	assert.Equal(t, time.Date(2019, 5, 1, 9, 15, 0, 0, time.UTC), p.CheckInTime, "first row of the group is representative")
}

func TestComputeDepartmentSeries_MeansAreNotRounded(t *testing.T) {
	d := mustDataset(t,
		withMeasures(raw("A", "ER", "2019-05-01 09:15:00 AM", "X", "1"), "10", "7", "1"),
		withMeasures(raw("A", "ER", "2019-05-01 09:20:00 AM", "X", "1"), "10", "8", "1"),
		withMeasures(raw("A", "ER", "2019-05-01 09:25:00 AM", "X", "1"), "11", "8", "1"),
	)

	series := services.ComputeDepartmentSeries(d, exampleCriteria(), "X")

	require.Len(t, series.Points, 1)
	assert.InDelta(t, 31.0/3.0, series.Points[0].MeanWaitMinutes, 1e-12)
	assert.InDelta(t, 23.0/3.0, series.Points[0].MeanCareScore, 1e-12)
}

func TestComputeDepartmentSeries_FirstOccurrenceOrder(t *testing.T) {
	d := mustDataset(t,
		raw("A", "ER", "2019-05-01 11:00:00 AM", "X", "30"),
		raw("A", "ER", "2019-05-01 09:00:00 AM", "X", "10"),
		raw("A", "ER", "2019-05-01 10:00:00 AM", "X", "30"),
		raw("A", "ER", "2019-05-01 08:00:00 AM", "X", "20"),
	)

	series := services.ComputeDepartmentSeries(d, exampleCriteria(), "X")

	var ids []string
	for _, p := range series.Points {
		ids = append(ids, p.EncounterNumber)
	}
	assert.Equal(t, []string{"30", "10", "20"}, ids)
	assert.Equal(t, "11 AM", series.Points[0].HourBucket)
}

func TestComputeDepartmentSeries_DistinctEncounterCount(t *testing.T) {
	d := mixedDataset(t)
	c := entities.FilterCriteria{Clinic: "A", Start: day("2019-05-01"), End: day("2019-05-08"), AdmitSources: allSources(d)}

	for _, dept := range d.Options().Departments {
		distinct := make(map[string]struct{})
		m := c.Matcher()
		for _, e := range d.Encounters() {
			e := e
			if e.Department == dept && m.Match(&e) {
				distinct[e.EncounterNumber] = struct{}{}
			}
		}
		series := services.ComputeDepartmentSeries(d, c, dept)
		assert.Len(t, series.Points, len(distinct), dept)
	}
}

func TestComputeDepartmentSeries_EncounterScopedToDepartment(t *testing.T) {
	d := mixedDataset(t)
	c := entities.FilterCriteria{Clinic: "A", Start: day("2019-05-01"), End: day("2019-05-08"), AdmitSources: []string{"ER"}}

	radiology := services.ComputeDepartmentSeries(d, c, "Radiology")

	require.Len(t, radiology.Points, 2)
	assert.Equal(t, "2000", radiology.Points[0].EncounterNumber)
	assert.Equal(t, "1000", radiology.Points[1].EncounterNumber)
	assert.Equal(t, 33.0, radiology.Points[1].MeanWaitMinutes)
}

func TestComputeDepartmentSeries_Empty(t *testing.T) {
	d := mixedDataset(t)

	series := services.ComputeDepartmentSeries(d, exampleCriteria(), "Oncology")
	assert.True(t, series.IsEmpty())
	assert.NotNil(t, series.Points)

	unknown := services.ComputeDepartmentSeries(d, exampleCriteria(), "Dermatology")
	assert.True(t, unknown.IsEmpty())
	assert.Equal(t, "Dermatology", unknown.Department)
}

func TestComputeDepartmentTable(t *testing.T) {
	d := mixedDataset(t)
	c := entities.FilterCriteria{Clinic: "A", Start: day("2019-05-01"), End: day("2019-05-08"), AdmitSources: []string{"ER"}}

	table := services.ComputeDepartmentTable(d, c)

	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Cardiology", table.Rows[0].Department)
	assert.Equal(t, "Radiology", table.Rows[1].Department)
	assert.Equal(t, []string{"Oncology"}, table.EmptyDepartments)

	require.NotNil(t, table.WaitTimeRange)
	assert.Equal(t, 28.0, table.WaitTimeRange.Min)
	assert.Equal(t, 57.0, table.WaitTimeRange.Max)
	require.NotNil(t, table.CareScoreRange)
	assert.Equal(t, 4.0, table.CareScoreRange.Min)
	assert.Equal(t, 8.5, table.CareScoreRange.Max)

	for _, row := range table.Rows {
		assert.Equal(t, services.ComputeDepartmentSeries(d, c, row.Department), row)
	}
}

func TestComputeDepartmentTable_NoData(t *testing.T) {
	d := mixedDataset(t)
	c := entities.FilterCriteria{Clinic: "A", Start: day("2019-05-01"), End: day("2019-05-08")}

	table := services.ComputeDepartmentTable(d, c)

	assert.Empty(t, table.Rows)
	assert.Equal(t, d.Options().Departments, table.EmptyDepartments)
	assert.Nil(t, table.WaitTimeRange)
	assert.Nil(t, table.CareScoreRange)
}
