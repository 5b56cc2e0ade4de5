package services

import (
	"github.com/zatekoja/ClinicalAnalytics/backend/internal/domain/entities"
)

// Axis padding around the scatter values of the department table
const (
	waitTimePadding  = 2.0
	careScorePadding = 0.5
)

type encounterGroup struct {
	point    entities.EncounterPoint
	waitSum  float64
	scoreSum float64
	rows     int
}

// seriesBuilder groups rows by encounter number in first-occurrence order
type seriesBuilder struct {
	department string
	groups     []*encounterGroup
	index      map[string]*encounterGroup
}

func newSeriesBuilder(department string) *seriesBuilder {
	return &seriesBuilder{
		department: department,
		index:      make(map[string]*encounterGroup),
	}
}

func (b *seriesBuilder) add(e *entities.Encounter) {
	g, ok := b.index[e.EncounterNumber]
	if !ok {
		g = &encounterGroup{
			point: entities.EncounterPoint{
				EncounterNumber: e.EncounterNumber,
				CheckInTime:     e.CheckInTime,
				Weekday:         e.Weekday,
				HourBucket:      e.HourBucket,
			},
		}
		b.index[e.EncounterNumber] = g
		b.groups = append(b.groups, g)
	}
	g.waitSum += e.WaitTimeMinutes
	g.scoreSum += e.CareScore
	g.rows++
	g.point.Records += e.NumberOfRecords
}

func (b *seriesBuilder) build() entities.DepartmentSeries {
	series := entities.DepartmentSeries{
		Department: b.department,
		Points:     make([]entities.EncounterPoint, 0, len(b.groups)),
	}
	for _, g := range b.groups {
		p := g.point
		p.MeanWaitMinutes = g.waitSum / float64(g.rows)
		p.MeanCareScore = g.scoreSum / float64(g.rows)
		series.Points = append(series.Points, p)
	}
	return series
}

// ComputeDepartmentSeries returns one point per distinct encounter of
// department among the rows passing c, ordered by first occurrence.
// A department with no matching rows yields an empty series.
func ComputeDepartmentSeries(d *Dataset, c entities.FilterCriteria, department string) entities.DepartmentSeries {
	b := newSeriesBuilder(department)
	if d == nil {
		return b.build()
	}

	m := c.Matcher()
	for i := range d.encounters {
		e := &d.encounters[i]
		if e.Department != department || !m.Match(e) {
			continue
		}
		b.add(e)
	}
	return b.build()
}

// ComputeDepartmentTable builds the series of every department in one pass.
// Departments with data come first in the order they appear among the
// filtered rows; the remaining departments are listed as empty placeholders
// in dataset order. Axis ranges are nil when no department has data.
func ComputeDepartmentTable(d *Dataset, c entities.FilterCriteria) entities.DepartmentTable {
	table := entities.DepartmentTable{
		Rows:             []entities.DepartmentSeries{},
		EmptyDepartments: []string{},
	}
	if d == nil {
		return table
	}

	var order []*seriesBuilder
	builders := make(map[string]*seriesBuilder)
	m := c.Matcher()
	for i := range d.encounters {
		e := &d.encounters[i]
		if !m.Match(e) {
			continue
		}
		b, ok := builders[e.Department]
		if !ok {
			b = newSeriesBuilder(e.Department)
			builders[e.Department] = b
			order = append(order, b)
		}
		b.add(e)
	}

	var wait, score *entities.AxisRange
	for _, b := range order {
		series := b.build()
		for _, p := range series.Points {
			wait = extend(wait, p.MeanWaitMinutes)
			score = extend(score, p.MeanCareScore)
		}
		table.Rows = append(table.Rows, series)
	}
	for _, dept := range d.options.Departments {
		if _, ok := builders[dept]; !ok {
			table.EmptyDepartments = append(table.EmptyDepartments, dept)
		}
	}

	if wait != nil {
		table.WaitTimeRange = &entities.AxisRange{Min: wait.Min - waitTimePadding, Max: wait.Max + waitTimePadding}
		table.CareScoreRange = &entities.AxisRange{Min: score.Min - careScorePadding, Max: score.Max + careScorePadding}
	}
	return table
}

func extend(r *entities.AxisRange, v float64) *entities.AxisRange {
	if r == nil {
		return &entities.AxisRange{Min: v, Max: v}
	}
	if v < r.Min {
		r.Min = v
	}
	if v > r.Max {
		r.Max = v
	}
	return r
}
