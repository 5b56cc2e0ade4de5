package services

import (
	"github.com/zatekoja/ClinicalAnalytics/backend/internal/domain/entities"
)

// ComputeHeatmap sums record counts of the rows passing c into the weekly
// 7x24 grid. Criteria that match nothing yield an all-zero grid.
func ComputeHeatmap(d *Dataset, c entities.FilterCriteria) entities.Heatmap {
	heatmap := entities.NewHeatmap()
	if d == nil {
		return heatmap
	}

	m := c.Matcher()
	for i := range d.encounters {
		e := &d.encounters[i]
		if !m.Match(e) {
			continue
		}
		day, hour := e.Cell()
		heatmap.Add(day, hour, e.NumberOfRecords)
	}
	return heatmap
}

// FilteredRecordCount sums the record counts of the rows passing c
func FilteredRecordCount(d *Dataset, c entities.FilterCriteria) int64 {
	var total int64
	m := c.Matcher()
	for i := range d.encounters {
		if m.Match(&d.encounters[i]) {
			total += d.encounters[i].NumberOfRecords
		}
	}
	return total
}
