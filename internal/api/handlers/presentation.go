package handlers

import (
	"strconv"
	"strings"

	"github.com/zatekoja/ClinicalAnalytics/backend/internal/domain/entities"
)

// Response shapes consumed by the dashboard UI. Values are rounded only here.

// HeatmapAnnotation labels one heatmap cell with its bold record count
type HeatmapAnnotation struct {
	Weekday    string `json:"weekday"`
	HourBucket string `json:"hour_bucket"`
	Value      int64  `json:"value"`
	Text       string `json:"text"`
}

// HeatmapResponse is the payload of GET /api/heatmap
type HeatmapResponse struct {
	Criteria      entities.FilterCriteria `json:"criteria"`
	Weekdays      [7]string               `json:"weekdays"`
	HourBuckets   [24]string              `json:"hour_buckets"`
	Cells         [7][24]int64            `json:"cells"`
	Total         int64                   `json:"total"`
	Max           int64                   `json:"max"`
	Annotations   []HeatmapAnnotation     `json:"annotations"`
	HoverTemplate string                  `json:"hover_template"`
}

// heatmapHoverTemplate is rendered client-side with the cell's axes and value
const heatmapHoverTemplate = "<b> %{y} %{x}<br><br> %{z} Patient Records"

func newHeatmapResponse(c entities.FilterCriteria, h *entities.Heatmap) HeatmapResponse {
	resp := HeatmapResponse{
		Criteria:      c,
		Weekdays:      h.Weekdays,
		HourBuckets:   h.HourBuckets,
		Cells:         h.Cells,
		Total:         h.Total,
		Max:           h.Max(),
		Annotations:   make([]HeatmapAnnotation, 0, len(h.Weekdays)*len(h.HourBuckets)),
		HoverTemplate: heatmapHoverTemplate,
	}
	for d, day := range h.Weekdays {
		for hr, bucket := range h.HourBuckets {
			v := h.Cells[d][hr]
			resp.Annotations = append(resp.Annotations, HeatmapAnnotation{
				Weekday:    day,
				HourBucket: bucket,
				Value:      v,
				Text:       "<b>" + strconv.FormatInt(v, 10) + "</b>",
			})
		}
	}
	return resp
}

// PointResponse is one scatter point with its hover text
type PointResponse struct {
	entities.EncounterPoint
	HoverText string `json:"hover_text"`
}

// SeriesResponse is one department row of scatter points
type SeriesResponse struct {
	Department string          `json:"department"`
	Points     []PointResponse `json:"points"`
	Empty      bool            `json:"empty"`
}

// DepartmentTableResponse is the payload of GET /api/departments
type DepartmentTableResponse struct {
	Criteria       entities.FilterCriteria `json:"criteria"`
	Rows           []SeriesResponse        `json:"rows"`
	WaitTimeRange  *entities.AxisRange     `json:"wait_time_range,omitempty"`
	CareScoreRange *entities.AxisRange     `json:"care_score_range,omitempty"`
}

func newSeriesResponse(s *entities.DepartmentSeries) SeriesResponse {
	resp := SeriesResponse{
		Department: s.Department,
		Points:     make([]PointResponse, 0, len(s.Points)),
		Empty:      s.IsEmpty(),
	}
	for _, p := range s.Points {
		resp.Points = append(resp.Points, PointResponse{EncounterPoint: p, HoverText: HoverText(p)})
	}
	return resp
}

// newDepartmentTableResponse lists departments with data first, then the placeholders
func newDepartmentTableResponse(c entities.FilterCriteria, t *entities.DepartmentTable) DepartmentTableResponse {
	resp := DepartmentTableResponse{
		Criteria:       c,
		Rows:           make([]SeriesResponse, 0, len(t.Rows)+len(t.EmptyDepartments)),
		WaitTimeRange:  t.WaitTimeRange,
		CareScoreRange: t.CareScoreRange,
	}
	for i := range t.Rows {
		resp.Rows = append(resp.Rows, newSeriesResponse(&t.Rows[i]))
	}
	for _, dept := range t.EmptyDepartments {
		resp.Rows = append(resp.Rows, SeriesResponse{Department: dept, Points: []PointResponse{}, Empty: true})
	}
	return resp
}

// HoverText formats the tooltip of a scatter point, e.g.
// "Patient # : 1000<br>Check-In Time: 2019-05-01 Wednesday 09 AM<br> Wait Time: 30.0 Minutes, Care Score : 8.0"
func HoverText(p entities.EncounterPoint) string {
	var b strings.Builder
	b.WriteString("Patient # : ")
	b.WriteString(p.EncounterNumber)
	b.WriteString("<br>Check-In Time: ")
	b.WriteString(p.CheckInTime.Format("2006-01-02"))
	b.WriteByte(' ')
	b.WriteString(p.Weekday)
	b.WriteByte(' ')
	b.WriteString(p.HourBucket)
	b.WriteString("<br> Wait Time: ")
	b.WriteString(strconv.FormatFloat(p.MeanWaitMinutes, 'f', 1, 64))
	b.WriteString(" Minutes, Care Score : ")
	b.WriteString(strconv.FormatFloat(p.MeanCareScore, 'f', 1, 64))
	return b.String()
}
