package entities

// Heatmap is the weekly check-in volume grid. Cells[d][h] holds the summed
// record count for Weekdays[d] and HourBuckets[h].
type Heatmap struct {
	Weekdays    [7]string    `json:"weekdays"`
	HourBuckets [24]string   `json:"hour_buckets"`
	Cells       [7][24]int64 `json:"cells"`
	Total       int64        `json:"total"`
}

// NewHeatmap returns an all-zero heatmap with the fixed axes
func NewHeatmap() Heatmap {
	return Heatmap{
		Weekdays:    Weekdays,
		HourBuckets: HourBuckets,
	}
}

// Add accumulates records into a cell
func (h *Heatmap) Add(day, hour int, records int64) {
	h.Cells[day][hour] += records
	h.Total += records
}

// Cell returns the count for a weekday and hour bucket label; unknown labels read as 0
func (h *Heatmap) Cell(weekday, hourBucket string) int64 {
	d, hr := -1, -1
	for i, w := range h.Weekdays {
		if w == weekday {
			d = i
		}
	}
	for i, b := range h.HourBuckets {
		if b == hourBucket {
			hr = i
		}
	}
	if d < 0 || hr < 0 {
		return 0
	}
	return h.Cells[d][hr]
}

// Max returns the largest cell value
func (h *Heatmap) Max() int64 {
	var max int64
	for d := range h.Cells {
		for _, v := range h.Cells[d] {
			if v > max {
				max = v
			}
		}
	}
	return max
}

// IsZero reports whether every cell is 0
func (h *Heatmap) IsZero() bool {
	return h.Total == 0 && h.Max() == 0
}
