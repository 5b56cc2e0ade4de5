package entities

import (
	"fmt"
	"time"
)

// CheckInLayout is the timestamp format of the Check-In Time column
const CheckInLayout = "2006-01-02 03:04:05 PM"

// AdmitSourceNotIdentified replaces a missing admit source
const AdmitSourceNotIdentified = "Not Identified"

// Weekdays lists the heatmap rows, Monday first
var Weekdays = [7]string{
	"Monday",
	"Tuesday",
	"Wednesday",
	"Thursday",
	"Friday",
	"Saturday",
	"Sunday",
}

// HourBuckets lists the heatmap columns, midnight first ("12 AM" .. "11 PM")
var HourBuckets = func() [24]string {
	var labels [24]string
	for h := 0; h < 24; h++ {
		labels[h] = HourLabel(h)
	}
	return labels
}()

// HourLabel formats an hour of day (0-23) in 12-hour form with a leading zero
func HourLabel(hour int) string {
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	h := hour % 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%02d %s", h, suffix)
}

// WeekdayIndex maps a time to its Monday-first row index
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// RawEncounter is one untyped row as emitted by an encounter source
type RawEncounter struct {
	Line            int
	ClinicName      string
	AdmitSource     *string
	CheckInTime     string
	Department      string
	EncounterNumber string
	WaitTimeMinutes string
	CareScore       string
	NumberOfRecords string
}

// Encounter is one validated check-in event
type Encounter struct {
	ClinicName      string    `json:"clinic_name"`
	AdmitSource     string    `json:"admit_source"`
	CheckInTime     time.Time `json:"check_in_time"`
	Department      string    `json:"department"`
	EncounterNumber string    `json:"encounter_number"`
	WaitTimeMinutes float64   `json:"wait_time_minutes"`
	CareScore       float64   `json:"care_score"`
	NumberOfRecords int64     `json:"number_of_records"`

	// Derived once at load
	Weekday    string `json:"weekday"`
	HourBucket string `json:"hour_bucket"`
	dayIndex   int
	hourIndex  int
}

// NewEncounter builds an encounter and derives its weekday and hour bucket
func NewEncounter(clinic, admitSource string, checkIn time.Time, department, encounterNumber string, waitMinutes, careScore float64, records int64) Encounter {
	day := WeekdayIndex(checkIn)
	hour := checkIn.Hour()
	return Encounter{
		ClinicName:      clinic,
		AdmitSource:     admitSource,
		CheckInTime:     checkIn,
		Department:      department,
		EncounterNumber: encounterNumber,
		WaitTimeMinutes: waitMinutes,
		CareScore:       careScore,
		NumberOfRecords: records,
		Weekday:         Weekdays[day],
		HourBucket:      HourBuckets[hour],
		dayIndex:        day,
		hourIndex:       hour,
	}
}

// Cell returns the heatmap coordinates of the encounter
func (e *Encounter) Cell() (day, hour int) {
	return e.dayIndex, e.hourIndex
}
