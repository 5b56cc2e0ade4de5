package services

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/ClinicalAnalytics/backend/internal/domain/entities"
	"github.com/zatekoja/ClinicalAnalytics/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/ClinicalAnalytics/backend/pkg/errors"
)

// Dataset is the normalized, immutable encounter table shared by every query.
// It is built once at startup and never mutated, so concurrent readers need no locking.
type Dataset struct {
	encounters  []entities.Encounter
	options     entities.FilterOptions
	clinics     map[string]struct{}
	departments map[string]struct{}
	source      string
	fingerprint string
	loadedAt    time.Time
}

// DatasetSummary describes the loaded dataset
type DatasetSummary struct {
	Source      string    `json:"source"`
	Rows        int       `json:"rows"`
	Records     int64     `json:"records"`
	Fingerprint string    `json:"fingerprint"`
	LoadedAt    time.Time `json:"loaded_at"`
	MinCheckIn  time.Time `json:"min_check_in"`
	MaxCheckIn  time.Time `json:"max_check_in"`
}

// LoadDataset reads every row of src and normalizes it. Any invalid row
// aborts the load with a PARSE error.
func LoadDataset(ctx context.Context, src repositories.EncounterSource) (*Dataset, error) {
	start := time.Now()

	raws, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}

	dataset, err := NewDataset(src.Name(), raws)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("source", src.Name()).
		Int("rows", dataset.Len()).
		Int("clinics", len(dataset.options.Clinics)).
		Int("departments", len(dataset.options.Departments)).
		Str("fingerprint", dataset.fingerprint).
		Dur("duration", time.Since(start)).
		Msg("Encounter dataset loaded")

	return dataset, nil
}

// NewDataset normalizes raw rows into a dataset
func NewDataset(source string, raws []entities.RawEncounter) (*Dataset, error) {
	if len(raws) == 0 {
		return nil, apperrors.NewParseError("dataset contains no encounter records", nil)
	}

	d := &Dataset{
		encounters:  make([]entities.Encounter, 0, len(raws)),
		clinics:     make(map[string]struct{}),
		departments: make(map[string]struct{}),
		source:      source,
		loadedAt:    time.Now().UTC(),
	}
	admitSeen := make(map[string]struct{})
	hash := sha256.New()

	for i := range raws {
		e, err := normalize(&raws[i])
		if err != nil {
			return nil, err
		}
		d.encounters = append(d.encounters, e)

		if _, ok := d.clinics[e.ClinicName]; !ok {
			d.clinics[e.ClinicName] = struct{}{}
			d.options.Clinics = append(d.options.Clinics, e.ClinicName)
		}
		if _, ok := admitSeen[e.AdmitSource]; !ok {
			admitSeen[e.AdmitSource] = struct{}{}
			d.options.AdmitSources = append(d.options.AdmitSources, e.AdmitSource)
		}
		if _, ok := d.departments[e.Department]; !ok {
			d.departments[e.Department] = struct{}{}
			d.options.Departments = append(d.options.Departments, e.Department)
		}
		if i == 0 || e.CheckInTime.Before(d.options.MinCheckIn) {
			d.options.MinCheckIn = e.CheckInTime
		}
		if i == 0 || e.CheckInTime.After(d.options.MaxCheckIn) {
			d.options.MaxCheckIn = e.CheckInTime
		}

		writeFingerprint(hash, &e)
	}

	day := 24 * time.Hour
	d.options.DefaultStart = d.options.MinCheckIn.Truncate(day)
	d.options.DefaultEnd = d.options.MaxCheckIn.Truncate(day).Add(day)
	d.fingerprint = hex.EncodeToString(hash.Sum(nil)[:12])

	return d, nil
}

func normalize(raw *entities.RawEncounter) (entities.Encounter, error) {
	rowErr := func(msg string, err error) error {
		return apperrors.NewParseError(fmt.Sprintf("row %d: %s", raw.Line, msg), err)
	}

	checkIn, err := time.Parse(entities.CheckInLayout, strings.TrimSpace(raw.CheckInTime))
	if err != nil {
		return entities.Encounter{}, rowErr(fmt.Sprintf("invalid check-in time %q", raw.CheckInTime), err)
	}

	clinic := strings.TrimSpace(raw.ClinicName)
	if clinic == "" {
		return entities.Encounter{}, rowErr("missing clinic name", nil)
	}
	department := strings.TrimSpace(raw.Department)
	if department == "" {
		return entities.Encounter{}, rowErr("missing department", nil)
	}
	encounter := strings.TrimSpace(raw.EncounterNumber)
	if encounter == "" {
		return entities.Encounter{}, rowErr("missing encounter number", nil)
	}

	wait, err := parseMeasure(raw.WaitTimeMinutes)
	if err != nil {
		return entities.Encounter{}, rowErr("invalid wait time", err)
	}
	score, err := parseMeasure(raw.CareScore)
	if err != nil {
		return entities.Encounter{}, rowErr("invalid care score", err)
	}
	records, err := parseRecordCount(raw.NumberOfRecords)
	if err != nil {
		return entities.Encounter{}, rowErr("invalid number of records", err)
	}

	admit := entities.AdmitSourceNotIdentified
	if raw.AdmitSource != nil {
		if v := strings.TrimSpace(*raw.AdmitSource); v != "" {
			admit = v
		}
	}

	return entities.NewEncounter(clinic, admit, checkIn, department, encounter, wait, score, records), nil
}

func parseMeasure(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("value is missing")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("value %q is not finite", s)
	}
	return v, nil
}

// parseRecordCount accepts integers and integral floats such as "1.0"
func parseRecordCount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("value is missing")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
			return 0, err
		}
		n = int64(f)
	}
	if n < 0 {
		return 0, fmt.Errorf("record count %d is negative", n)
	}
	return n, nil
}

func writeFingerprint(h io.Writer, e *entities.Encounter) {
	var buf [8]byte
	for _, s := range []string{e.ClinicName, e.AdmitSource, e.Department, e.EncounterNumber} {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	binary.LittleEndian.PutUint64(buf[:], uint64(e.CheckInTime.Unix()))
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(e.WaitTimeMinutes))
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(e.CareScore))
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(e.NumberOfRecords))
	h.Write(buf[:])
}

// Len returns the number of encounter rows
func (d *Dataset) Len() int {
	return len(d.encounters)
}

// Encounters returns a copy of the normalized rows in original order
func (d *Dataset) Encounters() []entities.Encounter {
	return append([]entities.Encounter(nil), d.encounters...)
}

// Options returns the filter options; the slices are copies
func (d *Dataset) Options() entities.FilterOptions {
	opts := d.options
	opts.Clinics = append([]string(nil), d.options.Clinics...)
	opts.AdmitSources = append([]string(nil), d.options.AdmitSources...)
	opts.Departments = append([]string(nil), d.options.Departments...)
	return opts
}

// HasClinic reports whether any row belongs to clinic
func (d *Dataset) HasClinic(clinic string) bool {
	_, ok := d.clinics[clinic]
	return ok
}

// HasDepartment reports whether any row belongs to department
func (d *Dataset) HasDepartment(department string) bool {
	_, ok := d.departments[department]
	return ok
}

// Fingerprint identifies the dataset content; it namespaces cached results
func (d *Dataset) Fingerprint() string {
	return d.fingerprint
}

// Summary describes the dataset
func (d *Dataset) Summary() DatasetSummary {
	var records int64
	for i := range d.encounters {
		records += d.encounters[i].NumberOfRecords
	}
	return DatasetSummary{
		Source:      d.source,
		Rows:        d.Len(),
		Records:     records,
		Fingerprint: d.fingerprint,
		LoadedAt:    d.loadedAt,
		MinCheckIn:  d.options.MinCheckIn,
		MaxCheckIn:  d.options.MaxCheckIn,
	}
}

// CheckCriteria returns a FILTER error when the criteria name a clinic the
// dataset does not have or a date range that cannot overlap it. An empty
// admit source set is valid and simply matches nothing.
func (d *Dataset) CheckCriteria(c entities.FilterCriteria) error {
	if !d.HasClinic(c.Clinic) {
		return apperrors.NewFilterError(fmt.Sprintf("clinic %q is not in the dataset", c.Clinic))
	}
	if !c.Start.Before(c.End) {
		return apperrors.NewFilterError("start must be before end")
	}
	if c.Start.After(d.options.MaxCheckIn) || !c.End.After(d.options.MinCheckIn) {
		return apperrors.NewFilterError("date range is outside the dataset bounds")
	}
	return nil
}
