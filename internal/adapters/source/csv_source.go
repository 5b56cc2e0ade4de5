package source

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/zatekoja/ClinicalAnalytics/backend/internal/domain/entities"
	"github.com/zatekoja/ClinicalAnalytics/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/ClinicalAnalytics/backend/pkg/errors"
)

// Column names of the encounter file
const (
	ColClinicName      = "Clinic Name"
	ColAdmitSource     = "Admit Source"
	ColCheckInTime     = "Check-In Time"
	ColDepartment      = "Department"
	ColEncounterNumber = "Encounter Number"
	ColWaitTime        = "Wait Time Min"
	ColCareScore       = "Care Score"
	ColNumberOfRecords = "Number of Records"
)

// columnAliases maps alternative header spellings onto canonical column names
var columnAliases = map[string]string{
	"wait time minutes": ColWaitTime,
	"wait time minute":  ColWaitTime,
}

var requiredColumns = []string{
	ColClinicName,
	ColAdmitSource,
	ColCheckInTime,
	ColDepartment,
	ColEncounterNumber,
	ColWaitTime,
	ColCareScore,
	ColNumberOfRecords,
}

// missingMarkers are cell values treated as an absent admit source
var missingMarkers = map[string]bool{
	"":     true,
	"nan":  true,
	"na":   true,
	"n/a":  true,
	"null": true,
}

// CSVSource reads encounter rows from a delimited file with a header row
type CSVSource struct {
	path  string
	comma rune
}

// NewCSVSource creates a comma-delimited CSV source
func NewCSVSource(path string) repositories.EncounterSource {
	return &CSVSource{path: path, comma: ','}
}

// NewDelimitedSource creates a source for files using another delimiter (e.g. tab)
func NewDelimitedSource(path string, comma rune) repositories.EncounterSource {
	return &CSVSource{path: path, comma: comma}
}

// Name identifies the source
func (s *CSVSource) Name() string {
	return "csv:" + s.path
}

// Load reads the whole file
func (s *CSVSource) Load(ctx context.Context) ([]entities.RawEncounter, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, apperrors.NewParseError(fmt.Sprintf("failed to open %s", s.path), err)
	}
	defer file.Close()

	return ReadCSV(ctx, file, s.comma)
}

// ReadCSV parses encounter rows from r
func ReadCSV(ctx context.Context, r io.Reader, comma rune) ([]entities.RawEncounter, error) {
	bufReader := bufio.NewReaderSize(r, 64*1024)

	// Skip UTF-8 BOM if present
	if bom, err := bufReader.Peek(3); err == nil && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		bufReader.Discard(3)
	}

	reader := csv.NewReader(bufReader)
	reader.Comma = comma
	reader.ReuseRecord = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, apperrors.NewParseError("encounter file is empty", nil)
	}
	if err != nil {
		return nil, apperrors.NewParseError("failed to read header row", err)
	}

	colIdx, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	var rows []entities.RawEncounter
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, apperrors.NewParseError(fmt.Sprintf("line %d: malformed row", line), err)
		}
		if line%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		get := func(col string) string {
			i := colIdx[col]
			if i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		row := entities.RawEncounter{
			Line:            line,
			ClinicName:      get(ColClinicName),
			CheckInTime:     get(ColCheckInTime),
			Department:      get(ColDepartment),
			EncounterNumber: get(ColEncounterNumber),
			WaitTimeMinutes: get(ColWaitTime),
			CareScore:       get(ColCareScore),
			NumberOfRecords: get(ColNumberOfRecords),
		}
		if admit := get(ColAdmitSource); !missingMarkers[strings.ToLower(admit)] {
			row.AdmitSource = &admit
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func indexColumns(header []string) (map[string]int, error) {
	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if canonical, ok := columnAliases[strings.ToLower(name)]; ok {
			name = canonical
		}
		if _, dup := colIdx[name]; !dup {
			colIdx[name] = i
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := colIdx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewParseError(fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")), nil)
	}
	return colIdx, nil
}
