package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/parquet-go/parquet-go"

	"github.com/zatekoja/ClinicalAnalytics/backend/internal/domain/entities"
	"github.com/zatekoja/ClinicalAnalytics/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/ClinicalAnalytics/backend/pkg/errors"
)

const readBatch = 4096

// EncounterRow is the Parquet schema of an encounter snapshot.
// One row per check-in, in the order of the source file.
type EncounterRow struct {
	ClinicName      string  `parquet:"clinic_name"`
	AdmitSource     *string `parquet:"admit_source,optional"`
	CheckInTime     string  `parquet:"check_in_time"`
	Department      string  `parquet:"department"`
	EncounterNumber string  `parquet:"encounter_number"`
	WaitTimeMinutes float64 `parquet:"wait_time_minutes"`
	CareScore       float64 `parquet:"care_score"`
	NumberOfRecords int64   `parquet:"number_of_records"`
}

// ParquetSource reads encounter rows from a snapshot written by ParquetWriter
type ParquetSource struct {
	path string
}

// NewParquetSource creates a Parquet snapshot source
func NewParquetSource(path string) repositories.EncounterSource {
	return &ParquetSource{path: path}
}

// Name identifies the source
func (s *ParquetSource) Name() string {
	return "parquet:" + s.path
}

// Load reads every row of the snapshot
func (s *ParquetSource) Load(ctx context.Context) ([]entities.RawEncounter, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, apperrors.NewParseError(fmt.Sprintf("failed to open %s", s.path), err)
	}
	defer f.Close()

	reader := parquet.NewGenericReader[EncounterRow](f)
	defer reader.Close()

	rows := make([]entities.RawEncounter, 0, reader.NumRows())
	buf := make([]EncounterRow, readBatch)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := reader.Read(buf)
		for i := 0; i < n; i++ {
			rows = append(rows, buf[i].raw(len(rows)+1))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.NewParseError("failed to read parquet snapshot", err)
		}
	}

	return rows, nil
}

func (r EncounterRow) raw(line int) entities.RawEncounter {
	// buf is reused between reads, so the optional value is copied out
	var admit *string
	if r.AdmitSource != nil {
		v := *r.AdmitSource
		admit = &v
	}
	return entities.RawEncounter{
		Line:            line,
		ClinicName:      r.ClinicName,
		AdmitSource:     admit,
		CheckInTime:     r.CheckInTime,
		Department:      r.Department,
		EncounterNumber: r.EncounterNumber,
		WaitTimeMinutes: strconv.FormatFloat(r.WaitTimeMinutes, 'g', -1, 64),
		CareScore:       strconv.FormatFloat(r.CareScore, 'g', -1, 64),
		NumberOfRecords: strconv.FormatInt(r.NumberOfRecords, 10),
	}
}

// ParquetWriter writes validated encounters to a snapshot file
type ParquetWriter struct {
	file   *os.File
	writer *parquet.GenericWriter[EncounterRow]
	count  int
}

// NewParquetWriter creates a snapshot writer at path
func NewParquetWriter(path string) (*ParquetWriter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create encounter parquet: %w", err)
	}
	writer := parquet.NewGenericWriter[EncounterRow](file,
		parquet.Compression(&parquet.Snappy),
	)
	return &ParquetWriter{file: file, writer: writer}, nil
}

// Write appends encounters in order
func (w *ParquetWriter) Write(encounters []entities.Encounter) error {
	batch := make([]EncounterRow, 0, readBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := w.writer.Write(batch); err != nil {
			return fmt.Errorf("write encounter rows: %w", err)
		}
		w.count += len(batch)
		batch = batch[:0]
		return nil
	}

	for i := range encounters {
		e := &encounters[i]
		admit := e.AdmitSource
		batch = append(batch, EncounterRow{
			ClinicName:      e.ClinicName,
			AdmitSource:     &admit,
			CheckInTime:     e.CheckInTime.Format(entities.CheckInLayout),
			Department:      e.Department,
			EncounterNumber: e.EncounterNumber,
			WaitTimeMinutes: e.WaitTimeMinutes,
			CareScore:       e.CareScore,
			NumberOfRecords: e.NumberOfRecords,
		})
		if len(batch) == readBatch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

// Close flushes and closes the writer
func (w *ParquetWriter) Close() error {
	if err := w.writer.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("close encounter writer: %w", err)
	}
	return w.file.Close()
}

// Count returns the number of rows written
func (w *ParquetWriter) Count() int { return w.count }
