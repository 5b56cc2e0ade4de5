package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/zatekoja/ClinicalAnalytics/backend/internal/domain/entities"
	"github.com/zatekoja/ClinicalAnalytics/backend/internal/domain/repositories"
	"github.com/zatekoja/ClinicalAnalytics/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/ClinicalAnalytics/backend/pkg/errors"
)

// EncounterAdapter reads encounter rows from a Postgres table whose columns
// mirror the encounter file. Check-in time is stored as text in the file
// format so every source goes through the same parser. Rows are returned in
// id order, which is the order they were imported in.
type EncounterAdapter struct {
	client *postgres.Client
	db     *goqu.Database
	table  string
}

// NewEncounterAdapter creates a new encounter adapter over table
func NewEncounterAdapter(client *postgres.Client, table string) repositories.EncounterSource {
	return &EncounterAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
		table:  table,
	}
}

// Name identifies the source
func (a *EncounterAdapter) Name() string {
	return "postgres:" + a.table
}

// Load selects every encounter row
func (a *EncounterAdapter) Load(ctx context.Context) ([]entities.RawEncounter, error) {
	query, args, err := a.db.Select(
		"clinic_name", "admit_source", "check_in_time", "department",
		"encounter_number", "wait_time_min", "care_score", "number_of_records",
	).From(a.table).
		Order(goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build encounter query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewExternalError("failed to query encounter records", err)
	}
	defer rows.Close()

	var result []entities.RawEncounter
	for rows.Next() {
		var clinic, admit, checkIn, department, encounter, wait, score, records sql.NullString
		if err := rows.Scan(&clinic, &admit, &checkIn, &department, &encounter, &wait, &score, &records); err != nil {
			return nil, apperrors.NewParseError(fmt.Sprintf("row %d: failed to scan encounter", len(result)+1), err)
		}

		raw := entities.RawEncounter{
			Line:            len(result) + 1,
			ClinicName:      clinic.String,
			CheckInTime:     checkIn.String,
			Department:      department.String,
			EncounterNumber: encounter.String,
			WaitTimeMinutes: wait.String,
			CareScore:       score.String,
			NumberOfRecords: records.String,
		}
		if admit.Valid && admit.String != "" {
			value := admit.String
			raw.AdmitSource = &value
		}
		result = append(result, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewExternalError("failed to iterate encounter records", err)
	}

	return result, nil
}
