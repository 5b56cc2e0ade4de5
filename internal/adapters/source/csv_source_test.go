package source_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/ClinicalAnalytics/backend/internal/adapters/source"
	apperrors "github.com/zatekoja/ClinicalAnalytics/backend/pkg/errors"
)

const header = "Clinic Name,Admit Source,Check-In Time,Department,Encounter Number,Wait Time Min,Care Score,Number of Records\n"

func TestReadCSV(t *testing.T) {
	input := header +
		"Clinic A,Emergency Room,2019-05-01 09:15:00 AM,Cardiology,1000,30,8,1\n" +
		"Clinic A, NaN ,2019-05-01 10:00:00 PM,Cardiology,1001,12.5,6,2\n"

	rows, err := source.ReadCSV(context.Background(), strings.NewReader(input), ',')
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, "Clinic A", rows[0].ClinicName)
	require.NotNil(t, rows[0].AdmitSource)
	assert.Equal(t, "Emergency Room", *rows[0].AdmitSource)
	assert.Equal(t, "2019-05-01 09:15:00 AM", rows[0].CheckInTime)
	assert.Equal(t, "1000", rows[0].EncounterNumber)
	assert.Equal(t, "30", rows[0].WaitTimeMinutes)

	assert.Nil(t, rows[1].AdmitSource)
	assert.Equal(t, "12.5", rows[1].WaitTimeMinutes)
	assert.Equal(t, "2", rows[1].NumberOfRecords)
}

func TestReadCSV_MissingMarkers(t *testing.T) {
	for _, marker := range []string{"", "nan", "NA", "n/a", "NULL"} {
		input := header + "Clinic A," + marker + ",2019-05-01 09:15:00 AM,Cardiology,1000,30,8,1\n"

		rows, err := source.ReadCSV(context.Background(), strings.NewReader(input), ',')
		require.NoError(t, err, marker)
		require.Len(t, rows, 1)
		assert.Nil(t, rows[0].AdmitSource, "marker %q", marker)
	}
}

func TestReadCSV_BOMAndAliasedHeader(t *testing.T) {
	input := "\ufeffClinic Name,Admit Source,Check-In Time,Department,Encounter Number,Wait Time Minutes,Care Score,Number of Records\n" +
		"Clinic A,Walk-in,2019-05-01 09:15:00 AM,Cardiology,1000,42,8,1\n"

	rows, err := source.ReadCSV(context.Background(), strings.NewReader(input), ',')
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Clinic A", rows[0].ClinicName)
	assert.Equal(t, "42", rows[0].WaitTimeMinutes)
}

func TestReadCSV_ColumnOrderIsFree(t *testing.T) {
	input := "Department,Encounter Number,Clinic Name,Admit Source,Check-In Time,Care Score,Wait Time Min,Number of Records\n" +
		"Cardiology,1000,Clinic A,Emergency Room,2019-05-01 09:15:00 AM,8,30,1\n"

	rows, err := source.ReadCSV(context.Background(), strings.NewReader(input), ',')
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Cardiology", rows[0].Department)
	assert.Equal(t, "30", rows[0].WaitTimeMinutes)
	assert.Equal(t, "8", rows[0].CareScore)
}

func TestReadCSV_TabDelimited(t *testing.T) {
	input := strings.ReplaceAll(header, ",", "\t") +
		"Clinic A\tEmergency Room\t2019-05-01 09:15:00 AM\tCardiology\t1000\t30\t8\t1\n"

	rows, err := source.ReadCSV(context.Background(), strings.NewReader(input), '\t')
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Emergency Room", *rows[0].AdmitSource)
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{
			name:    "empty file",
			input:   "",
			message: "empty",
		},
		{
			name:    "missing columns",
			input:   "Clinic Name,Admit Source,Check-In Time\nClinic A,ER,2019-05-01 09:15:00 AM\n",
			message: "missing required columns: Department, Encounter Number, Wait Time Min, Care Score, Number of Records",
		},
		{
			name:    "malformed row",
			input:   header + "Clinic A,\"Emergency,2019-05-01 09:15:00 AM,Cardiology,1000,30,8,1\n",
			message: "line 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := source.ReadCSV(context.Background(), strings.NewReader(tt.input), ',')
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeParse))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestCSVSource_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "encounters.csv")
	require.NoError(t, os.WriteFile(path, []byte(header+"Clinic A,ER,2019-05-01 09:15:00 AM,Cardiology,1000,30,8,1\n"), 0o600))

	src := source.NewCSVSource(path)
	assert.Equal(t, "csv:"+path, src.Name())

	rows, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestCSVSource_MissingFile(t *testing.T) {
	_, err := source.NewCSVSource(filepath.Join(t.TempDir(), "nope.csv")).Load(context.Background())

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeParse))
}
