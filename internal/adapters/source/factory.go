package source

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/zatekoja/ClinicalAnalytics/backend/internal/adapters/database"
	"github.com/zatekoja/ClinicalAnalytics/backend/internal/domain/repositories"
	"github.com/zatekoja/ClinicalAnalytics/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/ClinicalAnalytics/backend/pkg/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// FromConfig opens the encounter source selected by cfg. The returned closer
// releases any connection the source holds and must be closed after loading.
func FromConfig(cfg *config.Config) (repositories.EncounterSource, io.Closer, error) {
	switch cfg.Dataset.Source {
	case config.SourceCSV:
		if strings.EqualFold(filepath.Ext(cfg.Dataset.Path), ".tsv") {
			return NewDelimitedSource(cfg.Dataset.Path, '\t'), nopCloser{}, nil
		}
		return NewCSVSource(cfg.Dataset.Path), nopCloser{}, nil
	case config.SourceParquet:
		return NewParquetSource(cfg.Dataset.Path), nopCloser{}, nil
	case config.SourcePostgres:
		client, err := postgres.NewClient(&cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return database.NewEncounterAdapter(client, cfg.Dataset.Table), client, nil
	default:
		return nil, nil, fmt.Errorf("unknown dataset source %q", cfg.Dataset.Source)
	}
}
