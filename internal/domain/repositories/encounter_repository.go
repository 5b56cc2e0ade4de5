package repositories

import (
	"context"

	"github.com/zatekoja/ClinicalAnalytics/backend/internal/domain/entities"
)

// EncounterSource reads raw encounter rows in their original order.
// Sources are read once at startup; the dataset is never written back.
type EncounterSource interface {
	// Load returns every row of the source
	Load(ctx context.Context) ([]entities.RawEncounter, error)

	// Name identifies the source in logs and dataset summaries
	Name() string
}
