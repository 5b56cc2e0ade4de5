package evaluation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/ClinicalAnalytics/backend/internal/adapters/source"
	"github.com/zatekoja/ClinicalAnalytics/backend/internal/application/services"
	"github.com/zatekoja/ClinicalAnalytics/backend/internal/evaluation"
)

func TestGoldenCasesAgainstSampleDataset(t *testing.T) {
	ctx := context.Background()

	dataset, err := services.LoadDataset(ctx, source.NewCSVSource("../../data/clinical_analytics.csv"))
	require.NoError(t, err)

	cases, err := evaluation.LoadGoldenCases("../../config/golden_cases.json")
	require.NoError(t, err)
	require.NotEmpty(t, cases)

	svc := services.NewDashboardService(dataset, nil, 0, nil)
	summary, err := evaluation.NewRunner(svc, dataset.Encounters(), nil).Run(ctx, cases)
	require.NoError(t, err)

	for _, res := range summary.Results {
		assert.True(t, res.Passed, "%s: failures=%v violations=%v", res.CaseID, res.Failures, res.Violations)
	}
	assert.Equal(t, len(cases), summary.Passed)
	assert.Zero(t, summary.TotalViolations)
}
