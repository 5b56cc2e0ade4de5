package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/ClinicalAnalytics/backend/internal/adapters/source"
	"github.com/zatekoja/ClinicalAnalytics/backend/internal/application/services"
	"github.com/zatekoja/ClinicalAnalytics/backend/internal/evaluation"
	"github.com/zatekoja/ClinicalAnalytics/backend/internal/infrastructure/observability"
	"github.com/zatekoja/ClinicalAnalytics/backend/pkg/config"
)

func main() {
	goldenPath := flag.String("golden", "config/golden_cases.json", "path to the golden case file")
	tolerance := flag.Float64("tolerance", 1e-9, "allowed absolute error of encounter means")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger("clinical-analytics-evaluate", cfg.Environment)

	ctx := context.Background()

	src, closer, err := source.FromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open encounter source")
	}
	dataset, err := services.LoadDataset(ctx, src)
	closer.Close()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load encounter dataset")
	}

	path := *goldenPath
	if _, err := os.Stat(path); err != nil {
		if _, err := os.Stat("backend/" + path); err == nil {
			path = "backend/" + path
		}
	}

	cases, err := evaluation.LoadGoldenCases(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load golden cases")
	}

	svc := services.NewDashboardService(dataset, nil, 0, nil)
	guardrails := evaluation.NewGuardrails(evaluation.GuardrailConfig{Tolerance: *tolerance})
	runner := evaluation.NewRunner(svc, dataset.Encounters(), guardrails)

	summary, err := runner.Run(ctx, cases)
	if err != nil {
		log.Fatal().Err(err).Msg("Evaluation failed")
	}

	// Output results as JSON
	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))

	if summary.Failed > 0 {
		os.Exit(1)
	}
}
