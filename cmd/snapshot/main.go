package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/ClinicalAnalytics/backend/internal/adapters/source"
	"github.com/zatekoja/ClinicalAnalytics/backend/internal/application/services"
	"github.com/zatekoja/ClinicalAnalytics/backend/internal/infrastructure/observability"
)

// snapshot validates an encounter CSV and writes it as a Parquet file the API can load
func main() {
	in := flag.String("in", "data/clinical_analytics.csv", "encounter CSV to convert")
	out := flag.String("out", "data/clinical_analytics.parquet", "Parquet snapshot to write")
	env := flag.String("env", "development", "logging environment")
	flag.Parse()

	observability.InitLogger("clinical-analytics-snapshot", *env)

	if err := run(context.Background(), *in, *out); err != nil {
		log.Error().Err(err).Msg("Snapshot failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, in, out string) error {
	start := time.Now()

	dataset, err := services.LoadDataset(ctx, source.NewCSVSource(in))
	if err != nil {
		return err
	}

	writer, err := source.NewParquetWriter(out)
	if err != nil {
		return err
	}
	if err := writer.Write(dataset.Encounters()); err != nil {
		writer.Close()
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	// Read the snapshot back so a broken file never replaces a good CSV in deployment
	check, err := services.LoadDataset(ctx, source.NewParquetSource(out))
	if err != nil {
		return fmt.Errorf("verify snapshot: %w", err)
	}
	if check.Fingerprint() != dataset.Fingerprint() {
		return fmt.Errorf("verify snapshot: fingerprint %s does not match source %s", check.Fingerprint(), dataset.Fingerprint())
	}

	log.Info().
		Str("in", in).
		Str("out", out).
		Int("rows", writer.Count()).
		Str("fingerprint", dataset.Fingerprint()).
		Dur("duration", time.Since(start)).
		Msg("Parquet snapshot written")
	return nil
}
