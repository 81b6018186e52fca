package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/algae-foundation/teacher-analytics/internal/ingest"
	"github.com/algae-foundation/teacher-analytics/internal/store"
	"github.com/algae-foundation/teacher-analytics/pkg/geocode"
)

// openStore builds the configured dataset backend.
func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "csv", "":
		return store.NewCSV(cfg.Store.CSVPath), nil
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return nil, eris.New("store: postgres driver needs store.database_url")
		}
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &cfg.Store.Pool, cfg.Ingest.InsertBatchSize)
	case "sqlite":
		return store.NewSQLite(cfg.Store.SQLitePath, cfg.Ingest.InsertBatchSize)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Store.Driver)
	}
}

// newPipeline wires the ingestion pipeline from config.
func newPipeline(st store.Store) *ingest.Pipeline {
	gc := geocode.NewClient(
		geocode.WithBaseURL(cfg.Geocoder.BaseURL),
		geocode.WithUserAgent(cfg.Geocoder.UserAgent),
		geocode.WithRateLimit(cfg.Geocoder.RequestsPerSec),
		geocode.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.Geocoder.TimeoutSecs) * time.Second,
		}),
	)
	return ingest.New(st, gc, cfg.Geocoder.Country)
}

// logProgress returns a Progress that logs every interval rows.
func logProgress(interval int) ingest.Progress {
	if interval <= 0 {
		interval = 10
	}
	return func(done, total, geocoded int) {
		if done%interval == 0 || done == total {
			zap.L().Info("progress",
				zap.String("rows", fmt.Sprintf("%d/%d", done, total)),
				zap.Int("geocoded", geocoded),
			)
		}
	}
}
