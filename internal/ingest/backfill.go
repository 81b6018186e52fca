package ingest

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/algae-foundation/teacher-analytics/internal/store"
)

// BackfillResult summarizes one backfill sweep over the dataset.
type BackfillResult struct {
	// Scanned is how many rows lacked coordinates and were looked up.
	Scanned int `json:"scanned_count"`
	// Geocoded is how many of those gained coordinates.
	Geocoded int `json:"geocoded_count"`
	// Failed is how many lookups errored or found no match.
	Failed int `json:"failed_count"`
}

// Backfill geocodes every stored row that is missing coordinates. Rows that
// already carry a coordinate pair are never looked up again, so repeated
// sweeps converge. Progress is checkpointed every checkpointRows updates on
// backends that rewrite the whole file, so an interrupted sweep loses at
// most one checkpoint interval of work.
func (p *Pipeline) Backfill(ctx context.Context, checkpointRows int, progress Progress) (*BackfillResult, error) {
	if checkpointRows <= 0 {
		checkpointRows = 50
	}
	start := time.Now()
	logger := zap.L().With(zap.String("op", "backfill"))

	records, err := p.store.LoadAll(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: load dataset")
	}

	updater, canUpdate := p.store.(store.RowUpdater)
	rewriter, canRewrite := p.store.(store.Rewriter)

	var pending []int // indexes without coordinates
	for i := range records {
		if !records[i].HasCoordinates() {
			pending = append(pending, i)
		}
	}
	logger.Info("backfill starting",
		zap.Int("rows", len(records)),
		zap.Int("missing_coordinates", len(pending)),
	)

	res := &BackfillResult{}
	sinceCheckpoint := 0
	for done, idx := range pending {
		rec := &records[idx]
		res.Scanned++

		ok, err := p.geocodeRecord(ctx, logger, rec)
		if err != nil {
			// Canceled mid-sweep: keep whatever already checkpointed.
			if canRewrite && sinceCheckpoint > 0 {
				if saveErr := rewriter.ReplaceAll(context.WithoutCancel(ctx), records); saveErr == nil {
					sinceCheckpoint = 0
				}
			}
			return res, err
		}
		if !ok {
			res.Failed++
			if progress != nil {
				progress(done+1, len(pending), res.Geocoded)
			}
			continue
		}
		res.Geocoded++

		switch {
		case canUpdate && rec.ID != 0:
			if err := updater.UpdateCoordinates(ctx, rec.ID, *rec.Latitude, *rec.Longitude, rec.GeocodedAddress); err != nil {
				return res, eris.Wrap(err, "ingest: save coordinates")
			}
		case canRewrite:
			sinceCheckpoint++
			if sinceCheckpoint >= checkpointRows {
				if err := rewriter.ReplaceAll(ctx, records); err != nil {
					return res, eris.Wrap(err, "ingest: checkpoint dataset")
				}
				sinceCheckpoint = 0
			}
		}

		if progress != nil {
			progress(done+1, len(pending), res.Geocoded)
		}
	}

	if canRewrite && sinceCheckpoint > 0 {
		if err := rewriter.ReplaceAll(ctx, records); err != nil {
			return res, eris.Wrap(err, "ingest: save dataset")
		}
	}

	logger.Info("backfill finished",
		zap.Int("scanned", res.Scanned),
		zap.Int("geocoded", res.Geocoded),
		zap.Int("failed", res.Failed),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}
