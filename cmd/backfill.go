package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/algae-foundation/teacher-analytics/internal/monitoring"
)

var backfillCheckpoint int

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Geocode stored rows that are missing coordinates",
	Long: `Sweeps the dataset and geocodes every row without a coordinate pair,
one request per second. Progress is saved every --checkpoint rows so an
interrupted sweep can resume where it left off.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		monitoring.Init()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		checkpoint := backfillCheckpoint
		if checkpoint == 0 {
			checkpoint = cfg.Ingest.CheckpointRows
		}

		res, err := newPipeline(st).Backfill(ctx, checkpoint, logProgress(10))
		if err != nil {
			return err
		}

		fmt.Printf("Scanned %d rows: %d geocoded, %d unresolved\n",
			res.Scanned, res.Geocoded, res.Failed)
		return nil
	},
}

func init() {
	backfillCmd.Flags().IntVar(&backfillCheckpoint, "checkpoint", 0,
		"save progress every N geocoded rows (default from config)")
	rootCmd.AddCommand(backfillCmd)
}
