package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/algae-foundation/teacher-analytics/internal/monitoring"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <roster-file>",
	Short: "Ingest a roster spreadsheet into the dataset",
	Long: `Reads a .csv or .xlsx roster, normalizes each row, geocodes school
addresses one request per second, and appends the rows to the configured
store. Rows that already carry coordinates are appended as-is.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		monitoring.Init()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		f, err := os.Open(args[0])
		if err != nil {
			return eris.Wrapf(err, "open %s", args[0])
		}
		defer f.Close() //nolint:errcheck

		res, err := newPipeline(st).Ingest(ctx, args[0], f, logProgress(10))
		if err != nil {
			return err
		}

		zap.L().Info("ingest complete",
			zap.Int("added", res.Added),
			zap.Int("geocoded", res.Geocoded),
			zap.Int("total", res.Total),
		)
		fmt.Printf("Added %d rows (%d geocoded); dataset now has %d rows\n",
			res.Added, res.Geocoded, res.Total)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
