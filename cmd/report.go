package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/algae-foundation/teacher-analytics/internal/analytics"
	"github.com/algae-foundation/teacher-analytics/internal/report"
)

var reportOut string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write the program summary PDF",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		records, err := st.LoadAll(ctx)
		if err != nil {
			return err
		}

		data, err := report.BuildSummaryPDF(
			analytics.Summarize(records),
			analytics.TopN(analytics.CountByState(records), 10),
			time.Now(),
		)
		if err != nil {
			return err
		}

		if err := os.WriteFile(reportOut, data, 0o644); err != nil {
			return eris.Wrapf(err, "write %s", reportOut)
		}
		fmt.Printf("Wrote %s (%d rows summarized)\n", reportOut, len(records))
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "program_summary.pdf", "output path")
	rootCmd.AddCommand(reportCmd)
}
