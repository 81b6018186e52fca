package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/algae-foundation/teacher-analytics/internal/analytics"
	"github.com/algae-foundation/teacher-analytics/internal/export"
)

var (
	exportFormat string
	exportOut    string
	exportFilter analytics.Filter
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the dataset as CSV or XLSX",
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
		filtered := analytics.Apply(records, exportFilter)

		out := exportOut
		if out == "" {
			out = export.Filename(exportFormat, exportFilter != (analytics.Filter{}), time.Now())
		}

		switch exportFormat {
		case "csv":
			f, err := os.Create(out)
			if err != nil {
				return eris.Wrapf(err, "create %s", out)
			}
			defer f.Close() //nolint:errcheck
			if err := export.WriteCSV(f, filtered); err != nil {
				return err
			}
		case "xlsx":
			data, err := export.BuildXLSX(filtered)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return eris.Wrapf(err, "write %s", out)
			}
		default:
			return eris.Errorf("unsupported export format %q", exportFormat)
		}

		fmt.Printf("Wrote %d rows to %s\n", len(filtered), out)
		return nil
	},
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&exportFormat, "format", "csv", "output format: csv or xlsx")
	f.StringVarP(&exportOut, "out", "o", "", "output path (default timestamped name)")
	f.StringVar(&exportFilter.Year, "year", "", "filter by program year")
	f.StringVar(&exportFilter.Semester, "semester", "", "filter by semester")
	f.StringVar(&exportFilter.State, "state", "", "filter by state")
	f.StringVar(&exportFilter.SchoolType, "school-type", "", "filter by school type")

	rootCmd.AddCommand(exportCmd)
}
