package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/algae-foundation/teacher-analytics/internal/analytics"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show dataset size and geocoding coverage",
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
		s := analytics.Summarize(records)

		fmt.Printf("Store driver:    %s\n", cfg.Store.Driver)
		fmt.Printf("Rows:            %d\n", s.TotalTeachers)
		fmt.Printf("Geocoded:        %d (%d missing)\n", s.GeocodedRows, s.TotalTeachers-s.GeocodedRows)
		fmt.Printf("States reached:  %d\n", s.StatesReached)
		fmt.Printf("Students:        %d\n", s.TotalStudents)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
