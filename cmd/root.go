package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/algae-foundation/teacher-analytics/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "teacher-analytics",
	Short: "Analytics backend for the teacher training program",
	Long:  "Ingests teacher rosters, geocodes school addresses via Nominatim, and serves participation analytics and exports for the program dashboard.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
