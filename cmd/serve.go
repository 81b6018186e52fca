package main

import (
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/algae-foundation/teacher-analytics/internal/monitoring"
	"github.com/algae-foundation/teacher-analytics/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard API server",
	Long: `Serves the dashboard API: login, dataset queries, roster uploads,
exports, and the summary report. When server.backfill_cron is set, a
scheduled sweep geocodes rows that are still missing coordinates.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		monitoring.Init()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		pipeline := newPipeline(st)

		serverCfg := cfg.Server
		if servePort != 0 {
			serverCfg.Port = servePort
		}
		srv := server.New(serverCfg, st, pipeline)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return srv.Run(gctx)
		})

		if spec := serverCfg.BackfillCron; spec != "" {
			sched := cron.New()
			if _, err := sched.AddFunc(spec, func() {
				res, err := pipeline.Backfill(gctx, cfg.Ingest.CheckpointRows, nil)
				if err != nil {
					zap.L().Error("scheduled backfill failed", zap.Error(err))
					return
				}
				zap.L().Info("scheduled backfill done",
					zap.Int("scanned", res.Scanned),
					zap.Int("geocoded", res.Geocoded),
				)
			}); err != nil {
				return eris.Wrapf(err, "parse backfill cron %q", spec)
			}
			sched.Start()
			g.Go(func() error {
				<-gctx.Done()
				<-sched.Stop().Done()
				return nil
			})
			zap.L().Info("backfill schedule active", zap.String("cron", spec))
		}

		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
