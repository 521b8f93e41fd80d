package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"hotel_pms/internal/adapters/observability"
	"hotel_pms/internal/app"
	"hotel_pms/internal/bootstrap"
	"hotel_pms/internal/shared"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "sync:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		hotelID int64
		date    string
		workers int
	)
	cfg := shared.Load()

	cmd := &cobra.Command{
		Use:           "sync",
		Short:         "Reconcile today's check-ins and check-outs with the PMS",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log.Logger = observability.NewLogger(cfg.AppEnv, "sync", cfg.LogLevel)

			today := time.Now().UTC()
			if date != "" {
				d, err := time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("--date: %w", err)
				}
				today = d
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			deps, err := bootstrap.Open(ctx, cfg)
			if err != nil {
				log.Error().Err(err).Msg("startup failed")
				return err
			}
			defer deps.Close()

			log.Info().
				Str("base", cfg.PMSBase).
				Int("workers", workers).
				Int64("hotel", hotelID).
				Str("day", today.Format("2006-01-02")).
				Msg("sync starting")

			runner := &app.SweepRunner{Hotels: deps.Store, Registry: deps.Registry, Workers: workers}
			results, err := runner.Run(ctx, hotelID, today)
			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
					log.Warn().Int64("hotel", r.HotelID).Err(r.Err).Msg("sync failed")
					continue
				}
				log.Info().Int64("hotel", r.HotelID).Interface("counts", r.Counts).Msg("sync ok")
			}
			if err != nil {
				log.Error().Int("failed", failed).Int("hotels", len(results)).Msg("sync completed with failures")
				return err
			}
			log.Info().Int("hotels", len(results)).Msg("sync completed")
			return nil
		},
	}
	cmd.Flags().Int64Var(&hotelID, "hotel", 0, "sync only this hotel id (default all hotels)")
	cmd.Flags().StringVar(&date, "date", "", "day to sync as YYYY-MM-DD (default today, UTC)")
	cmd.Flags().IntVar(&workers, "workers", cfg.SyncWorkers, "hotels synced concurrently")
	return cmd
}
