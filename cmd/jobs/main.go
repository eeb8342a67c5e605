package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/focusnest/planner-service/internal/app"
	"github.com/focusnest/planner-service/internal/config"
	"github.com/focusnest/planner-service/internal/database"
	"github.com/focusnest/planner-service/internal/jobs"
	"github.com/focusnest/planner-service/internal/stats"
	"github.com/focusnest/planner-service/internal/support"
	"github.com/focusnest/planner-service/shared/logging"
)

const jobTimeout = 10 * time.Minute

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "planner-jobs",
		Short:         "Scheduled maintenance jobs for the planner service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newResetCmd())
	return root
}

func newResetCmd() *cobra.Command {
	var period string
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Zero the weekly or monthly learning-time counters for every user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := stats.ParsePeriod(period)
			if err != nil {
				return err
			}
			return runReset(cmd.Context(), p)
		},
	}
	cmd.Flags().StringVar(&period, "period", "", "counter to reset: weekly or monthly")
	_ = cmd.MarkFlagRequired("period")
	return cmd
}

func runReset(ctx context.Context, period stats.Period) error {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	logger := logging.NewLogger("planner-jobs")

	repo, cleanup, err := newStatsRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	svc, err := stats.NewService(repo, support.NewSystemClock(), nil, nil, nil, logger)
	if err != nil {
		return err
	}
	job, err := jobs.NewResetJob(svc, logger)
	if err != nil {
		return err
	}
	_, err = job.Run(ctx, period)
	return err
}

func newStatsRepository(ctx context.Context, cfg config.Config, logger *slog.Logger) (stats.Repository, func(), error) {
	switch cfg.DataStore {
	case config.DataStoreFirestore:
		client, err := app.NewFirestoreClient(ctx, cfg.GCPProjectID, cfg.Firestore.DatabaseID, cfg.Firestore.EmulatorHost)
		if err != nil {
			return nil, nil, err
		}
		return stats.NewFirestoreRepository(client), func() { _ = client.Close() }, nil
	case config.DataStorePostgres:
		db, err := database.Open(ctx, cfg.DatabaseDSN, logger)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return stats.NewGormRepository(db), cleanup, nil
	default:
		return nil, nil, fmt.Errorf("datastore %q keeps no state between processes; nothing to reset", cfg.DataStore)
	}
}
