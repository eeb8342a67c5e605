// Package jobs holds the scheduled batch work run by cmd/jobs.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/focusnest/planner-service/internal/stats"
	"github.com/focusnest/planner-service/shared/logging"
)

// PeriodResetter zeroes a rolling learning-time counter for every user.
type PeriodResetter interface {
	ResetPeriod(ctx context.Context, period stats.Period) (int, error)
}

// ResetJob clears the weekly or monthly learning-time counters. It is idempotent.
type ResetJob struct {
	resetter PeriodResetter
	logger   *slog.Logger
}

// NewResetJob constructs a ResetJob.
func NewResetJob(resetter PeriodResetter, logger *slog.Logger) (*ResetJob, error) {
	if resetter == nil {
		return nil, errors.New("resetter is required")
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &ResetJob{resetter: resetter, logger: logger}, nil
}

// Run resets the counter for period and returns how many users were touched.
func (j *ResetJob) Run(ctx context.Context, period stats.Period) (int, error) {
	start := time.Now()

	count, err := j.resetter.ResetPeriod(ctx, period)
	if err != nil {
		j.logger.ErrorContext(ctx, "learning time reset failed",
			slog.String("period", string(period)),
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("reset %s learning time: %w", period, err)
	}

	j.logger.InfoContext(ctx, "learning time reset completed",
		slog.String("period", string(period)),
		slog.Int("reset_count", count),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return count, nil
}
