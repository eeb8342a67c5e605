package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/focusnest/planner-service/internal/metrics"
	"github.com/focusnest/planner-service/internal/support"
	"github.com/focusnest/planner-service/shared/events"
	"github.com/focusnest/planner-service/shared/logging"
)

// Service orchestrates streak and learning-time updates.
type Service struct {
	repo     Repository
	clock    support.Clock
	observer Observer
	events   events.Publisher
	metrics  metrics.Recorder
	logger   *slog.Logger
}

// NewService constructs a Service. A nil observer becomes NoopObserver.
func NewService(repo Repository, clock support.Clock, observer Observer, publisher events.Publisher, recorder metrics.Recorder, logger *slog.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("repo is required")
	}
	if clock == nil {
		return nil, errors.New("clock is required")
	}
	if observer == nil {
		observer = NoopObserver{}
	}
	if publisher == nil {
		publisher = events.Discard
	}
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		repo:     repo,
		clock:    clock,
		observer: observer,
		events:   publisher,
		metrics:  recorder,
		logger:   logger,
	}, nil
}

// Ensure returns the user's stats, creating a zeroed record when none exists.
func (s *Service) Ensure(ctx context.Context, userID string) (Stats, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Stats{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	existing, err := s.repo.Get(ctx, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Stats{}, err
	}

	now := s.clock.Now().UTC()
	fresh := Stats{UserID: userID, CreatedAt: now, UpdatedAt: now}
	if err := s.repo.Create(ctx, fresh); err != nil {
		if errors.Is(err, ErrConflict) {
			return s.repo.Get(ctx, userID)
		}
		return Stats{}, err
	}
	return fresh, nil
}

// Get returns the stored stats or ErrNotFound.
func (s *Service) Get(ctx context.Context, userID string) (Stats, error) {
	return s.repo.Get(ctx, userID)
}

// RecordActivity applies the streak transition for today.
func (s *Service) RecordActivity(ctx context.Context, userID string) (Stats, error) {
	return s.mutate(ctx, userID, 0)
}

// AddLearningTime folds durationMs into the counters and applies the streak transition in one update.
func (s *Service) AddLearningTime(ctx context.Context, userID string, durationMs int64) (Stats, error) {
	if durationMs < 0 {
		durationMs = 0
	}
	return s.mutate(ctx, userID, durationMs)
}

// ResetPeriod zeroes the weekly or monthly counter for every user.
func (s *Service) ResetPeriod(ctx context.Context, period Period) (int, error) {
	if _, err := ParsePeriod(string(period)); err != nil {
		return 0, err
	}
	return s.repo.ResetPeriod(ctx, period, s.clock.Now().UTC())
}

func (s *Service) mutate(ctx context.Context, userID string, durationMs int64) (Stats, error) {
	if _, err := s.Ensure(ctx, userID); err != nil {
		return Stats{}, err
	}

	now := s.clock.Now().UTC()
	today := support.Today(s.clock)
	var advanced bool

	updated, err := s.repo.Update(ctx, userID, func(st *Stats) error {
		next := AddLearningTime(*st, durationMs)
		next, advanced = AdvanceStreak(next, today)
		next.UpdatedAt = now
		*st = next
		return nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("update stats: %w", err)
	}

	if advanced {
		s.metrics.RecordStreakAdvanced(updated.CurrentStreak)
		s.events.Publish(ctx, events.StreakAdvanced{
			UserID:        userID,
			CurrentStreak: updated.CurrentStreak,
			LongestStreak: updated.LongestStreak,
			Day:           today,
			At:            now,
		})
	}

	if err := s.observer.OnStatsChanged(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "stats observer failed",
			slog.String("userId", userID),
			slog.String("error", err.Error()),
		)
	}

	return updated, nil
}
