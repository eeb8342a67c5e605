package todos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/focusnest/planner-service/internal/credits"
	"github.com/focusnest/planner-service/internal/support"
	"github.com/focusnest/planner-service/shared/logging"
)

const (
	shiftReason  = "todo_shift"
	maxShiftDays = 365
)

// Charger is the ledger operation due-date shifting needs.
type Charger interface {
	ChargeIfAffordable(ctx context.Context, userID string, cost int, reason string) (int, error)
}

// ShiftResult reports a due-date shift.
type ShiftResult struct {
	Shifted int `json:"shifted"`
	Charged int `json:"charged"`
	Balance int `json:"balance"`
}

// Service coordinates todo operations.
type Service struct {
	repo    Repository
	charger Charger
	clock   support.Clock
	ids     support.IDGenerator
	logger  *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, charger Charger, clock support.Clock, ids support.IDGenerator, logger *slog.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("repo is required")
	}
	if charger == nil {
		return nil, errors.New("charger is required")
	}
	if clock == nil {
		return nil, errors.New("clock is required")
	}
	if ids == nil {
		return nil, errors.New("id generator is required")
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{repo: repo, charger: charger, clock: clock, ids: ids, logger: logger}, nil
}

func (s *Service) Create(ctx context.Context, input CreateInput) (Todo, error) {
	if err := input.Validate(); err != nil {
		return Todo{}, err
	}
	now := s.clock.Now().UTC()
	t := Todo{
		ID:        s.ids.NewID(),
		UserID:    input.UserID,
		PlanID:    input.PlanID,
		Title:     strings.TrimSpace(input.Title),
		DueDate:   input.DueDate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return Todo{}, fmt.Errorf("create todo: %w", err)
	}
	return t, nil
}

// Get returns a todo owned by userID.
func (s *Service) Get(ctx context.Context, userID, todoID string) (Todo, error) {
	t, err := s.repo.Get(ctx, todoID)
	if err != nil {
		return Todo{}, err
	}
	if t.UserID != userID {
		return Todo{}, ErrForbidden
	}
	return t, nil
}

func (s *Service) List(ctx context.Context, userID string, filter Filter) ([]Todo, error) {
	return s.repo.ListByUser(ctx, userID, filter)
}

// SetCompleted marks a todo done or pending again.
func (s *Service) SetCompleted(ctx context.Context, userID, todoID string, completed bool) (Todo, error) {
	now := s.clock.Now().UTC()
	return s.repo.Update(ctx, todoID, func(t *Todo) error {
		if t.UserID != userID {
			return ErrForbidden
		}
		t.Completed = completed
		t.CompletedAt = nil
		if completed {
			t.CompletedAt = &now
		}
		t.UpdatedAt = now
		return nil
	})
}

func (s *Service) Delete(ctx context.Context, userID, todoID string) error {
	if _, err := s.Get(ctx, userID, todoID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, todoID)
}

// ShiftDueDates moves the due date of every pending todo in scope by days.
// The flat action price is charged before anything is written.
func (s *Service) ShiftDueDates(ctx context.Context, userID, planID string, days int) (ShiftResult, error) {
	if userID == "" {
		return ShiftResult{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if days == 0 || days > maxShiftDays || days < -maxShiftDays {
		return ShiftResult{}, fmt.Errorf("%w: days must be non-zero and within %d", ErrInvalidInput, maxShiftDays)
	}

	cost := credits.FlatActionCost(0)
	balance, err := s.charger.ChargeIfAffordable(ctx, userID, cost, shiftReason)
	if err != nil {
		return ShiftResult{}, err
	}

	now := s.clock.Now().UTC()
	shifted, err := s.repo.UpdatePending(ctx, userID, planID, func(t *Todo) error {
		due, err := time.Parse(dateLayout, t.DueDate)
		if err != nil {
			return fmt.Errorf("todo %s: %w", t.ID, err)
		}
		t.DueDate = due.AddDate(0, 0, days).Format(dateLayout)
		t.UpdatedAt = now
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "todo shift failed after charge",
			slog.String("userId", userID),
			slog.Int("charged", cost),
			slog.String("error", err.Error()),
		)
		return ShiftResult{}, fmt.Errorf("shift todos: %w", err)
	}

	s.logger.InfoContext(ctx, "todos shifted", slog.String("userId", userID), slog.Int("count", shifted), slog.Int("days", days))
	return ShiftResult{Shifted: shifted, Charged: cost, Balance: balance}, nil
}
