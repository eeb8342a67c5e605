package credits

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/focusnest/planner-service/internal/metrics"
	"github.com/focusnest/planner-service/internal/support"
	"github.com/focusnest/planner-service/shared/events"
	"github.com/focusnest/planner-service/shared/logging"
)

// ErrInsufficientCredits indicates a charge larger than the current balance.
var ErrInsufficientCredits = errors.New("insufficient credits")

// ErrInvalidAmount indicates a non-positive cost or amount.
var ErrInvalidAmount = errors.New("credit amount must be positive")

// Store is the persistence surface the ledger needs. UpdateCredits must run fn and write its result,
// stamped with at, as one atomic read-modify-write; when fn returns an error nothing is written and
// the error is returned unchanged (or wrapped).
type Store interface {
	Credits(ctx context.Context, userID string) (int, error)
	UpdateCredits(ctx context.Context, userID string, at time.Time, fn func(current int) (int, error)) (int, error)
}

// Ledger applies the two balance policies: charge-if-affordable rejects, deduct floors at zero.
type Ledger struct {
	store   Store
	clock   support.Clock
	events  events.Publisher
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewLedger constructs a Ledger. Nil publisher, recorder or logger fall back to no-ops.
func NewLedger(store Store, clock support.Clock, publisher events.Publisher, recorder metrics.Recorder, logger *slog.Logger) (*Ledger, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if clock == nil {
		return nil, errors.New("clock is required")
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
	return &Ledger{store: store, clock: clock, events: publisher, metrics: recorder, logger: logger}, nil
}

// Balance returns the stored credit count.
func (l *Ledger) Balance(ctx context.Context, userID string) (int, error) {
	return l.store.Credits(ctx, userID)
}

// ChargeIfAffordable subtracts cost when the balance covers it and returns the new balance.
// Callers charge before any side effect of the paid action; a rejected charge leaves the balance untouched.
func (l *Ledger) ChargeIfAffordable(ctx context.Context, userID string, cost int, reason string) (int, error) {
	if cost <= 0 {
		return 0, fmt.Errorf("%w: cost %d", ErrInvalidAmount, cost)
	}

	balance, err := l.store.UpdateCredits(ctx, userID, l.clock.Now().UTC(), func(current int) (int, error) {
		if current < cost {
			return current, ErrInsufficientCredits
		}
		return current - cost, nil
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientCredits) {
			l.metrics.RecordInsufficientCredits(reason)
		}
		return 0, err
	}

	l.metrics.RecordCharge(reason, cost)
	l.publish(ctx, userID, events.CreditCharge, cost, balance, reason)
	return balance, nil
}

// Grant adds amount unconditionally.
func (l *Ledger) Grant(ctx context.Context, userID string, amount int, reason string) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: amount %d", ErrInvalidAmount, amount)
	}

	balance, err := l.store.UpdateCredits(ctx, userID, l.clock.Now().UTC(), func(current int) (int, error) {
		return current + amount, nil
	})
	if err != nil {
		return 0, err
	}

	l.metrics.RecordGrant(reason, amount)
	l.publish(ctx, userID, events.CreditGrant, amount, balance, reason)
	return balance, nil
}

// Deduct removes up to amount, flooring the balance at zero. It never reports insufficiency.
func (l *Ledger) Deduct(ctx context.Context, userID string, amount int, reason string) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: amount %d", ErrInvalidAmount, amount)
	}

	removed := 0
	balance, err := l.store.UpdateCredits(ctx, userID, l.clock.Now().UTC(), func(current int) (int, error) {
		next := max(0, current-amount)
		removed = current - next
		return next, nil
	})
	if err != nil {
		return 0, err
	}

	l.metrics.RecordDeduct(reason, removed)
	l.publish(ctx, userID, events.CreditDeduct, removed, balance, reason)
	return balance, nil
}

func (l *Ledger) publish(ctx context.Context, userID string, op events.CreditOperation, amount, balance int, reason string) {
	l.logger.InfoContext(ctx, "credits changed",
		slog.String("userId", userID),
		slog.String("operation", string(op)),
		slog.Int("amount", amount),
		slog.Int("balance", balance),
		slog.String("reason", reason),
	)
	l.events.Publish(ctx, events.CreditsChanged{
		UserID:    userID,
		Operation: op,
		Amount:    amount,
		Balance:   balance,
		Reason:    reason,
		At:        l.clock.Now().UTC(),
	})
}
