// Package badges awards achievement badges from a user's streak and learning-time stats.
package badges

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/focusnest/planner-service/internal/metrics"
	"github.com/focusnest/planner-service/internal/stats"
	"github.com/focusnest/planner-service/internal/support"
	"github.com/focusnest/planner-service/shared/events"
	"github.com/focusnest/planner-service/shared/logging"
)

// Badge is an award held by a user. Name is unique per user.
type Badge struct {
	UserID    string    `json:"-" firestore:"user_id" gorm:"primaryKey;type:text"`
	Name      string    `json:"name" firestore:"name" gorm:"primaryKey;type:text"`
	Label     string    `json:"label" firestore:"label" gorm:"type:text;not null"`
	AwardedAt time.Time `json:"awardedAt" firestore:"awarded_at" gorm:"not null"`
}

// TableName pins the relational table name.
func (Badge) TableName() string { return "user_badges" }

// Rule unlocks a badge once its predicate holds for the current stats.
type Rule struct {
	Name   string
	Label  string
	Unlock func(stats.Stats) bool
}

const hourMs = int64(time.Hour / time.Millisecond)

// DefaultRules is the built-in badge table. Names are stable identifiers.
func DefaultRules() []Rule {
	return []Rule{
		streakRule("first-step", "First Step", 1),
		streakRule("on-a-roll", "On a Roll", 3),
		streakRule("week-warrior", "Week Warrior", 7),
		streakRule("fortnight-focus", "Fortnight Focus", 14),
		streakRule("monthly-master", "Monthly Master", 30),
		learningRule("first-hour", "First Hour", 1),
		learningRule("ten-hours", "Ten Hours", 10),
		learningRule("hundred-hours", "Hundred Hours", 100),
	}
}

func streakRule(name, label string, days int) Rule {
	return Rule{Name: name, Label: label, Unlock: func(s stats.Stats) bool { return s.LongestStreak >= days }}
}

func learningRule(name, label string, hours int64) Rule {
	return Rule{Name: name, Label: label, Unlock: func(s stats.Stats) bool { return s.TotalLearningTimeMs >= hours*hourMs }}
}

// Repository encapsulates persistence for awarded badges.
type Repository interface {
	// Award stores b unless the user already holds a badge with the same name; it reports whether it stored.
	Award(ctx context.Context, b Badge) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]Badge, error)
}

// StatsReader loads the stats the rules are evaluated against.
type StatsReader interface {
	Get(ctx context.Context, userID string) (stats.Stats, error)
}

// Evaluator checks the rule table after each stats change. It satisfies stats.Observer.
type Evaluator struct {
	repo    Repository
	stats   StatsReader
	rules   []Rule
	clock   support.Clock
	events  events.Publisher
	metrics metrics.Recorder
	logger  *slog.Logger
}

var _ stats.Observer = (*Evaluator)(nil)

// NewEvaluator constructs an Evaluator. Nil rules select DefaultRules.
func NewEvaluator(repo Repository, reader StatsReader, rules []Rule, clock support.Clock, publisher events.Publisher, recorder metrics.Recorder, logger *slog.Logger) (*Evaluator, error) {
	if repo == nil {
		return nil, errors.New("repo is required")
	}
	if reader == nil {
		return nil, errors.New("stats reader is required")
	}
	if clock == nil {
		return nil, errors.New("clock is required")
	}
	if rules == nil {
		rules = DefaultRules()
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
	return &Evaluator{
		repo:    repo,
		stats:   reader,
		rules:   rules,
		clock:   clock,
		events:  publisher,
		metrics: recorder,
		logger:  logger,
	}, nil
}

// OnStatsChanged awards every unlocked badge the user does not hold yet.
func (e *Evaluator) OnStatsChanged(ctx context.Context, userID string) error {
	_, err := e.Evaluate(ctx, userID)
	return err
}

// Evaluate runs the rule table and returns the badges newly awarded by this call.
func (e *Evaluator) Evaluate(ctx context.Context, userID string) ([]Badge, error) {
	st, err := e.stats.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}

	now := e.clock.Now().UTC()
	var awarded []Badge
	for _, rule := range e.rules {
		if !rule.Unlock(st) {
			continue
		}
		b := Badge{UserID: userID, Name: rule.Name, Label: rule.Label, AwardedAt: now}
		stored, err := e.repo.Award(ctx, b)
		if err != nil {
			return awarded, fmt.Errorf("award %s: %w", rule.Name, err)
		}
		if !stored {
			continue
		}

		awarded = append(awarded, b)
		e.metrics.RecordBadgeAwarded(b.Name)
		e.logger.InfoContext(ctx, "badge awarded", slog.String("userId", userID), slog.String("badge", b.Name))
		e.events.Publish(ctx, events.BadgeAwarded{UserID: userID, Badge: b.Name, At: now})
	}
	return awarded, nil
}

// List returns the badges a user holds, oldest first.
func (e *Evaluator) List(ctx context.Context, userID string) ([]Badge, error) {
	return e.repo.ListByUser(ctx, userID)
}
