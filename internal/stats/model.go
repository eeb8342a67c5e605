// Package stats tracks per-user activity streaks and accumulated learning time.
package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/focusnest/planner-service/internal/support"
)

// Stats is the one-per-user activity record.
type Stats struct {
	UserID                string    `json:"userId" firestore:"user_id" gorm:"primaryKey;type:text"`
	CurrentStreak         int       `json:"currentStreak" firestore:"current_streak" gorm:"not null"`
	LongestStreak         int       `json:"longestStreak" firestore:"longest_streak" gorm:"not null"`
	LastActiveDate        string    `json:"lastActiveDate,omitempty" firestore:"last_active_date" gorm:"type:text;not null"`
	TotalLearningTimeMs   int64     `json:"totalLearningTimeMs" firestore:"total_learning_time_ms" gorm:"not null"`
	WeeklyLearningTimeMs  int64     `json:"weeklyLearningTimeMs" firestore:"weekly_learning_time_ms" gorm:"not null"`
	MonthlyLearningTimeMs int64     `json:"monthlyLearningTimeMs" firestore:"monthly_learning_time_ms" gorm:"not null"`
	CreatedAt             time.Time `json:"createdAt" firestore:"created_at"`
	UpdatedAt             time.Time `json:"updatedAt" firestore:"updated_at"`
}

// TableName pins the relational table name.
func (Stats) TableName() string { return "user_stats" }

// Period selects which rolling counter a reset applies to.
type Period string

const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// ParsePeriod validates a period name.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodWeekly, PeriodMonthly:
		return Period(s), nil
	default:
		return "", fmt.Errorf("%w: unknown period %q", ErrInvalidInput, s)
	}
}

// AdvanceStreak applies the day-granularity streak transition for activity on today.
// It reports whether anything changed; a second call on the same day is a no-op.
func AdvanceStreak(s Stats, today string) (Stats, bool) {
	if s.LastActiveDate == today {
		return s, false
	}

	next := 1
	if s.LastActiveDate != "" {
		if diff, err := support.DaysBetween(s.LastActiveDate, today); err == nil && diff == 1 {
			next = s.CurrentStreak + 1
		}
	}

	s.CurrentStreak = next
	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
	s.LastActiveDate = today
	return s, true
}

// AddLearningTime folds durationMs into the three learning-time counters.
func AddLearningTime(s Stats, durationMs int64) Stats {
	if durationMs <= 0 {
		return s
	}
	s.TotalLearningTimeMs += durationMs
	s.WeeklyLearningTimeMs += durationMs
	s.MonthlyLearningTimeMs += durationMs
	return s
}

// Repository encapsulates persistence for stats records.
type Repository interface {
	Get(ctx context.Context, userID string) (Stats, error)
	Create(ctx context.Context, stats Stats) error
	// Update runs fn against the stored record and writes the result atomically.
	Update(ctx context.Context, userID string, fn func(*Stats) error) (Stats, error)
	// ResetPeriod zeroes the counter for period on every record and returns how many changed.
	ResetPeriod(ctx context.Context, period Period, at time.Time) (int, error)
}

// Observer is notified after every committed stats mutation.
type Observer interface {
	OnStatsChanged(ctx context.Context, userID string) error
}

// NoopObserver ignores notifications.
type NoopObserver struct{}

func (NoopObserver) OnStatsChanged(context.Context, string) error { return nil }

// ErrNotFound indicates the user has no stats record.
var ErrNotFound = errors.New("stats not found")

// ErrConflict indicates a stats record already exists.
var ErrConflict = errors.New("stats already exist")

// ErrInvalidInput indicates the provided data failed validation.
var ErrInvalidInput = errors.New("invalid input")
