// Package learning records timed learning sessions and folds their durations into user stats.
package learning

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Source describes what opened a session.
type Source string

const (
	SourceManual Source = "manual"
	SourceTimer  Source = "timer"
	SourceAuto   Source = "auto"
)

// ValidSources lists the accepted session sources.
var ValidSources = []Source{SourceManual, SourceTimer, SourceAuto}

// Session is a single learning interval. It is open until EndedAt is set, which happens at most once.
// StatsPending marks a closed session whose duration has not reached the user's stats yet.
type Session struct {
	ID           string     `json:"id" firestore:"-" gorm:"primaryKey;type:text"`
	UserID       string     `json:"userId" firestore:"user_id" gorm:"type:text;not null;index:idx_learning_sessions_user_started,priority:1"`
	PlanID       string     `json:"planId,omitempty" firestore:"plan_id" gorm:"type:text"`
	TodoID       string     `json:"todoId,omitempty" firestore:"todo_id" gorm:"type:text"`
	Source       Source     `json:"source" firestore:"source" gorm:"type:text;not null"`
	StartedAt    time.Time  `json:"startedAt" firestore:"started_at" gorm:"not null;index:idx_learning_sessions_user_started,priority:2"`
	EndedAt      *time.Time `json:"endedAt,omitempty" firestore:"ended_at"`
	DurationMs   *int64     `json:"durationMs,omitempty" firestore:"duration_ms"`
	StatsPending bool       `json:"-" firestore:"stats_pending" gorm:"not null;default:false"`
	CreatedAt    time.Time  `json:"createdAt" firestore:"created_at"`
}

// TableName pins the relational table name.
func (Session) TableName() string { return "learning_sessions" }

// Open reports whether the session has not been ended yet.
func (s Session) Open() bool { return s.EndedAt == nil }

// StartInput captures the data required to open a session.
type StartInput struct {
	UserID string
	Source Source
	PlanID string
	TodoID string
}

// Validate ensures the input fields meet the domain constraints.
func (i StartInput) Validate() error {
	var problems []string

	if strings.TrimSpace(i.UserID) == "" {
		problems = append(problems, "user_id is required")
	}
	if i.Source != "" {
		valid := false
		for _, s := range ValidSources {
			if s == i.Source {
				valid = true
				break
			}
		}
		if !valid {
			problems = append(problems, fmt.Sprintf("source must be one of: %s, %s, %s", SourceManual, SourceTimer, SourceAuto))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

// Repository encapsulates persistence for learning sessions.
type Repository interface {
	Create(ctx context.Context, session Session) error
	Get(ctx context.Context, sessionID string) (Session, error)
	// Update runs fn against the stored session and writes its end state atomically.
	Update(ctx context.Context, sessionID string, fn func(*Session) error) (Session, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]Session, error)
}

// ErrNotFound indicates the session does not exist.
var ErrNotFound = errors.New("learning session not found")

// ErrAlreadyEnded indicates the session was closed before.
var ErrAlreadyEnded = errors.New("learning session already ended")

// ErrUnauthorized indicates the session belongs to a different user.
var ErrUnauthorized = errors.New("learning session belongs to another user")

// ErrConflict indicates a duplicate identifier collision.
var ErrConflict = errors.New("learning session already exists")

// ErrInvalidInput indicates the provided data failed validation.
var ErrInvalidInput = errors.New("invalid input")
