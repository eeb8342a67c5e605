// Package events defines the domain events emitted by the planner. Each kind is its own struct
// with a fixed field set; consumers switch on the concrete type.
package events

import (
	"time"

	"github.com/focusnest/planner-service/shared/pubsub"
)

// Kind names an event variant on the wire.
type Kind string

const (
	KindUserSignedUp     Kind = "user_signed_up"
	KindCreditsChanged   Kind = "credits_changed"
	KindSessionStarted   Kind = "session_started"
	KindSessionCompleted Kind = "session_completed"
	KindStreakAdvanced   Kind = "streak_advanced"
	KindBadgeAwarded     Kind = "badge_awarded"
)

// Event is implemented only by the variants in this package.
type Event interface {
	Kind() Kind
	Topic() string
	Subject() string
	OccurredAt() time.Time
	sealed()
}

// UserSignedUp is emitted once, when an account is first created.
type UserSignedUp struct {
	UserID      string    `json:"userId"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	At          time.Time `json:"at"`
}

func (UserSignedUp) Kind() Kind              { return KindUserSignedUp }
func (UserSignedUp) Topic() string           { return pubsub.TopicUserEvents }
func (e UserSignedUp) Subject() string       { return e.UserID }
func (e UserSignedUp) OccurredAt() time.Time { return e.At }
func (UserSignedUp) sealed()                 {}

// CreditOperation distinguishes the ledger paths.
type CreditOperation string

const (
	CreditCharge CreditOperation = "charge"
	CreditGrant  CreditOperation = "grant"
	CreditDeduct CreditOperation = "deduct"
)

// CreditsChanged records a committed ledger mutation.
type CreditsChanged struct {
	UserID    string          `json:"userId"`
	Operation CreditOperation `json:"operation"`
	Amount    int             `json:"amount"`
	Balance   int             `json:"balance"`
	Reason    string          `json:"reason"`
	At        time.Time       `json:"at"`
}

func (CreditsChanged) Kind() Kind              { return KindCreditsChanged }
func (CreditsChanged) Topic() string           { return pubsub.TopicCreditEvents }
func (e CreditsChanged) Subject() string       { return e.UserID }
func (e CreditsChanged) OccurredAt() time.Time { return e.At }
func (CreditsChanged) sealed()                 {}

// SessionStarted is emitted when a learning session opens.
type SessionStarted struct {
	SessionID string    `json:"sessionId"`
	UserID    string    `json:"userId"`
	Source    string    `json:"source"`
	PlanID    string    `json:"planId,omitempty"`
	TodoID    string    `json:"todoId,omitempty"`
	At        time.Time `json:"at"`
}

func (SessionStarted) Kind() Kind              { return KindSessionStarted }
func (SessionStarted) Topic() string           { return pubsub.TopicSessionEvents }
func (e SessionStarted) Subject() string       { return e.UserID }
func (e SessionStarted) OccurredAt() time.Time { return e.At }
func (SessionStarted) sealed()                 {}

// SessionCompleted is emitted after a session closes and its duration is folded into stats.
type SessionCompleted struct {
	SessionID  string    `json:"sessionId"`
	UserID     string    `json:"userId"`
	DurationMs int64     `json:"durationMs"`
	PlanID     string    `json:"planId,omitempty"`
	TodoID     string    `json:"todoId,omitempty"`
	At         time.Time `json:"at"`
}

func (SessionCompleted) Kind() Kind              { return KindSessionCompleted }
func (SessionCompleted) Topic() string           { return pubsub.TopicSessionEvents }
func (e SessionCompleted) Subject() string       { return e.UserID }
func (e SessionCompleted) OccurredAt() time.Time { return e.At }
func (SessionCompleted) sealed()                 {}

// StreakAdvanced is emitted when a streak transition changed the stored stats.
type StreakAdvanced struct {
	UserID        string    `json:"userId"`
	CurrentStreak int       `json:"currentStreak"`
	LongestStreak int       `json:"longestStreak"`
	Day           string    `json:"day"`
	At            time.Time `json:"at"`
}

func (StreakAdvanced) Kind() Kind              { return KindStreakAdvanced }
func (StreakAdvanced) Topic() string           { return pubsub.TopicProgressEvents }
func (e StreakAdvanced) Subject() string       { return e.UserID }
func (e StreakAdvanced) OccurredAt() time.Time { return e.At }
func (StreakAdvanced) sealed()                 {}

// BadgeAwarded is emitted the first time a user earns a badge.
type BadgeAwarded struct {
	UserID string    `json:"userId"`
	Badge  string    `json:"badge"`
	At     time.Time `json:"at"`
}

func (BadgeAwarded) Kind() Kind              { return KindBadgeAwarded }
func (BadgeAwarded) Topic() string           { return pubsub.TopicProgressEvents }
func (e BadgeAwarded) Subject() string       { return e.UserID }
func (e BadgeAwarded) OccurredAt() time.Time { return e.At }
func (BadgeAwarded) sealed()                 {}
