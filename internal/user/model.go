// Package user manages accounts, keyed by email, and their credit balances.
package user

import (
	"context"
	"errors"
	"time"

	"github.com/focusnest/planner-service/internal/badges"
	"github.com/focusnest/planner-service/internal/credits"
	"github.com/focusnest/planner-service/internal/stats"
)

// User is an account. Email is unique and stored lowercased.
type User struct {
	ID          string    `json:"id" firestore:"-" gorm:"primaryKey;type:text"`
	Email       string    `json:"email" firestore:"email" gorm:"type:text;not null;uniqueIndex"`
	DisplayName string    `json:"displayName" firestore:"display_name" gorm:"type:text"`
	Credits     int       `json:"credits" firestore:"credits" gorm:"not null"`
	CreatedAt   time.Time `json:"createdAt" firestore:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" firestore:"updated_at"`
}

// TableName pins the relational table name.
func (User) TableName() string { return "users" }

// Profile aggregates what the account page shows.
type Profile struct {
	User   User           `json:"user"`
	Stats  stats.Stats    `json:"stats"`
	Badges []badges.Badge `json:"badges"`
}

// Repository encapsulates persistence for users. It doubles as the credit ledger's store.
type Repository interface {
	credits.Store
	Get(ctx context.Context, userID string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	// CreateIfMissing stores u unless an account with the same email exists. It returns the stored
	// account and whether this call created it.
	CreateIfMissing(ctx context.Context, u User) (User, bool, error)
}

// ErrNotFound indicates the account does not exist.
var ErrNotFound = errors.New("user not found")

// ErrInvalidInput indicates the provided data failed validation.
var ErrInvalidInput = errors.New("invalid input")
