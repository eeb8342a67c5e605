// Package todos manages per-user todo items, optionally attached to a plan.
package todos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	dateLayout    = "2006-01-02"
	maxTitleRunes = 300
)

// Todo is a single actionable item. DueDate is a UTC calendar date or empty.
type Todo struct {
	ID          string     `json:"id" firestore:"-" gorm:"primaryKey;type:text"`
	UserID      string     `json:"userId" firestore:"user_id" gorm:"type:text;not null;index"`
	PlanID      string     `json:"planId,omitempty" firestore:"plan_id" gorm:"type:text;index"`
	Title       string     `json:"title" firestore:"title" gorm:"type:text;not null"`
	DueDate     string     `json:"dueDate,omitempty" firestore:"due_date" gorm:"type:text"`
	Completed   bool       `json:"completed" firestore:"completed" gorm:"not null"`
	CompletedAt *time.Time `json:"completedAt,omitempty" firestore:"completed_at"`
	CreatedAt   time.Time  `json:"createdAt" firestore:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" firestore:"updated_at"`
}

// TableName pins the relational table name.
func (Todo) TableName() string { return "todos" }

// CreateInput captures the data required to create a todo.
type CreateInput struct {
	UserID  string
	PlanID  string
	Title   string
	DueDate string
}

// Validate ensures the input fields meet the domain constraints.
func (i CreateInput) Validate() error {
	var problems []string

	if strings.TrimSpace(i.UserID) == "" {
		problems = append(problems, "user_id is required")
	}
	title := strings.TrimSpace(i.Title)
	if title == "" {
		problems = append(problems, "title is required")
	} else if utf8.RuneCountInString(title) > maxTitleRunes {
		problems = append(problems, fmt.Sprintf("title must be at most %d characters", maxTitleRunes))
	}
	if i.DueDate != "" {
		if _, err := time.Parse(dateLayout, i.DueDate); err != nil {
			problems = append(problems, "due_date must be YYYY-MM-DD")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

// Filter narrows a listing. Empty fields match everything.
type Filter struct {
	PlanID      string
	PendingOnly bool
}

func (f Filter) matches(t Todo) bool {
	if f.PlanID != "" && t.PlanID != f.PlanID {
		return false
	}
	return !f.PendingOnly || !t.Completed
}

// Repository encapsulates persistence for todos.
type Repository interface {
	Create(ctx context.Context, t Todo) error
	Get(ctx context.Context, todoID string) (Todo, error)
	ListByUser(ctx context.Context, userID string, filter Filter) ([]Todo, error)
	Update(ctx context.Context, todoID string, fn func(*Todo) error) (Todo, error)
	Delete(ctx context.Context, todoID string) error
	// UpdatePending applies fn to every pending todo of the user that has a due date,
	// within planID when set, and returns how many were written.
	UpdatePending(ctx context.Context, userID, planID string, fn func(*Todo) error) (int, error)
}

// ErrNotFound indicates the todo does not exist.
var ErrNotFound = errors.New("todo not found")

// ErrForbidden indicates the todo belongs to a different user.
var ErrForbidden = errors.New("todo belongs to another user")

// ErrInvalidInput indicates the provided data failed validation.
var ErrInvalidInput = errors.New("invalid input")
