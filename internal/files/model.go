// Package files tracks user uploads and their stored objects.
package files

import (
	"context"
	"errors"
	"time"
)

// File is the metadata for one upload. The body lives in the blob store under Key.
type File struct {
	ID          string    `json:"id" firestore:"-" gorm:"primaryKey;type:text"`
	UserID      string    `json:"userId" firestore:"user_id" gorm:"type:text;not null;index"`
	Name        string    `json:"name" firestore:"name" gorm:"type:text;not null"`
	ContentType string    `json:"contentType" firestore:"content_type" gorm:"type:text;not null"`
	SizeBytes   int64     `json:"sizeBytes" firestore:"size_bytes" gorm:"not null"`
	Key         string    `json:"-" firestore:"key" gorm:"type:text;not null"`
	CreatedAt   time.Time `json:"createdAt" firestore:"created_at"`
}

// TableName pins the relational table name.
func (File) TableName() string { return "files" }

// Repository encapsulates persistence for file metadata.
type Repository interface {
	Create(ctx context.Context, f File) error
	Get(ctx context.Context, fileID string) (File, error)
	ListByUser(ctx context.Context, userID string) ([]File, error)
	Delete(ctx context.Context, fileID string) error
}

// ErrNotFound indicates the file does not exist.
var ErrNotFound = errors.New("file not found")

// ErrForbidden indicates the file belongs to a different user.
var ErrForbidden = errors.New("file belongs to another user")

// ErrInvalidInput indicates the provided data failed validation.
var ErrInvalidInput = errors.New("invalid input")
