// Package plans drafts structured learning plans from a topic or a YouTube playlist.
package plans

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
)

// Source records how a plan was produced.
type Source string

const (
	SourceTopic   Source = "topic"
	SourceYouTube Source = "youtube"
)

// Step is one item of a plan.
type Step struct {
	Title       string `json:"title" firestore:"title"`
	Description string `json:"description,omitempty" firestore:"description"`
	VideoID     string `json:"videoId,omitempty" firestore:"video_id"`
}

// Plan is a user's learning plan.
type Plan struct {
	ID         string                    `json:"id" firestore:"-" gorm:"primaryKey;type:text"`
	UserID     string                    `json:"userId" firestore:"user_id" gorm:"type:text;not null;index"`
	Title      string                    `json:"title" firestore:"title" gorm:"type:text;not null"`
	Topic      string                    `json:"topic" firestore:"topic" gorm:"type:text"`
	Source     Source                    `json:"source" firestore:"source" gorm:"type:text;not null"`
	PlaylistID string                    `json:"playlistId,omitempty" firestore:"playlist_id" gorm:"type:text"`
	Steps      datatypes.JSONSlice[Step] `json:"steps" firestore:"steps" gorm:"type:jsonb"`
	CreatedAt  time.Time                 `json:"createdAt" firestore:"created_at"`
}

// TableName pins the relational table name.
func (Plan) TableName() string { return "plans" }

// Video is a playlist entry.
type Video struct {
	ID          string
	Title       string
	Description string
}

// Playlist is the first page of a playlist.
type Playlist struct {
	ID     string
	Title  string
	Videos []Video
}

// PlaylistSource fetches playlist metadata.
type PlaylistSource interface {
	Playlist(ctx context.Context, playlistID string) (Playlist, error)
}

// Repository encapsulates persistence for plans.
type Repository interface {
	Create(ctx context.Context, p Plan) error
	Get(ctx context.Context, planID string) (Plan, error)
	ListByUser(ctx context.Context, userID string) ([]Plan, error)
	Delete(ctx context.Context, planID string) error
}

// ErrNotFound indicates the plan does not exist.
var ErrNotFound = errors.New("plan not found")

// ErrForbidden indicates the plan belongs to a different user.
var ErrForbidden = errors.New("plan belongs to another user")

// ErrInvalidInput indicates the provided data failed validation.
var ErrInvalidInput = errors.New("invalid input")

// ErrPlaylistNotFound indicates the playlist is missing or private.
var ErrPlaylistNotFound = errors.New("playlist not found")
