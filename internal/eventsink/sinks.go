package eventsink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/focusnest/planner-service/shared/events"
)

// Record is the stored shape of an event.
type Record struct {
	ID         uint           `json:"-" firestore:"-" gorm:"primaryKey"`
	Kind       string         `json:"kind" firestore:"kind" gorm:"type:text;not null;index"`
	Topic      string         `json:"topic" firestore:"topic" gorm:"type:text;not null"`
	Subject    string         `json:"subject" firestore:"subject" gorm:"type:text;not null;index"`
	Payload    datatypes.JSON `json:"payload" firestore:"-" gorm:"type:jsonb;not null"`
	OccurredAt time.Time      `json:"occurredAt" firestore:"occurred_at" gorm:"not null"`
}

// TableName pins the relational table name.
func (Record) TableName() string { return "domain_events" }

// NewRecord converts an event into its stored shape.
func NewRecord(event events.Event) (Record, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return Record{}, fmt.Errorf("marshal %s: %w", event.Kind(), err)
	}
	return Record{
		Kind:       string(event.Kind()),
		Topic:      event.Topic(),
		Subject:    event.Subject(),
		Payload:    datatypes.JSON(payload),
		OccurredAt: event.OccurredAt(),
	}, nil
}

// LogSink writes events as structured log lines.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Write(ctx context.Context, event events.Event) error {
	rec, err := NewRecord(event)
	if err != nil {
		return err
	}
	s.Logger.InfoContext(ctx, "domain event",
		slog.String("kind", rec.Kind),
		slog.String("topic", rec.Topic),
		slog.String("subject", rec.Subject),
		slog.Time("occurredAt", rec.OccurredAt),
		slog.String("payload", string(rec.Payload)),
	)
	return nil
}

// FirestoreSink appends events to the domain_events collection.
type FirestoreSink struct {
	client *firestore.Client
}

// NewFirestoreSink creates a FirestoreSink.
func NewFirestoreSink(client *firestore.Client) *FirestoreSink {
	return &FirestoreSink{client: client}
}

func (s *FirestoreSink) Write(ctx context.Context, event events.Event) error {
	rec, err := NewRecord(event)
	if err != nil {
		return err
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Payload, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	_, _, err = s.client.Collection("domain_events").Add(ctx, map[string]any{
		"kind":        rec.Kind,
		"topic":       rec.Topic,
		"subject":     rec.Subject,
		"payload":     payload,
		"occurred_at": rec.OccurredAt,
	})
	return err
}

// GormSink appends events to the domain_events table.
type GormSink struct {
	db *gorm.DB
}

// NewGormSink creates a GormSink.
func NewGormSink(db *gorm.DB) *GormSink {
	return &GormSink{db: db}
}

func (s *GormSink) Write(ctx context.Context, event events.Event) error {
	rec, err := NewRecord(event)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(&rec).Error
}

// MemorySink keeps events in memory; used by tests and local runs.
type MemorySink struct {
	mu     sync.Mutex
	events []events.Event
}

func (s *MemorySink) Write(_ context.Context, event events.Event) error {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
	return nil
}

// Events returns a copy of everything written so far.
func (s *MemorySink) Events() []events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]events.Event, len(s.events))
	copy(out, s.events)
	return out
}
