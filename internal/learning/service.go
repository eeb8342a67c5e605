package learning

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

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// StatsRecorder is the part of the stats service a session end needs.
type StatsRecorder interface {
	AddLearningTime(ctx context.Context, userID string, durationMs int64) (stats.Stats, error)
}

// Service opens and closes learning sessions.
type Service struct {
	repo    Repository
	stats   StatsRecorder
	clock   support.Clock
	ids     support.IDGenerator
	events  events.Publisher
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewService constructs a Service instance with the provided collaborators.
func NewService(repo Repository, statsRecorder StatsRecorder, clock support.Clock, ids support.IDGenerator, publisher events.Publisher, recorder metrics.Recorder, logger *slog.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("repo is required")
	}
	if statsRecorder == nil {
		return nil, errors.New("stats recorder is required")
	}
	if clock == nil {
		return nil, errors.New("clock is required")
	}
	if ids == nil {
		return nil, errors.New("id generator is required")
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
	return &Service{
		repo:    repo,
		stats:   statsRecorder,
		clock:   clock,
		ids:     ids,
		events:  publisher,
		metrics: recorder,
		logger:  logger,
	}, nil
}

// Start opens a new session. Plan and todo references are expected to be ownership-checked by the caller.
func (s *Service) Start(ctx context.Context, input StartInput) (Session, error) {
	if err := input.Validate(); err != nil {
		return Session{}, err
	}
	if input.Source == "" {
		input.Source = SourceManual
	}

	now := s.clock.Now().UTC()
	session := Session{
		ID:        s.ids.NewID(),
		UserID:    input.UserID,
		PlanID:    input.PlanID,
		TodoID:    input.TodoID,
		Source:    input.Source,
		StartedAt: now,
		CreatedAt: now,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}

	s.events.Publish(ctx, events.SessionStarted{
		SessionID: session.ID,
		UserID:    session.UserID,
		Source:    string(session.Source),
		PlanID:    session.PlanID,
		TodoID:    session.TodoID,
		At:        now,
	})
	return session, nil
}

// End closes an open session owned by userID, folds its duration into stats and emits session_completed.
// A session whose fold failed is closed but still pending; ending it again retries the fold with the
// stored duration. Ending a folded session returns ErrAlreadyEnded and leaves stats untouched.
func (s *Service) End(ctx context.Context, userID, sessionID string) (Session, error) {
	if userID == "" || sessionID == "" {
		return Session{}, fmt.Errorf("%w: user id and session id are required", ErrInvalidInput)
	}

	now := s.clock.Now().UTC()
	closed, err := s.repo.Update(ctx, sessionID, func(sess *Session) error {
		if sess.UserID != userID {
			return ErrUnauthorized
		}
		if !sess.Open() {
			if sess.StatsPending {
				return nil
			}
			return ErrAlreadyEnded
		}
		duration := max(0, now.Sub(sess.StartedAt).Milliseconds())
		ended := now
		sess.EndedAt = &ended
		sess.DurationMs = &duration
		sess.StatsPending = true
		return nil
	})
	if err != nil {
		return Session{}, err
	}

	durationMs := *closed.DurationMs
	if _, err := s.stats.AddLearningTime(ctx, userID, durationMs); err != nil {
		return closed, fmt.Errorf("record learning time: %w", err)
	}

	folded, err := s.repo.Update(ctx, sessionID, func(sess *Session) error {
		sess.StatsPending = false
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to clear pending stats flag",
			slog.String("userId", userID),
			slog.String("sessionId", closed.ID),
			slog.Any("error", err),
		)
		folded = closed
		folded.StatsPending = false
	}

	s.metrics.RecordSessionCompleted(time.Duration(durationMs) * time.Millisecond)
	s.logger.InfoContext(ctx, "learning session completed",
		slog.String("userId", userID),
		slog.String("sessionId", folded.ID),
		slog.Int64("durationMs", durationMs),
	)
	s.events.Publish(ctx, events.SessionCompleted{
		SessionID:  folded.ID,
		UserID:     userID,
		DurationMs: durationMs,
		PlanID:     folded.PlanID,
		TodoID:     folded.TodoID,
		At:         *folded.EndedAt,
	})
	return folded, nil
}

// Get returns a session owned by userID.
func (s *Service) Get(ctx context.Context, userID, sessionID string) (Session, error) {
	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return Session{}, err
	}
	if sess.UserID != userID {
		return Session{}, ErrUnauthorized
	}
	return sess, nil
}

// List returns the user's most recent sessions, newest first.
func (s *Service) List(ctx context.Context, userID string, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.repo.ListByUser(ctx, userID, limit)
}
