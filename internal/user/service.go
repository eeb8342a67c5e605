package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/focusnest/planner-service/internal/badges"
	"github.com/focusnest/planner-service/internal/credits"
	"github.com/focusnest/planner-service/internal/metrics"
	"github.com/focusnest/planner-service/internal/stats"
	"github.com/focusnest/planner-service/internal/support"
	"github.com/focusnest/planner-service/shared/events"
	"github.com/focusnest/planner-service/shared/logging"
)

const signupReason = "signup"

// StatsEnsurer creates the stats record for new accounts.
type StatsEnsurer interface {
	Ensure(ctx context.Context, userID string) (stats.Stats, error)
}

// BadgeLister lists a user's badges.
type BadgeLister interface {
	List(ctx context.Context, userID string) ([]badges.Badge, error)
}

// Service signs users in and assembles profiles.
type Service struct {
	repo    Repository
	stats   StatsEnsurer
	badges  BadgeLister
	clock   support.Clock
	ids     support.IDGenerator
	events  events.Publisher
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewService constructs a Service instance with the provided collaborators.
func NewService(repo Repository, statsEnsurer StatsEnsurer, badgeLister BadgeLister, clock support.Clock, ids support.IDGenerator, publisher events.Publisher, recorder metrics.Recorder, logger *slog.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("repo is required")
	}
	if statsEnsurer == nil {
		return nil, errors.New("stats ensurer is required")
	}
	if badgeLister == nil {
		return nil, errors.New("badge lister is required")
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
		stats:   statsEnsurer,
		badges:  badgeLister,
		clock:   clock,
		ids:     ids,
		events:  publisher,
		metrics: recorder,
		logger:  logger,
	}, nil
}

// NormalizeEmail lowercases and validates an address.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: malformed email %q", ErrInvalidInput, email)
	}
	return email, nil
}

// SignIn returns the account for email, creating it with the sign-up grant on first sight.
// The second return value reports whether the account was created by this call.
func (s *Service) SignIn(ctx context.Context, email, displayName string) (User, bool, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return User{}, false, err
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = strings.SplitN(email, "@", 2)[0]
	}

	now := s.clock.Now().UTC()
	u, created, err := s.repo.CreateIfMissing(ctx, User{
		ID:          s.ids.NewID(),
		Email:       email,
		DisplayName: displayName,
		Credits:     credits.SignupGrant,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return User{}, false, fmt.Errorf("upsert user: %w", err)
	}

	if _, err := s.stats.Ensure(ctx, u.ID); err != nil {
		return User{}, false, fmt.Errorf("init stats: %w", err)
	}

	if created {
		s.metrics.RecordGrant(signupReason, credits.SignupGrant)
		s.logger.InfoContext(ctx, "user signed up", slog.String("userId", u.ID))
		s.events.Publish(ctx, events.UserSignedUp{UserID: u.ID, Email: u.Email, DisplayName: u.DisplayName, At: now})
		s.events.Publish(ctx, events.CreditsChanged{
			UserID:    u.ID,
			Operation: events.CreditGrant,
			Amount:    credits.SignupGrant,
			Balance:   u.Credits,
			Reason:    signupReason,
			At:        now,
		})
	}
	return u, created, nil
}

// Get returns an account by id.
func (s *Service) Get(ctx context.Context, userID string) (User, error) {
	return s.repo.Get(ctx, userID)
}

// GetByEmail returns an account by email.
func (s *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return User{}, err
	}
	return s.repo.GetByEmail(ctx, email)
}

// Profile loads the account, its stats and its badges concurrently.
func (s *Service) Profile(ctx context.Context, userID string) (Profile, error) {
	var profile Profile

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		u, err := s.repo.Get(ctx, userID)
		if err != nil {
			return err
		}
		profile.User = u
		return nil
	})

	g.Go(func() error {
		st, err := s.stats.Ensure(ctx, userID)
		if err != nil {
			return err
		}
		profile.Stats = st
		return nil
	})

	g.Go(func() error {
		held, err := s.badges.List(ctx, userID)
		if err != nil {
			return err
		}
		profile.Badges = held
		return nil
	})

	if err := g.Wait(); err != nil {
		return Profile{}, err
	}
	if profile.Badges == nil {
		profile.Badges = []badges.Badge{}
	}
	return profile, nil
}
