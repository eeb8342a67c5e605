package plans

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/focusnest/planner-service/internal/assistant"
	"github.com/focusnest/planner-service/internal/credits"
	"github.com/focusnest/planner-service/internal/metrics"
	"github.com/focusnest/planner-service/internal/support"
	"github.com/focusnest/planner-service/shared/logging"
)

const (
	topicReason    = "plan"
	playlistReason = "plan_youtube"
	maxTopicRunes  = 200
	maxSteps       = 12
	draftPrompt    = `Create a learning plan for the topic below as a numbered list of 5 to 10 steps. Write each step as "Title: one sentence description". Reply with the list only.

Topic: %s`
	draftSystem = `You design concise, practical self-study plans.`
)

// Charger is the ledger operation plan generation needs.
type Charger interface {
	ChargeIfAffordable(ctx context.Context, userID string, cost int, reason string) (int, error)
}

// Result is a generated plan together with what it cost.
type Result struct {
	Plan    Plan `json:"plan"`
	Charged int  `json:"charged"`
	Balance int  `json:"balance"`
}

// Service generates and manages plans.
type Service struct {
	repo      Repository
	charger   Charger
	assistant assistant.Assistant
	playlists PlaylistSource
	clock     support.Clock
	ids       support.IDGenerator
	metrics   metrics.Recorder
	logger    *slog.Logger
}

// NewService constructs a Service. A nil playlist source disables playlist generation.
func NewService(repo Repository, charger Charger, responder assistant.Assistant, playlists PlaylistSource, clock support.Clock, ids support.IDGenerator, recorder metrics.Recorder, logger *slog.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("repo is required")
	}
	if charger == nil {
		return nil, errors.New("charger is required")
	}
	if clock == nil {
		return nil, errors.New("clock is required")
	}
	if ids == nil {
		return nil, errors.New("id generator is required")
	}
	if responder == nil {
		responder = assistant.NewTemplateAssistant()
	}
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		repo:      repo,
		charger:   charger,
		assistant: responder,
		playlists: playlists,
		clock:     clock,
		ids:       ids,
		metrics:   recorder,
		logger:    logger,
	}, nil
}

// Generate drafts a plan for topic at the flat action price.
func (s *Service) Generate(ctx context.Context, userID, topic string) (Result, error) {
	topic = strings.TrimSpace(topic)
	if userID == "" || topic == "" {
		return Result{}, fmt.Errorf("%w: user id and topic are required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(topic) > maxTopicRunes {
		return Result{}, fmt.Errorf("%w: topic exceeds %d characters", ErrInvalidInput, maxTopicRunes)
	}

	cost := credits.FlatActionCost(0)
	balance, err := s.charger.ChargeIfAffordable(ctx, userID, cost, topicReason)
	if err != nil {
		return Result{}, err
	}

	steps := s.draft(ctx, topic)
	plan := Plan{
		ID:        s.ids.NewID(),
		UserID:    userID,
		Title:     topic,
		Topic:     topic,
		Source:    SourceTopic,
		Steps:     steps,
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := s.repo.Create(ctx, plan); err != nil {
		s.logChargeFailure(ctx, userID, cost, err)
		return Result{}, fmt.Errorf("create plan: %w", err)
	}
	return Result{Plan: plan, Charged: cost, Balance: balance}, nil
}

// GenerateFromPlaylist builds a plan with one step per video of the playlist's first page.
// The price grows with the number of videos and is charged after the playlist is read.
func (s *Service) GenerateFromPlaylist(ctx context.Context, userID, playlistRef string) (Result, error) {
	if s.playlists == nil {
		return Result{}, fmt.Errorf("%w: playlist import is not configured", ErrInvalidInput)
	}
	if userID == "" {
		return Result{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	playlistID, err := ParsePlaylistID(playlistRef)
	if err != nil {
		return Result{}, err
	}

	playlist, err := s.playlists.Playlist(ctx, playlistID)
	if err != nil {
		return Result{}, err
	}
	if len(playlist.Videos) == 0 {
		return Result{}, fmt.Errorf("%w: playlist has no videos", ErrInvalidInput)
	}

	cost := credits.EstimateYouTubePlaylistCost(len(playlist.Videos))
	balance, err := s.charger.ChargeIfAffordable(ctx, userID, cost, playlistReason)
	if err != nil {
		return Result{}, err
	}

	steps := make([]Step, 0, len(playlist.Videos))
	for _, v := range playlist.Videos {
		steps = append(steps, Step{Title: v.Title, Description: firstLine(v.Description), VideoID: v.ID})
	}
	title := strings.TrimSpace(playlist.Title)
	if title == "" {
		title = "YouTube playlist"
	}

	plan := Plan{
		ID:         s.ids.NewID(),
		UserID:     userID,
		Title:      title,
		Topic:      title,
		Source:     SourceYouTube,
		PlaylistID: playlistID,
		Steps:      steps,
		CreatedAt:  s.clock.Now().UTC(),
	}
	if err := s.repo.Create(ctx, plan); err != nil {
		s.logChargeFailure(ctx, userID, cost, err)
		return Result{}, fmt.Errorf("create plan: %w", err)
	}
	return Result{Plan: plan, Charged: cost, Balance: balance}, nil
}

// Get returns a plan owned by userID.
func (s *Service) Get(ctx context.Context, userID, planID string) (Plan, error) {
	p, err := s.repo.Get(ctx, planID)
	if err != nil {
		return Plan{}, err
	}
	if p.UserID != userID {
		return Plan{}, ErrForbidden
	}
	return p, nil
}

// List returns the user's plans, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]Plan, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Delete removes a plan owned by userID.
func (s *Service) Delete(ctx context.Context, userID, planID string) error {
	if _, err := s.Get(ctx, userID, planID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, planID)
}

func (s *Service) draft(ctx context.Context, topic string) []Step {
	text, err := s.assistant.Respond(ctx, assistant.Request{
		System: draftSystem,
		Prompt: fmt.Sprintf(draftPrompt, topic),
	})
	if err == nil {
		if steps := parseSteps(text); len(steps) > 0 {
			return steps
		}
		err = errors.New("no steps in model output")
	}

	s.metrics.RecordAssistantFallback(topicReason)
	s.logger.WarnContext(ctx, "plan draft fell back to template", slog.String("error", err.Error()))
	return templateSteps(topic)
}

func (s *Service) logChargeFailure(ctx context.Context, userID string, cost int, err error) {
	s.logger.ErrorContext(ctx, "plan generation failed after charge",
		slog.String("userId", userID),
		slog.Int("charged", cost),
		slog.String("error", err.Error()),
	)
}

func parseSteps(text string) []Step {
	var steps []Step
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeftFunc(line, func(r rune) bool {
			return unicode.IsDigit(r) || r == '.' || r == ')' || r == '-' || r == '*' || unicode.IsSpace(r)
		})
		line = strings.Trim(line, "*")
		if line == "" {
			continue
		}

		step := Step{Title: line}
		if title, desc, ok := strings.Cut(line, ":"); ok && strings.TrimSpace(title) != "" {
			step.Title = strings.Trim(strings.TrimSpace(title), "*")
			step.Description = strings.TrimSpace(desc)
		}
		steps = append(steps, step)
		if len(steps) == maxSteps {
			break
		}
	}
	return steps
}

func templateSteps(topic string) []Step {
	return []Step{
		{Title: "Get oriented", Description: fmt.Sprintf("Skim an overview of %s and list what you want to be able to do.", topic)},
		{Title: "Learn the core concepts", Description: fmt.Sprintf("Study the fundamental ideas and vocabulary of %s.", topic)},
		{Title: "Work through examples", Description: "Follow guided examples and reproduce them on your own."},
		{Title: "Build something small", Description: fmt.Sprintf("Apply %s in a small project or set of exercises.", topic)},
		{Title: "Review and test yourself", Description: "Summarise what you learned and quiz yourself on the weak spots."},
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	if runes := []rune(line); len(runes) > 280 {
		line = string(runes[:280])
	}
	return strings.TrimSpace(line)
}
