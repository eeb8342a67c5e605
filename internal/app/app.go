// Package app assembles the planner services over one persistence backend.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"cloud.google.com/go/firestore"
	"gorm.io/gorm"

	"github.com/focusnest/planner-service/internal/assistant"
	"github.com/focusnest/planner-service/internal/badges"
	"github.com/focusnest/planner-service/internal/chat"
	"github.com/focusnest/planner-service/internal/credits"
	"github.com/focusnest/planner-service/internal/files"
	"github.com/focusnest/planner-service/internal/httpapi"
	"github.com/focusnest/planner-service/internal/learning"
	"github.com/focusnest/planner-service/internal/metrics"
	"github.com/focusnest/planner-service/internal/plans"
	"github.com/focusnest/planner-service/internal/stats"
	"github.com/focusnest/planner-service/internal/storage"
	"github.com/focusnest/planner-service/internal/support"
	"github.com/focusnest/planner-service/internal/todos"
	"github.com/focusnest/planner-service/internal/user"
	"github.com/focusnest/planner-service/shared/events"
	"github.com/focusnest/planner-service/shared/logging"
)

// Repositories holds one repository per domain package.
type Repositories struct {
	Users    user.Repository
	Stats    stats.Repository
	Sessions learning.Repository
	Badges   badges.Repository
	Files    files.Repository
	Chat     chat.Repository
	Plans    plans.Repository
	Todos    todos.Repository
}

// MemoryRepositories keeps all state in process.
func MemoryRepositories() Repositories {
	return Repositories{
		Users:    user.NewMemoryRepository(),
		Stats:    stats.NewMemoryRepository(),
		Sessions: learning.NewMemoryRepository(),
		Badges:   badges.NewMemoryRepository(),
		Files:    files.NewMemoryRepository(),
		Chat:     chat.NewMemoryRepository(),
		Plans:    plans.NewMemoryRepository(),
		Todos:    todos.NewMemoryRepository(),
	}
}

// FirestoreRepositories stores documents in Firestore.
func FirestoreRepositories(client *firestore.Client) Repositories {
	return Repositories{
		Users:    user.NewFirestoreRepository(client),
		Stats:    stats.NewFirestoreRepository(client),
		Sessions: learning.NewFirestoreRepository(client),
		Badges:   badges.NewFirestoreRepository(client),
		Files:    files.NewFirestoreRepository(client),
		Chat:     chat.NewFirestoreRepository(client),
		Plans:    plans.NewFirestoreRepository(client),
		Todos:    todos.NewFirestoreRepository(client),
	}
}

// GormRepositories stores rows through gorm.
func GormRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:    user.NewGormRepository(db),
		Stats:    stats.NewGormRepository(db),
		Sessions: learning.NewGormRepository(db),
		Badges:   badges.NewGormRepository(db),
		Files:    files.NewGormRepository(db),
		Chat:     chat.NewGormRepository(db),
		Plans:    plans.NewGormRepository(db),
		Todos:    todos.NewGormRepository(db),
	}
}

// Deps are the collaborators shared by every service.
type Deps struct {
	Clock       support.Clock
	IDs         support.IDGenerator
	Publisher   events.Publisher
	Recorder    metrics.Recorder
	Logger      *slog.Logger
	Blobs       storage.BlobStore
	Assistant   assistant.Assistant
	Playlists   plans.PlaylistSource
	ChatOptions chat.Options
}

// Build wires the services. The badge evaluator observes stats so every stats change is evaluated.
func Build(repos Repositories, deps Deps) (httpapi.Services, error) {
	if deps.Clock == nil {
		deps.Clock = support.NewSystemClock()
	}
	if deps.IDs == nil {
		deps.IDs = support.NewUUIDGenerator()
	}
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	if deps.Blobs == nil {
		return httpapi.Services{}, errors.New("blob store is required")
	}

	evaluator, err := badges.NewEvaluator(repos.Badges, repos.Stats, badges.DefaultRules(), deps.Clock, deps.Publisher, deps.Recorder, deps.Logger)
	if err != nil {
		return httpapi.Services{}, fmt.Errorf("badges: %w", err)
	}
	statsSvc, err := stats.NewService(repos.Stats, deps.Clock, evaluator, deps.Publisher, deps.Recorder, deps.Logger)
	if err != nil {
		return httpapi.Services{}, fmt.Errorf("stats: %w", err)
	}
	users, err := user.NewService(repos.Users, statsSvc, evaluator, deps.Clock, deps.IDs, deps.Publisher, deps.Recorder, deps.Logger)
	if err != nil {
		return httpapi.Services{}, fmt.Errorf("users: %w", err)
	}
	ledger, err := credits.NewLedger(repos.Users, deps.Clock, deps.Publisher, deps.Recorder, deps.Logger)
	if err != nil {
		return httpapi.Services{}, fmt.Errorf("ledger: %w", err)
	}
	sessions, err := learning.NewService(repos.Sessions, statsSvc, deps.Clock, deps.IDs, deps.Publisher, deps.Recorder, deps.Logger)
	if err != nil {
		return httpapi.Services{}, fmt.Errorf("learning: %w", err)
	}
	fileSvc, err := files.NewService(repos.Files, deps.Blobs, deps.Clock, deps.IDs)
	if err != nil {
		return httpapi.Services{}, fmt.Errorf("files: %w", err)
	}
	chatSvc, err := chat.NewService(repos.Chat, ledger, fileSvc, deps.Assistant, deps.Clock, deps.IDs, deps.Recorder, deps.Logger, deps.ChatOptions)
	if err != nil {
		return httpapi.Services{}, fmt.Errorf("chat: %w", err)
	}
	planSvc, err := plans.NewService(repos.Plans, ledger, deps.Assistant, deps.Playlists, deps.Clock, deps.IDs, deps.Recorder, deps.Logger)
	if err != nil {
		return httpapi.Services{}, fmt.Errorf("plans: %w", err)
	}
	todoSvc, err := todos.NewService(repos.Todos, ledger, deps.Clock, deps.IDs, deps.Logger)
	if err != nil {
		return httpapi.Services{}, fmt.Errorf("todos: %w", err)
	}

	return httpapi.Services{
		Users:    users,
		Ledger:   ledger,
		Stats:    statsSvc,
		Learning: sessions,
		Badges:   evaluator,
		Chat:     chatSvc,
		Plans:    planSvc,
		Todos:    todoSvc,
		Files:    fileSvc,
	}, nil
}

// NewFirestoreClient opens a client for projectID, optionally against a named database or the emulator.
func NewFirestoreClient(ctx context.Context, projectID, databaseID, emulatorHost string) (*firestore.Client, error) {
	if emulatorHost != "" {
		if err := os.Setenv("FIRESTORE_EMULATOR_HOST", emulatorHost); err != nil {
			return nil, fmt.Errorf("set FIRESTORE_EMULATOR_HOST: %w", err)
		}
	}

	var (
		client *firestore.Client
		err    error
	)
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return client, nil
}
