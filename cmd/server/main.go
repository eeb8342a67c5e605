package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/focusnest/planner-service/internal/app"
	"github.com/focusnest/planner-service/internal/assistant"
	"github.com/focusnest/planner-service/internal/chat"
	"github.com/focusnest/planner-service/internal/config"
	"github.com/focusnest/planner-service/internal/database"
	"github.com/focusnest/planner-service/internal/eventsink"
	"github.com/focusnest/planner-service/internal/httpapi"
	"github.com/focusnest/planner-service/internal/metrics"
	"github.com/focusnest/planner-service/internal/plans"
	"github.com/focusnest/planner-service/internal/storage"
	"github.com/focusnest/planner-service/internal/support"
	sharedauth "github.com/focusnest/planner-service/shared/auth"
	"github.com/focusnest/planner-service/shared/logging"
	sharedserver "github.com/focusnest/planner-service/shared/server"
)

const serviceName = "planner-service"

func main() {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("config error: %w", err))
	}

	logger := logging.NewLogger(serviceName)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewCollector(registry)

	backend, err := newBackend(ctx, cfg, logger)
	if err != nil {
		panic(fmt.Errorf("datastore init error: %w", err))
	}
	defer backend.cleanup()

	dispatcher, err := eventsink.NewDispatcher(backend.sink, cfg.Events.BufferSize, recorder, logger)
	if err != nil {
		panic(fmt.Errorf("event dispatcher init error: %w", err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := dispatcher.Close(closeCtx); err != nil {
			logger.Warn("event dispatcher did not drain", slog.String("error", err.Error()))
		}
	}()

	blobs, closeBlobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		panic(fmt.Errorf("storage init error: %w", err))
	}
	defer closeBlobs()

	responder := newAssistant(ctx, cfg, logger)
	defer responder.Close()

	deps := app.Deps{
		Clock:     support.NewSystemClock(),
		IDs:       support.NewUUIDGenerator(),
		Publisher: dispatcher,
		Recorder:  recorder,
		Logger:    logger,
		Blobs:     blobs,
		Assistant: responder,
		ChatOptions: chat.Options{
			Pricing:       cfg.Chat.Pricing,
			ContextWindow: cfg.Chat.ContextMessages,
		},
	}
	if cfg.YouTube.APIKey != "" {
		source, err := plans.NewYouTubeSource(ctx, cfg.YouTube.APIKey)
		if err != nil {
			panic(fmt.Errorf("youtube init error: %w", err))
		}
		deps.Playlists = source
	}

	services, err := app.Build(backend.repos, deps)
	if err != nil {
		panic(fmt.Errorf("service init error: %w", err))
	}

	verifier, err := sharedauth.NewVerifier(sharedauth.Config{
		Mode:     cfg.Auth.Mode,
		JWKSURL:  cfg.Auth.JWKSURL,
		Audience: cfg.Auth.Audience,
		Issuer:   cfg.Auth.Issuer,
	})
	if err != nil {
		panic(fmt.Errorf("auth verifier error: %w", err))
	}

	limiter := httpapi.NewRateLimiter(httpapi.RateLimiterConfig{
		PerMinute: cfg.RateLimit.PerMinute,
		Burst:     cfg.RateLimit.Burst,
	}, logger)
	defer limiter.Stop()

	router := sharedserver.NewRouter(serviceName, sharedserver.Options{
		Datastore:      string(cfg.DataStore),
		RequestTimeout: cfg.RequestTimeout,
	}, func(r chi.Router) {
		r.Handle("/metrics", metrics.Handler(registry))
		httpapi.RegisterRoutes(r, verifier, services, httpapi.Options{
			IsAdmin: cfg.IsAdmin,
			Limiter: limiter,
			Logger:  logger,
		})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if err := sharedserver.Run(ctx, srv, logger); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
}

type backend struct {
	repos   app.Repositories
	sink    eventsink.Sink
	cleanup func()
}

func newBackend(ctx context.Context, cfg config.Config, logger *slog.Logger) (backend, error) {
	switch cfg.DataStore {
	case config.DataStoreFirestore:
		client, err := app.NewFirestoreClient(ctx, cfg.GCPProjectID, cfg.Firestore.DatabaseID, cfg.Firestore.EmulatorHost)
		if err != nil {
			return backend{}, err
		}
		return backend{
			repos:   app.FirestoreRepositories(client),
			sink:    eventsink.NewFirestoreSink(client),
			cleanup: func() { _ = client.Close() },
		}, nil
	case config.DataStorePostgres:
		db, err := database.Open(ctx, cfg.DatabaseDSN, logger)
		if err != nil {
			return backend{}, err
		}
		return backend{
			repos: app.GormRepositories(db),
			sink:  eventsink.NewGormSink(db),
			cleanup: func() {
				if sqlDB, err := db.DB(); err == nil {
					_ = sqlDB.Close()
				}
			},
		}, nil
	default:
		return backend{
			repos:   app.MemoryRepositories(),
			sink:    eventsink.LogSink{Logger: logger},
			cleanup: func() {},
		}, nil
	}
}

func newBlobStore(ctx context.Context, cfg config.Config) (storage.BlobStore, func(), error) {
	if cfg.Storage.Backend != config.StorageGCS {
		return storage.NewMemoryStore(), func() {}, nil
	}
	store, err := storage.NewGCSStore(ctx, cfg.Storage.Bucket)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}

func newAssistant(ctx context.Context, cfg config.Config, logger *slog.Logger) assistant.Assistant {
	if cfg.Assistant.APIKey == "" {
		logger.Warn("no model API key configured; assistant replies use the template fallback")
		return assistant.NewTemplateAssistant()
	}
	gemini, err := assistant.NewGeminiAssistant(ctx, assistant.Config{
		APIKey:          cfg.Assistant.APIKey,
		Model:           cfg.Assistant.Model,
		MaxOutputTokens: cfg.Assistant.MaxOutputTokens,
	})
	if err != nil {
		logger.Warn("model client unavailable; using template fallback", slog.String("error", err.Error()))
		return assistant.NewTemplateAssistant()
	}
	return gemini
}
