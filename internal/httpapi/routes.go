// Package httpapi exposes the planner services over JSON HTTP.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/focusnest/planner-service/internal/badges"
	"github.com/focusnest/planner-service/internal/chat"
	"github.com/focusnest/planner-service/internal/credits"
	"github.com/focusnest/planner-service/internal/files"
	"github.com/focusnest/planner-service/internal/learning"
	"github.com/focusnest/planner-service/internal/plans"
	"github.com/focusnest/planner-service/internal/stats"
	"github.com/focusnest/planner-service/internal/todos"
	"github.com/focusnest/planner-service/internal/user"
	sharedauth "github.com/focusnest/planner-service/shared/auth"
	"github.com/focusnest/planner-service/shared/logging"
)

const (
	defaultPageSize   = 20
	maxPageSize       = 100
	serviceTimeout    = 10 * time.Second
	assistantTimeout  = 55 * time.Second
	maxJSONBodyBytes  = 1 << 20
	multipartMemBytes = 1 << 20
)

// Services bundles the domain services the API calls.
type Services struct {
	Users    *user.Service
	Ledger   *credits.Ledger
	Stats    *stats.Service
	Learning *learning.Service
	Badges   *badges.Evaluator
	Chat     *chat.Service
	Plans    *plans.Service
	Todos    *todos.Service
	Files    *files.Service
}

// Options carries the cross-cutting collaborators of the API.
type Options struct {
	// IsAdmin gates the credit administration routes. Nil denies everyone.
	IsAdmin func(email string) bool
	// Limiter throttles assistant-backed routes. Nil disables throttling.
	Limiter *RateLimiter
	Logger  *slog.Logger
}

type handler struct {
	svc     Services
	isAdmin func(string) bool
	logger  *slog.Logger
}

// RegisterRoutes mounts the /v1 API behind bearer authentication.
func RegisterRoutes(r chi.Router, verifier sharedauth.Verifier, svc Services, opts Options) {
	h := &handler{svc: svc, isAdmin: opts.IsAdmin, logger: opts.Logger}
	if h.logger == nil {
		h.logger = logging.Discard()
	}
	if h.isAdmin == nil {
		h.isAdmin = func(string) bool { return false }
	}
	throttle := func(next http.Handler) http.Handler { return next }
	if opts.Limiter != nil {
		throttle = opts.Limiter.Middleware
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(sharedauth.Middleware(verifier))
		r.Use(h.accountMiddleware)

		r.Get("/me", h.getProfile)
		r.Get("/credits", h.getBalance)
		r.Get("/stats", h.getStats)
		r.Post("/stats/activity", h.recordActivity)
		r.Get("/badges", h.listBadges)

		r.Route("/admin/credits", func(r chi.Router) {
			r.Use(h.adminOnly)
			r.Post("/grant", h.grantCredits)
			r.Post("/deduct", h.deductCredits)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", h.listSessions)
			r.Post("/", h.startSession)
			r.Get("/{id}", h.getSession)
			r.Post("/{id}/end", h.endSession)
		})

		r.Route("/chat", func(r chi.Router) {
			r.With(throttle).Post("/", h.ask)
			r.Post("/estimate", h.estimateChat)
			r.Get("/conversations", h.listConversations)
			r.Get("/conversations/{id}/messages", h.listMessages)
		})

		r.Route("/plans", func(r chi.Router) {
			r.Get("/", h.listPlans)
			r.With(throttle).Post("/", h.generatePlan)
			r.With(throttle).Post("/youtube", h.generatePlaylistPlan)
			r.Get("/youtube/cost", h.playlistCost)
			r.Get("/{id}", h.getPlan)
			r.Delete("/{id}", h.deletePlan)
		})

		r.Route("/todos", func(r chi.Router) {
			r.Get("/", h.listTodos)
			r.Post("/", h.createTodo)
			r.Post("/shift", h.shiftTodos)
			r.Patch("/{id}", h.updateTodo)
			r.Delete("/{id}", h.deleteTodo)
		})

		r.Route("/files", func(r chi.Router) {
			r.Get("/", h.listFiles)
			r.Post("/", h.uploadFile)
			r.Get("/{id}/url", h.fileURL)
			r.Delete("/{id}", h.deleteFile)
		})
	})
}
