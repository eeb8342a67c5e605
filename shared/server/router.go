package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Version is stamped at build time with -ldflags.
var Version = "v0.1.0"

// HealthResponse describes the payload returned by /healthz.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Version   string `json:"version"`
	Datastore string `json:"datastore,omitempty"`
}

// Options tunes the default middleware stack.
type Options struct {
	Datastore      string
	RequestTimeout time.Duration
}

// NewRouter returns a chi router pre-configured with default middleware and a health endpoint.
func NewRouter(service string, opts Options, register func(r chi.Router)) *chi.Mux {
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Service: service, Version: Version, Datastore: opts.Datastore})
	})

	if register != nil {
		register(r)
	}

	return r
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
