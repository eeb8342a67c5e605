package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/focusnest/planner-service/internal/chat"
	"github.com/focusnest/planner-service/internal/credits"
	"github.com/focusnest/planner-service/internal/files"
	"github.com/focusnest/planner-service/internal/learning"
	"github.com/focusnest/planner-service/internal/plans"
	"github.com/focusnest/planner-service/internal/stats"
	"github.com/focusnest/planner-service/internal/storage"
	"github.com/focusnest/planner-service/internal/todos"
	"github.com/focusnest/planner-service/internal/user"
	sharederrors "github.com/focusnest/planner-service/shared/errors"
	"github.com/focusnest/planner-service/shared/logging"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, code, message string) {
	writeJSON(w, sharederrors.ToStatusCode(code), sharederrors.ErrorResponse{
		Code:      code,
		Message:   message,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// respondServiceError maps domain errors onto the error envelope.
func (h *handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, credits.ErrInsufficientCredits):
		writeError(w, r, sharederrors.CodeInsufficientCredits, "not enough credits for this action")
	case errors.Is(err, learning.ErrAlreadyEnded):
		writeError(w, r, sharederrors.CodeAlreadyEnded, "session already ended")
	case errors.Is(err, learning.ErrUnauthorized),
		errors.Is(err, chat.ErrForbidden),
		errors.Is(err, plans.ErrForbidden),
		errors.Is(err, todos.ErrForbidden),
		errors.Is(err, files.ErrForbidden):
		writeError(w, r, sharederrors.CodeForbidden, "resource belongs to another user")
	case errors.Is(err, learning.ErrNotFound):
		writeError(w, r, sharederrors.CodeNotFound, "session not found")
	case errors.Is(err, chat.ErrNotFound):
		writeError(w, r, sharederrors.CodeNotFound, "conversation not found")
	case errors.Is(err, plans.ErrNotFound):
		writeError(w, r, sharederrors.CodeNotFound, "plan not found")
	case errors.Is(err, plans.ErrPlaylistNotFound):
		writeError(w, r, sharederrors.CodeNotFound, "playlist not found")
	case errors.Is(err, todos.ErrNotFound):
		writeError(w, r, sharederrors.CodeNotFound, "todo not found")
	case errors.Is(err, files.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		writeError(w, r, sharederrors.CodeNotFound, "file not found")
	case errors.Is(err, user.ErrNotFound):
		writeError(w, r, sharederrors.CodeNotFound, "user not found")
	case errors.Is(err, stats.ErrNotFound):
		writeError(w, r, sharederrors.CodeNotFound, "stats not found")
	case errors.Is(err, learning.ErrConflict), errors.Is(err, stats.ErrConflict):
		writeError(w, r, sharederrors.CodeConflict, "resource already exists")
	case errors.Is(err, credits.ErrInvalidAmount):
		writeError(w, r, sharederrors.CodeBadRequest, err.Error())
	case isInvalidInput(err):
		writeError(w, r, sharederrors.CodeBadRequest, invalidInputMessage(err))
	default:
		h.logRequestError(r, "request failed", err)
		writeError(w, r, sharederrors.CodeInternal, "internal server error")
	}
}

func isInvalidInput(err error) bool {
	for _, target := range []error{
		learning.ErrInvalidInput,
		stats.ErrInvalidInput,
		chat.ErrInvalidInput,
		plans.ErrInvalidInput,
		todos.ErrInvalidInput,
		files.ErrInvalidInput,
		user.ErrInvalidInput,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func invalidInputMessage(err error) string {
	msg := strings.TrimSpace(err.Error())
	if i := strings.Index(msg, ":"); i >= 0 {
		msg = strings.TrimSpace(msg[i+1:])
	}
	return msg
}

func (h *handler) logRequestError(r *http.Request, msg string, err error) {
	logger := logging.WithRequestID(r.Context(), h.logger, middleware.GetReqID(r.Context()))
	logger.ErrorContext(r.Context(), msg,
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func parsePositiveInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
