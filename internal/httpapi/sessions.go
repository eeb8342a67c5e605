package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/focusnest/planner-service/internal/learning"
	sharederrors "github.com/focusnest/planner-service/shared/errors"
)

type startSessionRequest struct {
	Source string `json:"source"`
	PlanID string `json:"planId"`
	TodoID string `json:"todoId"`
}

func (h *handler) startSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, sharederrors.CodeBadRequest, err.Error())
		return
	}
	userID := accountFrom(r).ID
	input := learning.StartInput{
		UserID: userID,
		Source: learning.Source(strings.ToLower(strings.TrimSpace(req.Source))),
		PlanID: strings.TrimSpace(req.PlanID),
		TodoID: strings.TrimSpace(req.TodoID),
	}
	if err := input.Validate(); err != nil {
		writeError(w, r, sharederrors.CodeBadRequest, invalidInputMessage(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	if input.PlanID != "" {
		if _, err := h.svc.Plans.Get(ctx, userID, input.PlanID); err != nil {
			h.respondServiceError(w, r, err)
			return
		}
	}
	if input.TodoID != "" {
		if _, err := h.svc.Todos.Get(ctx, userID, input.TodoID); err != nil {
			h.respondServiceError(w, r, err)
			return
		}
	}

	sess, err := h.svc.Learning.Start(ctx, input)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (h *handler) endSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	sess, err := h.svc.Learning.End(ctx, accountFrom(r).ID, chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *handler) getSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	sess, err := h.svc.Learning.Get(ctx, accountFrom(r).ID, chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *handler) listSessions(w http.ResponseWriter, r *http.Request) {
	limit := clampInt(parsePositiveInt(r.URL.Query().Get("limit"), defaultPageSize), 1, maxPageSize)

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	list, err := h.svc.Learning.List(ctx, accountFrom(r).ID, limit)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": list})
}
