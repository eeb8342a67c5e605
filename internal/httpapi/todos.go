package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/focusnest/planner-service/internal/todos"
	sharederrors "github.com/focusnest/planner-service/shared/errors"
)

type createTodoRequest struct {
	PlanID  string `json:"planId"`
	Title   string `json:"title"`
	DueDate string `json:"dueDate"`
}

type updateTodoRequest struct {
	Completed *bool `json:"completed"`
}

type shiftTodosRequest struct {
	PlanID string `json:"planId"`
	Days   int    `json:"days"`
}

func (h *handler) createTodo(w http.ResponseWriter, r *http.Request) {
	var req createTodoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, sharederrors.CodeBadRequest, err.Error())
		return
	}
	userID := accountFrom(r).ID
	planID := strings.TrimSpace(req.PlanID)

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	if planID != "" {
		if _, err := h.svc.Plans.Get(ctx, userID, planID); err != nil {
			h.respondServiceError(w, r, err)
			return
		}
	}

	todo, err := h.svc.Todos.Create(ctx, todos.CreateInput{
		UserID:  userID,
		PlanID:  planID,
		Title:   req.Title,
		DueDate: strings.TrimSpace(req.DueDate),
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, todo)
}

func (h *handler) listTodos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := todos.Filter{
		PlanID:      strings.TrimSpace(q.Get("planId")),
		PendingOnly: q.Get("pending") == "true",
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	list, err := h.svc.Todos.List(ctx, accountFrom(r).ID, filter)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": list})
}

func (h *handler) updateTodo(w http.ResponseWriter, r *http.Request) {
	var req updateTodoRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, sharederrors.CodeBadRequest, err.Error())
		return
	}
	if req.Completed == nil {
		writeError(w, r, sharederrors.CodeBadRequest, "completed is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	todo, err := h.svc.Todos.SetCompleted(ctx, accountFrom(r).ID, chi.URLParam(r, "id"), *req.Completed)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, todo)
}

func (h *handler) deleteTodo(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	if err := h.svc.Todos.Delete(ctx, accountFrom(r).ID, chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) shiftTodos(w http.ResponseWriter, r *http.Request) {
	var req shiftTodosRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, sharederrors.CodeBadRequest, err.Error())
		return
	}
	userID := accountFrom(r).ID
	planID := strings.TrimSpace(req.PlanID)

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	if planID != "" {
		if _, err := h.svc.Plans.Get(ctx, userID, planID); err != nil {
			h.respondServiceError(w, r, err)
			return
		}
	}

	res, err := h.svc.Todos.ShiftDueDates(ctx, userID, planID, req.Days)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
