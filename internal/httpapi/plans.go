package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/focusnest/planner-service/internal/credits"
	sharederrors "github.com/focusnest/planner-service/shared/errors"
)

type generatePlanRequest struct {
	Topic string `json:"topic"`
}

type playlistPlanRequest struct {
	Playlist string `json:"playlist"`
}

func (h *handler) generatePlan(w http.ResponseWriter, r *http.Request) {
	var req generatePlanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, sharederrors.CodeBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), assistantTimeout)
	defer cancel()

	res, err := h.svc.Plans.Generate(ctx, accountFrom(r).ID, req.Topic)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *handler) generatePlaylistPlan(w http.ResponseWriter, r *http.Request) {
	var req playlistPlanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, sharederrors.CodeBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), assistantTimeout)
	defer cancel()

	res, err := h.svc.Plans.GenerateFromPlaylist(ctx, accountFrom(r).ID, req.Playlist)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *handler) playlistCost(w http.ResponseWriter, r *http.Request) {
	videos, err := strconv.Atoi(r.URL.Query().Get("videos"))
	if err != nil {
		writeError(w, r, sharederrors.CodeBadRequest, "videos must be an integer")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"credits": credits.EstimateYouTubePlaylistCost(videos)})
}

func (h *handler) listPlans(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	list, err := h.svc.Plans.List(ctx, accountFrom(r).ID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": list})
}

func (h *handler) getPlan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	plan, err := h.svc.Plans.Get(ctx, accountFrom(r).ID, chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (h *handler) deletePlan(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	if err := h.svc.Plans.Delete(ctx, accountFrom(r).ID, chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
