package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/focusnest/planner-service/internal/chat"
	sharederrors "github.com/focusnest/planner-service/shared/errors"
)

type askRequest struct {
	ConversationID string   `json:"conversationId"`
	Question       string   `json:"question"`
	AttachmentIDs  []string `json:"attachmentIds"`
}

func (h *handler) ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, sharederrors.CodeBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), assistantTimeout)
	defer cancel()

	res, err := h.svc.Chat.Ask(ctx, chat.AskInput{
		UserID:         accountFrom(r).ID,
		ConversationID: req.ConversationID,
		Question:       req.Question,
		AttachmentIDs:  req.AttachmentIDs,
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) estimateChat(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, sharederrors.CodeBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	cost, err := h.svc.Chat.Estimate(ctx, accountFrom(r).ID, req.ConversationID, req.Question, len(req.AttachmentIDs))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"credits": cost})
}

func (h *handler) listConversations(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	list, err := h.svc.Chat.ListConversations(ctx, accountFrom(r).ID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": list})
}

func (h *handler) listMessages(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	list, err := h.svc.Chat.Messages(ctx, accountFrom(r).ID, chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": list})
}
