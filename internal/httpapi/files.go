package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/focusnest/planner-service/internal/files"
	sharederrors "github.com/focusnest/planner-service/shared/errors"
)

func (h *handler) uploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, files.MaxUploadBytes+multipartMemBytes)
	if err := r.ParseMultipartForm(multipartMemBytes); err != nil {
		writeError(w, r, sharederrors.CodeBadRequest, "invalid multipart form or file too large")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, sharederrors.CodeBadRequest, "file field is required")
		return
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	f, err := h.svc.Files.Upload(ctx, accountFrom(r).ID, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (h *handler) listFiles(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	list, err := h.svc.Files.List(ctx, accountFrom(r).ID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": list})
}

func (h *handler) fileURL(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	url, err := h.svc.Files.URL(ctx, accountFrom(r).ID, chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *handler) deleteFile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	if err := h.svc.Files.Delete(ctx, accountFrom(r).ID, chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
