package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/capitalize-ai/assistant-evaluator/internal/service"
	"github.com/capitalize-ai/assistant-evaluator/pkg/logger"
)

// SnippetHandler handles snippet open-coding endpoints.
type SnippetHandler struct {
	service *service.SnippetService
	logger  *logger.Logger
}

// NewSnippetHandler creates a new snippet handler.
func NewSnippetHandler(svc *service.SnippetService, log *logger.Logger) *SnippetHandler {
	return &SnippetHandler{
		service: svc,
		logger:  log,
	}
}

// AnnotateSnippetRequest is the body of PUT /api/v1/snippets/{id}/annotation.
type AnnotateSnippetRequest struct {
	Annotation *string `json:"annotation"`
}

// List handles GET /api/v1/snippets
func (h *SnippetHandler) List(w http.ResponseWriter, r *http.Request) {
	snippets := h.service.List(parseLimit(r))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"snippets": snippets,
		"count":    len(snippets),
	})
}

// Stats handles GET /api/v1/snippets/stats
func (h *SnippetHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Stats(parseLimit(r)))
}

// Export handles GET /api/v1/snippets/export
func (h *SnippetHandler) Export(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="snippet_annotations.csv"`)
	if err := h.service.Export(w, parseLimit(r)); err != nil {
		h.logger.Error("failed to export snippet notes", zap.Error(err))
	}
}

// Get handles GET /api/v1/snippets/{id}
func (h *SnippetHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := conversationID(w, r)
	if !ok {
		return
	}

	sn, err := h.service.Get(id)
	if err != nil {
		writeDomainError(w, err, "failed to get snippet")
		return
	}
	writeJSON(w, http.StatusOK, sn)
}

// Annotate handles PUT /api/v1/snippets/{id}/annotation
func (h *SnippetHandler) Annotate(w http.ResponseWriter, r *http.Request) {
	id, ok := conversationID(w, r)
	if !ok {
		return
	}

	var req AnnotateSnippetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Annotation == nil {
		writeError(w, http.StatusBadRequest, "annotation is required")
		return
	}

	note, err := h.service.Annotate(r.Context(), id, *req.Annotation)
	if err != nil {
		writeDomainError(w, err, "failed to save snippet note")
		return
	}
	writeJSON(w, http.StatusOK, note)
}
