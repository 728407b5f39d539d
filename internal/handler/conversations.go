package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/capitalize-ai/assistant-evaluator/internal/middleware"
	"github.com/capitalize-ai/assistant-evaluator/internal/model"
	"github.com/capitalize-ai/assistant-evaluator/internal/service"
	"github.com/capitalize-ai/assistant-evaluator/pkg/logger"
)

// ConversationHandler handles conversation review endpoints.
type ConversationHandler struct {
	service *service.AnnotationService
	logger  *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(svc *service.AnnotationService, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: svc,
		logger:  log,
	}
}

// List handles GET /api/v1/conversations
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	convs := h.service.List(parseLimit(r))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"conversations": convs,
		"count":         len(convs),
	})
}

// Stats handles GET /api/v1/conversations/stats
func (h *ConversationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Stats(parseLimit(r)))
}

// Export handles GET /api/v1/conversations/export
func (h *ConversationHandler) Export(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="annotations.csv"`)
	if err := h.service.Export(w, parseLimit(r)); err != nil {
		// Headers are already sent; the body is truncated.
		h.logger.Error("failed to export annotations", zap.Error(err))
	}
}

// Get handles GET /api/v1/conversations/{id}
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := conversationID(w, r)
	if !ok {
		return
	}

	conv, err := h.service.Get(id)
	if err != nil {
		writeDomainError(w, err, "failed to get conversation")
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

// GetAnnotation handles GET /api/v1/conversations/{id}/annotation
func (h *ConversationHandler) GetAnnotation(w http.ResponseWriter, r *http.Request) {
	id, ok := conversationID(w, r)
	if !ok {
		return
	}

	conv, err := h.service.Get(id)
	if err != nil {
		writeDomainError(w, err, "failed to get annotation")
		return
	}
	writeJSON(w, http.StatusOK, conv.Annotation)
}

// UpdateAnnotation handles PUT /api/v1/conversations/{id}/annotation
func (h *ConversationHandler) UpdateAnnotation(w http.ResponseWriter, r *http.Request) {
	id, ok := conversationID(w, r)
	if !ok {
		return
	}

	var req model.AnnotationUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.logger.Warn("annotation update rejected", zap.Error(err), zap.String("conversation_id", id))
		writeDomainError(w, err, "failed to update annotation")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Score handles GET /api/v1/conversations/{id}/score
func (h *ConversationHandler) Score(w http.ResponseWriter, r *http.Request) {
	id, ok := conversationID(w, r)
	if !ok {
		return
	}

	score, err := h.service.Score(id)
	if err != nil {
		writeDomainError(w, err, "failed to score conversation")
		return
	}
	writeJSON(w, http.StatusOK, score)
}

// ToggleCriterion handles POST /api/v1/conversations/{id}/criteria/{criterionId}/toggle
func (h *ConversationHandler) ToggleCriterion(w http.ResponseWriter, r *http.Request) {
	id, ok := conversationID(w, r)
	if !ok {
		return
	}
	criterionID := chi.URLParam(r, "criterionId")
	if err := middleware.ValidateID(criterionID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	a, err := h.service.ToggleCriterion(r.Context(), id, criterionID)
	if err != nil {
		writeDomainError(w, err, "failed to toggle criterion")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// PassCategory handles POST /api/v1/conversations/{id}/categories/{categoryId}/pass
func (h *ConversationHandler) PassCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := conversationID(w, r)
	if !ok {
		return
	}
	categoryID := chi.URLParam(r, "categoryId")
	if err := middleware.ValidateID(categoryID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	a, err := h.service.PassCategory(r.Context(), id, categoryID)
	if err != nil {
		writeDomainError(w, err, "failed to pass category")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Rubric handles GET /api/v1/rubric
func (h *ConversationHandler) Rubric(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"categories": h.service.Categories(),
	})
}

// conversationID validates the {id} route parameter.
func conversationID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return id, true
}
