package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/capitalize-ai/assistant-evaluator/internal/middleware"
	"github.com/capitalize-ai/assistant-evaluator/internal/service"
	"github.com/capitalize-ai/assistant-evaluator/pkg/logger"
)

// PromptHandler handles prompt version endpoints.
type PromptHandler struct {
	service *service.PromptService
	logger  *logger.Logger
}

// NewPromptHandler creates a new prompt handler.
func NewPromptHandler(svc *service.PromptService, log *logger.Logger) *PromptHandler {
	return &PromptHandler{
		service: svc,
		logger:  log,
	}
}

// List handles GET /api/v1/prompts
func (h *PromptHandler) List(w http.ResponseWriter, r *http.Request) {
	versions, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list prompts", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list prompts")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"prompts": versions,
	})
}

// Create handles POST /api/v1/prompts
func (h *PromptHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreatePromptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateContent(req.Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pv, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("failed to create prompt", zap.Error(err))
		writeDomainError(w, err, "failed to create prompt")
		return
	}
	writeJSON(w, http.StatusCreated, pv)
}

// Current handles GET /api/v1/prompts/current
func (h *PromptHandler) Current(w http.ResponseWriter, r *http.Request) {
	pv, err := h.service.Current(r.Context())
	if err != nil {
		writeDomainError(w, err, "failed to load current prompt")
		return
	}
	writeJSON(w, http.StatusOK, pv)
}

// SetCurrent handles PUT /api/v1/prompts/current
func (h *PromptHandler) SetCurrent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateID(req.ID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	pv, err := h.service.SetCurrent(r.Context(), req.ID)
	if err != nil {
		h.logger.Error("failed to set current prompt", zap.Error(err), zap.String("prompt_id", req.ID))
		writeDomainError(w, err, "failed to set current prompt")
		return
	}
	writeJSON(w, http.StatusOK, pv)
}
