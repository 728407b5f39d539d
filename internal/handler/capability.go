package handler

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/capitalize-ai/assistant-evaluator/internal/evaluator"
	"github.com/capitalize-ai/assistant-evaluator/internal/generator"
	"github.com/capitalize-ai/assistant-evaluator/internal/llm"
	"github.com/capitalize-ai/assistant-evaluator/internal/middleware"
	"github.com/capitalize-ai/assistant-evaluator/internal/model"
	"github.com/capitalize-ai/assistant-evaluator/internal/orchestrator"
	"github.com/capitalize-ai/assistant-evaluator/pkg/logger"
)

const maxGenerateQuestions = 100

// CapabilityConfig wires a CapabilityHandler.
type CapabilityConfig struct {
	Registry     *llm.Registry
	Criteria     []model.Criterion
	Prompts      orchestrator.PromptSource
	NewGenerator func(model, systemPrompt string) *generator.Generator
	NewEvaluator func(model string) *evaluator.Evaluator

	DefaultGeneratorModel string
	DefaultEvaluatorModel string
}

// CapabilityHandler exposes answer generation and judging outside a run.
type CapabilityHandler struct {
	cfg    CapabilityConfig
	logger *logger.Logger
}

// NewCapabilityHandler creates a new capability handler.
func NewCapabilityHandler(cfg CapabilityConfig, log *logger.Logger) *CapabilityHandler {
	return &CapabilityHandler{
		cfg:    cfg,
		logger: log,
	}
}

// GenerateRequest is the body of POST /api/v1/generate.
type GenerateRequest struct {
	Questions []string `json:"questions"`
	Model     string   `json:"model"`
}

// EvaluateRequest is the body of POST /api/v1/evaluate.
type EvaluateRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Model    string `json:"model"`
}

// EvaluateResponse is the judge's verdict set for one answer.
type EvaluateResponse struct {
	Evaluations []model.CriterionEvaluation `json:"evaluations"`
	Score       float64                     `json:"score"`
	Backend     llm.Backend                 `json:"backend"`
}

// Generate handles POST /api/v1/generate
func (h *CapabilityHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Questions) == 0 {
		writeError(w, http.StatusBadRequest, "questions cannot be empty")
		return
	}
	if len(req.Questions) > maxGenerateQuestions {
		writeError(w, http.StatusBadRequest, "too many questions")
		return
	}
	for _, q := range req.Questions {
		if err := middleware.ValidateContent(q); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if err := middleware.ValidateModel(req.Model); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	modelID := req.Model
	if modelID == "" {
		modelID = h.cfg.DefaultGeneratorModel
	}

	var system string
	if h.cfg.Prompts != nil {
		pv, err := h.cfg.Prompts.Current(r.Context())
		if err != nil {
			h.logger.Error("failed to load current prompt", zap.Error(err))
			writeDomainError(w, err, "failed to load current prompt")
			return
		}
		system = pv.Content
	}

	gen := h.cfg.NewGenerator(modelID, system)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"qaPairs": gen.GenerateAll(r.Context(), req.Questions),
		"backend": gen.Backend(),
	})
}

// Evaluate handles POST /api/v1/evaluate
func (h *CapabilityHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateContent(req.Question); err != nil {
		writeError(w, http.StatusBadRequest, "question: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Answer) == "" {
		writeError(w, http.StatusBadRequest, "answer cannot be empty")
		return
	}
	if err := middleware.ValidateModel(req.Model); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	modelID := req.Model
	if modelID == "" {
		modelID = h.cfg.DefaultEvaluatorModel
	}

	eval := h.cfg.NewEvaluator(modelID)
	evals, score := eval.EvaluateAll(r.Context(), req.Question, req.Answer, h.cfg.Criteria)
	writeJSON(w, http.StatusOK, &EvaluateResponse{
		Evaluations: evals,
		Score:       score,
		Backend:     eval.Backend(),
	})
}

// Criteria handles GET /api/v1/criteria
func (h *CapabilityHandler) Criteria(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"criteria": h.cfg.Criteria,
	})
}

// Models handles GET /api/v1/models
func (h *CapabilityHandler) Models(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"models": h.cfg.Registry.Models(),
		"defaults": map[string]string{
			"generator": h.cfg.DefaultGeneratorModel,
			"evaluator": h.cfg.DefaultEvaluatorModel,
		},
	})
}
