package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/capitalize-ai/assistant-evaluator/internal/middleware"
	"github.com/capitalize-ai/assistant-evaluator/internal/orchestrator"
	"github.com/capitalize-ai/assistant-evaluator/internal/service"
	"github.com/capitalize-ai/assistant-evaluator/pkg/logger"
)

// RunHandler handles run control and run history endpoints.
type RunHandler struct {
	orchestrator *orchestrator.Orchestrator
	runs         *service.RunService
	logger       *logger.Logger
}

// NewRunHandler creates a new run handler.
func NewRunHandler(orch *orchestrator.Orchestrator, runs *service.RunService, log *logger.Logger) *RunHandler {
	return &RunHandler{
		orchestrator: orch,
		runs:         runs,
		logger:       log,
	}
}

// Snapshot handles GET /api/v1/run
func (h *RunHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.orchestrator.Snapshot())
}

// Generate handles POST /api/v1/run/generate
func (h *RunHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var opts orchestrator.GenerationOptions
	if err := decodeJSON(w, r, &opts); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateModel(opts.Model); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	runID, err := h.orchestrator.StartGeneration(r.Context(), opts)
	if err != nil {
		h.logger.Warn("generation not started", zap.Error(err))
		writeDomainError(w, err, "failed to start generation")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"runId": runID,
	})
}

// Evaluate handles POST /api/v1/run/evaluate
func (h *RunHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var opts orchestrator.EvaluationOptions
	if err := decodeJSON(w, r, &opts); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateModel(opts.Model); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.orchestrator.StartEvaluation(r.Context(), opts); err != nil {
		h.logger.Warn("evaluation not started", zap.Error(err))
		writeDomainError(w, err, "failed to start evaluation")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"runId": h.orchestrator.Snapshot().RunID,
	})
}

// Stop handles POST /api/v1/run/stop
func (h *RunHandler) Stop(w http.ResponseWriter, r *http.Request) {
	stopped := h.orchestrator.Stop()
	writeJSON(w, http.StatusOK, map[string]bool{
		"stopped": stopped,
	})
}

// Resume handles POST /api/v1/run/resume
func (h *RunHandler) Resume(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RunID string `json:"runId"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateID(req.RunID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.orchestrator.Resume(r.Context(), req.RunID); err != nil {
		writeDomainError(w, err, "failed to resume run")
		return
	}
	writeJSON(w, http.StatusOK, h.orchestrator.Snapshot())
}

// List handles GET /api/v1/runs
func (h *RunHandler) List(w http.ResponseWriter, r *http.Request) {
	runs, err := h.runs.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list runs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs": runs,
	})
}

// Get handles GET /api/v1/runs/{id}
func (h *RunHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	run, err := h.runs.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "failed to get run")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// Delete handles DELETE /api/v1/runs/{id}
func (h *RunHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.runs.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err, "failed to delete run")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RecordHuman handles PUT /api/v1/runs/{id}/pairs/{pairId}/human
func (h *RunHandler) RecordHuman(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")
	pairID := chi.URLParam(r, "pairId")
	for _, id := range []string{runID, pairID} {
		if err := middleware.ValidateID(id); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	var req service.HumanEvaluationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateReasoning(req.Reasoning); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	run, err := h.runs.RecordHumanEvaluation(r.Context(), runID, pairID, req)
	if err != nil {
		h.logger.Warn("human evaluation rejected",
			zap.Error(err),
			zap.String("run_id", runID),
			zap.String("pair_id", pairID),
		)
		writeDomainError(w, err, "failed to record human evaluation")
		return
	}
	writeJSON(w, http.StatusOK, run)
}
