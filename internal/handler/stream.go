package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/assistant-evaluator/internal/model"
	"github.com/capitalize-ai/assistant-evaluator/internal/orchestrator"
	"github.com/capitalize-ai/assistant-evaluator/pkg/logger"
	"github.com/capitalize-ai/assistant-evaluator/pkg/metrics"
)

const heartbeatInterval = 30 * time.Second

// StreamHandler streams run progress over SSE.
type StreamHandler struct {
	orchestrator *orchestrator.Orchestrator
	logger       *logger.Logger
	heartbeat    time.Duration
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(orch *orchestrator.Orchestrator, log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		orchestrator: orch,
		logger:       log,
		heartbeat:    heartbeatInterval,
	}
}

// Stream handles GET /api/v1/run/stream
// The first event is a snapshot of the current state; "progress" events
// follow for every phase change and finished item.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// The server WriteTimeout would otherwise cut long-lived streams.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debug("clearing write deadline failed", zap.Error(err))
	}

	// Subscribe before the snapshot so no event between the two is lost.
	events, cancel := h.orchestrator.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	sendSSEEvent(w, flusher, "snapshot", h.orchestrator.Snapshot())

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("SSE client disconnected")
			return

		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := sendSSEEvent(w, flusher, "progress", ev); err != nil {
				h.logger.Warn("failed to send progress event", zap.Error(err))
				return
			}

		case <-heartbeat.C:
			sendSSEEvent(w, flusher, "heartbeat", &model.HeartbeatEvent{
				Timestamp: time.Now(),
			})
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return err
	}
	flusher.Flush()

	return nil
}
