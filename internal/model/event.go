package model

import (
	"time"
)

// ProgressEvent reports orchestrator progress to stream subscribers.
type ProgressEvent struct {
	RunID        string    `json:"runId"`
	Phase        RunStatus `json:"phase"`
	CurrentIndex int       `json:"currentIndex"`
	BatchSize    int       `json:"batchSize"`
	Pair         *QAPair   `json:"pair,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ErrorEvent represents an error event.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HeartbeatEvent represents a heartbeat event.
type HeartbeatEvent struct {
	Timestamp time.Time `json:"timestamp"`
}
