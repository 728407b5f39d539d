package model

// RunStatus is the lifecycle state of an evaluation run.
type RunStatus string

const (
	RunStatusIdle       RunStatus = "idle"
	RunStatusGenerating RunStatus = "generating"
	RunStatusGenerated  RunStatus = "generated"
	RunStatusEvaluating RunStatus = "evaluating"
	RunStatusEvaluated  RunStatus = "evaluated"
)

// Terminal reports whether the status is a resting state of a run.
func (s RunStatus) Terminal() bool {
	return s == RunStatusGenerated || s == RunStatusEvaluated
}

// CriterionScores holds pass rates for one criterion.
type CriterionScores struct {
	LLM   float64  `json:"llm"`
	Human *float64 `json:"human,omitempty"`
}

// AggregateScores summarises a run.
type AggregateScores struct {
	LLM          float64                    `json:"llm"`
	Human        *float64                   `json:"human,omitempty"`
	PerCriterion map[string]CriterionScores `json:"perCriterion,omitempty"`
}

// EvaluationRun is one batch execution spanning generation and evaluation.
type EvaluationRun struct {
	ID              string          `json:"id"`
	Timestamp       int64           `json:"timestamp"` // unix millis
	Status          RunStatus       `json:"status"`
	PromptVersionID string          `json:"promptVersionId"`
	GeneratorModel  string          `json:"generatorModel"`
	EvaluatorModel  string          `json:"evaluatorModel,omitempty"`
	QAPairs         []QAPair        `json:"qaPairs"`
	AggregateScores AggregateScores `json:"aggregateScores"`
}

// PromptVersion is a versioned system prompt for the answer generator.
type PromptVersion struct {
	ID          string `json:"id"`
	Version     string `json:"version"`
	Content     string `json:"content"`
	CreatedAt   int64  `json:"createdAt"` // unix millis
	Description string `json:"description,omitempty"`
}
