package mock

import (
	"context"

	"github.com/capitalize-ai/assistant-evaluator/internal/model"
	"github.com/capitalize-ai/assistant-evaluator/internal/orchestrator"
)

// Compile-time interface verification.
var (
	_ orchestrator.Generator    = (*Generator)(nil)
	_ orchestrator.Evaluator    = (*Evaluator)(nil)
	_ orchestrator.PromptSource = (*PromptSource)(nil)
)

// Generator is a mock implementation of orchestrator.Generator.
type Generator struct {
	AnswerFn func(ctx context.Context, question string) string
}

func (g *Generator) Answer(ctx context.Context, question string) string {
	return g.AnswerFn(ctx, question)
}

// Evaluator is a mock implementation of orchestrator.Evaluator.
type Evaluator struct {
	EvaluateAllFn func(ctx context.Context, question, answer string, criteria []model.Criterion) ([]model.CriterionEvaluation, float64)
}

func (e *Evaluator) EvaluateAll(ctx context.Context, question, answer string, criteria []model.Criterion) ([]model.CriterionEvaluation, float64) {
	return e.EvaluateAllFn(ctx, question, answer, criteria)
}

// PromptSource is a mock implementation of orchestrator.PromptSource.
type PromptSource struct {
	CurrentFn func(ctx context.Context) (*model.PromptVersion, error)
}

func (p *PromptSource) Current(ctx context.Context) (*model.PromptVersion, error) {
	return p.CurrentFn(ctx)
}
