// Package evaluator judges answers against pass/fail criteria with an LLM.
package evaluator

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/capitalize-ai/assistant-evaluator/internal/llm"
	"github.com/capitalize-ai/assistant-evaluator/internal/model"
	"github.com/capitalize-ai/assistant-evaluator/pkg/logger"
	"github.com/capitalize-ai/assistant-evaluator/pkg/metrics"
	"github.com/capitalize-ai/assistant-evaluator/pkg/tracing"
)

// FailureReasoning is the reasoning recorded for a criterion whose judge call
// failed.
const FailureReasoning = "Error during evaluation"

// DefaultMaxTokens bounds the length of a judge response.
const DefaultMaxTokens = 512

// Evaluator runs one judge call per criterion with a fixed backend.
type Evaluator struct {
	registry  *llm.Registry
	backend   llm.Backend
	maxTokens int
	timeout   time.Duration
	logger    *logger.Logger
	tracer    trace.Tracer
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithMaxTokens overrides DefaultMaxTokens.
func WithMaxTokens(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.maxTokens = n
		}
	}
}

// WithTimeout bounds each judge call.
func WithTimeout(d time.Duration) Option {
	return func(e *Evaluator) {
		e.timeout = d
	}
}

// WithLogger sets the logger used to report failed criteria.
func WithLogger(l *logger.Logger) Option {
	return func(e *Evaluator) {
		e.logger = l
	}
}

// New creates an Evaluator for backend.
func New(registry *llm.Registry, backend llm.Backend, opts ...Option) *Evaluator {
	e := &Evaluator{
		registry:  registry,
		backend:   backend,
		maxTokens: DefaultMaxTokens,
		logger:    logger.NewNop(),
		tracer:    tracing.Tracer("evaluator"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Backend returns the judge backend.
func (e *Evaluator) Backend() llm.Backend {
	return e.backend
}

// EvaluateCriterion judges answer against c. An unparseable response is a
// failed verdict, not an error; only the judge call itself returns errors.
func (e *Evaluator) EvaluateCriterion(ctx context.Context, question, answer string, c model.Criterion) (model.CriterionEvaluation, error) {
	ctx, span := e.tracer.Start(ctx, "evaluator.EvaluateCriterion",
		trace.WithAttributes(
			attribute.String("criterion.id", c.ID),
			attribute.String("llm.provider", string(e.backend.Provider)),
			attribute.String("llm.model", e.backend.Model),
		),
	)
	defer span.End()

	result := model.CriterionEvaluation{CriterionID: c.ID}

	client, err := e.registry.Client(e.backend)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return result, err
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := client.Complete(ctx, llm.UserPrompt(e.backend.Model, "", BuildPrompt(c.Prompt, question, answer), e.maxTokens))
	if err != nil {
		metrics.RecordLLMCall(string(e.backend.Provider), e.backend.Model, "judge", "error", time.Since(start).Seconds(), 0, 0)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return result, fmt.Errorf("judge criterion %s: %w", c.ID, err)
	}
	metrics.RecordLLMCall(string(e.backend.Provider), e.backend.Model, "judge", "ok", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)

	result.Passed, result.Reasoning = ParseVerdict(resp.Content)
	span.SetAttributes(attribute.Bool("criterion.passed", result.Passed))
	return result, nil
}

// EvaluateAll judges answer against every criterion sequentially and returns
// the verdicts in criteria order with their pass rate. A failed judge call
// fails that criterion only.
func (e *Evaluator) EvaluateAll(ctx context.Context, question, answer string, criteria []model.Criterion) ([]model.CriterionEvaluation, float64) {
	evals := make([]model.CriterionEvaluation, 0, len(criteria))
	for _, c := range criteria {
		ev, err := e.EvaluateCriterion(ctx, question, answer, c)
		if err != nil {
			e.logger.Warn("criterion evaluation failed",
				zap.String("criterion_id", c.ID),
				zap.String("backend", e.backend.String()),
				zap.Error(err),
			)
			ev = model.CriterionEvaluation{
				CriterionID: c.ID,
				Passed:      false,
				Reasoning:   FailureReasoning,
			}
		}
		evals = append(evals, ev)
	}
	return evals, Score(evals)
}

// Score is the fraction of passed criteria, 0 when evals is empty.
func Score(evals []model.CriterionEvaluation) float64 {
	return model.PassRate(evals)
}
