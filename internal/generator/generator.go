// Package generator produces answers to sample questions through an LLM
// backend.
package generator

import (
	"context"
	"fmt"
	"strings"
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

// Placeholder replaces the answer of a question whose generation failed.
const Placeholder = "Error generating answer"

// DefaultMaxTokens bounds the length of a generated answer.
const DefaultMaxTokens = 512

// Generator answers questions one at a time with a fixed backend.
type Generator struct {
	registry  *llm.Registry
	backend   llm.Backend
	system    string
	maxTokens int
	timeout   time.Duration
	logger    *logger.Logger
	tracer    trace.Tracer
}

// Option configures a Generator.
type Option func(*Generator)

// WithSystemPrompt sets the system prompt sent with every question.
func WithSystemPrompt(prompt string) Option {
	return func(g *Generator) {
		g.system = prompt
	}
}

// WithMaxTokens overrides DefaultMaxTokens.
func WithMaxTokens(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxTokens = n
		}
	}
}

// WithTimeout bounds each generation call. Zero means no bound beyond ctx.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) {
		g.timeout = d
	}
}

// WithLogger sets the logger used to report failed items.
func WithLogger(l *logger.Logger) Option {
	return func(g *Generator) {
		g.logger = l
	}
}

// New creates a Generator for backend. The client is resolved from registry on
// every call, so a provider without credentials fails per item.
func New(registry *llm.Registry, backend llm.Backend, opts ...Option) *Generator {
	g := &Generator{
		registry:  registry,
		backend:   backend,
		maxTokens: DefaultMaxTokens,
		logger:    logger.NewNop(),
		tracer:    tracing.Tracer("generator"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Backend returns the backend answering questions.
func (g *Generator) Backend() llm.Backend {
	return g.backend
}

// Generate asks the backend for an answer to question.
func (g *Generator) Generate(ctx context.Context, question string) (string, error) {
	ctx, span := g.tracer.Start(ctx, "generator.Generate",
		trace.WithAttributes(
			attribute.String("llm.provider", string(g.backend.Provider)),
			attribute.String("llm.model", g.backend.Model),
		),
	)
	defer span.End()

	client, err := g.registry.Client(g.backend)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := client.Complete(ctx, llm.UserPrompt(g.backend.Model, g.system, question, g.maxTokens))
	if err != nil {
		metrics.RecordLLMCall(string(g.backend.Provider), g.backend.Model, "generate", "error", time.Since(start).Seconds(), 0, 0)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("generate answer: %w", err)
	}
	metrics.RecordLLMCall(string(g.backend.Provider), g.backend.Model, "generate", "ok", time.Since(start).Seconds(), resp.TokensIn, resp.TokensOut)
	span.SetAttributes(
		attribute.Int("llm.tokens_in", resp.TokensIn),
		attribute.Int("llm.tokens_out", resp.TokensOut),
	)

	return strings.TrimSpace(resp.Content), nil
}

// Answer returns the answer to question, or Placeholder when generation
// fails. It never returns an empty string for a failed call.
func (g *Generator) Answer(ctx context.Context, question string) string {
	answer, err := g.Generate(ctx, question)
	if err != nil {
		g.logger.Warn("answer generation failed",
			zap.String("backend", g.backend.String()),
			zap.Error(err),
		)
		return Placeholder
	}
	return answer
}

// GenerateAll answers questions sequentially in input order. A failed item
// gets Placeholder and the batch continues.
func (g *Generator) GenerateAll(ctx context.Context, questions []string) []model.QAPair {
	pairs := make([]model.QAPair, len(questions))
	for i, q := range questions {
		pairs[i] = model.QAPair{
			ID:       model.PairID(i),
			Question: q,
			Answer:   g.Answer(ctx, q),
		}
	}
	return pairs
}
