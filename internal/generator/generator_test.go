package generator_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/assistant-evaluator/internal/generator"
	"github.com/capitalize-ai/assistant-evaluator/internal/llm"
	"github.com/capitalize-ai/assistant-evaluator/internal/mock"
)

func echoClient() *mock.LLMClient {
	return &mock.LLMClient{
		CompleteFn: func(_ context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return &llm.CompletionResponse{Content: "  answer to " + req.Messages[0].Content + "\n"}, nil
		},
	}
}

func TestAnswer_SendsSystemPromptAndModel(t *testing.T) {
	t.Parallel()

	var got *llm.CompletionRequest
	client := &mock.LLMClient{
		CompleteFn: func(_ context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
			got = req
			return &llm.CompletionResponse{Content: "Sure."}, nil
		},
	}
	g := generator.New(mock.Registry(client), llm.ParseBackend("gpt-4o"),
		generator.WithSystemPrompt("You are a support agent."),
	)

	answer := g.Answer(context.Background(), "How do I reset my password?")

	assert.Equal(t, "Sure.", answer)
	require.NotNil(t, got)
	assert.Equal(t, "gpt-4o", got.Model)
	assert.Equal(t, "You are a support agent.", got.System)
	assert.Equal(t, generator.DefaultMaxTokens, got.MaxTokens)
	assert.Equal(t, "How do I reset my password?", got.Messages[0].Content)
}

func TestAnswer_FailureReturnsPlaceholder(t *testing.T) {
	t.Parallel()

	client := &mock.LLMClient{
		CompleteFn: func(context.Context, *llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return nil, errors.New("overloaded")
		},
	}
	g := generator.New(mock.Registry(client), llm.ParseBackend("claude-3-5-haiku-20241022"))

	assert.Equal(t, generator.Placeholder, g.Answer(context.Background(), "q"))
}

func TestAnswer_UnconfiguredProvider(t *testing.T) {
	t.Parallel()

	g := generator.New(llm.NewRegistry(), llm.ParseBackend("gpt-4o"))

	_, err := g.Generate(context.Background(), "q")
	require.ErrorIs(t, err, llm.ErrProviderNotConfigured)
	assert.Equal(t, generator.Placeholder, g.Answer(context.Background(), "q"))
}

func TestGenerateAll_PartialFailure(t *testing.T) {
	t.Parallel()

	var calls []string
	client := &mock.LLMClient{
		CompleteFn: func(_ context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
			q := req.Messages[0].Content
			calls = append(calls, q)
			if q == "q1" {
				return nil, errors.New("boom")
			}
			return &llm.CompletionResponse{Content: "a-" + q}, nil
		},
	}
	g := generator.New(mock.Registry(client), llm.ParseBackend("claude-3-5-haiku-20241022"))

	pairs := g.GenerateAll(context.Background(), []string{"q0", "q1", "q2"})

	require.Len(t, pairs, 3)
	assert.Equal(t, []string{"q0", "q1", "q2"}, calls)
	assert.Equal(t, "a-q0", pairs[0].Answer)
	assert.Equal(t, generator.Placeholder, pairs[1].Answer)
	assert.Equal(t, "a-q2", pairs[2].Answer)
	assert.Equal(t, "pair-1", pairs[1].ID)
	assert.Nil(t, pairs[1].Evaluation)
}

func TestGenerateAll_TrimsAnswers(t *testing.T) {
	t.Parallel()

	g := generator.New(mock.Registry(echoClient()), llm.ParseBackend("gemini-2.5-flash"), generator.WithMaxTokens(64))

	pairs := g.GenerateAll(context.Background(), []string{"hi"})

	require.Len(t, pairs, 1)
	assert.Equal(t, "answer to hi", pairs[0].Answer)
	assert.Equal(t, llm.ProviderGemini, g.Backend().Provider)
}
