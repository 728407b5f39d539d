package llm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/assistant-evaluator/internal/llm"
	"github.com/capitalize-ai/assistant-evaluator/internal/mock"
)

func TestParseBackend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		model    string
		provider llm.Provider
	}{
		{"gpt-4o", llm.ProviderOpenAI},
		{"o1-mini", llm.ProviderOpenAI},
		{"o3-mini", llm.ProviderOpenAI},
		{"o4-mini", llm.ProviderOpenAI},
		{"gemini-2.5-flash", llm.ProviderGemini},
		{"claude-3-5-haiku-20241022", llm.ProviderAnthropic},
		{"mistral-large", llm.ProviderAnthropic},
		{"", llm.ProviderAnthropic},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			t.Parallel()
			b := llm.ParseBackend(tt.model)
			assert.Equal(t, tt.provider, b.Provider)
			assert.Equal(t, tt.model, b.Model)
		})
	}
}

func TestRegistry_Client(t *testing.T) {
	t.Parallel()

	reg := llm.NewRegistry()
	client := &mock.LLMClient{NameFn: func() string { return "openai" }}
	reg.Register(llm.ProviderOpenAI, client)

	got, err := reg.Client(llm.ParseBackend("gpt-4o"))
	require.NoError(t, err)
	assert.Same(t, client, got)

	_, err = reg.Client(llm.ParseBackend("claude-3-5-haiku-20241022"))
	require.ErrorIs(t, err, llm.ErrProviderNotConfigured)
	assert.Equal(t, []llm.Provider{llm.ProviderOpenAI}, reg.Providers())
}

func TestUserPrompt(t *testing.T) {
	t.Parallel()

	req := llm.UserPrompt("gpt-4o", "be brief", "hello", 512)

	assert.Equal(t, "gpt-4o", req.Model)
	assert.Equal(t, "be brief", req.System)
	assert.Equal(t, 512, req.MaxTokens)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, llm.ChatMessage{Role: "user", Content: "hello"}, req.Messages[0])
}

func TestNewClient_RequiresKey(t *testing.T) {
	t.Parallel()

	_, err := llm.NewAnthropicClient("")
	assert.Error(t, err)
	_, err = llm.NewOpenAIClient("")
	assert.Error(t, err)
}

func TestGeminiGenerateConfig_Temperature(t *testing.T) {
	t.Parallel()

	cfg := llm.GenerateConfig(&llm.CompletionRequest{Model: "gemini-2.5-flash"})
	assert.Nil(t, cfg.Temperature)
	assert.Equal(t, int32(512), cfg.MaxOutputTokens)
	assert.Nil(t, cfg.SystemInstruction)

	cfg = llm.GenerateConfig(&llm.CompletionRequest{Temperature: 0.2, MaxTokens: 100, System: "judge"})
	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.2, *cfg.Temperature, 1e-6)
	assert.Equal(t, int32(100), cfg.MaxOutputTokens)
	require.NotNil(t, cfg.SystemInstruction)
	assert.Equal(t, "judge", cfg.SystemInstruction.Parts[0].Text)
}
