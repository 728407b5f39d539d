package mock

import (
	"context"

	"github.com/capitalize-ai/assistant-evaluator/internal/llm"
)

// Compile-time interface verification.
var _ llm.Client = (*LLMClient)(nil)

// LLMClient is a mock implementation of llm.Client.
type LLMClient struct {
	CompleteFn func(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error)
	NameFn     func() string
	ModelsFn   func() []string
}

func (c *LLMClient) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return c.CompleteFn(ctx, req)
}

func (c *LLMClient) Name() string {
	if c.NameFn == nil {
		return "mock"
	}
	return c.NameFn()
}

func (c *LLMClient) Models() []string {
	if c.ModelsFn == nil {
		return nil
	}
	return c.ModelsFn()
}

// Registry returns a registry serving every provider with c.
func Registry(c llm.Client) *llm.Registry {
	reg := llm.NewRegistry()
	for _, p := range []llm.Provider{llm.ProviderAnthropic, llm.ProviderOpenAI, llm.ProviderGemini} {
		reg.Register(p, c)
	}
	return reg
}
