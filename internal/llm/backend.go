package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderGemini    Provider = "gemini"
)

// DefaultProvider serves model identifiers with no recognised prefix.
const DefaultProvider = ProviderAnthropic

// ErrProviderNotConfigured is returned when no client is registered for a
// backend's provider, typically because its API key is unset.
var ErrProviderNotConfigured = errors.New("provider not configured")

// Backend names the provider and model that serve a capability. It is chosen
// once, when a generator or evaluator is built.
type Backend struct {
	Provider Provider `json:"provider"`
	Model    string   `json:"model"`
}

func (b Backend) String() string {
	return string(b.Provider) + "/" + b.Model
}

var prefixes = []struct {
	prefix   string
	provider Provider
}{
	{"gpt-", ProviderOpenAI},
	{"o1-", ProviderOpenAI},
	{"o3-", ProviderOpenAI},
	{"o4-", ProviderOpenAI},
	{"gemini-", ProviderGemini},
	{"claude-", ProviderAnthropic},
}

// ParseBackend selects the provider for a model identifier by its prefix.
// Unrecognised identifiers go to DefaultProvider.
func ParseBackend(model string) Backend {
	for _, p := range prefixes {
		if strings.HasPrefix(model, p.prefix) {
			return Backend{Provider: p.provider, Model: model}
		}
	}
	return Backend{Provider: DefaultProvider, Model: model}
}

// Registry holds one client per configured provider.
type Registry struct {
	clients map[Provider]Client
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[Provider]Client)}
}

// Register adds or replaces the client for a provider.
func (r *Registry) Register(p Provider, c Client) {
	r.clients[p] = c
}

// Client returns the client serving b.
func (r *Registry) Client(b Backend) (Client, error) {
	if c, ok := r.clients[b.Provider]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%s: %w", b.Provider, ErrProviderNotConfigured)
}

// Providers returns the configured providers.
func (r *Registry) Providers() []Provider {
	out := make([]Provider, 0, len(r.clients))
	for p := range r.clients {
		out = append(out, p)
	}
	return out
}

// Models lists the advertised models of every configured provider.
func (r *Registry) Models() map[Provider][]string {
	out := make(map[Provider][]string, len(r.clients))
	for p, c := range r.clients {
		out[p] = c.Models()
	}
	return out
}

// NewClient creates a new LLM client based on provider.
func NewClient(ctx context.Context, provider Provider, apiKey string) (Client, error) {
	switch provider {
	case ProviderAnthropic:
		return NewAnthropicClient(apiKey)
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey)
	case ProviderGemini:
		return NewGeminiClient(ctx, apiKey)
	default:
		return nil, fmt.Errorf("unsupported provider %q", provider)
	}
}
