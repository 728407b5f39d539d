package store

import (
	"context"

	"github.com/capitalize-ai/assistant-evaluator/internal/model"
	"github.com/capitalize-ai/assistant-evaluator/pkg/logger"
)

const currentPromptKey = "current"

type currentPointer struct {
	ID string `json:"id"`
}

// Prompts stores prompt versions and the pointer to the current one.
type Prompts struct {
	versions collection[model.PromptVersion]
	current  collection[currentPointer]
}

// NewPrompts creates a prompt version repository.
func NewPrompts(kv KV, log *logger.Logger) *Prompts {
	return &Prompts{
		versions: collection[model.PromptVersion]{kv: kv, name: CollectionPrompts, logger: log},
		current:  collection[currentPointer]{kv: kv, name: CollectionCurrentPrompt, logger: log},
	}
}

// Save inserts or replaces a prompt version.
func (p *Prompts) Save(ctx context.Context, v *model.PromptVersion) error {
	return p.versions.put(ctx, v.ID, v)
}

// Get returns the version with id or ErrNotFound.
func (p *Prompts) Get(ctx context.Context, id string) (*model.PromptVersion, error) {
	return p.versions.get(ctx, id)
}

// List returns all versions in creation order.
func (p *Prompts) List(ctx context.Context) ([]model.PromptVersion, error) {
	return p.versions.list(ctx)
}

// Current returns the version the current pointer names, or ErrNotFound when
// no pointer is set or it dangles.
func (p *Prompts) Current(ctx context.Context) (*model.PromptVersion, error) {
	ptr, err := p.current.get(ctx, currentPromptKey)
	if err != nil {
		return nil, err
	}
	return p.versions.get(ctx, ptr.ID)
}

// SetCurrent points the current version at id. The version must exist.
func (p *Prompts) SetCurrent(ctx context.Context, id string) error {
	if _, err := p.versions.get(ctx, id); err != nil {
		return err
	}
	return p.current.put(ctx, currentPromptKey, &currentPointer{ID: id})
}
