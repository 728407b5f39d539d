package store

import (
	"context"

	"github.com/capitalize-ai/assistant-evaluator/internal/model"
	"github.com/capitalize-ai/assistant-evaluator/pkg/logger"
	"github.com/capitalize-ai/assistant-evaluator/pkg/metrics"
)

// Annotations stores conversation annotations keyed by conversation id.
type Annotations struct {
	c collection[model.ConversationAnnotation]
}

// NewAnnotations creates an annotation repository.
func NewAnnotations(kv KV, log *logger.Logger) *Annotations {
	return &Annotations{c: collection[model.ConversationAnnotation]{kv: kv, name: CollectionAnnotations, logger: log}}
}

// Save inserts or replaces the annotation of a conversation.
func (a *Annotations) Save(ctx context.Context, ann *model.ConversationAnnotation) error {
	if err := a.c.put(ctx, ann.ConversationID, ann); err != nil {
		return err
	}
	metrics.AnnotationsSaved.Inc()
	return nil
}

// Get returns the annotation of a conversation or ErrNotFound.
func (a *Annotations) Get(ctx context.Context, conversationID string) (*model.ConversationAnnotation, error) {
	return a.c.get(ctx, conversationID)
}

// All returns every stored annotation keyed by conversation id.
func (a *Annotations) All(ctx context.Context) (map[string]model.ConversationAnnotation, error) {
	list, err := a.c.list(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]model.ConversationAnnotation, len(list))
	for _, ann := range list {
		out[ann.ConversationID] = ann
	}
	return out, nil
}
