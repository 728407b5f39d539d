package store

import (
	"context"

	"github.com/capitalize-ai/assistant-evaluator/internal/model"
	"github.com/capitalize-ai/assistant-evaluator/pkg/logger"
	"github.com/capitalize-ai/assistant-evaluator/pkg/metrics"
)

// SnippetNotes stores open-coding notes keyed by snippet id.
type SnippetNotes struct {
	c collection[model.SnippetAnnotation]
}

// NewSnippetNotes creates a snippet note repository.
func NewSnippetNotes(kv KV, log *logger.Logger) *SnippetNotes {
	return &SnippetNotes{c: collection[model.SnippetAnnotation]{kv: kv, name: CollectionSnippetNotes, logger: log}}
}

// Save inserts or replaces the note of a snippet.
func (n *SnippetNotes) Save(ctx context.Context, note *model.SnippetAnnotation) error {
	if err := n.c.put(ctx, note.SnippetID, note); err != nil {
		return err
	}
	metrics.SnippetNotesSaved.Inc()
	return nil
}

// All returns every stored note keyed by snippet id.
func (n *SnippetNotes) All(ctx context.Context) (map[string]model.SnippetAnnotation, error) {
	list, err := n.c.list(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]model.SnippetAnnotation, len(list))
	for _, note := range list {
		out[note.SnippetID] = note
	}
	return out, nil
}
