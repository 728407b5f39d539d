package store

import (
	"context"

	"github.com/capitalize-ai/assistant-evaluator/internal/model"
	"github.com/capitalize-ai/assistant-evaluator/pkg/logger"
	"github.com/capitalize-ai/assistant-evaluator/pkg/metrics"
)

// Runs stores evaluation runs keyed by run id.
type Runs struct {
	c collection[model.EvaluationRun]
}

// NewRuns creates a run repository.
func NewRuns(kv KV, log *logger.Logger) *Runs {
	return &Runs{c: collection[model.EvaluationRun]{kv: kv, name: CollectionRuns, logger: log}}
}

// Save inserts run or replaces the record with the same id.
func (r *Runs) Save(ctx context.Context, run *model.EvaluationRun) error {
	err := r.c.put(ctx, run.ID, run)
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.RunsPersisted.WithLabelValues(string(run.Status), result).Inc()
	return err
}

// Get returns the run with id or ErrNotFound.
func (r *Runs) Get(ctx context.Context, id string) (*model.EvaluationRun, error) {
	return r.c.get(ctx, id)
}

// List returns every stored run in insertion order.
func (r *Runs) List(ctx context.Context) ([]model.EvaluationRun, error) {
	return r.c.list(ctx)
}

// Delete removes a run.
func (r *Runs) Delete(ctx context.Context, id string) error {
	return r.c.delete(ctx, id)
}
