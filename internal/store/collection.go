package store

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/capitalize-ai/assistant-evaluator/pkg/logger"
)

// collection is a typed view of one KV collection.
type collection[T any] struct {
	kv     KV
	name   string
	logger *logger.Logger
}

func (c collection[T]) put(ctx context.Context, id string, v *T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", c.name, id, err)
	}
	if err := c.kv.Put(ctx, c.name, id, data); err != nil {
		return fmt.Errorf("put %s/%s: %w", c.name, id, err)
	}
	return nil
}

func (c collection[T]) get(ctx context.Context, id string) (*T, error) {
	data, err := c.kv.Get(ctx, c.name, id)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.Error("corrupt record",
			zap.String("collection", c.name),
			zap.String("id", id),
			zap.Error(err),
		)
		return nil, ErrNotFound
	}
	return &v, nil
}

// list decodes every record, skipping corrupt ones.
func (c collection[T]) list(ctx context.Context) ([]T, error) {
	entries, err := c.kv.List(ctx, c.name)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.name, err)
	}
	out := make([]T, 0, len(entries))
	for _, e := range entries {
		var v T
		if err := json.Unmarshal(e.Value, &v); err != nil {
			c.logger.Error("skipping corrupt record",
				zap.String("collection", c.name),
				zap.String("id", e.ID),
				zap.Error(err),
			)
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (c collection[T]) delete(ctx context.Context, id string) error {
	return c.kv.Delete(ctx, c.name, id)
}
