package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/assistant-evaluator/internal/store"
	"github.com/capitalize-ai/assistant-evaluator/pkg/logger"
)

func backends(t *testing.T) map[string]store.KV {
	t.Helper()
	file, err := store.NewFileKV(t.TempDir(), logger.NewNop())
	require.NoError(t, err)
	return map[string]store.KV{
		"memory": store.NewMemoryKV(),
		"file":   file,
	}
}

func TestKV_Contract(t *testing.T) {
	t.Parallel()

	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			_, err := kv.Get(ctx, "things", "a")
			require.ErrorIs(t, err, store.ErrNotFound)

			entries, err := kv.List(ctx, "things")
			require.NoError(t, err)
			assert.Empty(t, entries)

			require.NoError(t, kv.Put(ctx, "things", "b", []byte(`{"n":1}`)))
			require.NoError(t, kv.Put(ctx, "things", "a", []byte(`{"n":2}`)))
			require.NoError(t, kv.Put(ctx, "things", "b", []byte(`{"n":3}`)))

			got, err := kv.Get(ctx, "things", "b")
			require.NoError(t, err)
			assert.JSONEq(t, `{"n":3}`, string(got))

			entries, err = kv.List(ctx, "things")
			require.NoError(t, err)
			require.Len(t, entries, 2)
			assert.Equal(t, "b", entries[0].ID)
			assert.Equal(t, "a", entries[1].ID)

			require.NoError(t, kv.Delete(ctx, "things", "b"))
			require.ErrorIs(t, kv.Delete(ctx, "things", "b"), store.ErrNotFound)

			entries, err = kv.List(ctx, "things")
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, "a", entries[0].ID)
		})
	}
}

func TestFileKV_SurvivesReopen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := context.Background()

	kv, err := store.NewFileKV(dir, logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, kv.Put(ctx, "eval_runs", "run-1", []byte(`{"id":"run-1"}`)))

	reopened, err := store.NewFileKV(dir, logger.NewNop())
	require.NoError(t, err)
	got, err := reopened.Get(ctx, "eval_runs", "run-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"run-1"}`, string(got))
	assert.NoError(t, reopened.Ping(ctx))
}

func TestFileKV_CorruptFileIsEmpty(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "eval_runs.json"), []byte("{not json"), 0o644))

	kv, err := store.NewFileKV(dir, logger.NewNop())
	require.NoError(t, err)

	entries, err := kv.List(context.Background(), "eval_runs")
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, kv.Put(context.Background(), "eval_runs", "run-1", []byte(`{}`)))
	entries, err = kv.List(context.Background(), "eval_runs")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileKV_RejectsInvalidJSON(t *testing.T) {
	t.Parallel()

	kv, err := store.NewFileKV(t.TempDir(), logger.NewNop())
	require.NoError(t, err)

	assert.Error(t, kv.Put(context.Background(), "c", "id", []byte("nope")))
}
