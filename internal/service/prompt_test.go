package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/assistant-evaluator/internal/model"
	"github.com/capitalize-ai/assistant-evaluator/internal/service"
	"github.com/capitalize-ai/assistant-evaluator/internal/store"
	"github.com/capitalize-ai/assistant-evaluator/pkg/logger"
)

func newPromptService(t *testing.T) (*service.PromptService, *store.Prompts) {
	t.Helper()
	repo := store.NewPrompts(store.NewMemoryKV(), logger.NewNop())
	return service.NewPromptService(repo, logger.NewNop()), repo
}

func TestPromptService_InitializeCreatesFirstVersion(t *testing.T) {
	t.Parallel()

	svc, _ := newPromptService(t)
	ctx := context.Background()

	pv, err := svc.Initialize(ctx, "You are helpful.")
	require.NoError(t, err)
	assert.Equal(t, service.InitialPromptID, pv.ID)
	assert.Equal(t, service.InitialPromptVersion, pv.Version)
	assert.Equal(t, service.InitialPromptDescription, pv.Description)
	assert.Equal(t, "You are helpful.", pv.Content)

	again, err := svc.Initialize(ctx, "different content")
	require.NoError(t, err)
	assert.Equal(t, "You are helpful.", again.Content)
}

func TestPromptService_InitializeFallsBackToLatest(t *testing.T) {
	t.Parallel()

	svc, repo := newPromptService(t)
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, &model.PromptVersion{ID: "v1", Content: "old"}))
	require.NoError(t, repo.Save(ctx, &model.PromptVersion{ID: "v2", Content: "new"}))

	pv, err := svc.Initialize(ctx, "ignored")
	require.NoError(t, err)
	assert.Equal(t, "v2", pv.ID)

	cur, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v2", cur.ID)
}

func TestPromptService_CreateAndSetCurrent(t *testing.T) {
	t.Parallel()

	svc, _ := newPromptService(t)
	ctx := context.Background()
	_, err := svc.Initialize(ctx, "first")
	require.NoError(t, err)

	_, err = svc.Create(ctx, service.CreatePromptRequest{Content: "  "})
	require.ErrorIs(t, err, service.ErrInvalidInput)

	pv, err := svc.Create(ctx, service.CreatePromptRequest{Content: "second", Description: "shorter"})
	require.NoError(t, err)
	assert.Equal(t, "v2", pv.ID)
	assert.Equal(t, "v2", pv.Version)

	cur, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v1", cur.ID)

	cur, err = svc.SetCurrent(ctx, "v2")
	require.NoError(t, err)
	assert.Equal(t, "second", cur.Content)

	_, err = svc.SetCurrent(ctx, "v9")
	require.ErrorIs(t, err, service.ErrNotFound)

	made, err := svc.Create(ctx, service.CreatePromptRequest{Content: "third", Version: "v3.0", MakeCurrent: true})
	require.NoError(t, err)
	cur, err = svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, made.ID, cur.ID)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestPromptService_CurrentMissing(t *testing.T) {
	t.Parallel()

	svc, _ := newPromptService(t)

	_, err := svc.Current(context.Background())
	assert.ErrorIs(t, err, service.ErrNotFound)
}
