package service_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/assistant-evaluator/internal/mock"
	"github.com/capitalize-ai/assistant-evaluator/internal/model"
	"github.com/capitalize-ai/assistant-evaluator/internal/orchestrator"
	"github.com/capitalize-ai/assistant-evaluator/internal/service"
	"github.com/capitalize-ai/assistant-evaluator/internal/store"
	"github.com/capitalize-ai/assistant-evaluator/pkg/logger"
)

var criteria = []model.Criterion{{ID: "a"}, {ID: "b"}}

func evaluatedRun(id string, ts int64) *model.EvaluationRun {
	evals := []model.CriterionEvaluation{{CriterionID: "a", Passed: true}, {CriterionID: "b", Passed: false}}
	return &model.EvaluationRun{
		ID:        id,
		Timestamp: ts,
		Status:    model.RunStatusEvaluated,
		QAPairs: []model.QAPair{
			{ID: "pair-0", Question: "q0", Answer: "a0", Evaluation: &model.Evaluation{LLMEvaluations: evals, LLMScore: 0.5}},
			{ID: "pair-1", Question: "q1"},
		},
		AggregateScores: model.AggregateScores{
			LLM: 0.5,
			PerCriterion: map[string]model.CriterionScores{
				"a": {LLM: 1},
				"b": {LLM: 0},
			},
		},
	}
}

func newRunService(t *testing.T) (*service.RunService, *store.Runs) {
	t.Helper()
	runs := store.NewRuns(store.NewMemoryKV(), logger.NewNop())
	return service.NewRunService(runs, nil, criteria, logger.NewNop()), runs
}

func TestRunService_ListNewestFirst(t *testing.T) {
	t.Parallel()

	svc, runs := newRunService(t)
	ctx := context.Background()
	require.NoError(t, runs.Save(ctx, evaluatedRun("old", 100)))
	require.NoError(t, runs.Save(ctx, evaluatedRun("new", 200)))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)

	require.NoError(t, svc.Delete(ctx, "old"))
	assert.ErrorIs(t, svc.Delete(ctx, "old"), service.ErrNotFound)
	_, err = svc.Get(ctx, "old")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestRunService_RecordHumanEvaluation(t *testing.T) {
	t.Parallel()

	svc, runs := newRunService(t)
	ctx := context.Background()
	require.NoError(t, runs.Save(ctx, evaluatedRun("r1", 1)))

	_, err := svc.RecordHumanEvaluation(ctx, "r1", "pair-0", service.HumanEvaluationRequest{CriterionID: "b", Passed: true, Reasoning: " "})
	require.ErrorIs(t, err, service.ErrInvalidInput)

	run, err := svc.RecordHumanEvaluation(ctx, "r1", "pair-0", service.HumanEvaluationRequest{CriterionID: "b", Passed: false, Reasoning: "wrong"})
	require.NoError(t, err)
	run, err = svc.RecordHumanEvaluation(ctx, "r1", "pair-0", service.HumanEvaluationRequest{CriterionID: "b", Passed: true, Reasoning: "judge was too strict"})
	require.NoError(t, err)

	eval := run.QAPairs[0].Evaluation
	require.Len(t, eval.HumanEvaluations, 1)
	assert.Equal(t, "judge was too strict", eval.HumanEvaluations[0].Reasoning)
	require.NotNil(t, eval.HumanScore)
	assert.InDelta(t, 1.0, *eval.HumanScore, 1e-9)

	require.NotNil(t, run.AggregateScores.Human)
	assert.InDelta(t, 1.0, *run.AggregateScores.Human, 1e-9)
	require.NotNil(t, run.AggregateScores.PerCriterion["b"].Human)
	assert.Zero(t, run.AggregateScores.PerCriterion["b"].LLM)
	assert.Nil(t, run.AggregateScores.PerCriterion["a"].Human)
	assert.InDelta(t, 0.5, run.AggregateScores.LLM, 1e-9)

	stored, err := runs.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, run.AggregateScores, stored.AggregateScores)
}

func TestRunService_RecordHumanEvaluation_Errors(t *testing.T) {
	t.Parallel()

	svc, runs := newRunService(t)
	ctx := context.Background()
	require.NoError(t, runs.Save(ctx, evaluatedRun("r1", 1)))
	req := service.HumanEvaluationRequest{CriterionID: "a", Passed: true, Reasoning: "ok"}

	_, err := svc.RecordHumanEvaluation(ctx, "missing", "pair-0", req)
	assert.ErrorIs(t, err, service.ErrNotFound)
	_, err = svc.RecordHumanEvaluation(ctx, "r1", "pair-9", req)
	assert.ErrorIs(t, err, service.ErrNotFound)
	_, err = svc.RecordHumanEvaluation(ctx, "r1", "pair-1", req)
	assert.ErrorIs(t, err, service.ErrInvalidInput)
	_, err = svc.RecordHumanEvaluation(ctx, "r1", "pair-0", service.HumanEvaluationRequest{CriterionID: "zzz", Reasoning: "x"})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func newLiveRun(t *testing.T, eval orchestrator.Evaluator) (*service.RunService, *orchestrator.Orchestrator, string) {
	t.Helper()

	runs := store.NewRuns(store.NewMemoryKV(), logger.NewNop())
	orch := orchestrator.New(orchestrator.Config{
		Questions: []string{"q0", "q1"},
		Criteria:  criteria,
		NewGenerator: func(string, string) orchestrator.Generator {
			return &mock.Generator{
				AnswerFn: func(_ context.Context, q string) string { return "answer " + q },
			}
		},
		NewEvaluator: func(string) orchestrator.Evaluator { return eval },
		Runs:         runs,
	})
	svc := service.NewRunService(runs, orch, criteria, logger.NewNop())

	ctx := context.Background()
	runID, err := orch.StartGeneration(ctx, orchestrator.GenerationOptions{Count: 2})
	require.NoError(t, err)
	orch.Wait()
	require.NoError(t, orch.StartEvaluation(ctx, orchestrator.EvaluationOptions{}))
	orch.Wait()
	return svc, orch, runID
}

func allPass() *mock.Evaluator {
	return &mock.Evaluator{
		EvaluateAllFn: func(_ context.Context, _, _ string, cs []model.Criterion) ([]model.CriterionEvaluation, float64) {
			evals := make([]model.CriterionEvaluation, len(cs))
			for i, c := range cs {
				evals[i] = model.CriterionEvaluation{CriterionID: c.ID, Passed: true, Reasoning: "ok"}
			}
			return evals, 1
		},
	}
}

func TestRunService_HumanEvaluationSurvivesReevaluation(t *testing.T) {
	t.Parallel()

	svc, orch, runID := newLiveRun(t, allPass())
	ctx := context.Background()

	_, err := svc.RecordHumanEvaluation(ctx, runID, "pair-0", service.HumanEvaluationRequest{CriterionID: "a", Passed: false, Reasoning: "made up a date"})
	require.NoError(t, err)

	require.NoError(t, orch.StartEvaluation(ctx, orchestrator.EvaluationOptions{}))
	orch.Wait()

	run, err := svc.Get(ctx, runID)
	require.NoError(t, err)
	eval := run.QAPairs[0].Evaluation
	require.NotNil(t, eval)
	require.Len(t, eval.HumanEvaluations, 1)
	assert.Equal(t, "made up a date", eval.HumanEvaluations[0].Reasoning)
	require.NotNil(t, eval.HumanScore)
	assert.InDelta(t, 0.0, *eval.HumanScore, 1e-9)
	require.NotNil(t, run.AggregateScores.Human)
	assert.InDelta(t, 0.0, *run.AggregateScores.Human, 1e-9)
	assert.InDelta(t, 1.0, run.AggregateScores.LLM, 1e-9)

	snap := orch.Snapshot()
	require.NotNil(t, snap.QAPairs[0].Evaluation)
	assert.Len(t, snap.QAPairs[0].Evaluation.HumanEvaluations, 1)
}

func TestRunService_HumanEvaluationRejectedWhileEvaluating(t *testing.T) {
	t.Parallel()

	var block atomic.Bool
	started := make(chan struct{}, 2)
	release := make(chan struct{})
	eval := &mock.Evaluator{
		EvaluateAllFn: func(ctx context.Context, q, a string, cs []model.Criterion) ([]model.CriterionEvaluation, float64) {
			if block.Load() {
				started <- struct{}{}
				<-release
			}
			return allPass().EvaluateAll(ctx, q, a, cs)
		},
	}
	svc, orch, runID := newLiveRun(t, eval)
	ctx := context.Background()

	block.Store(true)
	require.NoError(t, orch.StartEvaluation(ctx, orchestrator.EvaluationOptions{}))
	<-started

	_, err := svc.RecordHumanEvaluation(ctx, runID, "pair-0", service.HumanEvaluationRequest{CriterionID: "a", Passed: false, Reasoning: "x"})
	assert.ErrorIs(t, err, orchestrator.ErrRunInProgress)

	close(release)
	orch.Wait()
}
