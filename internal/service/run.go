package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/capitalize-ai/assistant-evaluator/internal/model"
	"github.com/capitalize-ai/assistant-evaluator/internal/orchestrator"
	"github.com/capitalize-ai/assistant-evaluator/internal/store"
	"github.com/capitalize-ai/assistant-evaluator/pkg/logger"
)

// HumanEvaluationRequest is a reviewer's verdict on one criterion of a pair.
type HumanEvaluationRequest struct {
	CriterionID string `json:"criterionId"`
	Passed      bool   `json:"passed"`
	Reasoning   string `json:"reasoning"`
}

// WorkingSet receives human verdicts for the run currently loaded in the
// orchestrator.
type WorkingSet interface {
	RecordHumanEvaluation(runID, pairID string, verdict model.CriterionEvaluation) error
}

// RunService exposes persisted run history and human review of runs.
type RunService struct {
	runs     *store.Runs
	working  WorkingSet
	criteria []model.Criterion
	logger   *logger.Logger
}

// NewRunService creates a new run service. working may be nil.
func NewRunService(runs *store.Runs, working WorkingSet, criteria []model.Criterion, log *logger.Logger) *RunService {
	return &RunService{
		runs:     runs,
		working:  working,
		criteria: criteria,
		logger:   log,
	}
}

// List returns stored runs, newest first.
func (s *RunService) List(ctx context.Context) ([]model.EvaluationRun, error) {
	runs, err := s.runs.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp > runs[j].Timestamp
	})
	return runs, nil
}

// Get returns one run.
func (s *RunService) Get(ctx context.Context, id string) (*model.EvaluationRun, error) {
	run, err := s.runs.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	return run, err
}

// Delete removes a run from history.
func (s *RunService) Delete(ctx context.Context, id string) error {
	err := s.runs.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err == nil {
		s.logger.Info("run deleted", zap.String("run_id", id))
	}
	return err
}

// RecordHumanEvaluation stores a reviewer's verdict on an evaluated pair,
// replacing an earlier verdict for the same criterion, and recomputes the
// pair's human score and the run's human aggregates.
func (s *RunService) RecordHumanEvaluation(ctx context.Context, runID, pairID string, req HumanEvaluationRequest) (*model.EvaluationRun, error) {
	reasoning := strings.TrimSpace(req.Reasoning)
	if reasoning == "" {
		return nil, fmt.Errorf("%w: reasoning is required", ErrInvalidInput)
	}
	if !s.knownCriterion(req.CriterionID) {
		return nil, fmt.Errorf("%w: unknown criterion %s", ErrInvalidInput, req.CriterionID)
	}

	run, err := s.Get(ctx, runID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range run.QAPairs {
		if run.QAPairs[i].ID == pairID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("pair %s: %w", pairID, ErrNotFound)
	}
	eval := run.QAPairs[idx].Evaluation
	if eval == nil {
		return nil, fmt.Errorf("%w: pair %s has not been evaluated", ErrInvalidInput, pairID)
	}

	verdict := model.CriterionEvaluation{
		CriterionID: req.CriterionID,
		Passed:      req.Passed,
		Reasoning:   reasoning,
	}
	if s.working != nil {
		if err := s.working.RecordHumanEvaluation(runID, pairID, verdict); err != nil {
			return nil, err
		}
	}
	eval.HumanEvaluations = model.UpsertEvaluation(eval.HumanEvaluations, verdict)
	score := model.PassRate(eval.HumanEvaluations)
	eval.HumanScore = &score

	agg := orchestrator.Aggregate(run.QAPairs, s.criteria)
	run.AggregateScores.Human = agg.Human
	if run.AggregateScores.PerCriterion == nil {
		run.AggregateScores.PerCriterion = make(map[string]model.CriterionScores, len(s.criteria))
	}
	for id, cs := range agg.PerCriterion {
		cur := run.AggregateScores.PerCriterion[id]
		cur.Human = cs.Human
		run.AggregateScores.PerCriterion[id] = cur
	}

	if err := s.runs.Save(ctx, run); err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}

	s.logger.Info("human evaluation recorded",
		zap.String("run_id", runID),
		zap.String("pair_id", pairID),
		zap.String("criterion_id", req.CriterionID),
		zap.Bool("passed", req.Passed),
	)
	return run, nil
}

func (s *RunService) knownCriterion(id string) bool {
	for _, c := range s.criteria {
		if c.ID == id {
			return true
		}
	}
	return false
}
