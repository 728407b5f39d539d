// Package orchestrator drives a two-phase evaluation run: answer generation
// followed by criterion evaluation, one item at a time with cooperative stop.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/capitalize-ai/assistant-evaluator/internal/model"
	"github.com/capitalize-ai/assistant-evaluator/pkg/logger"
	"github.com/capitalize-ai/assistant-evaluator/pkg/metrics"
	"github.com/capitalize-ai/assistant-evaluator/pkg/tracing"
)

var (
	// ErrRunInProgress is returned when a phase loop is still running. This
	// includes the window between Stop and the loop draining.
	ErrRunInProgress = errors.New("a run is in progress")
	// ErrNoRun is returned when evaluation is requested before any run exists.
	ErrNoRun = errors.New("no current run")
	// ErrInvalidPhase is returned when the current phase forbids the request.
	ErrInvalidPhase = errors.New("invalid phase")
	// ErrInvalidBatchSize is returned for a batch size outside 1..len(questions).
	ErrInvalidBatchSize = errors.New("invalid batch size")
)

// Generator answers one question. Failures are folded into the answer.
type Generator interface {
	Answer(ctx context.Context, question string) string
}

// Evaluator judges one answer against every criterion.
type Evaluator interface {
	EvaluateAll(ctx context.Context, question, answer string, criteria []model.Criterion) ([]model.CriterionEvaluation, float64)
}

// RunRepository persists run snapshots.
type RunRepository interface {
	Save(ctx context.Context, run *model.EvaluationRun) error
	Get(ctx context.Context, id string) (*model.EvaluationRun, error)
}

// PromptSource provides the current generator system prompt.
type PromptSource interface {
	Current(ctx context.Context) (*model.PromptVersion, error)
}

// Config wires an Orchestrator.
type Config struct {
	Questions []string
	Criteria  []model.Criterion

	NewGenerator func(model, systemPrompt string) Generator
	NewEvaluator func(model string) Evaluator

	DefaultGeneratorModel string
	DefaultEvaluatorModel string

	Runs    RunRepository
	Prompts PromptSource // optional
	Logger  *logger.Logger

	Now   func() time.Time
	NewID func() string
}

// GenerationOptions selects the batch and model of a generation phase.
type GenerationOptions struct {
	Count int    `json:"count"`
	Model string `json:"model"`
}

// EvaluationOptions selects the judge model of an evaluation phase.
type EvaluationOptions struct {
	Model string `json:"model"`
}

// Snapshot is a copy of the orchestrator's state.
type Snapshot struct {
	RunID           string          `json:"runId,omitempty"`
	Phase           model.RunStatus `json:"phase"`
	Running         bool            `json:"running"`
	StopRequested   bool            `json:"stopRequested"`
	CurrentIndex    int             `json:"currentIndex"`
	BatchSize       int             `json:"batchSize"`
	PromptVersionID string          `json:"promptVersionId,omitempty"`
	GeneratorModel  string          `json:"generatorModel,omitempty"`
	EvaluatorModel  string          `json:"evaluatorModel,omitempty"`
	QAPairs         []model.QAPair  `json:"qaPairs"`
}

// Orchestrator owns the working set of QAPairs and the run state machine.
// Only one phase loop runs at a time. The mutex is never held across a
// generation or judge call.
type Orchestrator struct {
	cfg    Config
	logger *logger.Logger
	tracer trace.Tracer
	hub    *hub

	mu              sync.Mutex
	phase           model.RunStatus
	runID           string
	currentIndex    int
	batchSize       int
	promptVersionID string
	generatorModel  string
	evaluatorModel  string
	pairs           []model.QAPair
	stop            bool
	running         bool
	done            chan struct{}
}

// New creates an idle orchestrator whose working set holds one empty pair per
// question.
func New(cfg Config) *Orchestrator {
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = func() string { return uuid.Must(uuid.NewV7()).String() }
	}

	pairs := make([]model.QAPair, len(cfg.Questions))
	for i, q := range cfg.Questions {
		pairs[i] = model.QAPair{ID: model.PairID(i), Question: q}
	}

	metrics.SetRunPhase(string(model.RunStatusIdle))

	return &Orchestrator{
		cfg:          cfg,
		logger:       cfg.Logger,
		tracer:       tracing.Tracer("orchestrator"),
		hub:          newHub(),
		phase:        model.RunStatusIdle,
		currentIndex: -1,
		pairs:        pairs,
	}
}

// Criteria returns the rubric the evaluation phase judges against.
func (o *Orchestrator) Criteria() []model.Criterion {
	return o.cfg.Criteria
}

// StartGeneration begins a new run over the first opts.Count questions and
// returns its id. The loop runs in the background; use Wait to block until
// it has finished and persisted.
func (o *Orchestrator) StartGeneration(ctx context.Context, opts GenerationOptions) (string, error) {
	if opts.Count < 1 || opts.Count > len(o.cfg.Questions) {
		return "", fmt.Errorf("%w: %d not in 1..%d", ErrInvalidBatchSize, opts.Count, len(o.cfg.Questions))
	}
	if opts.Model == "" {
		opts.Model = o.cfg.DefaultGeneratorModel
	}
	if o.isRunning() {
		return "", ErrRunInProgress
	}

	var promptID, system string
	if o.cfg.Prompts != nil {
		pv, err := o.cfg.Prompts.Current(ctx)
		if err != nil {
			return "", fmt.Errorf("load current prompt: %w", err)
		}
		promptID, system = pv.ID, pv.Content
	}
	gen := o.cfg.NewGenerator(opts.Model, system)

	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return "", ErrRunInProgress
	}
	runID := o.cfg.NewID()
	o.runID = runID
	o.batchSize = opts.Count
	o.promptVersionID = promptID
	o.generatorModel = opts.Model
	o.evaluatorModel = ""
	for i := 0; i < opts.Count; i++ {
		o.pairs[i] = model.QAPair{ID: model.PairID(i), Question: o.cfg.Questions[i]}
	}
	o.beginLocked(model.RunStatusGenerating)
	o.mu.Unlock()

	o.publishPhase(runID, model.RunStatusGenerating, opts.Count)

	go o.generate(context.WithoutCancel(ctx), runID, gen, opts.Count)
	return runID, nil
}

// StartEvaluation judges the current run's answers. It requires a run in the
// generated or evaluated phase.
func (o *Orchestrator) StartEvaluation(ctx context.Context, opts EvaluationOptions) error {
	if opts.Model == "" {
		opts.Model = o.cfg.DefaultEvaluatorModel
	}
	eval := o.cfg.NewEvaluator(opts.Model)

	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return ErrRunInProgress
	}
	if o.runID == "" {
		o.mu.Unlock()
		return ErrNoRun
	}
	if o.phase != model.RunStatusGenerated && o.phase != model.RunStatusEvaluated {
		phase := o.phase
		o.mu.Unlock()
		return fmt.Errorf("%w: cannot evaluate from %s", ErrInvalidPhase, phase)
	}
	runID, n := o.runID, o.batchSize
	o.evaluatorModel = opts.Model
	o.beginLocked(model.RunStatusEvaluating)
	o.mu.Unlock()

	o.publishPhase(runID, model.RunStatusEvaluating, n)

	go o.evaluate(context.WithoutCancel(ctx), runID, eval, n)
	return nil
}

// Stop asks the running loop to halt before its next item and moves the
// phase to its terminal state immediately. The in-flight call completes and
// is recorded. Stop reports whether a loop was running.
func (o *Orchestrator) Stop() bool {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return false
	}
	o.stop = true
	switch o.phase {
	case model.RunStatusGenerating:
		o.phase = model.RunStatusGenerated
	case model.RunStatusEvaluating:
		o.phase = model.RunStatusEvaluated
	}
	o.currentIndex = -1
	runID, phase, n := o.runID, o.phase, o.batchSize
	o.mu.Unlock()

	metrics.SetRunPhase(string(phase))
	o.logger.WithRun(runID, string(phase)).Info("stop requested")
	o.publishPhase(runID, phase, n)
	return true
}

// Resume loads a persisted run into the working set and enters its terminal
// phase, so it can be evaluated again.
func (o *Orchestrator) Resume(ctx context.Context, runID string) error {
	if o.isRunning() {
		return ErrRunInProgress
	}

	run, err := o.cfg.Runs.Get(ctx, runID)
	if err != nil {
		return fmt.Errorf("load run %s: %w", runID, err)
	}

	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return ErrRunInProgress
	}
	n := len(run.QAPairs)
	pairs := make([]model.QAPair, 0, max(n, len(o.cfg.Questions)))
	for _, p := range run.QAPairs {
		pairs = append(pairs, p.Clone())
	}
	for i := n; i < len(o.cfg.Questions); i++ {
		pairs = append(pairs, model.QAPair{ID: model.PairID(i), Question: o.cfg.Questions[i]})
	}
	o.pairs = pairs
	o.runID = run.ID
	o.batchSize = n
	o.promptVersionID = run.PromptVersionID
	o.generatorModel = run.GeneratorModel
	o.evaluatorModel = run.EvaluatorModel
	o.phase = run.Status
	if !o.phase.Terminal() {
		o.phase = model.RunStatusGenerated
	}
	o.currentIndex = -1
	o.stop = false
	phase := o.phase
	o.mu.Unlock()

	metrics.SetRunPhase(string(phase))
	o.logger.WithRun(run.ID, string(phase)).Info("run resumed", zap.Int("batch_size", n))
	o.publishPhase(run.ID, phase, n)
	return nil
}

// RecordHumanEvaluation applies a reviewer's verdict to a pair of the current
// run's working set, so a later evaluation phase keeps it. Verdicts for other
// runs are ignored. It fails with ErrRunInProgress while a phase loop runs.
func (o *Orchestrator) RecordHumanEvaluation(runID, pairID string, verdict model.CriterionEvaluation) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if runID == "" || runID != o.runID {
		return nil
	}
	if o.running {
		return ErrRunInProgress
	}
	for i := 0; i < o.batchSize; i++ {
		p := &o.pairs[i]
		if p.ID != pairID {
			continue
		}
		if p.Evaluation == nil {
			return fmt.Errorf("%w: pair %s has not been evaluated", ErrInvalidPhase, pairID)
		}
		next := p.Evaluation.Clone()
		next.HumanEvaluations = model.UpsertEvaluation(next.HumanEvaluations, verdict)
		score := model.PassRate(next.HumanEvaluations)
		next.HumanScore = &score
		p.Evaluation = next
		return nil
	}
	return nil
}

// Snapshot returns a deep copy of the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	pairs := make([]model.QAPair, len(o.pairs))
	for i, p := range o.pairs {
		pairs[i] = p.Clone()
	}
	return Snapshot{
		RunID:           o.runID,
		Phase:           o.phase,
		Running:         o.running,
		StopRequested:   o.stop,
		CurrentIndex:    o.currentIndex,
		BatchSize:       o.batchSize,
		PromptVersionID: o.promptVersionID,
		GeneratorModel:  o.generatorModel,
		EvaluatorModel:  o.evaluatorModel,
		QAPairs:         pairs,
	}
}

// Subscribe returns a channel of progress events and a function that ends the
// subscription.
func (o *Orchestrator) Subscribe() (<-chan model.ProgressEvent, func()) {
	return o.hub.subscribe()
}

// Wait blocks until the current phase loop, if any, has finished and
// persisted its run.
func (o *Orchestrator) Wait() {
	o.mu.Lock()
	done := o.done
	o.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (o *Orchestrator) isRunning() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

// beginLocked enters a working phase. Callers hold o.mu.
func (o *Orchestrator) beginLocked(phase model.RunStatus) {
	o.phase = phase
	o.stop = false
	o.running = true
	o.currentIndex = 0
	o.done = make(chan struct{})
	metrics.SetRunPhase(string(phase))
}

// next reports whether item i should run and marks it current.
func (o *Orchestrator) next(i int) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stop {
		return false
	}
	o.currentIndex = i
	return true
}

func (o *Orchestrator) pair(i int) model.QAPair {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pairs[i].Clone()
}

// update applies fn to pair i and publishes the result.
func (o *Orchestrator) update(runID string, i int, fn func(p *model.QAPair)) {
	o.mu.Lock()
	fn(&o.pairs[i])
	p := o.pairs[i].Clone()
	phase, n := o.phase, o.batchSize
	o.mu.Unlock()

	o.hub.publish(model.ProgressEvent{
		RunID:        runID,
		Phase:        phase,
		CurrentIndex: i,
		BatchSize:    n,
		Pair:         &p,
		CreatedAt:    o.cfg.Now(),
	})
}

func (o *Orchestrator) generate(ctx context.Context, runID string, gen Generator, n int) {
	log := o.logger.WithRun(runID, string(model.RunStatusGenerating))
	ctx, span := o.tracer.Start(ctx, "orchestrator.generate",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("run.batch_size", n),
		),
	)
	defer span.End()

	log.Info("generation started", zap.Int("batch_size", n))

	processed := 0
	for i := 0; i < n; i++ {
		if !o.next(i) {
			log.Info("generation stopped", zap.Int("processed", processed))
			break
		}

		answer := gen.Answer(ctx, o.pair(i).Question)
		o.update(runID, i, func(p *model.QAPair) {
			p.Answer = answer
		})
		processed++
		metrics.RecordRunItem(string(model.RunStatusGenerating), "answered")
	}
	span.SetAttributes(attribute.Int("run.processed", processed))

	run := o.finish(model.RunStatusGenerated, func(run *model.EvaluationRun) {
		run.AggregateScores = model.AggregateScores{LLM: 0}
	})
	o.persist(ctx, log, run)
	log.Info("generation finished", zap.Int("processed", processed))
	o.release(runID)
}

func (o *Orchestrator) evaluate(ctx context.Context, runID string, eval Evaluator, n int) {
	log := o.logger.WithRun(runID, string(model.RunStatusEvaluating))
	ctx, span := o.tracer.Start(ctx, "orchestrator.evaluate",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("run.batch_size", n),
		),
	)
	defer span.End()

	log.Info("evaluation started", zap.Int("batch_size", n))

	processed := 0
	for i := 0; i < n; i++ {
		p := o.pair(i)
		if !o.next(i) {
			log.Info("evaluation stopped", zap.Int("processed", processed))
			break
		}
		if p.Answer == "" {
			metrics.RecordRunItem(string(model.RunStatusEvaluating), "skipped")
			continue
		}

		evals, score := eval.EvaluateAll(ctx, p.Question, p.Answer, o.cfg.Criteria)
		o.update(runID, i, func(p *model.QAPair) {
			next := &model.Evaluation{LLMEvaluations: evals, LLMScore: score}
			if p.Evaluation != nil {
				next.HumanEvaluations = p.Evaluation.HumanEvaluations
				next.HumanScore = p.Evaluation.HumanScore
			}
			p.Evaluation = next
		})
		processed++
		metrics.RecordRunItem(string(model.RunStatusEvaluating), "evaluated")
	}
	span.SetAttributes(attribute.Int("run.processed", processed))

	run := o.finish(model.RunStatusEvaluated, func(run *model.EvaluationRun) {
		run.AggregateScores = Aggregate(run.QAPairs, o.cfg.Criteria)
	})
	o.persist(ctx, log, run)
	log.Info("evaluation finished",
		zap.Int("processed", processed),
		zap.Float64("llm_score", run.AggregateScores.LLM),
	)
	o.release(runID)
}

// finish enters the terminal phase and builds the run record from the first
// batchSize pairs. The loop stays marked running until release.
func (o *Orchestrator) finish(phase model.RunStatus, fill func(*model.EvaluationRun)) *model.EvaluationRun {
	o.mu.Lock()
	o.phase = phase
	o.currentIndex = -1
	o.stop = false

	pairs := make([]model.QAPair, o.batchSize)
	for i := range pairs {
		pairs[i] = o.pairs[i].Clone()
	}
	run := &model.EvaluationRun{
		ID:              o.runID,
		Timestamp:       o.cfg.Now().UnixMilli(),
		Status:          phase,
		PromptVersionID: o.promptVersionID,
		GeneratorModel:  o.generatorModel,
		EvaluatorModel:  o.evaluatorModel,
		QAPairs:         pairs,
	}
	o.mu.Unlock()

	fill(run)
	metrics.SetRunPhase(string(phase))
	return run
}

// persist saves run. A failed write is logged; the run still reaches its
// terminal phase.
func (o *Orchestrator) persist(ctx context.Context, log *logger.Logger, run *model.EvaluationRun) {
	if err := o.cfg.Runs.Save(ctx, run); err != nil {
		log.Error("failed to persist run", zap.Error(err))
	}
}

func (o *Orchestrator) release(runID string) {
	o.mu.Lock()
	o.running = false
	done := o.done
	phase, n := o.phase, o.batchSize
	o.mu.Unlock()

	o.publishPhase(runID, phase, n)
	close(done)
}

func (o *Orchestrator) publishPhase(runID string, phase model.RunStatus, n int) {
	o.hub.publish(model.ProgressEvent{
		RunID:        runID,
		Phase:        phase,
		CurrentIndex: -1,
		BatchSize:    n,
		CreatedAt:    o.cfg.Now(),
	})
}
