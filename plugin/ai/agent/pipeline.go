package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hrygo/talkagent/internal/observability"
	"github.com/hrygo/talkagent/plugin/ai/classifier"
	"github.com/hrygo/talkagent/plugin/ai/intent"
	"github.com/hrygo/talkagent/plugin/ai/metrics"
	"github.com/hrygo/talkagent/plugin/ai/timeout"
	"github.com/hrygo/talkagent/plugin/ai/workflow"
	"github.com/hrygo/talkagent/store"
)

// Sources recorded for runs that did not take the classifier's own decision.
const (
	SourceClassifierError classifier.Source = "classifier_error"
	SourceBelowThreshold  classifier.Source = "below_threshold"
	SourceWorkflow        classifier.Source = "workflow"
)

// Config wires the pipeline. Classifier and Router are required.
type Config struct {
	Classifier classifier.Classifier
	Router     Dispatcher
	// Context defaults to a provider returning intent.EmptyContext().
	Context ContextProvider
	// Workflows enables multi-step decomposition when non-nil.
	Workflows *workflow.Engine

	ConfidenceThreshold float64
	// ResetDelay is how long the complete step stays visible before idle.
	ResetDelay time.Duration

	Runs    RunRecorder
	Metrics metrics.MetricsService
	Logger  *slog.Logger
}

// Status is a snapshot of the observable pipeline state.
type Status struct {
	Step        Step                `json:"step"`
	DisplayText string              `json:"display_text"`
	LastIntent  *intent.Intent      `json:"last_intent,omitempty"`
	LastResult  intent.ActionResult `json:"-"`
	Result      *intent.ResultView  `json:"last_result,omitempty"`
	Workflow    *workflow.Progress  `json:"workflow,omitempty"`
}

// Pipeline is the single entry point from a transcription to an ActionResult.
// Process never returns an error: every failure becomes a Failure result.
type Pipeline struct {
	classifier classifier.Classifier
	router     Dispatcher
	context    ContextProvider
	workflows  *workflow.Engine
	threshold  float64
	resetDelay time.Duration
	runs       RunRecorder
	metrics    metrics.MetricsService
	logger     *slog.Logger

	mu         sync.RWMutex
	step       Step
	lastIntent *intent.Intent
	lastResult intent.ActionResult
	observers  []Observer
	seq        uint64

	resets    sync.WaitGroup
	closeOnce sync.Once
	closed    chan struct{}
}

// NewPipeline creates a pipeline from cfg.
func NewPipeline(cfg Config) *Pipeline {
	threshold := cfg.ConfidenceThreshold
	if threshold <= 0 {
		threshold = classifier.DefaultConfidenceThreshold
	}
	resetDelay := cfg.ResetDelay
	if resetDelay <= 0 {
		resetDelay = timeout.CompletionResetDelay
	}
	contextProvider := cfg.Context
	if contextProvider == nil {
		contextProvider = StaticContext(intent.EmptyContext())
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Pipeline{
		classifier: cfg.Classifier,
		router:     cfg.Router,
		context:    contextProvider,
		workflows:  cfg.Workflows,
		threshold:  threshold,
		resetDelay: resetDelay,
		runs:       cfg.Runs,
		metrics:    cfg.Metrics,
		logger:     logger,
		step:       idleStep(),
		closed:     make(chan struct{}),
	}
}

// Subscribe registers an observer for state changes.
func (p *Pipeline) Subscribe(o Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, o)
}

// Status returns the current observable state.
func (p *Pipeline) Status() Status {
	p.mu.RLock()
	status := Status{
		Step:       p.step,
		LastResult: p.lastResult,
	}
	if p.lastIntent != nil {
		in := *p.lastIntent
		status.LastIntent = &in
	}
	p.mu.RUnlock()

	status.DisplayText = status.Step.DisplayText()
	status.Result = intent.View(status.LastResult)
	if p.workflows != nil {
		if progress, ok := p.workflows.Progress(); ok {
			status.Workflow = &progress
		}
	}
	return status
}

// Close stops pending idle resets and waits for them to exit.
func (p *Pipeline) Close() {
	p.closeOnce.Do(func() { close(p.closed) })
	p.resets.Wait()
}

// Outcome describes one completed run.
type Outcome struct {
	RunID  string              `json:"run_id"`
	Result intent.ActionResult `json:"-"`
	// Intent is the intent that was dispatched, after any dictation fallback.
	Intent intent.Intent     `json:"intent"`
	Source classifier.Source `json:"source"`
}

// Process runs one utterance through context reading, classification and dispatch.
func (p *Pipeline) Process(ctx context.Context, transcription string) intent.ActionResult {
	return p.run(ctx, transcription, p.context).Result
}

// ProcessWithContext is Process with a caller-supplied application context
// in place of the configured provider.
func (p *Pipeline) ProcessWithContext(ctx context.Context, transcription string, appCtx intent.AppContext) intent.ActionResult {
	return p.Handle(ctx, transcription, appCtx).Result
}

// Handle is ProcessWithContext returning the full outcome of the run.
func (p *Pipeline) Handle(ctx context.Context, transcription string, appCtx intent.AppContext) Outcome {
	return p.run(ctx, transcription, StaticContext(appCtx))
}

func (p *Pipeline) run(ctx context.Context, transcription string, provider ContextProvider) Outcome {
	reqCtx := observability.NewRequestContext(p.logger, "")
	ctx = observability.WithRequestContext(ctx, reqCtx)

	p.mu.Lock()
	p.seq++
	seq := p.seq
	p.mu.Unlock()

	reqCtx.Debug("pipeline started", slog.String("transcription", timeout.Truncate(transcription)))

	p.setStep(Step{Phase: PhaseReadingContext})
	appCtx := provider.ReadContext()
	reqCtx.AppID = appCtx.AppID
	reqCtx.Debug("context read", slog.String("app_name", appCtx.AppName))

	p.setStep(Step{Phase: PhaseClassifying})
	in, source := p.classify(ctx, reqCtx, transcription, appCtx)

	var result intent.ActionResult
	if wf := p.decompose(ctx, in, appCtx); wf != nil {
		source = SourceWorkflow
		reqCtx.Info("executing workflow",
			slog.String("name", wf.Name),
			slog.Int("steps", wf.StepCount()))
		p.setStep(executingStep(in.Action))
		result = p.executeWorkflow(ctx, wf, appCtx)
	} else {
		p.setStep(executingStep(in.Action))
		result = p.dispatch(ctx, reqCtx, in, appCtx)
	}

	p.mu.Lock()
	p.lastResult = result
	p.mu.Unlock()
	p.notify(func(o Observer) { o.OnResult(result) })

	p.setStep(completeStep(result.OK()))
	p.scheduleReset(seq)

	reqCtx.Info("pipeline complete",
		slog.String(observability.LogFieldAction, string(in.Action)),
		slog.String(observability.LogFieldSource, string(source)),
		slog.Bool("success", result.OK()),
		slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()))

	p.record(ctx, reqCtx, transcription, appCtx, in, source, result)
	return Outcome{
		RunID:  reqCtx.RunID,
		Result: result,
		Intent: in,
		Source: source,
	}
}

// classify never fails: a classifier error or panic yields dictation without
// updating the last intent, and low confidence yields dictation of the raw text.
func (p *Pipeline) classify(ctx context.Context, reqCtx *observability.RequestContext, text string, appCtx intent.AppContext) (intent.Intent, classifier.Source) {
	in, source, err := p.safeClassify(ctx, text, appCtx)
	if err != nil {
		reqCtx.Warn("classification failed, falling back to dictation", slog.String("error", err.Error()))
		return intent.Dictation(text), SourceClassifierError
	}

	p.mu.Lock()
	p.lastIntent = &in
	p.mu.Unlock()
	p.notify(func(o Observer) { o.OnIntent(in) })

	if !in.IsHighConfidence(p.threshold) {
		reqCtx.Debug("low confidence, falling back to dictation",
			slog.Float64("confidence", in.Confidence),
			slog.Float64("threshold", p.threshold))
		return intent.Dictation(text), SourceBelowThreshold
	}

	reqCtx.Debug("intent classified",
		slog.String(observability.LogFieldAction, string(in.Action)),
		slog.Float64("confidence", in.Confidence),
		slog.String(observability.LogFieldSource, string(source)))
	return in, source
}

func (p *Pipeline) safeClassify(ctx context.Context, text string, appCtx intent.AppContext) (in intent.Intent, source classifier.Source, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrClassifierPanic, r)
		}
	}()

	if svc, ok := p.classifier.(*classifier.Service); ok {
		in, source = svc.ClassifyWithSource(ctx, text, appCtx)
		return in, source, nil
	}
	in, err = p.classifier.Classify(ctx, text, appCtx)
	return in, "", err
}

func (p *Pipeline) decompose(ctx context.Context, in intent.Intent, appCtx intent.AppContext) (wf *workflow.Workflow) {
	if p.workflows == nil || in.Action == intent.ActionDictate {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("workflow decomposition panicked", "panic", r)
			wf = nil
		}
	}()
	return p.workflows.Decompose(ctx, in, appCtx)
}

func (p *Pipeline) executeWorkflow(ctx context.Context, wf *workflow.Workflow, appCtx intent.AppContext) (result intent.ActionResult) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %v", ErrProviderPanic, r)
			result = intent.Failed(err.Error(), err)
		}
	}()
	return p.workflows.Execute(ctx, wf, appCtx)
}

// dispatch converts router errors and provider panics into non-recoverable failures.
func (p *Pipeline) dispatch(ctx context.Context, reqCtx *observability.RequestContext, in intent.Intent, appCtx intent.AppContext) intent.ActionResult {
	result, err := p.safeRoute(ctx, in, appCtx)
	if err != nil {
		reqCtx.Error("execution error", err, slog.String(observability.LogFieldAction, string(in.Action)))
		return intent.Failed(err.Error(), err)
	}
	if result == nil {
		return intent.Failed(fmt.Sprintf("No result for action: %s", in.Action.DisplayName()), nil)
	}
	if !result.OK() {
		reqCtx.Warn("execution failed", slog.String("message", result.Message()))
	}
	return result
}

func (p *Pipeline) safeRoute(ctx context.Context, in intent.Intent, appCtx intent.AppContext) (result intent.ActionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrProviderPanic, r)
		}
	}()
	return p.router.Route(ctx, in, appCtx)
}

func (p *Pipeline) setStep(step Step) {
	p.mu.Lock()
	p.step = step
	p.mu.Unlock()
	p.notify(func(o Observer) { o.OnStep(step) })
}

func (p *Pipeline) notify(fn func(Observer)) {
	p.mu.RLock()
	observers := append([]Observer(nil), p.observers...)
	p.mu.RUnlock()
	for _, o := range observers {
		fn(o)
	}
}

// scheduleReset returns the step to idle after the reset delay unless a newer run started.
func (p *Pipeline) scheduleReset(seq uint64) {
	p.resets.Add(1)
	go func() {
		defer p.resets.Done()

		timer := time.NewTimer(p.resetDelay)
		defer timer.Stop()

		select {
		case <-p.closed:
			return
		case <-timer.C:
		}

		p.mu.Lock()
		if p.seq != seq || p.step.Phase != PhaseComplete {
			p.mu.Unlock()
			return
		}
		p.step = idleStep()
		p.mu.Unlock()
		p.notify(func(o Observer) { o.OnStep(idleStep()) })
	}()
}

// record persists the run and its metrics. Failures are logged only.
func (p *Pipeline) record(ctx context.Context, reqCtx *observability.RequestContext, transcription string, appCtx intent.AppContext, in intent.Intent, source classifier.Source, result intent.ActionResult) {
	duration := reqCtx.Duration()

	if p.metrics != nil {
		p.metrics.RecordRun(ctx, string(in.Action), string(source), duration, result.OK())
	}
	if p.runs == nil {
		return
	}

	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout.RecordTimeout)
	defer cancel()

	_, err := p.runs.CreateRun(recordCtx, &store.Run{
		UID:           reqCtx.RunID,
		Transcription: transcription,
		AppID:         appCtx.AppID,
		Action:        string(in.Action),
		Source:        string(source),
		Success:       result.OK(),
		Message:       result.Message(),
		DurationMs:    duration.Milliseconds(),
	})
	if err != nil {
		reqCtx.Warn("failed to record run", slog.String("error", err.Error()))
	}
}
