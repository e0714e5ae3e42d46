package agent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hrygo/talkagent/plugin/ai/classifier"
	"github.com/hrygo/talkagent/plugin/ai/intent"
	"github.com/hrygo/talkagent/plugin/ai/metrics"
	"github.com/hrygo/talkagent/plugin/ai/router"
	"github.com/hrygo/talkagent/plugin/ai/workflow"
	"github.com/hrygo/talkagent/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type classifierFunc func(ctx context.Context, text string, appCtx intent.AppContext) (intent.Intent, error)

func (f classifierFunc) Classify(ctx context.Context, text string, appCtx intent.AppContext) (intent.Intent, error) {
	return f(ctx, text, appCtx)
}

func fixedIntent(in intent.Intent) classifierFunc {
	return func(context.Context, string, intent.AppContext) (intent.Intent, error) {
		return in, nil
	}
}

type recordingObserver struct {
	mu      sync.Mutex
	steps   []Step
	intents []intent.Intent
	results []intent.ActionResult
}

func (o *recordingObserver) OnStep(step Step) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.steps = append(o.steps, step)
}

func (o *recordingObserver) OnIntent(in intent.Intent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.intents = append(o.intents, in)
}

func (o *recordingObserver) OnResult(result intent.ActionResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, result)
}

func (o *recordingObserver) phases() []Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	phases := make([]Phase, 0, len(o.steps))
	for _, s := range o.steps {
		phases = append(phases, s.Phase)
	}
	return phases
}

type fakeRuns struct {
	mu   sync.Mutex
	runs []*store.Run
	err  error
}

func (f *fakeRuns) CreateRun(_ context.Context, create *store.Run) (*store.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.runs = append(f.runs, create)
	return create, nil
}

func newHandlers(actions ...intent.ActionType) (*router.Router, map[intent.ActionType]*router.MockProvider) {
	r := router.NewRouter()
	mocks := make(map[intent.ActionType]*router.MockProvider, len(actions))
	for _, a := range actions {
		m := router.NewMockProvider(string(a)+"-handler", a)
		r.RegisterHandler(m)
		mocks[a] = m
	}
	return r, mocks
}

func TestPipeline_DispatchesConfidentIntent(t *testing.T) {
	r, mocks := newHandlers(intent.ActionSearch, intent.ActionDictate)
	classified := intent.New(intent.ActionSearch, "", nil, "espresso machines", "search for espresso machines", 0.9)

	p := NewPipeline(Config{Classifier: fixedIntent(classified), Router: r, ResetDelay: time.Hour})
	defer p.Close()
	obs := &recordingObserver{}
	p.Subscribe(obs)

	result := p.Process(context.Background(), "search for espresso machines")
	require.True(t, result.OK())
	assert.Equal(t, "search-handler", result.Message())
	assert.Equal(t, 1, mocks[intent.ActionSearch].CallCount())
	assert.Zero(t, mocks[intent.ActionDictate].CallCount())

	assert.Equal(t, []Phase{PhaseReadingContext, PhaseClassifying, PhaseExecuting, PhaseComplete}, obs.phases())
	assert.Equal(t, intent.ActionSearch, obs.steps[2].Action)
	assert.True(t, obs.steps[3].Success)
	require.Len(t, obs.intents, 1)
	require.Len(t, obs.results, 1)

	status := p.Status()
	assert.Equal(t, PhaseComplete, status.Step.Phase)
	assert.Equal(t, "Done", status.DisplayText)
	require.NotNil(t, status.LastIntent)
	assert.Equal(t, intent.ActionSearch, status.LastIntent.Action)
	assert.Same(t, result, status.LastResult)
}

func TestPipeline_LowConfidenceFallsBackToDictation(t *testing.T) {
	r, mocks := newHandlers(intent.ActionCreate, intent.ActionDictate)
	raw := "create a meeting with Bob tomorrow"
	classified := intent.New(intent.ActionCreate, "", nil, "meeting with Bob", raw, 0.4)

	p := NewPipeline(Config{Classifier: fixedIntent(classified), Router: r, ConfidenceThreshold: 0.7, ResetDelay: time.Hour})
	defer p.Close()

	result := p.Process(context.Background(), raw)
	require.True(t, result.OK())
	assert.Zero(t, mocks[intent.ActionCreate].CallCount())

	calls := mocks[intent.ActionDictate].Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, raw, calls[0].Content)
	assert.Equal(t, raw, calls[0].RawText)

	// the classified intent stays observable even though dictation ran
	status := p.Status()
	require.NotNil(t, status.LastIntent)
	assert.Equal(t, intent.ActionCreate, status.LastIntent.Action)
}

func TestPipeline_ClassifierErrorFallsBackToDictation(t *testing.T) {
	r, mocks := newHandlers(intent.ActionDictate)
	failing := classifierFunc(func(context.Context, string, intent.AppContext) (intent.Intent, error) {
		return intent.Intent{}, errors.New("model offline")
	})

	p := NewPipeline(Config{Classifier: failing, Router: r, ResetDelay: time.Hour})
	defer p.Close()
	obs := &recordingObserver{}
	p.Subscribe(obs)

	result := p.Process(context.Background(), "hello there")
	require.True(t, result.OK())
	require.Len(t, mocks[intent.ActionDictate].Calls(), 1)
	assert.Equal(t, "hello there", mocks[intent.ActionDictate].Calls()[0].Content)

	assert.Nil(t, p.Status().LastIntent)
	assert.Empty(t, obs.intents)
}

func TestPipeline_ClassifierPanicFallsBackToDictation(t *testing.T) {
	r, mocks := newHandlers(intent.ActionDictate)
	panicking := classifierFunc(func(context.Context, string, intent.AppContext) (intent.Intent, error) {
		panic("boom")
	})

	p := NewPipeline(Config{Classifier: panicking, Router: r, ResetDelay: time.Hour})
	defer p.Close()

	result := p.Process(context.Background(), "hello there")
	assert.True(t, result.OK())
	assert.Equal(t, 1, mocks[intent.ActionDictate].CallCount())
	assert.Nil(t, p.Status().LastIntent)
}

func TestPipeline_NoHandler(t *testing.T) {
	r, _ := newHandlers(intent.ActionDictate)
	classified := intent.New(intent.ActionOpen, "Xcode", nil, "Xcode", "open Xcode", 0.95)

	p := NewPipeline(Config{Classifier: fixedIntent(classified), Router: r, ResetDelay: time.Hour})
	defer p.Close()

	result := p.Process(context.Background(), "open Xcode")
	failure, ok := result.(*intent.Failure)
	require.True(t, ok)
	assert.Equal(t, "No handler for action: Open", failure.Msg)
	assert.False(t, failure.Recoverable)
	assert.Equal(t, "Failed", p.Status().DisplayText)
}

func TestPipeline_ExecutionErrorBecomesFailure(t *testing.T) {
	r, mocks := newHandlers(intent.ActionSearch)
	mocks[intent.ActionSearch].Err = errors.New("browser unavailable")
	classified := intent.New(intent.ActionSearch, "", nil, "news", "search news", 0.9)

	p := NewPipeline(Config{Classifier: fixedIntent(classified), Router: r, ResetDelay: time.Hour})
	defer p.Close()

	result := p.Process(context.Background(), "search news")
	failure, ok := result.(*intent.Failure)
	require.True(t, ok)
	assert.Equal(t, "browser unavailable", failure.Msg)
	assert.False(t, failure.Recoverable)
	assert.EqualError(t, failure.Err, "browser unavailable")
}

func TestPipeline_ProviderPanicBecomesFailure(t *testing.T) {
	r, mocks := newHandlers(intent.ActionSearch)
	mocks[intent.ActionSearch].ExecuteFunc = func(context.Context, intent.Intent, intent.AppContext) (intent.ActionResult, error) {
		panic("nil map")
	}
	classified := intent.New(intent.ActionSearch, "", nil, "news", "search news", 0.9)

	p := NewPipeline(Config{Classifier: fixedIntent(classified), Router: r, ResetDelay: time.Hour})
	defer p.Close()

	result := p.Process(context.Background(), "search news")
	failure, ok := result.(*intent.Failure)
	require.True(t, ok)
	assert.ErrorIs(t, failure.Err, ErrProviderPanic)
	assert.Equal(t, PhaseComplete, p.Status().Step.Phase)
}

func TestPipeline_ContextReachesProviders(t *testing.T) {
	r, mocks := newHandlers(intent.ActionSummarize)
	var seen intent.AppContext
	mocks[intent.ActionSummarize].ExecuteFunc = func(_ context.Context, _ intent.Intent, appCtx intent.AppContext) (intent.ActionResult, error) {
		seen = appCtx
		return intent.Succeeded("ok"), nil
	}
	appCtx := intent.AppContext{AppID: "com.apple.Safari", AppName: "Safari", SelectedText: "long article"}
	classified := intent.New(intent.ActionSummarize, "", nil, "", "summarize this", 0.9)

	p := NewPipeline(Config{
		Classifier: fixedIntent(classified),
		Router:     r,
		Context:    StaticContext(appCtx),
		ResetDelay: time.Hour,
	})
	defer p.Close()

	p.Process(context.Background(), "summarize this")
	assert.Equal(t, appCtx, seen)
}

func TestPipeline_ResetsToIdle(t *testing.T) {
	r, _ := newHandlers(intent.ActionDictate)
	p := NewPipeline(Config{Classifier: fixedIntent(intent.Dictation("hi")), Router: r, ResetDelay: 10 * time.Millisecond})
	defer p.Close()
	obs := &recordingObserver{}
	p.Subscribe(obs)

	p.Process(context.Background(), "hi")
	require.Eventually(t, func() bool {
		return p.Status().Step.Phase == PhaseIdle
	}, time.Second, 5*time.Millisecond)

	phases := obs.phases()
	assert.Equal(t, PhaseIdle, phases[len(phases)-1])
	assert.Equal(t, "", p.Status().DisplayText)
}

func TestPipeline_ResetSkippedWhenNewerRunStarted(t *testing.T) {
	r, mocks := newHandlers(intent.ActionDictate)
	p := NewPipeline(Config{Classifier: classifierFunc(func(_ context.Context, text string, _ intent.AppContext) (intent.Intent, error) {
		return intent.Dictation(text), nil
	}), Router: r, ResetDelay: 20 * time.Millisecond})
	defer p.Close()

	p.Process(context.Background(), "first")

	release := make(chan struct{})
	mocks[intent.ActionDictate].ExecuteFunc = func(context.Context, intent.Intent, intent.AppContext) (intent.ActionResult, error) {
		<-release
		return intent.Succeeded("second"), nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Process(context.Background(), "second")
	}()

	require.Eventually(t, func() bool {
		return p.Status().Step.Phase == PhaseExecuting
	}, time.Second, time.Millisecond)
	// the first run's reset fires while the second is still executing
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, PhaseExecuting, p.Status().Step.Phase)

	close(release)
	<-done
}

func TestPipeline_CloseCancelsPendingReset(t *testing.T) {
	r, _ := newHandlers(intent.ActionDictate)
	p := NewPipeline(Config{Classifier: fixedIntent(intent.Dictation("hi")), Router: r, ResetDelay: time.Hour})

	p.Process(context.Background(), "hi")
	p.Close()
	p.Close()
	assert.Equal(t, PhaseComplete, p.Status().Step.Phase)
}

func TestPipeline_RecordsRuns(t *testing.T) {
	r, mocks := newHandlers(intent.ActionSearch)
	mocks[intent.ActionSearch].Result = intent.Succeeded("Searching for news")
	runs := &fakeRuns{}
	m := metrics.NewMockMetricsService()
	r.SetRecorder(m)

	p := NewPipeline(Config{
		Classifier: classifier.NewService(classifier.Config{}),
		Router:     r,
		Context:    StaticContext(intent.AppContext{AppID: "com.apple.Safari"}),
		Runs:       runs,
		Metrics:    m,
		ResetDelay: time.Hour,
	})
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.Process(ctx, "search for news")

	require.Len(t, runs.runs, 1)
	run := runs.runs[0]
	assert.NotEmpty(t, run.UID)
	assert.Equal(t, "search for news", run.Transcription)
	assert.Equal(t, "com.apple.Safari", run.AppID)
	assert.Equal(t, string(intent.ActionSearch), run.Action)
	assert.Equal(t, string(classifier.SourceRules), run.Source)
	assert.True(t, run.Success)
	assert.Equal(t, "Searching for news", run.Message)

	require.Len(t, m.Runs(), 1)
	assert.Equal(t, "rules", m.Runs()[0].Source)
	require.Len(t, m.ProviderCalls(), 1)
	assert.Equal(t, router.TierHandler, m.ProviderCalls()[0].Tier)
}

func TestPipeline_RecordFailureDoesNotFailRun(t *testing.T) {
	r, _ := newHandlers(intent.ActionDictate)
	p := NewPipeline(Config{
		Classifier: fixedIntent(intent.Dictation("hi")),
		Router:     r,
		Runs:       &fakeRuns{err: errors.New("disk full")},
		ResetDelay: time.Hour,
	})
	defer p.Close()

	assert.True(t, p.Process(context.Background(), "hi").OK())
}

func TestPipeline_ExecutesWorkflow(t *testing.T) {
	r, mocks := newHandlers(intent.ActionSummarize, intent.ActionCreate, intent.ActionDictate)
	mocks[intent.ActionSummarize].Result = &intent.Success{Msg: "Summarized", ResultText: "short version"}
	mocks[intent.ActionCreate].Result = intent.Succeeded(`Note "short version" created`)
	m := metrics.NewMockMetricsService()

	raw := "summarize this and save it to notes"
	classified := intent.New(intent.ActionSummarize, "", nil, "the article", raw, 0.9)
	p := NewPipeline(Config{
		Classifier: fixedIntent(classified),
		Router:     r,
		Workflows:  workflow.NewEngine(r, nil),
		Metrics:    m,
		ResetDelay: time.Hour,
	})
	defer p.Close()

	result := p.Process(context.Background(), raw)
	require.True(t, result.OK())
	assert.Equal(t, `Note "short version" created`, result.Message())

	creates := mocks[intent.ActionCreate].Calls()
	require.Len(t, creates, 1)
	assert.Equal(t, "short version", creates[0].Content)
	assert.Equal(t, "note", creates[0].Param(intent.ParamType))

	require.Len(t, m.Runs(), 1)
	assert.Equal(t, string(SourceWorkflow), m.Runs()[0].Source)
	assert.Nil(t, p.Status().Workflow)
}

func TestPipeline_WorkflowFailureNamesStep(t *testing.T) {
	r, mocks := newHandlers(intent.ActionSummarize, intent.ActionCreate)
	mocks[intent.ActionSummarize].Result = intent.Failed("Nothing to summarize", nil)

	raw := "summarize this and save it to notes"
	classified := intent.New(intent.ActionSummarize, "", nil, "", raw, 0.9)
	p := NewPipeline(Config{
		Classifier: fixedIntent(classified),
		Router:     r,
		Workflows:  workflow.NewEngine(r, nil),
		ResetDelay: time.Hour,
	})
	defer p.Close()

	result := p.Process(context.Background(), raw)
	assert.False(t, result.OK())
	assert.Equal(t, "Workflow failed at step 1: Nothing to summarize", result.Message())
	assert.Zero(t, mocks[intent.ActionCreate].CallCount())
}

func TestPipeline_WorkflowStepPanicNamesStep(t *testing.T) {
	r, mocks := newHandlers(intent.ActionSummarize, intent.ActionCreate)
	mocks[intent.ActionSummarize].ExecuteFunc = func(context.Context, intent.Intent, intent.AppContext) (intent.ActionResult, error) {
		panic("boom")
	}

	raw := "summarize this and save it to notes"
	p := NewPipeline(Config{
		Classifier: fixedIntent(intent.New(intent.ActionSummarize, "", nil, "this", raw, 0.9)),
		Router:     r,
		Workflows:  workflow.NewEngine(r, nil),
		ResetDelay: time.Hour,
	})
	defer p.Close()

	result := p.Process(context.Background(), raw)
	f, ok := result.(*intent.Failure)
	require.True(t, ok)
	assert.Equal(t, "Workflow failed at step 1: workflow step panicked: boom", f.Msg)
	assert.False(t, f.Recoverable)
	assert.Zero(t, mocks[intent.ActionCreate].CallCount())
}

func TestPipeline_DictationSkipsWorkflow(t *testing.T) {
	r, mocks := newHandlers(intent.ActionDictate)
	raw := "I went home and then I slept"

	p := NewPipeline(Config{
		Classifier: fixedIntent(intent.Dictation(raw)),
		Router:     r,
		Workflows:  workflow.NewEngine(r, nil),
		ResetDelay: time.Hour,
	})
	defer p.Close()

	assert.True(t, p.Process(context.Background(), raw).OK())
	assert.Equal(t, 1, mocks[intent.ActionDictate].CallCount())
}

func TestStep_DisplayText(t *testing.T) {
	tests := []struct {
		step Step
		want string
	}{
		{idleStep(), ""},
		{Step{Phase: PhaseReadingContext}, "Reading context..."},
		{Step{Phase: PhaseClassifying}, "Understanding command..."},
		{executingStep(intent.ActionSearch), "Executing: Search..."},
		{completeStep(true), "Done"},
		{completeStep(false), "Failed"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.step.DisplayText(), tt.step.Phase)
	}
}
