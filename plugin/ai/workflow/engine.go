package workflow

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/hrygo/talkagent/internal/observability"
	"github.com/hrygo/talkagent/plugin/ai"
	"github.com/hrygo/talkagent/plugin/ai/intent"
)

// ErrStepPanic is wrapped around a panic raised while executing a step.
var ErrStepPanic = errors.New("workflow step panicked")

// Dispatcher routes a single intent. *router.Router satisfies it.
type Dispatcher interface {
	Route(ctx context.Context, in intent.Intent, appCtx intent.AppContext) (intent.ActionResult, error)
}

// ProgressFunc observes progress updates. It must not block.
type ProgressFunc func(Progress)

// Engine decomposes and executes workflows.
type Engine struct {
	dispatcher Dispatcher
	service    ai.GenerationService
	onProgress ProgressFunc

	mu       sync.RWMutex
	progress *Progress
}

// NewEngine creates a new workflow engine. service may be nil.
func NewEngine(dispatcher Dispatcher, service ai.GenerationService) *Engine {
	return &Engine{
		dispatcher: dispatcher,
		service:    service,
	}
}

// OnProgress installs an observer for progress updates.
func (e *Engine) OnProgress(fn ProgressFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onProgress = fn
}

// Progress returns the current progress, if a workflow is executing.
func (e *Engine) Progress() (Progress, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.progress == nil {
		return Progress{}, false
	}
	return *e.progress, true
}

func (e *Engine) setProgress(p *Progress) {
	e.mu.Lock()
	e.progress = p
	fn := e.onProgress
	e.mu.Unlock()

	if fn != nil && p != nil {
		fn(*p)
	}
}

// Execute runs the steps strictly in order and returns the last step's result.
// The first failing step halts execution; its 1-based index is prepended to the message.
func (e *Engine) Execute(ctx context.Context, wf *Workflow, appCtx intent.AppContext) intent.ActionResult {
	defer e.setProgress(nil)

	if wf == nil || len(wf.Steps) == 0 {
		return intent.Succeeded("Workflow completed")
	}

	logger := observability.LoggerFrom(ctx)
	total := len(wf.Steps)
	var last intent.ActionResult

	for i, step := range wf.Steps {
		e.setProgress(&Progress{
			Current:     i + 1,
			Total:       total,
			Description: step.Description,
		})

		content := step.Content
		if step.UsePreviousResult {
			if text := intent.ResultText(last); text != "" {
				content = text
			}
		}

		params := make(map[string]string, len(step.Parameters))
		maps.Copy(params, step.Parameters)
		stepIntent := intent.New(step.Action, "", params, content, content, 1.0)

		logger.Debug("executing workflow step",
			"workflow", wf.Name,
			"step", i+1,
			"total", total,
			"action", step.Action)

		result, err := e.routeStep(ctx, stepIntent, appCtx)
		if err != nil {
			logger.Warn("workflow step failed", "step", i+1, "error", err)
			return intent.Failed(fmt.Sprintf("Workflow failed at step %d: %s", i+1, err.Error()), err)
		}
		if result == nil {
			return intent.Failed(fmt.Sprintf("Workflow failed at step %d: No result for action: %s", i+1, step.Action.DisplayName()), nil)
		}
		if f, ok := result.(*intent.Failure); ok {
			return &intent.Failure{
				Msg:         fmt.Sprintf("Workflow failed at step %d: %s", i+1, f.Msg),
				Err:         f.Err,
				Recoverable: f.Recoverable,
				Suggestion:  f.Suggestion,
			}
		}
		last = result
	}

	e.setProgress(&Progress{
		Current:     total,
		Total:       total,
		Description: "Complete",
		Complete:    true,
	})

	if last == nil {
		return intent.Succeeded("Workflow completed")
	}
	return last
}

func (e *Engine) routeStep(ctx context.Context, in intent.Intent, appCtx intent.AppContext) (result intent.ActionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("%w: %v", ErrStepPanic, r)
		}
	}()
	return e.dispatcher.Route(ctx, in, appCtx)
}
