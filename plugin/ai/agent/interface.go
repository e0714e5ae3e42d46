// Package agent is the pipeline façade: it reads the application context,
// classifies the utterance, dispatches the intent and publishes progress.
package agent

import (
	"context"

	"github.com/hrygo/talkagent/plugin/ai/intent"
	"github.com/hrygo/talkagent/store"
)

// ContextProvider reads the frontmost application. It must not fail:
// missing data or permissions yield intent.EmptyContext().
type ContextProvider interface {
	ReadContext() intent.AppContext
}

// ContextProviderFunc adapts a function to ContextProvider.
type ContextProviderFunc func() intent.AppContext

func (f ContextProviderFunc) ReadContext() intent.AppContext { return f() }

// StaticContext always returns the same snapshot.
func StaticContext(appCtx intent.AppContext) ContextProvider {
	return ContextProviderFunc(func() intent.AppContext { return appCtx })
}

// Dispatcher routes a single intent. *router.Router satisfies it.
type Dispatcher interface {
	Route(ctx context.Context, in intent.Intent, appCtx intent.AppContext) (intent.ActionResult, error)
}

// Observer receives pipeline state changes. Calls are push-only and must not block.
type Observer interface {
	OnStep(step Step)
	OnIntent(in intent.Intent)
	OnResult(result intent.ActionResult)
}

// RunRecorder persists run records. *store.Store satisfies it.
type RunRecorder interface {
	CreateRun(ctx context.Context, create *store.Run) (*store.Run, error)
}
