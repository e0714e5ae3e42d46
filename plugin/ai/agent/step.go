package agent

import (
	"fmt"

	"github.com/hrygo/talkagent/plugin/ai/intent"
)

// Phase is the coarse stage of a pipeline run.
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseReadingContext Phase = "reading_context"
	PhaseClassifying    Phase = "classifying"
	PhaseExecuting      Phase = "executing"
	PhaseComplete       Phase = "complete"
)

// Step is the observable pipeline state.
// Action is set only while executing; Success only once complete.
type Step struct {
	Phase   Phase             `json:"phase"`
	Action  intent.ActionType `json:"action,omitempty"`
	Success bool              `json:"success,omitempty"`
}

func idleStep() Step { return Step{Phase: PhaseIdle} }
func executingStep(action intent.ActionType) Step { return Step{Phase: PhaseExecuting, Action: action} }
func completeStep(success bool) Step { return Step{Phase: PhaseComplete, Success: success} }

// DisplayText is the short status line shown by a progress indicator.
func (s Step) DisplayText() string {
	switch s.Phase {
	case PhaseReadingContext:
		return "Reading context..."
	case PhaseClassifying:
		return "Understanding command..."
	case PhaseExecuting:
		return fmt.Sprintf("Executing: %s...", s.Action.DisplayName())
	case PhaseComplete:
		if s.Success {
			return "Done"
		}
		return "Failed"
	default:
		return ""
	}
}
