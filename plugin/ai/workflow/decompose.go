package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hrygo/talkagent/plugin/ai"
	"github.com/hrygo/talkagent/plugin/ai/intent"
	"github.com/hrygo/talkagent/plugin/ai/timeout"
)

// connectives gate decomposition; without one no decomposition is attempted.
var connectives = []string{
	"and then", "and also", "then ", "after that",
	"and email", "and send", "and save", "and create",
}

// IsMultiStep reports whether rawText contains a connective phrase.
func IsMultiStep(rawText string) bool {
	lower := strings.ToLower(rawText)
	for _, c := range connectives {
		if strings.Contains(lower, c) {
			return true
		}
	}
	return false
}

// Decompose returns the workflow encoded by in, or nil when in is a single action.
// It uses the generation service when configured and falls back to heuristic templates.
func (e *Engine) Decompose(ctx context.Context, in intent.Intent, appCtx intent.AppContext) *Workflow {
	if !IsMultiStep(in.RawText) {
		return nil
	}

	if e.service != nil && e.service.IsConfigured() {
		wf, err := e.decomposeWithLLM(ctx, in, appCtx)
		if err == nil {
			return wf
		}
		slog.Warn("LLM decomposition failed, using heuristic", "error", err)
	}

	return decomposeHeuristic(in)
}

func (e *Engine) decomposeWithLLM(ctx context.Context, in intent.Intent, appCtx intent.AppContext) (*Workflow, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout.DecompositionTimeout)
	defer cancel()

	prompt := fmt.Sprintf(ai.WorkflowDecompositionPrompt, in.RawText, appCtx.AppName)
	response, err := e.service.Enhance(ctx, in.RawText, prompt)
	if err != nil {
		return nil, err
	}

	steps, err := parseSteps(response, in)
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, nil
	}

	slog.Debug("workflow decomposed by LLM",
		"input", timeout.Truncate(in.RawText),
		"steps", len(steps))
	return newWorkflow("Multi-step", in, steps...), nil
}

// parseSteps decodes a JSON array of steps. Entries that are not objects are
// an error; missing or mistyped fields take their defaults.
func parseSteps(response string, in intent.Intent) ([]Step, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(ai.StripCodeFences(response)), &raw); err != nil {
		return nil, fmt.Errorf("decode steps: %w", err)
	}

	steps := make([]Step, 0, len(raw))
	for i, item := range raw {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(item, &fields); err != nil || fields == nil {
			return nil, fmt.Errorf("step %d is not an object", i+1)
		}

		step := Step{
			Action:            intent.ActionDictate,
			Description:       fmt.Sprintf("Step %d", i+1),
			Content:           in.Content,
			Parameters:        map[string]string{},
			UsePreviousResult: i > 0,
		}
		if s, ok := stringField(fields, "action"); ok {
			if action, ok := intent.ParseActionType(s); ok {
				step.Action = action
			}
		}
		if s, ok := stringField(fields, "description"); ok {
			step.Description = s
		}
		if s, ok := stringField(fields, "content"); ok {
			step.Content = s
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func stringField(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := fields[key]
	if !ok {
		return "", false
	}
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil || s == nil {
		return "", false
	}
	return *s, true
}

// decomposeHeuristic matches a few fixed templates against the raw text.
func decomposeHeuristic(in intent.Intent) *Workflow {
	lower := strings.ToLower(in.RawText)

	if strings.Contains(lower, "search") &&
		(strings.Contains(lower, "and email") || strings.Contains(lower, "and send")) {
		return newWorkflow("Search and email", in,
			SearchStep(in.Content),
			SummarizeStep(""),
			ReplyStep(""),
		)
	}

	if strings.Contains(lower, "summarize") && strings.Contains(lower, "note") {
		return newWorkflow("Summarize and save", in,
			SummarizeStep(in.Content),
			CreateStep("note", ""),
		)
	}

	return nil
}
