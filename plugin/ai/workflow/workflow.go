// Package workflow decomposes multi-step utterances and executes the steps in order.
package workflow

import (
	"fmt"

	"github.com/hrygo/talkagent/plugin/ai/intent"
)

// Workflow is an ordered list of steps derived from one intent.
// A workflow always has at least one step.
type Workflow struct {
	Name   string        `json:"name"`
	Steps  []Step        `json:"steps"`
	Intent intent.Intent `json:"intent"`
}

// StepCount returns the number of steps.
func (w *Workflow) StepCount() int {
	return len(w.Steps)
}

// Step is one action of a workflow.
type Step struct {
	Index       int               `json:"index"`
	Action      intent.ActionType `json:"action"`
	Description string            `json:"description"`
	Content     string            `json:"content"`
	Parameters  map[string]string `json:"parameters,omitempty"`
	// UsePreviousResult substitutes Content with the previous step's result text
	// when the previous step succeeded with one.
	UsePreviousResult bool `json:"use_previous_result"`
}

// Progress is the externally observable execution state.
type Progress struct {
	Current     int    `json:"current_step"`
	Total       int    `json:"total_steps"`
	Description string `json:"description"`
	Complete    bool   `json:"complete"`
}

// SearchStep searches for query.
func SearchStep(query string) Step {
	return Step{
		Action:      intent.ActionSearch,
		Description: "Search for " + query,
		Content:     query,
	}
}

// SummarizeStep summarizes text, or the previous result when text is empty.
func SummarizeStep(text string) Step {
	return Step{
		Action:            intent.ActionSummarize,
		Description:       "Summarize content",
		Content:           text,
		UsePreviousResult: text == "",
	}
}

// CreateStep creates an item of itemType, from the previous result when content is empty.
func CreateStep(itemType, content string) Step {
	return Step{
		Action:            intent.ActionCreate,
		Description:       fmt.Sprintf("Create %s", itemType),
		Content:           content,
		Parameters:        map[string]string{intent.ParamType: itemType},
		UsePreviousResult: content == "",
	}
}

// ReplyStep sends a reply, from the previous result when content is empty.
func ReplyStep(content string) Step {
	return Step{
		Action:            intent.ActionReply,
		Description:       "Send reply",
		Content:           content,
		UsePreviousResult: content == "",
	}
}

func newWorkflow(name string, in intent.Intent, steps ...Step) *Workflow {
	for i := range steps {
		steps[i].Index = i
	}
	return &Workflow{Name: name, Steps: steps, Intent: in}
}
