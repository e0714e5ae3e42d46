package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/talkagent/plugin/ai"
	"github.com/hrygo/talkagent/plugin/ai/intent"
	"github.com/hrygo/talkagent/plugin/ai/router"
)

var stepsCmp = cmpopts.EquateEmpty()

func newRouter(providers ...*router.MockProvider) *router.Router {
	r := router.NewRouter()
	for _, p := range providers {
		r.RegisterHandler(p)
	}
	return r
}

func TestIsMultiStep(t *testing.T) {
	assert.True(t, IsMultiStep("search for flights and then email them to Bob"))
	assert.True(t, IsMultiStep("Summarize this AND SAVE it to notes"))
	assert.True(t, IsMultiStep("open mail then reply"))
	assert.False(t, IsMultiStep("search for espresso machines"))
	assert.False(t, IsMultiStep(""))
}

func TestDecompose_GateSkipsService(t *testing.T) {
	mock := ai.NewMockGenerationService(`[{"action":"search"}]`)
	e := NewEngine(newRouter(), mock)

	in := intent.New(intent.ActionSearch, "", nil, "espresso machines", "search for espresso machines", 0.8)
	assert.Nil(t, e.Decompose(context.Background(), in, intent.EmptyContext()))
	assert.Zero(t, mock.CallCount())
}

func TestDecompose_LLM(t *testing.T) {
	mock := ai.NewMockGenerationService("```json\n" + `[
		{"action":"search","description":"Search for flights","content":"flights to Lisbon"},
		{"action":"teleport"},
		{"action":"reply","description":"Email Bob","content":7}
	]` + "\n```")
	e := NewEngine(newRouter(), mock)

	in := intent.New(intent.ActionSearch, "", nil, "flights to Lisbon", "search flights to Lisbon and then email Bob", 0.9)
	wf := e.Decompose(context.Background(), in, intent.AppContext{AppName: "Safari"})
	require.NotNil(t, wf)

	want := []Step{
		{Index: 0, Action: intent.ActionSearch, Description: "Search for flights", Content: "flights to Lisbon"},
		{Index: 1, Action: intent.ActionDictate, Description: "Step 2", Content: "flights to Lisbon", UsePreviousResult: true},
		{Index: 2, Action: intent.ActionReply, Description: "Email Bob", Content: "flights to Lisbon", UsePreviousResult: true},
	}
	if diff := cmp.Diff(want, wf.Steps, stepsCmp); diff != "" {
		t.Errorf("steps mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Multi-step", wf.Name)

	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Prompt, `Voice command: "search flights to Lisbon and then email Bob"`)
	assert.Contains(t, calls[0].Prompt, "Current app: Safari")
}

func TestDecompose_EmptyLLMResultIsNotAWorkflow(t *testing.T) {
	e := NewEngine(newRouter(), ai.NewMockGenerationService("[]"))
	in := intent.New(intent.ActionSearch, "", nil, "x", "search x and email it", 0.9)
	assert.Nil(t, e.Decompose(context.Background(), in, intent.EmptyContext()))
}

func TestDecompose_HeuristicFallback(t *testing.T) {
	in := intent.New(intent.ActionSearch, "", nil, "cheap flights", "search cheap flights and email them", 0.9)
	want := []Step{
		{Index: 0, Action: intent.ActionSearch, Description: "Search for cheap flights", Content: "cheap flights"},
		{Index: 1, Action: intent.ActionSummarize, Description: "Summarize content", UsePreviousResult: true},
		{Index: 2, Action: intent.ActionReply, Description: "Send reply", UsePreviousResult: true},
	}

	tests := []struct {
		name    string
		service ai.GenerationService
	}{
		{"no service", nil},
		{"unconfigured", ai.NewUnconfiguredService()},
		{"unparsable", ai.NewMockGenerationService("Sure! Here are the steps.")},
		{"not objects", ai.NewMockGenerationService(`["search","reply"]`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wf := NewEngine(newRouter(), tt.service).Decompose(context.Background(), in, intent.EmptyContext())
			require.NotNil(t, wf)
			assert.Equal(t, "Search and email", wf.Name)
			if diff := cmp.Diff(want, wf.Steps, stepsCmp); diff != "" {
				t.Errorf("steps mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("service error", func(t *testing.T) {
		mock := ai.NewMockGenerationService()
		mock.SetError(ai.ErrConnectionFailed)
		wf := NewEngine(newRouter(), mock).Decompose(context.Background(), in, intent.EmptyContext())
		require.NotNil(t, wf)
		assert.Len(t, wf.Steps, 3)
	})
}

func TestDecompose_SummarizeAndSave(t *testing.T) {
	in := intent.New(intent.ActionSummarize, "", nil, "this article", "summarize this article and save it to my notes", 0.9)
	wf := NewEngine(newRouter(), nil).Decompose(context.Background(), in, intent.EmptyContext())
	require.NotNil(t, wf)

	want := []Step{
		{Index: 0, Action: intent.ActionSummarize, Description: "Summarize content", Content: "this article"},
		{Index: 1, Action: intent.ActionCreate, Description: "Create note", Parameters: map[string]string{intent.ParamType: "note"}, UsePreviousResult: true},
	}
	if diff := cmp.Diff(want, wf.Steps, stepsCmp); diff != "" {
		t.Errorf("steps mismatch (-want +got):\n%s", diff)
	}
}

func TestDecompose_NoTemplate(t *testing.T) {
	in := intent.New(intent.ActionOpen, "", nil, "mail", "open mail and then wait", 0.9)
	assert.Nil(t, NewEngine(newRouter(), nil).Decompose(context.Background(), in, intent.EmptyContext()))
}

func TestExecute_HaltsOnFailure(t *testing.T) {
	search := router.NewMockProvider("search", intent.ActionSearch)
	search.Result = intent.RecoverableFailure("No query", nil, "Say what to search for")
	reply := router.NewMockProvider("reply", intent.ActionReply)

	e := NewEngine(newRouter(search, reply), nil)
	wf := newWorkflow("test", intent.Dictation("x"), SearchStep("q"), ReplyStep(""))

	result := e.Execute(context.Background(), wf, intent.EmptyContext())

	f, ok := result.(*intent.Failure)
	require.True(t, ok)
	assert.Equal(t, "Workflow failed at step 1: No query", f.Msg)
	assert.True(t, f.Recoverable)
	assert.Equal(t, "Say what to search for", f.Suggestion)
	assert.Zero(t, reply.CallCount())
}

func TestExecute_ProviderErrorIsNonRecoverable(t *testing.T) {
	search := router.NewMockProvider("search", intent.ActionSearch)
	reply := router.NewMockProvider("reply", intent.ActionReply)
	reply.Err = errors.New("mail app crashed")
	dictate := router.NewMockProvider("dictate", intent.ActionDictate)

	e := NewEngine(newRouter(search, reply, dictate), nil)
	wf := newWorkflow("test", intent.Dictation("x"),
		SearchStep("q"),
		ReplyStep("hi"),
		Step{Action: intent.ActionDictate, Content: "never"},
	)

	result := e.Execute(context.Background(), wf, intent.EmptyContext())

	f, ok := result.(*intent.Failure)
	require.True(t, ok)
	assert.Equal(t, "Workflow failed at step 2: mail app crashed", f.Msg)
	assert.False(t, f.Recoverable)
	assert.ErrorIs(t, f.Unwrap(), reply.Err)
	assert.Zero(t, dictate.CallCount())
}

func TestExecute_StepPanicNamesStep(t *testing.T) {
	summarize := router.NewMockProvider("summarize", intent.ActionSummarize)
	summarize.ExecuteFunc = func(context.Context, intent.Intent, intent.AppContext) (intent.ActionResult, error) {
		panic("boom")
	}
	create := router.NewMockProvider("create", intent.ActionCreate)

	e := NewEngine(newRouter(summarize, create), nil)
	in := intent.New(intent.ActionSummarize, "", nil, "x", "summarize x and then save note", 0.9)
	wf := e.Decompose(context.Background(), in, intent.EmptyContext())
	require.NotNil(t, wf)

	result := e.Execute(context.Background(), wf, intent.EmptyContext())

	f, ok := result.(*intent.Failure)
	require.True(t, ok)
	assert.Equal(t, "Workflow failed at step 1: workflow step panicked: boom", f.Msg)
	assert.False(t, f.Recoverable)
	assert.ErrorIs(t, f.Unwrap(), ErrStepPanic)
	assert.Zero(t, create.CallCount())

	_, running := e.Progress()
	assert.False(t, running)
}

func TestExecute_ChainsPreviousResult(t *testing.T) {
	a := router.NewMockProvider("a", intent.ActionSearch)
	a.Result = &intent.Success{Msg: "found", ResultText: "X"}
	b := router.NewMockProvider("b", intent.ActionSummarize)
	b.Result = &intent.Success{Msg: "summarized", ResultText: "short X", ShouldPaste: true}

	e := NewEngine(newRouter(a, b), nil)
	wf := newWorkflow("chain", intent.Dictation("x"),
		Step{Action: intent.ActionSearch, Content: "query"},
		Step{Action: intent.ActionSummarize, Content: "literal", UsePreviousResult: true},
	)

	result := e.Execute(context.Background(), wf, intent.EmptyContext())
	require.True(t, result.OK())
	assert.Equal(t, "summarized", result.Message())

	calls := b.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "X", calls[0].Content)
	assert.Equal(t, "X", calls[0].RawText)
	assert.Equal(t, 1.0, calls[0].Confidence)
}

func TestExecute_KeepsLiteralContentWithoutResultText(t *testing.T) {
	a := router.NewMockProvider("a", intent.ActionOpen)
	b := router.NewMockProvider("b", intent.ActionDictate)

	e := NewEngine(newRouter(a, b), nil)
	wf := newWorkflow("chain", intent.Dictation("x"),
		Step{Action: intent.ActionOpen, Content: "Notes"},
		Step{Action: intent.ActionDictate, Content: "literal", UsePreviousResult: true},
	)

	e.Execute(context.Background(), wf, intent.EmptyContext())
	require.Len(t, b.Calls(), 1)
	assert.Equal(t, "literal", b.Calls()[0].Content)
}

func TestExecute_ProgressAndEmptyWorkflow(t *testing.T) {
	a := router.NewMockProvider("a", intent.ActionSearch, intent.ActionReply)
	e := NewEngine(newRouter(a), nil)

	var seen []Progress
	e.OnProgress(func(p Progress) { seen = append(seen, p) })

	wf := newWorkflow("p", intent.Dictation("x"), SearchStep("q"), ReplyStep("r"))
	e.Execute(context.Background(), wf, intent.EmptyContext())

	want := []Progress{
		{Current: 1, Total: 2, Description: "Search for q"},
		{Current: 2, Total: 2, Description: "Send reply"},
		{Current: 2, Total: 2, Description: "Complete", Complete: true},
	}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Errorf("progress mismatch (-want +got):\n%s", diff)
	}
	_, running := e.Progress()
	assert.False(t, running)

	result := e.Execute(context.Background(), &Workflow{}, intent.EmptyContext())
	assert.True(t, result.OK())
	assert.Equal(t, "Workflow completed", result.Message())
}
