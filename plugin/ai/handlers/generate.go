package handlers

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hrygo/talkagent/plugin/ai"
	"github.com/hrygo/talkagent/plugin/ai/intent"
)

// generator wraps the generation service for handlers that rewrite text.
type generator struct {
	service ai.GenerationService
}

// generate runs prompt over text and builds the paste-ready success, or a recoverable failure.
func (g generator) generate(ctx context.Context, text, prompt, okMsg, failMsg string, metadata map[string]string) intent.ActionResult {
	if g.service == nil {
		return intent.RecoverableFailure(failMsg+": "+ai.ErrNotConfigured.Error(), ai.ErrNotConfigured, LLMSuggestion)
	}
	out, err := g.service.Enhance(ctx, text, prompt)
	if err != nil {
		return intent.RecoverableFailure(fmt.Sprintf("%s: %v", failMsg, err), err, LLMSuggestion)
	}
	return &intent.Success{
		Msg:         okMsg,
		ResultText:  out,
		ShouldPaste: true,
		Metadata:    metadata,
	}
}

// selectedOrContent prefers the selected text of the frontmost app.
func selectedOrContent(in intent.Intent, appCtx intent.AppContext) string {
	if appCtx.SelectedText != "" {
		return appCtx.SelectedText
	}
	return in.Content
}

// TransformHandler rewrites selected or dictated text.
type TransformHandler struct{ generator }

// NewTransformHandler creates a transform handler.
func NewTransformHandler(service ai.GenerationService) *TransformHandler {
	return &TransformHandler{generator{service}}
}

// Name returns the handler name.
func (h *TransformHandler) Name() string { return "transform" }

// SupportedActions returns transform.
func (h *TransformHandler) SupportedActions() []intent.ActionType {
	return []intent.ActionType{intent.ActionTransform}
}

// Execute rewrites the selected text, or the content, following the instruction.
func (h *TransformHandler) Execute(ctx context.Context, in intent.Intent, appCtx intent.AppContext) (intent.ActionResult, error) {
	text := selectedOrContent(in, appCtx)
	if text == "" {
		return intent.RecoverableFailure("No text to transform", ErrNoSelectedText,
			"Select some text or dictate the text you want to transform"), nil
	}

	instruction := in.Param(intent.ParamInstruction)
	if instruction == "" {
		instruction = in.Target
	}

	prompt := ai.EnhancementPrompt
	switch {
	case strings.EqualFold(strings.TrimSpace(instruction), "formal"):
		prompt = ai.FormalPrompt
	case instruction != "":
		prompt = ai.EnhancementPrompt + "\n\nAdditional instruction: " + instruction
	}

	return h.generate(ctx, text, prompt, "Text transformed", "Failed to transform text", nil), nil
}

// ReplyHandler drafts a reply, email-formatted when an email client is frontmost.
type ReplyHandler struct{ generator }

// NewReplyHandler creates a reply handler.
func NewReplyHandler(service ai.GenerationService) *ReplyHandler {
	return &ReplyHandler{generator{service}}
}

// Name returns the handler name.
func (h *ReplyHandler) Name() string { return "reply" }

// SupportedActions returns reply.
func (h *ReplyHandler) SupportedActions() []intent.ActionType {
	return []intent.ActionType{intent.ActionReply}
}

// Execute drafts a reply, email-formatted when an email client is frontmost or the medium is email.
func (h *ReplyHandler) Execute(ctx context.Context, in intent.Intent, appCtx intent.AppContext) (intent.ActionResult, error) {
	if in.Content == "" {
		return intent.RecoverableFailure("No reply content provided", nil, "Say what you want to reply with"), nil
	}

	prompt := ai.EnhancementPrompt
	if appCtx.IsEmailClient() || in.Param(intent.ParamMedium) == intent.MediumEmail {
		prompt = ai.EmailReplyPrompt
	}

	return h.generate(ctx, in.Content, prompt, "Reply generated", "Failed to generate reply", nil), nil
}

// CreateHandler formats dictated content as a new item (note by default).
type CreateHandler struct{ generator }

// NewCreateHandler creates a create handler.
func NewCreateHandler(service ai.GenerationService) *CreateHandler {
	return &CreateHandler{generator{service}}
}

// Name returns the handler name.
func (h *CreateHandler) Name() string { return "create" }

// SupportedActions returns create.
func (h *CreateHandler) SupportedActions() []intent.ActionType {
	return []intent.ActionType{intent.ActionCreate}
}

// Execute formats the content as a new item of ItemType(in).
func (h *CreateHandler) Execute(ctx context.Context, in intent.Intent, _ intent.AppContext) (intent.ActionResult, error) {
	if in.Content == "" {
		return intent.RecoverableFailure("No content provided for creation", nil,
			"Describe what you want to create"), nil
	}

	itemType := ItemType(in)
	return h.generate(ctx, in.Content,
		fmt.Sprintf(ai.CreationPromptTemplate, itemType),
		capitalize(itemType)+" created",
		"Failed to create "+itemType,
		map[string]string{intent.ParamType: itemType},
	), nil
}

// ItemType returns the kind of item a create intent asks for.
// The target wins, then the "type" parameter set by workflow steps, then "note".
func ItemType(in intent.Intent) string {
	if in.Target != "" {
		return in.Target
	}
	if t := in.Param(intent.ParamType); t != "" {
		return t
	}
	return "note"
}

// SummarizeHandler summarizes selected or dictated text.
type SummarizeHandler struct{ generator }

// NewSummarizeHandler creates a summarize handler.
func NewSummarizeHandler(service ai.GenerationService) *SummarizeHandler {
	return &SummarizeHandler{generator{service}}
}

// Name returns the handler name.
func (h *SummarizeHandler) Name() string { return "summarize" }

// SupportedActions returns summarize.
func (h *SummarizeHandler) SupportedActions() []intent.ActionType {
	return []intent.ActionType{intent.ActionSummarize}
}

// Execute summarizes the selected text, or the content.
func (h *SummarizeHandler) Execute(ctx context.Context, in intent.Intent, appCtx intent.AppContext) (intent.ActionResult, error) {
	text := selectedOrContent(in, appCtx)
	if text == "" {
		return intent.RecoverableFailure("No text to summarize", ErrNoSelectedText,
			"Select some text or provide content to summarize"), nil
	}
	return h.generate(ctx, text, ai.SummarizationPrompt, "Text summarized", "Failed to summarize", nil), nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
