package handlers

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/hrygo/talkagent/plugin/ai/intent"
)

// DictateHandler returns the content for pasting at the cursor.
type DictateHandler struct{}

// Name returns the handler name.
func (DictateHandler) Name() string { return "dictate" }

// SupportedActions returns dictate.
func (DictateHandler) SupportedActions() []intent.ActionType {
	return []intent.ActionType{intent.ActionDictate}
}

// Execute returns the dictated content for pasting.
func (DictateHandler) Execute(_ context.Context, in intent.Intent, _ intent.AppContext) (intent.ActionResult, error) {
	if in.Content == "" {
		return intent.RecoverableFailure("No text to dictate", nil, "Try speaking again"), nil
	}
	return &intent.Success{
		Msg:         fmt.Sprintf("Dictated %d characters", utf8.RuneCountInString(in.Content)),
		ResultText:  in.Content,
		ShouldPaste: true,
	}, nil
}
