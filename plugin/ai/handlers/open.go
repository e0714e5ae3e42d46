package handlers

import (
	"context"
	"fmt"
	"net/url"

	"github.com/hrygo/talkagent/plugin/ai/intent"
)

// OpenHandler opens a URL or an application by name.
type OpenHandler struct {
	opener Opener
}

// NewOpenHandler creates an open handler.
func NewOpenHandler(opener Opener) *OpenHandler {
	return &OpenHandler{opener: opener}
}

// Name returns the handler name.
func (h *OpenHandler) Name() string { return "open" }

// SupportedActions returns open.
func (h *OpenHandler) SupportedActions() []intent.ActionType {
	return []intent.ActionType{intent.ActionOpen}
}

// Execute opens the target as a URL when it has a scheme, otherwise as an application.
func (h *OpenHandler) Execute(ctx context.Context, in intent.Intent, _ intent.AppContext) (intent.ActionResult, error) {
	target := in.Target
	if target == "" {
		target = in.Content
	}
	if target == "" {
		return intent.RecoverableFailure("No app or URL specified", nil,
			"Say the name of the app or URL you want to open"), nil
	}

	if u, err := url.Parse(target); err == nil && u.Scheme != "" {
		if err := h.opener.OpenURL(ctx, target); err != nil {
			return intent.RecoverableFailure(fmt.Sprintf("Could not open %s: %v", target, err), err,
				"Check that the URL is correct"), nil
		}
		return &intent.Success{
			Msg:      "Opened " + target,
			Metadata: map[string]string{"url": target},
		}, nil
	}

	if err := h.opener.OpenApplication(ctx, target); err != nil {
		return intent.RecoverableFailure(fmt.Sprintf("Could not open %s: %v", target, err), err,
			"Make sure the app name is correct and the app is installed"), nil
	}
	return &intent.Success{
		Msg:      "Opened " + target,
		Metadata: map[string]string{"app": target},
	}, nil
}
