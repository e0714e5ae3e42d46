package handlers

import (
	"context"
	"fmt"
	"net/url"

	"github.com/hrygo/talkagent/plugin/ai/intent"
)

// SearchURLPrefix is the web search endpoint the query is appended to.
const SearchURLPrefix = "https://www.google.com/search?q="

// SearchHandler opens a web search for the content.
type SearchHandler struct {
	opener Opener
}

// NewSearchHandler creates a search handler.
func NewSearchHandler(opener Opener) *SearchHandler {
	return &SearchHandler{opener: opener}
}

// Name returns the handler name.
func (h *SearchHandler) Name() string { return "search" }

// SupportedActions returns search.
func (h *SearchHandler) SupportedActions() []intent.ActionType {
	return []intent.ActionType{intent.ActionSearch}
}

// Execute opens a web search for the content.
func (h *SearchHandler) Execute(ctx context.Context, in intent.Intent, _ intent.AppContext) (intent.ActionResult, error) {
	query := in.Content
	if query == "" {
		return intent.RecoverableFailure("No search query provided", nil, "Say what you want to search for"), nil
	}

	searchURL := SearchURLPrefix + url.QueryEscape(query)
	if err := h.opener.OpenURL(ctx, searchURL); err != nil {
		return intent.RecoverableFailure(
			fmt.Sprintf("Could not open search for %s", query),
			err,
			"Check that a default browser is configured",
		), nil
	}

	return &intent.Success{
		Msg:      "Searching for: " + query,
		Metadata: map[string]string{"url": searchURL, "query": query},
	}, nil
}
