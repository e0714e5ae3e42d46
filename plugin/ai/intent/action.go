// Package intent defines the canonical representation of what the user wants:
// the action kind, the classified intent, the application context snapshot and
// the result of executing an action.
package intent

import "strings"

// ActionType is the closed set of action kinds an utterance can resolve to.
type ActionType string

const (
	// ActionDictate pastes the spoken text at the cursor. It is the safe default.
	ActionDictate ActionType = "dictate"
	// ActionTransform rewrites selected or dictated text.
	ActionTransform ActionType = "transform"
	// ActionSearch searches the web.
	ActionSearch ActionType = "search"
	// ActionOpen opens an application, file or URL.
	ActionOpen ActionType = "open"
	// ActionReply drafts a reply to an email or message.
	ActionReply ActionType = "reply"
	// ActionCreate creates a note, event, reminder or document.
	ActionCreate ActionType = "create"
	// ActionSummarize summarizes the current content.
	ActionSummarize ActionType = "summarize"
)

// AllActions lists every action kind in declaration order.
var AllActions = []ActionType{
	ActionDictate,
	ActionTransform,
	ActionSearch,
	ActionOpen,
	ActionReply,
	ActionCreate,
	ActionSummarize,
}

// ParseActionType maps a loosely formatted action name onto the closed set.
// The second return value is false when the name is not recognized.
func ParseActionType(s string) (ActionType, bool) {
	a := ActionType(strings.ToLower(strings.TrimSpace(s)))
	if a.Valid() {
		return a, true
	}
	return ActionDictate, false
}

// Valid reports whether a is one of the known action kinds.
func (a ActionType) Valid() bool {
	switch a {
	case ActionDictate, ActionTransform, ActionSearch, ActionOpen,
		ActionReply, ActionCreate, ActionSummarize:
		return true
	default:
		return false
	}
}

// DisplayName returns the human-readable action name.
func (a ActionType) DisplayName() string {
	switch a {
	case ActionDictate:
		return "Dictate"
	case ActionTransform:
		return "Transform"
	case ActionSearch:
		return "Search"
	case ActionOpen:
		return "Open"
	case ActionReply:
		return "Reply"
	case ActionCreate:
		return "Create"
	case ActionSummarize:
		return "Summarize"
	default:
		return string(a)
	}
}

func (a ActionType) String() string {
	return string(a)
}
