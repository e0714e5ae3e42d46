// Package handlers provides the generic action handlers, one per action kind.
package handlers

import "errors"

// Action errors attached to Failure results.
var (
	// ErrNoSelectedText indicates there was neither selected nor dictated text to act on.
	ErrNoSelectedText = errors.New("no text is selected in the active application")

	// ErrInvalidParameters indicates the intent could not be turned into an action.
	ErrInvalidParameters = errors.New("invalid parameters")

	// ErrAppNotFound indicates the application to open could not be located.
	ErrAppNotFound = errors.New("application not found")

	// ErrIntegrationNotAvailable indicates an integration's backing service is missing.
	ErrIntegrationNotAvailable = errors.New("integration is not available")
)

// LLMSuggestion is the suggestion attached to failures caused by the generation service.
const LLMSuggestion = "Check that your LLM provider is configured and running"
