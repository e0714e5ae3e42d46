// Package classifier turns a transcribed utterance into an intent.
//
// Three pieces cooperate: RuleClassifier (deterministic, always available),
// LLMClassifier (optional, may fail) and Service, which picks between them
// and decides when to give up and treat the utterance as plain dictation.
package classifier

import (
	"context"

	"github.com/hrygo/talkagent/plugin/ai/intent"
)

// Classifier classifies an utterance in the given application context.
type Classifier interface {
	Classify(ctx context.Context, text string, appCtx intent.AppContext) (intent.Intent, error)
}

// Source identifies which tier produced an intent.
type Source string

const (
	SourceRules    Source = "rules"
	SourceLLM      Source = "llm"
	SourceFallback Source = "dictation_fallback"
)

// DefaultConfidenceThreshold is used when Config.ConfidenceThreshold is unset.
const DefaultConfidenceThreshold = 0.7
