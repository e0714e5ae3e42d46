package classifier

import (
	"context"
	"log/slog"
	"time"

	"github.com/hrygo/talkagent/plugin/ai/intent"
	"github.com/hrygo/talkagent/plugin/ai/timeout"
)

// Config contains the configuration for the classification service.
type Config struct {
	// LLM is optional; a nil or unavailable classifier means rules only.
	LLM *LLMClassifier
	// ConfidenceThreshold is expected to be clamped by the configuration layer.
	ConfidenceThreshold float64
	// HeuristicSafetyNet re-checks a confident LLM "dictate" with the rules
	// and prefers a non-dictate rule match.
	HeuristicSafetyNet bool
}

// Service orchestrates the two classifiers for one utterance.
//
//  1. LLM unavailable: rule result.
//  2. LLM error or unparsable response: rule result.
//  3. LLM confidence below threshold: pure dictation of the raw text.
//  4. Otherwise: LLM result.
//
// Steps 1-2 mean "classifier unavailable" and fall back to the other
// classifier; step 3 means "classifier unsure" and falls back to the safe
// default. The two are kept separate on purpose.
type Service struct {
	rules     *RuleClassifier
	llm       *LLMClassifier
	threshold float64
	safetyNet bool
}

// NewService creates a new classification service.
func NewService(cfg Config) *Service {
	threshold := cfg.ConfidenceThreshold
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	return &Service{
		rules:     NewRuleClassifier(),
		llm:       cfg.LLM,
		threshold: threshold,
		safetyNet: cfg.HeuristicSafetyNet,
	}
}

// Threshold returns the effective confidence threshold.
func (s *Service) Threshold() float64 {
	return s.threshold
}

// Classify implements Classifier. It never returns an error.
func (s *Service) Classify(ctx context.Context, text string, appCtx intent.AppContext) (intent.Intent, error) {
	result, _ := s.ClassifyWithSource(ctx, text, appCtx)
	return result, nil
}

// ClassifyWithSource classifies text and reports which tier decided.
func (s *Service) ClassifyWithSource(ctx context.Context, text string, appCtx intent.AppContext) (intent.Intent, Source) {
	start := time.Now()

	if !s.llm.Available() {
		result := s.rules.Classify(text)
		s.logDecision(text, result, SourceRules, start)
		return result, SourceRules
	}

	result, err := s.llm.Classify(ctx, text, appCtx)
	if err != nil {
		slog.Warn("LLM classifier error, falling back to rules", "error", err)
		result = s.rules.Classify(text)
		s.logDecision(text, result, SourceRules, start)
		return result, SourceRules
	}

	if !result.IsHighConfidence(s.threshold) {
		slog.Debug("LLM classification below threshold",
			"action", result.Action,
			"confidence", result.Confidence,
			"threshold", s.threshold)
		result = intent.Dictation(text)
		s.logDecision(text, result, SourceFallback, start)
		return result, SourceFallback
	}

	if s.safetyNet && result.Action == intent.ActionDictate {
		if heuristic := s.rules.Classify(text); heuristic.Action != intent.ActionDictate {
			s.logDecision(text, heuristic, SourceRules, start)
			return heuristic, SourceRules
		}
	}

	s.logDecision(text, result, SourceLLM, start)
	return result, SourceLLM
}

func (s *Service) logDecision(text string, result intent.Intent, source Source, start time.Time) {
	slog.Debug("intent classified",
		"input", timeout.Truncate(text),
		"source", source,
		"action", result.Action,
		"confidence", result.Confidence,
		"latency_ms", time.Since(start).Milliseconds())
}
