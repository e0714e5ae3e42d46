package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/talkagent/plugin/ai"
	"github.com/hrygo/talkagent/plugin/ai/intent"
	"github.com/hrygo/talkagent/plugin/ai/timeout"
)

// ErrUnparsableResponse is returned when the LLM output is not a JSON object
// or carries no numeric confidence.
var ErrUnparsableResponse = errors.New("unparsable classification response")

// LLMClassifier classifies utterances with the generation service.
type LLMClassifier struct {
	service ai.GenerationService
}

// NewLLMClassifier creates a new LLM classifier.
func NewLLMClassifier(service ai.GenerationService) *LLMClassifier {
	return &LLMClassifier{service: service}
}

// Available reports whether the generation service is configured.
func (c *LLMClassifier) Available() bool {
	return c != nil && c.service != nil && c.service.IsConfigured()
}

// Classify calls the generation service and parses its response.
// Both transport and parse failures are returned as errors.
func (c *LLMClassifier) Classify(ctx context.Context, text string, appCtx intent.AppContext) (intent.Intent, error) {
	if !c.Available() {
		return intent.Intent{}, ai.ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, timeout.ClassificationTimeout)
	defer cancel()

	start := time.Now()
	response, err := c.service.Enhance(ctx, text, buildClassificationPrompt(text, appCtx))
	if err != nil {
		return intent.Intent{}, errors.Wrap(err, "LLM classification failed")
	}

	result, err := ParseClassification(response, text)
	if err != nil {
		slog.Warn("failed to parse LLM classification",
			"response", timeout.Truncate(response),
			"error", err)
		return intent.Intent{}, err
	}

	slog.Debug("intent classified by LLM",
		"input", timeout.Truncate(text),
		"action", result.Action,
		"confidence", result.Confidence,
		"latency_ms", time.Since(start).Milliseconds())

	return result, nil
}

func buildClassificationPrompt(text string, appCtx intent.AppContext) string {
	return fmt.Sprintf("%s\n\nContext:\n%s\n\nUser said: %s",
		ai.IntentClassificationPrompt, appCtx.PromptSummary(), text)
}

// ParseClassification decodes an LLM classification response.
//
// Fields are decoded one at a time; an optional field with the wrong type or
// an unrecognized value is treated as absent. Unknown actions become dictate
// and missing content becomes rawText. confidence is required: a response
// without a numeric confidence is unparsable, not uncertain.
func ParseClassification(response, rawText string) (intent.Intent, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(ai.StripCodeFences(response)), &fields); err != nil {
		return intent.Intent{}, errors.Wrap(ErrUnparsableResponse, err.Error())
	}
	if fields == nil {
		return intent.Intent{}, ErrUnparsableResponse
	}

	action := intent.ActionDictate
	if s, ok := decodeString(fields["action"]); ok {
		if parsed, ok := intent.ParseActionType(s); ok {
			action = parsed
		}
	}

	target, _ := decodeString(fields["target"])

	content, ok := decodeString(fields["content"])
	if !ok {
		content = rawText
	}

	var confidence *float64
	if err := json.Unmarshal(fields["confidence"], &confidence); err != nil || confidence == nil {
		return intent.Intent{}, errors.Wrap(ErrUnparsableResponse, "missing numeric confidence")
	}

	return intent.New(action, target, decodeParameters(fields["parameters"]), content, rawText, min(max(*confidence, 0), 1)), nil
}

func decodeString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil || s == nil {
		return "", false
	}
	return *s, true
}

// decodeParameters keeps only string-valued entries.
func decodeParameters(raw json.RawMessage) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	var values map[string]json.RawMessage
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil
	}
	params := make(map[string]string, len(values))
	for k, v := range values {
		if s, ok := decodeString(v); ok {
			params[k] = s
		}
	}
	return params
}
