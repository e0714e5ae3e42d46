package intent

import (
	"fmt"
	"maps"
)

// Well-known parameter keys.
const (
	ParamMedium      = "medium"
	ParamTo          = "to"
	ParamBody        = "body"
	ParamSubject     = "subject"
	ParamInstruction = "instruction"
	ParamTitle       = "title"
	ParamType        = "type"
)

// Medium values carried in ParamMedium.
const (
	MediumEmail   = "email"
	MediumMessage = "message"
)

// Intent is the classified representation of one utterance (or one workflow step).
// It is built once by a classifier or fallback constructor and treated as immutable:
// use New or Dictation, and read parameters through Param.
type Intent struct {
	Action     ActionType        `json:"action"`
	Target     string            `json:"target,omitempty"`
	Parameters map[string]string `json:"parameters,omitempty"`
	Content    string            `json:"content"`
	RawText    string            `json:"raw_text"`
	Confidence float64           `json:"confidence"`
}

// New builds an intent, copying params so later changes by the caller do not leak in.
func New(action ActionType, target string, params map[string]string, content, rawText string, confidence float64) Intent {
	cloned := make(map[string]string, len(params))
	maps.Copy(cloned, params)
	return Intent{
		Action:     action,
		Target:     target,
		Parameters: cloned,
		Content:    content,
		RawText:    rawText,
		Confidence: confidence,
	}
}

// Dictation builds the pure dictation intent used by every fallback path.
// Content is always derived from the raw text, never from a partial classification.
func Dictation(rawText string) Intent {
	return New(ActionDictate, "", nil, rawText, rawText, 1.0)
}

// Param returns the parameter value for key, or "" when absent.
func (i Intent) Param(key string) string {
	if i.Parameters == nil {
		return ""
	}
	return i.Parameters[key]
}

// IsHighConfidence reports whether the intent clears threshold.
func (i Intent) IsHighConfidence(threshold float64) bool {
	return i.Confidence >= threshold
}

// Validate checks the structural invariants of an intent.
func (i Intent) Validate() error {
	if !i.Action.Valid() {
		return fmt.Errorf("invalid action %q", i.Action)
	}
	if i.Confidence < 0 || i.Confidence > 1 {
		return fmt.Errorf("confidence %.2f out of range [0,1]", i.Confidence)
	}
	return nil
}
