package ai

import (
	"errors"
	"fmt"
)

// LLMErrorCode classifies generation service failures.
type LLMErrorCode string

const (
	CodeNotConfigured    LLMErrorCode = "NOT_CONFIGURED"
	CodeConnectionFailed LLMErrorCode = "CONNECTION_FAILED"
	CodeRequestFailed    LLMErrorCode = "REQUEST_FAILED"
	CodeInvalidResponse  LLMErrorCode = "INVALID_RESPONSE"
	CodeNoContent        LLMErrorCode = "NO_CONTENT"
)

// LLMError is returned by GenerationService implementations.
type LLMError struct {
	Code    LLMErrorCode
	Message string
	Cause   error
}

func (e *LLMError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *LLMError) Unwrap() error {
	return e.Cause
}

// Is matches another *LLMError with the same code, so the sentinels below work with errors.Is.
func (e *LLMError) Is(target error) bool {
	t, ok := target.(*LLMError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrNotConfigured    = &LLMError{Code: CodeNotConfigured, Message: "LLM provider is not configured"}
	ErrConnectionFailed = &LLMError{Code: CodeConnectionFailed, Message: "failed to connect to LLM service"}
	ErrRequestFailed    = &LLMError{Code: CodeRequestFailed, Message: "request failed"}
	ErrInvalidResponse  = &LLMError{Code: CodeInvalidResponse, Message: "invalid response from LLM"}
	ErrNoContent        = &LLMError{Code: CodeNoContent, Message: "no content in LLM response"}
)

// NewLLMError creates a new LLMError.
func NewLLMError(code LLMErrorCode, message string, cause error) *LLMError {
	return &LLMError{Code: code, Message: message, Cause: cause}
}

// ErrorCode extracts the LLMErrorCode from err, or "" when err is not an LLMError.
func ErrorCode(err error) LLMErrorCode {
	var llmErr *LLMError
	if errors.As(err, &llmErr) {
		return llmErr.Code
	}
	return ""
}
