package errors

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIError_HTTPStatus(t *testing.T) {
	tests := []struct {
		err  *APIError
		want int
	}{
		{InvalidArgument("transcription is required"), http.StatusBadRequest},
		{PipelineBusy(), http.StatusConflict},
		{RateLimitExceeded("slow down"), http.StatusTooManyRequests},
		{ServiceUnavailable("store closed"), http.StatusServiceUnavailable},
		{ContextCanceled(context.Canceled), 499},
		{Internal("boom", nil), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestAPIError_Error(t *testing.T) {
	assert.Equal(t, "[INVALID_ARGUMENT] bad input", InvalidArgument("bad input").Error())

	err := Internal("failed to list runs", fmt.Errorf("database is locked"))
	assert.Equal(t, "[INTERNAL] failed to list runs: database is locked", err.Error())
	assert.EqualError(t, err.Unwrap(), "database is locked")
}

func TestAPIError_WithContext(t *testing.T) {
	err := InvalidArgument("invalid limit").WithContext("limit", "abc")
	assert.Equal(t, map[string]any{"limit": "abc"}, err.Context)
}

func TestIsCode(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", PipelineBusy())
	assert.True(t, IsCode(wrapped, ErrCodePipelineBusy))
	assert.False(t, IsCode(wrapped, ErrCodeInternal))
	assert.False(t, IsCode(fmt.Errorf("plain"), ErrCodePipelineBusy))

	assert.Equal(t, ErrCodePipelineBusy, GetCodeFromError(wrapped, ErrCodeInternal))
	assert.Equal(t, ErrCodeInternal, GetCodeFromError(fmt.Errorf("plain"), ErrCodeInternal))
}
