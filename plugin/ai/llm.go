package ai

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/hrygo/talkagent/plugin/ai/timeout"
)

// GenerationService turns text plus an instructional prompt into generated text.
// Enhance returns *LLMError values (match them with errors.Is against ErrNotConfigured etc.).
type GenerationService interface {
	// IsConfigured reports whether Enhance may be called.
	IsConfigured() bool

	// Enhance runs prompt as the system instruction over text.
	Enhance(ctx context.Context, text, prompt string) (string, error)
}

type openAIGenerationService struct {
	client      *openai.Client
	limiter     *rate.Limiter
	model       string
	maxTokens   int
	temperature float32
}

// NewGenerationService creates a GenerationService from cfg.
// openai, deepseek and ollama are all served through their OpenAI-compatible endpoints.
// An unconfigured cfg yields a service whose IsConfigured is false.
func NewGenerationService(cfg *LLMConfig) (GenerationService, error) {
	if cfg == nil || !cfg.IsConfigured() {
		return unconfiguredService{}, nil
	}

	switch cfg.Provider {
	case "openai", "deepseek", "ollama":
	default:
		return nil, NewLLMError(CodeNotConfigured, "unsupported LLM provider: "+cfg.Provider, nil)
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		// Ollama ignores the key but the client always sends the header.
		apiKey = "ollama"
	}
	clientConfig := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	return &openAIGenerationService{
		client:      openai.NewClientWithConfig(clientConfig),
		limiter:     rate.NewLimiter(limit, 1),
		model:       cfg.Model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
	}, nil
}

func (s *openAIGenerationService) IsConfigured() bool {
	return true
}

func (s *openAIGenerationService) Enhance(ctx context.Context, text, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout.GenerationTimeout)
	defer cancel()

	if err := s.limiter.Wait(ctx); err != nil {
		return "", NewLLMError(CodeRequestFailed, "rate limiter", err)
	}

	req := openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: prompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
	}

	start := time.Now()
	resp, err := s.client.CreateChatCompletion(ctx, req)
	latency := time.Since(start)
	if err != nil {
		slog.Warn("generation request failed",
			"model", s.model,
			"error", err,
			"latency_ms", latency.Milliseconds())
		return "", classifyRequestError(err)
	}

	if len(resp.Choices) == 0 {
		return "", NewLLMError(CodeInvalidResponse, "empty choices", nil)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrNoContent
	}

	slog.Debug("generation completed",
		"model", s.model,
		"input", timeout.Truncate(text),
		"latency_ms", latency.Milliseconds(),
		"tokens", resp.Usage.TotalTokens)

	return content, nil
}

// classifyRequestError maps go-openai and transport errors onto LLMError codes.
func classifyRequestError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return NewLLMError(CodeRequestFailed, apiErr.Message, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return NewLLMError(CodeRequestFailed, reqErr.Error(), err)
	}

	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) {
		return NewLLMError(CodeConnectionFailed, "failed to connect to LLM service", err)
	}

	return NewLLMError(CodeRequestFailed, "request failed", err)
}

type unconfiguredService struct{}

// NewUnconfiguredService returns a GenerationService that is never configured.
func NewUnconfiguredService() GenerationService {
	return unconfiguredService{}
}

func (unconfiguredService) IsConfigured() bool { return false }

func (unconfiguredService) Enhance(context.Context, string, string) (string, error) {
	return "", ErrNotConfigured
}

// StripCodeFences removes markdown code fences wrapped around an LLM response.
func StripCodeFences(response string) string {
	cleaned := strings.TrimSpace(response)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}
