package ai

import (
	"errors"

	"github.com/hrygo/talkagent/internal/profile"
)

// Default endpoints for OpenAI-compatible providers.
const (
	DefaultOpenAIBaseURL   = "https://api.openai.com/v1"
	DefaultDeepSeekBaseURL = "https://api.deepseek.com"
	DefaultOllamaBaseURL   = "http://localhost:11434/v1"
)

// Config represents AI configuration.
type Config struct {
	Enabled bool

	LLM LLMConfig
}

// LLMConfig represents LLM configuration.
type LLMConfig struct {
	Provider    string  // openai, deepseek, ollama
	Model       string  // gpt-4o-mini
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default: 1024
	Temperature float32 // default: 0.3
	RateLimit   float64 // requests per second
}

// NewConfigFromProfile creates AI config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := &Config{
		Enabled: p.IsLLMConfigured(),
	}

	if !cfg.Enabled {
		return cfg
	}

	cfg.LLM = LLMConfig{
		Provider:    p.LLMProvider,
		Model:       p.LLMModel,
		APIKey:      p.LLMAPIKey,
		BaseURL:     p.LLMBaseURL,
		MaxTokens:   p.LLMMaxTokens,
		Temperature: p.LLMTemperature,
		RateLimit:   p.LLMRateLimit,
	}

	if cfg.LLM.BaseURL == "" {
		switch p.LLMProvider {
		case "openai":
			cfg.LLM.BaseURL = DefaultOpenAIBaseURL
		case "deepseek":
			cfg.LLM.BaseURL = DefaultDeepSeekBaseURL
		case "ollama":
			cfg.LLM.BaseURL = DefaultOllamaBaseURL
		}
	}

	return cfg
}

// IsConfigured reports whether the LLM section is usable.
func (c *LLMConfig) IsConfigured() bool {
	if c.Provider == "" || c.Model == "" {
		return false
	}
	return c.Provider == "ollama" || c.APIKey != ""
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.LLM.Provider == "" {
		return errors.New("LLM provider is required")
	}

	if c.LLM.Provider != "ollama" && c.LLM.APIKey == "" {
		return errors.New("LLM API key is required")
	}

	if c.LLM.Model == "" {
		return errors.New("LLM model is required")
	}

	return nil
}
