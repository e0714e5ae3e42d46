package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Confidence threshold bounds enforced by Validate.
const (
	MinConfidenceThreshold     = 0.3
	MaxConfidenceThreshold     = 0.95
	DefaultConfidenceThreshold = 0.7
)

// Profile is the configuration to start the agent.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where talkagent stores its own data
	DSN string
	// Driver is the database driver (sqlite only)
	Driver string
	// Version is the current version of server
	Version string

	// LLM configuration
	LLMProvider    string  // TALK_LLM_PROVIDER (openai, deepseek, ollama; empty disables)
	LLMModel       string  // TALK_LLM_MODEL
	LLMAPIKey      string  // TALK_LLM_API_KEY
	LLMBaseURL     string  // TALK_LLM_BASE_URL
	LLMMaxTokens   int     // TALK_LLM_MAX_TOKENS (default: 1024)
	LLMTemperature float32 // TALK_LLM_TEMPERATURE (default: 0.3)
	LLMRateLimit   float64 // TALK_LLM_RATE_LIMIT requests per second (default: 2)

	// Agent configuration
	ConfidenceThreshold  float64       // TALK_AGENT_CONFIDENCE_THRESHOLD (default: 0.7)
	WorkflowsEnabled     bool          // TALK_AGENT_WORKFLOWS_ENABLED
	HeuristicSafetyNet   bool          // TALK_AGENT_HEURISTIC_SAFETY_NET
	CompletionResetDelay time.Duration // TALK_AGENT_COMPLETION_RESET_DELAY (default: 2s)

	// Integration app variants, e.g. extra identifiers the notes integration answers to.
	NotesAppIDs    []string // TALK_INTEGRATION_NOTES_APP_IDS
	CalendarAppIDs []string // TALK_INTEGRATION_CALENDAR_APP_IDS
	MailAppIDs     []string // TALK_INTEGRATION_MAIL_APP_IDS (added to Spark and Outlook)
	MessagesAppIDs []string // TALK_INTEGRATION_MESSAGES_APP_IDS
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsLLMConfigured returns true if a provider is selected and has credentials (ollama needs none).
func (p *Profile) IsLLMConfigured() bool {
	if p.LLMProvider == "" {
		return false
	}
	return p.LLMProvider == "ollama" || p.LLMAPIKey != ""
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("mode", "dev")
	v.SetDefault("addr", "127.0.0.1")
	v.SetDefault("port", 8787)
	v.SetDefault("data", ".")
	v.SetDefault("driver", "sqlite")
	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.rate_limit", 2.0)
	v.SetDefault("agent.confidence_threshold", DefaultConfidenceThreshold)
	v.SetDefault("agent.workflows_enabled", false)
	v.SetDefault("agent.heuristic_safety_net", false)
	v.SetDefault("agent.completion_reset_delay", 2*time.Second)
	v.SetDefault("integration.notes_app_ids", []string{})
	v.SetDefault("integration.calendar_app_ids", []string{})
	v.SetDefault("integration.mail_app_ids", []string{})
	v.SetDefault("integration.messages_app_ids", []string{})
}

// NewViper returns a viper instance reading TALK_* environment variables
// (TALK_AGENT_CONFIDENCE_THRESHOLD maps to agent.confidence_threshold).
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("talk")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// FromViper loads the profile from v, reading configFile first when it is set.
func FromViper(v *viper.Viper, configFile string) (*Profile, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", configFile)
		}
	}

	return &Profile{
		Mode:                 v.GetString("mode"),
		Addr:                 v.GetString("addr"),
		Port:                 v.GetInt("port"),
		Data:                 v.GetString("data"),
		DSN:                  v.GetString("dsn"),
		Driver:               v.GetString("driver"),
		Version:              v.GetString("version"),
		LLMProvider:          strings.ToLower(v.GetString("llm.provider")),
		LLMModel:             v.GetString("llm.model"),
		LLMAPIKey:            v.GetString("llm.api_key"),
		LLMBaseURL:           v.GetString("llm.base_url"),
		LLMMaxTokens:         v.GetInt("llm.max_tokens"),
		LLMTemperature:       float32(v.GetFloat64("llm.temperature")),
		LLMRateLimit:         v.GetFloat64("llm.rate_limit"),
		ConfidenceThreshold:  v.GetFloat64("agent.confidence_threshold"),
		WorkflowsEnabled:     v.GetBool("agent.workflows_enabled"),
		HeuristicSafetyNet:   v.GetBool("agent.heuristic_safety_net"),
		CompletionResetDelay: v.GetDuration("agent.completion_reset_delay"),
		NotesAppIDs:          v.GetStringSlice("integration.notes_app_ids"),
		CalendarAppIDs:       v.GetStringSlice("integration.calendar_app_ids"),
		MailAppIDs:           v.GetStringSlice("integration.mail_app_ids"),
		MessagesAppIDs:       v.GetStringSlice("integration.messages_app_ids"),
	}, nil
}

// ClampConfidenceThreshold bounds a user-supplied threshold to the supported range.
func ClampConfidenceThreshold(t float64) float64 {
	switch {
	case t <= 0:
		return DefaultConfidenceThreshold
	case t < MinConfidenceThreshold:
		return MinConfidenceThreshold
	case t > MaxConfidenceThreshold:
		return MaxConfidenceThreshold
	default:
		return t
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		absDir, err := filepath.Abs(dataDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "talkagent")
		} else {
			p.Data = "/var/opt/talkagent"
		}
		if _, err := os.Stat(p.Data); os.IsNotExist(err) {
			if err := os.MkdirAll(p.Data, 0770); err != nil {
				slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
				return err
			}
		}
	}
	if p.Data == "" {
		p.Data = "."
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.Driver != "sqlite" {
		return errors.Errorf("unsupported driver %q: only sqlite is supported", p.Driver)
	}
	if p.DSN == "" {
		p.DSN = filepath.Join(dataDir, fmt.Sprintf("talkagent_%s.db", p.Mode))
	}

	switch p.LLMProvider {
	case "", "openai", "deepseek", "ollama":
	default:
		return errors.Errorf("unsupported LLM provider %q", p.LLMProvider)
	}
	if p.LLMMaxTokens <= 0 {
		p.LLMMaxTokens = 1024
	}
	if p.LLMRateLimit <= 0 {
		p.LLMRateLimit = 2
	}

	clamped := ClampConfidenceThreshold(p.ConfidenceThreshold)
	if clamped != p.ConfidenceThreshold {
		slog.Warn("confidence threshold clamped",
			slog.Float64("requested", p.ConfidenceThreshold),
			slog.Float64("effective", clamped))
		p.ConfidenceThreshold = clamped
	}

	if p.CompletionResetDelay < 0 {
		p.CompletionResetDelay = 0
	}

	return nil
}
