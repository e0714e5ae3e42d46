package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hrygo/talkagent/internal/profile"
	"github.com/hrygo/talkagent/plugin/ai/agent"
	"github.com/hrygo/talkagent/plugin/ai/handlers"
	"github.com/hrygo/talkagent/plugin/ai/intent"
	"github.com/hrygo/talkagent/plugin/ai/timeout"
	"github.com/hrygo/talkagent/server"
)

const version = "0.1.0"

var (
	v          = profile.NewViper()
	configFile string
	verbose    bool

	rootCmd = &cobra.Command{
		Use:   "talkagent",
		Short: `A voice command agent that turns transcriptions into desktop actions.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := loadProfile()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), p)
		},
	}

	runCmd = &cobra.Command{
		Use:   "run [utterance]",
		Short: "Process one utterance and print the result as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProfile()
			if err != nil {
				return err
			}
			appCtx, err := contextFromFlags(cmd)
			if err != nil {
				return err
			}
			return runOnce(cmd, p, strings.Join(args, " "), appCtx, handlers.NewExecOpener())
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().String("mode", "dev", `mode of the agent, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("dsn", "", "database source name")
	rootCmd.PersistentFlags().String("llm-provider", "", "LLM provider: openai, deepseek or ollama")
	rootCmd.PersistentFlags().String("llm-model", "", "LLM model name")
	rootCmd.PersistentFlags().Float64("confidence-threshold", profile.DefaultConfidenceThreshold, "minimum LLM confidence before falling back to dictation")
	rootCmd.PersistentFlags().Bool("workflows", false, "decompose multi-step commands")

	serveCmd.Flags().String("addr", "127.0.0.1", "address of server")
	serveCmd.Flags().Int("port", 8787, "port of server")

	runCmd.Flags().String("app-id", "", "bundle identifier of the frontmost application")
	runCmd.Flags().String("app-name", "", "name of the frontmost application")
	runCmd.Flags().String("window-title", "", "title of the focused window")
	runCmd.Flags().String("selected-text", "", "text currently selected")
	runCmd.Flags().String("url", "", "URL shown in the frontmost browser")

	bindings := map[string]string{
		"mode":                       "mode",
		"data":                       "data",
		"dsn":                        "dsn",
		"llm.provider":               "llm-provider",
		"llm.model":                  "llm-model",
		"agent.confidence_threshold": "confidence-threshold",
		"agent.workflows_enabled":    "workflows",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
	if err := v.BindPFlag("addr", serveCmd.Flags().Lookup("addr")); err != nil {
		panic(err)
	}
	if err := v.BindPFlag("port", serveCmd.Flags().Lookup("port")); err != nil {
		panic(err)
	}
	v.SetDefault("version", version)

	rootCmd.AddCommand(serveCmd, runCmd)
}

func loadProfile() (*profile.Profile, error) {
	p, err := profile.FromViper(v, configFile)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func contextFromFlags(cmd *cobra.Command) (intent.AppContext, error) {
	appCtx := intent.EmptyContext()
	for flag, dst := range map[string]*string{
		"app-id":        &appCtx.AppID,
		"app-name":      &appCtx.AppName,
		"window-title":  &appCtx.WindowTitle,
		"selected-text": &appCtx.SelectedText,
		"url":           &appCtx.URL,
	} {
		value, err := cmd.Flags().GetString(flag)
		if err != nil {
			return intent.AppContext{}, err
		}
		if value != "" {
			*dst = value
		}
	}
	return appCtx, nil
}

func serve(ctx context.Context, p *profile.Profile) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a, err := newApp(ctx, p, handlers.NewExecOpener())
	if err != nil {
		return err
	}

	s := server.NewServer(p, a.store, a.pipeline, a.metrics)
	if err := s.Start(ctx); err != nil {
		a.Close()
		return err
	}
	printGreetings(p, s.Addr())

	c := make(chan os.Signal, 1)
	// Trigger graceful shutdown on SIGINT or SIGTERM.
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-c:
		slog.Info("received signal, shutting down", "signal", sig.String())
	case <-ctx.Done():
	}

	a.pipeline.Close()
	s.Shutdown(context.Background())
	return nil
}

// runResult is the JSON printed by the run command.
type runResult struct {
	agent.Outcome
	Result *intent.ResultView `json:"result"`
}

func runOnce(cmd *cobra.Command, p *profile.Profile, utterance string, appCtx intent.AppContext, opener handlers.Opener) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout.PipelineTimeout)
	defer cancel()

	a, err := newApp(ctx, p, opener)
	if err != nil {
		return err
	}
	defer a.Close()

	outcome := a.pipeline.Handle(ctx, utterance, appCtx)
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(runResult{Outcome: outcome, Result: intent.View(outcome.Result)}); err != nil {
		return err
	}
	if !outcome.Result.OK() {
		cmd.SilenceUsage = true
		return fmt.Errorf("%s", outcome.Result.Message())
	}
	return nil
}

func printGreetings(p *profile.Profile, addr string) {
	fmt.Printf("talkagent %s started successfully!\n", version)
	fmt.Printf("Data directory: %s\n", p.Data)
	fmt.Printf("Database: %s\n", p.DSN)
	fmt.Printf("Mode: %s\n", p.Mode)
	fmt.Printf("Listening on: http://%s\n", addr)
	if p.IsLLMConfigured() {
		fmt.Printf("LLM: %s (%s)\n", p.LLMProvider, p.LLMModel)
	} else {
		fmt.Println("LLM: not configured, rule-based classification only")
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
