package main

import (
	"context"
	"log/slog"
	"slices"

	"github.com/pkg/errors"

	"github.com/hrygo/talkagent/internal/profile"
	"github.com/hrygo/talkagent/plugin/ai"
	"github.com/hrygo/talkagent/plugin/ai/agent"
	"github.com/hrygo/talkagent/plugin/ai/classifier"
	"github.com/hrygo/talkagent/plugin/ai/handlers"
	"github.com/hrygo/talkagent/plugin/ai/integration/calendar"
	"github.com/hrygo/talkagent/plugin/ai/integration/mail"
	"github.com/hrygo/talkagent/plugin/ai/integration/messages"
	"github.com/hrygo/talkagent/plugin/ai/integration/notes"
	"github.com/hrygo/talkagent/plugin/ai/metrics"
	"github.com/hrygo/talkagent/plugin/ai/router"
	"github.com/hrygo/talkagent/plugin/ai/workflow"
	"github.com/hrygo/talkagent/store"
	"github.com/hrygo/talkagent/store/db"
)

// app holds the wired components shared by serve and run.
type app struct {
	profile  *profile.Profile
	store    *store.Store
	metrics  *metrics.Service
	pipeline *agent.Pipeline
}

// newApp opens and migrates the store and assembles the pipeline.
func newApp(ctx context.Context, p *profile.Profile, opener handlers.Opener) (*app, error) {
	dbDriver, err := db.NewDBDriver(p)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	storeInstance := store.New(dbDriver, p)
	if err := storeInstance.Migrate(ctx); err != nil {
		storeInstance.Close()
		return nil, errors.Wrap(err, "failed to migrate")
	}

	aiConfig := ai.NewConfigFromProfile(p)
	if err := aiConfig.Validate(); err != nil {
		storeInstance.Close()
		return nil, errors.Wrap(err, "invalid LLM configuration")
	}
	service, err := ai.NewGenerationService(&aiConfig.LLM)
	if err != nil {
		storeInstance.Close()
		return nil, errors.Wrap(err, "failed to create generation service")
	}
	if service.IsConfigured() {
		slog.Info("LLM classification enabled", "provider", aiConfig.LLM.Provider, "model", aiConfig.LLM.Model)
	} else {
		slog.Info("LLM not configured, using rule-based classification only")
	}

	metricsService := metrics.NewService(metrics.DefaultRetention)

	r := router.NewRouter()
	r.SetRecorder(metricsService)
	handlers.RegisterDefaults(r, service, opener)

	r.RegisterIntegration(notes.New(storeInstance), p.NotesAppIDs...)
	calendarIntegration := calendar.New(storeInstance, service)
	r.RegisterIntegration(calendarIntegration, p.CalendarAppIDs...)
	r.RegisterRole(router.RoleCalendar, calendarIntegration)

	mailIntegration := mail.New(storeInstance, service)
	r.RegisterIntegration(mailIntegration, append(slices.Clone(mail.VariantAppIDs), p.MailAppIDs...)...)
	r.RegisterRole(router.RoleEmail, mailIntegration)

	messagesIntegration := messages.New(storeInstance)
	r.RegisterIntegration(messagesIntegration, p.MessagesAppIDs...)
	r.RegisterRole(router.RoleMessaging, messagesIntegration)

	var engine *workflow.Engine
	if p.WorkflowsEnabled {
		engine = workflow.NewEngine(r, service)
	}

	classifierService := classifier.NewService(classifier.Config{
		LLM:                 classifier.NewLLMClassifier(service),
		ConfidenceThreshold: p.ConfidenceThreshold,
		HeuristicSafetyNet:  p.HeuristicSafetyNet,
	})

	pipeline := agent.NewPipeline(agent.Config{
		Classifier:          classifierService,
		Router:              r,
		Workflows:           engine,
		ConfidenceThreshold: p.ConfidenceThreshold,
		ResetDelay:          p.CompletionResetDelay,
		Runs:                storeInstance,
		Metrics:             metricsService,
	})

	return &app{
		profile:  p,
		store:    storeInstance,
		metrics:  metricsService,
		pipeline: pipeline,
	}, nil
}

// Close stops the pipeline and closes the store.
func (a *app) Close() error {
	a.pipeline.Close()
	return a.store.Close()
}
