package router

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hrygo/talkagent/internal/observability"
	"github.com/hrygo/talkagent/plugin/ai/intent"
)

var calendarKeywords = []string{"calendar", "event", "invite", "meeting", "appointment", "schedule"}

// Router holds the registration tables and resolves providers in precedence order:
// frontmost-app integration, target-resolved integration, generic handler.
type Router struct {
	mu           sync.RWMutex
	handlers     map[intent.ActionType]Handler
	integrations map[string]Integration
	roles        map[Role]Integration

	recorder CallRecorder
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{
		handlers:     make(map[intent.ActionType]Handler),
		integrations: make(map[string]Integration),
		roles:        make(map[Role]Integration),
	}
}

// SetRecorder installs a recorder for provider calls.
func (r *Router) SetRecorder(rec CallRecorder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recorder = rec
}

// RegisterHandler registers h for each action it supports, replacing earlier handlers.
func (r *Router) RegisterHandler(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, action := range h.SupportedActions() {
		r.handlers[action] = h
	}
}

// RegisterIntegration registers i under its AppID and any variant identifiers.
// Re-registering an identifier replaces the previous entry.
func (r *Router) RegisterIntegration(i Integration, variantAppIDs ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.integrations[i.AppID()] = i
	for _, id := range variantAppIDs {
		if id != "" {
			r.integrations[id] = i
		}
	}
}

// RegisterRole makes i the integration for role.
func (r *Router) RegisterRole(role Role, i Integration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roles[role] = i
}

// HasHandler reports whether a generic handler is registered for action.
func (r *Router) HasHandler(action intent.ActionType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[action]
	return ok
}

// Resolve returns the provider that Route would invoke, or nil with TierNone.
func (r *Router) Resolve(in intent.Intent, appCtx intent.AppContext) (Provider, Tier) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.integrations[appCtx.AppID]; usable(i, in.Action) {
		return i, TierFrontmost
	}

	if role, ok := ResolveRole(in); ok {
		if i := r.roles[role]; usable(i, in.Action) {
			return i, TierTarget
		}
	}

	if h, ok := r.handlers[in.Action]; ok {
		return h, TierHandler
	}

	return nil, TierNone
}

// Route executes in with exactly one provider.
// A missing handler yields a non-recoverable Failure; provider errors are returned unchanged.
func (r *Router) Route(ctx context.Context, in intent.Intent, appCtx intent.AppContext) (intent.ActionResult, error) {
	logger := observability.LoggerFrom(ctx)
	provider, tier := r.Resolve(in, appCtx)
	if provider == nil {
		logger.Warn("no handler registered", "action", in.Action)
		return intent.Failed(fmt.Sprintf("No handler for action: %s", in.Action.DisplayName()), nil), nil
	}

	logger.Debug("routing intent",
		"action", in.Action,
		"provider", provider.Name(),
		"tier", tier)

	start := time.Now()
	result, err := provider.Execute(ctx, in, appCtx)
	latency := time.Since(start).Milliseconds()

	r.mu.RLock()
	rec := r.recorder
	r.mu.RUnlock()
	if rec != nil {
		rec.RecordProviderCall(provider.Name(), tier, in.Action, err == nil && result != nil && result.OK(), latency)
	}

	if err != nil {
		return nil, err
	}
	if result == nil {
		return intent.Failed(fmt.Sprintf("%s returned no result", provider.Name()), nil), nil
	}
	return result, nil
}

// ResolveRole picks the role an intent targets, independent of the frontmost app.
// A recognized medium parameter decides alone; otherwise the raw text is scanned.
func ResolveRole(in intent.Intent) (Role, bool) {
	switch in.Param(intent.ParamMedium) {
	case intent.MediumEmail:
		return RoleEmail, true
	case intent.MediumMessage:
		return RoleMessaging, true
	}

	lower := strings.ToLower(in.RawText)
	switch {
	case strings.Contains(lower, "email") || strings.Contains(lower, "mail"):
		return RoleEmail, true
	case strings.Contains(lower, "imessage") || strings.Contains(lower, "text message"):
		return RoleMessaging, true
	}
	for _, k := range calendarKeywords {
		if strings.Contains(lower, k) {
			return RoleCalendar, true
		}
	}
	return "", false
}
