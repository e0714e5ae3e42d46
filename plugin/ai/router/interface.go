// Package router dispatches a classified intent to exactly one capability provider.
package router

import (
	"context"
	"slices"

	"github.com/hrygo/talkagent/plugin/ai/intent"
)

// Provider is a capability provider: something that can execute intents.
// Execute may return an error; callers above the router convert it into a Failure.
type Provider interface {
	// Name identifies the provider in logs and metrics.
	Name() string
	// SupportedActions returns the closed set of actions the provider executes.
	SupportedActions() []intent.ActionType
	// Execute performs the intent.
	Execute(ctx context.Context, in intent.Intent, appCtx intent.AppContext) (intent.ActionResult, error)
}

// Handler is a provider not scoped to any application. One handler serves each action kind.
type Handler interface {
	Provider
}

// Integration is a provider scoped to one or more application identifiers.
type Integration interface {
	Provider
	// AppID is the primary application identifier the integration is registered under.
	AppID() string
	// Available reports whether the integration can execute right now.
	Available() bool
}

// Role names a kind of application an utterance can target regardless of the frontmost app.
type Role string

const (
	RoleEmail     Role = "email"
	RoleMessaging Role = "messaging"
	RoleCalendar  Role = "calendar"
)

// Tier is the precedence level that selected a provider.
type Tier string

const (
	TierFrontmost Tier = "frontmost_integration"
	TierTarget    Tier = "target_integration"
	TierHandler   Tier = "handler"
	TierNone      Tier = "none"
)

// CallRecorder receives one record per provider execution.
type CallRecorder interface {
	RecordProviderCall(provider string, tier Tier, action intent.ActionType, success bool, latencyMs int64)
}

// Supports reports whether p declares support for action.
func Supports(p Provider, action intent.ActionType) bool {
	return slices.Contains(p.SupportedActions(), action)
}

// usable applies the availability and support gate shared by both integration tiers.
func usable(i Integration, action intent.ActionType) bool {
	return i != nil && i.Available() && Supports(i, action)
}
