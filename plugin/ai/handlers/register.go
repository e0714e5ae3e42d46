package handlers

import (
	"github.com/hrygo/talkagent/plugin/ai"
	"github.com/hrygo/talkagent/plugin/ai/router"
)

// RegisterDefaults registers a generic handler for every action kind.
func RegisterDefaults(r *router.Router, service ai.GenerationService, opener Opener) {
	r.RegisterHandler(DictateHandler{})
	r.RegisterHandler(NewTransformHandler(service))
	r.RegisterHandler(NewSearchHandler(opener))
	r.RegisterHandler(NewOpenHandler(opener))
	r.RegisterHandler(NewReplyHandler(service))
	r.RegisterHandler(NewCreateHandler(service))
	r.RegisterHandler(NewSummarizeHandler(service))
}
