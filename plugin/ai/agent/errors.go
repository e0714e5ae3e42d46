package agent

import "errors"

var (
	// ErrProviderPanic is wrapped around a panic raised while dispatching.
	ErrProviderPanic = errors.New("capability provider panicked")

	// ErrClassifierPanic is wrapped around a panic raised by the classifier.
	ErrClassifierPanic = errors.New("classifier panicked")
)
