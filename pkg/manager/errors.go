package manager

import "errors"

var (
	// ErrHandlerNotFound means a declaration has no handler for a phase,
	// neither set directly nor registered in the catalog.
	ErrHandlerNotFound = errors.New("handler not found")

	// ErrInvalidHandler is returned when a registered value does not have a
	// handler signature.
	ErrInvalidHandler = errors.New("invalid handler")

	// ErrHandlerPanic wraps a panic recovered from a handler.
	ErrHandlerPanic = errors.New("handler panicked")

	// ErrNoStore is returned by New when no ConnectionStore is given.
	ErrNoStore = errors.New("connection store is required")
)
