package registry

import "errors"

var (
	// ErrInvalidArgument is returned when a required key or connection is missing.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrIllegalAssignment is returned by SetNamedConnections.
	ErrIllegalAssignment = errors.New("illegal assignment")
)
