package domain

import "errors"

// ErrEmptyRoster is returned when a cycle is requested without any agent.
var ErrEmptyRoster = errors.New("agent roster is empty")

// ErrMissingAgentID is returned when an agent in a request has no identifier.
var ErrMissingAgentID = errors.New("agent id is required")

// ErrDuplicateAgent is returned when two agents in a roster share an identifier.
var ErrDuplicateAgent = errors.New("duplicate agent id")

// ErrUnknownStation is returned when a caller references a station absent from the current snapshot.
var ErrUnknownStation = errors.New("unknown station")

// ErrEmptyPath is returned when a reroute is applied without a path.
var ErrEmptyPath = errors.New("path is empty")

// ErrFeedUnavailable marks a risk feed that could not answer.
var ErrFeedUnavailable = errors.New("risk feed unavailable")

// IsCallerError reports whether err is caused by an invalid request rather than an engine fault.
func IsCallerError(err error) bool {
	return errors.Is(err, ErrEmptyRoster) ||
		errors.Is(err, ErrMissingAgentID) ||
		errors.Is(err, ErrDuplicateAgent) ||
		errors.Is(err, ErrUnknownStation) ||
		errors.Is(err, ErrEmptyPath)
}
