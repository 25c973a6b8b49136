package sharing

import "errors"

var (
	// ErrNilUpstream is returned when a sharing session is created without
	// an upstream stream.
	ErrNilUpstream = errors.New("sharing upstream stream is nil")

	// ErrNilStrategy is returned when a nil strategy is configured.
	ErrNilStrategy = errors.New("sharing strategy is nil")

	// ErrNegativeStopTimeout is returned when WhileSubscribed is constructed
	// with a negative stop timeout.
	ErrNegativeStopTimeout = errors.New("sharing stop timeout must not be negative")

	// ErrNegativeReplayExpiration is returned when WhileSubscribed is
	// constructed with a negative replay expiration.
	ErrNegativeReplayExpiration = errors.New("sharing replay expiration must not be negative")
)
