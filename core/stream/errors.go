package stream

import "errors"

var (
	// ErrNegativeCapacity is returned when a buffered stage is constructed
	// with a negative capacity.
	ErrNegativeCapacity = errors.New("stream buffer capacity must not be negative")

	// ErrNilSource is returned when a buffered stage is constructed without
	// an upstream source.
	ErrNilSource = errors.New("stream source is nil")
)
