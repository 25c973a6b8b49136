package broadcast

import "errors"

var (
	// ErrNegativeReplay is returned when a broadcaster is constructed with a
	// negative replay count.
	ErrNegativeReplay = errors.New("broadcast replay count must not be negative")

	// ErrNegativeCapacity is returned when a broadcaster is constructed with
	// a negative extra buffer capacity.
	ErrNegativeCapacity = errors.New("broadcast buffer capacity must not be negative")

	// ErrSubscriptionClosed is returned by Subscription.Next after the
	// subscription was closed, either explicitly or through its context.
	ErrSubscriptionClosed = errors.New("broadcast subscription is closed")
)
