package sharing

// Command controls the lifecycle of the shared producer task.
type Command int

const (
	// Start launches the producer, draining the upstream stream into the
	// shared broadcast.
	Start Command = iota

	// Stop cancels the producer. Buffered values remain available.
	Stop

	// StopAndReset cancels the producer and resets the replay buffer.
	StopAndReset
)

// String returns a human-readable command name for logging.
func (c Command) String() string {
	switch c {
	case Start:
		return "start"
	case Stop:
		return "stop"
	case StopAndReset:
		return "stop_and_reset"
	default:
		return "unknown"
	}
}
