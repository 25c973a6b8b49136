package sharing

import "time"

// Config holds environment-based configuration for sharing sessions.
// Designed for loading through the config package.
type Config struct {
	Replay         int `env:"SHARING_REPLAY" envDefault:"0"`
	BufferCapacity int `env:"SHARING_BUFFER_CAPACITY" envDefault:"64"`

	// WhileSubscribed configuration. A nil ReplayExpiration keeps the
	// replay buffer forever after the producer stops.
	StopTimeout      time.Duration  `env:"SHARING_STOP_TIMEOUT" envDefault:"0s"`
	ReplayExpiration *time.Duration `env:"SHARING_REPLAY_EXPIRATION"`
}

// DefaultConfig returns sensible defaults for production use.
func DefaultConfig() Config {
	return Config{
		Replay:         0,
		BufferCapacity: DefaultBufferCapacity,
		StopTimeout:    0,
	}
}

// NewWhileSubscribedFromConfig builds a WhileSubscribed strategy from
// configuration. Validation mirrors NewWhileSubscribed.
func NewWhileSubscribedFromConfig(cfg Config) (*WhileSubscribed, error) {
	opts := []WhileSubscribedOption{}
	if cfg.ReplayExpiration != nil {
		opts = append(opts, WithReplayExpiration(*cfg.ReplayExpiration))
	}
	return NewWhileSubscribed(cfg.StopTimeout, opts...)
}

// OptionsFromConfig translates the buffer-related configuration into share
// options. Additional options can override the config values:
//
//	shared, err := sharing.Share(ctx, upstream,
//	    append(sharing.OptionsFromConfig(cfg), sharing.WithStrategy(ws))...,
//	)
func OptionsFromConfig(cfg Config) []ShareOption {
	return []ShareOption{
		WithReplay(cfg.Replay),
		WithBufferCapacity(cfg.BufferCapacity),
	}
}
