// Package config provides type-safe environment variable loading with caching
// using Go generics. Each configuration type is loaded once and cached for
// subsequent calls.
//
// The package automatically loads .env files on first use and uses the
// caarlos0/env library for parsing environment variables into struct fields.
//
// Basic usage:
//
//	import "github.com/dmitrymomot/flowkit/core/config"
//
//	type AppConfig struct {
//		RedisURL    string        `env:"REDIS_URL,required"`
//		Replay      int           `env:"SHARING_REPLAY" envDefault:"0"`
//		StopTimeout time.Duration `env:"SHARING_STOP_TIMEOUT" envDefault:"30s"`
//	}
//
//	func main() {
//		var cfg AppConfig
//
//		// Load with error handling
//		if err := config.Load(&cfg); err != nil {
//			log.Fatal(err)
//		}
//
//		// Or panic on failure (useful for startup)
//		config.MustLoad(&cfg)
//	}
//
// # Caching Behavior
//
// Each configuration type is loaded only once per application lifetime:
//
//	var cfg1 AppConfig
//	config.Load(&cfg1) // Loads from environment
//
//	var cfg2 AppConfig
//	config.Load(&cfg2) // Returns cached value, cfg1 == cfg2
//
// Different types are cached independently, so the integration adapters'
// Config structs (redis.Config, sharing.Config) can each be loaded through
// this package without stepping on each other.
package config
