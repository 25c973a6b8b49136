package config

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	mu    sync.Mutex
	cache = make(map[reflect.Type]any)

	dotenvOnce sync.Once
)

// Load parses environment variables into cfg. Each configuration type is
// loaded once per application lifetime; subsequent calls for the same type
// return the cached value. A .env file in the working directory is loaded
// automatically on first use; missing files are ignored.
func Load[T any](cfg *T) error {
	if cfg == nil {
		return ErrNilConfig
	}

	dotenvOnce.Do(func() {
		_ = godotenv.Load()
	})

	mu.Lock()
	defer mu.Unlock()

	t := reflect.TypeOf(*cfg)
	if cached, ok := cache[t]; ok {
		*cfg = cached.(T)
		return nil
	}

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrParseFailed, t.String(), err)
	}

	cache[t] = *cfg
	return nil
}

// MustLoad is like Load but panics on failure. Useful for application
// startup where a missing required variable should abort immediately.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
