package logger

import (
	"log/slog"
	"time"
)

// Attribute helpers use the empty Attr pattern for nil safety.
// This allows calls like log.Info("msg", logger.Error(err)) without explicit
// nil checks, following the principle of making zero values useful.

// Error creates an attribute for a single error under the key "error".
// Returns empty Attr for nil errors, enabling safe usage without nil checks.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Elapsed calculates and logs the duration since the start time.
func Elapsed(start time.Time) slog.Attr {
	return slog.Duration("elapsed", time.Since(start))
}

// SubscriberID creates an attribute for broadcast subscriber identifiers.
func SubscriberID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("subscriber_id", id)
}

// SubscriberCount creates an attribute for the live subscriber count.
func SubscriberCount(n int) slog.Attr {
	return slog.Int("subscriber_count", n)
}

// Command creates an attribute for sharing lifecycle commands.
func Command(cmd string) slog.Attr {
	return slog.String("command", cmd)
}

// Policy creates an attribute for buffer overflow policies.
func Policy(p string) slog.Attr {
	return slog.String("policy", p)
}

// Baseline creates an attribute for the buffer index baseline after a reset.
func Baseline(index int64) slog.Attr {
	return slog.Int64("baseline", index)
}

// Remote creates an attribute for remote peer addresses.
func Remote(addr string) slog.Attr {
	if addr == "" {
		return slog.Attr{}
	}
	return slog.String("remote", addr)
}

// Count creates a generic counter attribute.
func Count(key string, n int) slog.Attr {
	return slog.Int(key, n)
}
