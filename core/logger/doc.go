// Package logger provides slog attribute helpers for the logging done across
// this module.
//
// Helpers follow the empty Attr pattern for nil safety: a nil error or an
// empty identifier yields an empty attribute that slog drops silently, so
// call sites never need conditional logging:
//
//	log.Info("shared producer stopped",
//	    logger.Error(err), // omitted when err is nil
//	    logger.Elapsed(start),
//	)
//
// The helpers cover the recurring fields of this module: errors, elapsed
// time, subscriber identifiers and counts, sharing commands, overflow
// policies, buffer baselines, remote peer addresses, and generic counters.
package logger
