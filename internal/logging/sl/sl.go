// Package sl provides small slog helpers shared across the project's
// packages.
package sl

import "log/slog"

// Err wraps err under the conventional "error" attribute key, so every
// log call site writes log.Error("...", sl.Err(err)) instead of
// repeating the key by hand.
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}
