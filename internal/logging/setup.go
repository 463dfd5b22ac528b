// Package logging builds the process-wide *slog.Logger from a
// configured environment name, the same three-environment switch the
// teacher's cmd/app.go uses.
package logging

import (
	"log/slog"
	"os"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// Setup returns a logger appropriate for env: colorless debug text
// locally, structured JSON in dev and prod (debug level in dev, info
// in prod). Unrecognized env values fall back to EnvProd's handler.
func Setup(env string) *slog.Logger {
	switch env {
	case EnvLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case EnvDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
}
