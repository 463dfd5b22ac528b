// Package cli wires the provider state machine and read stream into a
// small cobra-based operator surface, the way the teacher wires its
// node and discoverer into internal/cli's command constructors.
package cli

import (
	"log/slog"

	"chatfs/internal/config"
	"chatfs/internal/provider"
)

// AppContext carries the dependencies every command constructor closes
// over, mirroring the teacher's AppContext.
type AppContext struct {
	Provider *provider.Provider
	Config   *config.Config
	Log      *slog.Logger
}
