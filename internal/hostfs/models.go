package hostfs

import (
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeEvent is one debounced filesystem change under a watched root.
type ChangeEvent struct {
	// AbsolutePath is the path fsnotify reported.
	AbsolutePath string
	// RelativePath is AbsolutePath relative to the watched root, using
	// forward slashes.
	RelativePath string
	Op           fsnotify.Op
	Time         time.Time
}

// Config configures a Scanner. The zero value is valid; DebounceDuration
// and BufferSize fall back to their Default* constants.
type Config struct {
	DebounceDuration time.Duration
	BufferSize       int
	IgnorePatterns   []string
	Log              *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.DebounceDuration == 0 {
		c.DebounceDuration = DefaultDebounceDuration
	}
	if c.BufferSize == 0 {
		c.BufferSize = DefaultBufferSize
	}
	if c.Log == nil {
		c.Log = slog.Default()
	}
	if c.IgnorePatterns == nil {
		c.IgnorePatterns = IgnoredPatterns
	}
	return c
}
