package hostfs

import (
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	DefaultDebounceDuration = 500 * time.Millisecond
	DefaultBufferSize       = 100
)

// WatchedOps is the set of fsnotify operations a scanner reacts to.
var WatchedOps = fsnotify.Create | fsnotify.Write | fsnotify.Rename | fsnotify.Remove

// IgnoredPatterns are substrings of a path that suppress change events,
// matching the chat transport's own upload-name restrictions (spec §6)
// as well as common editor/OS scratch files.
var IgnoredPatterns = []string{
	":Zone.Identifier",
	".tmp",
	"~",
	".swp",
}
