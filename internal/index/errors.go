package index

import "errors"

var (
	// ErrUnsupportedIndexVersion is returned when Deserialize sees a
	// version byte this package doesn't know how to read.
	ErrUnsupportedIndexVersion = errors.New("index: unsupported version")
	// ErrTruncated is returned when fewer bytes remain than a field needs.
	ErrTruncated = errors.New("index: truncated")
	// ErrNotFound is returned by GetFile when the path isn't in the index.
	ErrNotFound = errors.New("index: file not found")
)
