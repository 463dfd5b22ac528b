// Package index implements the serializable directory-tree model that
// sits between a local mirror and the remote chat-service-backed store:
// one entry per file, an ordered chunk list per entry, and differencing
// semantics between any two snapshots.
//
// The index is not safe for concurrent mutation; callers that need a
// stable point-in-time view take a Clone.
package index

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Version is the only on-wire index format version this package writes
// and the only one Deserialize accepts.
const Version uint8 = 0x01

var fold = cases.Fold()

// FileChunk is one attachment backing a portion of a file's content.
type FileChunk struct {
	URL  string
	Size uint32
}

// Entry describes one regular file tracked by the index.
type Entry struct {
	RelativePath string
	Length       uint64
	ModTime      time.Time
	Hash         []byte
	Chunks       []FileChunk
}

// Clone returns a deep copy of e.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	out := &Entry{
		RelativePath: e.RelativePath,
		Length:       e.Length,
		ModTime:      e.ModTime,
		Hash:         append([]byte(nil), e.Hash...),
		Chunks:       append([]FileChunk(nil), e.Chunks...),
	}
	return out
}

// Index is an in-memory directory snapshot: a set of Entry values keyed
// by a case-insensitive, forward-slash-normalized relative path.
type Index struct {
	BuiltAt time.Time
	entries map[string]*Entry
}

// New returns an empty index stamped with the given build time.
func New(builtAt time.Time) *Index {
	return &Index{BuiltAt: builtAt, entries: make(map[string]*Entry)}
}

// NormalizePath rewrites path to use forward slashes, strips any leading
// slash, and returns both the normalized display form and the
// case-folded lookup key.
func NormalizePath(path string) (display, key string) {
	display = strings.ReplaceAll(path, "\\", "/")
	display = strings.TrimLeft(display, "/")
	return display, fold.String(display)
}

// Put inserts or replaces the entry for e.RelativePath.
func (idx *Index) Put(e *Entry) {
	display, key := NormalizePath(e.RelativePath)
	clone := e.Clone()
	clone.RelativePath = display
	idx.entries[key] = clone
}

// GetFile returns the entry for path, or ErrNotFound.
func (idx *Index) GetFile(path string) (*Entry, error) {
	_, key := NormalizePath(path)
	e, ok := idx.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	return e.Clone(), nil
}

// FileExists reports whether path is present in the index.
func (idx *Index) FileExists(path string) bool {
	_, key := NormalizePath(path)
	_, ok := idx.entries[key]
	return ok
}

// Entries returns every entry in the index, order unspecified.
func (idx *Index) Entries() []*Entry {
	out := make([]*Entry, 0, len(idx.entries))
	for _, e := range idx.entries {
		out = append(out, e.Clone())
	}
	return out
}

// Len reports the number of entries in the index.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Clone returns a deep, independent copy of idx.
func (idx *Index) Clone() *Index {
	out := New(idx.BuiltAt)
	for k, e := range idx.entries {
		out.entries[k] = e.Clone()
	}
	return out
}

// Equal reports whether idx and other have the same BuiltAt and contain
// the same entries (structural equality).
func (idx *Index) Equal(other *Index) bool {
	if other == nil || !idx.BuiltAt.Equal(other.BuiltAt) || len(idx.entries) != len(other.entries) {
		return false
	}
	for k, e := range idx.entries {
		oe, ok := other.entries[k]
		if !ok || !entriesEqual(e, oe) {
			return false
		}
	}
	return true
}

func entriesEqual(a, b *Entry) bool {
	if a.RelativePath != b.RelativePath || a.Length != b.Length || !a.ModTime.Equal(b.ModTime) {
		return false
	}
	if len(a.Hash) != len(b.Hash) {
		return false
	}
	for i := range a.Hash {
		if a.Hash[i] != b.Hash[i] {
			return false
		}
	}
	if len(a.Chunks) != len(b.Chunks) {
		return false
	}
	for i := range a.Chunks {
		if a.Chunks[i] != b.Chunks[i] {
			return false
		}
	}
	return true
}
