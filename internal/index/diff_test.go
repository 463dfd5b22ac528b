package index

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func buildIndex(entries map[string]struct {
	hash   byte
	length uint64
}) *Index {
	idx := New(time.Now())
	for path, e := range entries {
		idx.Put(&Entry{RelativePath: path, Length: e.length, Hash: []byte{e.hash}})
	}
	return idx
}

func TestDiffAddedDeletedModified(t *testing.T) {
	local := buildIndex(map[string]struct {
		hash   byte
		length uint64
	}{
		"a": {hash: 0x01, length: 10},
		"b": {hash: 0x02, length: 20},
	})
	remote := buildIndex(map[string]struct {
		hash   byte
		length uint64
	}{
		"a": {hash: 0x01, length: 10},
		"c": {hash: 0x03, length: 30},
	})

	d := DiffIndexes(local, remote)

	require := func(paths []*Entry) []string {
		out := make([]string, len(paths))
		for i, e := range paths {
			out[i] = e.RelativePath
		}
		return out
	}

	assert.ElementsMatch(t, []string{"b"}, require(d.Added))
	assert.ElementsMatch(t, []string{"c"}, require(d.Deleted))
	assert.Empty(t, d.Modified)
}

func TestDiffModifiedOnHashOrLength(t *testing.T) {
	local := buildIndex(map[string]struct {
		hash   byte
		length uint64
	}{"f": {hash: 0x01, length: 10}})
	remote := buildIndex(map[string]struct {
		hash   byte
		length uint64
	}{"f": {hash: 0x02, length: 10}})

	d := DiffIndexes(local, remote)
	assert.Len(t, d.Modified, 1)
	assert.Equal(t, "f", d.Modified[0].RelativePath)
	assert.Empty(t, d.Added)
	assert.Empty(t, d.Deleted)
}

func TestDiffSymmetry(t *testing.T) {
	local := buildIndex(map[string]struct {
		hash   byte
		length uint64
	}{"a": {hash: 0x01, length: 1}, "b": {hash: 0x02, length: 2}})
	remote := buildIndex(map[string]struct {
		hash   byte
		length uint64
	}{"a": {hash: 0x01, length: 1}, "c": {hash: 0x03, length: 3}})

	forward := DiffIndexes(local, remote)
	backward := DiffIndexes(remote, local)

	assert.ElementsMatch(t, pathsOf(forward.Deleted), pathsOf(backward.Added))
	assert.ElementsMatch(t, pathsOf(forward.Added), pathsOf(backward.Deleted))
}

func TestDiffSelfIsEmpty(t *testing.T) {
	idx := buildIndex(map[string]struct {
		hash   byte
		length uint64
	}{"a": {hash: 0x01, length: 1}})

	d := DiffIndexes(idx, idx.Clone())
	assert.True(t, d.Empty())
}

func pathsOf(entries []*Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.RelativePath
	}
	return out
}
