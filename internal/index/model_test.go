package index

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGetFileCaseInsensitive(t *testing.T) {
	idx := New(time.Now())
	idx.Put(&Entry{RelativePath: "Docs/Readme.TXT", Length: 10, Hash: []byte{1, 2, 3}})

	assert.True(t, idx.FileExists("docs/readme.txt"))
	assert.True(t, idx.FileExists("DOCS/README.TXT"))

	e, err := idx.GetFile("docs/readme.txt")
	require.NoError(t, err)
	assert.Equal(t, "Docs/Readme.TXT", e.RelativePath)

	_, err = idx.GetFile("missing.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNormalizePathBackslashAndLeadingSlash(t *testing.T) {
	display, key := NormalizePath(`\sub\dir\File.txt`)
	assert.Equal(t, "sub/dir/File.txt", display)
	assert.Equal(t, "sub/dir/file.txt", key)
}

func TestCloneIsIndependent(t *testing.T) {
	idx := New(time.Now())
	idx.Put(&Entry{RelativePath: "a.txt", Length: 1, Hash: []byte{9}})

	clone := idx.Clone()
	clone.Put(&Entry{RelativePath: "b.txt", Length: 2, Hash: []byte{8}})

	assert.False(t, idx.FileExists("b.txt"))
	assert.True(t, clone.FileExists("b.txt"))
}

func TestBuildForDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.txt"), []byte("world!"), 0o644))

	idx, err := BuildForDirectory(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Len())

	a, err := idx.GetFile("a.txt")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), a.Length)
	assert.Empty(t, a.Chunks)

	b, err := idx.GetFile("sub/b.txt")
	require.NoError(t, err)
	assert.Equal(t, uint64(6), b.Length)
}
