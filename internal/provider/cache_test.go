package provider

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatfs/internal/index"
)

func TestCacheSaveLoadLastKnownIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := OpenCache(path)
	require.NoError(t, err)
	defer c.Close()

	idx := index.New(time.Unix(100, 0).UTC())
	idx.Put(&index.Entry{RelativePath: "a.txt", Length: 5, Hash: []byte{1, 2}})

	require.NoError(t, c.SaveLastKnownIndex(idx))

	loaded, err := c.LoadLastKnownIndex()
	require.NoError(t, err)
	assert.True(t, idx.Equal(loaded))
}

func TestCacheLoadLastKnownIndexEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := OpenCache(path)
	require.NoError(t, err)
	defer c.Close()

	loaded, err := c.LoadLastKnownIndex()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestCacheSaveLoadIndexMessageID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := OpenCache(path)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.SaveIndexMessageID("msg-000001"))

	id, err := c.LoadIndexMessageID()
	require.NoError(t, err)
	assert.Equal(t, "msg-000001", id)
}
