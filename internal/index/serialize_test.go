package index

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	idx := New(time.Unix(1700000000, 123000).UTC())
	idx.Put(&Entry{
		RelativePath: "a/b/c.txt",
		Length:       1234,
		ModTime:      time.Unix(1690000000, 0).UTC(),
		Hash:         []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16},
		Chunks: []FileChunk{
			{URL: "https://example.test/index.db", Size: 100},
			{URL: "https://example.test/index_1.db", Size: 50},
		},
	})
	idx.Put(&Entry{RelativePath: "empty.txt", Length: 0, Hash: []byte{}})

	data, err := idx.Serialize()
	require.NoError(t, err)
	assert.Equal(t, Version, data[0])

	decoded, err := Deserialize(data)
	require.NoError(t, err)
	assert.True(t, idx.Equal(decoded))
}

func TestDeserializeEmptyIndex(t *testing.T) {
	idx := New(time.Unix(0, 0).UTC())
	data, err := idx.Serialize()
	require.NoError(t, err)

	decoded, err := Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, 0, decoded.Len())
	assert.True(t, idx.Equal(decoded))
}

func TestDeserializeUnsupportedVersion(t *testing.T) {
	idx := New(time.Now())
	data, err := idx.Serialize()
	require.NoError(t, err)
	data[0] = 0x09

	_, err = Deserialize(data)
	assert.ErrorIs(t, err, ErrUnsupportedIndexVersion)
}

func TestDeserializeTruncated(t *testing.T) {
	idx := New(time.Now())
	idx.Put(&Entry{RelativePath: "a.txt", Length: 1, Hash: []byte{1}})
	data, err := idx.Serialize()
	require.NoError(t, err)

	_, err = Deserialize(data[:len(data)-1])
	assert.ErrorIs(t, err, ErrTruncated)

	_, err = Deserialize(nil)
	assert.ErrorIs(t, err, ErrTruncated)
}
