package readstream

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatfs/internal/chunk"
	"chatfs/internal/events"
	"chatfs/internal/index"
)

type fakeProvider struct {
	status events.ProviderStatus
	idx    *index.Index
}

func (f *fakeProvider) Status() events.ProviderStatus { return f.status }
func (f *fakeProvider) Index() *index.Index {
	if f.idx == nil {
		return nil
	}
	return f.idx.Clone()
}

type fakeFetcher struct {
	byURL map[string][]byte
}

func (f *fakeFetcher) FetchAttachmentBytes(ctx context.Context, url string) ([]byte, error) {
	data, ok := f.byURL[url]
	if !ok {
		return nil, ErrFileNotFound
	}
	return data, nil
}

// buildThreeChunkEntry builds an entry matching spec §8 scenario 6:
// three chunks, each encoding an 80-byte plaintext, 240 bytes total.
func buildThreeChunkEntry(t *testing.T) (*index.Entry, *fakeFetcher) {
	t.Helper()
	fetcher := &fakeFetcher{byURL: make(map[string][]byte)}
	plains := [][]byte{
		make([]byte, 80),
		make([]byte, 80),
		make([]byte, 80),
	}
	for i := range plains {
		for j := range plains[i] {
			plains[i][j] = byte(i*80 + j)
		}
	}

	chunks := make([]index.FileChunk, len(plains))
	for i, plain := range plains {
		encoded, err := chunk.Encode(plain, uint32(i), chunk.EncodeOptions{})
		require.NoError(t, err)
		url := "mem://chunk" + string(rune('0'+i))
		fetcher.byURL[url] = encoded
		chunks[i] = index.FileChunk{URL: url, Size: uint32(len(encoded))}
	}

	entry := &index.Entry{
		RelativePath: "f.bin",
		Length:       240,
		ModTime:      time.Now(),
		Hash:         []byte{1},
		Chunks:       chunks,
	}
	return entry, fetcher
}

func newOpenedStream(t *testing.T, entry *index.Entry, fetcher *fakeFetcher) *Stream {
	idx := index.New(time.Now())
	idx.Put(entry)
	provider := &fakeProvider{status: events.Ready, idx: idx}
	s := New(provider, fetcher, nil, 80, 4, nil)
	res, err := s.Open("f.bin")
	require.NoError(t, err)
	require.False(t, res.FileNotFound)
	return s
}

func TestReadCrossesChunkBoundary(t *testing.T) {
	entry, fetcher := buildThreeChunkEntry(t)
	s := newOpenedStream(t, entry, fetcher)

	buf := make([]byte, 200)
	n, err := s.Read(context.Background(), buf, 0, 70, 90)
	require.NoError(t, err)
	assert.Equal(t, 90, n)

	want := make([]byte, 90)
	for i := 0; i < 90; i++ {
		want[i] = byte(70 + i)
	}
	assert.Equal(t, want, buf[:90])
	for _, b := range buf[90:] {
		assert.Equal(t, byte(0), b)
	}
}

func TestReadZeroCountDoesNothing(t *testing.T) {
	entry, fetcher := buildThreeChunkEntry(t)
	s := newOpenedStream(t, entry, fetcher)

	buf := make([]byte, 10)
	n, err := s.Read(context.Background(), buf, 0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestReadAtEndOfFileReturnsZero(t *testing.T) {
	entry, fetcher := buildThreeChunkEntry(t)
	s := newOpenedStream(t, entry, fetcher)

	buf := make([]byte, 10)
	n, err := s.Read(context.Background(), buf, 0, int64(entry.Length), 10)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestReadPastEndOfFileTruncates(t *testing.T) {
	entry, fetcher := buildThreeChunkEntry(t)
	s := newOpenedStream(t, entry, fetcher)

	buf := make([]byte, 50)
	n, err := s.Read(context.Background(), buf, 0, int64(entry.Length)-20, 100)
	require.NoError(t, err)
	assert.Equal(t, 20, n)
}

func TestOpenFileNotFound(t *testing.T) {
	idx := index.New(time.Now())
	provider := &fakeProvider{status: events.Ready, idx: idx}
	s := New(provider, &fakeFetcher{}, nil, 80, 4, nil)

	res, err := s.Open("missing.bin")
	require.NoError(t, err)
	assert.True(t, res.FileNotFound)
}

func TestOpenWhenNotReadyReturnsOffline(t *testing.T) {
	provider := &fakeProvider{status: events.NotReady}
	s := New(provider, &fakeFetcher{}, nil, 80, 4, nil)

	_, err := s.Open("f.bin")
	assert.ErrorIs(t, err, ErrOffline)
}

func TestReadAfterCloseFails(t *testing.T) {
	entry, fetcher := buildThreeChunkEntry(t)
	s := newOpenedStream(t, entry, fetcher)
	require.NoError(t, s.Close())

	buf := make([]byte, 10)
	_, err := s.Read(context.Background(), buf, 0, 0, 10)
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestCloseWithoutOpenFails(t *testing.T) {
	provider := &fakeProvider{status: events.Ready, idx: index.New(time.Now())}
	s := New(provider, &fakeFetcher{}, nil, 80, 4, nil)
	assert.ErrorIs(t, s.Close(), ErrNotOpen)
}
