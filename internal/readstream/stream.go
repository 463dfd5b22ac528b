// Package readstream implements the provider's parallel read path: a
// stream is opened against a relative path, snapshots the provider's
// current index, then serves Read calls by downloading only the
// chunks overlapping the requested byte range and assembling them
// directly into the caller's buffer.
package readstream

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/atomic"

	"chatfs/internal/chunk"
	"chatfs/internal/events"
	"chatfs/internal/index"
)

type lifecycle int

const (
	stateNew lifecycle = iota
	stateOpen
	stateClosed
	stateDisposed
)

// ProviderView is the subset of the provider's surface a read stream
// needs: current readiness and a snapshot of the remote index.
type ProviderView interface {
	Status() events.ProviderStatus
	Index() *index.Index
}

// ChunkFetcher downloads the raw bytes backing a chunk attachment URL.
type ChunkFetcher interface {
	FetchAttachmentBytes(ctx context.Context, url string) ([]byte, error)
}

// DefaultParallelism bounds concurrent chunk downloads per Read call
// absent an explicit configuration value.
const DefaultParallelism = 8

// OpenResult is what Open reports back to the caller.
type OpenResult struct {
	FileNotFound bool
	Placeholder  events.Placeholder
}

// Stream is a single-path, single-reader view over the mirrored
// directory. The zero value is not usable; construct with New.
// Concurrent Read calls on the same Stream are not supported.
type Stream struct {
	provider       ProviderView
	fetcher        ChunkFetcher
	encryptionKey  []byte
	chunkPlainSize int
	parallelism    int
	log            *slog.Logger

	mu    sync.Mutex
	state lifecycle
	entry *index.Entry
}

// New constructs a Stream. chunkPlainSize is the fixed plaintext size
// used to split a file's content across chunks (see offsets.go);
// parallelism bounds concurrent chunk downloads per Read, 0 meaning
// DefaultParallelism.
func New(provider ProviderView, fetcher ChunkFetcher, encryptionKey []byte, chunkPlainSize, parallelism int, log *slog.Logger) *Stream {
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}
	if log == nil {
		log = slog.Default()
	}
	return &Stream{
		provider:       provider,
		fetcher:        fetcher,
		encryptionKey:  encryptionKey,
		chunkPlainSize: chunkPlainSize,
		parallelism:    parallelism,
		log:            log,
		state:          stateNew,
	}
}

// Open requires the provider to be Ready; it snapshots the provider's
// current index (via its own Clone, so later provider writes cannot
// perturb this stream) and resolves path within it.
func (s *Stream) Open(path string) (OpenResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateDisposed {
		return OpenResult{}, ErrDisposed
	}
	if s.state != stateNew {
		return OpenResult{}, ErrAlreadyOpen
	}

	if s.provider.Status() != events.Ready {
		return OpenResult{}, ErrOffline
	}

	idx := s.provider.Index()
	if idx == nil {
		return OpenResult{}, ErrOffline
	}

	entry, err := idx.GetFile(path)
	if err != nil {
		s.state = stateOpen
		s.entry = nil
		return OpenResult{FileNotFound: true}, nil
	}

	s.state = stateOpen
	s.entry = entry

	return OpenResult{Placeholder: events.Placeholder{
		RelativePath: entry.RelativePath,
		Length:       entry.Length,
		ModTime:      entry.ModTime,
		Hash:         append([]byte(nil), entry.Hash...),
	}}, nil
}

// Read fills buffer[bufferOffset : bufferOffset+count) with file bytes
// starting at fileOffset, downloading only the chunks that overlap the
// requested window. Boundary behaviors: count == 0 and
// fileOffset == length both return bytesRead == 0 without downloading;
// a window extending past length is truncated to length.
func (s *Stream) Read(ctx context.Context, buffer []byte, bufferOffset int, fileOffset int64, count int) (int, error) {
	s.mu.Lock()
	if s.state == stateDisposed {
		s.mu.Unlock()
		return 0, ErrDisposed
	}
	if s.state != stateOpen {
		s.mu.Unlock()
		return 0, ErrNotOpen
	}
	entry := s.entry
	s.mu.Unlock()

	if s.provider.Status() != events.Ready {
		return 0, ErrNetworkUnavailable
	}
	if entry == nil {
		return 0, ErrFileNotFound
	}
	if count == 0 || fileOffset >= int64(entry.Length) {
		return 0, nil
	}

	tasks, _ := planRead(entry, s.chunkPlainSize, fileOffset, int64(count))
	if len(tasks) == 0 {
		return 0, nil
	}

	var bytesRead atomic.Int64
	var bufMu sync.Mutex
	var merr *multierror.Error
	var merrMu sync.Mutex

	sem := make(chan struct{}, s.parallelism)
	var wg sync.WaitGroup

	for _, task := range tasks {
		task := task
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			select {
			case <-ctx.Done():
				merrMu.Lock()
				merr = multierror.Append(merr, ErrCancelled)
				merrMu.Unlock()
				return
			default:
			}

			plaintext, err := s.fetchAndDecode(ctx, task)
			if err != nil {
				merrMu.Lock()
				merr = multierror.Append(merr, fmt.Errorf("readstream: chunk %d: %w", task.chunkIndex, err))
				merrMu.Unlock()
				return
			}

			if task.srcOffset+task.srcLen > len(plaintext) {
				merrMu.Lock()
				merr = multierror.Append(merr, fmt.Errorf("readstream: chunk %d: short plaintext", task.chunkIndex))
				merrMu.Unlock()
				return
			}

			bufMu.Lock()
			copy(buffer[bufferOffset+task.dstOffset:], plaintext[task.srcOffset:task.srcOffset+task.srcLen])
			bufMu.Unlock()

			bytesRead.Add(int64(task.srcLen))
		}()
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return int(bytesRead.Load()), ErrCancelled
	}
	if err := merr.ErrorOrNil(); err != nil {
		return int(bytesRead.Load()), err
	}
	return int(bytesRead.Load()), nil
}

func (s *Stream) fetchAndDecode(ctx context.Context, task chunkTask) ([]byte, error) {
	raw, err := s.fetcher.FetchAttachmentBytes(ctx, task.url)
	if err != nil {
		return nil, err
	}
	decoded, err := chunk.Decode(raw, s.encryptionKey)
	if err != nil {
		return nil, err
	}
	return decoded.Payload, nil
}

// Close transitions the stream to Closed. Calling Close on a stream
// that is not Open is a programming error.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateDisposed {
		return ErrDisposed
	}
	if s.state != stateOpen {
		return ErrNotOpen
	}
	s.state = stateClosed
	return nil
}

// Dispose terminates the stream from any state; Disposed is terminal.
func (s *Stream) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = stateDisposed
	s.entry = nil
}
