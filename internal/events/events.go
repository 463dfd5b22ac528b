// Package events implements the two asynchronous notification channels
// the host subscribes to: provider readiness transitions and file
// change notifications. Delivery is best-effort: each event is offered
// once to every subscriber, and subscribers that fall behind drop
// events rather than block a publisher, so delivery is not guaranteed.
package events

import (
	"log/slog"
	"sync"
	"time"

	"chatfs/internal/index"
)

// ProviderStatus mirrors the provider's externally visible readiness.
type ProviderStatus int

const (
	NotReady ProviderStatus = iota
	Ready
)

func (s ProviderStatus) String() string {
	if s == Ready {
		return "Ready"
	}
	return "NotReady"
}

// ChangeType classifies a FileChangeEvent.
type ChangeType int

const (
	Created ChangeType = iota
	Deleted
	Modified
	All
)

func (c ChangeType) String() string {
	switch c {
	case Created:
		return "Created"
	case Deleted:
		return "Deleted"
	case Modified:
		return "Modified"
	case All:
		return "All"
	default:
		return "Unknown"
	}
}

// Placeholder is a lightweight stand-in for a file: metadata without
// content, as returned by a read stream's Open and carried on change
// events.
type Placeholder struct {
	RelativePath string
	Length       uint64
	ModTime      time.Time
	Hash         []byte
}

func placeholderFromEntry(e *index.Entry) Placeholder {
	if e == nil {
		return Placeholder{}
	}
	return Placeholder{
		RelativePath: e.RelativePath,
		Length:       e.Length,
		ModTime:      e.ModTime,
		Hash:         append([]byte(nil), e.Hash...),
	}
}

// FileChangeEvent describes one host-relevant change to the mirrored
// directory, or a resync request when Type is All.
type FileChangeEvent struct {
	Type                 ChangeType
	OldRelativePath      string
	Placeholder          Placeholder
	ResyncSubDirectories bool
}

// NewFileChangeEvent builds a FileChangeEvent for a created/modified
// entry.
func NewFileChangeEvent(t ChangeType, e *index.Entry) FileChangeEvent {
	return FileChangeEvent{Type: t, Placeholder: placeholderFromEntry(e)}
}

// NewDeletedEvent builds a FileChangeEvent for a removed entry.
func NewDeletedEvent(e *index.Entry) FileChangeEvent {
	return FileChangeEvent{Type: Deleted, OldRelativePath: e.RelativePath, Placeholder: placeholderFromEntry(e)}
}

// NewResyncEvent builds the All-type event the resync timer emits.
func NewResyncEvent() FileChangeEvent {
	return FileChangeEvent{Type: All, ResyncSubDirectories: true}
}

const subscriberBufferSize = 64

// Hub fans StateChange and FileChange notifications out to subscribers.
// Publishing never blocks: a subscriber whose channel is full misses
// the event rather than stall the provider.
type Hub struct {
	log *slog.Logger

	mu           sync.Mutex
	stateSubs    map[int]chan ProviderStatus
	fileSubs     map[int]chan FileChangeEvent
	nextStateSub int
	nextFileSub  int
}

// NewHub returns an empty Hub.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		log:       log,
		stateSubs: make(map[int]chan ProviderStatus),
		fileSubs:  make(map[int]chan FileChangeEvent),
	}
}

// SubscribeStateChange registers a new subscriber and returns its
// channel plus an unsubscribe function.
func (h *Hub) SubscribeStateChange() (<-chan ProviderStatus, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextStateSub++
	id := h.nextStateSub
	ch := make(chan ProviderStatus, subscriberBufferSize)
	h.stateSubs[id] = ch

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.stateSubs, id)
		close(ch)
	}
}

// SubscribeFileChange registers a new subscriber and returns its
// channel plus an unsubscribe function.
func (h *Hub) SubscribeFileChange() (<-chan FileChangeEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextFileSub++
	id := h.nextFileSub
	ch := make(chan FileChangeEvent, subscriberBufferSize)
	h.fileSubs[id] = ch

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.fileSubs, id)
		close(ch)
	}
}

// PublishStateChange delivers status to every subscriber, dropping it
// for subscribers whose buffer is full.
func (h *Hub) PublishStateChange(status ProviderStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.stateSubs {
		select {
		case ch <- status:
		default:
			h.log.Warn("dropped state change event", slog.Int("subscriber", id), slog.String("status", status.String()))
		}
	}
}

// PublishFileChange delivers evt to every subscriber, dropping it for
// subscribers whose buffer is full.
func (h *Hub) PublishFileChange(evt FileChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.fileSubs {
		select {
		case ch <- evt:
		default:
			h.log.Warn("dropped file change event", slog.Int("subscriber", id), slog.String("type", evt.Type.String()))
		}
	}
}
