// Package provider implements the remote provider state machine: it
// discovers the pinned index message in a chat channel, keeps a
// decoded snapshot of it current, suppresses the echo of its own
// writes, and periodically forces a full resync. It is the component
// a read stream consults for the current index and the component the
// write path drives to publish a new one.
package provider

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"chatfs/internal/events"
	"chatfs/internal/index"
	"chatfs/internal/transport"
)

// Config holds the provider's operating parameters, sourced from the
// host configuration (spec §6).
type Config struct {
	DbChannelName     string
	DataChannelName   string
	LocalPath         string
	EncryptionKey     []byte
	MaxAttachmentSize int
	ResyncPeriod      time.Duration
}

// DefaultResyncPeriod is the full-resync interval absent an explicit
// configuration value.
const DefaultResyncPeriod = 3 * time.Minute

func (c Config) withDefaults() Config {
	if c.MaxAttachmentSize == 0 {
		c.MaxAttachmentSize = DefaultMaxAttachmentSize
	}
	if c.ResyncPeriod == 0 {
		c.ResyncPeriod = DefaultResyncPeriod
	}
	return c
}

// Provider is the remote provider state machine described in spec §4.D.
// The zero value is not usable; construct with New.
type Provider struct {
	cfg         Config
	adapter     transport.Adapter
	hub         *events.Hub
	cache       *Cache
	botAuthorID string
	log         *slog.Logger

	mu             sync.Mutex
	state          connState
	dbChannel      transport.ChannelHandle
	dataChannel    transport.ChannelHandle
	indexMessageID string
	indexMessage   transport.Message
	lastKnown      *index.Index

	pending     *pendingEdits
	unsubscribe func()

	resyncCancel context.CancelFunc
	resyncWG     sync.WaitGroup
	resyncGroup  singleflight.Group

	pendingCancel context.CancelFunc
	pendingWG     sync.WaitGroup

	disposed bool
}

// New constructs a Provider over adapter, publishing events on hub and
// persisting discovery state in cache. botAuthorID identifies the chat
// identity the provider itself posts as, used to recognize its own
// index messages during discovery.
func New(adapter transport.Adapter, hub *events.Hub, cache *Cache, botAuthorID string, cfg Config, log *slog.Logger) *Provider {
	if log == nil {
		log = slog.Default()
	}
	if hub == nil {
		hub = events.NewHub(log)
	}
	p := &Provider{
		cfg:         cfg.withDefaults(),
		adapter:     adapter,
		hub:         hub,
		cache:       cache,
		botAuthorID: botAuthorID,
		log:         log,
		state:       stateDisconnected,
		pending:     newPendingEdits(),
	}

	if cache != nil {
		if id, err := cache.LoadIndexMessageID(); err == nil {
			p.indexMessageID = id
		} else {
			log.Warn("failed to load cached index message id", slog.Any("error", err))
		}
		if idx, err := cache.LoadLastKnownIndex(); err == nil && idx != nil {
			p.lastKnown = idx
		} else if err != nil {
			log.Warn("failed to load cached index", slog.Any("error", err))
		}
	}

	return p
}

// Status reports the externally visible readiness derived from the
// internal state.
func (p *Provider) Status() events.ProviderStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.statusLocked()
}

func (p *Provider) statusLocked() events.ProviderStatus {
	if p.state == stateReady {
		return events.Ready
	}
	return events.NotReady
}

// Config returns a copy of the provider's operating parameters.
func (p *Provider) Config() Config {
	return p.cfg
}

// DataChannel returns the channel resolved for file content uploads.
// It is only meaningful once Connect has completed discovery.
func (p *Provider) DataChannel() transport.ChannelHandle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dataChannel
}

// Adapter returns the transport adapter the provider was constructed
// with, so callers (e.g. the CLI's content-upload path) can speak to
// the same chat service without the provider exposing upload
// semantics of its own.
func (p *Provider) Adapter() transport.Adapter {
	return p.adapter
}

// Index returns a deep-copied snapshot of the last known remote index,
// or nil if none has been materialized yet.
func (p *Provider) Index() *index.Index {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastKnown == nil {
		return nil
	}
	return p.lastKnown.Clone()
}

// Connect runs the Connecting -> Discovered -> Ready transition
// sequence: it resolves the channels, discovers the index message (or
// bootstraps an empty one), decodes the remote index, and starts the
// resync timer.
func (p *Provider) Connect(ctx context.Context) error {
	const op = "provider.Connect"
	log := p.log.With(slog.String("op", op))

	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return ErrDisposed
	}
	p.state = stateConnecting
	p.mu.Unlock()

	p.unsubscribe = p.adapter.Subscribe(providerHandler{p: p})

	if err := p.discover(ctx); err != nil {
		log.Error("discovery failed", slog.Any("error", err))
		return err
	}

	p.mu.Lock()
	found := p.indexMessageID != ""
	p.mu.Unlock()

	if !found {
		p.mu.Lock()
		cachedSnapshot := p.lastKnown
		dbChannel := p.dbChannel
		p.mu.Unlock()

		if cachedSnapshot != nil {
			// A cached indexMessageId existed (loaded from the local
			// cache or a prior session) but no pinned message matches it
			// anymore: the index message vanished remotely. Per spec
			// §7, this is recovered by reposting rather than falling
			// back to an empty index, which would discard the last
			// known snapshot's entries.
			log.Warn("index message missing on reconnect, reposting cached snapshot",
				slog.Any("error", ErrIndexMessageMissing))
			if err := p.repostIndex(ctx, dbChannel, cachedSnapshot); err != nil {
				log.Error("repost of cached snapshot failed", slog.Any("error", err))
				return err
			}
		} else if err := p.bootstrapEmptyIndex(ctx); err != nil {
			log.Error("bootstrap failed", slog.Any("error", err))
			return err
		}
	} else {
		if err := p.loadDiscoveredIndex(ctx); err != nil {
			log.Error("initial index load failed", slog.Any("error", err))
			return err
		}
	}

	p.mu.Lock()
	p.state = stateReady
	p.mu.Unlock()
	p.hub.PublishStateChange(events.Ready)

	p.startResyncTimer(ctx)
	p.startPendingExpiryTimer(ctx)
	return nil
}

// bootstrapEmptyIndex posts and pins a fresh empty index when discovery
// finds no existing index message (spec §4.D, Discovered transition).
func (p *Provider) bootstrapEmptyIndex(ctx context.Context) error {
	empty := index.New(time.Now())

	p.mu.Lock()
	dbChannel := p.dbChannel
	p.mu.Unlock()

	msg, err := p.postIndex(ctx, dbChannel, empty)
	if err != nil {
		return err
	}
	if err := p.adapter.Pin(ctx, dbChannel, msg); err != nil {
		return err
	}

	p.mu.Lock()
	p.indexMessageID = msg.ID
	p.indexMessage = msg
	p.lastKnown = empty
	p.mu.Unlock()

	if p.cache != nil {
		_ = p.cache.SaveLastKnownIndex(empty)
		_ = p.cache.SaveIndexMessageID(msg.ID)
	}
	return nil
}

// loadDiscoveredIndex fetches and decodes the index message found
// during discovery, treating it as a cold start (no diff emitted).
func (p *Provider) loadDiscoveredIndex(ctx context.Context) error {
	p.mu.Lock()
	msg := p.indexMessage
	p.mu.Unlock()

	decoded, err := p.retrieveIndex(ctx, msg)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.lastKnown = decoded
	p.mu.Unlock()

	if p.cache != nil {
		_ = p.cache.SaveLastKnownIndex(decoded)
	}
	return nil
}

// Disconnect transitions to Disconnected, clearing all discovery state
// per spec's onDisconnected handler, and cancels the resync timer.
func (p *Provider) Disconnect() {
	p.mu.Lock()
	wasReady := p.state == stateReady
	p.state = stateDisconnected
	p.indexMessageID = ""
	p.lastKnown = nil
	p.mu.Unlock()

	p.stopPendingExpiryTimer()
	p.pending.Clear()
	p.stopResyncTimer()

	if wasReady {
		p.hub.PublishStateChange(events.NotReady)
	}
}

// Dispose cancels all background work and unsubscribes from transport
// events. It awaits both the resync timer's and the pending-edit
// expiry sweep's in-flight goroutines so no late callback touches
// state after Dispose returns.
func (p *Provider) Dispose() {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return
	}
	p.disposed = true
	p.mu.Unlock()

	if p.unsubscribe != nil {
		p.unsubscribe()
	}
	p.stopResyncTimer()
	p.Disconnect()
}

// providerHandler adapts the provider's event-handling methods to
// transport.ConnectionHandler.
type providerHandler struct {
	p *Provider
}

func (h providerHandler) OnConnected() {
	h.p.log.Info("transport connected")
}

func (h providerHandler) OnDisconnected(err error) {
	h.p.log.Warn("transport disconnected", slog.Any("error", err))
	h.p.Disconnect()
}

func (h providerHandler) OnMessageUpdated(cachedID string, newMessage transport.Message, channel transport.ChannelHandle) {
	h.p.handleMessageUpdated(cachedID, newMessage, channel)
}
