// Package memory provides an in-process implementation of
// transport.Adapter backed by maps instead of a real chat service. It
// is the project's reference implementation of the transport
// capability: exercised directly by the provider's tests, and a model
// for what a production chat-service adapter would look like.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"chatfs/internal/transport"
)

type message struct {
	transport.Message
	channelID string
	pinned    bool
}

// Adapter is an in-memory transport.Adapter. Zero value is not usable;
// construct with New.
type Adapter struct {
	log *slog.Logger

	mu        sync.Mutex
	channels  map[string]transport.ChannelHandle
	messages  map[string]*message
	nextMsgID int

	handlersMu sync.Mutex
	handlers   map[int]transport.ConnectionHandler
	nextHandle int
}

// New returns an empty Adapter.
func New(log *slog.Logger) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{
		log:      log,
		channels: make(map[string]transport.ChannelHandle),
		messages: make(map[string]*message),
		handlers: make(map[int]transport.ConnectionHandler),
	}
}

// SimulateDisconnect notifies subscribers that the connection dropped,
// the way a real adapter would on a socket error.
func (a *Adapter) SimulateDisconnect(err error) {
	a.handlersMu.Lock()
	handlers := make([]transport.ConnectionHandler, 0, len(a.handlers))
	for _, h := range a.handlers {
		handlers = append(handlers, h)
	}
	a.handlersMu.Unlock()

	for _, h := range handlers {
		h.OnDisconnected(err)
	}
}

// SimulateConnected notifies subscribers that the connection is live.
func (a *Adapter) SimulateConnected() {
	a.handlersMu.Lock()
	handlers := make([]transport.ConnectionHandler, 0, len(a.handlers))
	for _, h := range a.handlers {
		handlers = append(handlers, h)
	}
	a.handlersMu.Unlock()

	for _, h := range handlers {
		h.OnConnected()
	}
}

func (a *Adapter) GetOrCreateChannel(ctx context.Context, name string) (transport.ChannelHandle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if ch, ok := a.channels[name]; ok {
		return ch, nil
	}

	ch := transport.ChannelHandle{ID: fmt.Sprintf("channel-%d", len(a.channels)+1), Name: name}
	a.channels[name] = ch
	// This adapter has no role model to enforce against, but a real
	// adapter applies exactly these two permission sets when creating
	// the channel.
	a.log.Debug("created channel",
		slog.String("name", name),
		slog.String("id", ch.ID),
		slog.Any("botPermissions", transport.BotPermissions),
		slog.Any("everyonePermissions", transport.EveryonePermissions),
	)
	return ch, nil
}

func (a *Adapter) GetPinnedMessages(ctx context.Context, channel transport.ChannelHandle) ([]transport.Message, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []transport.Message
	for _, m := range a.messages {
		if m.channelID == channel.ID && m.pinned {
			out = append(out, m.Message)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (a *Adapter) GetMessage(ctx context.Context, channel transport.ChannelHandle, messageID string) (transport.Message, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	m, ok := a.messages[messageID]
	if !ok || m.channelID != channel.ID {
		return transport.Message{}, transport.ErrNotFound
	}
	return m.Message, nil
}

func (a *Adapter) SendFiles(ctx context.Context, channel transport.ChannelHandle, text string, attachments []transport.Attachment) (transport.Message, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.nextMsgID++
	id := fmt.Sprintf("msg-%06d", a.nextMsgID)
	m := &message{
		Message: transport.Message{
			ID:          id,
			AuthorID:    BotAuthorID,
			Attachments: withURLs(id, attachments),
		},
		channelID: channel.ID,
	}
	a.messages[id] = m
	return m.Message, nil
}

func (a *Adapter) Pin(ctx context.Context, channel transport.ChannelHandle, msg transport.Message) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	m, ok := a.messages[msg.ID]
	if !ok {
		return transport.ErrNotFound
	}
	m.pinned = true
	return nil
}

func (a *Adapter) EditAttachments(ctx context.Context, channel transport.ChannelHandle, msg transport.Message, attachments []transport.Attachment) (transport.Message, error) {
	a.mu.Lock()
	if m, ok := a.messages[msg.ID]; ok {
		m.Attachments = withURLs(msg.ID, attachments)
		m.EditedAt = time.Now()
		updated := m.Message
		channelHandle := a.lookupChannelByID(m.channelID)
		a.mu.Unlock()

		a.notifyMessageUpdated(msg.ID, updated, channelHandle)
		return updated, nil
	}
	a.mu.Unlock()
	return transport.Message{}, transport.ErrNotFound
}

func (a *Adapter) FetchAttachmentBytes(ctx context.Context, url string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, m := range a.messages {
		for _, att := range m.Attachments {
			if att.URL == url {
				return append([]byte(nil), att.Data...), nil
			}
		}
	}
	return nil, transport.ErrNotFound
}

func (a *Adapter) Subscribe(handler transport.ConnectionHandler) (unsubscribe func()) {
	a.handlersMu.Lock()
	defer a.handlersMu.Unlock()

	a.nextHandle++
	id := a.nextHandle
	a.handlers[id] = handler

	return func() {
		a.handlersMu.Lock()
		defer a.handlersMu.Unlock()
		delete(a.handlers, id)
	}
}

func (a *Adapter) notifyMessageUpdated(cachedID string, newMessage transport.Message, channel transport.ChannelHandle) {
	a.handlersMu.Lock()
	handlers := make([]transport.ConnectionHandler, 0, len(a.handlers))
	for _, h := range a.handlers {
		handlers = append(handlers, h)
	}
	a.handlersMu.Unlock()

	for _, h := range handlers {
		h.OnMessageUpdated(cachedID, newMessage, channel)
	}
}

func (a *Adapter) lookupChannelByID(id string) transport.ChannelHandle {
	for _, ch := range a.channels {
		if ch.ID == id {
			return ch
		}
	}
	return transport.ChannelHandle{}
}

// BotAuthorID is the author identity every message sent through this
// adapter is stamped with; a caller constructing a provider over this
// adapter must use the same value as its botAuthorID.
const BotAuthorID = "bot"

func withURLs(messageID string, attachments []transport.Attachment) []transport.Attachment {
	out := make([]transport.Attachment, len(attachments))
	for i, att := range attachments {
		out[i] = att
		out[i].URL = fmt.Sprintf("memory://%s/%s", messageID, att.Filename)
		out[i].Size = int64(len(att.Data))
	}
	return out
}
