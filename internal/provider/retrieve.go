package provider

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"chatfs/internal/chunk"
	"chatfs/internal/events"
	"chatfs/internal/index"
	"chatfs/internal/transport"
)

// retrieveIndex downloads and concatenates msg's attachments in
// filename-sorted order, decrypts each piece if a key is configured,
// and deserializes the result, per spec §4.D.5.
func (p *Provider) retrieveIndex(ctx context.Context, msg transport.Message) (*index.Index, error) {
	attachments := append([]transport.Attachment(nil), msg.Attachments...)
	sort.Slice(attachments, func(i, j int) bool {
		return strings.ToLower(attachments[i].Filename) < strings.ToLower(attachments[j].Filename)
	})

	var merr *multierror.Error
	var serialized []byte
	for _, att := range attachments {
		data, err := p.adapter.FetchAttachmentBytes(ctx, att.URL)
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("provider: fetch %s: %w", att.Filename, err))
			continue
		}
		if len(p.cfg.EncryptionKey) != 0 {
			decrypted, err := chunk.DecryptGCM(p.cfg.EncryptionKey, data)
			if err != nil {
				merr = multierror.Append(merr, fmt.Errorf("provider: decrypt %s: %w", att.Filename, err))
				continue
			}
			data = decrypted
		}
		serialized = append(serialized, data...)
	}
	if err := merr.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexDecodeFailed, err)
	}

	decoded, err := index.Deserialize(serialized)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexDecodeFailed, err)
	}
	return decoded, nil
}

// handleMessageUpdated is the onMessageUpdated handler: it identifies
// whether newMessage is the index message, and if so either consumes
// one self-originated pendingEdit (suppressing the echo) or treats the
// update as externally originated and re-syncs.
func (p *Provider) handleMessageUpdated(cachedID string, newMessage transport.Message, channel transport.ChannelHandle) {
	const op = "provider.handleMessageUpdated"
	log := p.log.With(
		"op", op,
		"messageID", newMessage.ID,
	)

	p.mu.Lock()
	isIndexMessage := p.indexMessageID != "" && p.indexMessageID == newMessage.ID
	p.mu.Unlock()
	if !isIndexMessage {
		return
	}

	if id, ok := p.pending.TryConsume(time.Now()); ok {
		log.Debug("suppressing self-originated index edit", "pendingEditID", id)
		return
	}

	log.Info("externally originated index edit detected")
	if err := p.syncFromExternalEdit(context.Background(), newMessage); err != nil {
		log.Error("failed to sync external index edit", "error", err)
	}
}

// syncFromExternalEdit implements the non-cold-start branch of spec
// §4.D.5: decode the new remote index, diff it against a freshly built
// local directory index, and emit FileChangeEvents before installing
// the new remote snapshot.
func (p *Provider) syncFromExternalEdit(ctx context.Context, msg transport.Message) error {
	remote, err := p.retrieveIndex(ctx, msg)
	if err != nil {
		return err
	}

	p.mu.Lock()
	previous := p.lastKnown
	p.indexMessage = msg
	p.mu.Unlock()

	if previous != nil && p.cfg.LocalPath != "" {
		local, err := index.BuildForDirectory(p.cfg.LocalPath)
		if err == nil {
			p.emitDiff(index.DiffIndexes(local, remote))
		} else {
			p.log.Warn("local directory scan failed during sync", "error", err)
		}
	}

	p.mu.Lock()
	p.lastKnown = remote
	p.mu.Unlock()

	if p.cache != nil {
		_ = p.cache.SaveLastKnownIndex(remote)
	}
	return nil
}

// emitDiff publishes one FileChangeEvent per entry in diff, per spec
// §4.D.5.
func (p *Provider) emitDiff(diff index.Diff) {
	for _, e := range diff.Added {
		p.hub.PublishFileChange(events.NewFileChangeEvent(events.Created, e))
	}
	for _, e := range diff.Deleted {
		p.hub.PublishFileChange(events.NewDeletedEvent(e))
	}
	for _, e := range diff.Modified {
		p.hub.PublishFileChange(events.NewFileChangeEvent(events.Modified, e))
	}
}
