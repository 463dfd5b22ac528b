package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"

	"chatfs/internal/chunk"
	"chatfs/internal/index"
	"chatfs/internal/transport"
)

// indexMessageHeader is the informational text body of every index
// message; the attachment set, not this text, is authoritative.
const indexMessageHeader = "**FILE DATABASE**\nDo not edit or delete this message; it is maintained by the provider."

// indexAttachmentWaitDelay is how long writeIndex waits for chat-service
// consistency before refetching the edited message, per spec §4.D.4.
const indexAttachmentWaitDelay = 1500 * time.Millisecond

// WriteIndex publishes idx as the new remote index. It requires Ready.
// It installs LastKnownRemoteIndex under p.mu, as do the resync and
// external-edit sync paths; it does not otherwise exclude those paths,
// so whichever install runs last wins.
func (p *Provider) WriteIndex(ctx context.Context, idx *index.Index) error {
	p.mu.Lock()
	if p.state != stateReady {
		p.mu.Unlock()
		return ErrNotReady
	}
	dbChannel := p.dbChannel
	messageID := p.indexMessageID
	p.mu.Unlock()

	if messageID == "" {
		return p.repostIndex(ctx, dbChannel, idx)
	}

	msg, err := p.adapter.GetMessage(ctx, dbChannel, messageID)
	if err != nil {
		if err == transport.ErrNotFound {
			return p.repostIndex(ctx, dbChannel, idx)
		}
		return err
	}

	attachments, err := buildIndexAttachments(idx, p.cfg.EncryptionKey, p.cfg.MaxAttachmentSize)
	if err != nil {
		return err
	}

	// Record before issuing the edit: the transport may deliver the
	// resulting onMessageUpdated notification before this call returns,
	// and that notification must find a pending entry to suppress.
	p.pending.Record(time.Now())

	if _, err := p.adapter.EditAttachments(ctx, dbChannel, msg, attachments); err != nil {
		return err
	}

	time.Sleep(indexAttachmentWaitDelay)

	refetched, err := p.adapter.GetMessage(ctx, dbChannel, messageID)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.indexMessage = refetched
	p.lastKnown = idx.Clone()
	p.mu.Unlock()

	if p.cache != nil {
		_ = p.cache.SaveLastKnownIndex(idx)
	}
	return nil
}

// repostIndex handles the case where the index message has vanished:
// it posts and pins a fresh one, per spec §4.D.4's "message has
// vanished" branch.
func (p *Provider) repostIndex(ctx context.Context, dbChannel transport.ChannelHandle, idx *index.Index) error {
	msg, err := p.postIndex(ctx, dbChannel, idx)
	if err != nil {
		return err
	}
	if err := p.adapter.Pin(ctx, dbChannel, msg); err != nil {
		return err
	}

	p.mu.Lock()
	p.indexMessageID = msg.ID
	p.indexMessage = msg
	p.lastKnown = idx.Clone()
	p.mu.Unlock()

	if p.cache != nil {
		_ = p.cache.SaveLastKnownIndex(idx)
		_ = p.cache.SaveIndexMessageID(msg.ID)
	}
	return nil
}

// postIndex serializes idx into ChunkDataSize-bounded, optionally
// encrypted pieces and sends them as a new message's attachments.
func (p *Provider) postIndex(ctx context.Context, dbChannel transport.ChannelHandle, idx *index.Index) (transport.Message, error) {
	attachments, err := buildIndexAttachments(idx, p.cfg.EncryptionKey, p.cfg.MaxAttachmentSize)
	if err != nil {
		return transport.Message{}, err
	}
	return p.adapter.SendFiles(ctx, dbChannel, indexMessageHeader, attachments)
}

// buildIndexAttachments serializes idx, splits the result into
// ChunkDataSize-bounded pieces, encrypts each with chunk.EncryptGCM if
// a key is configured, and names them index.db, index_1.db, ....
func buildIndexAttachments(idx *index.Index, encryptionKey []byte, maxAttachmentSize int) ([]transport.Attachment, error) {
	serialized, err := idx.Serialize()
	if err != nil {
		return nil, fmt.Errorf("provider: serialize index: %w", err)
	}

	if maxAttachmentSize == 0 {
		maxAttachmentSize = DefaultMaxAttachmentSize
	}
	dataSize := ChunkDataSize(maxAttachmentSize)
	if dataSize <= 0 {
		return nil, fmt.Errorf("provider: max attachment size %d too small for any payload", maxAttachmentSize)
	}

	var pieces [][]byte
	for offset := 0; offset < len(serialized) || len(pieces) == 0; offset += dataSize {
		end := offset + dataSize
		if end > len(serialized) {
			end = len(serialized)
		}
		pieces = append(pieces, serialized[offset:end])
		if end == len(serialized) {
			break
		}
	}

	var merr *multierror.Error
	attachments := make([]transport.Attachment, 0, len(pieces))
	for i, piece := range pieces {
		data := piece
		if len(encryptionKey) != 0 {
			encrypted, err := chunk.EncryptGCM(encryptionKey, piece)
			if err != nil {
				merr = multierror.Append(merr, fmt.Errorf("provider: encrypt index piece %d: %w", i, err))
				continue
			}
			data = encrypted
		}
		attachments = append(attachments, transport.Attachment{
			Filename: indexAttachmentFilename(i),
			Data:     append([]byte(nil), data...),
		})
	}
	if err := merr.ErrorOrNil(); err != nil {
		return nil, err
	}
	return attachments, nil
}

// indexAttachmentFilename returns the filename index.db for i == 0 and
// index_{i}.db otherwise, per spec §6.
func indexAttachmentFilename(i int) string {
	if i == 0 {
		return "index.db"
	}
	return fmt.Sprintf("index_%d.db", i)
}
