package provider

import (
	"context"
	"sort"

	"chatfs/internal/transport"
)

// indexAttachmentName is the filename that marks a message as a
// candidate index message when no cached id is yet known.
const indexAttachmentName = "index.db"

// findIndexMessage implements spec §4.D.1: a message is the index
// message iff its id matches a known cachedID, or (absent a cached id)
// it was authored by the bot identity and carries an attachment named
// index.db case-insensitively. Ties among (b)-candidates are broken by
// the lexicographically smallest id.
func findIndexMessage(messages []transport.Message, cachedID, botAuthorID string) (transport.Message, bool) {
	if cachedID != "" {
		for _, m := range messages {
			if m.ID == cachedID {
				return m, true
			}
		}
		return transport.Message{}, false
	}

	var candidates []transport.Message
	for _, m := range messages {
		if m.AuthorID == botAuthorID && m.HasAttachmentNamed(indexAttachmentName) {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		return transport.Message{}, false
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })
	return candidates[0], true
}

// discover runs connect-time channel resolution and index-message
// lookup, per the Connecting -> Discovered transition.
func (p *Provider) discover(ctx context.Context) error {
	dbChannel, err := p.adapter.GetOrCreateChannel(ctx, p.cfg.DbChannelName)
	if err != nil {
		return err
	}
	dataChannel, err := p.adapter.GetOrCreateChannel(ctx, p.cfg.DataChannelName)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.dbChannel = dbChannel
	p.dataChannel = dataChannel
	p.mu.Unlock()

	messages, err := p.adapter.GetPinnedMessages(ctx, dbChannel)
	if err != nil {
		return err
	}

	p.mu.Lock()
	cachedID := p.indexMessageID
	p.mu.Unlock()

	msg, found := findIndexMessage(messages, cachedID, p.botAuthorID)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = stateDiscovered
	if found {
		p.indexMessageID = msg.ID
		p.indexMessage = msg
	} else {
		p.indexMessageID = ""
	}
	return nil
}
