package provider

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatfs/internal/events"
	"chatfs/internal/index"
	"chatfs/internal/transport"
	"chatfs/internal/transport/memory"
)

const testBotID = "bot"

func newTestProvider(t *testing.T) (*Provider, *memory.Adapter) {
	adapter := memory.New(nil)
	hub := events.NewHub(nil)
	p := New(adapter, hub, nil, testBotID, Config{
		DbChannelName:   "db",
		DataChannelName: "data",
		ResyncPeriod:    time.Hour,
	}, nil)
	t.Cleanup(p.Dispose)
	return p, adapter
}

func TestConnectBootstrapsEmptyIndex(t *testing.T) {
	p, adapter := newTestProvider(t)
	ctx := context.Background()

	require.NoError(t, p.Connect(ctx))
	assert.Equal(t, events.Ready, p.Status())

	ch, err := adapter.GetOrCreateChannel(ctx, "db")
	require.NoError(t, err)
	pinned, err := adapter.GetPinnedMessages(ctx, ch)
	require.NoError(t, err)
	require.Len(t, pinned, 1)
	assert.True(t, pinned[0].HasAttachmentNamed("index.db"))

	idx := p.Index()
	require.NotNil(t, idx)
	assert.Equal(t, 0, idx.Len())
}

func TestWriteIndexThenLoopbackSuppressed(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()
	require.NoError(t, p.Connect(ctx))

	hub := p.hub
	fileCh, unsubscribe := hub.SubscribeFileChange()
	defer unsubscribe()

	next := index.New(time.Now())
	next.Put(&index.Entry{RelativePath: "a.txt", Length: 10, Hash: []byte{1, 2, 3}})

	require.NoError(t, p.WriteIndex(ctx, next))

	// Give the async notify (fired synchronously in the memory adapter)
	// a moment; then assert no externally-originated file change
	// happened as a result of our own write.
	select {
	case evt := <-fileCh:
		t.Fatalf("unexpected file change event from our own write: %+v", evt)
	case <-time.After(50 * time.Millisecond):
	}

	got := p.Index()
	require.NotNil(t, got)
	assert.True(t, next.Equal(got))
	assert.Equal(t, 0, p.pending.Len())
}

func TestDisconnectClearsStateAndPublishesNotReady(t *testing.T) {
	p, adapter := newTestProvider(t)
	ctx := context.Background()
	require.NoError(t, p.Connect(ctx))

	stateCh, unsubscribe := p.hub.SubscribeStateChange()
	defer unsubscribe()

	adapter.SimulateDisconnect(nil)

	assert.Equal(t, events.NotReady, p.Status())
	assert.Nil(t, p.Index())

	select {
	case status := <-stateCh:
		assert.Equal(t, events.NotReady, status)
	case <-time.After(time.Second):
		t.Fatal("expected a NotReady state change event")
	}
}

func TestWriteIndexRequiresReady(t *testing.T) {
	p, _ := newTestProvider(t)
	err := p.WriteIndex(context.Background(), index.New(time.Now()))
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestPendingEditSelfExpiresWithoutEcho(t *testing.T) {
	origSweep := pendingExpirySweep
	origTTL := pendingEditTTL
	pendingExpirySweep = 10 * time.Millisecond
	pendingEditTTL = 20 * time.Millisecond
	t.Cleanup(func() {
		pendingExpirySweep = origSweep
		pendingEditTTL = origTTL
	})

	p, _ := newTestProvider(t)
	ctx := context.Background()
	require.NoError(t, p.Connect(ctx))

	// Record an edit as if WriteIndex had fired, but never deliver the
	// matching onMessageUpdated notification that would otherwise
	// consume it via TryConsume's lazy sweep.
	p.pending.Record(time.Now())
	require.Equal(t, 1, p.pending.Len())

	assert.Eventually(t, func() bool {
		return p.pending.Len() == 0
	}, time.Second, 10*time.Millisecond, "pending edit should self-expire via the background sweep")
}

func TestFullSyncFailureEntersDegradedAndRecovers(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()
	require.NoError(t, p.Connect(ctx))
	require.Equal(t, events.Ready, p.Status())

	stateCh, unsubscribe := p.hub.SubscribeStateChange()
	defer unsubscribe()

	p.mu.Lock()
	realID := p.indexMessageID
	p.indexMessageID = "does-not-exist"
	p.mu.Unlock()

	p.triggerFullSync(ctx)

	select {
	case status := <-stateCh:
		assert.Equal(t, events.NotReady, status)
	case <-time.After(time.Second):
		t.Fatal("expected a NotReady state change event on failed resync")
	}
	assert.Equal(t, events.NotReady, p.Status())
	p.mu.Lock()
	assert.Equal(t, stateDegraded, p.state)
	p.mu.Unlock()

	p.mu.Lock()
	p.indexMessageID = realID
	p.mu.Unlock()

	p.triggerFullSync(ctx)

	select {
	case status := <-stateCh:
		assert.Equal(t, events.Ready, status)
	case <-time.After(time.Second):
		t.Fatal("expected a Ready state change event on recovered resync")
	}
	assert.Equal(t, events.Ready, p.Status())
}

func TestFindIndexMessageTieBreakLexicographicallySmallest(t *testing.T) {
	messages := []transport.Message{
		{ID: "msg-b", AuthorID: testBotID, Attachments: []transport.Attachment{{Filename: "index.db"}}},
		{ID: "msg-a", AuthorID: testBotID, Attachments: []transport.Attachment{{Filename: "INDEX.DB"}}},
		{ID: "msg-c", AuthorID: "someone-else", Attachments: []transport.Attachment{{Filename: "index.db"}}},
	}

	msg, ok := findIndexMessage(messages, "", testBotID)
	require.True(t, ok)
	assert.Equal(t, "msg-a", msg.ID)
}

func TestFindIndexMessagePrefersCachedID(t *testing.T) {
	messages := []transport.Message{
		{ID: "msg-a", AuthorID: testBotID, Attachments: []transport.Attachment{{Filename: "index.db"}}},
		{ID: "msg-z"},
	}

	msg, ok := findIndexMessage(messages, "msg-z", testBotID)
	require.True(t, ok)
	assert.Equal(t, "msg-z", msg.ID)
}
