package provider

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// pendingExpirySweep is how often the background cleanup goroutine
// checks for stale entries, independent of whether any external edit
// notification ever arrives to trigger TryConsume's lazy sweep. A var,
// not a const, so tests can shorten it instead of waiting out the real
// interval.
var pendingExpirySweep = 5 * time.Second

// pendingEditTTL is how long a recorded self-originated edit survives
// before it is assumed to have been missed, per spec §4.D.2. A var so
// tests can shorten it rather than waiting out the real 30s window.
var pendingEditTTL = 30 * time.Second

type pendingEdit struct {
	id        string
	editedAt  time.Time
	expiresAt time.Time
}

// pendingEdits is a FIFO queue of self-originated index edits awaiting
// their corresponding onMessageUpdated notification. The spec's source
// used LIFO removal; this rewrite uses FIFO per the documented design
// intent, since entries are otherwise indistinguishable.
type pendingEdits struct {
	mu    sync.Mutex
	queue []pendingEdit
}

func newPendingEdits() *pendingEdits {
	return &pendingEdits{}
}

// Record appends a newly observed self-originated edit timestamp.
func (p *pendingEdits) Record(editedAt time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.queue = append(p.queue, pendingEdit{
		id:        uuid.NewString(),
		editedAt:  editedAt,
		expiresAt: editedAt.Add(pendingEditTTL),
	})
}

// TryConsume removes and returns the oldest non-expired entry as of
// now, reporting whether one was available. An external update should
// be suppressed (treated as our own echo) iff ok is true.
func (p *pendingEdits) TryConsume(now time.Time) (id string, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.expireLocked(now)
	if len(p.queue) == 0 {
		return "", false
	}
	edit := p.queue[0]
	p.queue = p.queue[1:]
	return edit.id, true
}

// ExpireStale drops entries whose TTL has elapsed without a matching
// update ever arriving.
func (p *pendingEdits) ExpireStale(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expireLocked(now)
}

func (p *pendingEdits) expireLocked(now time.Time) {
	live := p.queue[:0]
	for _, e := range p.queue {
		if now.Before(e.expiresAt) {
			live = append(live, e)
		}
	}
	p.queue = live
}

// Len reports the number of entries still pending.
func (p *pendingEdits) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Clear drops every pending entry, used on disconnect.
func (p *pendingEdits) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue = nil
}

// startPendingExpiryTimer begins a background sweep of p.pending,
// analogous to startResyncTimer, so an edit that is never echoed back
// by an onMessageUpdated notification still self-expires per spec §4.D.2
// instead of sitting in the queue until the next external update
// happens to arrive.
func (p *Provider) startPendingExpiryTimer(ctx context.Context) {
	pendingCtx, cancel := context.WithCancel(ctx)

	p.mu.Lock()
	p.pendingCancel = cancel
	p.mu.Unlock()

	p.pendingWG.Add(1)
	go p.pendingExpiryLoop(pendingCtx)
}

func (p *Provider) pendingExpiryLoop(ctx context.Context) {
	defer p.pendingWG.Done()

	ticker := time.NewTicker(pendingExpirySweep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pending.ExpireStale(time.Now())
		}
	}
}

func (p *Provider) stopPendingExpiryTimer() {
	p.mu.Lock()
	cancel := p.pendingCancel
	p.pendingCancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.pendingWG.Wait()
}
