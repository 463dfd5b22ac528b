package provider

import (
	"context"
	"log/slog"
	"time"

	"chatfs/internal/events"
)

// startResyncTimer begins firing fullSync every p.cfg.ResyncPeriod
// until stopResyncTimer is called, per spec §4.D.3; it keeps firing
// while Degraded, so a later successful resync restores Ready. The first fire
// happens after one full period (dueTime == period, per spec).
func (p *Provider) startResyncTimer(ctx context.Context) {
	resyncCtx, cancel := context.WithCancel(ctx)

	p.mu.Lock()
	p.resyncCancel = cancel
	p.mu.Unlock()

	p.resyncWG.Add(1)
	go p.resyncLoop(resyncCtx)
}

func (p *Provider) resyncLoop(ctx context.Context) {
	defer p.resyncWG.Done()

	ticker := time.NewTicker(p.cfg.ResyncPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.triggerFullSync(ctx)
		}
	}
}

// triggerFullSync runs fullSync through a singleflight group so an
// already-in-flight sync absorbs this fire instead of running twice
// concurrently.
func (p *Provider) triggerFullSync(ctx context.Context) {
	_, _, _ = p.resyncGroup.Do("fullSync", func() (interface{}, error) {
		p.fullSync(ctx)
		return nil, nil
	})
}

// fullSync emits the All-type resync event and re-fetches the remote
// index message, per spec §4.D.3.
func (p *Provider) fullSync(ctx context.Context) {
	const op = "provider.fullSync"
	log := p.log.With(slog.String("op", op))

	p.hub.PublishFileChange(events.NewResyncEvent())

	p.mu.Lock()
	dbChannel := p.dbChannel
	messageID := p.indexMessageID
	p.mu.Unlock()
	if messageID == "" {
		return
	}

	msg, err := p.adapter.GetMessage(ctx, dbChannel, messageID)
	if err != nil {
		log.Error("full resync fetch failed", slog.Any("error", err))
		p.enterDegraded()
		return
	}

	remote, err := p.retrieveIndex(ctx, msg)
	if err != nil {
		log.Error("full resync decode failed", slog.Any("error", err))
		p.enterDegraded()
		return
	}

	p.mu.Lock()
	p.lastKnown = remote
	p.mu.Unlock()

	if p.cache != nil {
		_ = p.cache.SaveLastKnownIndex(remote)
	}

	p.leaveDegraded()
}

// enterDegraded transitions Ready -> Degraded after a failed resync, per
// spec §4.D's Ready <-> Degraded edge. The provider keeps its last
// known index (Index still returns it) but reports NotReady externally
// until a later resync succeeds, so read streams refuse Open and Read
// in the meantime. A no-op outside Ready (e.g. already Degraded, or
// disconnected in the meantime).
func (p *Provider) enterDegraded() {
	p.mu.Lock()
	wasReady := p.state == stateReady
	if wasReady {
		p.state = stateDegraded
	}
	p.mu.Unlock()

	if wasReady {
		p.hub.PublishStateChange(events.NotReady)
	}
}

// leaveDegraded transitions Degraded -> Ready once a resync succeeds
// again.
func (p *Provider) leaveDegraded() {
	p.mu.Lock()
	wasDegraded := p.state == stateDegraded
	if wasDegraded {
		p.state = stateReady
	}
	p.mu.Unlock()

	if wasDegraded {
		p.hub.PublishStateChange(events.Ready)
	}
}

func (p *Provider) stopResyncTimer() {
	p.mu.Lock()
	cancel := p.resyncCancel
	p.resyncCancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.resyncWG.Wait()
}
