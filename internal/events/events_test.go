package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscribeStateChangeReceivesPublish(t *testing.T) {
	h := NewHub(nil)
	ch, unsubscribe := h.SubscribeStateChange()
	defer unsubscribe()

	h.PublishStateChange(Ready)

	select {
	case got := <-ch:
		assert.Equal(t, Ready, got)
	default:
		t.Fatal("expected a buffered state change")
	}
}

func TestPublishFileChangeDropsWhenSubscriberFull(t *testing.T) {
	h := NewHub(nil)
	_, unsubscribe := h.SubscribeFileChange()
	defer unsubscribe()

	for i := 0; i < subscriberBufferSize+10; i++ {
		h.PublishFileChange(NewResyncEvent())
	}
	// Must not block or panic; excess events are dropped.
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	h := NewHub(nil)
	ch, unsubscribe := h.SubscribeStateChange()
	unsubscribe()

	_, ok := <-ch
	assert.False(t, ok)
}
