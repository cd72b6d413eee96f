package events

import (
	"testing"
	"time"

	"tidybook/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesSubscribers(t *testing.T) {
	hub := NewHub()
	ch, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	hub.Publish(models.ChatEvent{Type: "message", ConversationID: "conv-1"})

	select {
	case event := <-ch:
		assert.Equal(t, "conv-1", event.ConversationID)
	case <-time.After(time.Second):
		t.Fatal("event never arrived")
	}
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub()
	_, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		// More events than the channel buffers; Publish must never block.
		for i := 0; i < 100; i++ {
			hub.Publish(models.ChatEvent{Type: "message", ConversationID: "conv-1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub()
	ch, unsubscribe := hub.Subscribe()

	unsubscribe()

	_, open := <-ch
	require.False(t, open)

	// Publishing after unsubscribe must not panic.
	hub.Publish(models.ChatEvent{Type: "message"})
}
