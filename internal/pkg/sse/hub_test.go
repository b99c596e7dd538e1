package sse

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesEveryStreamOfUser(t *testing.T) {
	h := NewHub()
	a, cleanA := h.Subscribe("u1")
	b, cleanB := h.Subscribe("u1")
	other, cleanOther := h.Subscribe("u2")
	defer cleanA()
	defer cleanB()
	defer cleanOther()

	assert.Equal(t, 2, h.SubscriberCount("u1"))
	assert.Equal(t, 3, h.TotalSubscribers())

	h.Publish("u1", Event{Event: "notification", Data: map[string]string{"title": "hi"}})

	for _, ch := range []<-chan Event{a, b} {
		select {
		case ev := <-ch:
			assert.Equal(t, "u1", ev.UserID)
			assert.Equal(t, "notification", ev.Event)
		default:
			t.Fatal("expected an event")
		}
	}
	select {
	case <-other:
		t.Fatal("u2 should not receive u1 events")
	default:
	}
}

func TestHub_FullBufferDrops(t *testing.T) {
	h := NewHub()
	_, cleanup := h.Subscribe("u1")
	defer cleanup()

	for i := 0; i < defaultBuffer+3; i++ {
		h.Publish("u1", Event{Event: "x"})
	}
	assert.Equal(t, int64(3), h.Dropped())
}

func TestHub_CleanupIsIdempotent(t *testing.T) {
	h := NewHub()
	ch, cleanup := h.Subscribe("u1")
	cleanup()
	cleanup()

	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, h.TotalSubscribers())

	h.PublishToMany([]string{"u1", "u2"}, Event{Event: "x"})
}

func TestEvent_WriteTo(t *testing.T) {
	var buf bytes.Buffer
	_, err := Event{ID: "n1", Event: "notification", Data: map[string]int{"unread": 2}}.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, "id: n1\nevent: notification\ndata: {\"unread\":2}\n\n", buf.String())
}

func TestHub_CloseEndsStreams(t *testing.T) {
	h := NewHub()
	a, cleanupA := h.Subscribe("u1")
	b, cleanupB := h.Subscribe("u2")

	h.Close()

	_, open := <-a
	assert.False(t, open)
	_, open = <-b
	assert.False(t, open)
	assert.Zero(t, h.TotalSubscribers())

	// Cleanup after Close must not close the channel again.
	cleanupA()
	cleanupB()

	late, cleanup := h.Subscribe("u3")
	defer cleanup()
	_, open = <-late
	assert.False(t, open)
	h.Publish("u3", Event{Event: "x"})
}
