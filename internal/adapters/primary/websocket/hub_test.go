package websocket

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyzylorda-dev/incident-map-backend/internal/core/domain"
	"github.com/kyzylorda-dev/incident-map-backend/internal/observability"
)

func testHub() *Hub {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHub(observability.NewMetricsForTesting(), logger)
}

func testClient(h *Hub) *Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(h, nil, logger)
}

func newIncidentEvent() domain.PushEvent {
	return domain.PushEvent{
		Type: domain.PushNewIncident,
		Data: map[string]any{"location": "улица Абая"},
	}
}

func TestHub_Broadcast(t *testing.T) {
	t.Run("zero observers", func(t *testing.T) {
		hub := testHub()

		count := hub.Broadcast(newIncidentEvent())

		assert.Equal(t, 0, count)
	})

	t.Run("delivers to all observers", func(t *testing.T) {
		hub := testHub()
		a := testClient(hub)
		b := testClient(hub)
		hub.Register(a)
		hub.Register(b)

		event := newIncidentEvent()
		count := hub.Broadcast(event)

		assert.Equal(t, 2, count)
		assert.Equal(t, event, <-a.send)
		assert.Equal(t, event, <-b.send)
	})

	t.Run("returns attempted count regardless of failures", func(t *testing.T) {
		hub := testHub()
		healthy := testClient(hub)
		stalled := testClient(hub)
		hub.Register(healthy)
		hub.Register(stalled)

		// Fill the stalled observer's buffer so the next send fails.
		for i := 0; i < cap(stalled.send); i++ {
			require.NoError(t, stalled.enqueue(newIncidentEvent()))
		}

		count := hub.Broadcast(newIncidentEvent())

		assert.Equal(t, 2, count)
		// The stalled observer stays registered: eviction is reserved for
		// explicit disconnects.
		assert.Equal(t, 2, hub.ClientCount())
		// The healthy observer still got the event.
		assert.Len(t, healthy.send, 1)
	})

	t.Run("events arrive in broadcast order", func(t *testing.T) {
		hub := testHub()
		c := testClient(hub)
		hub.Register(c)

		for i := 0; i < 5; i++ {
			hub.Broadcast(domain.PushEvent{Type: domain.PushNewIncident, Data: i})
		}

		for i := 0; i < 5; i++ {
			got := <-c.send
			assert.Equal(t, i, got.Data)
		}
	})
}

func TestHub_Unregister(t *testing.T) {
	t.Run("removes observer and closes its channel", func(t *testing.T) {
		hub := testHub()
		c := testClient(hub)
		hub.Register(c)
		require.Equal(t, 1, hub.ClientCount())

		hub.Unregister(c)

		assert.Equal(t, 0, hub.ClientCount())
		_, open := <-c.send
		assert.False(t, open)

		// Enqueue after close must not panic.
		assert.Error(t, c.enqueue(newIncidentEvent()))
	})

	t.Run("idempotent", func(t *testing.T) {
		hub := testHub()
		c := testClient(hub)
		hub.Register(c)

		hub.Unregister(c)
		assert.NotPanics(t, func() {
			hub.Unregister(c)
		})
		assert.Equal(t, 0, hub.ClientCount())
	})

	t.Run("unregistering an unknown observer is a no-op", func(t *testing.T) {
		hub := testHub()
		stranger := testClient(hub)

		assert.NotPanics(t, func() {
			hub.Unregister(stranger)
		})
	})

	t.Run("broadcast after unregister skips the removed observer", func(t *testing.T) {
		hub := testHub()
		stays := testClient(hub)
		leaves := testClient(hub)
		hub.Register(stays)
		hub.Register(leaves)

		hub.Unregister(leaves)
		count := hub.Broadcast(newIncidentEvent())

		assert.Equal(t, 1, count)
		assert.Len(t, stays.send, 1)
	})
}
