package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRunningHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(zap.NewNop())
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func waitEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func assertNoEvent(t *testing.T, ch <-chan Event) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event delivered: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_DeliversMatchingEvents(t *testing.T) {
	hub := newRunningHub(t)
	got := make(chan Event, 1)

	sub := hub.Subscribe("inventory_items", EventInsert, func(ev Event) { got <- ev })
	require.NoError(t, sub.Err)

	hub.Publish(Event{Table: "inventory_items", Type: EventInsert, New: "row"})

	ev := waitEvent(t, got)
	assert.Equal(t, EventInsert, ev.Type)
	assert.Equal(t, "row", ev.New)
}

func TestHub_EventTypeFilter(t *testing.T) {
	hub := newRunningHub(t)
	got := make(chan Event, 1)

	sub := hub.Subscribe("inventory_items", EventDelete, func(ev Event) { got <- ev })
	require.NoError(t, sub.Err)

	hub.Publish(Event{Table: "inventory_items", Type: EventInsert})
	hub.Publish(Event{Table: "inventory_items", Type: EventUpdate})
	hub.Publish(Event{Table: "inventory_items", Type: EventDelete})

	ev := waitEvent(t, got)
	assert.Equal(t, EventDelete, ev.Type)
	assertNoEvent(t, got)
}

func TestHub_TableIsolation(t *testing.T) {
	hub := newRunningHub(t)
	got := make(chan Event, 1)

	sub := hub.Subscribe("categories", EventAll, func(ev Event) { got <- ev })
	require.NoError(t, sub.Err)

	hub.Publish(Event{Table: "inventory_items", Type: EventInsert})
	assertNoEvent(t, got)

	hub.Publish(Event{Table: "categories", Type: EventInsert})
	waitEvent(t, got)
}

func TestHub_EmptyEventTypeMeansAll(t *testing.T) {
	hub := newRunningHub(t)
	got := make(chan Event, 3)

	sub := hub.Subscribe("inventory_items", "", func(ev Event) { got <- ev })
	require.NoError(t, sub.Err)

	hub.Publish(Event{Table: "inventory_items", Type: EventInsert})
	hub.Publish(Event{Table: "inventory_items", Type: EventUpdate})
	hub.Publish(Event{Table: "inventory_items", Type: EventDelete})

	for i := 0; i < 3; i++ {
		waitEvent(t, got)
	}
}

func TestHub_PanickingHandlerDoesNotBreakDelivery(t *testing.T) {
	hub := newRunningHub(t)
	got := make(chan Event, 2)

	bad := hub.Subscribe("inventory_items", EventAll, func(Event) { panic("consumer bug") })
	require.NoError(t, bad.Err)
	good := hub.Subscribe("inventory_items", EventAll, func(ev Event) { got <- ev })
	require.NoError(t, good.Err)

	hub.Publish(Event{Table: "inventory_items", Type: EventInsert})
	waitEvent(t, got)

	// The feed survives for subsequent events too.
	hub.Publish(Event{Table: "inventory_items", Type: EventUpdate})
	waitEvent(t, got)
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := newRunningHub(t)
	got := make(chan Event, 1)

	sub := hub.Subscribe("inventory_items", EventAll, func(ev Event) { got <- ev })
	require.NoError(t, sub.Err)

	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent

	hub.Publish(Event{Table: "inventory_items", Type: EventInsert})
	assertNoEvent(t, got)
}

func TestHub_SubscribeAfterStop(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	hub.Stop()

	sub := hub.Subscribe("inventory_items", EventAll, func(Event) {})
	assert.ErrorIs(t, sub.Err, ErrHubClosed)
}

func TestHub_SubscribeValidation(t *testing.T) {
	hub := newRunningHub(t)

	assert.Error(t, hub.Subscribe("inventory_items", EventAll, nil).Err)
	assert.Error(t, hub.Subscribe("", EventAll, func(Event) {}).Err)
}

func TestHub_PublishAfterStopIsDropped(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	hub.Stop()

	// Must not panic or block.
	hub.Publish(Event{Table: "inventory_items", Type: EventInsert})
}
