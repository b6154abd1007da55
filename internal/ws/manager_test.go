package ws

import (
	"testing"
	"time"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mavbridge-dev/mavbridge/internal/mavlinkcodec"
)

// TestBroadcastMatchesFilter exercises P5: a subscriber with filter
// "^HEARTBEAT$" receives only HEARTBEAT frames, in ingestion order.
func TestBroadcastMatchesFilter(t *testing.T) {
	m := New(nil, nil)
	sub := m.Subscribe("^HEARTBEAT$")
	defer m.Unsubscribe(sub)

	envelopes := []mavlinkcodec.Envelope{
		{Message: &common.MessageHeartbeat{CustomMode: 1}},
		{Message: &common.MessageSysStatus{}},
		{Message: &common.MessageHeartbeat{CustomMode: 2}},
	}
	for _, env := range envelopes {
		m.Broadcast(env)
	}

	var got []string
	timeout := time.After(time.Second)
	for len(got) < 2 {
		select {
		case raw := <-sub.sink:
			got = append(got, string(raw))
		case <-timeout:
			t.Fatal("timed out waiting for filtered frames")
		}
	}

	assert.Contains(t, got[0], `"CustomMode":1`)
	assert.Contains(t, got[1], `"CustomMode":2`)

	select {
	case extra := <-sub.sink:
		t.Fatalf("unexpected extra frame delivered: %s", extra)
	default:
	}
}

// TestSubscribeWithBadFilterNeverMatches covers the degrade-to-silence
// behavior for a filter expression that fails to compile.
func TestSubscribeWithBadFilterNeverMatches(t *testing.T) {
	m := New(nil, nil)
	sub := m.Subscribe("(unterminated")
	defer m.Unsubscribe(sub)

	m.Broadcast(mavlinkcodec.Envelope{Message: &common.MessageHeartbeat{}})

	select {
	case raw := <-sub.sink:
		t.Fatalf("expected no delivery for a non-matching filter, got %s", raw)
	case <-time.After(50 * time.Millisecond):
	}
}

// TestBroadcastDisconnectsOnFullBuffer covers that a subscriber which
// falls behind is dropped by closing its sink, not by silently
// discarding the frame that overflowed it.
func TestBroadcastDisconnectsOnFullBuffer(t *testing.T) {
	m := New(nil, nil)
	sub := m.Subscribe(".*")

	for i := 0; i < sendBufferSize+1; i++ {
		m.Broadcast(mavlinkcodec.Envelope{Message: &common.MessageHeartbeat{}})
	}

	m.mu.Lock()
	_, stillSubscribed := m.subscriptions[sub]
	m.mu.Unlock()
	assert.False(t, stillSubscribed)

	for i := 0; i < sendBufferSize; i++ {
		<-sub.sink
	}
	_, open := <-sub.sink
	assert.False(t, open)
}

// TestHandleTextWithoutCallbackReturnsCanonicalError covers the wire
// shape of the "no callback wired" error frame.
func TestHandleTextWithoutCallbackReturnsCanonicalError(t *testing.T) {
	m := New(nil, nil)
	sub := m.Subscribe(".*")
	defer m.Unsubscribe(sub)

	m.handleText(sub, `{"type":"HEARTBEAT"}`)

	raw := <-sub.sink
	assert.JSONEq(t, `{"error":"MAVLink callback does not exist."}`, string(raw))
}

// TestHandleTextCallbackError covers that a callback's error surfaces
// as a JSON error frame to the originating subscriber.
func TestHandleTextCallbackError(t *testing.T) {
	onText := func(text string) error {
		return assert.AnError
	}
	m := New(onText, nil)
	sub := m.Subscribe(".*")
	defer m.Unsubscribe(sub)

	m.handleText(sub, `{"type":"HEARTBEAT"}`)

	raw := <-sub.sink
	require.Contains(t, string(raw), "error")
}
