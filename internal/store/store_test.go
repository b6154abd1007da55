package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mavbridge-dev/mavbridge/internal/mavlinkcodec"
)

// fixedClock lets a test drive Store.now deterministically.
func fixedClock(times ...time.Time) func() time.Time {
	i := 0
	return func() time.Time {
		t := times[i]
		if i < len(times)-1 {
			i++
		}
		return t
	}
}

// TestUpdateCounterTracksObservationCount exercises P1: after N updates
// of the same (sys, comp, name), counter equals N and last_update
// equals the clock of the Nth update.
func TestUpdateCounterTracksObservationCount(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := fixedClock(base, base.Add(time.Second), base.Add(2*time.Second), base.Add(3*time.Second))

	s := New()
	s.now = clock

	header := mavlinkcodec.Header{SystemID: 1, ComponentID: 1}
	hb := &common.MessageHeartbeat{Type: common.MAV_TYPE_GCS}

	const n = 4
	for i := 0; i < n; i++ {
		s.Update(header, hb)
	}

	entry := s.Vehicles[1].Components[1].Messages["HEARTBEAT"]
	require.NotNil(t, entry)
	assert.EqualValues(t, n, entry.Status.Time.Counter)
	assert.Equal(t, base.Add(3*time.Second), entry.Status.Time.LastUpdate)
	assert.Equal(t, base, entry.Status.Time.FirstUpdate)
}

// TestQueryPointerConsistentWithWholeTree exercises P2: for a path p
// that resolves, Query(p) equals the pretty-printed value found at /p
// of Query("").
func TestQueryPointerConsistentWithWholeTree(t *testing.T) {
	s := New()
	header := mavlinkcodec.Header{SystemID: 1, ComponentID: 1}
	s.Update(header, &common.MessageHeartbeat{Type: common.MAV_TYPE_GCS, CustomMode: 7})

	whole, err := s.Query("")
	require.NoError(t, err)

	var tree interface{}
	require.NoError(t, json.Unmarshal([]byte(whole), &tree))

	path := "vehicles/1/components/1/messages/HEARTBEAT/message/CustomMode"
	want, ok := ResolvePointer(tree, "/"+path)
	require.True(t, ok)
	wantJSON, err := json.MarshalIndent(want, "", "  ")
	require.NoError(t, err)

	got, err := s.Query(path)
	require.NoError(t, err)

	assert.Equal(t, string(wantJSON), got)
}

// TestQueryUnresolvedPathReturnsNone covers the documented behavior for
// a path that does not resolve: the literal string "None", not an
// error or an HTTP-style not-found.
func TestQueryUnresolvedPathReturnsNone(t *testing.T) {
	s := New()
	got, err := s.Query("vehicles/99/components/0/messages/HEARTBEAT")
	require.NoError(t, err)
	assert.Equal(t, "None", got)
}
