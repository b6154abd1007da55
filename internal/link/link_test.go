package link

import (
	"testing"
	"time"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mavbridge-dev/mavbridge/internal/mavlinkcodec"
)

// TestHeartbeatSequenceWraps exercises P4: sequence numbers emitted by
// the handle form an unbroken run, wrapping modulo 256, as observed by
// a looped-back receiver.
func TestHeartbeatSequenceWraps(t *testing.T) {
	server, err := New(Config{
		Connect:         "udpin:127.0.0.1:15760",
		SystemID:        255,
		ComponentID:     0,
		HeartbeatPeriod: 20 * time.Millisecond,
	})
	require.NoError(t, err)
	defer server.Close()

	client, err := New(Config{
		Connect:         "udpout:127.0.0.1:15760",
		SystemID:        1,
		ComponentID:     1,
		HeartbeatPeriod: time.Hour,
	})
	require.NoError(t, err)
	defer client.Close()

	var haveLast bool
	var last byte
	timeout := time.After(2 * time.Second)
	received := 0
	for received < 5 {
		select {
		case env := <-client.Inbound():
			if _, ok := env.Message.(*common.MessageHeartbeat); !ok {
				continue
			}
			if haveLast {
				assert.Equal(t, last+1, env.Header.Sequence, "sequence observed out of order (wrap-around is the only allowed discontinuity)")
			}
			last = env.Header.Sequence
			haveLast = true
			received++
		case <-timeout:
			t.Fatal("timed out waiting for heartbeats")
		}
	}
}

func TestEstimateWireSizeFallsBackToJSON(t *testing.T) {
	msg := &common.MessageFileTransferProtocol{
		TargetNetwork:   0,
		TargetSystem:    1,
		TargetComponent: 1,
		Payload:         []byte{1, 2, 3},
	}
	n := estimateWireSize(msg)
	assert.Greater(t, n, 0)
}

func TestMessageNameRoundTrip(t *testing.T) {
	id, err := mavlinkcodec.MessageIDFromName("HEARTBEAT")
	require.NoError(t, err)
	msg, err := mavlinkcodec.DefaultMessageFromID(mavlinkcodec.Common, id)
	require.NoError(t, err)
	assert.Equal(t, "HEARTBEAT", mavlinkcodec.MessageName(msg))
}
