// Package link owns the MAVLink transport: a background heartbeat
// worker, a background receive worker that demultiplexes inbound
// frames onto a channel, and a thread-safe send path.
package link

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/bluenviron/gomavlib/v3"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/message"

	"github.com/mavbridge-dev/mavbridge/internal/mavlinkcodec"
	"github.com/mavbridge-dev/mavbridge/internal/metrics"
)

// Config configures a Handle.
type Config struct {
	// Connect is a connection string in the spec's grammar:
	// udpin:/udpout:/tcpin:/tcpout:host:port, or serial:device:baud.
	Connect string
	// Version selects the MAVLink wire protocol, 1 or 2.
	Version int
	// SystemID/ComponentID identify mavbridge itself on the link.
	SystemID    byte
	ComponentID byte
	// HeartbeatPeriod defaults to 1 second, per spec.
	HeartbeatPeriod time.Duration
	Logger          *log.Logger
	// Metrics is optional; when set, the link reports heartbeats sent
	// and send failures to it.
	Metrics *metrics.Metrics
}

// Handle owns a live MAVLink connection: the transport, the heartbeat
// worker, the receive worker and the outbound sequence counter.
type Handle struct {
	node    *gomavlib.Node
	logger  *log.Logger
	metrics *metrics.Metrics

	systemID    byte
	componentID byte

	sendMu   sync.Mutex
	sequence byte

	inbound chan mavlinkcodec.Envelope

	stopHeartbeat chan struct{}
	heartbeatDone chan struct{}
	receiveDone   chan struct{}
}

// New opens the connection described by cfg and starts the heartbeat
// and receive workers. A malformed connection string or an endpoint
// that fails to bind/connect is reported as a TransportOpen error.
func New(cfg Config) (*Handle, error) {
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "[mavbridge] ", log.LstdFlags)
	}
	if cfg.HeartbeatPeriod == 0 {
		cfg.HeartbeatPeriod = time.Second
	}

	endpoint, err := mavlinkcodec.ParseConnectionString(cfg.Connect)
	if err != nil {
		return nil, fmt.Errorf("link: TransportOpen: %w", err)
	}

	version := gomavlib.V2
	if cfg.Version == 1 {
		version = gomavlib.V1
	}

	node, err := gomavlib.NewNode(gomavlib.NodeConf{
		Endpoints:      []gomavlib.EndpointConf{endpoint},
		Dialect:        mavlinkcodec.Ardupilotmega.Raw(),
		OutVersion:     version,
		OutSystemID:    cfg.SystemID,
		OutComponentID: cfg.ComponentID,
	})
	if err != nil {
		return nil, fmt.Errorf("link: TransportOpen: connecting to %q: %w", cfg.Connect, err)
	}

	h := &Handle{
		node:          node,
		logger:        cfg.Logger,
		metrics:       cfg.Metrics,
		systemID:      cfg.SystemID,
		componentID:   cfg.ComponentID,
		inbound:       make(chan mavlinkcodec.Envelope),
		stopHeartbeat: make(chan struct{}),
		heartbeatDone: make(chan struct{}),
		receiveDone:   make(chan struct{}),
	}

	go h.runHeartbeat(cfg.HeartbeatPeriod)
	go h.runReceive()

	return h, nil
}

// Inbound returns the channel of envelopes produced by the receive
// worker. It is unbounded in the sense that the worker blocks writing
// to it rather than dropping frames when the consumer falls behind.
func (h *Handle) Inbound() <-chan mavlinkcodec.Envelope {
	return h.inbound
}

// Send serializes and transmits one message, returning an estimate of
// the number of wire bytes written. Concurrent callers are serialized
// through the same lock that owns the outbound sequence counter, so
// heartbeats never interleave with application sends mid-frame.
func (h *Handle) Send(msg message.Message) (int, error) {
	h.sendMu.Lock()
	defer h.sendMu.Unlock()

	if err := h.node.WriteMessageAll(msg); err != nil {
		if h.metrics != nil {
			h.metrics.LinkSendErrors.Inc()
		}
		return 0, fmt.Errorf("link: send: %w", err)
	}

	h.sequence++

	return estimateWireSize(msg), nil
}

// HeaderFor reports the handle's identity and the count of successful
// Sends, modulo 256. Frames are written through gomavlib's
// WriteMessageAll, which takes no header, so this value is not the
// sequence number placed on the wire.
func (h *Handle) HeaderFor() mavlinkcodec.Header {
	h.sendMu.Lock()
	defer h.sendMu.Unlock()
	return mavlinkcodec.Header{
		SystemID:    h.systemID,
		ComponentID: h.componentID,
		Sequence:    h.sequence,
	}
}

// Close stops both workers and releases the transport.
func (h *Handle) Close() error {
	close(h.stopHeartbeat)
	<-h.heartbeatDone
	h.node.Close()
	<-h.receiveDone
	close(h.inbound)
	return nil
}

func (h *Handle) runHeartbeat(period time.Duration) {
	defer close(h.heartbeatDone)

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-h.stopHeartbeat:
			return
		case <-ticker.C:
			hb := &common.MessageHeartbeat{
				Type:           common.MAV_TYPE_ONBOARD_CONTROLLER,
				Autopilot:      common.MAV_AUTOPILOT_INVALID,
				BaseMode:       0,
				CustomMode:     0,
				SystemStatus:   common.MAV_STATE_STANDBY,
				MavlinkVersion: 3,
			}
			if _, err := h.Send(hb); err != nil {
				h.logger.Printf("heartbeat: %v", err)
			} else if h.metrics != nil {
				h.metrics.LinkHeartbeatsSent.Inc()
			}
		}
	}
}

func (h *Handle) runReceive() {
	defer close(h.receiveDone)

	for evt := range h.node.Events() {
		frm, ok := evt.(*gomavlib.EventFrame)
		if !ok {
			continue
		}

		env := mavlinkcodec.Envelope{
			Header: mavlinkcodec.Header{
				SystemID:    frm.SystemID(),
				ComponentID: frm.ComponentID(),
				Sequence:    frm.SequenceNumber(),
			},
			Message: frm.Message(),
		}
		h.inbound <- env
	}
}

// estimateWireSize reports the encoded size of a message's fixed-size
// fields. MAVLink messages generated by gomavlib are flat structs of
// integers, floats and fixed-size arrays, so binary.Size is exact for
// the overwhelming majority of them; messages it cannot size (because
// they carry a variable-length slice, e.g. FILE_TRANSFER_PROTOCOL's
// payload) fall back to their JSON encoding length as an estimate.
func estimateWireSize(msg message.Message) int {
	if n := binary.Size(msg); n > 0 {
		return n
	}
	if raw, err := json.Marshal(msg); err == nil {
		return len(raw)
	}
	return 0
}
