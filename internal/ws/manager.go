// Package ws is the WebSocket fan-out manager: a registry of
// subscriptions, each filtering the live message stream by a compiled
// regular expression on message name, plus an optional callback that
// turns inbound text frames into outbound MAVLink sends.
package ws

import (
	"encoding/json"
	"log"
	"regexp"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/mavbridge-dev/mavbridge/internal/mavlinkcodec"
	"github.com/mavbridge-dev/mavbridge/internal/metrics"
)

const (
	sendBufferSize = 256
)

// OnTextFunc translates one inbound text frame (a JSON-encoded MAVLink
// message) into bytes written on the link. It returns an error to be
// reported back to the originating subscriber as a JSON error frame.
type OnTextFunc func(text string) error

// Subscription is one registered sink: a send channel feeding a
// writer goroutine, and the compiled filter gating what reaches it.
type Subscription struct {
	sink   chan []byte
	filter *regexp.Regexp
}

// Manager owns the subscription list and the optional inbound-text
// callback. The zero value is not usable; construct with New.
type Manager struct {
	mu            sync.Mutex
	subscriptions map[*Subscription]struct{}
	onText        OnTextFunc
	metrics       *metrics.Metrics
}

// New returns an empty Manager. onText may be nil, in which case
// inbound text frames are answered with the canonical "callback does
// not exist" error frame. m may be nil (no metrics reported).
func New(onText OnTextFunc, m *metrics.Metrics) *Manager {
	return &Manager{
		subscriptions: make(map[*Subscription]struct{}),
		onText:        onText,
		metrics:       m,
	}
}

// errNoCallback is the canonical error frame sent back to a subscriber
// when no onText callback was wired (no link to route the send to).
var errNoCallback = mustMarshalError("MAVLink callback does not exist.")

func mustMarshalError(msg string) []byte {
	raw, err := json.Marshal(struct {
		Error string `json:"error"`
	}{Error: msg})
	if err != nil {
		panic(err)
	}
	return raw
}

// Subscribe compiles filterExpr and registers a new subscription. A
// filter that fails to compile is kept as a subscription with a filter
// that never matches, rather than rejecting the connection — per spec,
// malformed filters degrade to silence, not errors.
func (m *Manager) Subscribe(filterExpr string) *Subscription {
	if filterExpr == "" {
		filterExpr = ".*"
	}
	re, err := regexp.Compile(filterExpr)
	if err != nil {
		log.Printf("[ws] filter %q failed to compile, subscription will receive nothing: %v", filterExpr, err)
		re = nil
	}

	sub := &Subscription{
		sink:   make(chan []byte, sendBufferSize),
		filter: re,
	}

	m.mu.Lock()
	m.subscriptions[sub] = struct{}{}
	m.mu.Unlock()

	return sub
}

// Unsubscribe removes sub by identity and closes its sink.
func (m *Manager) Unsubscribe(sub *Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subscriptions[sub]; ok {
		delete(m.subscriptions, sub)
		close(sub.sink)
	}
}

// Broadcast serializes env once and enqueues it to every subscription
// whose filter matches the message's name. A subscriber whose buffer is
// full is disconnected rather than skipped: per spec, a falling-behind
// subscriber may only lose ordering through disconnection, never
// through an in-place drop.
func (m *Manager) Broadcast(env mavlinkcodec.Envelope) {
	name := mavlinkcodec.MessageName(env.Message)

	raw, err := json.Marshal(env)
	if err != nil {
		log.Printf("[ws] failed to marshal envelope for broadcast: %v", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for sub := range m.subscriptions {
		if sub.filter == nil || !sub.filter.MatchString(name) {
			continue
		}
		select {
		case sub.sink <- raw:
			if m.metrics != nil {
				m.metrics.WebSocketMessages.WithLabelValues("out").Inc()
			}
		default:
			log.Printf("[ws] subscriber buffer full, disconnecting for %s", name)
			delete(m.subscriptions, sub)
			close(sub.sink)
		}
	}
}

// handleText runs the onText callback (or the no-callback error frame)
// for one inbound text message, and enqueues any resulting error back
// to the originating subscription.
func (m *Manager) handleText(sub *Subscription, text string) {
	if m.metrics != nil {
		m.metrics.WebSocketMessages.WithLabelValues("in").Inc()
	}
	if m.onText == nil {
		select {
		case sub.sink <- errNoCallback:
		default:
		}
		return
	}
	if err := m.onText(text); err != nil {
		raw := mustMarshalError(err.Error())
		select {
		case sub.sink <- raw:
		default:
		}
	}
}

// Serve takes an already upgraded WebSocket conn, registers a
// subscription filtered by filterExpr, and runs the read/write pumps
// until the connection closes. It blocks until the connection ends.
func (m *Manager) Serve(conn *websocket.Conn, filterExpr string) {
	sub := m.Subscribe(filterExpr)
	defer m.Unsubscribe(sub)

	done := make(chan struct{})
	go m.writePump(conn, sub, done)
	m.readPump(conn, sub)
	close(done)
}

func (m *Manager) readPump(conn *websocket.Conn, sub *Subscription) {
	defer conn.Close()
	for {
		_, text, err := conn.ReadMessage()
		if err != nil {
			return
		}
		m.handleText(sub, string(text))
	}
}

func (m *Manager) writePump(conn *websocket.Conn, sub *Subscription, done chan struct{}) {
	for {
		select {
		case msg, ok := <-sub.sink:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
