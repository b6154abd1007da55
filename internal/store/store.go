// Package store maintains a live, per-vehicle/per-component mirror of
// the latest instance of every MAVLink message name observed on the
// link, and answers JSON-pointer queries against that mirror.
package store

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/bluenviron/gomavlib/v3/pkg/message"

	"github.com/mavbridge-dev/mavbridge/internal/mavlinkcodec"
)

// Temporal tracks when a message name was first/last observed, how
// many times, and the derived update frequency.
type Temporal struct {
	FirstUpdate time.Time `json:"first_update"`
	LastUpdate  time.Time `json:"last_update"`
	Counter     uint64    `json:"counter"`
	Frequency   float32   `json:"frequency"`
}

func newTemporal(now time.Time) Temporal {
	return Temporal{FirstUpdate: now, LastUpdate: now, Counter: 1, Frequency: 0}
}

// update advances the temporal record for one more observation at now.
// Frequency uses integer seconds of span, so it stays 0 while the span
// is under one second — this mirrors the reference implementation and
// is part of the observable contract, not an oversight.
func (t *Temporal) update(now time.Time) {
	t.LastUpdate = now
	t.Counter++
	span := int64(t.LastUpdate.Sub(t.FirstUpdate).Seconds())
	if span < 1 {
		span = 1
	}
	if t.LastUpdate.Sub(t.FirstUpdate) < time.Second {
		t.Frequency = 0
		return
	}
	t.Frequency = float32(t.Counter) / float32(span)
}

// MessageStatus wraps a message's Temporal metadata under "time", to
// match the wire shape status.time.{first_update,...}.
type MessageStatus struct {
	Time Temporal `json:"time"`
}

// MessageEntry is the latest observed instance of one message name,
// plus its update history.
type MessageEntry struct {
	Message message.Message `json:"message"`
	Status  MessageStatus   `json:"status"`
}

// MarshalJSON renders the message payload the same way the codec
// renders it elsewhere: an object carrying its own "type" field.
func (e MessageEntry) MarshalJSON() ([]byte, error) {
	msgJSON, err := mavlinkcodec.EncodeMessageJSON(e.Message)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		Message json.RawMessage `json:"message"`
		Status  MessageStatus   `json:"status"`
	}{Message: msgJSON, Status: e.Status})
}

// Component is keyed by component_id and holds the latest entry for
// every message name this vehicle's component has emitted.
type Component struct {
	ID       byte                     `json:"id"`
	Messages map[string]*MessageEntry `json:"messages"`
}

// Vehicle is keyed by system_id.
type Vehicle struct {
	ID         byte                `json:"id"`
	Components map[byte]*Component `json:"components"`
}

// Store is the sole mutable state of the message mirror. update is
// its only mutator, serialized through a single writer lock; readers
// take the read lock for the duration of a JSON snapshot.
type Store struct {
	mu       sync.RWMutex
	Vehicles map[byte]*Vehicle `json:"vehicles"`
	now      func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		Vehicles: make(map[byte]*Vehicle),
		now:      time.Now,
	}
}

// Update applies one observed envelope: ensures the vehicle, component
// and message-name entries exist, then replaces the payload and
// advances its Temporal.
func (s *Store) Update(header mavlinkcodec.Header, msg message.Message) {
	name := mavlinkcodec.MessageName(msg)
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	vehicle, ok := s.Vehicles[header.SystemID]
	if !ok {
		vehicle = &Vehicle{ID: header.SystemID, Components: make(map[byte]*Component)}
		s.Vehicles[header.SystemID] = vehicle
	}

	component, ok := vehicle.Components[header.ComponentID]
	if !ok {
		component = &Component{ID: header.ComponentID, Messages: make(map[string]*MessageEntry)}
		vehicle.Components[header.ComponentID] = component
	}

	entry, ok := component.Messages[name]
	if !ok {
		component.Messages[name] = &MessageEntry{
			Message: msg,
			Status:  MessageStatus{Time: newTemporal(now)},
		}
		return
	}

	entry.Message = msg
	entry.Status.Time.update(now)
}

// Snapshot renders the entire store as pretty-printed JSON, under a
// read lock held for the duration of serialization.
func (s *Store) Snapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.MarshalIndent(s, "", "  ")
}

// SnapshotVehicles renders just the vehicles map, pretty-printed.
func (s *Store) SnapshotVehicles() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.MarshalIndent(s.Vehicles, "", "  ")
}

// Query resolves path as described in spec §4.2:
//   - "" returns the whole store, pretty-printed.
//   - "vehicles" returns just the vehicles map, pretty-printed.
//   - anything else is treated as "/"+path, an RFC 6901 JSON pointer
//     into the serialized store; the literal string "None" is
//     returned (not an error) if it does not resolve.
func (s *Store) Query(path string) (string, error) {
	if path == "" {
		raw, err := s.Snapshot()
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	if path == "vehicles" {
		raw, err := s.SnapshotVehicles()
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}

	raw, err := s.Snapshot()
	if err != nil {
		return "", err
	}

	var tree interface{}
	if err := json.Unmarshal(raw, &tree); err != nil {
		return "", err
	}

	value, ok := ResolvePointer(tree, "/"+path)
	if !ok {
		return "None", nil
	}

	out, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}
