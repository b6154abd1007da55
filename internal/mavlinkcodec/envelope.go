package mavlinkcodec

import (
	"encoding/json"
	"fmt"

	"github.com/bluenviron/gomavlib/v3/pkg/message"
)

// Header mirrors the three fields of a MAVLink frame header that
// mavbridge tracks. Sequence is owned by the link handle, not by the
// codec.
type Header struct {
	SystemID    byte `json:"system_id"`
	ComponentID byte `json:"component_id"`
	Sequence    byte `json:"sequence"`
}

// Envelope is a MAVLink header paired with one decoded message. It is
// the unit exchanged between the link, the store, the WebSocket
// broadcaster and the REST surface.
type Envelope struct {
	Header  Header
	Message message.Message
}

// envelopeWire is the JSON shape of an Envelope: the header plus a
// message object carrying its own "type" discriminant.
type envelopeWire struct {
	Header  Header          `json:"header"`
	Message json.RawMessage `json:"message"`
}

type typeTag struct {
	Type string `json:"type"`
}

// MarshalJSON renders the envelope the way mavbridge's REST/WS clients
// expect: {"header":{...},"message":{"type":"HEARTBEAT", ...fields}}.
func (e Envelope) MarshalJSON() ([]byte, error) {
	msgBytes, err := EncodeMessageJSON(e.Message)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelopeWire{Header: e.Header, Message: msgBytes})
}

// UnmarshalJSON decodes an envelope by first trying the ardupilotmega
// dialect (a superset of common) and falling through to common on
// failure, per spec.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var wire envelopeWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("mavlinkcodec: invalid envelope: %w", err)
	}

	msg, err := DecodeMessageJSON(Ardupilotmega, wire.Message)
	if err != nil {
		msg, err = DecodeMessageJSON(Common, wire.Message)
		if err != nil {
			return fmt.Errorf("mavlinkcodec: message not recognized in ardupilotmega or common: %w", err)
		}
	}

	e.Header = wire.Header
	e.Message = msg
	return nil
}

// EncodeMessageJSON renders a MAVLink message as a JSON object carrying
// its own "type" field alongside its wire fields.
func EncodeMessageJSON(msg message.Message) ([]byte, error) {
	fieldsRaw, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("mavlinkcodec: encode %T: %w", msg, err)
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(fieldsRaw, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["type"] = MessageName(msg)
	return json.Marshal(fields)
}

// DecodeMessageJSON decodes raw into a concrete message of dialect d,
// resolved by the "type" field of raw.
func DecodeMessageJSON(d *dialectHandle, raw json.RawMessage) (message.Message, error) {
	var tag typeTag
	if err := json.Unmarshal(raw, &tag); err != nil {
		return nil, err
	}
	if tag.Type == "" {
		return nil, fmt.Errorf("mavlinkcodec: message has no \"type\" field")
	}

	id, err := d.idFromName(tag.Type)
	if err != nil {
		return nil, err
	}

	msg, err := DefaultMessageFromID(d, id)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, msg); err != nil {
		return nil, fmt.Errorf("mavlinkcodec: decode %s: %w", tag.Type, err)
	}
	return msg, nil
}
