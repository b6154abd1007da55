// Package mavlinkcodec wraps the gomavlib dialect registry with the
// name/id lookups the rest of mavbridge needs: a message's wire name,
// looking up a message by that name, and producing a zero-value
// instance of a message from its numeric id.
package mavlinkcodec

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/bluenviron/gomavlib/v3/pkg/dialect"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/ardupilotmega"
	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/bluenviron/gomavlib/v3/pkg/message"
)

// dialectHandle pairs a gomavlib dialect with a name<->id index built
// once at startup by reflecting over its registered message types.
type dialectHandle struct {
	dialect *dialect.Dialect
	byName  map[string]uint32
}

func newDialectHandle(d *dialect.Dialect) *dialectHandle {
	h := &dialectHandle{
		dialect: d,
		byName:  make(map[string]uint32, len(d.Messages)),
	}
	for id, msg := range d.Messages {
		h.byName[MessageName(msg)] = id
	}
	return h
}

// Raw returns the underlying gomavlib dialect, for callers (like the
// link handle) that need to pass it to gomavlib.NodeConf.
func (h *dialectHandle) Raw() *dialect.Dialect {
	return h.dialect
}

func (h *dialectHandle) idFromName(name string) (uint32, error) {
	id, ok := h.byName[name]
	if !ok {
		return 0, fmt.Errorf("mavlinkcodec: unknown message name %q", name)
	}
	return id, nil
}

// Ardupilotmega and Common are the two dialects mavbridge understands.
// ardupilotmega embeds the full common message set, so it is always
// tried first; common is the fallback for plain REST payloads that
// only know about the smaller dialect.
var (
	Ardupilotmega = newDialectHandle(ardupilotmega.Dialect)
	Common        = newDialectHandle(common.Dialect)
)

// MessageName returns the MAVLink wire name of msg, e.g. "HEARTBEAT" or
// "GLOBAL_POSITION_INT", derived from its generated Go type name
// (gomavlib names message structs MessageHeartbeat, MessageGpsRawInt,
// etc. — one word per exported-letter run).
func MessageName(msg message.Message) string {
	t := reflect.TypeOf(msg)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	name := strings.TrimPrefix(t.Name(), "Message")
	words := splitCamel(name)
	for i, w := range words {
		words[i] = strings.ToUpper(w)
	}
	return strings.Join(words, "_")
}

func splitCamel(s string) []string {
	var words []string
	var cur []rune
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, string(cur))
			cur = nil
		}
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		words = append(words, string(cur))
	}
	return words
}

// MessageIDFromName resolves a wire name to a numeric message id,
// trying ardupilotmega first (it is a superset of common) and falling
// through to common.
func MessageIDFromName(name string) (uint32, error) {
	if id, err := Ardupilotmega.idFromName(name); err == nil {
		return id, nil
	}
	return Common.idFromName(name)
}

// DefaultMessageFromID returns a new zero-value message of the type
// registered under id in the given dialect.
func DefaultMessageFromID(h *dialectHandle, id uint32) (message.Message, error) {
	proto, ok := h.dialect.Messages[id]
	if !ok {
		return nil, fmt.Errorf("mavlinkcodec: unknown message id %d", id)
	}
	t := reflect.TypeOf(proto)
	isPtr := t.Kind() == reflect.Ptr
	if isPtr {
		t = t.Elem()
	}
	v := reflect.New(t)
	if isPtr {
		return v.Interface().(message.Message), nil
	}
	return v.Elem().Interface().(message.Message), nil
}

// DefaultMessageFromName resolves name in either dialect and returns a
// zero-value instance of it, trying ardupilotmega before common.
func DefaultMessageFromName(name string) (message.Message, error) {
	if id, err := Ardupilotmega.idFromName(name); err == nil {
		return DefaultMessageFromID(Ardupilotmega, id)
	}
	if id, err := Common.idFromName(name); err == nil {
		return DefaultMessageFromID(Common, id)
	}
	return nil, fmt.Errorf("mavlinkcodec: unknown message name %q", name)
}
