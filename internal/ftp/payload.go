package ftp

import (
	"encoding/binary"
	"fmt"
)

// headerSize is the fixed 12-byte MAVLink-FTP payload header.
const headerSize = 12

// Payload is one decoded MAVLink-FTP frame: the 12-byte header fields
// plus its variable-length data. Encode and Decode accept up to 255
// data bytes (the range of the wire size field); requests built by the
// Controller carry at most MaxDataSize.
type Payload struct {
	Seq           uint16
	Session       byte
	Opcode        Opcode
	ReqOpcode     Opcode
	BurstComplete bool
	Offset        uint32
	Data          []byte
}

// Size returns the value the wire "size" field takes: len(Data).
func (p Payload) Size() byte {
	return byte(len(p.Data))
}

// Encode renders p as exactly 12+len(Data) bytes.
func Encode(p Payload) ([]byte, error) {
	if len(p.Data) > 255 {
		return nil, fmt.Errorf("ftp: payload data too large: %d bytes", len(p.Data))
	}
	if !p.Opcode.valid() {
		return nil, fmt.Errorf("ftp: %w: opcode %d", ErrInvalidOpcode, p.Opcode)
	}

	out := make([]byte, headerSize+len(p.Data))
	binary.LittleEndian.PutUint16(out[0:2], p.Seq)
	out[2] = p.Session
	out[3] = byte(p.Opcode)
	out[4] = p.Size()
	out[5] = byte(p.ReqOpcode)
	if p.BurstComplete {
		out[6] = 1
	}
	out[7] = 0 // padding
	binary.LittleEndian.PutUint32(out[8:12], p.Offset)
	copy(out[headerSize:], p.Data)
	return out, nil
}

// Decode parses a 12-byte-or-longer payload. It rejects frames shorter
// than the header, frames whose opcode/req_opcode are not in the
// enumeration, and frames whose declared size runs past the buffer.
func Decode(raw []byte) (Payload, error) {
	if len(raw) < headerSize {
		return Payload{}, fmt.Errorf("ftp: %w: got %d bytes, need at least %d", ErrInvalidFrame, len(raw), headerSize)
	}

	opcode := Opcode(raw[3])
	reqOpcode := Opcode(raw[5])
	if !opcode.valid() || !reqOpcode.valid() {
		return Payload{}, fmt.Errorf("ftp: %w: opcode=%d req_opcode=%d", ErrInvalidOpcode, opcode, reqOpcode)
	}

	size := int(raw[4])
	if headerSize+size > len(raw) {
		return Payload{}, fmt.Errorf("ftp: %w: declared size %d exceeds buffer", ErrTruncatedData, size)
	}

	data := make([]byte, size)
	copy(data, raw[headerSize:headerSize+size])

	return Payload{
		Seq:           binary.LittleEndian.Uint16(raw[0:2]),
		Session:       raw[2],
		Opcode:        opcode,
		ReqOpcode:     reqOpcode,
		BurstComplete: raw[6] != 0,
		Offset:        binary.LittleEndian.Uint32(raw[8:12]),
		Data:          data,
	}, nil
}
