package ftp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEncodeConcreteScenario matches the worked example: seq=0x1234,
// session=7, opcode=ListDirectory(3), size=1, req_opcode=None(0),
// burst=0, pad=0, offset=0x10, data=[0x2E] -> 13 bytes.
func TestEncodeConcreteScenario(t *testing.T) {
	p := Payload{
		Seq:       0x1234,
		Session:   7,
		Opcode:    OpListDirectory,
		ReqOpcode: OpNone,
		Offset:    0x00000010,
		Data:      []byte{0x2E},
	}

	raw, err := Encode(p)
	require.NoError(t, err)

	want := []byte{0x34, 0x12, 0x07, 0x03, 0x01, 0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, 0x2E}
	assert.Equal(t, want, raw)
	assert.Len(t, raw, 13)
}

// TestRoundTrip exercises P3: decode(encode(x)) == x, and encode
// produces exactly 12+len(data) bytes, across a range of payloads.
func TestRoundTrip(t *testing.T) {
	cases := []Payload{
		{Seq: 0, Session: 0, Opcode: OpNone, ReqOpcode: OpNone, Offset: 0, Data: nil},
		{Seq: 1, Session: 3, Opcode: OpAck, ReqOpcode: OpReadFile, BurstComplete: true, Offset: 512, Data: []byte{1, 2, 3, 4}},
		{Seq: 65535, Session: 255, Opcode: OpBurstReadFile, ReqOpcode: OpBurstReadFile, Offset: 4294967295, Data: make([]byte, MaxDataSize)},
	}

	for _, want := range cases {
		raw, err := Encode(want)
		require.NoError(t, err)
		assert.Len(t, raw, headerSize+len(want.Data))

		got, err := Decode(raw)
		require.NoError(t, err)

		if want.Data == nil {
			want.Data = []byte{}
		}
		assert.Equal(t, want, got)
	}
}

func TestDecodeRejectsShortFrame(t *testing.T) {
	_, err := Decode(make([]byte, 5))
	assert.ErrorIs(t, err, ErrInvalidFrame)
}

func TestDecodeRejectsUnknownOpcode(t *testing.T) {
	raw := make([]byte, headerSize)
	raw[3] = 250 // not in the enumeration
	_, err := Decode(raw)
	assert.ErrorIs(t, err, ErrInvalidOpcode)
}

func TestDecodeRejectsTruncatedData(t *testing.T) {
	raw := make([]byte, headerSize)
	raw[4] = 10 // declares 10 bytes of data but buffer has none
	_, err := Decode(raw)
	assert.ErrorIs(t, err, ErrTruncatedData)
}
