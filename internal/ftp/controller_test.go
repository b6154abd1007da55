package ftp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestListDirectoryThenEOF matches the worked scenario: a peer whose
// directory contains "Ffoo\t10" then "Dbar" yields two entries of the
// right type/size, and a subsequent NAK EOF returns the controller to
// Idle.
func TestListDirectoryThenEOF(t *testing.T) {
	c := NewController()

	_, err := c.List(".")
	require.NoError(t, err)
	assert.Equal(t, StateListingDir, c.State())

	ack := Payload{Opcode: OpAck, ReqOpcode: OpListDirectory, Data: []byte("Ffoo\t10\x00Dbar")}
	next, err := c.HandleFrame(ack)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, OpListDirectory, next.Opcode)
	assert.EqualValues(t, 2, next.Offset)

	require.Len(t, c.ListResult(), 2)
	assert.Equal(t, DirEntry{Type: EntryFile, Name: "foo", Size: 10}, c.ListResult()[0])
	assert.Equal(t, DirEntry{Type: EntryDir, Name: "bar"}, c.ListResult()[1])

	nak := Payload{Opcode: OpNak, Data: []byte{byte(NakEOF)}}
	next, err = c.HandleFrame(nak)
	require.NoError(t, err)
	assert.Nil(t, next)
	assert.Equal(t, StateIdle, c.State())
}

// memWriter implements io.WriterAt over an in-memory buffer, growing
// as needed, for exercising the burst read path without a filesystem.
type memWriter struct {
	buf []byte
}

func (w *memWriter) WriteAt(p []byte, off int64) (int, error) {
	end := int(off) + len(p)
	if end > len(w.buf) {
		grown := make([]byte, end)
		copy(grown, w.buf)
		w.buf = grown
	}
	copy(w.buf[off:end], p)
	return len(p), nil
}

// TestBurstReadCompletesAtExactFileSize exercises P7: given a mocked
// peer sending 239-byte chunks, each closing its own burst with
// burst_complete=1, the reader requests the next burst after every
// chunk but the last and writes exactly file_size bytes at contiguous
// offsets.
func TestBurstReadCompletesAtExactFileSize(t *testing.T) {
	const fileSize = uint32(3 * MaxDataSize + 50)

	w := &memWriter{}
	c := NewController()

	_, err := c.Read("/log.bin", w)
	require.NoError(t, err)
	assert.Equal(t, StateOpeningFile, c.State())

	sizeData := make([]byte, 4)
	sizeData[0] = byte(fileSize)
	sizeData[1] = byte(fileSize >> 8)
	sizeData[2] = byte(fileSize >> 16)
	sizeData[3] = byte(fileSize >> 24)

	next, err := c.HandleFrame(Payload{Opcode: OpAck, ReqOpcode: OpOpenFileRO, Data: sizeData})
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, OpBurstReadFile, next.Opcode)
	assert.Equal(t, byte(MaxDataSize), next.Size())
	assert.Equal(t, StateReadingFile, c.State())

	var offset uint32
	for offset < fileSize {
		remaining := fileSize - offset
		chunk := uint32(MaxDataSize)
		last := false
		if remaining <= MaxDataSize {
			chunk = remaining
			last = true
		}
		data := make([]byte, chunk)
		for i := range data {
			data[i] = byte(offset) + byte(i)
		}

		next, err = c.HandleFrame(Payload{
			Opcode:        OpAck,
			ReqOpcode:     OpBurstReadFile,
			Offset:        offset,
			BurstComplete: true,
			Data:          data,
		})
		require.NoError(t, err)

		offset += chunk
		if last {
			assert.Nil(t, next)
		} else {
			require.NotNil(t, next)
			assert.Equal(t, byte(MaxDataSize), next.Size())
		}
	}

	assert.Equal(t, StateIdle, c.State())
	assert.Len(t, w.buf, int(fileSize))
}

func TestOpenFileRejectsWrongSize(t *testing.T) {
	c := NewController()
	_, err := c.Read("/x", &memWriter{})
	require.NoError(t, err)

	_, err = c.HandleFrame(Payload{Opcode: OpAck, ReqOpcode: OpOpenFileRO, Data: []byte{1, 2}})
	assert.ErrorIs(t, err, ErrProtocol)
	assert.Equal(t, StateIdle, c.State())
}

func TestCRCRoundTrip(t *testing.T) {
	c := NewController()
	_, err := c.CRC("/x")
	require.NoError(t, err)

	crcData := []byte{0xEF, 0xBE, 0xAD, 0xDE}
	_, err = c.HandleFrame(Payload{Opcode: OpAck, ReqOpcode: OpCalcFileCRC32, Data: crcData})
	require.NoError(t, err)
	assert.Equal(t, StateIdle, c.State())
	assert.EqualValues(t, 0xDEADBEEF, c.CRCResult())
}

func TestSecondOperationRejectedWhileBusy(t *testing.T) {
	c := NewController()
	_, err := c.List(".")
	require.NoError(t, err)

	_, err = c.CRC("/x")
	assert.ErrorIs(t, err, ErrProtocol)
}
