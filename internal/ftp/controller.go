package ftp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// State is the controller's current operation phase.
type State int

const (
	StateIdle State = iota
	StateListingDir
	StateOpeningFile
	StateReadingFile
	StateComputingCRC
	StateResetting
	// stateSimpleOp covers the single-request/single-ack operations the
	// protocol supports but this state diagram doesn't name individually:
	// create, write, remove, mkdir, rmdir.
	stateSimpleOp
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateListingDir:
		return "ListingDir"
	case StateOpeningFile:
		return "OpeningFile"
	case StateReadingFile:
		return "ReadingFile"
	case StateComputingCRC:
		return "ComputingCRC"
	case StateResetting:
		return "Resetting"
	case stateSimpleOp:
		return "SimpleOp"
	default:
		return "Unknown"
	}
}

// DirEntry is one parsed entry of a ListDirectory reply: a file
// ("F", with size), a directory ("D") or a skipped/special entry
// ("S"), both without a size.
type DirEntry struct {
	Type EntryType
	Name string
	Size uint32
}

// EntryType is the first byte of a directory listing entry.
type EntryType byte

const (
	EntryFile EntryType = 'F'
	EntryDir  EntryType = 'D'
	EntrySkip EntryType = 'S'
)

// Controller drives exactly one MAVLink-FTP operation to completion.
// It is not safe for concurrent use — per spec, access is confined to
// a single FTP main loop.
type Controller struct {
	state   State
	waiting bool
	session byte
	seq     uint16

	path      string
	reqOpcode Opcode

	listEntries []DirEntry
	listOffset  uint32

	readOffset uint32
	readTotal  uint32
	readWriter io.WriterAt

	crcResult uint32
}

// NewController returns a controller in the Idle state.
func NewController() *Controller {
	return &Controller{}
}

func (c *Controller) nextSeq() uint16 {
	seq := c.seq
	c.seq++
	return seq
}

// State reports the controller's current phase.
func (c *Controller) State() State { return c.state }

// IsWaiting reports whether the controller has an outstanding request
// and should not be asked to start a new operation.
func (c *Controller) IsWaiting() bool { return c.waiting }

// ListResult returns the directory entries accumulated by the most
// recently completed list(), valid once State() is back to Idle.
func (c *Controller) ListResult() []DirEntry { return c.listEntries }

// CRCResult returns the CRC32 computed by the most recently completed
// crc(), valid once State() is back to Idle.
func (c *Controller) CRCResult() uint32 { return c.crcResult }

var errBusy = fmt.Errorf("%w: controller is not idle", ErrProtocol)

// List begins a directory listing of path, returning the first
// ListDirectory request to send.
func (c *Controller) List(path string) (Payload, error) {
	if c.state != StateIdle {
		return Payload{}, errBusy
	}
	c.state = StateListingDir
	c.path = path
	c.listEntries = nil
	c.listOffset = 0
	return c.emit(OpListDirectory, OpNone, 0, []byte(path))
}

// Read begins reading path, writing its bytes to w as reply frames
// arrive. Prefers BurstReadFile once the file is open.
func (c *Controller) Read(path string, w io.WriterAt) (Payload, error) {
	if c.state != StateIdle {
		return Payload{}, errBusy
	}
	c.state = StateOpeningFile
	c.path = path
	c.readWriter = w
	c.readOffset = 0
	c.readTotal = 0
	return c.emit(OpOpenFileRO, OpNone, 0, []byte(path))
}

// CRC begins a remote CRC32 computation over path.
func (c *Controller) CRC(path string) (Payload, error) {
	if c.state != StateIdle {
		return Payload{}, errBusy
	}
	c.state = StateComputingCRC
	c.path = path
	return c.emit(OpCalcFileCRC32, OpNone, 0, []byte(path))
}

// Reset begins a session reset.
func (c *Controller) Reset() (Payload, error) {
	if c.state != StateIdle {
		return Payload{}, errBusy
	}
	c.state = StateResetting
	return c.emit(OpResetSessions, OpNone, 0, nil)
}

// simpleOp covers create/remove/mkdir/rmdir: one request, one ack,
// back to Idle.
func (c *Controller) simpleOp(opcode Opcode, data []byte) (Payload, error) {
	if c.state != StateIdle {
		return Payload{}, errBusy
	}
	c.state = stateSimpleOp
	return c.emit(opcode, OpNone, 0, data)
}

func (c *Controller) Create(path string) (Payload, error) {
	return c.simpleOp(OpCreateFile, []byte(path))
}

func (c *Controller) Remove(path string) (Payload, error) {
	return c.simpleOp(OpRemoveFile, []byte(path))
}

func (c *Controller) Mkdir(path string) (Payload, error) {
	return c.simpleOp(OpCreateDirectory, []byte(path))
}

func (c *Controller) Rmdir(path string) (Payload, error) {
	return c.simpleOp(OpRemoveDirectory, []byte(path))
}

// Write begins a single WriteFile request carrying data at offset.
// path is not placed in the request: the request carries only the
// controller's session id, and the controller opens no session for
// writing.
func (c *Controller) Write(path string, offset uint32, data []byte) (Payload, error) {
	if c.state != StateIdle {
		return Payload{}, errBusy
	}
	c.state = stateSimpleOp
	if len(data) > MaxDataSize {
		data = data[:MaxDataSize]
	}
	p := Payload{Seq: c.nextSeq(), Session: c.session, Opcode: OpWriteFile, ReqOpcode: OpNone, Offset: offset, Data: data}
	c.reqOpcode = OpWriteFile
	c.waiting = true
	return p, nil
}

func (c *Controller) emit(opcode, reqOpcode Opcode, offset uint32, data []byte) (Payload, error) {
	p := Payload{
		Seq:       c.nextSeq(),
		Session:   c.session,
		Opcode:    opcode,
		ReqOpcode: reqOpcode,
		Offset:    offset,
		Data:      data,
	}
	c.reqOpcode = opcode
	c.waiting = true
	return p, nil
}

// HandleFrame advances the state machine on one inbound frame. It
// returns a follow-up request to send, if the current operation needs
// one, and clears the waiting gate before deciding whether to re-set
// it. A non-nil error means the in-flight operation aborted and the
// controller returned to Idle; the caller should surface it.
func (c *Controller) HandleFrame(frame Payload) (*Payload, error) {
	c.waiting = false

	if frame.Opcode == OpNak {
		return c.handleNak(frame)
	}
	if frame.Opcode != OpAck {
		return nil, nil
	}

	switch c.state {
	case StateListingDir:
		return c.handleListAck(frame)
	case StateOpeningFile:
		return c.handleOpenAck(frame)
	case StateReadingFile:
		return c.handleReadAck(frame)
	case StateComputingCRC:
		return c.handleCRCAck(frame)
	case StateResetting:
		c.state = StateIdle
		return nil, nil
	case stateSimpleOp:
		c.state = StateIdle
		return nil, nil
	default:
		return nil, nil
	}
}

func (c *Controller) handleNak(frame Payload) (*Payload, error) {
	var code NakCode
	if len(frame.Data) > 0 {
		code = NakCode(frame.Data[0])
	}

	state := c.state
	c.state = StateIdle

	if code == NakEOF && (state == StateListingDir || state == StateReadingFile) {
		return nil, nil
	}
	if state == StateIdle {
		return nil, nil
	}
	return nil, fmt.Errorf("%w: remote nak %s during %v", ErrProtocol, code, state)
}

func (c *Controller) handleListAck(frame Payload) (*Payload, error) {
	entries, consumed := parseDirEntries(frame.Data)
	c.listEntries = append(c.listEntries, entries...)
	c.listOffset += consumed

	return ptr(c.emit(OpListDirectory, OpNone, c.listOffset, []byte(c.path)))
}

func (c *Controller) handleOpenAck(frame Payload) (*Payload, error) {
	if len(frame.Data) != 4 {
		c.state = StateIdle
		return nil, fmt.Errorf("%w: open reply size %d, want 4", ErrProtocol, len(frame.Data))
	}
	c.readTotal = binary.LittleEndian.Uint32(frame.Data)
	c.readOffset = 0
	c.state = StateReadingFile

	if c.readTotal == 0 {
		c.state = StateIdle
		return nil, nil
	}
	return ptr(c.emit(OpBurstReadFile, OpNone, 0, make([]byte, MaxDataSize)))
}

func (c *Controller) handleReadAck(frame Payload) (*Payload, error) {
	if c.readWriter != nil && len(frame.Data) > 0 {
		if _, err := c.readWriter.WriteAt(frame.Data, int64(frame.Offset)); err != nil {
			c.state = StateIdle
			return nil, fmt.Errorf("ftp: writing read reply at offset %d: %w", frame.Offset, err)
		}
	}
	c.readOffset = frame.Offset + uint32(len(frame.Data))

	if c.readOffset >= c.readTotal {
		c.state = StateIdle
		return nil, nil
	}
	if frame.BurstComplete {
		return ptr(c.emit(OpBurstReadFile, OpNone, c.readOffset, make([]byte, MaxDataSize)))
	}
	// Not yet complete and not a burst boundary: wait silently for
	// further pushed frames: no follow-up request is emitted.
	return nil, nil
}

func (c *Controller) handleCRCAck(frame Payload) (*Payload, error) {
	if frame.ReqOpcode != OpCalcFileCRC32 || len(frame.Data) != 4 {
		c.state = StateIdle
		return nil, fmt.Errorf("%w: malformed crc reply", ErrProtocol)
	}
	c.crcResult = binary.LittleEndian.Uint32(frame.Data)
	c.state = StateIdle
	return nil, nil
}

func ptr(p Payload, err error) (*Payload, error) {
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// parseDirEntries splits a NUL-separated listing chunk into entries.
// Empty entries are skipped and do not count against the offset.
func parseDirEntries(data []byte) ([]DirEntry, uint32) {
	var entries []DirEntry
	var consumed uint32

	for _, chunk := range bytes.Split(data, []byte{0}) {
		if len(chunk) == 0 {
			continue
		}
		entries = append(entries, parseDirEntry(chunk))
		consumed++
	}
	return entries, consumed
}

func parseDirEntry(chunk []byte) DirEntry {
	typ := EntryType(chunk[0])
	rest := chunk[1:]

	if typ == EntryFile {
		if tab := bytes.IndexByte(rest, '\t'); tab >= 0 {
			name := string(rest[:tab])
			var size uint32
			fmt.Sscanf(string(rest[tab+1:]), "%d", &size)
			return DirEntry{Type: EntryFile, Name: name, Size: size}
		}
		return DirEntry{Type: EntryFile, Name: string(rest)}
	}
	return DirEntry{Type: typ, Name: string(rest)}
}
