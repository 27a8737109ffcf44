package abus

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Message is any decoded A-bus unit: a bare *Frame, a request variant or a
// response variant.
type Message interface {
	// ToFrame renders the message as a checksummed-on-encode frame.
	ToFrame() *Frame
}

// Request is a command request. The set of implementations is closed.
type Request interface {
	Message
	Command() Command
	encodeArgs() []byte
	decodeArgs(args []byte) error
}

// noArgs is embedded by variants without command-specific fields.
type noArgs struct{}

func (noArgs) encodeArgs() []byte         { return nil }
func (noArgs) decodeArgs([]byte) error    { return nil }
func (noArgs) encodePayload() []byte      { return nil }
func (noArgs) decodePayload([]byte) error { return nil }

func requestFrame(h Header, r Request) *Frame {
	args := r.encodeArgs()
	params := make([]byte, 0, 1+len(args))
	params = append(params, byte(r.Command()))
	params = append(params, args...)
	return &Frame{Header: h, Parameters: params, CRCValid: true}
}

// GenericRequest is a command request whose command has no typed layout.
type GenericRequest struct {
	Header
	Code              Command `json:"command"`
	CommandParameters []byte  `json:"commandParameters,omitempty"`
}

func (r *GenericRequest) Command() Command   { return r.Code }
func (r *GenericRequest) ToFrame() *Frame    { return requestFrame(r.Header, r) }
func (r *GenericRequest) encodeArgs() []byte { return r.CommandParameters }
func (r *GenericRequest) decodeArgs(args []byte) error {
	r.CommandParameters = cloneBytes(args)
	return nil
}

type PingRequest struct {
	Header
	noArgs
}

func (r *PingRequest) Command() Command { return CommandPing }
func (r *PingRequest) ToFrame() *Frame  { return requestFrame(r.Header, r) }

type ReadPlcStatusRequest struct {
	Header
	noArgs
}

func (r *ReadPlcStatusRequest) Command() Command { return CommandReadPlcStatus }
func (r *ReadPlcStatusRequest) ToFrame() *Frame  { return requestFrame(r.Header, r) }

// ReadCodeBlockRequest asks for one block of a program segment. Both fields
// are signed on the wire.
type ReadCodeBlockRequest struct {
	Header
	SegmentNumber int16 `json:"segmentNumber"`
	BlockSize     int16 `json:"blockSize"`
}

func (r *ReadCodeBlockRequest) Command() Command { return CommandReadCodeBlock }
func (r *ReadCodeBlockRequest) ToFrame() *Frame  { return requestFrame(r.Header, r) }

func (r *ReadCodeBlockRequest) encodeArgs() []byte {
	b := binary.LittleEndian.AppendUint16(nil, uint16(r.SegmentNumber))
	return binary.LittleEndian.AppendUint16(b, uint16(r.BlockSize))
}

func (r *ReadCodeBlockRequest) decodeArgs(args []byte) error {
	if len(args) < 4 {
		return fmt.Errorf("%w: read_code_block needs 4 bytes, have %d", ErrTruncated, len(args))
	}
	r.SegmentNumber = int16(binary.LittleEndian.Uint16(args[0:2]))
	r.BlockSize = int16(binary.LittleEndian.Uint16(args[2:4]))
	return nil
}

// ReadDataRequest reads the values behind a list of data pointers.
type ReadDataRequest struct {
	Header
	Pointers []uint32 `json:"pointers"`
}

func (r *ReadDataRequest) Command() Command { return CommandReadData }
func (r *ReadDataRequest) ToFrame() *Frame  { return requestFrame(r.Header, r) }

func (r *ReadDataRequest) encodeArgs() []byte {
	b := make([]byte, 0, 2+4*len(r.Pointers))
	b = binary.LittleEndian.AppendUint16(b, uint16(len(r.Pointers)))
	for _, p := range r.Pointers {
		b = binary.LittleEndian.AppendUint32(b, p)
	}
	return b
}

func (r *ReadDataRequest) decodeArgs(args []byte) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: read_data needs a pointer count", ErrTruncated)
	}
	count := int(binary.LittleEndian.Uint16(args[0:2]))
	args = args[2:]
	if len(args) < 4*count {
		return fmt.Errorf("%w: read_data declares %d pointers, have %d bytes", ErrTruncated, count, len(args))
	}
	if count == 0 {
		r.Pointers = nil
		return nil
	}
	r.Pointers = make([]uint32, count)
	for i := range r.Pointers {
		r.Pointers[i] = binary.LittleEndian.Uint32(args[4*i:])
	}
	return nil
}

// WriteDataRequest stores Data starting at Pointer.
type WriteDataRequest struct {
	Header
	Pointer uint32 `json:"pointer"`
	Data    []byte `json:"data,omitempty"`
}

func (r *WriteDataRequest) Command() Command { return CommandWriteData }
func (r *WriteDataRequest) ToFrame() *Frame  { return requestFrame(r.Header, r) }

func (r *WriteDataRequest) encodeArgs() []byte {
	b := binary.LittleEndian.AppendUint32(make([]byte, 0, 4+len(r.Data)), r.Pointer)
	return append(b, r.Data...)
}

func (r *WriteDataRequest) decodeArgs(args []byte) error {
	if len(args) < 4 {
		return fmt.Errorf("%w: write_data needs a pointer", ErrTruncated)
	}
	r.Pointer = binary.LittleEndian.Uint32(args[0:4])
	r.Data = cloneBytes(args[4:])
	return nil
}

type StartRequest struct {
	Header
	noArgs
}

func (r *StartRequest) Command() Command { return CommandStart }
func (r *StartRequest) ToFrame() *Frame  { return requestFrame(r.Header, r) }

type StopRequest struct {
	Header
	noArgs
}

func (r *StopRequest) Command() Command { return CommandStop }
func (r *StopRequest) ToFrame() *Frame  { return requestFrame(r.Header, r) }

type PauseRequest struct {
	Header
	noArgs
}

func (r *PauseRequest) Command() Command { return CommandPause }
func (r *PauseRequest) ToFrame() *Frame  { return requestFrame(r.Header, r) }

// SetTimeRequest sets the PLC clock. The wire carries UTC to the whole
// second with a 16-bit year, so Time decodes as t.UTC().Truncate(time.Second)
// and Encode fails with ErrClockRange outside years 0 to 65535.
type SetTimeRequest struct {
	Header
	Time time.Time `json:"time"`
}

func (r *SetTimeRequest) Command() Command   { return CommandSetTime }
func (r *SetTimeRequest) ToFrame() *Frame    { return requestFrame(r.Header, r) }
func (r *SetTimeRequest) encodeArgs() []byte { return appendClock(nil, r.Time) }

func (r *SetTimeRequest) validate() error { return checkClock(r.Time) }

func (r *SetTimeRequest) decodeArgs(args []byte) error {
	t, err := readClock(args)
	if err != nil {
		return err
	}
	r.Time = t
	return nil
}

type GetTimeRequest struct {
	Header
	noArgs
}

func (r *GetTimeRequest) Command() Command { return CommandGetTime }
func (r *GetTimeRequest) ToFrame() *Frame  { return requestFrame(r.Header, r) }

// clockLen is year u16, month, day, hour, minute, second.
const clockLen = 7

func checkClock(t time.Time) error {
	if y := t.UTC().Year(); y < 0 || y > 0xFFFF {
		return fmt.Errorf("%w: year %d", ErrClockRange, y)
	}
	return nil
}

func appendClock(b []byte, t time.Time) []byte {
	t = t.UTC()
	b = binary.LittleEndian.AppendUint16(b, uint16(t.Year()))
	return append(b, byte(t.Month()), byte(t.Day()), byte(t.Hour()), byte(t.Minute()), byte(t.Second()))
}

func readClock(b []byte) (time.Time, error) {
	if len(b) < clockLen {
		return time.Time{}, fmt.Errorf("%w: clock needs %d bytes, have %d", ErrTruncated, clockLen, len(b))
	}
	year := int(binary.LittleEndian.Uint16(b[0:2]))
	return time.Date(year, time.Month(b[2]), int(b[3]), int(b[4]), int(b[5]), int(b[6]), 0, time.UTC), nil
}
