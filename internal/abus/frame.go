package abus

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Wire layout (little-endian):
//
//	magic[2] 0xAA 0x55 | blockLen u16 | from i32 | to i32 | direction u8 | type u8 |
//	parameters[blockLen-4] | password[2] | checksum u16
//
// blockLen counts parameters + password + checksum, so a frame is
// HeaderLen + blockLen bytes long.
const (
	HeaderLen   = 14
	TrailerLen  = 4 // password + checksum
	MinFrameLen = 16
	MaxFrameLen = 1024
)

var magic = [2]byte{0xAA, 0x55}

var (
	ErrTooShort      = errors.New("abus: frame too short")
	ErrBadMagic      = errors.New("abus: bad magic")
	ErrBadLength     = errors.New("abus: bad block length")
	ErrTruncated     = errors.New("abus: truncated parameters")
	ErrFrameTooLarge = errors.New("abus: frame too large")
	ErrClockRange    = errors.New("abus: clock outside the 16-bit year range")
)

// Direction is the request/response status byte at offset 12.
type Direction uint8

const (
	DirectionRequest Direction = iota
	DirectionAcknowledge
	DirectionNotAcknowledge
	DirectionBusy
	DirectionUnknownCommand
	DirectionInvalidParameter
	DirectionInvalidPassword
	DirectionAccessDenied
	DirectionOutOfRange
	DirectionNotReady
	DirectionChecksumError
	DirectionTimeout
	DirectionDeviceFault
)

var directionNames = [...]string{
	"request", "ack", "nak", "busy", "unknown-command", "invalid-parameter",
	"invalid-password", "access-denied", "out-of-range", "not-ready",
	"checksum-error", "timeout", "device-fault",
}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("direction(%d)", uint8(d))
}

// MessageType is the byte at offset 13: 0 for commands, otherwise a socket id.
type MessageType uint8

const MessageTypeCommand MessageType = 0

// Well-known addresses.
const (
	AddressBroadcast  int32 = 0
	AddressPeer       int32 = 1
	AddressController int32 = 1000 // first controller-class address
)

// Password is the two-byte frame password, zero unless configured.
type Password [2]byte

// Header carries the addressing fields shared by every frame.
type Header struct {
	From        int32       `json:"from"`
	To          int32       `json:"to"`
	Direction   Direction   `json:"direction"`
	MessageType MessageType `json:"messageType"`
	Password    Password    `json:"password"`
}

// NewRequestHeader returns a command request header from -> to.
func NewRequestHeader(from, to int32) Header {
	return Header{From: from, To: to, Direction: DirectionRequest, MessageType: MessageTypeCommand}
}

// ReplyHeader returns the header of a response to req carrying status.
func ReplyHeader(req Request, status Direction) Header {
	h := req.ToFrame().Header
	return Header{
		From:        h.To,
		To:          h.From,
		Direction:   status,
		MessageType: h.MessageType,
	}
}

// Frame is one undecoded A-bus unit. Parse returns a bare Frame when the
// checksum does not match or the frame is not a classifiable command.
type Frame struct {
	Header
	Parameters []byte `json:"parameters,omitempty"`
	CRCValid   bool   `json:"crcValid"`
}

// ToFrame returns f itself.
func (f *Frame) ToFrame() *Frame { return f }

// Len returns the encoded length of f.
func (f *Frame) Len() int { return HeaderLen + len(f.Parameters) + TrailerLen }

// MarshalBinary encodes f and appends a freshly computed checksum.
func (f *Frame) MarshalBinary() ([]byte, error) {
	total := f.Len()
	if total > MaxFrameLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, total)
	}
	buf := make([]byte, 0, total)
	buf = append(buf, magic[0], magic[1])
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(f.Parameters)+TrailerLen))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(f.From))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(f.To))
	buf = append(buf, byte(f.Direction), byte(f.MessageType))
	buf = append(buf, f.Parameters...)
	buf = append(buf, f.Password[0], f.Password[1])
	return binary.LittleEndian.AppendUint16(buf, Checksum(buf)), nil
}

// ParseFrame delimits and checks one frame at the start of b. Bytes past
// the declared length are ignored. A checksum mismatch is reported through
// CRCValid, not as an error.
func ParseFrame(b []byte) (*Frame, error) {
	if len(b) < MinFrameLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooShort, len(b))
	}
	if b[0] != magic[0] || b[1] != magic[1] {
		return nil, fmt.Errorf("%w: % X", ErrBadMagic, b[:2])
	}
	block := int(binary.LittleEndian.Uint16(b[2:4]))
	if block < TrailerLen {
		return nil, fmt.Errorf("%w: %d", ErrBadLength, block)
	}
	total := HeaderLen + block
	if total > len(b) {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrTooShort, total, len(b))
	}

	f := &Frame{
		Header: Header{
			From:        int32(binary.LittleEndian.Uint32(b[4:8])),
			To:          int32(binary.LittleEndian.Uint32(b[8:12])),
			Direction:   Direction(b[12]),
			MessageType: MessageType(b[13]),
			Password:    Password{b[total-4], b[total-3]},
		},
		Parameters: cloneBytes(b[HeaderLen : total-TrailerLen]),
	}
	got := binary.LittleEndian.Uint16(b[total-2 : total])
	f.CRCValid = got == Checksum(b[:total-2])
	return f, nil
}

// Parse decodes one frame and classifies it into a typed variant. req is
// the request a response answers; it may be nil.
func Parse(b []byte, req Request) (Message, error) {
	f, err := ParseFrame(b)
	if err != nil {
		return nil, err
	}
	if !f.CRCValid {
		return f, nil
	}
	return Classify(f, req)
}

// validator is implemented by variants whose fields can hold values the
// wire layout cannot carry.
type validator interface {
	validate() error
}

// Encode renders m as wire bytes.
func Encode(m Message) ([]byte, error) {
	if v, ok := m.(validator); ok {
		if err := v.validate(); err != nil {
			return nil, err
		}
	}
	return m.ToFrame().MarshalBinary()
}

// WriteMessage encodes m and writes it to w in one call.
func WriteMessage(w io.Writer, m Message) error {
	b, err := Encode(m)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return append([]byte(nil), b...)
}
