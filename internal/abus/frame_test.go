package abus

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pingFrame is a Ping request from 1 to 2 with a zero password.
var pingFrame = []byte{
	0xAA, 0x55, 0x05, 0x00,
	0x01, 0x00, 0x00, 0x00,
	0x02, 0x00, 0x00, 0x00,
	0x00, 0x00,
	0x10,
	0x00, 0x00,
	0x4B, 0x35,
}

func TestEncodePing(t *testing.T) {
	raw, err := Encode(&PingRequest{Header: NewRequestHeader(1, 2)})
	require.NoError(t, err)
	assert.Equal(t, pingFrame, raw)
}

func TestParsePingScenario(t *testing.T) {
	msg, err := Parse(pingFrame, nil)
	require.NoError(t, err)

	ping, ok := msg.(*PingRequest)
	require.True(t, ok, "got %T", msg)
	assert.Equal(t, int32(1), ping.From)
	assert.Equal(t, int32(2), ping.To)
	assert.Equal(t, CommandPing, ping.Command())
	assert.True(t, ping.ToFrame().CRCValid)
}

func TestParseFrameTooShort(t *testing.T) {
	for n := 0; n < MinFrameLen; n++ {
		_, err := ParseFrame(pingFrame[:n])
		require.ErrorIs(t, err, ErrTooShort, "len %d", n)
	}
	// Long enough for the minimum, too short for the declared block.
	_, err := ParseFrame(pingFrame[:len(pingFrame)-1])
	require.ErrorIs(t, err, ErrTooShort)
}

func TestParseFrameBadMagic(t *testing.T) {
	raw := append([]byte(nil), pingFrame...)
	raw[1] = 0x56
	_, err := Parse(raw, nil)
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestParseFrameBadLength(t *testing.T) {
	for _, block := range []uint16{0, 1, 3} {
		raw := append([]byte(nil), pingFrame...)
		binary.LittleEndian.PutUint16(raw[2:4], block)
		_, err := ParseFrame(raw)
		require.ErrorIs(t, err, ErrBadLength, "block %d", block)
	}
}

func TestParseFrameBadChecksumStaysRaw(t *testing.T) {
	raw := append([]byte(nil), pingFrame...)
	raw[len(raw)-1] ^= 0xFF

	msg, err := Parse(raw, nil)
	require.NoError(t, err)
	f, ok := msg.(*Frame)
	require.True(t, ok, "got %T", msg)
	assert.False(t, f.CRCValid)
	assert.Equal(t, int32(1), f.From)
	assert.Equal(t, int32(2), f.To)
	assert.Equal(t, []byte{0x10}, f.Parameters)
}

func TestParseFrameIgnoresTrailingBytes(t *testing.T) {
	raw := append(append([]byte(nil), pingFrame...), 0xDE, 0xAD)
	f, err := ParseFrame(raw)
	require.NoError(t, err)
	assert.True(t, f.CRCValid)
	assert.Equal(t, len(pingFrame), f.Len())
}

func TestParseFramePassword(t *testing.T) {
	h := NewRequestHeader(AddressController, AddressPeer)
	h.Password = Password{0x12, 0x34}
	raw, err := Encode(&StopRequest{Header: h})
	require.NoError(t, err)

	f, err := ParseFrame(raw)
	require.NoError(t, err)
	assert.True(t, f.CRCValid)
	assert.Equal(t, Password{0x12, 0x34}, f.Password)
}

func TestParseFrameNegativeAddresses(t *testing.T) {
	f := &Frame{Header: Header{From: -5, To: 70000, Direction: DirectionAcknowledge, MessageType: 7}, Parameters: []byte{1, 2, 3}}
	raw, err := f.MarshalBinary()
	require.NoError(t, err)

	got, err := ParseFrame(raw)
	require.NoError(t, err)
	f.CRCValid = true
	assert.Equal(t, f, got)
}

func TestMarshalBinaryTooLarge(t *testing.T) {
	f := &Frame{Header: NewRequestHeader(1, 2), Parameters: make([]byte, MaxFrameLen)}
	_, err := f.MarshalBinary()
	require.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestWriteMessage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMessage(&buf, &PingRequest{Header: NewRequestHeader(1, 2)}))
	assert.Equal(t, pingFrame, buf.Bytes())

	buf.Reset()
	bad := &SetTimeRequest{Header: NewRequestHeader(1, 2), Time: time.Date(70000, time.January, 1, 0, 0, 0, 0, time.UTC)}
	require.ErrorIs(t, WriteMessage(&buf, bad), ErrClockRange)
	assert.Zero(t, buf.Len())
}

func TestReplyHeader(t *testing.T) {
	req := &GetTimeRequest{Header: NewRequestHeader(AddressController, AddressPeer)}
	h := ReplyHeader(req, DirectionBusy)
	assert.Equal(t, AddressPeer, h.From)
	assert.Equal(t, AddressController, h.To)
	assert.Equal(t, DirectionBusy, h.Direction)
	assert.Equal(t, MessageTypeCommand, h.MessageType)
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "request", DirectionRequest.String())
	assert.Equal(t, "device-fault", DirectionDeviceFault.String())
	assert.Equal(t, "direction(99)", Direction(99).String())
}
