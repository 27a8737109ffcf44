package plc

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/shaunagostinho/buslink/internal/abus"
	"github.com/shaunagostinho/buslink/internal/metrics"
)

func newTestDemo(t *testing.T) *Demo {
	d := NewDemo(zaptest.NewLogger(t), metrics.NewProtocol(prometheus.NewRegistry()))
	d.now = func() time.Time { return time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC) }
	require.NoError(t, d.Connect())
	return d
}

func TestDemoPoll(t *testing.T) {
	d := newTestDemo(t)
	st, err := d.Poll()
	require.NoError(t, err)
	assert.Equal(t, "running", st.State)
	assert.Equal(t, abus.AddressPeer, st.Address)
	assert.Equal(t, time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC), st.Clock)
}

func TestDemoNotConnected(t *testing.T) {
	d := NewDemo(zaptest.NewLogger(t), nil)
	_, err := d.Request(&abus.PingRequest{Header: d.header()})
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestDemoCommands(t *testing.T) {
	d := newTestDemo(t)
	h := d.header()

	msg, err := d.Request(&abus.WriteDataRequest{Header: h, Pointer: 0x100, Data: []byte{0xCA, 0xFE}})
	require.NoError(t, err)
	assert.IsType(t, &abus.WriteDataResponse{}, msg)

	msg, err = d.Request(&abus.ReadDataRequest{Header: h, Pointers: []uint32{0x101, 0x100, 0x05}})
	require.NoError(t, err)
	read, ok := msg.(*abus.ReadDataResponse)
	require.True(t, ok, "got %T", msg)
	assert.Equal(t, []byte{0xFE, 0xCA, 0x05}, read.Data)

	msg, err = d.Request(&abus.ReadCodeBlockRequest{Header: h, SegmentNumber: 1, BlockSize: 7})
	require.NoError(t, err)
	code, ok := msg.(*abus.ReadCodeBlockResponse)
	require.True(t, ok, "got %T", msg)
	assert.Equal(t, int16(1), code.SegmentNumber)
	assert.Equal(t, []byte("LD M100"), code.Code)

	set := time.Date(2030, time.January, 2, 3, 4, 5, 0, time.UTC)
	_, err = d.Request(&abus.SetTimeRequest{Header: h, Time: set})
	require.NoError(t, err)
	msg, err = d.Request(&abus.GetTimeRequest{Header: h})
	require.NoError(t, err)
	assert.Equal(t, set, msg.(*abus.GetTimeResponse).Time)

	_, err = d.Request(&abus.StopRequest{Header: h})
	require.NoError(t, err)
	msg, err = d.Request(&abus.PauseRequest{Header: h})
	require.NoError(t, err)
	paused := msg.(*abus.PauseResponse)
	assert.True(t, paused.IsError())
	assert.Equal(t, abus.DirectionNotReady, paused.Direction)

	st, err := d.Poll()
	require.NoError(t, err)
	assert.Equal(t, "stopped", st.State)
}

func TestDemoErrorStatuses(t *testing.T) {
	d := newTestDemo(t)
	h := d.header()
	locked := h
	locked.Password = abus.Password{0x12, 0x34}
	elsewhere := abus.NewRequestHeader(abus.AddressController, 42)

	tests := []struct {
		name string
		req  abus.Request
		want abus.Direction
	}{
		{"segment out of range", &abus.ReadCodeBlockRequest{Header: h, SegmentNumber: 9, BlockSize: 1}, abus.DirectionOutOfRange},
		{"zero block size", &abus.ReadCodeBlockRequest{Header: h, SegmentNumber: 0}, abus.DirectionInvalidParameter},
		{"pointer out of range", &abus.ReadDataRequest{Header: h, Pointers: []uint32{demoMemorySize}}, abus.DirectionOutOfRange},
		{"write past end", &abus.WriteDataRequest{Header: h, Pointer: demoMemorySize - 1, Data: []byte{1, 2}}, abus.DirectionOutOfRange},
		{"wrong password", &abus.StartRequest{Header: locked}, abus.DirectionInvalidPassword},
		{"other station", &abus.PingRequest{Header: elsewhere}, abus.DirectionAccessDenied},
		{"unknown command", &abus.GenericRequest{Header: h, Code: 0x77}, abus.DirectionUnknownCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := d.Request(tt.req)
			require.NoError(t, err)
			resp, ok := msg.(abus.Response)
			require.True(t, ok, "got %T", msg)
			assert.True(t, resp.IsError())
			assert.Equal(t, tt.want, resp.ToFrame().Direction)
		})
	}

	msg, err := d.Request(&abus.GenericRequest{Header: h, Code: 0x77})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x77}, msg.(*abus.GenericResponse).Parameters)
}

func TestExpect(t *testing.T) {
	req := &abus.PingRequest{Header: abus.NewRequestHeader(1, 2)}

	_, err := expect[*abus.PingResponse](&abus.PingResponse{Header: abus.ReplyHeader(req, abus.DirectionBusy)}, req)
	require.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "busy")

	_, err = expect[*abus.PingResponse](&abus.StopResponse{Header: abus.ReplyHeader(req, abus.DirectionAcknowledge)}, req)
	require.ErrorIs(t, err, ErrUnexpected)

	_, err = expect[*abus.PingResponse](&abus.Frame{}, req)
	require.ErrorIs(t, err, ErrUnexpected)
}

func TestParsePassword(t *testing.T) {
	p, err := ParsePassword("12ab")
	require.NoError(t, err)
	assert.Equal(t, abus.Password{0x12, 0xAB}, p)

	p, err = ParsePassword("")
	require.NoError(t, err)
	assert.Zero(t, p)

	for _, bad := range []string{"123", "12345", "zz00", "1g00"} {
		_, err := ParsePassword(bad)
		assert.Error(t, err, bad)
	}
}

// loopPort answers every written frame through a Demo, delivering the
// response a few bytes per Read with noise in front.
type loopPort struct {
	demo     *Demo
	noise    []byte
	chunk    int
	silent   bool
	corrupt  bool
	writeErr error

	mu      sync.Mutex
	pending []byte
	written [][]byte
	closed  bool
}

func (p *loopPort) Write(b []byte) (int, error) {
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	p.mu.Lock()
	p.written = append(p.written, append([]byte(nil), b...))
	p.mu.Unlock()
	if p.silent {
		return len(b), nil
	}
	resp, err := p.demo.serve(b)
	if err != nil {
		return 0, err
	}
	raw, err := abus.Encode(resp)
	if err != nil {
		return 0, err
	}
	if p.corrupt {
		raw[len(raw)-1] ^= 0xFF
	}
	p.mu.Lock()
	p.pending = append(append(p.pending, p.noise...), raw...)
	p.mu.Unlock()
	return len(b), nil
}

func (p *loopPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, errors.New("closed")
	}
	n := p.chunk
	if n > len(p.pending) {
		n = len(p.pending)
	}
	if n > len(b) {
		n = len(b)
	}
	copy(b, p.pending[:n])
	p.pending = p.pending[n:]
	return n, nil
}

func (p *loopPort) ResetInputBuffer() error {
	p.mu.Lock()
	p.pending = nil
	p.mu.Unlock()
	return nil
}

func (p *loopPort) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

func newTestClient(t *testing.T, lp *loopPort) *Client {
	c := NewClient(ClientConfig{PortPath: "/dev/null", Timeout: 100 * time.Millisecond}, zaptest.NewLogger(t), nil)
	c.open = func(string, int) (port, error) { return lp, nil }
	return c
}

func TestClientPollOverSplitNoisyStream(t *testing.T) {
	lp := &loopPort{demo: newTestDemo(t), noise: []byte{0x00, 0xAA, 0x13}, chunk: 3}
	c := newTestClient(t, lp)
	require.NoError(t, c.Connect())
	assert.True(t, c.IsConnected())

	st, err := c.Poll()
	require.NoError(t, err)
	assert.Equal(t, "running", st.State)

	require.NoError(t, c.Close())
	assert.False(t, c.IsConnected())
	assert.True(t, lp.closed)
}

func TestClientSkipsFramesForOtherStations(t *testing.T) {
	other := &abus.PingResponse{Header: abus.Header{From: 7, To: 8, Direction: abus.DirectionAcknowledge}}
	noise, err := abus.Encode(other)
	require.NoError(t, err)

	lp := &loopPort{demo: newTestDemo(t), noise: noise, chunk: 64}
	c := newTestClient(t, lp)
	require.NoError(t, c.Connect())

	msg, err := c.Request(&abus.ReadPlcStatusRequest{Header: c.header()})
	require.NoError(t, err)
	assert.IsType(t, &abus.ReadPlcStatusResponse{}, msg)
}

func TestClientWritesOneFramePerRequest(t *testing.T) {
	lp := &loopPort{demo: newTestDemo(t), chunk: 64}
	c := newTestClient(t, lp)
	require.NoError(t, c.Connect())

	req := &abus.ReadDataRequest{Header: c.header(), Pointers: []uint32{0x10, 0x11}}
	_, err := c.Request(req)
	require.NoError(t, err)

	want, err := abus.Encode(req)
	require.NoError(t, err)
	require.Len(t, lp.written, 2, "ping, then the request")
	assert.Equal(t, want, lp.written[1])

	lp.writeErr = errors.New("unplugged")
	_, err = c.Request(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plc: write failed: unplugged")
}

func TestClientTimeout(t *testing.T) {
	lp := &loopPort{demo: newTestDemo(t), chunk: 64, silent: true}
	c := newTestClient(t, lp)
	err := c.Connect()
	require.ErrorIs(t, err, ErrTimeout)
	assert.False(t, c.IsConnected())
}

func TestClientBadChecksum(t *testing.T) {
	lp := &loopPort{demo: newTestDemo(t), chunk: 64}
	c := newTestClient(t, lp)
	require.NoError(t, c.Connect())

	lp.corrupt = true
	msg, err := c.Request(&abus.PingRequest{Header: c.header()})
	require.ErrorIs(t, err, ErrBadChecksum)
	f, ok := msg.(*abus.Frame)
	require.True(t, ok, "got %T", msg)
	assert.False(t, f.CRCValid)
}

func TestClientNotConnected(t *testing.T) {
	c := NewClient(ClientConfig{}, zaptest.NewLogger(t), nil)
	_, err := c.RequestRaw(&abus.PingRequest{})
	require.ErrorIs(t, err, ErrNotConnected)
}
