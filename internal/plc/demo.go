package plc

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shaunagostinho/buslink/internal/abus"
	"github.com/shaunagostinho/buslink/internal/metrics"
)

// demoMemorySize bounds the simulated data memory.
const demoMemorySize = 0x10000

// Demo simulates a PLC for development and testing. Every exchange goes
// through the real codec: the request is encoded, decoded on the PLC side,
// answered with an encoded response, and that response is parsed back.
type Demo struct {
	log     *zap.Logger
	metrics *metrics.Protocol
	now     func() time.Time

	address int32
	peer    int32

	mu        sync.Mutex
	connected bool
	state     abus.PlcState
	errorCode uint16
	offset    time.Duration // PLC clock minus host clock
	memory    []byte
	segments  [][]byte
	password  abus.Password
}

func NewDemo(log *zap.Logger, m *metrics.Protocol) *Demo {
	d := &Demo{
		log:     log,
		metrics: m,
		now:     time.Now,
		address: abus.AddressController,
		peer:    abus.AddressPeer,
		state:   abus.PlcRunning,
		memory:  make([]byte, demoMemorySize),
		segments: [][]byte{
			[]byte("LD X0\nAND X1\nOUT Y0\n"),
			[]byte("LD M100\nOUT T0 K50\n"),
		},
	}
	for i := range d.memory[:256] {
		d.memory[i] = byte(i)
	}
	return d
}

func (d *Demo) Name() string { return "Demo PLC (Simulated)" }

func (d *Demo) Connect() error {
	d.mu.Lock()
	d.connected = true
	d.mu.Unlock()
	d.log.Info("connected", zap.Int32("peer", d.peer))
	return nil
}

func (d *Demo) Close() error {
	d.mu.Lock()
	d.connected = false
	d.mu.Unlock()
	return nil
}

func (d *Demo) IsConnected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connected
}

func (d *Demo) header() abus.Header { return abus.NewRequestHeader(d.address, d.peer) }

// RequestRaw sends req across the simulated bus and returns the encoded
// response.
func (d *Demo) RequestRaw(req abus.Request) (*RawData, error) {
	if !d.IsConnected() {
		return nil, ErrNotConnected
	}
	wire, err := abus.Encode(req)
	if err != nil {
		return nil, err
	}
	resp, err := d.serve(wire)
	if err != nil {
		return nil, err
	}
	out, err := abus.Encode(resp)
	if err != nil {
		return nil, err
	}
	return &RawData{Request: req, Data: out}, nil
}

func (d *Demo) ParseRaw(raw *RawData) (abus.Message, error) {
	return parseRaw(raw, d.metrics)
}

func (d *Demo) Request(req abus.Request) (abus.Message, error) {
	raw, err := d.RequestRaw(req)
	if err != nil {
		return nil, err
	}
	return d.ParseRaw(raw)
}

func (d *Demo) Poll() (*Status, error) {
	return poll(d, d.header())
}

// serve is the PLC side: decode one request frame and answer it.
func (d *Demo) serve(wire []byte) (abus.Message, error) {
	msg, err := abus.Parse(wire, nil)
	if err != nil {
		return nil, fmt.Errorf("plc: demo rejected request: %w", err)
	}
	req, ok := msg.(abus.Request)
	if !ok {
		return nil, fmt.Errorf("%w: demo cannot answer %s", ErrUnexpected, abus.Variant(msg))
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	h := req.ToFrame().Header
	ack := abus.ReplyHeader(req, abus.DirectionAcknowledge)
	fail := func(status abus.Direction) abus.Message {
		return &abus.GenericResponse{Header: abus.ReplyHeader(req, status)}
	}
	if h.To != d.peer && h.To != abus.AddressBroadcast {
		return fail(abus.DirectionAccessDenied), nil
	}
	if mutates(req.Command()) && h.Password != d.password {
		return fail(abus.DirectionInvalidPassword), nil
	}

	switch r := req.(type) {
	case *abus.PingRequest:
		return &abus.PingResponse{Header: ack}, nil

	case *abus.ReadPlcStatusRequest:
		return &abus.ReadPlcStatusResponse{Header: ack, State: d.state, ErrorCode: d.errorCode}, nil

	case *abus.ReadCodeBlockRequest:
		if r.BlockSize <= 0 {
			return fail(abus.DirectionInvalidParameter), nil
		}
		if r.SegmentNumber < 0 || int(r.SegmentNumber) >= len(d.segments) {
			return fail(abus.DirectionOutOfRange), nil
		}
		code := d.segments[r.SegmentNumber]
		if int(r.BlockSize) < len(code) {
			code = code[:r.BlockSize]
		}
		return &abus.ReadCodeBlockResponse{Header: ack, SegmentNumber: r.SegmentNumber, Code: append([]byte(nil), code...)}, nil

	case *abus.ReadDataRequest:
		var data []byte
		for _, p := range r.Pointers {
			if p >= uint32(len(d.memory)) {
				return fail(abus.DirectionOutOfRange), nil
			}
			data = append(data, d.memory[p])
		}
		return &abus.ReadDataResponse{Header: ack, Data: data}, nil

	case *abus.WriteDataRequest:
		if uint64(r.Pointer)+uint64(len(r.Data)) > uint64(len(d.memory)) {
			return fail(abus.DirectionOutOfRange), nil
		}
		copy(d.memory[r.Pointer:], r.Data)
		return &abus.WriteDataResponse{Header: ack}, nil

	case *abus.StartRequest:
		d.state = abus.PlcRunning
		d.errorCode = 0
		return &abus.StartResponse{Header: ack}, nil

	case *abus.StopRequest:
		d.state = abus.PlcStopped
		return &abus.StopResponse{Header: ack}, nil

	case *abus.PauseRequest:
		if d.state != abus.PlcRunning {
			return fail(abus.DirectionNotReady), nil
		}
		d.state = abus.PlcPaused
		return &abus.PauseResponse{Header: ack}, nil

	case *abus.SetTimeRequest:
		d.offset = r.Time.Sub(d.now())
		return &abus.SetTimeResponse{Header: ack}, nil

	case *abus.GetTimeRequest:
		clock := d.now().Add(d.offset).UTC().Truncate(time.Second)
		return &abus.GetTimeResponse{Header: ack, Time: clock}, nil

	default:
		d.log.Debug("unknown command", zap.Stringer("command", req.Command()))
		resp := fail(abus.DirectionUnknownCommand).(*abus.GenericResponse)
		resp.Parameters = []byte{byte(req.Command())}
		return resp, nil
	}
}

func mutates(cmd abus.Command) bool {
	switch cmd {
	case abus.CommandWriteData, abus.CommandStart, abus.CommandStop, abus.CommandPause, abus.CommandSetTime:
		return true
	}
	return false
}
