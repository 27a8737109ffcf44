package plc

import (
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/shaunagostinho/buslink/internal/abus"
	"github.com/shaunagostinho/buslink/internal/metrics"
)

var (
	ErrNotConnected = errors.New("plc: not connected")
	ErrTimeout      = errors.New("plc: no response before deadline")
	ErrBadChecksum  = errors.New("plc: response checksum mismatch")
	ErrRejected     = errors.New("plc: request rejected")
	ErrUnexpected   = errors.New("plc: unexpected response variant")
)

// Provider is the interface every A-bus backend implements. Client talks to
// a real PLC over a serial line; Demo answers from an in-process simulation.
type Provider interface {
	// Name returns the human-readable name of this provider.
	Name() string
	Connect() error
	Close() error
	IsConnected() bool

	// RequestRaw performs I/O only: it sends req and returns the raw
	// response frame. No parsing is done.
	RequestRaw(req abus.Request) (*RawData, error)

	// ParseRaw decodes a raw response. CPU only, safe from any goroutine.
	ParseRaw(raw *RawData) (abus.Message, error)

	// Request is RequestRaw followed by ParseRaw.
	Request(req abus.Request) (abus.Message, error)

	// Poll reads the run state and clock into a Status snapshot.
	Poll() (*Status, error)
}

// RawData carries one response frame together with the request it answers,
// which selects the response variant at parse time.
type RawData struct {
	Request abus.Request
	Data    []byte
}

// Status is the PLC snapshot pushed to dashboard clients.
type Status struct {
	Address   int32     `json:"address"`
	State     string    `json:"state"`
	ErrorCode uint16    `json:"errorCode"`
	Clock     time.Time `json:"clock"`
	Polled    time.Time `json:"polled"`
}

// parseRaw is the ParseRaw body shared by every provider.
func parseRaw(raw *RawData, m *metrics.Protocol) (abus.Message, error) {
	msg, err := abus.Parse(raw.Data, raw.Request)
	m.ObserveFrame(msg, err)
	if err != nil {
		return nil, fmt.Errorf("plc: parse response: %w", err)
	}
	if f, ok := msg.(*abus.Frame); ok && !f.CRCValid {
		return msg, ErrBadChecksum
	}
	return msg, nil
}

// expect narrows a response to T and turns error statuses into ErrRejected.
func expect[T abus.Response](msg abus.Message, req abus.Request) (T, error) {
	var zero T
	resp, ok := msg.(abus.Response)
	if !ok {
		return zero, fmt.Errorf("%w: %s answered with %s", ErrUnexpected, req.Command(), abus.Variant(msg))
	}
	if resp.IsError() {
		return zero, fmt.Errorf("%w: %s: %s", ErrRejected, req.Command(), resp.ToFrame().Direction)
	}
	typed, ok := resp.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s answered with %s", ErrUnexpected, req.Command(), abus.Variant(msg))
	}
	return typed, nil
}

// poll runs the ReadPlcStatus and GetTime exchanges for Provider.Poll.
func poll(p Provider, h abus.Header) (*Status, error) {
	statusReq := &abus.ReadPlcStatusRequest{Header: h}
	msg, err := p.Request(statusReq)
	if err != nil {
		return nil, err
	}
	status, err := expect[*abus.ReadPlcStatusResponse](msg, statusReq)
	if err != nil {
		return nil, err
	}

	timeReq := &abus.GetTimeRequest{Header: h}
	msg, err = p.Request(timeReq)
	if err != nil {
		return nil, err
	}
	clock, err := expect[*abus.GetTimeResponse](msg, timeReq)
	if err != nil {
		return nil, err
	}

	return &Status{
		Address:   h.To,
		State:     status.State.String(),
		ErrorCode: status.ErrorCode,
		Clock:     clock.Time,
		Polled:    time.Now(),
	}, nil
}

// ParsePassword decodes a four hex digit password; empty means zero.
func ParsePassword(s string) (abus.Password, error) {
	var p abus.Password
	if s == "" {
		return p, nil
	}
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(p) {
		return p, fmt.Errorf("plc: password %q: want 4 hex digits", s)
	}
	copy(p[:], b)
	return p, nil
}
