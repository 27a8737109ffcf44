package abus

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Response answers a request. Which variant a response frame decodes into
// depends on the command of the request it answers.
type Response interface {
	Message
	IsError() bool
	encodePayload() []byte
	decodePayload(p []byte) error
}

func isError(h Header) bool { return h.Direction != DirectionAcknowledge }

// responseFrame leaves the payload empty for error statuses, which carry no
// command fields.
func responseFrame(h Header, r Response) *Frame {
	f := &Frame{Header: h, CRCValid: true}
	if !isError(h) {
		f.Parameters = r.encodePayload()
	}
	return f
}

// GenericResponse is a response with no typed layout: either its request
// was not supplied or the request's command has no response variant.
type GenericResponse struct {
	Header
	Parameters []byte `json:"parameters,omitempty"`
}

func (r *GenericResponse) IsError() bool         { return isError(r.Header) }
func (r *GenericResponse) encodePayload() []byte { return r.Parameters }

// ToFrame keeps the raw parameters even for error statuses.
func (r *GenericResponse) ToFrame() *Frame {
	return &Frame{Header: r.Header, Parameters: r.Parameters, CRCValid: true}
}

func (r *GenericResponse) decodePayload(p []byte) error {
	r.Parameters = cloneBytes(p)
	return nil
}

type PingResponse struct {
	Header
	noArgs
}

func (r *PingResponse) IsError() bool   { return isError(r.Header) }
func (r *PingResponse) ToFrame() *Frame { return responseFrame(r.Header, r) }

type ReadPlcStatusResponse struct {
	Header
	State     PlcState `json:"state"`
	ErrorCode uint16   `json:"errorCode"`
}

func (r *ReadPlcStatusResponse) IsError() bool   { return isError(r.Header) }
func (r *ReadPlcStatusResponse) ToFrame() *Frame { return responseFrame(r.Header, r) }

func (r *ReadPlcStatusResponse) encodePayload() []byte {
	return binary.LittleEndian.AppendUint16([]byte{byte(r.State)}, r.ErrorCode)
}

func (r *ReadPlcStatusResponse) decodePayload(p []byte) error {
	if len(p) < 3 {
		return fmt.Errorf("%w: plc status needs 3 bytes, have %d", ErrTruncated, len(p))
	}
	r.State = PlcState(p[0])
	r.ErrorCode = binary.LittleEndian.Uint16(p[1:3])
	return nil
}

type ReadCodeBlockResponse struct {
	Header
	SegmentNumber int16  `json:"segmentNumber"`
	Code          []byte `json:"code,omitempty"`
}

func (r *ReadCodeBlockResponse) IsError() bool   { return isError(r.Header) }
func (r *ReadCodeBlockResponse) ToFrame() *Frame { return responseFrame(r.Header, r) }

func (r *ReadCodeBlockResponse) encodePayload() []byte {
	b := binary.LittleEndian.AppendUint16(make([]byte, 0, 2+len(r.Code)), uint16(r.SegmentNumber))
	return append(b, r.Code...)
}

func (r *ReadCodeBlockResponse) decodePayload(p []byte) error {
	if len(p) < 2 {
		return fmt.Errorf("%w: code block needs a segment number", ErrTruncated)
	}
	r.SegmentNumber = int16(binary.LittleEndian.Uint16(p[0:2]))
	r.Code = cloneBytes(p[2:])
	return nil
}

// ReadDataResponse carries the concatenated values of the requested pointers.
type ReadDataResponse struct {
	Header
	Data []byte `json:"data,omitempty"`
}

func (r *ReadDataResponse) IsError() bool         { return isError(r.Header) }
func (r *ReadDataResponse) ToFrame() *Frame       { return responseFrame(r.Header, r) }
func (r *ReadDataResponse) encodePayload() []byte { return r.Data }

func (r *ReadDataResponse) decodePayload(p []byte) error {
	r.Data = cloneBytes(p)
	return nil
}

type WriteDataResponse struct {
	Header
	noArgs
}

func (r *WriteDataResponse) IsError() bool   { return isError(r.Header) }
func (r *WriteDataResponse) ToFrame() *Frame { return responseFrame(r.Header, r) }

type StartResponse struct {
	Header
	noArgs
}

func (r *StartResponse) IsError() bool   { return isError(r.Header) }
func (r *StartResponse) ToFrame() *Frame { return responseFrame(r.Header, r) }

type StopResponse struct {
	Header
	noArgs
}

func (r *StopResponse) IsError() bool   { return isError(r.Header) }
func (r *StopResponse) ToFrame() *Frame { return responseFrame(r.Header, r) }

type PauseResponse struct {
	Header
	noArgs
}

func (r *PauseResponse) IsError() bool   { return isError(r.Header) }
func (r *PauseResponse) ToFrame() *Frame { return responseFrame(r.Header, r) }

type SetTimeResponse struct {
	Header
	noArgs
}

func (r *SetTimeResponse) IsError() bool   { return isError(r.Header) }
func (r *SetTimeResponse) ToFrame() *Frame { return responseFrame(r.Header, r) }

// GetTimeResponse carries the PLC clock with the same UTC, whole-second,
// 16-bit-year limits as SetTimeRequest.
type GetTimeResponse struct {
	Header
	Time time.Time `json:"time"`
}

func (r *GetTimeResponse) IsError() bool         { return isError(r.Header) }
func (r *GetTimeResponse) ToFrame() *Frame       { return responseFrame(r.Header, r) }
func (r *GetTimeResponse) encodePayload() []byte { return appendClock(nil, r.Time) }

func (r *GetTimeResponse) validate() error {
	if r.IsError() {
		return nil
	}
	return checkClock(r.Time)
}

func (r *GetTimeResponse) decodePayload(p []byte) error {
	t, err := readClock(p)
	if err != nil {
		return err
	}
	r.Time = t
	return nil
}
