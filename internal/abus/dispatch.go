package abus

import "fmt"

var requestVariants = map[Command]func(Header) Request{
	CommandPing:          func(h Header) Request { return &PingRequest{Header: h} },
	CommandReadPlcStatus: func(h Header) Request { return &ReadPlcStatusRequest{Header: h} },
	CommandReadCodeBlock: func(h Header) Request { return &ReadCodeBlockRequest{Header: h} },
	CommandReadData:      func(h Header) Request { return &ReadDataRequest{Header: h} },
	CommandWriteData:     func(h Header) Request { return &WriteDataRequest{Header: h} },
	CommandStart:         func(h Header) Request { return &StartRequest{Header: h} },
	CommandStop:          func(h Header) Request { return &StopRequest{Header: h} },
	CommandPause:         func(h Header) Request { return &PauseRequest{Header: h} },
	CommandSetTime:       func(h Header) Request { return &SetTimeRequest{Header: h} },
	CommandGetTime:       func(h Header) Request { return &GetTimeRequest{Header: h} },
}

// responseVariants is keyed on the command of the request being answered;
// response frames carry no command byte of their own.
var responseVariants = map[Command]func(Header) Response{
	CommandPing:          func(h Header) Response { return &PingResponse{Header: h} },
	CommandReadPlcStatus: func(h Header) Response { return &ReadPlcStatusResponse{Header: h} },
	CommandReadCodeBlock: func(h Header) Response { return &ReadCodeBlockResponse{Header: h} },
	CommandReadData:      func(h Header) Response { return &ReadDataResponse{Header: h} },
	CommandWriteData:     func(h Header) Response { return &WriteDataResponse{Header: h} },
	CommandStart:         func(h Header) Response { return &StartResponse{Header: h} },
	CommandStop:          func(h Header) Response { return &StopResponse{Header: h} },
	CommandPause:         func(h Header) Response { return &PauseResponse{Header: h} },
	CommandSetTime:       func(h Header) Response { return &SetTimeResponse{Header: h} },
	CommandGetTime:       func(h Header) Response { return &GetTimeResponse{Header: h} },
}

// Classify promotes a checksum-valid frame to its typed variant.
//
// Requests dispatch on their own command byte. Responses dispatch on the
// command of req; without req they decode as GenericResponse. Requests that
// are not command messages, or carry no command byte, stay bare frames.
func Classify(f *Frame, req Request) (Message, error) {
	if f.Direction == DirectionRequest {
		if f.MessageType != MessageTypeCommand || len(f.Parameters) == 0 {
			return f, nil
		}
		cmd := Command(f.Parameters[0])
		newReq, ok := requestVariants[cmd]
		if !ok {
			r := &GenericRequest{Header: f.Header, Code: cmd}
			_ = r.decodeArgs(f.Parameters[1:])
			return r, nil
		}
		r := newReq(f.Header)
		if err := r.decodeArgs(f.Parameters[1:]); err != nil {
			return nil, fmt.Errorf("%s request: %w", cmd, err)
		}
		return r, nil
	}

	var newResp func(Header) Response
	if req != nil {
		newResp = responseVariants[req.Command()]
	}
	if newResp == nil {
		return &GenericResponse{Header: f.Header, Parameters: cloneBytes(f.Parameters)}, nil
	}
	r := newResp(f.Header)
	if r.IsError() {
		return r, nil
	}
	if err := r.decodePayload(f.Parameters); err != nil {
		return nil, fmt.Errorf("%s response: %w", req.Command(), err)
	}
	return r, nil
}

// Variant names the decoded shape of m, for logs and metric labels.
func Variant(m Message) string {
	switch v := m.(type) {
	case *Frame:
		return "frame"
	case *GenericRequest:
		return "request"
	case *GenericResponse:
		return "response"
	case Request:
		return v.Command().String() + "_request"
	case *PingResponse:
		return "ping_response"
	case *ReadPlcStatusResponse:
		return "read_plc_status_response"
	case *ReadCodeBlockResponse:
		return "read_code_block_response"
	case *ReadDataResponse:
		return "read_data_response"
	case *WriteDataResponse:
		return "write_data_response"
	case *StartResponse:
		return "start_response"
	case *StopResponse:
		return "stop_response"
	case *PauseResponse:
		return "pause_response"
	case *SetTimeResponse:
		return "set_time_response"
	case *GetTimeResponse:
		return "get_time_response"
	default:
		return "unknown"
	}
}
