package abus

import "fmt"

// Command is the first parameter byte of a command request.
type Command uint8

const (
	CommandPing          Command = 0x10
	CommandReadPlcStatus Command = 0x11
	CommandReadCodeBlock Command = 0x20
	CommandReadData      Command = 0x30
	CommandWriteData     Command = 0x31
	CommandStart         Command = 0x40
	CommandStop          Command = 0x41
	CommandPause         Command = 0x42
	CommandSetTime       Command = 0x50
	CommandGetTime       Command = 0x51
)

var commandNames = map[Command]string{
	CommandPing:          "ping",
	CommandReadPlcStatus: "read_plc_status",
	CommandReadCodeBlock: "read_code_block",
	CommandReadData:      "read_data",
	CommandWriteData:     "write_data",
	CommandStart:         "start",
	CommandStop:          "stop",
	CommandPause:         "pause",
	CommandSetTime:       "set_time",
	CommandGetTime:       "get_time",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("command(0x%02X)", uint8(c))
}

// PlcState is the run state reported by ReadPlcStatus.
type PlcState uint8

const (
	PlcStopped PlcState = iota
	PlcRunning
	PlcPaused
	PlcFault
)

func (s PlcState) String() string {
	switch s {
	case PlcStopped:
		return "stopped"
	case PlcRunning:
		return "running"
	case PlcPaused:
		return "paused"
	case PlcFault:
		return "fault"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}
