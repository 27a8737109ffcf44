package gps

import (
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/shaunagostinho/buslink/internal/metrics"
	"github.com/shaunagostinho/buslink/internal/nmea"
)

// NMEAProvider reads standard NMEA 0183 sentences from a UART GPS.
// Compatible with u-blox NEO-M8N and any standard NMEA GPS.
type NMEAProvider struct {
	portPath string
	baudRate int
	log      *zap.Logger
	metrics  *metrics.Protocol

	mu     sync.Mutex
	port   io.ReadCloser
	stream *feed
	open   func(path string, baud int) (io.ReadCloser, error)
}

// NMEAConfig holds configuration for the NMEA GPS provider.
type NMEAConfig struct {
	PortPath string `yaml:"port_path" json:"portPath"`
	BaudRate int    `yaml:"baud_rate" json:"baudRate"`
}

// NewNMEA creates a new NMEA GPS provider.
func NewNMEA(cfg NMEAConfig, log *zap.Logger, m *metrics.Protocol) *NMEAProvider {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = 9600 // Standard NMEA default
	}
	return &NMEAProvider{
		portPath: cfg.PortPath,
		baudRate: cfg.BaudRate,
		log:      log,
		metrics:  m,
		stream:   newFeed(m),
		open:     openSerial,
	}
}

func openSerial(path string, baud int) (io.ReadCloser, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}
	if err := port.SetReadTimeout(200 * time.Millisecond); err != nil {
		port.Close()
		return nil, err
	}
	return port, nil
}

func (n *NMEAProvider) Name() string { return "NMEA GPS" }

func (n *NMEAProvider) Connect() error {
	port, err := n.open(n.portPath, n.baudRate)
	if err != nil {
		return fmt.Errorf("gps: failed to open %s: %w", n.portPath, err)
	}
	n.mu.Lock()
	n.port = port
	n.mu.Unlock()
	n.log.Info("connected", zap.String("port", n.portPath), zap.Int("baud", n.baudRate))
	return nil
}

func (n *NMEAProvider) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.port != nil {
		err := n.port.Close()
		n.port = nil
		return err
	}
	return nil
}

// Read consumes serial input until both an RMC and a GGA have been seen
// or maxReads reads have passed, then returns the folded fix.
func (n *NMEAProvider) Read() (*Data, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.port == nil {
		return n.stream.snapshot(), fmt.Errorf("gps: not connected")
	}

	const maxReads = 20
	buf := make([]byte, 256)
	n.stream.resetSeen()
	for i := 0; i < maxReads && !n.stream.complete(); i++ {
		c, err := n.port.Read(buf)
		if c > 0 {
			n.stream.write(buf[:c])
		}
		if err != nil {
			return n.stream.snapshot(), fmt.Errorf("gps: read failed: %w", err)
		}
	}
	return n.stream.snapshot(), nil
}

// feed couples a reassembler with the fix it updates.
type feed struct {
	r       *nmea.Reassembler
	metrics *metrics.Protocol
	last    Data
	seenRMC bool
	seenGGA bool
	dropped uint64
}

func newFeed(m *metrics.Protocol) *feed {
	f := &feed{metrics: m}
	f.r = nmea.NewReassembler(f.apply)
	return f
}

func (f *feed) apply(s nmea.Sentence) {
	f.metrics.ObserveSentence(s)
	if !f.last.Apply(s) {
		return
	}
	switch s.(type) {
	case *nmea.RMC:
		f.seenRMC = true
	case *nmea.GGA:
		f.seenGGA = true
	}
}

func (f *feed) write(p []byte) {
	f.r.Feed(p)
	if d := f.r.Dropped(); d > f.dropped {
		f.metrics.AddDropped(d - f.dropped)
		f.dropped = d
	}
}

func (f *feed) resetSeen()      { f.seenRMC, f.seenGGA = false, false }
func (f *feed) complete() bool  { return f.seenRMC && f.seenGGA }
func (f *feed) snapshot() *Data { d := f.last; return &d }
