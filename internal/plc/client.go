package plc

import (
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/shaunagostinho/buslink/internal/abus"
	"github.com/shaunagostinho/buslink/internal/metrics"
)

// ClientConfig holds connection settings for a serial A-bus PLC.
type ClientConfig struct {
	PortPath string        `yaml:"port_path" json:"portPath"`
	BaudRate int           `yaml:"baud_rate" json:"baudRate"`
	Address  int32         `yaml:"address" json:"address"` // our own bus address
	Peer     int32         `yaml:"peer" json:"peer"`       // the PLC's address
	Password abus.Password `yaml:"-" json:"-"`
	Timeout  time.Duration `yaml:"-" json:"-"`
}

// port is the subset of serial.Port the client needs.
type port interface {
	io.ReadWriteCloser
	ResetInputBuffer() error
}

// Client implements Provider over a serial line. Requests are strictly
// one at a time: write the frame, then read until the matching response
// arrives or Timeout passes.
type Client struct {
	cfg     ClientConfig
	log     *zap.Logger
	metrics *metrics.Protocol

	mu        sync.Mutex
	port      port
	dec       *abus.Decoder
	connected bool
	open      func(path string, baud int) (port, error)
}

func NewClient(cfg ClientConfig, log *zap.Logger, m *metrics.Protocol) *Client {
	if cfg.BaudRate == 0 {
		cfg.BaudRate = 115200
	}
	if cfg.Address == 0 {
		cfg.Address = abus.AddressController
	}
	if cfg.Peer == 0 {
		cfg.Peer = abus.AddressPeer
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 500 * time.Millisecond
	}
	return &Client{
		cfg:     cfg,
		log:     log,
		metrics: m,
		dec:     abus.NewDecoder(),
		open:    openSerial,
	}
}

func openSerial(path string, baud int) (port, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}
	if err := p.SetReadTimeout(50 * time.Millisecond); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

func (c *Client) Name() string { return "A-bus PLC" }

// Connect opens the port and confirms the peer answers a Ping.
func (c *Client) Connect() error {
	p, err := c.open(c.cfg.PortPath, c.cfg.BaudRate)
	if err != nil {
		return fmt.Errorf("plc: failed to open %s: %w", c.cfg.PortPath, err)
	}
	c.mu.Lock()
	c.port = p
	c.connected = true
	c.mu.Unlock()

	ping := &abus.PingRequest{Header: c.header()}
	msg, err := c.Request(ping)
	if err == nil {
		_, err = expect[*abus.PingResponse](msg, ping)
	}
	if err != nil {
		c.Close()
		return fmt.Errorf("plc: no ping reply from %d on %s: %w", c.cfg.Peer, c.cfg.PortPath, err)
	}
	c.log.Info("connected",
		zap.String("port", c.cfg.PortPath),
		zap.Int("baud", c.cfg.BaudRate),
		zap.Int32("peer", c.cfg.Peer))
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	c.dec.Reset()
	if c.port != nil {
		err := c.port.Close()
		c.port = nil
		return err
	}
	return nil
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Client) header() abus.Header {
	h := abus.NewRequestHeader(c.cfg.Address, c.cfg.Peer)
	h.Password = c.cfg.Password
	return h
}

// RequestRaw writes req and returns the first response frame addressed
// back to us from the request's destination. Frames for other stations
// and stale bytes are skipped.
func (c *Client) RequestRaw(req abus.Request) (*RawData, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected || c.port == nil {
		return nil, ErrNotConnected
	}

	_ = c.port.ResetInputBuffer()
	c.dec.Reset()
	if err := abus.WriteMessage(c.port, req); err != nil {
		return nil, fmt.Errorf("plc: write failed: %w", err)
	}

	h := req.ToFrame().Header
	deadline := time.Now().Add(c.cfg.Timeout)
	buf := make([]byte, 256)
	for time.Now().Before(deadline) {
		n, err := c.port.Read(buf)
		if err != nil && n == 0 {
			return nil, fmt.Errorf("plc: read failed: %w", err)
		}
		c.dec.Feed(buf[:n])
		for {
			frame, ok := c.dec.Next()
			if !ok {
				break
			}
			f, err := abus.ParseFrame(frame)
			if err != nil {
				c.log.Debug("skipping malformed frame", zap.Error(err), zap.Binary("raw", frame))
				continue
			}
			if f.Direction == abus.DirectionRequest || f.From != h.To || f.To != h.From {
				continue
			}
			return &RawData{Request: req, Data: frame}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s after %v", ErrTimeout, req.Command(), c.cfg.Timeout)
}

func (c *Client) ParseRaw(raw *RawData) (abus.Message, error) {
	return parseRaw(raw, c.metrics)
}

func (c *Client) Request(req abus.Request) (abus.Message, error) {
	raw, err := c.RequestRaw(req)
	if err != nil {
		return nil, err
	}
	return c.ParseRaw(raw)
}

func (c *Client) Poll() (*Status, error) {
	return poll(c, c.header())
}
