package abus

import (
	"bytes"
	"encoding/binary"
)

// Decoder splits a byte stream into raw frames. It handles split and
// coalesced reads and resynchronises on the magic after line noise.
// Checksums are not checked here; Parse reports them.
//
// A Decoder is not safe for concurrent use.
type Decoder struct {
	buf []byte
}

func NewDecoder() *Decoder { return &Decoder{} }

// Feed appends p to the internal buffer.
func (d *Decoder) Feed(p []byte) {
	d.buf = append(d.buf, p...)
}

// Buffered returns the number of bytes waiting for a complete frame.
func (d *Decoder) Buffered() int { return len(d.buf) }

// Reset drops everything buffered.
func (d *Decoder) Reset() { d.buf = d.buf[:0] }

// Next extracts the next complete frame, if any. The returned slice is a
// copy and stays valid after further calls.
func (d *Decoder) Next() ([]byte, bool) {
	for {
		start := bytes.Index(d.buf, magic[:])
		if start < 0 {
			// Keep a trailing first magic byte; its partner may be in the next read.
			if n := len(d.buf); n > 0 && d.buf[n-1] == magic[0] {
				d.buf = append(d.buf[:0], magic[0])
			} else {
				d.buf = d.buf[:0]
			}
			return nil, false
		}
		d.buf = d.buf[start:]
		if len(d.buf) < 4 {
			return nil, false
		}

		block := int(binary.LittleEndian.Uint16(d.buf[2:4]))
		total := HeaderLen + block
		if block < TrailerLen || total > MaxFrameLen {
			d.buf = d.buf[1:]
			continue
		}
		if len(d.buf) < total {
			return nil, false
		}

		raw := append([]byte(nil), d.buf[:total]...)
		d.buf = d.buf[total:]
		return raw, true
	}
}
