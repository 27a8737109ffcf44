package nmea

import "bytes"

// MaxLineLen bounds how much undelimited input the Reassembler holds.
const MaxLineLen = 1024

// Reassembler cuts a byte stream into CR/LF delimited lines and hands each
// one that parses to emit. Lines that fail to parse are dropped without an
// error. It is not safe for concurrent Feed calls.
type Reassembler struct {
	buf     []byte
	emit    func(Sentence)
	dropped uint64
}

func NewReassembler(emit func(Sentence)) *Reassembler {
	return &Reassembler{emit: emit}
}

// Feed appends p and emits every complete sentence now buffered.
func (r *Reassembler) Feed(p []byte) {
	r.buf = append(r.buf, p...)
	for {
		i := bytes.IndexAny(r.buf, "\r\n")
		if i < 0 {
			break
		}
		line := r.buf[:i]
		r.buf = r.buf[i+1:]
		if len(line) == 0 {
			continue
		}
		s, err := Parse(line)
		if err != nil {
			r.dropped++
			continue
		}
		if r.emit != nil {
			r.emit(s)
		}
	}

	if len(r.buf) > MaxLineLen {
		r.dropped++
		r.buf = r.buf[:0]
	}
	// Compact so the backing array does not grow with the stream.
	if cap(r.buf) > 2*MaxLineLen {
		r.buf = append([]byte(nil), r.buf...)
	}
}

// Buffered reports how many bytes wait for a line terminator.
func (r *Reassembler) Buffered() int { return len(r.buf) }

// Dropped reports how many non-empty lines were discarded.
func (r *Reassembler) Dropped() uint64 { return r.dropped }

// Reset discards any partial line.
func (r *Reassembler) Reset() { r.buf = nil }
