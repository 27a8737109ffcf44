// Command busdecode reads captured traffic from stdin and prints one JSON
// record per line. Lines starting with '$' are NMEA sentences; anything
// else is an A-bus frame in hex (whitespace and colons allowed).
package main

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"flag"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/shaunagostinho/buslink/internal/abus"
	"github.com/shaunagostinho/buslink/internal/nmea"
)

// Record is one decoded input line.
type Record struct {
	Line  int    `json:"line"`
	Kind  string `json:"kind"` // "abus" or "nmea"
	Type  string `json:"type,omitempty"`
	Value any    `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

// route identifies a request by the stations it travels between.
type route struct{ from, to int32 }

type decoder struct {
	pending map[route]abus.Request
	log     *zap.Logger
}

func newDecoder(log *zap.Logger) *decoder {
	return &decoder{pending: make(map[route]abus.Request), log: log}
}

func (d *decoder) decodeNMEA(rec *Record, line string) {
	rec.Kind = "nmea"
	s, err := nmea.ParseString(line)
	if err != nil {
		rec.Error = err.Error()
		return
	}
	rec.Type = strings.ToUpper(s.Base().SentenceID)
	rec.Value = s
}

// decodeFrame pairs responses with the last request seen on the reverse
// route, so typed payloads decode without an out-of-band hint.
func (d *decoder) decodeFrame(rec *Record, line string) {
	rec.Kind = "abus"
	b, err := hex.DecodeString(strings.NewReplacer(" ", "", ":", "", "\t", "").Replace(line))
	if err != nil {
		rec.Error = err.Error()
		return
	}
	f, err := abus.ParseFrame(b)
	if err != nil {
		rec.Error = err.Error()
		return
	}

	var req abus.Request
	if f.Direction != abus.DirectionRequest {
		key := route{from: f.To, to: f.From}
		req = d.pending[key]
		delete(d.pending, key)
	}
	msg, err := abus.Parse(b, req)
	if err != nil {
		rec.Error = err.Error()
		return
	}
	if r, ok := msg.(abus.Request); ok {
		d.pending[route{from: f.From, to: f.To}] = r
	}
	rec.Type = abus.Variant(msg)
	rec.Value = msg
	if !f.CRCValid {
		rec.Error = "checksum mismatch"
	}
}

func (d *decoder) run(in io.Reader, out io.Writer) error {
	enc := json.NewEncoder(out)
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 4096), 64*1024)

	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rec := Record{Line: n}
		if strings.HasPrefix(line, "$") {
			d.decodeNMEA(&rec, line)
		} else {
			d.decodeFrame(&rec, line)
		}
		if rec.Error != "" {
			d.log.Debug("decode failed", zap.Int("line", n), zap.String("kind", rec.Kind), zap.String("error", rec.Error))
		}
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return sc.Err()
}

func main() {
	verbose := flag.Bool("v", false, "Log decode failures to stderr")
	flag.Parse()

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if *verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := newDecoder(log).run(os.Stdin, os.Stdout); err != nil {
		log.Fatal("read failed", zap.Error(err))
	}
}
