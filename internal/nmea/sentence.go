// Package nmea decodes NMEA 0183 sentences:
//
//	$<talker:2><id:3>,<component>,...,<component>*<xor:2 hex>
//
// Parse works on one line; Reassembler cuts lines out of a byte stream.
package nmea

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const minSentenceLen = 9

var (
	ErrTooShort                   = errors.New("nmea: sentence too short")
	ErrBadStart                   = errors.New("nmea: sentence does not start with '$'")
	ErrMissingSentenceIDDelimiter = errors.New("nmea: missing ',' after sentence id")
	ErrMissingChecksumMarker      = errors.New("nmea: missing '*' checksum marker")
	ErrChecksumFailed             = errors.New("nmea: checksum mismatch")
)

// Sentence is a decoded line: *BaseSentence for unrecognised ids, or one
// of *GGA, *GLL, *GSA, *GSV, *RMC, *VTG.
type Sentence interface {
	Base() *BaseSentence
}

// BaseSentence holds the raw fields every sentence has. Components are in
// wire order and may be empty strings.
type BaseSentence struct {
	TalkerID   string   `json:"talkerId"`
	SentenceID string   `json:"sentenceId"`
	Components []string `json:"components"`
}

func (s *BaseSentence) Base() *BaseSentence { return s }

// String renders the sentence back to wire form, without line terminator.
func (s *BaseSentence) String() string {
	body := s.TalkerID + s.SentenceID + "," + strings.Join(s.Components, ",")
	return fmt.Sprintf("$%s*%02X", body, Checksum([]byte(body)))
}

// Checksum XORs every byte of b. For a sentence, b is everything between
// '$' and '*'.
func Checksum(b []byte) byte {
	var sum byte
	for _, c := range b {
		sum ^= c
	}
	return sum
}

var sentenceTypes = map[string]func(BaseSentence) Sentence{
	"GGA": newGGA,
	"GLL": newGLL,
	"GSA": newGSA,
	"GSV": newGSV,
	"RMC": newRMC,
	"VTG": newVTG,
}

// Known reports whether id is one of the typed sentence ids.
func Known(id string) bool {
	_, ok := sentenceTypes[strings.ToUpper(id)]
	return ok
}

// Parse validates one sentence line and decodes it. A trailing CR/LF is
// ignored. Unknown sentence ids decode as *BaseSentence.
func Parse(line []byte) (Sentence, error) {
	line = bytes.TrimRight(line, "\r\n")
	if len(line) < minSentenceLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooShort, len(line))
	}
	if line[0] != '$' {
		return nil, ErrBadStart
	}
	if line[6] != ',' {
		return nil, ErrMissingSentenceIDDelimiter
	}
	star := len(line) - 3
	if line[star] != '*' {
		return nil, ErrMissingChecksumMarker
	}

	want, ok := parseHexByte(line[star+1:])
	if !ok {
		return nil, fmt.Errorf("%w: bad digits %q", ErrChecksumFailed, line[star+1:])
	}
	if got := Checksum(line[1:star]); got != want {
		return nil, fmt.Errorf("%w: computed %02X, sentence says %02X", ErrChecksumFailed, got, want)
	}

	base := BaseSentence{
		TalkerID:   string(line[1:3]),
		SentenceID: string(line[3:6]),
		Components: strings.Split(string(line[7:star]), ","),
	}
	if decode, ok := sentenceTypes[strings.ToUpper(base.SentenceID)]; ok {
		return decode(base), nil
	}
	return &base, nil
}

// ParseString is Parse for string input.
func ParseString(line string) (Sentence, error) {
	return Parse([]byte(line))
}

func parseHexByte(b []byte) (byte, bool) {
	var out [1]byte
	if len(b) != 2 {
		return 0, false
	}
	if _, err := hex.Decode(out[:], b); err != nil {
		return 0, false
	}
	return out[0], true
}
