package nmea

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rmcScenario = "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A"

func TestChecksum(t *testing.T) {
	body := []byte(rmcScenario[1 : len(rmcScenario)-3])
	assert.Equal(t, byte(0x6A), Checksum(body))
	assert.Zero(t, Checksum(nil))

	for i := range body {
		corrupt := append([]byte(nil), body...)
		corrupt[i] ^= 0x01
		assert.NotEqual(t, byte(0x6A), Checksum(corrupt), "byte %d", i)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
		err  error
	}{
		{"empty", "", ErrTooShort},
		{"short", "$GPGGA*0", ErrTooShort},
		{"no dollar", "!GPGGA,123519*00", ErrBadStart},
		{"id not delimited", "$GPGGAX123519*00", ErrMissingSentenceIDDelimiter},
		{"no star", "$GPGGA,123519,000", ErrMissingChecksumMarker},
		{"bad digits", "$GPGGA,123519*ZZ", ErrChecksumFailed},
		{"wrong sum", "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6B", ErrChecksumFailed},
		{"corrupted body", "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,E*6A", ErrChecksumFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseString(tt.line)
			require.ErrorIs(t, err, tt.err)
			assert.Nil(t, s)
		})
	}
}

func TestParseTrimsLineTerminator(t *testing.T) {
	for _, suffix := range []string{"\r\n", "\n", "\r"} {
		s, err := ParseString(rmcScenario + suffix)
		require.NoError(t, err, "suffix %q", suffix)
		assert.IsType(t, &RMC{}, s)
	}
}

func TestParseUnknownSentence(t *testing.T) {
	s, err := ParseString("$GPZDA,201530.00,04,07,2002,00,00*60")
	require.NoError(t, err)
	base, ok := s.(*BaseSentence)
	require.True(t, ok, "got %T", s)
	assert.Equal(t, "GP", base.TalkerID)
	assert.Equal(t, "ZDA", base.SentenceID)
	assert.Equal(t, []string{"201530.00", "04", "07", "2002", "00", "00"}, base.Components)
}

func TestStringRoundTrip(t *testing.T) {
	lines := []string{
		rmcScenario,
		"$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47",
		"$GPGSA,A,3,04,05,,09,12,,,24,,,,,2.5,1.3,2.1*39",
		"$GPVTG,054.7,T,034.4,M,005.5,N,010.2,K,A*25",
		"$GPZDA,201530.00,04,07,2002,00,00*60",
	}
	for _, line := range lines {
		s, err := ParseString(line)
		require.NoError(t, err)
		assert.Equal(t, line, s.Base().String())
	}

	synthetic := &BaseSentence{TalkerID: "GN", SentenceID: "GLL", Components: []string{"", "", "", "", "", "V", "N"}}
	s, err := ParseString(synthetic.String())
	require.NoError(t, err)
	assert.Equal(t, synthetic.Components, s.Base().Components)
}

func TestParseNeverPanics(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	line := []byte(rmcScenario + "\r\n")

	assert.NotPanics(t, func() {
		for n := 0; n <= len(line); n++ {
			_, _ = Parse(line[:n])
		}
		for i := 0; i < 5000; i++ {
			b := make([]byte, rng.Intn(96))
			rng.Read(b)
			if len(b) > 0 && i%2 == 0 {
				b[0] = '$'
			}
			if len(b) > 6 && i%4 == 0 {
				b[6] = ','
			}
			_, _ = Parse(b)
		}
	})
}

// Random components behind a correct checksum reach every field decoder.
func TestFieldDecodersNeverPanic(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	const alphabet = "0123456789.,-+ENSWTKMAVDxX*\xff"

	for _, id := range []string{"GGA", "GLL", "GSA", "GSV", "RMC", "VTG", "ZDA"} {
		for i := 0; i < 500; i++ {
			comps := make([]byte, rng.Intn(80))
			for j := range comps {
				comps[j] = alphabet[rng.Intn(len(alphabet))]
			}
			body := "GP" + id + "," + string(comps)
			line := fmt.Sprintf("$%s*%02X", body, Checksum([]byte(body)))

			var s Sentence
			var err error
			require.NotPanics(t, func() { s, err = ParseString(line) }, line)
			require.NoError(t, err, line)
			assert.Equal(t, line, s.Base().String())
		}
	}
}

func TestParseInvalidUTF8SentenceID(t *testing.T) {
	line := "$GP\xff\xfeX,1*53"
	s, err := ParseString(line)
	require.NoError(t, err)
	require.IsType(t, &BaseSentence{}, s)
	assert.Equal(t, "\xff\xfeX", s.Base().SentenceID)
	assert.Equal(t, []string{"1"}, s.Base().Components)
	assert.Equal(t, line, s.Base().String())
}

func TestKnown(t *testing.T) {
	for _, id := range []string{"GGA", "gll", "GSA", "GSV", "RMC", "vtg"} {
		assert.True(t, Known(id), id)
	}
	for _, id := range []string{"ZDA", "", "\xff\xfeX"} {
		assert.False(t, Known(id), id)
	}
}
