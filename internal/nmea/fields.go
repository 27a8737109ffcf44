package nmea

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Unit conversions applied at decode time.
const (
	KnotsToMetersPerSecond = 0.514444444
	KphToMetersPerSecond   = 0.277777778
)

// fields gives optional access to components: every accessor reports
// absence instead of failing when the index is out of range or the value
// does not parse.
type fields []string

func (f fields) str(i int) (string, bool) {
	if i < 0 || i >= len(f) {
		return "", false
	}
	return f[i], true
}

func (f fields) float(i int) *float64 {
	s, ok := f.str(i)
	if !ok || !isDecimal(s) {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func (f fields) int(i int) *int {
	s, ok := f.str(i)
	if !ok || s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

func (f fields) scaled(i int, factor float64) *float64 {
	v := f.float(i)
	if v == nil {
		return nil
	}
	*v *= factor
	return v
}

// isDecimal accepts an optional sign, digits and at most one '.', so that
// strconv's "NaN", "Inf" and hex forms never reach a field.
func isDecimal(s string) bool {
	if s != "" && (s[0] == '-' || s[0] == '+') {
		s = s[1:]
	}
	if s == "" || s == "." {
		return false
	}
	dot := false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '.' && !dot:
			dot = true
		case c < '0' || c > '9':
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// TimeOfDay is a UTC wall-clock time without a date (hhmmss[.sss]).
type TimeOfDay struct {
	Hour       int `json:"hour"`
	Minute     int `json:"minute"`
	Second     int `json:"second"`
	Nanosecond int `json:"nanosecond"`
}

// Duration returns the offset of t from midnight.
func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t.Hour)*time.Hour +
		time.Duration(t.Minute)*time.Minute +
		time.Duration(t.Second)*time.Second +
		time.Duration(t.Nanosecond)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d.%03d", t.Hour, t.Minute, t.Second, t.Nanosecond/int(time.Millisecond))
}

// ParseTimeOfDay decodes hhmmss with an optional fraction of up to nine digits.
func ParseTimeOfDay(s string) (TimeOfDay, bool) {
	if len(s) < 6 || !isDigits(s[:6]) {
		return TimeOfDay{}, false
	}
	t := TimeOfDay{
		Hour:   atoi2(s[0:2]),
		Minute: atoi2(s[2:4]),
		Second: atoi2(s[4:6]),
	}
	if t.Hour > 23 || t.Minute > 59 || t.Second > 60 {
		return TimeOfDay{}, false
	}
	if frac := s[6:]; frac != "" {
		if frac[0] != '.' {
			return TimeOfDay{}, false
		}
		digits := frac[1:]
		if len(digits) > 9 || (digits != "" && !isDigits(digits)) {
			return TimeOfDay{}, false
		}
		if digits != "" {
			ns, _ := strconv.Atoi(digits + strings.Repeat("0", 9-len(digits)))
			t.Nanosecond = ns
		}
	}
	return t, true
}

func (f fields) timeOfDay(i int) *TimeOfDay {
	s, ok := f.str(i)
	if !ok {
		return nil
	}
	t, ok := ParseTimeOfDay(s)
	if !ok {
		return nil
	}
	return &t
}

func atoi2(s string) int { return int(s[0]-'0')*10 + int(s[1]-'0') }

// Status is the A/V validity flag of RMC and GLL.
type Status int

const (
	StatusUnknown Status = iota
	StatusValid
	StatusInvalid
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

func (f fields) status(i int) Status {
	s, _ := f.str(i)
	switch strings.ToUpper(s) {
	case "A":
		return StatusValid
	case "V":
		return StatusInvalid
	default:
		return StatusUnknown
	}
}

// FAAMode is the positioning mode indicator added in NMEA 2.3.
type FAAMode int

const (
	FAAModeUnknown FAAMode = iota
	FAAModeAutonomous
	FAAModeDifferential
	FAAModeEstimated
	FAAModeManual
	FAAModeSimulated
	FAAModeNotValid
)

var faaModes = map[string]FAAMode{
	"A": FAAModeAutonomous,
	"D": FAAModeDifferential,
	"E": FAAModeEstimated,
	"M": FAAModeManual,
	"S": FAAModeSimulated,
	"N": FAAModeNotValid,
}

func (m FAAMode) String() string {
	switch m {
	case FAAModeAutonomous:
		return "autonomous"
	case FAAModeDifferential:
		return "differential"
	case FAAModeEstimated:
		return "estimated"
	case FAAModeManual:
		return "manual"
	case FAAModeSimulated:
		return "simulated"
	case FAAModeNotValid:
		return "not-valid"
	default:
		return "unknown"
	}
}

func (f fields) faaMode(i int) FAAMode {
	s, _ := f.str(i)
	return faaModes[strings.ToUpper(s)]
}
