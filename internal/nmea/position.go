package nmea

import (
	"strconv"
	"strings"
)

type NorthSouth int

const (
	NorthSouthUnknown NorthSouth = iota
	North
	South
)

func (h NorthSouth) String() string {
	switch h {
	case North:
		return "N"
	case South:
		return "S"
	default:
		return ""
	}
}

type EastWest int

const (
	EastWestUnknown EastWest = iota
	East
	West
)

func (h EastWest) String() string {
	switch h {
	case East:
		return "E"
	case West:
		return "W"
	default:
		return ""
	}
}

// Latitude is ddmm.mmmm plus hemisphere, kept in wire units.
type Latitude struct {
	Sign    NorthSouth `json:"sign"`
	Degrees int        `json:"degrees"`
	Minutes float64    `json:"minutes"`
}

// TotalDegrees is the signed decimal value, negative in the south.
func (l Latitude) TotalDegrees() float64 {
	v := float64(l.Degrees) + l.Minutes/60
	if l.Sign == South {
		return -v
	}
	return v
}

// Longitude is dddmm.mmmm plus hemisphere, kept in wire units.
type Longitude struct {
	Sign    EastWest `json:"sign"`
	Degrees int      `json:"degrees"`
	Minutes float64  `json:"minutes"`
}

// TotalDegrees is the signed decimal value, negative in the west.
func (l Longitude) TotalDegrees() float64 {
	v := float64(l.Degrees) + l.Minutes/60
	if l.Sign == West {
		return -v
	}
	return v
}

// ParseLatitude decodes value ("4807.038") with hemisphere ("N" or "S").
// A missing or unrecognised hemisphere leaves Sign as NorthSouthUnknown.
func ParseLatitude(value, hemisphere string) (Latitude, bool) {
	deg, min, ok := splitDegrees(value)
	if !ok {
		return Latitude{}, false
	}
	l := Latitude{Degrees: deg, Minutes: min}
	switch strings.ToUpper(hemisphere) {
	case "N":
		l.Sign = North
	case "S":
		l.Sign = South
	}
	return l, true
}

// ParseLongitude decodes value ("01131.000") with hemisphere ("E" or "W").
// A missing or unrecognised hemisphere leaves Sign as EastWestUnknown.
func ParseLongitude(value, hemisphere string) (Longitude, bool) {
	deg, min, ok := splitDegrees(value)
	if !ok {
		return Longitude{}, false
	}
	l := Longitude{Degrees: deg, Minutes: min}
	switch strings.ToUpper(hemisphere) {
	case "E":
		l.Sign = East
	case "W":
		l.Sign = West
	}
	return l, true
}

// splitDegrees cuts the integer part two digits before the end, so the
// minutes keep exactly the digits the sentence carried. This is value/100
// and value mod 100 without float rounding; no range is enforced.
func splitDegrees(value string) (int, float64, bool) {
	if value == "" || value[0] == '-' || value[0] == '+' || !isDecimal(value) {
		return 0, 0, false
	}
	whole := value
	if dot := strings.IndexByte(value, '.'); dot >= 0 {
		whole = value[:dot]
	}
	split := len(whole) - 2
	if split < 0 {
		split = 0
	}
	deg := 0
	if split > 0 {
		deg, _ = strconv.Atoi(whole[:split])
	}
	min, err := strconv.ParseFloat(value[split:], 64)
	if err != nil {
		return 0, 0, false
	}
	return deg, min, true
}

func (f fields) latitude(i int) *Latitude {
	v, _ := f.str(i)
	h, _ := f.str(i + 1)
	l, ok := ParseLatitude(v, h)
	if !ok {
		return nil
	}
	return &l
}

func (f fields) longitude(i int) *Longitude {
	v, _ := f.str(i)
	h, _ := f.str(i + 1)
	l, ok := ParseLongitude(v, h)
	if !ok {
		return nil
	}
	return &l
}
