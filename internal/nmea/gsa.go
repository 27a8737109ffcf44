package nmea

import "strings"

// SelectionMode says whether the receiver picks 2D/3D itself.
type SelectionMode int

const (
	SelectionUnknown SelectionMode = iota
	SelectionAutomatic
	SelectionManual
)

// FixType is the GSA fix dimension.
type FixType int

const (
	FixTypeUnknown FixType = iota
	FixTypeNone
	FixType2D
	FixType3D
)

const maxGSASatellites = 12

// GSA lists the satellites used in the fix and the dilution of precision.
type GSA struct {
	BaseSentence
	SelectionMode SelectionMode `json:"selectionMode"`
	FixType       FixType       `json:"fixType"`
	Satellites    []int         `json:"satellites"`
	PDOP          *float64      `json:"pdop,omitempty"`
	HDOP          *float64      `json:"hdop,omitempty"`
	VDOP          *float64      `json:"vdop,omitempty"`
}

func newGSA(b BaseSentence) Sentence {
	f := fields(b.Components)
	s := &GSA{
		BaseSentence: b,
		PDOP:         f.float(14),
		HDOP:         f.float(15),
		VDOP:         f.float(16),
	}

	mode, _ := f.str(0)
	switch strings.ToUpper(mode) {
	case "A":
		s.SelectionMode = SelectionAutomatic
	case "M":
		s.SelectionMode = SelectionManual
	}
	if t := f.int(1); t != nil && *t >= 1 && *t <= 3 {
		s.FixType = FixType(*t)
	}

	// The PRN run ends at the first slot that is not an id.
	for i := 2; i < 2+maxGSASatellites; i++ {
		prn := f.int(i)
		if prn == nil {
			break
		}
		s.Satellites = append(s.Satellites, *prn)
	}
	return s
}
