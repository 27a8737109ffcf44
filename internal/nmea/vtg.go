package nmea

import "strings"

// VTG is course and speed over ground. Speeds are in m/s.
type VTG struct {
	BaseSentence
	TrueTrack     *float64 `json:"trueTrack,omitempty"`
	MagneticTrack *float64 `json:"magneticTrack,omitempty"`
	KnotsSpeed    *float64 `json:"knotsSpeed,omitempty"`
	KphSpeed      *float64 `json:"kphSpeed,omitempty"`
	FAAMode       FAAMode  `json:"faaMode"`
}

func newVTG(b BaseSentence) Sentence {
	f := fields(b.Components)
	s := &VTG{BaseSentence: b}

	// NMEA 2.3 tags every value with a unit letter: x,T,x,M,x,N,x,K,m.
	if unit, _ := f.str(1); strings.EqualFold(unit, "T") {
		s.TrueTrack = f.float(0)
		s.MagneticTrack = f.float(2)
		s.KnotsSpeed = f.scaled(4, KnotsToMetersPerSecond)
		s.KphSpeed = f.scaled(6, KphToMetersPerSecond)
		s.FAAMode = f.faaMode(8)
		return s
	}

	s.TrueTrack = f.float(0)
	s.MagneticTrack = f.float(1)
	s.KnotsSpeed = f.scaled(2, KnotsToMetersPerSecond)
	s.KphSpeed = f.scaled(3, KphToMetersPerSecond)
	return s
}
