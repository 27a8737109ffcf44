package nmea

// SatelliteInView is one four-field group of a GSV sentence.
type SatelliteInView struct {
	PRN       int  `json:"prn"`
	Elevation *int `json:"elevation,omitempty"` // degrees
	Azimuth   *int `json:"azimuth,omitempty"`   // degrees true
	SNR       *int `json:"snr,omitempty"`       // dB-Hz, absent when not tracking
}

// GSV is one page of the satellites-in-view table.
type GSV struct {
	BaseSentence
	TotalMessages    *int              `json:"totalMessages,omitempty"`
	MessageNumber    *int              `json:"messageNumber,omitempty"`
	SatellitesInView *int              `json:"satellitesInView,omitempty"`
	Satellites       []SatelliteInView `json:"satellites"`
}

func newGSV(b BaseSentence) Sentence {
	f := fields(b.Components)
	s := &GSV{
		BaseSentence:     b,
		TotalMessages:    f.int(0),
		MessageNumber:    f.int(1),
		SatellitesInView: f.int(2),
	}
	for i := 3; i < len(f); i += 4 {
		prn := f.int(i)
		if prn == nil {
			break
		}
		s.Satellites = append(s.Satellites, SatelliteInView{
			PRN:       *prn,
			Elevation: f.int(i + 1),
			Azimuth:   f.int(i + 2),
			SNR:       f.int(i + 3),
		})
	}
	return s
}
