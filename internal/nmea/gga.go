package nmea

// FixQuality is the GGA fix indicator.
type FixQuality int

const (
	FixInvalid FixQuality = iota
	FixGPS
	FixDGPS
	FixPPS
	FixRTK
	FixFloatRTK
	FixEstimated
	FixManual
	FixSimulation
)

// GGA is a fix: time, position, quality and altitude.
type GGA struct {
	BaseSentence
	Time            *TimeOfDay  `json:"time,omitempty"`
	Latitude        *Latitude   `json:"latitude,omitempty"`
	Longitude       *Longitude  `json:"longitude,omitempty"`
	Quality         *FixQuality `json:"quality,omitempty"`
	Satellites      *int        `json:"satellites,omitempty"`
	HDOP            *float64    `json:"hdop,omitempty"`
	Altitude        *float64    `json:"altitude,omitempty"` // metres above mean sea level
	GeoidSeparation *float64    `json:"geoidSeparation,omitempty"`
	DGPSAge         *float64    `json:"dgpsAge,omitempty"` // seconds
	DGPSStationID   *int        `json:"dgpsStationId,omitempty"`
}

func newGGA(b BaseSentence) Sentence {
	f := fields(b.Components)
	s := &GGA{
		BaseSentence:    b,
		Time:            f.timeOfDay(0),
		Latitude:        f.latitude(1),
		Longitude:       f.longitude(3),
		Satellites:      f.int(6),
		HDOP:            f.float(7),
		Altitude:        f.float(8),
		GeoidSeparation: f.float(10),
		DGPSAge:         f.float(12),
		DGPSStationID:   f.int(13),
	}
	if q := f.int(5); q != nil {
		v := FixQuality(*q)
		s.Quality = &v
	}
	return s
}
