package nmea

// GLL is a position with the time it was taken.
type GLL struct {
	BaseSentence
	Latitude  *Latitude  `json:"latitude,omitempty"`
	Longitude *Longitude `json:"longitude,omitempty"`
	Time      *TimeOfDay `json:"time,omitempty"`
	Status    Status     `json:"status"`
	FAAMode   FAAMode    `json:"faaMode"`
}

func newGLL(b BaseSentence) Sentence {
	f := fields(b.Components)
	return &GLL{
		BaseSentence: b,
		Latitude:     f.latitude(0),
		Longitude:    f.longitude(2),
		Time:         f.timeOfDay(4),
		Status:       f.status(5),
		FAAMode:      f.faaMode(6),
	}
}
