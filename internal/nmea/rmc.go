package nmea

import (
	"strings"
	"time"
)

// RMC is the recommended minimum: position, velocity and a dated time.
type RMC struct {
	BaseSentence
	Time              *TimeOfDay `json:"time,omitempty"`
	Status            Status     `json:"status"`
	Latitude          *Latitude  `json:"latitude,omitempty"`
	Longitude         *Longitude `json:"longitude,omitempty"`
	Speed             *float64   `json:"speed,omitempty"`  // m/s over ground
	Course            *float64   `json:"course,omitempty"` // degrees true
	Timestamp         *time.Time `json:"timestamp,omitempty"`
	MagneticVariation *float64   `json:"magneticVariation,omitempty"` // degrees, west negative
	FAAMode           FAAMode    `json:"faaMode"`
}

func newRMC(b BaseSentence) Sentence {
	f := fields(b.Components)
	s := &RMC{
		BaseSentence: b,
		Time:         f.timeOfDay(0),
		Status:       f.status(1),
		Latitude:     f.latitude(2),
		Longitude:    f.longitude(4),
		Speed:        f.scaled(6, KnotsToMetersPerSecond),
		Course:       f.float(7),
		FAAMode:      f.faaMode(11),
	}

	if s.Time != nil {
		date, _ := f.str(8)
		if day, ok := parseDate(date); ok {
			ts := day.Add(s.Time.Duration())
			s.Timestamp = &ts
		}
	}

	if v := f.float(9); v != nil {
		hemi, _ := f.str(10)
		if strings.EqualFold(hemi, "W") {
			*v = -*v
		}
		s.MagneticVariation = v
	}
	return s
}

// parseDate decodes ddmmyy. Two-digit years from 80 are 19xx.
func parseDate(s string) (time.Time, bool) {
	if len(s) != 6 || !isDigits(s) {
		return time.Time{}, false
	}
	day, month, year := atoi2(s[0:2]), atoi2(s[2:4]), atoi2(s[4:6])
	if year >= 80 {
		year += 1900
	} else {
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
