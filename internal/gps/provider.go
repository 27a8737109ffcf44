package gps

import (
	"time"

	"github.com/shaunagostinho/buslink/internal/nmea"
)

// Provider is the interface for GPS data sources.
type Provider interface {
	Name() string
	Connect() error
	Close() error
	// Read returns the latest GPS fix. May block briefly.
	Read() (*Data, error)
}

// Data holds a single GPS fix, folded from several sentences.
type Data struct {
	Valid      bool      `json:"valid"`      // RMC status A
	Latitude   float64   `json:"latitude"`   // Decimal degrees
	Longitude  float64   `json:"longitude"`  // Decimal degrees
	Speed      float64   `json:"speed"`      // km/h
	Heading    float64   `json:"heading"`    // Degrees true
	Altitude   float64   `json:"altitude"`   // Meters
	Satellites int       `json:"satellites"` // Sats in use
	FixQuality int       `json:"fixQuality"` // 0=none, 1=GPS, 2=DGPS
	FixType    int       `json:"fixType"`    // 1=none, 2=2D, 3=3D
	HDOP       float64   `json:"hdop"`       // Horizontal dilution
	PDOP       float64   `json:"pdop"`
	VDOP       float64   `json:"vdop"`
	Time       time.Time `json:"time"` // UTC, from RMC
}

const msToKph = 3.6

// Apply folds one sentence into d and reports whether it carried fix data.
func (d *Data) Apply(s nmea.Sentence) bool {
	switch v := s.(type) {
	case *nmea.RMC:
		d.Valid = v.Status == nmea.StatusValid
		if v.Latitude != nil {
			d.Latitude = v.Latitude.TotalDegrees()
		}
		if v.Longitude != nil {
			d.Longitude = v.Longitude.TotalDegrees()
		}
		if v.Speed != nil {
			d.Speed = *v.Speed * msToKph
		}
		if v.Course != nil {
			d.Heading = *v.Course
		}
		if v.Timestamp != nil {
			d.Time = *v.Timestamp
		}
	case *nmea.GGA:
		if v.Quality != nil {
			d.FixQuality = int(*v.Quality)
		}
		if v.Satellites != nil {
			d.Satellites = *v.Satellites
		}
		if v.HDOP != nil {
			d.HDOP = *v.HDOP
		}
		if v.Altitude != nil {
			d.Altitude = *v.Altitude
		}
	case *nmea.GSA:
		d.FixType = int(v.FixType)
		if v.PDOP != nil {
			d.PDOP = *v.PDOP
		}
		if v.HDOP != nil {
			d.HDOP = *v.HDOP
		}
		if v.VDOP != nil {
			d.VDOP = *v.VDOP
		}
	case *nmea.VTG:
		if v.TrueTrack != nil {
			d.Heading = *v.TrueTrack
		}
		if v.KphSpeed != nil {
			d.Speed = *v.KphSpeed * msToKph
		} else if v.KnotsSpeed != nil {
			d.Speed = *v.KnotsSpeed * msToKph
		}
	default:
		return false
	}
	return true
}
