package gps

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/shaunagostinho/buslink/internal/metrics"
	"github.com/shaunagostinho/buslink/internal/nmea"
)

// DemoGPS generates simulated NMEA output and decodes it through the same
// reassembler as a real receiver.
type DemoGPS struct {
	mu     sync.Mutex
	t      float64
	now    func() time.Time
	rng    *rand.Rand
	stream *feed
}

func NewDemoGPS(m *metrics.Protocol) *DemoGPS {
	return &DemoGPS{
		now:    time.Now,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		stream: newFeed(m),
	}
}

func (d *DemoGPS) Name() string   { return "Demo GPS (Simulated)" }
func (d *DemoGPS) Connect() error { return nil }
func (d *DemoGPS) Close() error   { return nil }

func (d *DemoGPS) Read() (*Data, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.t += 0.1

	// Simulate driving in a circle around a point
	centerLat := 43.6532 // Toronto
	centerLon := -79.3832
	radius := 0.005 // ~500m

	lat := centerLat + radius*math.Sin(d.t*0.1)
	lon := centerLon + radius*math.Cos(d.t*0.1)
	knots := (50 + 30*math.Sin(d.t*0.3) + d.rng.Float64()*5) / 1.852
	heading := math.Mod(d.t*10, 360)
	now := d.now().UTC()

	stream := demoSentences(now, lat, lon, knots, heading)
	// Deliver in uneven chunks, the way a UART read would.
	for len(stream) > 0 {
		n := 1 + d.rng.Intn(40)
		if n > len(stream) {
			n = len(stream)
		}
		d.stream.write(stream[:n])
		stream = stream[n:]
	}
	return d.stream.snapshot(), nil
}

func demoSentences(now time.Time, lat, lon, knots, heading float64) []byte {
	latValue, latHemi := formatCoord(lat, 2, "N", "S")
	lonValue, lonHemi := formatCoord(lon, 3, "E", "W")
	hms := now.Format("150405.00")

	rmc := nmea.BaseSentence{TalkerID: "GP", SentenceID: "RMC", Components: []string{
		hms, "A", latValue, latHemi, lonValue, lonHemi,
		fmt.Sprintf("%.1f", knots), fmt.Sprintf("%.1f", heading),
		now.Format("020106"), "", "", "A",
	}}
	gga := nmea.BaseSentence{TalkerID: "GP", SentenceID: "GGA", Components: []string{
		hms, latValue, latHemi, lonValue, lonHemi,
		"1", "12", "0.8", "76.0", "M", "-34.0", "M", "", "",
	}}
	gsa := nmea.BaseSentence{TalkerID: "GP", SentenceID: "GSA", Components: []string{
		"A", "3", "02", "05", "07", "09", "13", "16", "20", "26", "29", "", "", "", "1.4", "0.8", "1.1",
	}}
	return []byte(rmc.String() + "\r\n" + gga.String() + "\r\n" + gsa.String() + "\r\n")
}

// formatCoord renders decimal degrees as NMEA d..dmm.mmmm with hemisphere.
func formatCoord(v float64, degDigits int, pos, neg string) (string, string) {
	hemi := pos
	if v < 0 {
		hemi = neg
		v = -v
	}
	deg := math.Floor(v)
	min := (v - deg) * 60
	return fmt.Sprintf("%0*d%07.4f", degDigits, int(deg), min), hemi
}
