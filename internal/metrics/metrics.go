package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaunagostinho/buslink/internal/abus"
	"github.com/shaunagostinho/buslink/internal/nmea"
)

// NewRegistry returns a registry with the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// Protocol counts decoder outcomes. A nil *Protocol ignores every call.
type Protocol struct {
	FrameParseTotal *prometheus.CounterVec // labels: result=ok|bad_crc|error
	MessageTotal    *prometheus.CounterVec // labels: variant
	SentenceTotal   *prometheus.CounterVec // labels: type=GGA|GLL|GSA|GSV|RMC|VTG|other
	SentenceDropped prometheus.Counter
}

func NewProtocol(reg prometheus.Registerer) *Protocol {
	m := &Protocol{
		FrameParseTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "abus_parse_total",
			Help: "A-bus frame parse attempts.",
		}, []string{"result"}),
		MessageTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "abus_message_total",
			Help: "Decoded A-bus messages by variant.",
		}, []string{"variant"}),
		SentenceTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nmea_sentence_total",
			Help: "Decoded NMEA sentences by sentence id.",
		}, []string{"type"}),
		SentenceDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nmea_dropped_total",
			Help: "NMEA lines discarded by the stream reassembler.",
		}),
	}
	reg.MustRegister(m.FrameParseTotal, m.MessageTotal, m.SentenceTotal, m.SentenceDropped)
	return m
}

// ObserveFrame records the outcome of one abus.Parse call.
func (m *Protocol) ObserveFrame(msg abus.Message, err error) {
	if m == nil {
		return
	}
	switch {
	case err != nil:
		m.FrameParseTotal.WithLabelValues("error").Inc()
	case !msg.ToFrame().CRCValid:
		m.FrameParseTotal.WithLabelValues("bad_crc").Inc()
	default:
		m.FrameParseTotal.WithLabelValues("ok").Inc()
		m.MessageTotal.WithLabelValues(abus.Variant(msg)).Inc()
	}
}

// ObserveSentence counts s under its sentence id. Ids without a typed
// decoder share the "other" label; they come off the wire unchecked.
func (m *Protocol) ObserveSentence(s nmea.Sentence) {
	if m == nil {
		return
	}
	id := s.Base().SentenceID
	if !nmea.Known(id) {
		m.SentenceTotal.WithLabelValues("other").Inc()
		return
	}
	m.SentenceTotal.WithLabelValues(strings.ToUpper(id)).Inc()
}

func (m *Protocol) AddDropped(n uint64) {
	if m == nil || n == 0 {
		return
	}
	m.SentenceDropped.Add(float64(n))
}
