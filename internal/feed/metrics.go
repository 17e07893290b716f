package feed

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts what happens to every received line. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	lines       *prometheus.CounterVec
	rejected    *prometheus.CounterVec
	applied     *prometheus.CounterVec
	connects    *prometheus.CounterVec
	disconnects *prometheus.CounterVec
	auditErrors prometheus.Counter
	evicted     prometheus.Counter
}

// TrackCounter reports the current number of tracks.
type TrackCounter interface {
	Len() int
}

// NewMetrics registers the feed metrics with reg. It returns nil when reg is
// nil. When tracks is non-nil a luftraum_tracks gauge reads its size on
// every scrape.
func NewMetrics(reg prometheus.Registerer, tracks TrackCounter) *Metrics {
	if reg == nil {
		return nil
	}
	m := &Metrics{
		lines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "luftraum",
			Subsystem: "feed",
			Name:      "lines_total",
			Help:      "Lines received per feed",
		}, []string{"feed"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "luftraum",
			Subsystem: "feed",
			Name:      "rejected_total",
			Help:      "Lines dropped by the decoder, by reason",
		}, []string{"feed", "reason"}),
		applied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "luftraum",
			Subsystem: "feed",
			Name:      "applied_total",
			Help:      "Decoded lines applied to the track store",
		}, []string{"feed"}),
		connects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "luftraum",
			Subsystem: "feed",
			Name:      "connects_total",
			Help:      "Successful feed connections",
		}, []string{"feed"}),
		disconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "luftraum",
			Subsystem: "feed",
			Name:      "disconnects_total",
			Help:      "Feed connections lost or failed",
		}, []string{"feed"}),
		auditErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "luftraum",
			Subsystem: "audit",
			Name:      "errors_total",
			Help:      "Failed audit log writes",
		}),
		evicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "luftraum",
			Name:      "tracks_evicted_total",
			Help:      "Tracks removed after going silent",
		}),
	}
	reg.MustRegister(m.lines, m.rejected, m.applied, m.connects, m.disconnects, m.auditErrors, m.evicted)
	if tracks != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "luftraum",
			Name:      "tracks",
			Help:      "Tracks currently held in the store",
		}, func() float64 { return float64(tracks.Len()) }))
	}
	return m
}

func (m *Metrics) line(feed string) {
	if m != nil {
		m.lines.WithLabelValues(feed).Inc()
	}
}

func (m *Metrics) reject(feed, reason string) {
	if m != nil {
		m.rejected.WithLabelValues(feed, reason).Inc()
	}
}

func (m *Metrics) apply(feed string) {
	if m != nil {
		m.applied.WithLabelValues(feed).Inc()
	}
}

func (m *Metrics) connect(feed string) {
	if m != nil {
		m.connects.WithLabelValues(feed).Inc()
	}
}

func (m *Metrics) disconnect(feed string) {
	if m != nil {
		m.disconnects.WithLabelValues(feed).Inc()
	}
}

func (m *Metrics) auditError() {
	if m != nil {
		m.auditErrors.Inc()
	}
}

// Evicted counts tracks removed by the evictor.
func (m *Metrics) Evicted(ids []string) {
	if m != nil && len(ids) > 0 {
		m.evicted.Add(float64(len(ids)))
	}
}
