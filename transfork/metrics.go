package transfork

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of a Client or Server.
// A nil *Metrics records nothing.
type Metrics struct {
	connections   prometheus.Gauge
	streams       *prometheus.CounterVec
	subscriptions prometheus.Gauge
	groups        *prometheus.CounterVec
	frames        *prometheus.CounterVec
	bytes         *prometheus.CounterVec
}

// Traffic directions.
const (
	directionSent     = "sent"
	directionReceived = "received"
)

// NewMetrics registers the transfork collectors with reg.
// If reg is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "transfork"
	}

	factory := promauto.With(reg)

	return &Metrics{
		connections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections",
			Help:      "Number of established connections",
		}),
		streams: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "streams_total",
			Help:      "Total number of accepted streams by type",
		}, []string{"type"}),
		subscriptions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscriptions",
			Help:      "Number of active subscriptions served by publishers",
		}),
		groups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "groups_total",
			Help:      "Total number of groups",
		}, []string{"direction"}),
		frames: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Total number of frames",
		}, []string{"direction"}),
		bytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frame_bytes_total",
			Help:      "Total number of frame payload bytes",
		}, []string{"direction"}),
	}
}

func (m *Metrics) connectionOpened() {
	if m != nil {
		m.connections.Inc()
	}
}

func (m *Metrics) connectionClosed() {
	if m != nil {
		m.connections.Dec()
	}
}

func (m *Metrics) streamAccepted(typ string) {
	if m != nil {
		m.streams.WithLabelValues(typ).Inc()
	}
}

func (m *Metrics) subscriptionStarted() {
	if m != nil {
		m.subscriptions.Inc()
	}
}

func (m *Metrics) subscriptionEnded() {
	if m != nil {
		m.subscriptions.Dec()
	}
}

func (m *Metrics) group(direction string) {
	if m != nil {
		m.groups.WithLabelValues(direction).Inc()
	}
}

func (m *Metrics) frame(direction string, size int) {
	if m != nil {
		m.frames.WithLabelValues(direction).Inc()
		m.bytes.WithLabelValues(direction).Add(float64(size))
	}
}
