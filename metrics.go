package main

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// feedMetrics counts connections and frames served by the mock feed.
type feedMetrics struct {
	gatherer prometheus.Gatherer

	Connections       prometheus.Counter
	ActiveConnections prometheus.Gauge
	FramesSent        *prometheus.CounterVec
	TracksSent        prometheus.Counter
	SendErrors        prometheus.Counter
	SourceErrors      prometheus.Counter
}

func newFeedMetrics(reg prometheus.Registerer) (*feedMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	m := &feedMetrics{
		gatherer: gatherer,
		Connections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mockfeed_connections_total",
			Help: "Websocket connections accepted.",
		}),
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mockfeed_active_connections",
			Help: "Websocket connections with a running session.",
		}),
		FramesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mockfeed_frames_sent_total",
			Help: "Frames written to clients, by kind (step or tracks).",
		}, []string{"kind"}),
		TracksSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mockfeed_tracks_sent_total",
			Help: "Synthetic track records written to clients.",
		}),
		SendErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mockfeed_send_errors_total",
			Help: "Frame writes that failed and ended a session.",
		}),
		SourceErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mockfeed_source_errors_total",
			Help: "Track source failures.",
		}),
	}
	for name, c := range map[string]prometheus.Collector{
		"mockfeed_connections_total":   m.Connections,
		"mockfeed_active_connections":  m.ActiveConnections,
		"mockfeed_frames_sent_total":   m.FramesSent,
		"mockfeed_tracks_sent_total":   m.TracksSent,
		"mockfeed_send_errors_total":   m.SendErrors,
		"mockfeed_source_errors_total": m.SourceErrors,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register %s: %w", name, err)
		}
	}
	return m, nil
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *feedMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *feedMetrics) connOpened() {
	if m == nil {
		return
	}
	m.Connections.Inc()
	m.ActiveConnections.Inc()
}

func (m *feedMetrics) connClosed() {
	if m == nil {
		return
	}
	m.ActiveConnections.Dec()
}

func (m *feedMetrics) frameSent(kind string, tracks int) {
	if m == nil {
		return
	}
	m.FramesSent.WithLabelValues(kind).Inc()
	if tracks > 0 {
		m.TracksSent.Add(float64(tracks))
	}
}

func (m *feedMetrics) sendFailed() {
	if m == nil {
		return
	}
	m.SendErrors.Inc()
}

func (m *feedMetrics) sourceFailed() {
	if m == nil {
		return
	}
	m.SourceErrors.Inc()
}
